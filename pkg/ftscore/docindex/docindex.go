// Package docindex defines the data types shared across the indexing and
// query core: the document identifier, the on-disk-shaped posting record,
// the per-occurrence match record, and highlight spans.
package docindex

// DocumentId is an opaque, externally assigned, totally ordered identifier.
type DocumentId uint64

// DocIndex is a posting: one occurrence of a word at a given position in a
// given field of a given document. Stores return these sorted by
// (DocumentID, Attribute, WordIndex).
//
// Wire layout (when a Store reads these from disk) is 16 bytes
// little-endian: document_id(8) | attribute(2) | word_index(2) |
// char_index(2) | char_length(2). The core never writes this layout but
// relies on its ordering.
type DocIndex struct {
	DocumentID DocumentId
	Attribute  uint16
	WordIndex  uint16
	CharIndex  uint16
	CharLength uint16
}

// TmpMatch is a per-occurrence match record produced by the postings
// collector. QueryIndex always refers to the expanded ("real") query
// sequence; translating it back to the user's original positions is the
// QueryEnhancer's job, not the collector's.
type TmpMatch struct {
	QueryIndex uint32
	Distance   uint8
	Attribute  uint16
	WordIndex  uint16
	IsExact    bool
}

// Highlight is a byte-range span within a field, carried alongside matches
// for result rendering. It is independent of TmpMatch: the two are
// collected as separate streams and joined only by DocumentId, since they
// have different cardinalities per occurrence.
type Highlight struct {
	Attribute  uint16
	CharIndex  uint16
	CharLength uint16
}
