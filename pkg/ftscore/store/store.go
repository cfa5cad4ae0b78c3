// Package store defines the read-only index the query core runs against:
// the set of indexed words, the postings for a word, the set of known
// synonym keys, and the synonym alternatives for a key.
//
// A Store is built once per index generation and shared, read-only,
// across concurrent queries; nothing in this package mutates a Store.
package store

import (
	"context"

	"github.com/blevesearch/vellum"

	"github.com/cognicore/ftscore/pkg/ftscore/docindex"
)

// Store is the interface the Postings Collector runs queries against. All
// methods must be safe for concurrent use by multiple goroutines.
type Store interface {
	// Words returns the FST holding every indexed word, used for fuzzy and
	// prefix lookups via automaton intersection.
	Words(ctx context.Context) (*vellum.FST, error)

	// WordIndexes returns the postings for an exact word, sorted by
	// (DocumentID, Attribute, WordIndex). A nil, nil result means the word
	// is not indexed.
	WordIndexes(ctx context.Context, word []byte) ([]docindex.DocIndex, error)

	// Synonyms returns the FST holding every word that has at least one
	// synonym declared; the collector looks phrases up in it by exact key.
	Synonyms(ctx context.Context) (*vellum.FST, error)

	// AlternativesTo returns the synonym alternatives declared for word, as
	// an FST of candidate replacement phrases (each value on the FST is an
	// index into a side table the caller resolves separately, since an FST
	// value is a single uint64 and a synonym alternative may be more than
	// one token). A nil, nil result means word has no declared synonyms.
	AlternativesTo(ctx context.Context, word []byte) (*vellum.FST, error)

	// AlternativeWords resolves the FST values returned by AlternativesTo
	// back into the token sequences they stand for.
	AlternativeWords(ctx context.Context, word []byte, value uint64) ([]string, error)
}
