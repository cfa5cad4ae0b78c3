// Package rawdoc builds column-oriented per-document match records from
// the unordered match and highlight streams the Postings Collector
// produces, and provides the permutation utility ranking criteria use to
// reorder those columns in lockstep.
package rawdoc

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/ftscore/pkg/ftscore/collector"
	"github.com/cognicore/ftscore/pkg/ftscore/docindex"
	"github.com/cognicore/ftscore/pkg/ftscore/ftserr"
)

// RawDocument is one document's collected matches and highlights, stored
// as parallel columns. QueryIndex, Distance, Attribute, WordIndex, and
// IsExact always have equal length and are permuted together.
type RawDocument struct {
	ID docindex.DocumentId

	QueryIndex []uint32
	Distance   []uint8
	Attribute  []uint16
	WordIndex  []uint16
	IsExact    []bool

	Highlights []docindex.Highlight
}

// Len is the number of match entries.
func (d *RawDocument) Len() int { return len(d.QueryIndex) }

// Permute applies the permutation π (as produced by SortPermutation) to
// every match column in lockstep. It is the only way ranking criteria
// should reorder a RawDocument's columns.
func (d *RawDocument) Permute(pi []int) {
	n := d.Len()
	queryIndex := make([]uint32, n)
	distance := make([]uint8, n)
	attribute := make([]uint16, n)
	wordIndex := make([]uint16, n)
	isExact := make([]bool, n)
	for newPos, oldPos := range pi {
		queryIndex[newPos] = d.QueryIndex[oldPos]
		distance[newPos] = d.Distance[oldPos]
		attribute[newPos] = d.Attribute[oldPos]
		wordIndex[newPos] = d.WordIndex[oldPos]
		isExact[newPos] = d.IsExact[oldPos]
	}
	d.QueryIndex = queryIndex
	d.Distance = distance
	d.Attribute = attribute
	d.WordIndex = wordIndex
	d.IsExact = isExact
}

// SortPermutation computes the permutation π of [0, n) that sorts
// indices [0, n) by less, without mutating anything. Apply it to every
// parallel column with Permute so all columns end up reordered
// consistently. O(n log n) time, O(n) scratch.
func SortPermutation(n int, less func(i, j int) bool) []int {
	pi := make([]int, n)
	for i := range pi {
		pi[i] = i
	}
	sort.SliceStable(pi, func(a, b int) bool { return less(pi[a], pi[b]) })
	return pi
}

// Build groups the collector's unordered match and highlight streams into
// per-document RawDocuments. Both streams are stable-sorted by
// DocumentId using a bounded-fan-out parallel sort over chunks, then
// grouped by document. The set of document ids seen in matches must
// equal the set seen in highlights; a document appearing in one stream
// but not the other is an invariant violation, not a tolerated case,
// since it means the collector emitted a highlight for a document with
// no corresponding match, or vice versa.
func Build(ctx context.Context, matches []collector.DocMatch, highlights []collector.DocHighlight) ([]*RawDocument, error) {
	if err := parallelSortByDoc(ctx, matches, func(m collector.DocMatch) docindex.DocumentId { return m.Doc }); err != nil {
		return nil, fmt.Errorf("rawdoc: sort matches: %w", err)
	}
	if err := parallelSortByDoc(ctx, highlights, func(h collector.DocHighlight) docindex.DocumentId { return h.Doc }); err != nil {
		return nil, fmt.Errorf("rawdoc: sort highlights: %w", err)
	}

	docs := make(map[docindex.DocumentId]*RawDocument)
	var order []docindex.DocumentId

	docFor := func(id docindex.DocumentId) *RawDocument {
		if d, ok := docs[id]; ok {
			return d
		}
		d := &RawDocument{ID: id}
		docs[id] = d
		order = append(order, id)
		return d
	}

	matchDocs := make(map[docindex.DocumentId]bool, len(matches))
	for _, m := range matches {
		matchDocs[m.Doc] = true
		d := docFor(m.Doc)
		d.QueryIndex = append(d.QueryIndex, m.Match.QueryIndex)
		d.Distance = append(d.Distance, m.Match.Distance)
		d.Attribute = append(d.Attribute, m.Match.Attribute)
		d.WordIndex = append(d.WordIndex, m.Match.WordIndex)
		d.IsExact = append(d.IsExact, m.Match.IsExact)
	}
	highlightDocs := make(map[docindex.DocumentId]bool, len(highlights))
	for _, h := range highlights {
		highlightDocs[h.Doc] = true
		d := docFor(h.Doc)
		d.Highlights = append(d.Highlights, h.Highlight)
	}

	for id := range matchDocs {
		if !highlightDocs[id] {
			return nil, &ftserr.Invariant{Component: "rawdoc.Build", Detail: fmt.Sprintf("document %d has matches but no highlights", id)}
		}
	}
	for id := range highlightDocs {
		if !matchDocs[id] {
			return nil, &ftserr.Invariant{Component: "rawdoc.Build", Detail: fmt.Sprintf("document %d has highlights but no matches", id)}
		}
	}

	out := make([]*RawDocument, len(order))
	for i, id := range order {
		out[i] = docs[id]
	}
	return out, nil
}

// parallelSortByDoc stable-sorts s by the DocumentId key, splitting the
// work across a bounded pool of goroutines: each chunk is sorted
// concurrently, then the sorted chunks are merged sequentially. This
// mirrors the bounded-fan-out shape used elsewhere in the core for
// CPU-bound batch work. Inputs shorter than 2048 entries are sorted on
// the calling goroutine instead.
func parallelSortByDoc[T any](ctx context.Context, s []T, key func(T) docindex.DocumentId) error {
	n := len(s)
	if n < 2048 {
		sort.SliceStable(s, func(i, j int) bool { return key(s[i]) < key(s[j]) })
		return nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	chunkSize := (n + workers - 1) / workers

	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	chunks := make([][]T, 0, workers)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		chunk := s[start:end]
		chunks = append(chunks, chunk)
		group.Go(func() error {
			sort.SliceStable(chunk, func(i, j int) bool { return key(chunk[i]) < key(chunk[j]) })
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	merged := make([]T, 0, n)
	idx := make([]int, len(chunks))
	for {
		best := -1
		for ci, chunk := range chunks {
			if idx[ci] >= len(chunk) {
				continue
			}
			if best == -1 || key(chunk[idx[ci]]) < key(chunks[best][idx[best]]) {
				best = ci
			}
		}
		if best == -1 {
			break
		}
		merged = append(merged, chunks[best][idx[best]])
		idx[best]++
	}
	copy(s, merged)
	return nil
}
