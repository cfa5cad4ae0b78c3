// Package pipeline orchestrates the Query Enhancer, Postings Collector,
// RawDocument Builder, and Ranking Criteria into the single entry point
// callers use to run a query: tokenize, collect, build, partially rank,
// and page.
package pipeline

import (
	"container/heap"
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/ftscore/pkg/ftscore/analyze"
	"github.com/cognicore/ftscore/pkg/ftscore/collector"
	"github.com/cognicore/ftscore/pkg/ftscore/docindex"
	"github.com/cognicore/ftscore/pkg/ftscore/ftserr"
	"github.com/cognicore/ftscore/pkg/ftscore/ranking"
	"github.com/cognicore/ftscore/pkg/ftscore/rawdoc"
	"github.com/cognicore/ftscore/pkg/ftscore/store"
)

// Ranked is one document in a result page: its id and the highlight
// spans resolved for it.
type Ranked struct {
	ID         docindex.DocumentId
	Highlights []docindex.Highlight
}

// Page bounds a result window: [Offset, Offset+Limit).
type Page struct {
	Offset int
	Limit  int
}

// Pipeline runs queries against a single store.Store.
type Pipeline struct {
	collector *collector.Collector
	logger    *zap.Logger
	entropy   *ulid.MonotonicEntropy
}

// New creates a Pipeline over s, tokenizing with analyzer. A nil logger
// defaults to a no-op logger, matching how the rest of the core treats an
// absent logging configuration.
func New(s store.Store, analyzer *analyze.Analyzer, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		collector: collector.New(s, analyzer),
		logger:    logger,
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
}

// Query runs the four-stage pipeline and returns the requested page of
// ranked results. An empty query, or a query that matches nothing,
// returns an empty slice and a nil error.
func (p *Pipeline) Query(ctx context.Context, text string, cfg collector.Config, page Page, maxProximityPairDistance int) ([]Ranked, error) {
	traceID := p.newTraceID()
	log := p.logger.With(zap.String("trace_id", traceID), zap.String("query", text))

	result, err := p.collector.Collect(ctx, text, cfg)
	if err != nil {
		log.Error("collect failed", zap.Error(err))
		return nil, &ftserr.StoreError{Component: "collector.Collect", Reason: err}
	}
	if len(result.Matches) == 0 {
		log.Debug("no matches")
		return nil, nil
	}

	docs, err := rawdoc.Build(ctx, result.Matches, result.Highlights)
	if err != nil {
		log.Error("build raw documents failed", zap.Error(err))
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	cascade := ranking.DefaultCascade(result.Enhancer, maxProximityPairDistance)
	top := partialTopK(docs, cascade, page.Offset+page.Limit)

	lo, hi := clampWindow(page, len(top))
	out := make([]Ranked, 0, hi-lo)
	for _, d := range top[lo:hi] {
		highlights := make([]docindex.Highlight, len(d.Highlights))
		copy(highlights, d.Highlights)
		out = append(out, Ranked{ID: d.ID, Highlights: highlights})
	}

	log.Info("query complete",
		zap.Int("matched_documents", len(docs)),
		zap.Int("returned", len(out)),
	)
	return out, nil
}

func clampWindow(page Page, n int) (int, int) {
	lo := page.Offset
	if lo > n {
		lo = n
	}
	if lo < 0 {
		lo = 0
	}
	hi := lo + page.Limit
	if hi > n {
		hi = n
	}
	return lo, hi
}

func (p *Pipeline) newTraceID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), p.entropy).String()
}

// rankedHeap is a max-heap (by the cascade's ordering, worst first) used
// to keep only the best k documents seen so far without fully sorting
// the rest.
type rankedHeap struct {
	docs  []*rawdoc.RawDocument
	less  func(a, b *rawdoc.RawDocument) int
}

func (h *rankedHeap) Len() int { return len(h.docs) }
func (h *rankedHeap) Less(i, j int) bool {
	// A max-heap over "worseness": docs[i] is worse than docs[j] when the
	// cascade says docs[j] should rank ahead of docs[i].
	return h.less(h.docs[j], h.docs[i]) < 0
}
func (h *rankedHeap) Swap(i, j int) { h.docs[i], h.docs[j] = h.docs[j], h.docs[i] }
func (h *rankedHeap) Push(x any)    { h.docs = append(h.docs, x.(*rawdoc.RawDocument)) }
func (h *rankedHeap) Pop() any {
	old := h.docs
	n := len(old)
	item := old[n-1]
	h.docs = old[:n-1]
	return item
}

// partialTopK returns the k best documents by cmp, fully ordered, without
// sorting the whole input: a bounded max-heap of size k is maintained as
// the input is scanned once, then drained in ranked order.
func partialTopK(docs []*rawdoc.RawDocument, cmp func(a, b *rawdoc.RawDocument) int, k int) []*rawdoc.RawDocument {
	if k <= 0 {
		return nil
	}
	if k > len(docs) {
		k = len(docs)
	}

	// Break cascade ties by input position, so documents tied on every
	// criterion keep the order they had in docs.
	pos := make(map[*rawdoc.RawDocument]int, len(docs))
	for i, d := range docs {
		pos[d] = i
	}
	byRank := func(a, b *rawdoc.RawDocument) int {
		if v := cmp(a, b); v != 0 {
			return v
		}
		return pos[a] - pos[b]
	}

	h := &rankedHeap{less: byRank}
	for _, d := range docs {
		if h.Len() < k {
			heap.Push(h, d)
			continue
		}
		// If d is better than the current worst kept, evict the worst.
		if byRank(d, h.docs[0]) < 0 {
			h.docs[0] = d
			heap.Fix(h, 0)
		}
	}

	out := make([]*rawdoc.RawDocument, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(*rawdoc.RawDocument)
	}
	return out
}
