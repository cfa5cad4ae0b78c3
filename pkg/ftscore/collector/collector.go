// Package collector implements the Postings Collector: it tokenizes a
// query, walks fuzzy and prefix matches plus synonym expansions against a
// store.Store, and emits the per-occurrence match and highlight streams
// the RawDocument Builder groups into documents.
package collector

import (
	"bytes"
	"context"
	"fmt"

	"github.com/blevesearch/vellum"
	"github.com/blevesearch/vellum/levenshtein"
	"github.com/xrash/smetrics"

	"github.com/cognicore/ftscore/pkg/ftscore/analyze"
	"github.com/cognicore/ftscore/pkg/ftscore/docindex"
	"github.com/cognicore/ftscore/pkg/ftscore/enhancer"
	"github.com/cognicore/ftscore/pkg/ftscore/store"
)

// TypoTolerance gives the word-length thresholds at which fuzzy matching
// widens from zero to one, then from one to two, allowed typos.
type TypoTolerance struct {
	MinWordLenFor1Typo int
	MinWordLenFor2Typos int
}

// maxEdit returns the Levenshtein radius to search at for a token of the
// given rune length.
func (t TypoTolerance) maxEdit(tokenLen int) uint8 {
	switch {
	case tokenLen >= t.MinWordLenFor2Typos && t.MinWordLenFor2Typos > 0:
		return 2
	case tokenLen >= t.MinWordLenFor1Typo && t.MinWordLenFor1Typo > 0:
		return 1
	default:
		return 0
	}
}

// Config carries the query-side settings the collector honors, mirroring
// the fields a caller loads from config.QueryConfig.
type Config struct {
	FilterAttributes  map[uint16]bool
	SearchableFields  map[uint16]bool
	TypoTolerance     TypoTolerance
	MaxSynonymPhrase  int
}

const defaultMaxSynonymPhrase = 3

// DocMatch pairs a document with one of its occurrence matches.
type DocMatch struct {
	Doc   docindex.DocumentId
	Match docindex.TmpMatch
}

// DocHighlight pairs a document with one of its highlight spans.
type DocHighlight struct {
	Doc       docindex.DocumentId
	Highlight docindex.Highlight
}

// Collector runs queries against a single store.Store.
type Collector struct {
	store    store.Store
	analyzer *analyze.Analyzer
}

// New creates a Collector over the given store, tokenizing with analyzer.
func New(s store.Store, analyzer *analyze.Analyzer) *Collector {
	return &Collector{store: s, analyzer: analyzer}
}

// Result is everything the RawDocument Builder and Query Pipeline need
// from one collection pass.
type Result struct {
	Matches    []DocMatch
	Highlights []DocHighlight
	Enhancer   *enhancer.Enhancer
	// ExpandedQuery is the full real-index query sequence, original tokens
	// followed by every synonym alternative token, in allocation order.
	ExpandedQuery []string
}

// Collect tokenizes text, expands synonyms, and fetches postings for
// every resulting token, returning the unordered match and highlight
// streams plus the enhancer built along the way. An empty Matches slice
// with a nil error means the query legitimately matched nothing.
func (c *Collector) Collect(ctx context.Context, text string, cfg Config) (*Result, error) {
	if cfg.MaxSynonymPhrase <= 0 {
		cfg.MaxSynonymPhrase = defaultMaxSynonymPhrase
	}

	original := c.analyzer.Tokenize(text)
	if len(original) == 0 {
		return &Result{}, nil
	}

	builder := enhancer.NewBuilder(original)
	expanded := append([]string(nil), original...)

	res := &Result{}

	// Step 2 over the original tokens, at their identity real index.
	for i, tok := range original {
		matches, highlights, err := c.lookupToken(ctx, tok, uint32(i), i == len(original)-1, cfg)
		if err != nil {
			return nil, fmt.Errorf("collector: lookup %q: %w", tok, err)
		}
		res.Matches = append(res.Matches, matches...)
		res.Highlights = append(res.Highlights, highlights...)
	}

	// Step 3: synonym expansion over contiguous sub-phrases of the
	// original query. Each accepted alternative gets fresh real indices
	// appended past the current expanded length, and is itself looked up
	// exactly as an original token would be.
	synonymsFST, err := c.store.Synonyms(ctx)
	if err != nil {
		return nil, fmt.Errorf("collector: load synonyms fst: %w", err)
	}
	if synonymsFST != nil {
		for o := 0; o < len(original); o++ {
			maxK := cfg.MaxSynonymPhrase
			if o+maxK > len(original) {
				maxK = len(original) - o
			}
			for k := 1; k <= maxK; k++ {
				phrase := joinPhrase(original[o : o+k])
				if _, found, err := synonymsFST.Get([]byte(phrase)); err != nil {
					return nil, fmt.Errorf("collector: synonyms lookup %q: %w", phrase, err)
				} else if !found {
					continue
				}

				alts, err := c.alternativesFor(ctx, []byte(phrase))
				if err != nil {
					return nil, fmt.Errorf("collector: alternatives for %q: %w", phrase, err)
				}

				for _, alt := range alts {
					real := len(expanded)
					builder.Declare(enhancer.Range{Start: o, End: o + k}, real, alt)
					expanded = append(expanded, alt...)

					for j, tok := range alt {
						matches, highlights, err := c.lookupToken(ctx, tok, uint32(real+j), false, cfg)
						if err != nil {
							return nil, fmt.Errorf("collector: lookup alternative %q: %w", tok, err)
						}
						res.Matches = append(res.Matches, matches...)
						res.Highlights = append(res.Highlights, highlights...)
					}
				}
			}
		}
	}

	res.Enhancer = builder.Build()
	res.ExpandedQuery = expanded
	return res, nil
}

func joinPhrase(words []string) string {
	var buf bytes.Buffer
	for i, w := range words {
		if i > 0 {
			buf.WriteByte(0x1f)
		}
		buf.WriteString(w)
	}
	return buf.String()
}

func (c *Collector) alternativesFor(ctx context.Context, phrase []byte) ([][]string, error) {
	altFST, err := c.store.AlternativesTo(ctx, phrase)
	if err != nil {
		return nil, err
	}
	if altFST == nil {
		return nil, nil
	}
	it, err := altFST.Iterator(nil, nil)
	var alts [][]string
	for err == nil {
		_, value := it.Current()
		words, werr := c.store.AlternativeWords(ctx, phrase, value)
		if werr != nil {
			return nil, werr
		}
		alts = append(alts, words)
		err = it.Next()
	}
	if err != nil && err != vellum.ErrIteratorDone {
		return nil, err
	}
	return alts, nil
}

// lookupToken fetches exact, fuzzy, and (for the final query token)
// prefix matches for one token, tagging every emitted TmpMatch with
// queryIndex.
func (c *Collector) lookupToken(ctx context.Context, token string, queryIndex uint32, isFinal bool, cfg Config) ([]DocMatch, []DocHighlight, error) {
	var matches []DocMatch
	var highlights []DocHighlight

	seen := make(map[string]bool)

	emit := func(word string, distance uint8, isExact bool) error {
		if seen[word] {
			return nil
		}
		seen[word] = true
		postings, err := c.store.WordIndexes(ctx, []byte(word))
		if err != nil {
			return err
		}
		for _, p := range postings {
			if cfg.SearchableFields != nil && !cfg.SearchableFields[p.Attribute] {
				continue
			}
			if cfg.FilterAttributes != nil && !cfg.FilterAttributes[p.Attribute] {
				continue
			}
			matches = append(matches, DocMatch{Doc: p.DocumentID, Match: docindex.TmpMatch{
				QueryIndex: queryIndex,
				Distance:   distance,
				Attribute:  p.Attribute,
				WordIndex:  p.WordIndex,
				IsExact:    isExact,
			}})
			highlights = append(highlights, DocHighlight{Doc: p.DocumentID, Highlight: docindex.Highlight{
				Attribute:  p.Attribute,
				CharIndex:  p.CharIndex,
				CharLength: p.CharLength,
			}})
		}
		return nil
	}

	if err := emit(token, 0, true); err != nil {
		return nil, nil, err
	}

	wordsFST, err := c.store.Words(ctx)
	if err != nil {
		return nil, nil, err
	}
	if wordsFST == nil {
		return matches, highlights, nil
	}

	if maxEdit := cfg.TypoTolerance.maxEdit(len([]rune(token))); maxEdit > 0 {
		lb, err := levenshtein.NewLevenshteinAutomatonBuilder(maxEdit, false)
		if err != nil {
			return nil, nil, fmt.Errorf("build levenshtein automaton for %q: %w", token, err)
		}
		aut, err := lb.BuildDfa(token, maxEdit)
		if err != nil {
			return nil, nil, fmt.Errorf("build levenshtein automaton for %q: %w", token, err)
		}
		it, err := wordsFST.Search(aut, nil, nil)
		for err == nil {
			key, _ := it.Current()
			word := string(key)
			distance := smetrics.WagnerFischer(token, word, 1, 1, 1)
			if emitErr := emit(word, uint8(distance), false); emitErr != nil {
				return nil, nil, emitErr
			}
			err = it.Next()
		}
		if err != nil && err != vellum.ErrIteratorDone {
			return nil, nil, fmt.Errorf("walk fuzzy matches for %q: %w", token, err)
		}
	}

	if isFinal {
		end := prefixUpperBound([]byte(token))
		it, err := wordsFST.Iterator([]byte(token), end)
		for err == nil {
			key, _ := it.Current()
			word := string(key)
			if emitErr := emit(word, 0, word == token); emitErr != nil {
				return nil, nil, emitErr
			}
			err = it.Next()
		}
		if err != nil && err != vellum.ErrIteratorDone {
			return nil, nil, fmt.Errorf("walk prefix matches for %q: %w", token, err)
		}
	}

	return matches, highlights, nil
}

// prefixUpperBound returns the smallest key strictly greater than every
// key sharing prefix, by incrementing its last byte that isn't already
// 0xff. A prefix of all 0xff bytes has no finite upper bound, in which
// case nil (meaning "to the end of the FST") is returned.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
