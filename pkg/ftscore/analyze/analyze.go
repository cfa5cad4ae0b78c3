// Package analyze turns raw query and document text into the normalized
// token sequence the rest of the core operates on: Unicode word-boundary
// segmentation, lowercasing, diacritic folding, and stopword removal.
package analyze

import (
	"strings"
	"unicode"

	"github.com/blevesearch/segment"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Analyzer tokenizes text the same way for both indexing and querying, so
// that a query token and the posting it should match were produced by an
// identical process.
type Analyzer struct {
	stopwords map[string]struct{}
	fold      transform.Transformer
}

// New creates an Analyzer with the given stopword set. Stopwords are
// matched after folding, so they should be given in their folded,
// lowercased form.
func New(stopwords []string) *Analyzer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[strings.ToLower(w)] = struct{}{}
	}
	return &Analyzer{
		stopwords: stops,
		fold:      runes.Remove(runes.In(unicode.Mn)),
	}
}

// Tokenize splits text on Unicode word boundaries (UAX #29), folds each
// word to lowercase ASCII-equivalent form where possible, and drops
// stopwords and empty segments. The returned slice has one entry per
// surviving token, in original order; it is the query sequence the
// enhancer numbers positions against.
func (a *Analyzer) Tokenize(text string) []string {
	segmenter := segment.NewWordSegmenter(strings.NewReader(text))
	var tokens []string
	for segmenter.Segment() {
		typ := segmenter.Type()
		if typ != segment.Letter && typ != segment.Number {
			continue
		}
		word := a.Normalize(string(segmenter.Bytes()))
		if word == "" {
			continue
		}
		if _, stop := a.stopwords[word]; stop {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Normalize lowercases and diacritic-folds a single word, without applying
// stopword filtering. Tokenize applies it to every segment.
func (a *Analyzer) Normalize(word string) string {
	lowered := strings.ToLower(word)
	decomposed := norm.NFD.String(lowered)
	folded, _, err := transform.String(a.fold, decomposed)
	if err != nil {
		return lowered
	}
	return folded
}

// IsStopword reports whether word (already normalized) is filtered out.
func (a *Analyzer) IsStopword(word string) bool {
	_, ok := a.stopwords[word]
	return ok
}
