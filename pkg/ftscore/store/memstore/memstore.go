// Package memstore is an in-memory store.Store built directly from a set
// of documents, for tests and small indexes. It builds one FST for the
// word set and one per-word postings slice, plus FSTs for the synonym
// dictionary, all up front at construction time.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/blevesearch/vellum"

	"github.com/cognicore/ftscore/pkg/ftscore/docindex"
)

// Store is an immutable, in-memory store.Store. Build it once via New and
// share it across goroutines; there is no mutation path.
type Store struct {
	mu sync.RWMutex

	words   *vellum.FST
	postings map[string][]docindex.DocIndex

	synonyms     *vellum.FST
	alternatives map[string]*vellum.FST
	altWords     map[string]map[uint64][]string
}

// Posting is one occurrence declared at construction time.
type Posting struct {
	Word string
	Pos  docindex.DocIndex
}

// Synonym declares that Word has Alternative as a synonym phrase.
type Synonym struct {
	Word        string
	Alternative []string
}

// New builds a Store from a flat list of postings and synonym
// declarations. Postings for the same word are sorted into
// (DocumentID, Attribute, WordIndex) order, matching what a real on-disk
// store guarantees.
func New(postings []Posting, synonyms []Synonym) (*Store, error) {
	byWord := make(map[string][]docindex.DocIndex)
	for _, p := range postings {
		byWord[p.Word] = append(byWord[p.Word], p.Pos)
	}
	for _, positions := range byWord {
		sort.Slice(positions, func(i, j int) bool {
			a, b := positions[i], positions[j]
			if a.DocumentID != b.DocumentID {
				return a.DocumentID < b.DocumentID
			}
			if a.Attribute != b.Attribute {
				return a.Attribute < b.Attribute
			}
			return a.WordIndex < b.WordIndex
		})
	}

	wordsFST, err := buildKeySet(keysOf(byWord))
	if err != nil {
		return nil, fmt.Errorf("build words fst: %w", err)
	}

	bySyn := make(map[string][][]string)
	for _, s := range synonyms {
		bySyn[s.Word] = append(bySyn[s.Word], s.Alternative)
	}
	synonymsFST, err := buildKeySet(keysOfSyn(bySyn))
	if err != nil {
		return nil, fmt.Errorf("build synonyms fst: %w", err)
	}

	alternatives := make(map[string]*vellum.FST, len(bySyn))
	altWords := make(map[string]map[uint64][]string, len(bySyn))
	for word, alts := range bySyn {
		var buf bytes.Buffer
		builder, err := vellum.New(&buf, nil)
		if err != nil {
			return nil, fmt.Errorf("build alternatives fst for %q: %w", word, err)
		}
		sort.Slice(alts, func(i, j int) bool {
			return joinKey(alts[i]) < joinKey(alts[j])
		})
		values := make(map[uint64][]string, len(alts))
		for i, alt := range alts {
			key := joinKey(alt)
			if err := builder.Insert([]byte(key), uint64(i)); err != nil {
				return nil, fmt.Errorf("insert alternative %q for %q: %w", key, word, err)
			}
			values[uint64(i)] = alt
		}
		if err := builder.Close(); err != nil {
			return nil, fmt.Errorf("close alternatives fst for %q: %w", word, err)
		}
		fst, err := vellum.Load(buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("load alternatives fst for %q: %w", word, err)
		}
		alternatives[word] = fst
		altWords[word] = values
	}

	return &Store{
		words:        wordsFST,
		postings:     byWord,
		synonyms:     synonymsFST,
		alternatives: alternatives,
		altWords:     altWords,
	}, nil
}

func keysOf(m map[string][]docindex.DocIndex) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func keysOfSyn(m map[string][][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinKey(words []string) string {
	var buf bytes.Buffer
	for i, w := range words {
		if i > 0 {
			buf.WriteByte(0x1f)
		}
		buf.WriteString(w)
	}
	return buf.String()
}

func buildKeySet(sortedKeys []string) (*vellum.FST, error) {
	var buf bytes.Buffer
	builder, err := vellum.New(&buf, nil)
	if err != nil {
		return nil, err
	}
	for i, k := range sortedKeys {
		if err := builder.Insert([]byte(k), uint64(i)); err != nil {
			return nil, err
		}
	}
	if err := builder.Close(); err != nil {
		return nil, err
	}
	return vellum.Load(buf.Bytes())
}

// Words implements store.Store.
func (s *Store) Words(ctx context.Context) (*vellum.FST, error) {
	return s.words, nil
}

// WordIndexes implements store.Store.
func (s *Store) WordIndexes(ctx context.Context, word []byte) ([]docindex.DocIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	positions, ok := s.postings[string(word)]
	if !ok {
		return nil, nil
	}
	out := make([]docindex.DocIndex, len(positions))
	copy(out, positions)
	return out, nil
}

// Synonyms implements store.Store.
func (s *Store) Synonyms(ctx context.Context) (*vellum.FST, error) {
	return s.synonyms, nil
}

// AlternativesTo implements store.Store.
func (s *Store) AlternativesTo(ctx context.Context, word []byte) (*vellum.FST, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fst, ok := s.alternatives[string(word)]
	if !ok {
		return nil, nil
	}
	return fst, nil
}

// AlternativeWords implements store.Store.
func (s *Store) AlternativeWords(ctx context.Context, word []byte, value uint64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values, ok := s.altWords[string(word)]
	if !ok {
		return nil, fmt.Errorf("memstore: no alternatives declared for %q", word)
	}
	words, ok := values[value]
	if !ok {
		return nil, fmt.Errorf("memstore: unknown alternative value %d for %q", value, word)
	}
	return words, nil
}
