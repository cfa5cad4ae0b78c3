// Package sqlitestore is a store.Store backed by SQLite, for indexes whose
// postings are too large to hold in memory. Postings live in a plain
// table; the word and synonym FSTs are rebuilt from that table and cached
// in memory, invalidated whenever Refresh is called after a bulk load.
package sqlitestore

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/blevesearch/vellum"

	"github.com/cognicore/ftscore/pkg/ftscore/docindex"
)

const schema = `
CREATE TABLE IF NOT EXISTS postings (
	word        TEXT NOT NULL,
	document_id INTEGER NOT NULL,
	attribute   INTEGER NOT NULL,
	word_index  INTEGER NOT NULL,
	char_index  INTEGER NOT NULL,
	char_length INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_postings_word ON postings(word);

CREATE TABLE IF NOT EXISTS synonyms (
	word        TEXT NOT NULL,
	ordinal     INTEGER NOT NULL,
	alternative TEXT NOT NULL,
	UNIQUE(word, ordinal)
);
`

// Store is a SQLite-backed store.Store. Open it with Open, call
// InsertPosting/InsertSynonym any number of times, then Refresh to build
// the FST snapshot that Words/Synonyms/AlternativesTo read from.
type Store struct {
	db *sql.DB

	mu           sync.RWMutex
	words        *vellum.FST
	synonyms     *vellum.FST
	alternatives map[string]*vellum.FST
	altWords     map[string]map[uint64][]string
}

// Open opens (creating if necessary) a SQLite database at path and
// ensures the postings/synonyms schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %q: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: enable wal: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: init schema: %w", err)
	}
	return &Store{db: db, alternatives: map[string]*vellum.FST{}, altWords: map[string]map[uint64][]string{}}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// InsertPosting records one word occurrence. Call Refresh after a batch of
// inserts to make it visible to queries.
func (s *Store) InsertPosting(ctx context.Context, word string, pos docindex.DocIndex) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO postings(word, document_id, attribute, word_index, char_index, char_length) VALUES (?, ?, ?, ?, ?, ?)`,
		word, int64(pos.DocumentID), pos.Attribute, pos.WordIndex, pos.CharIndex, pos.CharLength)
	if err != nil {
		return fmt.Errorf("sqlitestore: insert posting for %q: %w", word, err)
	}
	return nil
}

// InsertSynonym records that word has alternative (a token sequence
// joined by the caller with a 0x1f separator, matching memstore's
// convention) as a synonym expansion.
func (s *Store) InsertSynonym(ctx context.Context, word string, ordinal int, alternative string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO synonyms(word, ordinal, alternative) VALUES (?, ?, ?)`,
		word, ordinal, alternative)
	if err != nil {
		return fmt.Errorf("sqlitestore: insert synonym for %q: %w", word, err)
	}
	return nil
}

// Refresh rebuilds the in-memory FST snapshot from the current contents
// of the postings and synonyms tables. It must be called at least once
// before any query method is used, and again after any bulk load.
func (s *Store) Refresh(ctx context.Context) error {
	words, err := s.distinctWords(ctx)
	if err != nil {
		return err
	}
	wordsFST, err := buildKeySet(words)
	if err != nil {
		return fmt.Errorf("sqlitestore: build words fst: %w", err)
	}

	synWords, alternatives, altWords, err := s.buildSynonymFSTs(ctx)
	if err != nil {
		return err
	}
	synonymsFST, err := buildKeySet(synWords)
	if err != nil {
		return fmt.Errorf("sqlitestore: build synonyms fst: %w", err)
	}

	s.mu.Lock()
	s.words = wordsFST
	s.synonyms = synonymsFST
	s.alternatives = alternatives
	s.altWords = altWords
	s.mu.Unlock()
	return nil
}

func (s *Store) distinctWords(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT word FROM postings ORDER BY word`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: query distinct words: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

func (s *Store) buildSynonymFSTs(ctx context.Context) ([]string, map[string]*vellum.FST, map[string]map[uint64][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT word, ordinal, alternative FROM synonyms ORDER BY word, ordinal`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("sqlitestore: query synonyms: %w", err)
	}
	defer rows.Close()

	byWord := make(map[string][]string)
	for rows.Next() {
		var word, alt string
		var ordinal int
		if err := rows.Scan(&word, &ordinal, &alt); err != nil {
			return nil, nil, nil, fmt.Errorf("sqlitestore: scan synonym: %w", err)
		}
		byWord[word] = append(byWord[word], alt)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, nil, err
	}

	synWords := make([]string, 0, len(byWord))
	for w := range byWord {
		synWords = append(synWords, w)
	}
	sort.Strings(synWords)

	alternatives := make(map[string]*vellum.FST, len(byWord))
	altWords := make(map[string]map[uint64][]string, len(byWord))
	for word, alts := range byWord {
		sort.Strings(alts)
		var buf bytes.Buffer
		builder, err := vellum.New(&buf, nil)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("sqlitestore: build alternatives fst for %q: %w", word, err)
		}
		values := make(map[uint64][]string, len(alts))
		for i, alt := range alts {
			if err := builder.Insert([]byte(alt), uint64(i)); err != nil {
				return nil, nil, nil, fmt.Errorf("sqlitestore: insert alternative %q: %w", alt, err)
			}
			values[uint64(i)] = strings.Split(alt, "\x1f")
		}
		if err := builder.Close(); err != nil {
			return nil, nil, nil, fmt.Errorf("sqlitestore: close alternatives fst for %q: %w", word, err)
		}
		fst, err := vellum.Load(buf.Bytes())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("sqlitestore: load alternatives fst for %q: %w", word, err)
		}
		alternatives[word] = fst
		altWords[word] = values
	}
	return synWords, alternatives, altWords, nil
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
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.words, nil
}

// WordIndexes implements store.Store.
func (s *Store) WordIndexes(ctx context.Context, word []byte) ([]docindex.DocIndex, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, attribute, word_index, char_index, char_length FROM postings
		 WHERE word = ? ORDER BY document_id, attribute, word_index`, string(word))
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: query postings for %q: %w", word, err)
	}
	defer rows.Close()

	var out []docindex.DocIndex
	for rows.Next() {
		var p docindex.DocIndex
		var docID int64
		if err := rows.Scan(&docID, &p.Attribute, &p.WordIndex, &p.CharIndex, &p.CharLength); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan posting for %q: %w", word, err)
		}
		p.DocumentID = docindex.DocumentId(docID)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Synonyms implements store.Store.
func (s *Store) Synonyms(ctx context.Context) (*vellum.FST, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
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
		return nil, fmt.Errorf("sqlitestore: no alternatives declared for %q", word)
	}
	words, ok := values[value]
	if !ok {
		return nil, fmt.Errorf("sqlitestore: unknown alternative value %d for %q", value, word)
	}
	return words, nil
}
