package pipeline_test

import (
	"context"
	"testing"

	"github.com/cognicore/ftscore/pkg/ftscore/analyze"
	"github.com/cognicore/ftscore/pkg/ftscore/collector"
	"github.com/cognicore/ftscore/pkg/ftscore/docindex"
	"github.com/cognicore/ftscore/pkg/ftscore/pipeline"
	"github.com/cognicore/ftscore/pkg/ftscore/store/memstore"
)

func buildTestStore(t *testing.T) *memstore.Store {
	t.Helper()
	s, err := memstore.New([]memstore.Posting{
		{Word: "quick", Pos: docindex.DocIndex{DocumentID: 1, Attribute: 0, WordIndex: 0}},
		{Word: "brown", Pos: docindex.DocIndex{DocumentID: 1, Attribute: 0, WordIndex: 1}},
		{Word: "fox", Pos: docindex.DocIndex{DocumentID: 1, Attribute: 0, WordIndex: 2}},

		{Word: "fox", Pos: docindex.DocIndex{DocumentID: 2, Attribute: 0, WordIndex: 10}},
		{Word: "quick", Pos: docindex.DocIndex{DocumentID: 2, Attribute: 0, WordIndex: 40}},
	}, nil)
	if err != nil {
		t.Fatalf("memstore.New: %v", err)
	}
	return s
}

func TestQueryRanksCloserMatchesFirst(t *testing.T) {
	s := buildTestStore(t)
	analyzer := analyze.New(nil)
	p := pipeline.New(s, analyzer, nil)

	results, err := p.Query(context.Background(), "quick fox", collector.Config{}, pipeline.Page{Offset: 0, Limit: 10}, 8)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	// Document 1 has "quick" and "fox" two apart (word_index 0 and 2);
	// document 2 has them 30 apart. Document 1 must rank first.
	if results[0].ID != 1 {
		t.Errorf("expected document 1 to rank first, got %d", results[0].ID)
	}
}

func TestQueryEmptyReturnsNoResults(t *testing.T) {
	s := buildTestStore(t)
	analyzer := analyze.New(nil)
	p := pipeline.New(s, analyzer, nil)

	results, err := p.Query(context.Background(), "   ", collector.Config{}, pipeline.Page{Offset: 0, Limit: 10}, 8)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results for an empty query, got %d", len(results))
	}
}

func TestQueryPaging(t *testing.T) {
	s := buildTestStore(t)
	analyzer := analyze.New(nil)
	p := pipeline.New(s, analyzer, nil)

	page1, err := p.Query(context.Background(), "quick fox", collector.Config{}, pipeline.Page{Offset: 0, Limit: 1}, 8)
	if err != nil {
		t.Fatalf("Query page1: %v", err)
	}
	page2, err := p.Query(context.Background(), "quick fox", collector.Config{}, pipeline.Page{Offset: 1, Limit: 1}, 8)
	if err != nil {
		t.Fatalf("Query page2: %v", err)
	}
	if len(page1) != 1 || len(page2) != 1 {
		t.Fatalf("expected one result per page, got %d and %d", len(page1), len(page2))
	}
	if page1[0].ID == page2[0].ID {
		t.Error("paging should return distinct documents per page")
	}
}
