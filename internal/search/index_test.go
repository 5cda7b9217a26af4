package search

import (
	"context"
	"path/filepath"
	"testing"

	"annotation-backend/internal/documents"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewMemOnly()
	if err != nil {
		t.Fatalf("NewMemOnly: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestIndexAndSearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	docs := []documents.Document{
		{ID: "d1", Title: "2023年北京市经济发展概况", SourceContent: "北京市地区生产总值增长", GeneratedContent: "北京经济稳步增长"},
		{ID: "d2", Title: "Quarterly report", SourceContent: "revenue grew in the third quarter", GeneratedContent: "summary of revenue"},
	}
	for _, doc := range docs {
		if err := idx.Index(ctx, doc); err != nil {
			t.Fatalf("Index %s: %v", doc.ID, err)
		}
	}
	if n, err := idx.Count(); err != nil || n != 2 {
		t.Fatalf("expected 2 indexed docs, got %d, %v", n, err)
	}

	ids, err := idx.Search(ctx, "revenue", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(ids) != 1 || ids[0] != "d2" {
		t.Fatalf("unexpected hits for revenue: %v", ids)
	}

	ids, err = idx.Search(ctx, "北京", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(ids) != 1 || ids[0] != "d1" {
		t.Fatalf("unexpected hits for 北京: %v", ids)
	}
}

func TestIndexReplacesDocument(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Index(ctx, documents.Document{ID: "d1", Title: "draft", SourceContent: "alpha", GeneratedContent: "alpha"}); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := idx.Index(ctx, documents.Document{ID: "d1", Title: "final", SourceContent: "beta", GeneratedContent: "beta"}); err != nil {
		t.Fatalf("Index: %v", err)
	}
	ids, err := idx.Search(ctx, "alpha", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected replaced content to be gone, got %v", ids)
	}
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.bleve")
	ctx := context.Background()

	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := idx.Index(ctx, documents.Document{ID: "d1", Title: "上海港口", SourceContent: "cargo volume", GeneratedContent: "port summary"}); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	ids, err := reopened.Search(ctx, "港口", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(ids) != 1 || ids[0] != "d1" {
		t.Fatalf("expected persisted hit d1, got %v", ids)
	}
}

func TestSearchRanksTitleMatchesFirst(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Index(ctx, documents.Document{ID: "body", Title: "misc", SourceContent: "harbor harbor notes", GeneratedContent: "other"}); err != nil {
		t.Fatalf("Index: %v", err)
	}
	if err := idx.Index(ctx, documents.Document{ID: "title", Title: "harbor", SourceContent: "notes", GeneratedContent: "other"}); err != nil {
		t.Fatalf("Index: %v", err)
	}
	ids, err := idx.Search(ctx, "harbor", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(ids) != 2 || ids[0] != "title" {
		t.Fatalf("expected title hit first, got %v", ids)
	}
}

var _ documents.Searcher = (*Index)(nil)
