// Package search keeps a bleve full-text index over document titles and contents.
package search

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/mapping"

	"annotation-backend/internal/documents"
)

// Index wraps a bleve index and implements documents.Searcher.
type Index struct {
	index bleve.Index
}

// indexedDocument is the shape stored in bleve.
type indexedDocument struct {
	Title            string
	SourceContent    string
	GeneratedContent string
}

// NewMemOnly builds an in-memory index. It is rebuilt from the store on startup.
func NewMemOnly() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{index: idx}, nil
}

// Open opens an on-disk index at path, creating it when missing.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Index{index: idx}, nil
}

// The cjk analyzer emits bigrams for CJK runs, so Chinese queries match
// without a dictionary segmenter.
func buildIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = cjk.AnalyzerName
	text.Store = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Title", text)
	docMapping.AddFieldMappingsAt("SourceContent", text)
	docMapping.AddFieldMappingsAt("GeneratedContent", text)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = cjk.AnalyzerName
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func (i *Index) Close() error {
	return i.index.Close()
}

// Index adds or replaces a document.
func (i *Index) Index(ctx context.Context, doc documents.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return i.index.Index(doc.ID, indexedDocument{
		Title:            doc.Title,
		SourceContent:    doc.SourceContent,
		GeneratedContent: doc.GeneratedContent,
	})
}

// Search matches q against titles (boosted) and both contents.
func (i *Index) Search(ctx context.Context, q string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	title := bleve.NewMatchQuery(q)
	title.SetField("Title")
	title.SetBoost(3)
	source := bleve.NewMatchQuery(q)
	source.SetField("SourceContent")
	generated := bleve.NewMatchQuery(q)
	generated.SetField("GeneratedContent")

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(title, source, generated), limit, 0, false)
	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Count reports how many documents are indexed.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}
