package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/brief/internal/results"
	"github.com/pders01/brief/internal/storage"
)

type BleveEngine struct {
	store *storage.Store
	idx   bleve.Index
}

// NewBleveEngine creates or opens a Bleve index at indexPath and indexes the
// items already in store.
func NewBleveEngine(store *storage.Store, indexPath string) (*BleveEngine, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}

	be := &BleveEngine{store: store, idx: idx}
	if err := be.reindexAll(); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("indexing stored items: %w", err)
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	summary := bleve.NewTextFieldMapping()
	summary.Analyzer = standard.Name
	summary.Store = false

	category := bleve.NewTextFieldMapping()
	category.Analyzer = standard.Name
	category.Store = true

	company := bleve.NewTextFieldMapping()
	company.Analyzer = standard.Name
	company.Store = true

	url := bleve.NewTextFieldMapping()
	url.Analyzer = standard.Name
	url.Store = true

	origin := bleve.NewTextFieldMapping()
	origin.Analyzer = keyword.Name
	origin.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("summary", summary)
	dm.AddFieldMappingsAt("category", category)
	dm.AddFieldMappingsAt("company", company)
	dm.AddFieldMappingsAt("url", url)
	dm.AddFieldMappingsAt("origin", origin)

	im.DefaultMapping = dm
	return im
}

func itemDocument(origin string, item results.Item) map[string]any {
	return map[string]any{
		"title":    item.Title,
		"summary":  item.Summary,
		"category": item.Category,
		"company":  item.CompanyName,
		"url":      item.URL,
		"origin":   origin,
	}
}

func docID(item results.Item) string {
	if item.ID != "" {
		return item.ID
	}
	return item.URL
}

func (b *BleveEngine) reindexAll() error {
	items, err := b.store.GetItems("", 0)
	if err != nil {
		return err
	}

	batch := b.idx.NewBatch()
	for _, it := range items {
		id := docID(it.Item)
		if id == "" {
			continue
		}
		if err := batch.Index(id, itemDocument(it.Origin, it.Item)); err != nil {
			return err
		}
	}
	return b.idx.Batch(batch)
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	fields := []struct {
		name  string
		boost float64
	}{
		{"title", 4.0},
		{"summary", 2.0},
		{"category", 1.5},
		{"company", 1.0},
		{"url", 0.5},
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range fields {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(f.name)
			mq.SetBoost(f.boost)
			qs = append(qs, mq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f.name)
			pq.SetBoost(f.boost * 0.85)
			qs = append(qs, pq)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "category", "company", "url", "origin"}
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		r := &Result{Score: h.Score}
		if stored, getErr := b.store.GetItem(h.ID); getErr == nil {
			r.Item = stored.Item
			r.Origin = stored.Origin
		} else {
			// index and store out of sync; rebuild what the index kept
			r.Item = results.Item{ID: h.ID}
			r.Item.Title, _ = h.Fields["title"].(string)
			r.Item.Category, _ = h.Fields["category"].(string)
			r.Item.CompanyName, _ = h.Fields["company"].(string)
			r.Item.URL, _ = h.Fields["url"].(string)
			r.Origin, _ = h.Fields["origin"].(string)
		}
		out = append(out, r)
	}
	return out, nil
}

// OnItemsSaved indexes items seen from origin.
func (b *BleveEngine) OnItemsSaved(origin string, items []results.Item) {
	batch := b.idx.NewBatch()
	for _, it := range items {
		id := docID(it)
		if id == "" {
			continue
		}
		_ = batch.Index(id, itemDocument(origin, it))
	}
	_ = b.idx.Batch(batch)
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}
