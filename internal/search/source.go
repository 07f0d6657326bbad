package search

import (
	"context"
	"io"

	"github.com/pders01/brief/internal/debuglog"
	"github.com/pders01/brief/internal/results"
	"github.com/pders01/brief/internal/storage"
)

// Open picks the bleve engine when indexPath is set and falls back to the
// scanning Engine when it is empty or the index cannot be opened.
func Open(store *storage.Store, indexPath string) Searcher {
	if indexPath == "" {
		return NewEngine(store)
	}
	be, err := NewBleveEngine(store, indexPath)
	if err != nil {
		debuglog.Warnf("bleve index at %s unavailable, using scan engine: %v", indexPath, err)
		return NewEngine(store)
	}
	return be
}

// Source serves queries from items seen in earlier sessions.
type Source struct {
	searcher Searcher
	limit    int
}

func NewSource(searcher Searcher, limit int) *Source {
	return &Source{searcher: searcher, limit: limit}
}

func (s *Source) Search(ctx context.Context, query string) ([]results.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hits, err := s.searcher.Search(query, s.limit)
	if err != nil {
		return nil, err
	}
	items := make([]results.Item, 0, len(hits))
	for _, h := range hits {
		items = append(items, h.Item)
	}
	return items, nil
}

// Close releases the underlying index, if any.
func (s *Source) Close() error {
	if c, ok := s.searcher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
