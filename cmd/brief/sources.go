package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pders01/brief/internal/config"
	"github.com/pders01/brief/internal/debuglog"
	"github.com/pders01/brief/internal/feed"
	"github.com/pders01/brief/internal/newsapi"
	"github.com/pders01/brief/internal/search"
	"github.com/pders01/brief/internal/session"
	"github.com/pders01/brief/internal/storage"
	"github.com/pders01/brief/internal/tui"
	"github.com/pders01/brief/internal/validation"
)

// mockLatency keeps the spinner visible when the TUI runs on mock data.
const mockLatency = 400 * time.Millisecond

// source is the fetcher selected by config plus the index that wants to hear
// about archived items and the backend that wants to hear about opened ones.
type source struct {
	fetcher  session.Fetcher
	listener search.UpdateListener
	recorder tui.ViewRecorder
	closers  []io.Closer
}

func (s *source) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openSearcher opens the local index. An unusable index path falls back to
// scanning the store.
func openSearcher(cfg *config.Config, store *storage.Store) search.Searcher {
	indexPath := cfg.Database.SearchIndex
	if indexPath != "" {
		clean, err := validation.DataPath(indexPath, true)
		if err != nil {
			debuglog.Warnf("search index path rejected: %v", err)
			clean = ""
		}
		indexPath = clean
	}
	return search.Open(store, indexPath)
}

// buildSource wires the configured backend. latency only applies to the
// mock backend.
func buildSource(cfg *config.Config, store *storage.Store, latency time.Duration) (*source, error) {
	searcher := openSearcher(cfg, store)
	src := &source{}
	if c, ok := searcher.(io.Closer); ok {
		src.closers = append(src.closers, c)
	}
	if l, ok := searcher.(search.UpdateListener); ok {
		src.listener = l
	}

	switch cfg.Source.Backend {
	case config.BackendAPI:
		client, err := newsapi.NewClient(cfg.Source)
		if err != nil {
			_ = src.Close()
			return nil, err
		}
		src.fetcher = client
		src.recorder = client

	case config.BackendRSS:
		manager, err := feed.NewManager(store, cfg)
		if err != nil {
			_ = src.Close()
			return nil, err
		}
		if src.listener != nil {
			manager.SetUpdateListener(src.listener)
		}
		manager.SetSearcher(searcher)
		src.fetcher = manager
		src.listener = nil

	case config.BackendLocal:
		src.fetcher = search.NewSource(searcher, cfg.Source.Limit)
		src.listener = nil

	case config.BackendMock:
		src.fetcher = &newsapi.Mock{Delay: latency, Category: cfg.Source.Category}

	default:
		_ = src.Close()
		return nil, fmt.Errorf("unknown source backend %q", cfg.Source.Backend)
	}

	debuglog.WithFields(map[string]interface{}{
		"backend": cfg.Source.Backend,
		"indexed": src.listener != nil,
	}).Infof("source ready")
	return src, nil
}
