package feed

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pders01/brief/internal/config"
	"github.com/pders01/brief/internal/debuglog"
	"github.com/pders01/brief/internal/results"
	"github.com/pders01/brief/internal/search"
	"github.com/pders01/brief/internal/storage"
	"github.com/pders01/brief/internal/validation"
)

const maxConcurrentRefresh = 5

// Manager serves searches from the configured feeds. Every search refreshes
// the feeds with conditional requests and filters what the store holds.
type Manager struct {
	store    *storage.Store
	fetcher  *Fetcher
	parser   *Parser
	feeds    []*storage.Feed
	limit    int
	listener search.UpdateListener
	searcher search.Searcher
	mu       sync.Mutex
}

func NewManager(store *storage.Store, cfg *config.Config) (*Manager, error) {
	v := validation.NewURLValidator()
	if cfg.Source.AllowPrivateHosts {
		v = validation.NewPermissiveURLValidator()
	}

	seen := make(map[string]bool)
	var feeds []*storage.Feed
	for _, raw := range cfg.Source.Feeds {
		normalized, err := v.NormalizeFeedURL(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid feed URL %q: %w", raw, err)
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		feeds = append(feeds, &storage.Feed{ID: generateFeedID(normalized), URL: normalized})
	}

	return &Manager{
		store:   store,
		fetcher: NewFetcher(cfg.Source),
		parser:  NewParser(),
		feeds:   feeds,
		limit:   cfg.Source.Limit,
	}, nil
}

// SetUpdateListener registers a search index to be told about parsed items.
func (m *Manager) SetUpdateListener(l search.UpdateListener) {
	m.listener = l
}

// SetSearcher routes keyword matching through a local search engine. Hits
// whose origin is not one of the configured feeds are dropped.
func (m *Manager) SetSearcher(s search.Searcher) {
	m.searcher = s
}

// SetForceRefresh configures the manager to ignore ETag/Last-Modified headers
func (m *Manager) SetForceRefresh(force bool) {
	m.fetcher.SetIgnoreCache(force)
}

func (m *Manager) Feeds() []*storage.Feed {
	return m.feeds
}

// RefreshFeed fetches one feed and stores its items when it changed.
func (m *Manager) RefreshFeed(ctx context.Context, feed *storage.Feed) error {
	state, err := m.store.GetFeed(feed.ID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("getting feed: %w", err)
		}
		state = &storage.Feed{ID: feed.ID, URL: feed.URL}
	}

	resp, updated, err := m.fetcher.Fetch(ctx, state)
	if err != nil {
		return fmt.Errorf("%s: %w", feed.URL, err)
	}
	if !updated || resp == nil {
		debuglog.Debugf("feed %s not modified", feed.URL)
		return nil
	}
	defer resp.Body.Close()

	title, items, err := m.parser.Parse(resp.Body, feed.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", feed.URL, err)
	}

	m.fetcher.UpdateFeedMetadata(state, resp)
	if title != "" {
		state.Title = title
	}

	if err := m.store.SaveItems(feed.ID, items); err != nil {
		return fmt.Errorf("saving items: %w", err)
	}
	if err := m.store.SaveFeed(state); err != nil {
		return fmt.Errorf("saving feed: %w", err)
	}
	if m.listener != nil {
		m.listener.OnItemsSaved(feed.ID, items)
	}

	debuglog.WithFields(map[string]interface{}{
		"feed":  feed.URL,
		"items": len(items),
	}).Infof("feed refreshed")
	return nil
}

// RefreshAllFeeds refreshes every configured feed with a bounded worker pool.
// It returns the number of feeds that failed together with the joined errors.
func (m *Manager) RefreshAllFeeds(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.feeds) == 0 {
		return 0, nil
	}

	feedChan := make(chan *storage.Feed)
	errChan := make(chan error, len(m.feeds))

	var wg sync.WaitGroup
	for i := 0; i < maxConcurrentRefresh && i < len(m.feeds); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for feed := range feedChan {
				if err := m.RefreshFeed(ctx, feed); err != nil {
					errChan <- err
				}
			}
		}()
	}

dispatch:
	for _, feed := range m.feeds {
		select {
		case feedChan <- feed:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(feedChan)

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return len(errs), errors.Join(errs...)
}

// Search refreshes the feeds and returns the stored items matching query.
// With a searcher set, hits come back in its relevance order; otherwise every
// term of query must match and items are ordered newest first. It fails only
// when no feed could be read and nothing was stored before.
func (m *Manager) Search(ctx context.Context, query string) ([]results.Item, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, nil
	}

	failed, refreshErr := m.RefreshAllFeeds(ctx)
	if refreshErr != nil {
		debuglog.Warnf("feed refresh: %d of %d feeds failed: %v", failed, len(m.feeds), refreshErr)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	origins := make(map[string]bool, len(m.feeds))
	var archived []*storage.StoredItem
	for _, feed := range m.feeds {
		items, err := m.store.GetItems(feed.ID, 0)
		if err != nil {
			return nil, fmt.Errorf("loading items: %w", err)
		}
		origins[feed.ID] = true
		archived = append(archived, items...)
	}

	if len(archived) == 0 {
		if refreshErr != nil {
			return nil, fmt.Errorf("no feed could be read: %w", refreshErr)
		}
		return nil, nil
	}

	var matched []results.Item
	if m.searcher != nil {
		var err error
		if matched, err = m.searchIndex(query, origins); err != nil {
			return nil, err
		}
	} else {
		for _, it := range archived {
			if Matches(it.Item, terms) {
				matched = append(matched, it.Item)
			}
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Published.After(matched[j].Published)
		})
	}

	if m.limit > 0 && len(matched) > m.limit {
		matched = matched[:m.limit]
	}
	return matched, nil
}

// searchIndex asks the searcher for every hit in the archive so items of
// other origins cannot crowd out feed items, then keeps the feed items.
func (m *Manager) searchIndex(query string, origins map[string]bool) ([]results.Item, error) {
	total, err := m.store.CountItems()
	if err != nil {
		return nil, fmt.Errorf("counting items: %w", err)
	}
	hits, err := m.searcher.Search(query, total)
	if err != nil {
		return nil, fmt.Errorf("searching archive: %w", err)
	}
	matched := make([]results.Item, 0, len(hits))
	for _, h := range hits {
		if origins[h.Origin] {
			matched = append(matched, h.Item)
		}
	}
	return matched, nil
}

func generateFeedID(url string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(url)))[:16]
}
