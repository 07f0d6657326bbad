package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/pders01/brief/internal/results"
)

// MaxRecentQueries caps the history bucket.
const MaxRecentQueries = 20

var ErrNotFound = errors.New("not found")

var (
	feedsBucket   = []byte("feeds")
	itemsBucket   = []byte("items")
	historyBucket = []byte("history")
	sessionBucket = []byte("session")

	loginKey = []byte("login")
)

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return Open(dbPath, 1*time.Second)
}

// Open opens the database at dbPath, waiting at most timeout for the file
// lock held by another brief process.
func Open(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{feedsBucket, itemsBucket, historyBucket, sessionBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveFeed(feed *Feed) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(feedsBucket)
		data, err := json.Marshal(feed)
		if err != nil {
			return err
		}
		return b.Put([]byte(feed.ID), data)
	})
}

func (s *Store) GetFeed(id string) (*Feed, error) {
	var feed Feed
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(feedsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("feed %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &feed)
	})
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

func itemKey(item results.Item) []byte {
	if item.ID != "" {
		return []byte(item.ID)
	}
	return []byte(item.URL)
}

// SaveItems records items as seen now under origin. Items without an ID or
// URL are skipped.
func (s *Store) SaveItems(origin string, items []results.Item) error {
	now := time.Now()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(itemsBucket)
		for _, item := range items {
			key := itemKey(item)
			if len(key) == 0 {
				continue
			}
			data, err := json.Marshal(StoredItem{Item: item, Origin: origin, SeenAt: now})
			if err != nil {
				return err
			}
			if err := b.Put(key, data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetItem(id string) (*StoredItem, error) {
	var item StoredItem
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(itemsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("item %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItems returns stored items from origin ("" for all), newest first.
func (s *Store) GetItems(origin string, limit int) ([]*StoredItem, error) {
	var items []*StoredItem
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(itemsBucket).ForEach(func(_ []byte, v []byte) error {
			var item StoredItem
			if err := json.Unmarshal(v, &item); err != nil {
				return nil
			}
			if origin == "" || item.Origin == origin {
				items = append(items, &item)
			}
			return nil
		})
	})
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Published.Equal(items[j].Published) {
			return items[i].Published.After(items[j].Published)
		}
		return items[i].SeenAt.After(items[j].SeenAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, err
}

func (s *Store) CountItems() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(itemsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// AddRecentQuery moves q to the front of the history. Queries differing only
// in case or spacing share one entry. The oldest entries beyond
// MaxRecentQueries are dropped.
func (s *Store) AddRecentQuery(q string) error {
	key := normalizeQuery(q)
	if key == "" {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(historyBucket)

		entry := RecentQuery{Query: strings.TrimSpace(q)}
		if data := b.Get([]byte(key)); data != nil {
			if err := json.Unmarshal(data, &entry); err != nil {
				return err
			}
			entry.Query = strings.TrimSpace(q)
		}
		entry.Count++
		entry.LastUsed = time.Now()

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(key), data); err != nil {
			return err
		}

		return trimHistory(b, MaxRecentQueries)
	})
}

func trimHistory(b *bolt.Bucket, keep int) error {
	type keyed struct {
		key  []byte
		used time.Time
	}
	var all []keyed
	err := b.ForEach(func(k, v []byte) error {
		var entry RecentQuery
		if err := json.Unmarshal(v, &entry); err != nil {
			return nil
		}
		all = append(all, keyed{key: append([]byte(nil), k...), used: entry.LastUsed})
		return nil
	})
	if err != nil || len(all) <= keep {
		return err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].used.After(all[j].used) })
	for _, k := range all[keep:] {
		if err := b.Delete(k.key); err != nil {
			return err
		}
	}
	return nil
}

// RecentQueries returns the history, most recently used first.
func (s *Store) RecentQueries(limit int) ([]RecentQuery, error) {
	var queries []RecentQuery
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(historyBucket).ForEach(func(_ []byte, v []byte) error {
			var entry RecentQuery
			if err := json.Unmarshal(v, &entry); err != nil {
				return nil
			}
			queries = append(queries, entry)
			return nil
		})
	})
	sort.Slice(queries, func(i, j int) bool {
		return queries[i].LastUsed.After(queries[j].LastUsed)
	})
	if limit > 0 && len(queries) > limit {
		queries = queries[:limit]
	}
	return queries, err
}

func (s *Store) ClearHistory() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(historyBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(historyBucket)
		return err
	})
}

// SaveLogin persists a sign-in under a fresh session id.
func (s *Store) SaveLogin(loginID, token string) (*Login, error) {
	if strings.TrimSpace(loginID) == "" || strings.TrimSpace(token) == "" {
		return nil, errors.New("login id and token are required")
	}
	login := &Login{
		SessionID: uuid.NewString(),
		LoginID:   strings.TrimSpace(loginID),
		Token:     strings.TrimSpace(token),
		CreatedAt: time.Now(),
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(login)
		if err != nil {
			return err
		}
		return tx.Bucket(sessionBucket).Put(loginKey, data)
	})
	if err != nil {
		return nil, fmt.Errorf("saving login: %w", err)
	}
	return login, nil
}

// LoadLogin returns the persisted sign-in or ErrNotFound.
func (s *Store) LoadLogin() (*Login, error) {
	var login Login
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sessionBucket).Get(loginKey)
		if data == nil {
			return fmt.Errorf("login: %w", ErrNotFound)
		}
		return json.Unmarshal(data, &login)
	})
	if err != nil {
		return nil, err
	}
	return &login, nil
}

func (s *Store) ClearLogin() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete(loginKey)
	})
}
