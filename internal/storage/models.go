package storage

import (
	"time"

	"github.com/pders01/brief/internal/results"
	"github.com/pders01/brief/internal/session"
)

// Feed is the fetch state of one configured RSS/Atom feed.
type Feed struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	LastFetched  time.Time `json:"last_fetched"`
}

// StoredItem is a result item as it was last seen, together with where it
// came from.
type StoredItem struct {
	results.Item
	Origin string    `json:"origin"`
	SeenAt time.Time `json:"seen_at"`
}

type RecentQuery struct {
	Query    string    `json:"query"`
	Count    int       `json:"count"`
	LastUsed time.Time `json:"last_used"`
}

// Login is a persisted sign-in.
type Login struct {
	SessionID string    `json:"session_id"`
	LoginID   string    `json:"login_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *Login) Credentials() session.Credentials {
	if l == nil {
		return session.Credentials{}
	}
	return session.Credentials{
		SessionID: l.SessionID,
		LoginID:   l.LoginID,
		Token:     l.Token,
	}
}
