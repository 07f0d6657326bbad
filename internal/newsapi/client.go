// Package newsapi talks to the news backend's article search endpoint.
package newsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/pders01/brief/internal/config"
	"github.com/pders01/brief/internal/debuglog"
	"github.com/pders01/brief/internal/results"
	"github.com/pders01/brief/internal/session"
	"github.com/pders01/brief/internal/validation"
)

// ErrUnexpectedStatus is wrapped by Search when the backend answers with a
// non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// ErrViewRejected is returned by RecordView when the backend does not know
// the logged in user.
var ErrViewRejected = errors.New("view not recorded")

const maxBodyBytes = 8 << 20

type Client struct {
	baseURL   string
	userAgent string
	limit     int
	category  string
	http      *http.Client
	limiter   *rate.Limiter
	cache     *gocache.Cache
	cacheTTL  time.Duration
}

// NewClient builds a client from the source section of the config.
func NewClient(cfg config.SourceConfig) (*Client, error) {
	v := validation.NewURLValidator()
	if cfg.AllowPrivateHosts {
		v = validation.NewPermissiveURLValidator()
	}
	base, err := v.NormalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:   base,
		userAgent: cfg.UserAgent,
		limit:     cfg.Limit,
		category:  strings.TrimSpace(cfg.Category),
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, burst),
		cacheTTL:  cfg.CacheTTL,
	}
	if cfg.CacheTTL > 0 {
		c.cache = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return c, nil
}

func cacheKey(keyword, category string, limit int, creds session.Credentials) string {
	return strings.ToLower(keyword) + "\x00" + category + "\x00" + strconv.Itoa(limit) + "\x00" + creds.LoginID
}

// Search fetches the articles matching keyword. Credentials attached to ctx
// are sent as a bearer token.
func (c *Client) Search(ctx context.Context, keyword string) ([]results.Item, error) {
	keyword = strings.TrimSpace(keyword)
	creds, _ := session.CredentialsFrom(ctx)
	key := cacheKey(keyword, c.category, c.limit, creds)

	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			debuglog.Debugf("newsapi cache hit for %q", keyword)
			return append([]results.Item(nil), cached.([]results.Item)...), nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := c.newRequest(ctx, keyword, creds)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching articles: %w", err)
	}
	defer resp.Body.Close()

	debuglog.WithFields(map[string]interface{}{
		"keyword":    keyword,
		"status":     resp.StatusCode,
		"request_id": req.Header.Get("X-Request-ID"),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debugf("newsapi request finished")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, req.URL.Path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	items, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(key, append([]results.Item(nil), items...), c.cacheTTL)
	}
	return items, nil
}

func (c *Client) newRequest(ctx context.Context, keyword string, creds session.Credentials) (*http.Request, error) {
	q := url.Values{}
	q.Set("keyword", keyword)
	if c.limit > 0 {
		q.Set("limit", strconv.Itoa(c.limit))
	}
	if c.category != "" {
		q.Set("category", c.category)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/articles?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, creds)
	return req, nil
}

func (c *Client) setHeaders(req *http.Request, creds session.Credentials) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if !creds.Anonymous() {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}
	if creds.SessionID != "" {
		req.Header.Set("X-Session-ID", creds.SessionID)
	}
}

type viewEvent struct {
	LoginID  string `json:"login_id"`
	Category string `json:"category"`
	Keyword  string `json:"keyword,omitempty"`
}

type viewReply struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// RecordView tells the backend that the logged in user opened item while
// searching for keyword. Anonymous sessions send nothing.
func (c *Client) RecordView(ctx context.Context, item results.Item, keyword string) error {
	creds, _ := session.CredentialsFrom(ctx)
	if creds.Anonymous() || creds.LoginID == "" {
		return nil
	}

	body, err := json.Marshal(viewEvent{
		LoginID:  creds.LoginID,
		Category: item.Category,
		Keyword:  strings.TrimSpace(keyword),
	})
	if err != nil {
		return fmt.Errorf("encoding view: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/increase_user_interest", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, creds)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("recording view: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, req.URL.Path)
	}

	var reply viewReply
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&reply); err != nil {
		return fmt.Errorf("decoding view reply: %w", err)
	}
	if !reply.Success {
		return fmt.Errorf("%w: %s", ErrViewRejected, reply.Message)
	}

	debuglog.WithFields(map[string]interface{}{
		"login":    creds.LoginID,
		"category": item.Category,
		"keyword":  keyword,
	}).Debugf("view recorded")
	return nil
}

// Flush drops all cached responses.
func (c *Client) Flush() {
	if c.cache != nil {
		c.cache.Flush()
	}
}
