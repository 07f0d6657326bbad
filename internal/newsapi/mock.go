package newsapi

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pders01/brief/internal/results"
)

// Mock serves canned articles built around the keyword. It lets the client
// run without a backend.
type Mock struct {
	// Delay simulates network latency before answering.
	Delay time.Duration
	// Category keeps only articles of that category when set.
	Category string
	Now      func() time.Time
}

var mockOutlets = []struct {
	company  string
	category string
	author   string
	views    int
	image    string
}{
	{"Daily Ledger", "media", "AI Reporter", 4200, "https://images.unsplash.com/photo-1504711432869-0df30d7eaf4d?w=500"},
	{"Brief Tech", "technology", "Staff Writer", 2600, "https://images.unsplash.com/photo-1495020689067-958852a7765e?w=500"},
	{"Morning Post", "economy", "Desk Editor", 640, "https://images.unsplash.com/photo-1526304640581-d334cdbbf45e?w=500"},
	{"Metro Wire", "society", "Field Reporter", 1800, ""},
	{"Global Times Review", "world", "Correspondent", 350, ""},
	{"Signal Daily", "technology", "Analyst", 1250, "https://images.unsplash.com/photo-1518770660439-4636190af475?w=500"},
	{"Harbor Herald", "culture", "Columnist", 90, ""},
}

var mockHeadlines = []string{
	"'%s' in depth: what the data shows",
	"The future of %s over the next five years",
	"Markets react to the latest %s news",
	"Local voices on %s",
	"%s around the world this week",
	"Experts weigh in on %s",
	"Opinion: rethinking %s",
}

// mockID is stable for a keyword and position so archived mock results of
// different keywords do not overwrite each other.
func mockID(keyword string, i int) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(keyword)) + "\x00" + strconv.Itoa(i)))
	return fmt.Sprintf("mock-%x", sum[:6])
}

func (m *Mock) Search(ctx context.Context, keyword string) ([]results.Item, error) {
	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	base := now().Truncate(time.Minute)

	items := make([]results.Item, 0, len(mockOutlets))
	for i, o := range mockOutlets {
		if m.Category != "" && !strings.EqualFold(m.Category, o.category) {
			continue
		}
		var images []string
		if o.image != "" {
			images = []string{o.image}
		}
		items = append(items, results.Item{
			ID:          mockID(keyword, i),
			Title:       fmt.Sprintf(mockHeadlines[i], keyword),
			CompanyName: o.company,
			URL:         fmt.Sprintf("https://news.example.org/%s/%d", o.category, i+1),
			ImageURLs:   images,
			ViewCount:   o.views,
			Summary:     fmt.Sprintf("A look at '%s' from the %s desk. Enough related coverage was collected to summarize the story.", keyword, o.category),
			Category:    o.category,
			Author:      o.author,
			Published:   base.Add(-time.Duration(i) * 45 * time.Minute),
		})
	}
	return items, nil
}
