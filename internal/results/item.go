package results

import (
	"hash/fnv"
	"time"
)

// DefaultHotTopicThreshold is the view count an item with an image needs to
// show up in the hot topics panel.
const DefaultHotTopicThreshold = 1000

// Item is one matched article.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CompanyName string    `json:"company_name"`
	URL         string    `json:"url"`
	ImageURLs   []string  `json:"img_urls"`
	ViewCount   int       `json:"view_count"`
	Summary     string    `json:"contents"`
	Category    string    `json:"category"`
	Author      string    `json:"author"`
	Published   time.Time `json:"time"`
}

// HasImage reports whether the item carries at least one image URL.
func (i Item) HasImage() bool {
	for _, u := range i.ImageURLs {
		if u != "" {
			return true
		}
	}
	return false
}

// IsHotTopic reports whether the item qualifies for the hot topics panel.
func (i Item) IsHotTopic(threshold int) bool {
	return i.HasImage() && i.ViewCount >= threshold
}

// FirstImage returns the first non-empty image URL or "".
func (i Item) FirstImage() string {
	for _, u := range i.ImageURLs {
		if u != "" {
			return u
		}
	}
	return ""
}

func (i Item) clone() Item {
	if i.ImageURLs != nil {
		i.ImageURLs = append([]string(nil), i.ImageURLs...)
	}
	if i.ViewCount < 0 {
		i.ViewCount = 0
	}
	return i
}

// SynthesizeViewCount derives a stable pseudo view count from an item id for
// sources that do not report popularity. The range is 0..4999 so roughly
// four in five items cross the default threshold.
func SynthesizeViewCount(id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % 5000)
}
