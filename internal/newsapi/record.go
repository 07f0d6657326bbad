package newsapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/pders01/brief/internal/results"
)

// record is one article as the news backend serves it.
type record struct {
	ID          flexibleID `json:"id"`
	Title       string     `json:"title"`
	Contents    string     `json:"contents"`
	Category    string     `json:"category"`
	URL         string     `json:"url"`
	CompanyName string     `json:"company_name"`
	ImageURLs   []string   `json:"img_urls"`
	Time        looseTime  `json:"time"`
	Author      string     `json:"author"`
	ViewCount   *int       `json:"view_count"`
}

func (r record) item() results.Item {
	id := string(r.ID)
	if id == "" {
		id = r.URL
	}

	views := results.SynthesizeViewCount(id)
	if r.ViewCount != nil {
		views = *r.ViewCount
		if views < 0 {
			views = 0
		}
	}

	images := make([]string, 0, len(r.ImageURLs))
	for _, u := range r.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, u)
		}
	}

	return results.Item{
		ID:          id,
		Title:       strings.TrimSpace(r.Title),
		CompanyName: r.CompanyName,
		URL:         r.URL,
		ImageURLs:   images,
		ViewCount:   views,
		Summary:     r.Contents,
		Category:    r.Category,
		Author:      r.Author,
		Published:   time.Time(r.Time),
	}
}

// flexibleID accepts both numeric and string ids.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*f = flexibleID(n.String())
	return nil
}

// looseTime parses whatever timestamp layout the backend emits, including
// numeric unix epochs in seconds or milliseconds. Timestamps without a zone
// are taken as UTC. Unparseable values decode to the zero time.
type looseTime time.Time

// epochMillisCutoff separates epoch seconds from epoch milliseconds.
const epochMillisCutoff = 1e12

func (t *looseTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '"' {
		*t = looseTime(parseEpoch(data))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil || strings.TrimSpace(s) == "" {
		*t = looseTime(time.Time{})
		return nil
	}
	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		*t = looseTime(time.Time{})
		return nil
	}
	*t = looseTime(parsed)
	return nil
}

func parseEpoch(data []byte) time.Time {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return time.Time{}
	}
	f, err := n.Float64()
	if err != nil || f <= 0 {
		return time.Time{}
	}
	if f >= epochMillisCutoff {
		return time.UnixMilli(int64(f)).UTC()
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

func decodeRecords(data []byte) ([]results.Item, error) {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decoding articles: %w", err)
	}
	items := make([]results.Item, 0, len(recs))
	for _, r := range recs {
		items = append(items, r.item())
	}
	return items, nil
}
