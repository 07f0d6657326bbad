package feed

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/pders01/brief/internal/results"
)

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
	}
}

// Parse reads one RSS/Atom/JSON feed and returns its title and items. Feeds
// carry no popularity data so view counts are synthesized from the item id.
func (p *Parser) Parse(reader io.Reader, feedID string) (string, []results.Item, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return "", nil, fmt.Errorf("parsing feed: %w", err)
	}

	items := make([]results.Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		id := generateID(feedID, it)
		item := results.Item{
			ID:          id,
			Title:       strings.TrimSpace(it.Title),
			CompanyName: strings.TrimSpace(feed.Title),
			URL:         it.Link,
			ImageURLs:   extractImageURLs(it),
			ViewCount:   results.SynthesizeViewCount(id),
			Summary:     htmlToText(getContent(it)),
			Author:      authorName(it),
		}
		if len(it.Categories) > 0 {
			item.Category = strings.TrimSpace(it.Categories[0])
		}
		switch {
		case it.PublishedParsed != nil:
			item.Published = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			item.Published = *it.UpdatedParsed
		}
		items = append(items, item)
	}

	return strings.TrimSpace(feed.Title), items, nil
}

func getContent(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

func authorName(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}

// htmlToText flattens an HTML fragment to whitespace-normalized text.
func htmlToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".avif": true,
}

func isImage(rawURL, mimeType string) bool {
	if strings.HasPrefix(mimeType, "image/") {
		return true
	}
	if mimeType != "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}

func extractImageURLs(item *gofeed.Item) []string {
	var urls []string

	if item.Image != nil && item.Image.URL != "" {
		urls = append(urls, item.Image.URL)
	}

	for _, enclosure := range item.Enclosures {
		if enclosure.URL != "" && isImage(enclosure.URL, enclosure.Type) {
			urls = append(urls, enclosure.URL)
		}
	}

	urls = append(urls, findImagesInHTML(item.Content+" "+item.Description)...)

	return resolveAll(item.Link, uniqueStrings(urls))
}

func findImagesInHTML(html string) []string {
	if !strings.Contains(html, "<img") {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var urls []string
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && strings.TrimSpace(src) != "" && !strings.HasPrefix(src, "data:") {
			urls = append(urls, strings.TrimSpace(src))
		}
	})
	return urls
}

// resolveAll makes relative image URLs absolute against the item link.
func resolveAll(base string, refs []string) []string {
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return refs
	}
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		u, err := url.Parse(r)
		if err != nil {
			continue
		}
		out = append(out, b.ResolveReference(u).String())
	}
	return out
}

func generateID(feedID string, item *gofeed.Item) string {
	key := item.GUID
	if key == "" {
		key = item.Link
	}
	if key == "" {
		key = item.Title + "\x00" + item.Published
	}
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s:%x", feedID, sum[:8])
}

func uniqueStrings(strs []string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, s := range strs {
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	return result
}

// Matches reports whether every query term occurs in the item's title,
// summary, category or outlet name. Matching is case-insensitive. The
// manager uses it only when no searcher is set.
func Matches(item results.Item, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	haystack := strings.ToLower(strings.Join([]string{item.Title, item.Summary, item.Category, item.CompanyName}, "\n"))
	for _, term := range terms {
		if !strings.Contains(haystack, strings.ToLower(term)) {
			return false
		}
	}
	return true
}
