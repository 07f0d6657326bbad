package search

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/pders01/brief/internal/results"
	"github.com/pders01/brief/internal/storage"
)

// Result is a stored item matched by a local search.
type Result struct {
	Item    results.Item
	Origin  string
	Score   float64
	Matches []Match
}

// Match represents where text was found
type Match struct {
	Field  string // "title", "summary", "category", "company", "url"
	Text   string
	Weight float64
}

// Engine scores every stored item against the query. It needs no index and
// is used when no bleve index path is configured.
type Engine struct {
	store *storage.Store
	now   func() time.Time
}

func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	items, err := e.store.GetItems("", 0)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(items))
	for _, item := range items {
		if r := e.scoreItem(item, terms); r != nil {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (e *Engine) scoreItem(item *storage.StoredItem, terms []string) *Result {
	fields := []struct {
		name   string
		text   string
		weight float64
	}{
		{"title", item.Title, 4.0},
		{"summary", item.Summary, 2.0},
		{"category", item.Category, 1.5},
		{"company", item.CompanyName, 1.0},
		{"url", item.URL, 0.5},
	}

	var matches []Match
	var total float64
	for _, f := range fields {
		score := scoreField(f.text, terms, f.weight)
		if score <= 0 {
			continue
		}
		text := f.text
		if f.name == "summary" {
			text = findBestSnippet(f.text, terms, 200)
		}
		matches = append(matches, Match{Field: f.name, Text: text, Weight: score})
		total += score
	}

	if total <= 0 {
		return nil
	}

	if !item.Published.IsZero() {
		total *= 1.0 + recencyBoost(e.now(), item.Published)
	}

	return &Result{
		Item:    item.Item,
		Origin:  item.Origin,
		Score:   total,
		Matches: matches,
	}
}

// scoreField calculates relevance score for a field
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matchedTerms := 0

	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matchedTerms++
		}

		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matchedTerms++
			case strings.HasPrefix(word, term) || strings.HasSuffix(word, term):
				score += 1.0
				matchedTerms++
			case strings.Contains(word, term):
				score += 0.5
				matchedTerms++
			}
		}
	}

	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}

	tf := float64(matchedTerms) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// findBestSnippet finds the most relevant text snippet containing search terms
func findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	windowSize := maxLength / 8
	if windowSize > len(words) {
		return truncate(text, maxLength)
	}

	bestScore := 0
	bestStart := 0
	for i := 0; i <= len(words)-windowSize; i++ {
		window := strings.ToLower(strings.Join(words[i:i+windowSize], " "))
		score := 0
		for _, term := range terms {
			if strings.Contains(window, term) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestStart = i
		}
	}

	return truncate(strings.Join(words[bestStart:bestStart+windowSize], " "), maxLength)
}

// tokenize breaks text into lower-cased searchable terms, dropping single
// characters.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); len([]rune(term)) > 1 {
				terms = append(terms, term)
			}
			current.Reset()
		}
	}

	if term := current.String(); len([]rune(term)) > 1 {
		terms = append(terms, term)
	}

	return terms
}

// truncate limits text length with ellipsis
func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}

// recencyBoost gives up to 10% to items published within the last week,
// fading linearly to nothing over that week.
func recencyBoost(now, published time.Time) float64 {
	const week = 7 * 24 * time.Hour
	age := now.Sub(published)
	if age < 0 {
		age = 0
	}
	if age >= week {
		return 0
	}
	return 0.1 * (1 - float64(age)/float64(week))
}
