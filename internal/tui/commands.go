package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/brief/internal/debuglog"
	"github.com/pders01/brief/internal/results"
	"github.com/pders01/brief/internal/reveal"
	"github.com/pders01/brief/internal/session"
)

// fetch runs req off the event loop. A fetch still in flight for an older
// session is cancelled first; its response is stale either way.
func (a *App) fetch(req session.Request) tea.Cmd {
	if a.cancelFetch != nil {
		a.cancelFetch()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelFetch = cancel
	lc := a.session
	return func() tea.Msg {
		defer cancel()
		return fetchDoneMsg{resp: lc.Fetch(ctx, req)}
	}
}

// typeTick schedules the next rune of the typewriter header.
func (a *App) typeTick(gen uint64) tea.Cmd {
	return tea.Tick(a.config.Reveal.TypingInterval, func(time.Time) tea.Msg {
		return typeTickMsg{gen: gen}
	})
}

// revealAfter raises sig for session gen once d has passed.
func revealAfter(d time.Duration, gen uint64, sig reveal.Signal) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return revealMsg{gen: gen, sig: sig}
	})
}

// saveItems archives items so later sessions can search them locally.
func (a *App) saveItems(origin string, items []results.Item) tea.Cmd {
	if a.store == nil || len(items) == 0 {
		return nil
	}
	store, listener := a.store, a.listener
	return func() tea.Msg {
		if err := store.SaveItems(origin, items); err != nil {
			return errorMsg{err: wrapErr("save items", err)}
		}
		if listener != nil {
			listener.OnItemsSaved(origin, items)
		}
		return itemsSavedMsg{origin: origin, count: len(items)}
	}
}

func (a *App) recordQuery(q string) tea.Cmd {
	if a.store == nil {
		return nil
	}
	store := a.store
	return func() tea.Msg {
		if err := store.AddRecentQuery(q); err != nil {
			debuglog.Warnf("record query %q: %v", q, err)
		}
		return nil
	}
}

func (a *App) loadHistory() tea.Cmd {
	if a.store == nil {
		return func() tea.Msg { return historyLoadedMsg{} }
	}
	store := a.store
	return func() tea.Msg {
		queries, err := store.RecentQueries(0)
		if err != nil {
			return errorMsg{err: wrapErr("load history", err)}
		}
		return historyLoadedMsg{queries: queries}
	}
}

func (a *App) clearHistory() tea.Cmd {
	if a.store == nil {
		return nil
	}
	store := a.store
	return func() tea.Msg {
		if err := store.ClearHistory(); err != nil {
			return errorMsg{err: wrapErr("clear history", err)}
		}
		return historyLoadedMsg{}
	}
}

// itemMarkdown lays out an item as a markdown document for the reader.
func itemMarkdown(item results.Item) string {
	var content strings.Builder
	content.WriteString(fmt.Sprintf("# %s\n\n", item.Title))

	var byline []string
	if item.CompanyName != "" {
		byline = append(byline, item.CompanyName)
	}
	if item.Author != "" {
		byline = append(byline, item.Author)
	}
	if !item.Published.IsZero() {
		byline = append(byline, item.Published.Format(time.RFC1123))
	}
	if len(byline) > 0 {
		content.WriteString(fmt.Sprintf("*%s*\n\n", strings.Join(byline, " • ")))
	}
	if item.Category != "" {
		content.WriteString(fmt.Sprintf("**Category:** %s\n\n", item.Category))
	}
	content.WriteString(fmt.Sprintf("**Views:** %d\n\n", item.ViewCount))

	if item.URL != "" {
		content.WriteString(fmt.Sprintf("[Read Online](%s)\n\n", item.URL))
	}

	if len(item.ImageURLs) > 0 {
		content.WriteString("**Images:**\n")
		for _, u := range item.ImageURLs {
			content.WriteString(fmt.Sprintf("- %s\n", u))
		}
		content.WriteString("\n")
	}

	content.WriteString("---\n\n")
	content.WriteString(summaryMarkdown(item.Summary))
	return content.String()
}

// summaryMarkdown converts HTML summaries to markdown and passes plain text
// through unchanged.
func summaryMarkdown(summary string) string {
	if !strings.Contains(summary, "<") {
		return summary
	}
	md, err := htmltomarkdown.ConvertString(summary)
	if err != nil {
		debuglog.Debugf("summary html conversion failed: %v", err)
		return summary
	}
	return md
}

func (a *App) renderItem(item results.Item) tea.Cmd {
	r, err := a.getRenderer()
	return func() tea.Msg {
		if err != nil {
			return itemRenderedMsg{id: item.ID, content: "Error initializing renderer: " + err.Error()}
		}
		rendered, err := r.Render(itemMarkdown(item))
		if err != nil {
			// still clear the loading flag
			return itemRenderedMsg{id: item.ID, content: fmt.Sprintf("Failed to render article: %v\n\nPress Escape to go back.", err)}
		}
		return itemRenderedMsg{id: item.ID, content: rendered}
	}
}

func (a *App) openItem(item results.Item) tea.Cmd {
	l := a.launcher
	open := func() tea.Msg {
		if err := l.OpenItem(item); err != nil {
			return errorMsg{err: wrapErr("open", err)}
		}
		return openedMsg{what: truncateMiddle(item.URL, 48)}
	}
	return tea.Batch(open, a.recordView(item))
}

// recordView reports item as opened under the live query. Anonymous
// sessions report nothing; failures are only logged.
func (a *App) recordView(item results.Item) tea.Cmd {
	creds := a.session.Credentials()
	if a.recorder == nil || creds.Anonymous() {
		return nil
	}
	r, query := a.recorder, a.session.Query()
	return func() tea.Msg {
		ctx := session.WithCredentials(context.Background(), creds)
		if err := r.RecordView(ctx, item, query); err != nil {
			debuglog.Warnf("record view of %s: %v", item.ID, err)
		}
		return nil
	}
}

func (a *App) openImage(item results.Item) tea.Cmd {
	l := a.launcher
	return func() tea.Msg {
		if err := l.OpenImage(item); err != nil {
			return errorMsg{err: wrapErr("open image", err)}
		}
		return openedMsg{what: truncateMiddle(item.FirstImage(), 48)}
	}
}
