package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgSearching      = "Searching…"
	MsgRendering      = "Rendering…"
	MsgNoResults      = "No results"
	MsgSourceDown     = "Could not reach the news source"
	MsgHistoryCleared = "History cleared"
	MsgAllShown       = "All results shown"
	MsgFirstPage      = "Already at the first page"
)

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// MsgShowing renders the disclosure footer, e.g. "showing 3 of 7 • 4 more".
func MsgShowing(shown, total, remaining int) string {
	base := fmt.Sprintf("showing %d of %d", shown, total)
	if remaining > 0 {
		base += fmt.Sprintf(" • %d more", remaining)
	}
	return base
}

func MsgNoResultsFor(query string) string {
	return fmt.Sprintf("No results for '%s'", strings.TrimSpace(query))
}

func MsgOpened(what string) string {
	return fmt.Sprintf("Opened %s", what)
}

func MsgSaved(origin string, count int) string {
	return fmt.Sprintf("Saved %d items from %s", count, origin)
}
