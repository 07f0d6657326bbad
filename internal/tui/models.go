package tui

import (
	"github.com/pders01/brief/internal/reveal"
	"github.com/pders01/brief/internal/session"
	"github.com/pders01/brief/internal/storage"
)

type View int

const (
	ViewResults View = iota
	ViewReader
	ViewHistory
)

func (v View) String() string {
	switch v {
	case ViewResults:
		return "results"
	case ViewReader:
		return "reader"
	case ViewHistory:
		return "history"
	default:
		return "unknown"
	}
}

// fetchDoneMsg carries a finished fetch back into the event loop.
type fetchDoneMsg struct {
	resp session.Response
}

// typeTickMsg advances the typewriter header of session gen by one rune.
type typeTickMsg struct {
	gen uint64
}

// revealMsg is a timed completion signal for session gen.
type revealMsg struct {
	gen uint64
	sig reveal.Signal
}

type itemRenderedMsg struct {
	id      string
	content string
}

type historyLoadedMsg struct {
	queries []storage.RecentQuery
}

type itemsSavedMsg struct {
	origin string
	count  int
}

type openedMsg struct {
	what string
}

type errorMsg struct {
	err error
}
