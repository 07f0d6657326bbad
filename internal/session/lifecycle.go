// Package session owns one search session at a time: the query, the result
// store, the disclosure controller and the reveal sequencer. All methods
// except Fetch must be called from the single event loop that owns the
// Lifecycle.
package session

import (
	"context"
	"strings"

	"github.com/pders01/brief/internal/debuglog"
	"github.com/pders01/brief/internal/disclosure"
	"github.com/pders01/brief/internal/results"
	"github.com/pders01/brief/internal/reveal"
)

// Fetcher resolves a keyword to result items.
type Fetcher interface {
	Search(ctx context.Context, query string) ([]results.Item, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, query string) ([]results.Item, error)

func (f FetcherFunc) Search(ctx context.Context, query string) ([]results.Item, error) {
	return f(ctx, query)
}

// Outcome classifies how the latest session ended.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeResults
	OutcomeEmpty
	OutcomeFetchError
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeResults:
		return "results"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFetchError:
		return "fetch-error"
	default:
		return "unknown"
	}
}

// Request is a fetch issued for one session.
type Request struct {
	Query      string
	Generation uint64
}

// Response is the result of running a Request.
type Response struct {
	Request
	Items []results.Item
	Err   error
}

// Options configure a Lifecycle.
type Options struct {
	PageSize          int
	HotTopicThreshold int
	Credentials       Credentials
}

// Lifecycle ties a query to its results and presentation state.
type Lifecycle struct {
	fetcher    Fetcher
	creds      Credentials
	store      *results.Store
	disclosure *disclosure.Controller
	sequencer  *reveal.Sequencer
	query      string
	generation uint64
	loading    bool
	outcome    Outcome
	lastErr    error
}

// New creates an idle lifecycle around fetcher.
func New(fetcher Fetcher, opts Options) *Lifecycle {
	seq := reveal.New()
	seq.OnTransition = func(from, to reveal.Stage) {
		debuglog.Debugf("reveal %s -> %s", from, to)
	}
	return &Lifecycle{
		fetcher:    fetcher,
		creds:      opts.Credentials,
		store:      results.NewStore(opts.HotTopicThreshold),
		disclosure: disclosure.New(opts.PageSize),
		sequencer:  seq,
	}
}

// Submit starts a new session for q. Empty (after trimming) queries are
// ignored and ok is false.
func (l *Lifecycle) Submit(q string) (req Request, ok bool) {
	q = strings.TrimSpace(q)
	if q == "" {
		return Request{}, false
	}

	l.generation++
	l.query = q
	l.store.Replace(nil)
	l.disclosure.Reset(0)
	l.sequencer.Reset(l.generation)
	l.loading = true
	l.outcome = OutcomePending
	l.lastErr = nil

	debuglog.WithFields(map[string]interface{}{"query": q, "gen": l.generation}).Infof("query submitted")
	return Request{Query: q, Generation: l.generation}, true
}

// Fetch runs req against the fetcher. It touches no session state and may
// run on any goroutine.
func (l *Lifecycle) Fetch(ctx context.Context, req Request) Response {
	ctx = WithCredentials(ctx, l.creds)
	items, err := l.fetcher.Search(ctx, req.Query)
	return Response{Request: req, Items: items, Err: err}
}

// Complete applies resp if it belongs to the live session. A stale response
// is dropped without touching any state and Complete returns false.
func (l *Lifecycle) Complete(resp Response) bool {
	if resp.Generation != l.generation || resp.Query != l.query || !l.loading {
		debuglog.Debugf("dropping stale response for %q (gen %d, live %d)", resp.Query, resp.Generation, l.generation)
		return false
	}

	items := resp.Items
	switch {
	case resp.Err != nil:
		debuglog.Warnf("fetch for %q failed: %v", resp.Query, resp.Err)
		items = nil
		l.outcome = OutcomeFetchError
		l.lastErr = resp.Err
	case len(items) == 0:
		l.outcome = OutcomeEmpty
	default:
		l.outcome = OutcomeResults
	}

	l.store.Replace(items)
	l.disclosure.Reset(l.store.Current().Len())
	l.loading = false
	l.sequencer.Begin(len(l.store.HotTopics()) > 0)
	return true
}

// Signal forwards a completion signal raised by the view for generation.
func (l *Lifecycle) Signal(generation uint64, sig reveal.Signal) bool {
	return l.sequencer.Signal(generation, sig)
}

// Expand discloses one more page.
func (l *Lifecycle) Expand() int { return l.disclosure.Expand() }

// Collapse hides one page.
func (l *Lifecycle) Collapse() int { return l.disclosure.Collapse() }

// Visible returns the items currently disclosed.
func (l *Lifecycle) Visible() []results.Item {
	return disclosure.VisibleSlice(l.disclosure, l.store.Current().Items())
}

// Query is the live query string.
func (l *Lifecycle) Query() string { return l.query }

// Generation tags the live session; signals and responses carry it.
func (l *Lifecycle) Generation() uint64 { return l.generation }

// Loading reports whether the live session is waiting for its fetch.
func (l *Lifecycle) Loading() bool { return l.loading }

// Outcome classifies how the live session ended; pending while loading.
func (l *Lifecycle) Outcome() Outcome { return l.outcome }

// Err is the fetch error behind OutcomeFetchError.
func (l *Lifecycle) Err() error { return l.lastErr }

// Results is the store holding the live result set.
func (l *Lifecycle) Results() *results.Store { return l.store }

// Disclosure is the paging controller of the live result set.
func (l *Lifecycle) Disclosure() *disclosure.Controller { return l.disclosure }

// Stage is the current reveal stage.
func (l *Lifecycle) Stage() reveal.Stage { return l.sequencer.Stage() }

// Sequencer exposes the reveal state machine, mainly for its transition hook.
func (l *Lifecycle) Sequencer() *reveal.Sequencer { return l.sequencer }

// Credentials are attached to every fetch.
func (l *Lifecycle) Credentials() Credentials { return l.creds }

// SetCredentials swaps the credentials used by later fetches.
func (l *Lifecycle) SetCredentials(c Credentials) { l.creds = c }
