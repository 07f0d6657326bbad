package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/brief/internal/config"
	"github.com/pders01/brief/internal/debuglog"
	"github.com/pders01/brief/internal/media"
	"github.com/pders01/brief/internal/results"
	"github.com/pders01/brief/internal/reveal"
	"github.com/pders01/brief/internal/search"
	"github.com/pders01/brief/internal/session"
	"github.com/pders01/brief/internal/storage"
)

// Option customises an App at construction.
type Option func(*App)

// WithCredentials makes fetches run as the given login.
func WithCredentials(c session.Credentials) Option {
	return func(a *App) { a.session.SetCredentials(c) }
}

// WithUpdateListener is notified after result items are archived.
func WithUpdateListener(l search.UpdateListener) Option {
	return func(a *App) { a.listener = l }
}

// ViewRecorder is told which item a logged in user opened and under which
// query.
type ViewRecorder interface {
	RecordView(ctx context.Context, item results.Item, keyword string) error
}

// WithViewRecorder reports opened items of logged in users to r.
func WithViewRecorder(r ViewRecorder) Option {
	return func(a *App) { a.recorder = r }
}

type App struct {
	config          *config.Config
	store           *storage.Store
	session         *session.Lifecycle
	launcher        *media.Launcher
	listener        search.UpdateListener
	recorder        ViewRecorder
	keyHandler      *KeyHandler
	searchInput     textinput.Model
	spinner         spinner.Model
	viewport        viewport.Model
	historyList     list.Model
	help            help.Model
	view            View
	cursor          int
	typed           int
	currentItem     *results.Item
	renderingItem   bool
	status          string
	statusKind      StatusKind
	err             error
	width           int
	height          int
	cancelFetch     context.CancelFunc
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

// NewApp wires the result page around fetcher. store may be nil, in which
// case nothing is archived and history is empty.
func NewApp(store *storage.Store, cfg *config.Config, fetcher session.Fetcher, opts ...Option) *App {
	ApplyTheme(cfg.UI.Colors)

	si := textinput.New()
	si.Placeholder = "Search news…"
	si.Prompt = "› "
	si.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	historyList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	historyList.Title = "› recent searches"
	historyList.SetShowStatusBar(false)
	historyList.SetFilteringEnabled(true)
	historyList.SetShowHelp(false)

	app := &App{
		config: cfg,
		store:  store,
		session: session.New(fetcher, session.Options{
			PageSize:          cfg.Results.PageSize,
			HotTopicThreshold: cfg.Results.HotTopicThreshold,
		}),
		launcher:    media.NewLauncher(cfg),
		searchInput: si,
		spinner:     sp,
		viewport:    viewport.New(0, 0),
		historyList: historyList,
		help:        help.New(),
		view:        ViewResults,
	}
	app.keyHandler = NewKeyHandler(app, cfg)

	for _, opt := range opts {
		opt(app)
	}
	return app
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	article := a.config.UI.Article
	maxWidth, minWidth := article.WordWrapMaxWidth, article.WordWrapMinWidth
	if maxWidth <= 0 {
		maxWidth = 120
	}
	if minWidth <= 0 {
		minWidth = 40
	}

	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width < 50 {
		wordWrapWidth = a.width - 4
		if wordWrapWidth < 20 {
			wordWrapWidth = 20
		}
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.EnterAltScreen,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 3
		a.historyList.SetSize(msg.Width, msg.Height-3)
		a.help.Width = msg.Width

		inputWidth := msg.Width - 8
		if inputWidth < 10 {
			inputWidth = msg.Width - 4
		}
		a.searchInput.Width = inputWidth
		return a, nil

	case tea.KeyMsg:
		a.err = nil
		return a.keyHandler.HandleKey(msg)

	case fetchDoneMsg:
		return a, a.handleFetchDone(msg.resp)

	case typeTickMsg:
		return a, a.handleTypeTick(msg.gen)

	case revealMsg:
		if a.session.Signal(msg.gen, msg.sig) && a.session.Stage() == reveal.SidePanelVisible {
			return a, revealAfter(a.config.Reveal.SidePanelDelay, msg.gen, reveal.SignalSidePanelDone)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.session.Loading() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case itemRenderedMsg:
		if a.view == ViewReader && a.currentItem != nil && a.currentItem.ID == msg.id {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.renderingItem = false
			a.clearStatus()
		}
		return a, nil

	case historyLoadedMsg:
		items := make([]list.Item, len(msg.queries))
		for i, q := range msg.queries {
			items[i] = historyItem{query: q}
		}
		return a, a.historyList.SetItems(items)

	case itemsSavedMsg:
		debuglog.Debugf("archived %d items from %s", msg.count, msg.origin)
		return a, nil

	case openedMsg:
		a.setStatus(MsgOpened(msg.what), StatusSuccess)
		return a, nil

	case errorMsg:
		a.err = msg.err
		return a, nil
	}

	var cmds []tea.Cmd
	switch a.view {
	case ViewReader:
		if _, ok := msg.(tea.MouseMsg); ok {
			vp, cmd := a.viewport.Update(msg)
			a.viewport = vp
			cmds = append(cmds, cmd)
		}
	case ViewHistory:
		l, cmd := a.historyList.Update(msg)
		a.historyList = l
		cmds = append(cmds, cmd)
	case ViewResults:
		if a.searchInput.Focused() {
			ti, cmd := a.searchInput.Update(msg)
			a.searchInput = ti
			cmds = append(cmds, cmd)
		}
	}
	return a, tea.Batch(cmds...)
}

// submit starts a new session for q.
func (a *App) submit(q string) tea.Cmd {
	req, ok := a.session.Submit(q)
	if !ok {
		return nil
	}
	a.view = ViewResults
	a.typed = 0
	a.cursor = 0
	a.err = nil
	a.currentItem = nil
	a.searchInput.Blur()
	a.setStatus(MsgSearching, StatusInfo)

	return tea.Batch(
		a.fetch(req),
		a.spinner.Tick,
		a.recordQuery(req.Query),
	)
}

func (a *App) handleFetchDone(resp session.Response) tea.Cmd {
	if !a.session.Complete(resp) {
		return nil
	}

	var cmds []tea.Cmd
	switch a.session.Outcome() {
	case session.OutcomeFetchError:
		a.setStatus(MsgSourceDown, StatusError)
	case session.OutcomeEmpty:
		a.setStatus(MsgNoResults, StatusWarn)
	default:
		a.setStatus(MsgResultsCount(a.session.Results().Current().Len()), StatusSuccess)
		if a.archives() {
			cmds = append(cmds, a.saveItems(a.config.Source.Backend, resp.Items))
		}
	}

	gen := a.session.Generation()
	if a.config.Reveal.TypingInterval <= 0 {
		cmds = append(cmds, a.finishHeader(gen))
	} else {
		cmds = append(cmds, a.typeTick(gen))
	}
	return tea.Batch(cmds...)
}

// archives reports whether results of the configured backend should be
// copied into the local store. Feed items are stored by the feed manager
// and local results already live there.
func (a *App) archives() bool {
	switch a.config.Source.Backend {
	case config.BackendAPI, config.BackendMock:
		return a.store != nil
	default:
		return false
	}
}

func (a *App) headerText() string {
	return fmt.Sprintf("Results for '%s'", a.session.Query())
}

func (a *App) handleTypeTick(gen uint64) tea.Cmd {
	if gen != a.session.Generation() || a.session.Stage() != reveal.HeaderTyping {
		return nil
	}
	a.typed++
	if a.typed >= len([]rune(a.headerText())) {
		return a.finishHeader(gen)
	}
	return a.typeTick(gen)
}

// finishHeader completes the typed header and schedules the body.
func (a *App) finishHeader(gen uint64) tea.Cmd {
	a.typed = len([]rune(a.headerText()))
	if !a.session.Signal(gen, reveal.SignalHeaderDone) {
		return nil
	}
	return revealAfter(a.config.Reveal.BodyDelay, gen, reveal.SignalBodyDone)
}

func (a *App) bodyVisible() bool {
	return !a.session.Loading() && a.session.Sequencer().Reached(reveal.BodyVisible)
}

func (a *App) expand() {
	if !a.bodyVisible() {
		return
	}
	if !a.session.Disclosure().CanExpand() {
		a.setStatus(MsgAllShown, StatusInfo)
		return
	}
	a.session.Expand()
	a.clearStatus()
}

func (a *App) collapse() {
	if !a.bodyVisible() {
		return
	}
	if !a.session.Disclosure().CanCollapse() {
		a.setStatus(MsgFirstPage, StatusInfo)
		return
	}
	a.session.Collapse()
	a.moveCursor(0)
	a.clearStatus()
}

func (a *App) showAll() {
	if !a.bodyVisible() {
		return
	}
	a.session.Disclosure().ShowAll()
	a.clearStatus()
}

// moveCursor shifts the selection by delta and clamps it to the visible
// items.
func (a *App) moveCursor(delta int) {
	n := len(a.session.Visible())
	a.cursor += delta
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a *App) selectedItem() (results.Item, bool) {
	if !a.bodyVisible() {
		return results.Item{}, false
	}
	visible := a.session.Visible()
	if a.cursor < 0 || a.cursor >= len(visible) {
		return results.Item{}, false
	}
	return visible[a.cursor], true
}

func (a *App) openReader(item results.Item) tea.Cmd {
	a.currentItem = &item
	a.view = ViewReader
	a.renderingItem = true
	a.setStatus(MsgRendering, StatusInfo)
	return tea.Batch(a.renderItem(item), a.recordView(item))
}

func (a *App) focusSearch() tea.Cmd {
	a.view = ViewResults
	return a.searchInput.Focus()
}

func (a *App) showHistory() tea.Cmd {
	a.view = ViewHistory
	a.searchInput.Blur()
	return a.loadHistory()
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
}

func (a *App) clearStatus() {
	a.status = ""
	a.statusKind = StatusInfo
}

func (a *App) View() string {
	width, height := a.width, a.height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	var content string
	switch a.view {
	case ViewReader:
		if a.renderingItem {
			content = renderCentered(width, height-3, renderMuted(MsgRendering))
		} else {
			content = a.viewport.View()
		}
	case ViewHistory:
		if len(a.historyList.Items()) == 0 {
			content = renderCentered(width, height-3, renderHelp("No recent searches"))
		} else {
			content = a.historyList.View()
		}
	default:
		content = a.resultsView(width, height-3)
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(width-1, 0)))
	return lipgloss.JoinVertical(lipgloss.Top,
		ContentWrapper(width, height-3).Render(content),
		separator,
		a.statusBar(width),
	)
}

// ContentWrapper bounds content to the area above the status bar.
func ContentWrapper(width, height int) lipgloss.Style {
	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height)
}

func (a *App) resultsView(width, height int) string {
	input := renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width)
	used := lipgloss.Height(input) + 1

	if a.session.Query() == "" {
		welcome := GetWelcomeMessage(a.keyHandler.keys.Search.Help().Key)
		return lipgloss.JoinVertical(lipgloss.Left, input, "",
			renderCentered(width, height-used, welcome))
	}

	if a.session.Loading() {
		line := a.spinner.View() + " " + renderMuted(fmt.Sprintf("Searching for '%s'…", a.session.Query()))
		return lipgloss.JoinVertical(lipgloss.Left, input, "", line)
	}

	seq := a.session.Sequencer()
	var rows []string
	if seq.Reached(reveal.HeaderTyping) {
		header := typedPrefix(a.headerText(), a.typed)
		if seq.Stage() == reveal.HeaderTyping {
			header += "▌"
		}
		rows = append(rows, renderHeader(header, "", width), "")
	}

	panelWidth := 0
	hot := a.session.Results().HotTopics()
	showPanel := seq.Reached(reveal.SidePanelVisible) && len(hot) > 0
	sideBySide := width >= 90
	if showPanel && sideBySide {
		panelWidth = width / 3
	}

	if seq.Reached(reveal.BodyVisible) {
		rows = append(rows, a.bodyView(width-panelWidth, height-used-len(rows)))
	}
	main := lipgloss.JoinVertical(lipgloss.Left, rows...)

	if showPanel {
		if sideBySide {
			panel := renderHotPanel(hot, a.config.Results.HotTopicLimit, panelWidth-1)
			main = lipgloss.JoinHorizontal(lipgloss.Top, main, " ", panel)
		} else {
			panel := renderHotPanel(hot, a.config.Results.HotTopicLimit, width)
			main = lipgloss.JoinVertical(lipgloss.Left, main, "", panel)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, input, "", main)
}

// bodyView renders the disclosed cards and the paging footer. When the cards
// do not fit, the window scrolls so the selected card stays visible.
func (a *App) bodyView(width, height int) string {
	switch a.session.Outcome() {
	case session.OutcomeEmpty:
		return renderMuted(MsgNoResultsFor(a.session.Query()))
	case session.OutcomeFetchError:
		rows := []string{ErrorMessageStyle.Render("✗ " + MsgSourceDown)}
		if err := a.session.Err(); err != nil {
			rows = append(rows, renderMuted(truncateEnd(err.Error(), width-2)))
		}
		return lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	summaryLen := a.config.UI.Article.MaxSummaryLength
	if summaryLen <= 0 {
		summaryLen = 150
	}
	visible := a.session.Visible()
	cards := make([]string, len(visible))
	for i, item := range visible {
		cards[i] = renderCard(item, width, summaryLen, i == a.cursor)
	}

	footer := a.footer()
	avail := height - lipgloss.Height(footer) - 1
	start := 0
	for start < a.cursor && stackHeight(cards[start:a.cursor+1]) > avail {
		start++
	}
	end := start
	for end < len(cards) && stackHeight(cards[start:end+1]) <= avail {
		end++
	}
	if end == start && start < len(cards) {
		end = start + 1
	}

	rows := append([]string{}, cards[start:end]...)
	rows = append(rows, footer)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func stackHeight(blocks []string) int {
	h := 0
	for _, b := range blocks {
		h += lipgloss.Height(b)
	}
	return h
}

// footer shows "showing X of Y" plus the paging keys that currently apply.
func (a *App) footer() string {
	d := a.session.Disclosure()
	st := d.State()
	line := MsgShowing(st.Rendered(), st.Total, st.Remaining())

	keys := a.keyHandler.keys
	var hints []string
	if d.CanExpand() {
		hints = append(hints, keys.More.Help().Key+": more", keys.ShowAll.Help().Key+": all")
	}
	if d.CanCollapse() {
		hints = append(hints, keys.Less.Help().Key+": less")
	}
	if len(hints) > 0 {
		line += "   " + strings.Join(hints, " • ")
	}
	return renderMuted(line)
}

func (a *App) statusBar(width int) string {
	style := lipgloss.NewStyle().Width(width).Padding(0, 1)

	if a.err != nil {
		return style.Render(ErrorMessageStyle.Render(fmt.Sprintf("✗ %v", a.err)))
	}

	helpView := a.help.ShortHelpView(a.keyHandler.ShortHelp())
	if a.status == "" {
		return style.Render(helpView)
	}
	return style.Render(a.statusKind.style().Render(a.status) + renderMuted(" • ") + helpView)
}

type historyItem struct {
	query storage.RecentQuery
}

func (i historyItem) Title() string { return i.query.Query }

func (i historyItem) Description() string {
	times := "once"
	if i.query.Count > 1 {
		times = fmt.Sprintf("%d times", i.query.Count)
	}
	return fmt.Sprintf("searched %s • last %s", times, i.query.LastUsed.Format("Jan 2, 15:04"))
}

func (i historyItem) FilterValue() string { return i.query.Query }
