package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/brief/internal/config"
)

// KeyMap holds the configured bindings. Action keys carry the modifier so
// they work while the search box has focus.
type KeyMap struct {
	Quit      key.Binding
	Search    key.Binding
	More      key.Binding
	Less      key.Binding
	ShowAll   key.Binding
	Open      key.Binding
	OpenImage key.Binding
	History   key.Binding
	Back      key.Binding
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Clear     key.Binding
}

func NewKeyMap(cfg config.KeyConfig) KeyMap {
	mod := ""
	if cfg.Modifier != "" {
		mod = cfg.Modifier + "+"
	}
	b := cfg.Bindings
	action := func(k, help string) key.Binding {
		return key.NewBinding(key.WithKeys(mod+k), key.WithHelp(mod+k, help))
	}
	return KeyMap{
		Quit:      key.NewBinding(key.WithKeys(b.Quit, "ctrl+c"), key.WithHelp(b.Quit, "quit")),
		Search:    key.NewBinding(key.WithKeys(mod+b.Search, "/"), key.WithHelp(mod+b.Search, "search")),
		More:      action(b.More, "more"),
		Less:      action(b.Less, "less"),
		ShowAll:   action(b.ShowAll, "all"),
		Open:      action(b.Open, "open"),
		OpenImage: action(b.OpenImage, "image"),
		History:   action(b.History, "history"),
		Back:      key.NewBinding(key.WithKeys(b.Back), key.WithHelp(b.Back, "back")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "read")),
		Clear:     action("x", "clear"),
	}
}

type KeyHandler struct {
	app  *App
	keys KeyMap
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, keys: NewKeyMap(cfg.Keys)}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return kh.app, tea.Quit
	}

	switch kh.app.view {
	case ViewReader:
		return kh.handleReaderKeys(msg)
	case ViewHistory:
		return kh.handleHistoryKeys(msg)
	}

	if kh.app.searchInput.Focused() {
		return kh.handleInputKeys(msg)
	}
	return kh.handleResultsKeys(msg)
}

// handleInputKeys serves the focused search box. Modified action keys still
// page the results; everything else is typed.
func (kh *KeyHandler) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "enter":
		return a, a.submit(a.searchInput.Value())
	case "esc", "tab", "down":
		if a.session.Query() != "" {
			a.searchInput.Blur()
		}
		return a, nil
	}

	if model, cmd, handled := kh.handleDisclosureKeys(msg); handled {
		return model, cmd
	}
	if key.Matches(msg, kh.keys.History) {
		return a, a.showHistory()
	}

	ti, cmd := a.searchInput.Update(msg)
	a.searchInput = ti
	return a, cmd
}

func (kh *KeyHandler) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	if model, cmd, handled := kh.handleDisclosureKeys(msg); handled {
		return model, cmd
	}

	switch {
	case key.Matches(msg, kh.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, kh.keys.Search), key.Matches(msg, kh.keys.Back):
		return a, a.focusSearch()
	case key.Matches(msg, kh.keys.History):
		return a, a.showHistory()
	case key.Matches(msg, kh.keys.Up):
		a.moveCursor(-1)
	case key.Matches(msg, kh.keys.Down):
		a.moveCursor(1)
	case key.Matches(msg, kh.keys.Select):
		if item, ok := a.selectedItem(); ok {
			return a, a.openReader(item)
		}
	case key.Matches(msg, kh.keys.Open):
		if item, ok := a.selectedItem(); ok {
			return a, a.openItem(item)
		}
	case key.Matches(msg, kh.keys.OpenImage):
		if item, ok := a.selectedItem(); ok {
			return a, a.openImage(item)
		}
	}
	return a, nil
}

// handleDisclosureKeys pages the body list. Paging is only offered once the
// body is visible.
func (kh *KeyHandler) handleDisclosureKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch {
	case key.Matches(msg, kh.keys.More):
		a.expand()
	case key.Matches(msg, kh.keys.Less):
		a.collapse()
	case key.Matches(msg, kh.keys.ShowAll):
		a.showAll()
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (kh *KeyHandler) handleReaderKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch {
	case key.Matches(msg, kh.keys.Back):
		a.view = ViewResults
		a.currentItem = nil
		return a, nil
	case key.Matches(msg, kh.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, kh.keys.Open):
		if a.currentItem != nil {
			return a, a.openItem(*a.currentItem)
		}
		return a, nil
	case key.Matches(msg, kh.keys.OpenImage):
		if a.currentItem != nil {
			return a, a.openImage(*a.currentItem)
		}
		return a, nil
	}

	vp, cmd := a.viewport.Update(msg)
	a.viewport = vp
	return a, cmd
}

func (kh *KeyHandler) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	if a.historyList.FilterState() == list.Unfiltered {
		switch {
		case key.Matches(msg, kh.keys.Back):
			a.view = ViewResults
			return a, nil
		case key.Matches(msg, kh.keys.Select):
			if it, ok := a.historyList.SelectedItem().(historyItem); ok {
				a.searchInput.SetValue(it.query.Query)
				return a, a.submit(it.query.Query)
			}
			return a, nil
		case key.Matches(msg, kh.keys.Clear):
			a.setStatus(MsgHistoryCleared, StatusSuccess)
			return a, a.clearHistory()
		}
	}

	l, cmd := a.historyList.Update(msg)
	a.historyList = l
	return a, cmd
}

// ShortHelp lists the bindings relevant to the current view.
func (kh *KeyHandler) ShortHelp() []key.Binding {
	k := kh.keys
	switch kh.app.view {
	case ViewReader:
		return []key.Binding{k.Open, k.OpenImage, k.Back}
	case ViewHistory:
		return []key.Binding{k.Select, k.Clear, k.Back}
	}
	if kh.app.searchInput.Focused() {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
			k.History,
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "results")),
		}
	}
	return []key.Binding{k.Select, k.More, k.Less, k.ShowAll, k.Open, k.OpenImage, k.Search, k.Quit}
}
