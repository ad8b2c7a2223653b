package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/spiffcs/ghinbox/internal/model"
	"github.com/spiffcs/ghinbox/internal/scheduler"
	"github.com/spiffcs/ghinbox/internal/store"
	"github.com/spiffcs/ghinbox/internal/view"
)

// Inbox is the store surface the interactive list drives.
type Inbox interface {
	Snapshot(ctx context.Context, q view.Query) (store.Snapshot, error)
	MarkAsRead(ctx context.Context, id string) error
	StageThread(ctx context.Context, id string) error
	RestoreThread(ctx context.Context, id string) error
	Subscribe() <-chan struct{}
}

// statusTabs is the tab order of the inbox.
var statusTabs = []model.Status{model.StatusQueued, model.StatusStaged, model.StatusClosed}

// InboxModel is the Bubble Tea model for the interactive inbox
type InboxModel struct {
	ctx     context.Context
	inbox   Inbox
	refresh <-chan struct{}

	query  view.Query
	snap   store.Snapshot
	cursor int
	err    error

	search    textinput.Model
	searching bool
	spinner   spinner.Model

	syncStatus  func() scheduler.Status
	triggerSync func()
	open        func(url string) tea.Cmd
	now         func() time.Time

	windowWidth int
	statusMsg   string
	quitting    bool
}

// InboxOption is a functional option for configuring InboxModel
type InboxOption func(*InboxModel)

// WithQuery sets the initial view query
func WithQuery(q view.Query) InboxOption {
	return func(m *InboxModel) {
		m.query = q
	}
}

// WithSyncStatus shows the background sync state reported by fn
func WithSyncStatus(fn func() scheduler.Status) InboxOption {
	return func(m *InboxModel) {
		m.syncStatus = fn
	}
}

// WithSyncTrigger binds the refresh key to fn
func WithSyncTrigger(fn func()) InboxOption {
	return func(m *InboxModel) {
		m.triggerSync = fn
	}
}

// NewInboxModel creates a new inbox model
func NewInboxModel(ctx context.Context, inbox Inbox, opts ...InboxOption) InboxModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	ti := textinput.New()
	ti.Placeholder = "search titles"
	ti.Prompt = "/ "
	ti.CharLimit = 120

	m := InboxModel{
		ctx:         ctx,
		inbox:       inbox,
		refresh:     inbox.Subscribe(),
		query:       view.DefaultQuery(),
		search:      ti,
		spinner:     s,
		open:        openURL,
		now:         time.Now,
		windowWidth: 80,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.query.Status == "" {
		m.query.Status = model.StatusQueued
	}
	return m
}

// snapshotMsg carries a freshly composed snapshot
type snapshotMsg struct {
	snap store.Snapshot
	err  error
}

// refreshMsg signals that the store changed
type refreshMsg struct{}

// actionMsg reports the outcome of a thread action
type actionMsg struct {
	verb string
	id   string
	err  error
}

// clearStatusMsg is a message to clear the status
type clearStatusMsg struct{}

// Init implements tea.Model
func (m InboxModel) Init() tea.Cmd {
	return tea.Batch(
		m.load(),
		waitForRefresh(m.refresh),
		m.spinner.Tick,
	)
}

// Update implements tea.Model
func (m InboxModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		return m, nil

	case snapshotMsg:
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
			m.query.Page = msg.snap.Page.Page
			m.clampCursor()
		}
		return m, nil

	case refreshMsg:
		return m, tea.Batch(m.load(), waitForRefresh(m.refresh))

	case actionMsg:
		if msg.err != nil {
			m.statusMsg = "Error: " + msg.err.Error()
		} else {
			m.statusMsg = fmt.Sprintf("%s %s", msg.verb, msg.id)
		}
		return m, tea.Batch(m.load(), clearStatusAfter(2*time.Second))

	case clearStatusMsg:
		m.statusMsg = ""
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey processes keyboard input
func (m InboxModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		return m.selectTab((m.tabIndex() + 1) % len(statusTabs))
	case "1", "2", "3":
		return m.selectTab(int(msg.Runes[0] - '1'))

	case "j", "down":
		if m.cursor < len(m.snap.Items)-1 {
			m.cursor++
		}
		return m, nil
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "n", "right":
		if m.query.Page < m.snap.LastPage {
			m.query.Page++
			m.cursor = 0
			return m, m.load()
		}
		return m, nil
	case "p", "left":
		if m.query.Page > 1 {
			m.query.Page--
			m.cursor = 0
			return m, m.load()
		}
		return m, nil

	case "f":
		m.query.Filter = m.query.Filter.Next()
		return m.reset()
	case "o":
		m.query.Sort = m.query.Sort.Next()
		return m.reset()
	case "d":
		m.query.Descending = !m.query.Descending
		return m.reset()

	case "/":
		m.searching = true
		m.search.SetValue(m.query.Search)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case "esc":
		if m.query.Search != "" {
			m.query.Search = ""
			return m.reset()
		}
		return m, nil

	case "r":
		return m.act("Marked read", m.inbox.MarkAsRead)
	case "s":
		return m.act("Staged", m.inbox.StageThread)
	case "u":
		return m.act("Restored", m.inbox.RestoreThread)

	case "R":
		if m.triggerSync != nil {
			m.triggerSync()
			m.statusMsg = "Sync requested"
			return m, clearStatusAfter(2 * time.Second)
		}
		return m, nil

	case "enter":
		return m.openSelected()
	}

	return m, nil
}

// handleSearchKey routes input to the search box until it is applied or cancelled
func (m InboxModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		m.query.Search = m.search.Value()
		return m.reset()
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m InboxModel) selectTab(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(statusTabs) {
		return m, nil
	}
	m.query.Status = statusTabs[i]
	return m.reset()
}

// reset returns to the first page after the query changed
func (m InboxModel) reset() (tea.Model, tea.Cmd) {
	m.query.Page = 1
	m.cursor = 0
	return m, m.load()
}

func (m InboxModel) tabIndex() int {
	for i, s := range statusTabs {
		if s == m.query.Status {
			return i
		}
	}
	return 0
}

func (m *InboxModel) clampCursor() {
	if m.cursor >= len(m.snap.Items) {
		m.cursor = len(m.snap.Items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// selected returns the entry under the cursor
func (m InboxModel) selected() (view.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Items) {
		return view.Entry{}, false
	}
	return m.snap.Items[m.cursor], true
}

// act runs a thread action against the selected entry
func (m InboxModel) act(verb string, fn func(context.Context, string) error) (tea.Model, tea.Cmd) {
	e, ok := m.selected()
	if !ok {
		return m, nil
	}
	ctx, id := m.ctx, e.ID
	return m, func() tea.Msg {
		return actionMsg{verb: verb, id: id, err: fn(ctx, id)}
	}
}

// openSelected opens the selected thread in the default browser
func (m InboxModel) openSelected() (tea.Model, tea.Cmd) {
	e, ok := m.selected()
	if !ok {
		return m, nil
	}
	if e.URL == "" {
		m.statusMsg = "No URL available"
		return m, clearStatusAfter(2 * time.Second)
	}
	return m, m.open(e.URL)
}

// load composes a snapshot for the current query
func (m InboxModel) load() tea.Cmd {
	ctx, inbox, q := m.ctx, m.inbox, m.query
	return func() tea.Msg {
		snap, err := inbox.Snapshot(ctx, q)
		return snapshotMsg{snap: snap, err: err}
	}
}

// View implements tea.Model
func (m InboxModel) View() string {
	if m.quitting {
		return ""
	}
	return renderInbox(m)
}

// waitForRefresh waits for the next store change signal
func waitForRefresh(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return refreshMsg{}
	}
}

// clearStatusAfter returns a command that clears the status after a delay
func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}
