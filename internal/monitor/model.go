package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/nasmon/internal/snapshot"
)

// RefreshFunc runs one poll immediately. The resulting snapshot arrives
// through the update channel like any other.
type RefreshFunc func(ctx context.Context)

// DefaultRefreshTimeout bounds a user-triggered refresh.
const DefaultRefreshTimeout = 30 * time.Second

// Lines taken by the header, tabs, footer and the gaps between them.
const chromeHeight = 5

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	host    string
	snap    snapshot.Snapshot
	updates <-chan snapshot.Snapshot
	refresh RefreshFunc
	timeout time.Duration
	history *History
	now     func() time.Time

	section    Section
	body       viewport.Model
	spinner    spinner.Model
	help       help.Model
	width      int
	height     int
	ready      bool
	received   bool
	refreshing bool
	lastUpdate time.Time
	showHelp   bool
	quitting   bool
}

// snapshotMsg carries a snapshot published by the agent.
type snapshotMsg struct {
	snap snapshot.Snapshot
	at   time.Time
}

// refreshDoneMsg signals the end of a user-triggered poll.
type refreshDoneMsg struct{}

// NewModel creates a dashboard for host fed by updates. initial is shown
// until the first update arrives.
func NewModel(host string, initial snapshot.Snapshot, updates <-chan snapshot.Snapshot, refresh RefreshFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"◐", "◓", "◑", "◒"},
		FPS:    time.Second / 8,
	}
	sp.Style = lipgloss.NewStyle().Foreground(ColorGraph)

	return Model{
		host:    host,
		snap:    initial,
		updates: updates,
		refresh: refresh,
		timeout: DefaultRefreshTimeout,
		history: NewHistory(DefaultHistorySize),
		now:     time.Now,
		spinner: sp,
		help:    help.New(),
	}
}

// Init starts listening for snapshots.
func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates, m.now)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}
		var cmd tea.Cmd
		m.body, cmd = m.body.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		bodyHeight := max(1, m.height-chromeHeight)
		if !m.ready {
			m.body = viewport.New(m.width, bodyHeight)
			m.ready = true
		} else {
			m.body.Width = m.width
			m.body.Height = bodyHeight
		}
		m.help.Width = m.width
		m.refreshBody()

	case snapshotMsg:
		m.snap = msg.snap
		m.lastUpdate = msg.at
		m.received = true
		m.history.Record(msg.snap)
		m.refreshBody()
		return m, waitForSnapshot(m.updates, m.now)

	case refreshDoneMsg:
		m.refreshing = false

	case spinner.TickMsg:
		if !m.refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

// Section returns the active section.
func (m Model) Section() Section {
	return m.section
}

// Snapshot returns the snapshot currently on screen.
func (m Model) Snapshot() snapshot.Snapshot {
	return m.snap
}

// Refreshing reports whether a user-triggered poll is running.
func (m Model) Refreshing() bool {
	return m.refreshing
}

func (m *Model) setSection(s Section) {
	if s < 0 || s >= sectionCount || s == m.section {
		return
	}
	m.section = s
	m.refreshBody()
	m.body.GotoTop()
}

// refreshBody re-renders the active section into the viewport.
func (m *Model) refreshBody() {
	if !m.ready {
		return
	}
	m.body.SetContent(m.renderSection(m.contentWidth()))
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 100
	}
	return m.width
}

// startRefresh kicks off a poll unless one is already running.
func (m *Model) startRefresh() tea.Cmd {
	if m.refreshing || m.refresh == nil {
		return nil
	}
	m.refreshing = true
	refresh, timeout := m.refresh, m.timeout
	return tea.Batch(
		func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			refresh(ctx)
			return refreshDoneMsg{}
		},
		m.spinner.Tick,
	)
}

// waitForSnapshot blocks until the next snapshot. A closed channel ends
// the listening loop.
func waitForSnapshot(updates <-chan snapshot.Snapshot, now func() time.Time) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg{snap: snap, at: now()}
	}
}

// Feed adapts a callback subscription into a channel that holds only the
// newest snapshot, so a slow terminal never backs up the agent. stop
// unsubscribes and closes the channel.
func Feed(subscribe func(func(snapshot.Snapshot)) func()) (updates <-chan snapshot.Snapshot, stop func()) {
	var (
		mu     sync.Mutex
		closed bool
		ch     = make(chan snapshot.Snapshot, 1)
	)

	unsubscribe := subscribe(func(s snapshot.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case <-ch:
		default:
		}
		ch <- s
	})

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			unsubscribe()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
}
