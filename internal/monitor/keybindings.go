package monitor

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Section is one page of the dashboard.
type Section int

const (
	SectionOverview Section = iota
	SectionDisks
	SectionStorage
	SectionGuests
	sectionCount
)

// String returns the tab label for the section.
func (s Section) String() string {
	switch s {
	case SectionOverview:
		return "Overview"
	case SectionDisks:
		return "Disks"
	case SectionStorage:
		return "Storage"
	case SectionGuests:
		return "Guests"
	default:
		return "Overview"
	}
}

// Next cycles to the following section.
func (s Section) Next() Section {
	return (s + 1) % sectionCount
}

// Prev cycles to the preceding section.
func (s Section) Prev() Section {
	return (s + sectionCount - 1) % sectionCount
}

type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Next    key.Binding
	Prev    key.Binding
	Jump    key.Binding
	Up      key.Binding
	Down    key.Binding
	Top     key.Binding
	Bottom  key.Binding
	Help    key.Binding
	Close   key.Binding
}

var keys = keyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh now")),
	Next:    key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next section")),
	Prev:    key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "previous section")),
	Jump:    key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "jump to section")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	Top:     key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("home", "scroll to top")),
	Bottom:  key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end", "scroll to bottom")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
	Close:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close help")),
}

// ShortHelp is shown in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Refresh, k.Next, k.Help}
}

// FullHelp is shown in the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Refresh, k.Help, k.Close},
		{k.Next, k.Prev, k.Jump},
		{k.Up, k.Down, k.Top, k.Bottom},
	}
}

// HandleKeyMsg processes keyboard input. Returns true if the key was handled.
// Line scrolling is left to the viewport.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	if key.Matches(msg, keys.Help) {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key.Matches(msg, keys.Close) {
		m.showHelp = false
		return true, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return true, tea.Quit

	case key.Matches(msg, keys.Refresh):
		return true, m.startRefresh()

	case key.Matches(msg, keys.Next):
		m.setSection(m.section.Next())
		return true, nil

	case key.Matches(msg, keys.Prev):
		m.setSection(m.section.Prev())
		return true, nil

	case key.Matches(msg, keys.Jump):
		m.setSection(Section(msg.Runes[0] - '1'))
		return true, nil

	case key.Matches(msg, keys.Top):
		m.body.GotoTop()
		return true, nil

	case key.Matches(msg, keys.Bottom):
		m.body.GotoBottom()
		return true, nil
	}

	return false, nil
}
