package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SpinnerState represents the current state of a spinner.
type SpinnerState int

const (
	SpinnerPending SpinnerState = iota
	SpinnerInProgress
	SpinnerSuccess
	SpinnerFailed
)

// SpinnerFrames are the animation frames, also used by the dashboard.
var SpinnerFrames = []string{"◐", "◓", "◑", "◒"}

const spinnerInterval = 100 * time.Millisecond

// Spinner shows "◐ label..." while a NAS command runs and replaces it with
// a ✓ or ✗ line plus elapsed time. When animate is false (not a TTY) only
// the final line is written.
type Spinner struct {
	mu        sync.Mutex
	out       io.Writer
	animate   bool
	label     string
	state     SpinnerState
	frame     int
	startTime time.Time
	lastWidth int
	stop      chan struct{}
	done      chan struct{}
}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer, label string, animate bool) *Spinner {
	return &Spinner{out: out, label: label, animate: animate}
}

// Start begins the animation. Calling Start twice is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.state == SpinnerInProgress {
		s.mu.Unlock()
		return
	}
	s.state = SpinnerInProgress
	s.startTime = time.Now()
	if !s.animate {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.drawLocked()
	s.mu.Unlock()

	go s.loop()
}

func (s *Spinner) loop() {
	t := time.NewTicker(spinnerInterval)
	defer t.Stop()
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.mu.Lock()
			s.frame = (s.frame + 1) % len(SpinnerFrames)
			s.drawLocked()
			s.mu.Unlock()
		}
	}
}

func (s *Spinner) drawLocked() {
	line := lipgloss.NewStyle().Foreground(ColorSecondary).Render(SpinnerFrames[s.frame]) + " " + s.label + "..."
	s.clearLocked()
	fmt.Fprint(s.out, line)
	s.lastWidth = lipgloss.Width(line)
}

func (s *Spinner) clearLocked() {
	if s.lastWidth > 0 {
		fmt.Fprint(s.out, "\r"+strings.Repeat(" ", s.lastWidth)+"\r")
		s.lastWidth = 0
	}
}

// Success stops the spinner with a ✓ line.
func (s *Spinner) Success() { s.finish(SpinnerSuccess, "") }

// Fail stops the spinner with a ✗ line and an optional detail.
func (s *Spinner) Fail(detail string) { s.finish(SpinnerFailed, detail) }

func (s *Spinner) finish(state SpinnerState, detail string) {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.clearLocked()

	symbol := lipgloss.NewStyle().Foreground(ColorSuccess).Render(SymbolSuccess)
	if state == SpinnerFailed {
		symbol = lipgloss.NewStyle().Foreground(ColorError).Render(SymbolFail)
	}
	line := symbol + " " + s.label + " " + lipgloss.NewStyle().Foreground(ColorMuted).Render(formatDuration(time.Since(s.startTime)))
	if detail != "" {
		line += "\n  " + lipgloss.NewStyle().Foreground(ColorMuted).Render(detail)
	}
	fmt.Fprintln(s.out, line)
}

// State returns the current spinner state.
func (s *Spinner) State() SpinnerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// formatDuration formats a duration for display (e.g., "0.3s", "1.2s").
func formatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}
