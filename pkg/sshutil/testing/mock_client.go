// Package testing provides a scripted SSH client for exercising the command
// pool and extractors without a live NAS.
package testing

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/nasmon/pkg/sshutil"
)

// CommandResponse defines a canned response for a specific command pattern.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Error    error
	// Delay holds the command open before answering; ExecContext gives up
	// early if its context ends first.
	Delay time.Duration
}

// ExecRecord is one command the mock received.
type ExecRecord struct {
	Cmd   string
	Stdin string
}

type scripted struct {
	pattern string
	re      *regexp.Regexp
	resp    CommandResponse
}

// MockClient simulates an SSH connection for testing.
// Responses are matched exactly first, then by regex in registration order.
// "echo <text>" answers with <text> unless overridden; anything else
// unmatched exits 127.
type MockClient struct {
	mu       sync.Mutex
	host     string
	address  string
	closed   bool
	commands []scripted
	execs    []ExecRecord
}

var _ sshutil.SSHClient = (*MockClient)(nil)

// NewMockClient creates a new mock SSH client.
func NewMockClient(host string) *MockClient {
	return &MockClient{
		host:    host,
		address: host + ":22",
	}
}

// SetCommandResponse registers a canned response for a command pattern.
// The pattern can be an exact string or a regex pattern. Registering the
// same pattern again replaces its response.
func (m *MockClient) SetCommandResponse(pattern string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	re, _ := regexp.Compile(pattern)
	for i := range m.commands {
		if m.commands[i].pattern == pattern {
			m.commands[i].resp = resp
			return
		}
	}
	m.commands = append(m.commands, scripted{pattern: pattern, re: re, resp: resp})
}

// SetOutput is shorthand for a successful response with the given stdout.
func (m *MockClient) SetOutput(pattern, stdout string) {
	m.SetCommandResponse(pattern, CommandResponse{Stdout: []byte(stdout)})
}

// Exec runs a command against the scripted responses.
func (m *MockClient) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	return m.ExecContext(context.Background(), cmd, nil)
}

// ExecContext runs a command, recording it and any stdin it was given.
func (m *MockClient) ExecContext(ctx context.Context, cmd string, stdin io.Reader) (stdout, stderr []byte, exitCode int, err error) {
	var input string
	if stdin != nil {
		b, _ := io.ReadAll(stdin)
		input = string(b)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, nil, -1, errors.New("connection closed")
	}
	m.execs = append(m.execs, ExecRecord{Cmd: cmd, Stdin: input})
	resp, ok := m.lookup(cmd)
	m.mu.Unlock()

	if !ok {
		if strings.HasPrefix(cmd, "echo ") {
			return []byte(strings.TrimPrefix(cmd, "echo ") + "\n"), nil, 0, nil
		}
		return nil, []byte("sh: command not found"), 127, nil
	}

	if resp.Delay > 0 {
		timer := time.NewTimer(resp.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, nil, -1, ctx.Err()
		case <-timer.C:
		}
	}

	return resp.Stdout, resp.Stderr, resp.ExitCode, resp.Error
}

func (m *MockClient) lookup(cmd string) (CommandResponse, bool) {
	for _, s := range m.commands {
		if s.pattern == cmd {
			return s.resp, true
		}
	}
	for _, s := range m.commands {
		if s.re != nil && s.re.MatchString(cmd) {
			return s.resp, true
		}
	}
	return CommandResponse{}, false
}

// Close marks the connection as closed.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// GetHost returns the host name.
func (m *MockClient) GetHost() string {
	return m.host
}

// GetAddress returns the host:port address.
func (m *MockClient) GetAddress() string {
	return m.address
}

// Execs returns every command received so far.
func (m *MockClient) Execs() []ExecRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ExecRecord, len(m.execs))
	copy(out, m.execs)
	return out
}

// CountMatching returns how many received commands contain substr.
func (m *MockClient) CountMatching(substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.execs {
		if strings.Contains(e.Cmd, substr) {
			n++
		}
	}
	return n
}
