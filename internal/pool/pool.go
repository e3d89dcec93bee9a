// Package pool keeps a small set of authenticated SSH connections to the NAS
// and hands them out one command at a time. Each connection negotiates its
// privilege level once when it is opened; Run applies it to every command.
package pool

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/nasmon/internal/errors"
	"github.com/rileyhilliard/nasmon/internal/logger"
	"github.com/rileyhilliard/nasmon/pkg/sshutil"
)

// Defaults for Config fields left at zero.
const (
	DefaultSize           = 3
	DefaultProbeTimeout   = 1 * time.Second
	DefaultCommandTimeout = 10 * time.Second
	DefaultAcquireWait    = 5 * time.Second
	DefaultPollInterval   = 100 * time.Millisecond
)

// ErrPoolExhausted is returned by Acquire when every session stayed busy for
// the whole acquire wait. Match with errors.Is.
var ErrPoolExhausted = errors.New(errors.ErrPool, "No free command channel", "")

// DialFunc opens one authenticated connection.
type DialFunc func(ctx context.Context) (sshutil.SSHClient, error)

// SSHDialer returns a DialFunc backed by sshutil.Dial.
func SSHDialer(host string, opts sshutil.DialOptions) DialFunc {
	return func(ctx context.Context) (sshutil.SSHClient, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return sshutil.Dial(host, opts)
	}
}

// Config controls pool sizing, timeouts and elevation credentials.
type Config struct {
	Size           int
	Password       string
	RootPassword   string
	ProbeTimeout   time.Duration
	CommandTimeout time.Duration
	AcquireWait    time.Duration
	PollInterval   time.Duration
	Logger         logger.Logger
}

func (c Config) withDefaults() Config {
	if c.Size <= 0 {
		c.Size = DefaultSize
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.AcquireWait <= 0 {
		c.AcquireWait = DefaultAcquireWait
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	c.Logger = logger.OrNoop(c.Logger)
	return c
}

// Session is one pooled connection plus its negotiated privilege.
type Session struct {
	id        int
	client    sshutil.SSHClient
	privilege Privilege
	password  string
	inUse     bool
}

// Privilege reports how commands on this session are elevated.
func (s *Session) Privilege() Privilege { return s.privilege }

// Client exposes the underlying connection.
func (s *Session) Client() sshutil.SSHClient { return s.client }

// Token identifies an acquired session for Release.
type Token struct {
	id int
}

// Pool is a bounded set of reusable command sessions to one host.
type Pool struct {
	mu       sync.Mutex
	cfg      Config
	dial     DialFunc
	sessions []*Session
	opening  int
	nextID   int
	log      logger.Logger
}

// New creates an empty pool. Sessions are opened lazily by Acquire.
func New(cfg Config, dial DialFunc) *Pool {
	cfg = cfg.withDefaults()
	return &Pool{
		cfg:  cfg,
		dial: dial,
		log:  cfg.Logger,
	}
}

// Acquire returns a live session marked in-use. Free sessions are probed
// first and replaced if dead; below capacity a new one is opened; at capacity
// Acquire polls until a session frees or AcquireWait elapses.
func (p *Pool) Acquire(ctx context.Context) (*Session, Token, error) {
	deadline := time.Now().Add(p.cfg.AcquireWait)
	waited := false

	for {
		s, err := p.tryAcquire(ctx)
		if err != nil {
			return nil, Token{}, err
		}
		if s != nil {
			if waited {
				p.log.Debug("session %d freed up after waiting", s.id)
			}
			return s, Token{id: s.id}, nil
		}

		if !waited {
			p.log.Debug("all %d sessions busy, waiting", p.cfg.Size)
			waited = true
		}
		if !time.Now().Before(deadline) {
			return nil, Token{}, errors.WrapWithCode(ErrPoolExhausted, errors.ErrPool,
				ErrPoolExhausted.Message,
				"Every session stayed busy for "+p.cfg.AcquireWait.String())
		}

		timer := time.NewTimer(p.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, Token{}, errors.WrapWithCode(ctx.Err(), errors.ErrPool,
				"Gave up waiting for a command channel", "")
		case <-timer.C:
		}
	}
}

// tryAcquire makes one pass: reuse a free live session, else open one if
// there is room. Returns (nil, nil) when the pool is full and busy.
func (p *Pool) tryAcquire(ctx context.Context) (*Session, error) {
	for {
		// A cancelled context would fail every probe and evict healthy sessions.
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrPool,
				"Gave up waiting for a command channel", "")
		}

		p.mu.Lock()
		var free *Session
		for _, s := range p.sessions {
			if !s.inUse {
				free = s
				break
			}
		}

		if free != nil {
			// Reserve before probing so no other caller grabs it.
			free.inUse = true
			p.mu.Unlock()

			if p.alive(ctx, free) {
				return free, nil
			}
			p.log.Debug("session %d failed liveness probe, replacing", free.id)
			p.drop(free)
			continue
		}

		if len(p.sessions)+p.opening >= p.cfg.Size {
			p.mu.Unlock()
			return nil, nil
		}
		p.opening++
		p.mu.Unlock()

		s, err := p.open(ctx)

		p.mu.Lock()
		p.opening--
		if err == nil {
			s.inUse = true
			p.sessions = append(p.sessions, s)
		}
		p.mu.Unlock()
		return s, err
	}
}

// open dials a new connection and negotiates its privilege.
func (p *Pool) open(ctx context.Context) (*Session, error) {
	client, err := p.dial(ctx)
	if err != nil {
		p.log.Debug("dial failed: %v", err)
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			"Couldn't open a command channel",
			"Check that the NAS is on and SSH credentials are correct")
	}

	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.mu.Unlock()

	s := &Session{id: id, client: client}
	s.privilege, s.password = negotiate(ctx, client, p.cfg)
	p.log.Debug("opened session %d (%s)", id, s.privilege)
	return s, nil
}

// alive runs a trivial command under the probe timeout.
func (p *Pool) alive(ctx context.Context, s *Session) bool {
	pctx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()

	out, _, code, err := s.client.ExecContext(pctx, "echo test", nil)
	return err == nil && code == 0 && strings.TrimSpace(string(out)) == "test"
}

// drop closes a session and removes it from the pool.
func (p *Pool) drop(target *Session) {
	p.mu.Lock()
	for i, s := range p.sessions {
		if s == target {
			p.sessions = append(p.sessions[:i], p.sessions[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
	_ = target.client.Close()
}

// Release returns a session to the free list. Unknown tokens are ignored.
func (p *Pool) Release(t Token) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.sessions {
		if s.id == t.id {
			s.inUse = false
			return
		}
	}
}

// CloseAll closes every session, ignoring individual close errors, and
// empties the pool. Sessions still held by callers are closed too; their
// later Release is a no-op.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	sessions := p.sessions
	p.sessions = nil
	p.mu.Unlock()

	for _, s := range sessions {
		if err := s.client.Close(); err != nil {
			p.log.Debug("closing session %d: %v", s.id, err)
		}
	}
}

// Size returns the number of open sessions, busy or free.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// InUse returns the number of sessions currently handed out.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.sessions {
		if s.inUse {
			n++
		}
	}
	return n
}

// Capacity returns the configured session ceiling.
func (p *Pool) Capacity() int {
	return p.cfg.Size
}

// Prime makes sure at least one live, negotiated session exists, dialing one
// if needed. It surfaces the connect error that Run would swallow.
func (p *Pool) Prime(ctx context.Context) error {
	s, tok, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	p.log.Debug("session %d ready (%s)", s.id, s.privilege)
	p.Release(tok)
	return nil
}

// Run acquires a session, runs command with its elevation applied, releases
// the session, and returns trimmed stdout. Every failure (no session,
// transport error, timeout) yields "". A timeout of 0 uses CommandTimeout.
func (p *Pool) Run(ctx context.Context, command string, timeout time.Duration) string {
	if timeout <= 0 {
		timeout = p.cfg.CommandTimeout
	}

	s, tok, err := p.Acquire(ctx)
	if err != nil {
		p.log.Debug("no session for %q: %v", command, err)
		return ""
	}
	defer p.Release(tok)

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd, stdin := elevate(command, s.privilege, s.password)
	out, _, _, err := s.client.ExecContext(cctx, cmd, stdin)
	if err != nil {
		p.log.Debug("command failed: %s: %v", command, err)
		return ""
	}
	return strings.TrimSpace(string(out))
}
