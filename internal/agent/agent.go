// Package agent owns one running nasmon integration. It builds the command
// pool, liveness monitor, orchestrator and action executor from config,
// drives the two poll timers, and rebuilds the whole stack when the retry
// loop sees the host come back.
package agent

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/nasmon/internal/action"
	"github.com/rileyhilliard/nasmon/internal/config"
	"github.com/rileyhilliard/nasmon/internal/doctor"
	"github.com/rileyhilliard/nasmon/internal/extract"
	"github.com/rileyhilliard/nasmon/internal/liveness"
	"github.com/rileyhilliard/nasmon/internal/logger"
	"github.com/rileyhilliard/nasmon/internal/orchestrator"
	"github.com/rileyhilliard/nasmon/internal/parsers"
	"github.com/rileyhilliard/nasmon/internal/pool"
	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/pkg/sshutil"
)

// Options override the pieces that touch the network or the clock. Zero
// values use the real implementations.
type Options struct {
	Dial  pool.DialFunc
	Probe liveness.ProbeFunc
	Sleep liveness.SleepFunc
	Now   func() time.Time
	// Logger replaces the per-component env loggers.
	Logger logger.Logger
}

// stack is everything that gets torn down and rebuilt on reload.
type stack struct {
	pool  *pool.Pool
	orch  *orchestrator.Orchestrator
	exec  *action.Executor
	unsub func()
}

func (s *stack) close() {
	s.unsub()
	s.orch.Close()
}

// Agent is the long-lived owner of a stack. Snapshot subscribers are held
// here so they survive reloads.
type Agent struct {
	cfg  *config.Config
	opts Options
	log  logger.Logger

	probeHost string
	probePort int

	mu      sync.RWMutex
	stack   *stack
	reloads int
	closed  bool

	reloadCh chan struct{}

	subMu  sync.Mutex
	subs   map[int]func(snapshot.Snapshot)
	order  []int
	nextID int
}

// New builds the initial stack. Nothing touches the network until the
// first Refresh or Run.
func New(cfg *config.Config, opts Options) *Agent {
	a := &Agent{
		cfg:      cfg,
		opts:     opts,
		log:      componentLogger(opts.Logger, "[agent]"),
		reloadCh: make(chan struct{}, 1),
		subs:     map[int]func(snapshot.Snapshot){},
	}

	dialOpts := sshutil.DialOptions{
		User:     cfg.Username,
		Password: cfg.Password,
		Port:     cfg.Port,
		KeyFile:  cfg.SSHKey,
	}
	a.probeHost, a.probePort = sshutil.ResolveHost(cfg.Host, dialOpts)
	if a.opts.Dial == nil {
		a.opts.Dial = pool.SSHDialer(cfg.Host, dialOpts)
	}
	if a.opts.Probe == nil {
		a.opts.Probe = liveness.ProbeByName(cfg.Probe, a.probePort)
	}

	a.stack = a.build()
	return a
}

// componentLogger returns shared when set, else an env logger with prefix.
func componentLogger(shared logger.Logger, prefix string) logger.Logger {
	if shared != nil {
		return shared
	}
	return logger.NewEnvLogger(prefix)
}

func (a *Agent) build() *stack {
	p := pool.New(pool.Config{
		Size:         a.cfg.PoolSize,
		Password:     a.cfg.Password,
		RootPassword: a.cfg.RootPassword,
		Logger:       componentLogger(a.opts.Logger, "[pool]"),
	}, a.opts.Dial)

	m := liveness.New(liveness.Config{
		Host:   a.probeHost,
		Probe:  a.opts.Probe,
		Sleep:  a.opts.Sleep,
		Logger: componentLogger(a.opts.Logger, "[liveness]"),
	})

	o := orchestrator.New(orchestrator.Config{
		Pool:             p,
		Monitor:          m,
		IgnoreDisks:      a.cfg.IgnoreDisks,
		EnableContainers: a.cfg.EnableDocker,
		OnRecover:        a.requestReload,
		Now:              a.opts.Now,
		Logger:           componentLogger(a.opts.Logger, "[orchestrator]"),
	})

	return &stack{
		pool:  p,
		orch:  o,
		exec:  action.New(p, o, componentLogger(a.opts.Logger, "[action]")),
		unsub: o.Subscribe(a.broadcast),
	}
}

// requestReload runs on the retry goroutine. The reload itself happens on
// the Run loop so the old stack is never closed from inside its own retry.
func (a *Agent) requestReload() {
	a.log.Info("host %s is back, reloading", a.cfg.Host)
	select {
	case a.reloadCh <- struct{}{}:
	default:
	}
}

func (a *Agent) current() *stack {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stack
}

// Refresh runs one full poll and returns the published snapshot.
func (a *Agent) Refresh(ctx context.Context) snapshot.Snapshot {
	return a.current().orch.Update(ctx)
}

// Run polls every ScanInterval and refreshes the UPS every UPSScanInterval
// until ctx ends. The first poll runs immediately.
func (a *Agent) Run(ctx context.Context) error {
	a.Refresh(ctx)

	scan := time.NewTicker(a.cfg.ScanInterval)
	defer scan.Stop()
	ups := time.NewTicker(a.cfg.UPSScanInterval)
	defer ups.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-scan.C:
			a.Refresh(ctx)
		case <-ups.C:
			a.current().orch.RefreshPowerBackup(ctx)
		case <-a.reloadCh:
			a.Reload(ctx)
		}
	}
}

// Reload tears down the current stack, builds a fresh one and polls it
// once. Subscribers carry over.
func (a *Agent) Reload(ctx context.Context) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	old := a.stack
	a.stack = a.build()
	a.reloads++
	a.mu.Unlock()

	old.close()
	a.Refresh(ctx)
}

// Reloads counts completed stack rebuilds.
func (a *Agent) Reloads() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.reloads
}

// Current returns the last published snapshot.
func (a *Agent) Current() snapshot.Snapshot {
	return a.current().orch.Current()
}

// Online reports whether the last poll reached the host.
func (a *Agent) Online() bool {
	return a.current().orch.Online()
}

// Actions returns the executor bound to the live stack. Don't hold on to it
// across a reload.
func (a *Agent) Actions() *action.Executor {
	return a.current().exec
}

// Interfaces lists the host's network interfaces and MAC addresses. A
// connection failure is returned so callers can tell it from a host with
// no interfaces.
func (a *Agent) Interfaces(ctx context.Context) ([]parsers.Interface, error) {
	p := a.current().pool
	if err := p.Prime(ctx); err != nil {
		return nil, err
	}
	return extract.ListMACs(ctx, p), nil
}

// Checks returns the diagnostics for the live stack, in the order they
// should run.
func (a *Agent) Checks() []doctor.Check {
	p := a.current().pool
	checks := []doctor.Check{
		&doctor.ReachabilityCheck{Host: a.probeHost, Probe: a.opts.Probe},
		&doctor.LoginCheck{Host: a.cfg.Host, Sessions: p},
		&doctor.PrivilegeCheck{Sessions: p},
	}
	return append(checks, doctor.NewToolChecks(p, a.cfg.EnableDocker)...)
}

// PoolStats reports open and busy sessions on the live pool.
func (a *Agent) PoolStats() (size, inUse, capacity int) {
	p := a.current().pool
	return p.Size(), p.InUse(), p.Capacity()
}

// Subscribe registers fn for every snapshot the agent publishes, across
// reloads. The returned func unsubscribes.
func (a *Agent) Subscribe(fn func(snapshot.Snapshot)) (unsubscribe func()) {
	a.subMu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	a.order = append(a.order, id)
	a.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, id)
			for i, v := range a.order {
				if v == id {
					a.order = append(a.order[:i], a.order[i+1:]...)
					break
				}
			}
			a.subMu.Unlock()
		})
	}
}

func (a *Agent) broadcast(snap snapshot.Snapshot) {
	a.subMu.Lock()
	fns := make([]func(snapshot.Snapshot), 0, len(a.order))
	for _, id := range a.order {
		fns = append(fns, a.subs[id])
	}
	a.subMu.Unlock()

	for _, fn := range fns {
		fn(snap.Clone())
	}
}

// Close cancels any pending retry and closes every pooled session. Further
// reload requests are ignored.
func (a *Agent) Close() {
	a.mu.Lock()
	a.closed = true
	s := a.stack
	a.mu.Unlock()

	s.close()
}
