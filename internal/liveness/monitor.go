// Package liveness tracks whether the NAS is reachable and, while it is not,
// re-probes it in the background with exponential backoff.
package liveness

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rileyhilliard/nasmon/internal/logger"
)

// Backoff defaults for the offline retry loop.
const (
	DefaultInitialBackoff = 30 * time.Second
	DefaultMaxBackoff     = 300 * time.Second
	DefaultMultiplier     = 1.5
)

// SleepFunc waits for d or until ctx ends. It returns false when ctx ended first.
type SleepFunc func(ctx context.Context, d time.Duration) bool

// Config configures a Monitor. Zero fields take the defaults above.
type Config struct {
	Host           string
	Probe          ProbeFunc
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Sleep          SleepFunc
	Logger         logger.Logger
}

// Monitor holds the online/offline state for one host and owns the single
// background retry loop.
type Monitor struct {
	cfg Config
	log logger.Logger

	mu     sync.Mutex
	online bool
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Monitor. The host starts out considered offline until the
// first Check.
func New(cfg Config) *Monitor {
	if cfg.Probe == nil {
		cfg.Probe = PingProbe
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = DefaultMultiplier
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepCtx
	}
	return &Monitor{cfg: cfg, log: logger.OrNoop(cfg.Logger)}
}

// Check probes the host once and records the result.
func (m *Monitor) Check(ctx context.Context) bool {
	ok := m.cfg.Probe(ctx, m.cfg.Host)

	m.mu.Lock()
	m.online = ok
	m.mu.Unlock()
	return ok
}

// Online returns the result of the most recent probe.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// MarkOffline forces the offline state without probing.
func (m *Monitor) MarkOffline() {
	m.mu.Lock()
	m.online = false
	m.mu.Unlock()
}

// Running reports whether the retry loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done != nil
}

// StartRetry launches the background retry loop unless one is already
// running. The loop sleeps, probes, and grows the delay by Multiplier up to
// MaxBackoff. On the first successful probe it marks the host online, exits,
// and calls onRecover once. Returns false when a loop was already running.
func (m *Monitor) StartRetry(onRecover func()) bool {
	m.mu.Lock()
	if m.done != nil {
		m.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel, m.done = cancel, done
	m.mu.Unlock()

	m.log.Debug("host %s offline, retrying every %s", m.cfg.Host, m.cfg.InitialBackoff)
	go m.retry(ctx, done, onRecover)
	return true
}

func (m *Monitor) retry(ctx context.Context, done chan struct{}, onRecover func()) {
	recovered := false
	defer func() {
		m.mu.Lock()
		if m.done == done {
			m.cancel, m.done = nil, nil
		}
		if recovered {
			m.online = true
		}
		m.mu.Unlock()
		close(done)

		// Called after the loop has unregistered so onRecover may call Stop.
		if recovered && ctx.Err() == nil && onRecover != nil {
			onRecover()
		}
	}()

	b := m.newBackOff()
	for attempt := 1; ; attempt++ {
		if !m.cfg.Sleep(ctx, b.NextBackOff()) {
			return
		}
		if m.cfg.Probe(ctx, m.cfg.Host) {
			m.log.Info("host %s is back online after %d attempts", m.cfg.Host, attempt)
			recovered = true
			return
		}
		m.log.Debug("host %s still offline after %d attempts", m.cfg.Host, attempt)
	}
}

// newBackOff returns the retry schedule: InitialBackoff growing by
// Multiplier up to MaxBackoff, without jitter, and never giving up.
func (m *Monitor) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.cfg.InitialBackoff
	b.Multiplier = m.cfg.Multiplier
	b.MaxInterval = m.cfg.MaxBackoff
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Stop cancels the retry loop and waits for it to exit. Safe to call when
// no loop is running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
