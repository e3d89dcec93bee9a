// Package orchestrator runs one poll cycle against the NAS and publishes the
// resulting snapshot to subscribers. It owns the online/offline decision:
// an unreachable host or a failed connection yields the default snapshot and
// arms the liveness retry loop.
package orchestrator

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rileyhilliard/nasmon/internal/extract"
	"github.com/rileyhilliard/nasmon/internal/logger"
	"github.com/rileyhilliard/nasmon/internal/snapshot"
)

// CommandPool is the command channel the extractors run on. *pool.Pool
// satisfies it.
type CommandPool interface {
	extract.Runner
	Prime(ctx context.Context) error
	CloseAll()
}

// Liveness decides reachability and recovers in the background.
// *liveness.Monitor satisfies it.
type Liveness interface {
	Check(ctx context.Context) bool
	Online() bool
	MarkOffline()
	StartRetry(onRecover func()) bool
	Stop()
}

// Config wires an Orchestrator.
type Config struct {
	Pool    CommandPool
	Monitor Liveness

	IgnoreDisks []string
	// EnableContainers turns on the docker extractor. It is decided once
	// here; the extractor is nil otherwise.
	EnableContainers bool

	// OnRecover runs once when the retry loop sees the host again.
	OnRecover func()
	// Now stamps power backup readings. Defaults to time.Now.
	Now    func() time.Time
	Logger logger.Logger
}

// Orchestrator produces snapshots. Update calls are serialized; Current,
// Subscribe, Mutate and RefreshPowerBackup are safe from any goroutine.
type Orchestrator struct {
	pool      CommandPool
	monitor   Liveness
	onRecover func()
	log       logger.Logger

	system     *extract.SystemExtractor
	disks      *extract.DiskExtractor
	pools      *extract.PoolExtractor
	ups        *extract.PowerBackupExtractor
	vms        *extract.VMExtractor
	containers *extract.ContainerExtractor

	pollMu sync.Mutex

	mu      sync.RWMutex
	current snapshot.Snapshot

	subMu  sync.Mutex
	subs   map[int]func(snapshot.Snapshot)
	nextID int
}

// New builds the extractors on top of cfg.Pool. The published snapshot
// starts out as snapshot.Default().
func New(cfg Config) *Orchestrator {
	log := logger.OrNoop(cfg.Logger)
	o := &Orchestrator{
		pool:      cfg.Pool,
		monitor:   cfg.Monitor,
		onRecover: cfg.OnRecover,
		log:       log,
		system:    extract.NewSystemExtractor(cfg.Pool, log),
		disks:     extract.NewDiskExtractor(cfg.Pool, cfg.IgnoreDisks, log),
		pools:     extract.NewPoolExtractor(cfg.Pool, log),
		ups:       extract.NewPowerBackupExtractor(cfg.Pool, cfg.Now, log),
		vms:       extract.NewVMExtractor(cfg.Pool, log),
		current:   snapshot.Default(),
		subs:      map[int]func(snapshot.Snapshot){},
	}
	if cfg.EnableContainers {
		o.containers = extract.NewContainerExtractor(cfg.Pool)
	}
	return o
}

// Update runs one poll cycle and publishes the result. Every call decides
// online or offline from a fresh probe.
func (o *Orchestrator) Update(ctx context.Context) snapshot.Snapshot {
	o.pollMu.Lock()
	defer o.pollMu.Unlock()

	if !o.monitor.Check(ctx) {
		o.log.Warn("host unreachable, publishing defaults")
		return o.goOffline()
	}

	snap, err := o.collect(ctx)
	if err != nil {
		o.log.Error("poll failed: %v", err)
		return o.goOffline()
	}

	// The host answered a tick, so a pending recovery would only reload a
	// healthy integration.
	o.monitor.Stop()

	o.publish(snap)
	return snap.Clone()
}

func (o *Orchestrator) goOffline() snapshot.Snapshot {
	o.monitor.MarkOffline()
	o.pool.CloseAll()
	if o.monitor.StartRetry(o.onRecover) {
		o.log.Info("started background reconnect")
	}

	snap := snapshot.Default()
	o.publish(snap)
	return snap.Clone()
}

// collect runs the extractors in order. A panic inside one counts as a
// failed poll rather than a half-filled snapshot.
func (o *Orchestrator) collect(ctx context.Context) (snap snapshot.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()

	if err := o.pool.Prime(ctx); err != nil {
		return snapshot.Snapshot{}, err
	}

	snap = snapshot.Default()
	snap.System = o.system.Extract(ctx)
	snap.Disks = o.disks.Extract(ctx)
	snap.Pools, snap.Scrub = o.pools.Extract(ctx)
	snap.PowerBackup = o.ups.Extract(ctx)

	snap.VMs = o.vms.Extract(ctx)
	for i := range snap.VMs {
		snap.VMs[i].Title = o.vms.Title(ctx, snap.VMs[i].Name)
	}

	if o.containers != nil {
		snap.Containers = o.containers.Extract(ctx)
	}

	if err := ctx.Err(); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("poll interrupted: %w", err)
	}
	return snap, nil
}

// RefreshPowerBackup re-reads only the UPS and republishes. It does nothing
// while the host is offline.
func (o *Orchestrator) RefreshPowerBackup(ctx context.Context) {
	if !o.monitor.Online() {
		return
	}
	info := o.ups.Extract(ctx)
	if ctx.Err() != nil {
		return
	}
	o.Mutate(func(s *snapshot.Snapshot) {
		s.PowerBackup = info
	})
}

// Online reports the monitor's last verdict.
func (o *Orchestrator) Online() bool {
	return o.monitor.Online()
}

// Current returns a copy of the last published snapshot.
func (o *Orchestrator) Current() snapshot.Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current.Clone()
}

// Mutate applies fn to a copy of the current snapshot, publishes the copy
// and notifies subscribers.
func (o *Orchestrator) Mutate(fn func(*snapshot.Snapshot)) {
	o.mu.Lock()
	next := o.current.Clone()
	fn(&next)
	o.current = next
	o.mu.Unlock()

	o.notify(next)
}

func (o *Orchestrator) publish(snap snapshot.Snapshot) {
	o.mu.Lock()
	o.current = snap.Clone()
	o.mu.Unlock()

	o.notify(snap)
}

// Subscribe registers fn to receive every published snapshot. fn runs
// synchronously on the publishing goroutine and gets its own copy. The
// returned func unsubscribes and may be called more than once.
func (o *Orchestrator) Subscribe(fn func(snapshot.Snapshot)) (unsubscribe func()) {
	o.subMu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.subMu.Lock()
			delete(o.subs, id)
			o.subMu.Unlock()
		})
	}
}

func (o *Orchestrator) notify(snap snapshot.Snapshot) {
	o.subMu.Lock()
	ids := make([]int, 0, len(o.subs))
	for id := range o.subs {
		ids = append(ids, id)
	}
	fns := make([]func(snapshot.Snapshot), 0, len(ids))
	// Registration order.
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, o.subs[id])
	}
	o.subMu.Unlock()

	for _, fn := range fns {
		fn(snap.Clone())
	}
}

// Close stops the retry loop and closes every pooled session.
func (o *Orchestrator) Close() {
	o.monitor.Stop()
	o.pool.CloseAll()
}
