package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/nasmon/internal/liveness"
	"github.com/rileyhilliard/nasmon/internal/pool"
	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/pkg/sshutil"
	sshtesting "github.com/rileyhilliard/nasmon/pkg/sshutil/testing"
)

// fakePool answers commands from a table and counts lifecycle calls.
type fakePool struct {
	mu       sync.Mutex
	outputs  map[string]string
	calls    []string
	primeErr error
	panicOn  string
	closed   int
}

func (p *fakePool) Run(_ context.Context, command string, _ time.Duration) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, command)
	if p.panicOn != "" && command == p.panicOn {
		panic("boom")
	}
	return p.outputs[command]
}

func (p *fakePool) Prime(context.Context) error { return p.primeErr }

func (p *fakePool) CloseAll() {
	p.mu.Lock()
	p.closed++
	p.mu.Unlock()
}

func (p *fakePool) ran(prefix string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// fakeMonitor is a Liveness with a fixed probe result.
type fakeMonitor struct {
	mu      sync.Mutex
	reach   bool
	online  bool
	running bool
	starts  int
	stops   int
}

func (m *fakeMonitor) Check(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = m.reach
	return m.reach
}

func (m *fakeMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *fakeMonitor) MarkOffline() {
	m.mu.Lock()
	m.online = false
	m.mu.Unlock()
}

func (m *fakeMonitor) StartRetry(func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return false
	}
	m.running = true
	m.starts++
	return true
}

func (m *fakeMonitor) Stop() {
	m.mu.Lock()
	m.running = false
	m.stops++
	m.mu.Unlock()
}

func nasOutputs() map[string]string {
	return map[string]string{
		"cat /proc/uptime":     "3660.00 100.00",
		"lsblk -dno NAME,TYPE": "sda disk",
		"cat /sys/block/sda/device/state 2>/dev/null || echo unknown": "running",
		"smartctl -H /dev/sda": "SMART overall-health self-assessment test result: PASSED",
		"zpool list -H -o name,size,alloc,free,ckpoint,expandsz,frag,cap,dedup,health 2>/dev/null": "tank\t3.62T\t1.20T\t2.42T\t-\t-\t5%\t33%\t1.00x\tONLINE",
		"zpool status tank 2>/dev/null": "  scan: none requested",
		"upsc -l 2>/dev/null":           "myups",
		"upsc myups 2>/dev/null":        "ups.status: OL\nbattery.charge: 100",
		"virsh list --all":              " Id   Name   State\n----------------------\n 1    web    running",
		"virsh dumpxml web":             "<domain><title>Web Server</title></domain>",
		`docker ps -a --format '{{.Names}}\t{{.State}}'`: "plex\trunning",
	}
}

func TestUpdate_Online(t *testing.T) {
	p := &fakePool{outputs: nasOutputs()}
	m := &fakeMonitor{reach: true}
	o := New(Config{Pool: p, Monitor: m})

	var got []snapshot.Snapshot
	o.Subscribe(func(s snapshot.Snapshot) { got = append(got, s) })

	snap := o.Update(context.Background())

	assert.Equal(t, snapshot.StatusOn, snap.System.Status)
	assert.Equal(t, "1小时 1分钟", snap.System.Uptime)
	require.Len(t, snap.Disks, 1)
	assert.Equal(t, "sda", snap.Disks[0].Device)
	require.Len(t, snap.Pools, 1)
	assert.Contains(t, snap.Scrub, "tank")
	assert.Equal(t, "myups", snap.PowerBackup.Name)
	require.Len(t, snap.VMs, 1)
	assert.Equal(t, "Web Server", snap.VMs[0].Title)

	assert.Empty(t, snap.Containers, "containers are off unless enabled")
	assert.Zero(t, p.ran("docker"))

	require.Len(t, got, 1)
	assert.Equal(t, snap, got[0])
	assert.Equal(t, snap, o.Current())
	assert.True(t, o.Online())
	assert.Zero(t, m.starts)
	assert.Zero(t, p.closed)
}

func TestUpdate_ExtractorOrder(t *testing.T) {
	p := &fakePool{outputs: nasOutputs()}
	o := New(Config{Pool: p, Monitor: &fakeMonitor{reach: true}, EnableContainers: true})
	o.Update(context.Background())

	firstIndex := func(prefix string) int {
		for i, c := range p.calls {
			if strings.HasPrefix(c, prefix) {
				return i
			}
		}
		return -1
	}
	order := []int{
		firstIndex("cat /proc/uptime"),
		firstIndex("lsblk"),
		firstIndex("zpool list"),
		firstIndex("zpool status"),
		firstIndex("upsc"),
		firstIndex("virsh list"),
		firstIndex("virsh dumpxml"),
		firstIndex("docker ps"),
	}
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1], order[i], "step %d out of order", i)
	}
}

func TestUpdate_ContainersEnabled(t *testing.T) {
	p := &fakePool{outputs: nasOutputs()}
	o := New(Config{Pool: p, Monitor: &fakeMonitor{reach: true}, EnableContainers: true})

	snap := o.Update(context.Background())
	assert.Equal(t, []snapshot.ContainerRecord{{Name: "plex", Status: "running"}}, snap.Containers)
}

func TestUpdate_Unreachable(t *testing.T) {
	p := &fakePool{outputs: nasOutputs()}
	m := &fakeMonitor{reach: false}
	o := New(Config{Pool: p, Monitor: m})

	notified := 0
	o.Subscribe(func(snapshot.Snapshot) { notified++ })

	snap := o.Update(context.Background())

	assert.Equal(t, snapshot.Default(), snap)
	assert.Equal(t, snapshot.StatusOff, snap.System.Status)
	assert.Empty(t, snap.Disks)
	assert.Empty(t, p.calls, "no remote commands while offline")
	assert.Equal(t, 1, p.closed)
	assert.Equal(t, 1, m.starts)
	assert.Equal(t, 1, notified)

	o.Update(context.Background())
	assert.Equal(t, 1, m.starts, "retry loop is armed once")
	assert.Equal(t, 2, p.closed)
}

func TestUpdate_PrimeFailureGoesOffline(t *testing.T) {
	p := &fakePool{outputs: nasOutputs(), primeErr: fmt.Errorf("ssh: handshake failed")}
	m := &fakeMonitor{reach: true}
	o := New(Config{Pool: p, Monitor: m})

	snap := o.Update(context.Background())

	assert.Equal(t, snapshot.Default(), snap)
	assert.False(t, o.Online())
	assert.Equal(t, 1, m.starts)
	assert.Equal(t, 1, p.closed)
}

func TestUpdate_PanicGoesOffline(t *testing.T) {
	p := &fakePool{outputs: nasOutputs(), panicOn: "virsh list --all"}
	m := &fakeMonitor{reach: true}
	o := New(Config{Pool: p, Monitor: m})

	snap := o.Update(context.Background())

	assert.Equal(t, snapshot.Default(), snap)
	assert.Equal(t, 1, m.starts)
}

func TestUpdate_RecoveryStopsRetry(t *testing.T) {
	p := &fakePool{outputs: nasOutputs()}
	m := &fakeMonitor{reach: false}
	o := New(Config{Pool: p, Monitor: m})

	o.Update(context.Background())
	require.True(t, m.running)

	m.reach = true
	o.Update(context.Background())
	assert.False(t, m.running)
}

func TestRefreshPowerBackup(t *testing.T) {
	p := &fakePool{outputs: nasOutputs()}
	m := &fakeMonitor{reach: false}
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	o := New(Config{Pool: p, Monitor: m, Now: func() time.Time { return stamp }})

	notified := 0
	o.Subscribe(func(snapshot.Snapshot) { notified++ })

	o.RefreshPowerBackup(context.Background())
	assert.Zero(t, notified, "offline sub-poll is skipped")
	assert.Zero(t, p.ran("upsc"))

	m.reach = true
	before := o.Update(context.Background())
	p.outputs["upsc myups 2>/dev/null"] = "ups.status: OB\nbattery.charge: 40"
	o.RefreshPowerBackup(context.Background())

	after := o.Current()
	assert.Equal(t, "40", after.PowerBackup.BatteryLevel)
	assert.Equal(t, "2024-01-02 03:04:05", after.PowerBackup.LastUpdate)
	assert.Equal(t, before.Disks, after.Disks)
	assert.Equal(t, before.System, after.System)
	assert.Equal(t, 2, notified)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	o := New(Config{Pool: &fakePool{}, Monitor: &fakeMonitor{}})

	var order []string
	unsubA := o.Subscribe(func(snapshot.Snapshot) { order = append(order, "a") })
	o.Subscribe(func(snapshot.Snapshot) { order = append(order, "b") })

	o.Mutate(func(*snapshot.Snapshot) {})
	unsubA()
	unsubA()
	o.Mutate(func(*snapshot.Snapshot) {})

	assert.Equal(t, []string{"a", "b", "b"}, order)
}

func TestMutate_PublishesCopy(t *testing.T) {
	o := New(Config{Pool: &fakePool{}, Monitor: &fakeMonitor{}})

	var seen snapshot.Snapshot
	o.Subscribe(func(s snapshot.Snapshot) { seen = s })

	o.Mutate(func(s *snapshot.Snapshot) {
		s.VMs = append(s.VMs, snapshot.VMRecord{Name: "web", State: snapshot.VMRunning})
	})
	require.Len(t, seen.VMs, 1)

	seen.VMs[0].State = "tampered"
	cur := o.Current()
	cur.System.Volumes["/vol1"] = snapshot.VolumeUsage{}

	assert.Equal(t, snapshot.VMRunning, o.Current().VMs[0].State)
	assert.Empty(t, o.Current().System.Volumes)
}

func TestClose(t *testing.T) {
	p := &fakePool{}
	m := &fakeMonitor{}
	New(Config{Pool: p, Monitor: m}).Close()

	assert.Equal(t, 1, m.stops)
	assert.Equal(t, 1, p.closed)
}

// An unreachable host returns defaults, retries at 30s then 45s then 67.5s,
// and reloads exactly once when the third retry reaches it.
func TestOfflineRecoveryReloadsOnce(t *testing.T) {
	var probes atomic.Int32
	var mu sync.Mutex
	var delays []time.Duration

	mon := liveness.New(liveness.Config{
		Host: "nas.lan",
		Probe: func(context.Context, string) bool {
			return probes.Add(1) >= 4
		},
		Sleep: func(_ context.Context, d time.Duration) bool {
			mu.Lock()
			delays = append(delays, d)
			mu.Unlock()
			return true
		},
	})

	var reloads atomic.Int32
	recovered := make(chan struct{})
	o := New(Config{
		Pool:    &fakePool{},
		Monitor: mon,
		OnRecover: func() {
			if reloads.Add(1) == 1 {
				close(recovered)
			}
		},
	})

	snap := o.Update(context.Background())
	assert.Equal(t, snapshot.StatusOff, snap.System.Status)
	assert.Empty(t, snap.Disks)

	select {
	case <-recovered:
	case <-time.After(2 * time.Second):
		t.Fatal("retry loop never recovered")
	}
	require.Eventually(t, func() bool { return !mon.Running() }, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []time.Duration{30 * time.Second, 45 * time.Second, 67500 * time.Millisecond}, delays)
	mu.Unlock()
	assert.Equal(t, int32(1), reloads.Load())
	assert.True(t, mon.Online())
}

// Consecutive offline ticks close every session and an online tick never
// opens more than the pool ceiling.
func TestOfflineTicksRespectCeiling(t *testing.T) {
	var dials atomic.Int32
	dial := func(context.Context) (sshutil.SSHClient, error) {
		dials.Add(1)
		c := sshtesting.NewMockClient("nas")
		c.SetOutput("id -u", "0\n")
		c.SetOutput("lsblk -dno NAME,TYPE", "sda disk\nsdb disk\n")
		return c, nil
	}
	p := pool.New(pool.Config{Size: 3}, dial)

	reach := &fakeMonitor{reach: false}
	o := New(Config{Pool: p, Monitor: reach})
	defer o.Close()

	o.Update(context.Background())
	o.Update(context.Background())
	assert.Zero(t, p.Size())
	assert.Zero(t, dials.Load())

	reach.reach = true
	snap := o.Update(context.Background())
	assert.Len(t, snap.Disks, 2)
	assert.LessOrEqual(t, p.Size(), 3)
	assert.Zero(t, p.InUse())
}
