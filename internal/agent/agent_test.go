package agent

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/nasmon/internal/config"
	"github.com/rileyhilliard/nasmon/internal/doctor"
	"github.com/rileyhilliard/nasmon/internal/logger"
	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/pkg/sshutil"
	sshtesting "github.com/rileyhilliard/nasmon/pkg/sshutil/testing"
)

type fakeNAS struct {
	mu      sync.Mutex
	clients []*sshtesting.MockClient
}

func (f *fakeNAS) dial(ctx context.Context) (sshutil.SSHClient, error) {
	c := sshtesting.NewMockClient("nas.test")
	c.SetOutput("id -u", "0\n")
	c.SetOutput("cat /proc/uptime", "93784.12 180000.00\n")
	c.SetOutput("lsblk -dno NAME,TYPE", "sda disk\n")
	c.SetOutput("upsc -l 2>/dev/null", "")
	c.SetOutput("ip link show", "1: lo: <LOOPBACK,UP> mtu 65536\n    link/loopback 00:00:00:00:00:00 brd 00:00:00:00:00:00\n"+
		"2: eth0: <BROADCAST,UP> mtu 1500\n    link/ether 00:11:32:aa:bb:cc brd ff:ff:ff:ff:ff:ff\n")

	f.mu.Lock()
	f.clients = append(f.clients, c)
	f.mu.Unlock()
	return c, nil
}

func (f *fakeNAS) dials() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cfg := config.DefaultConfig()
	cfg.Host = "nas.test"
	cfg.Username = "admin"
	cfg.Password = "secret"
	cfg.ScanInterval = time.Hour
	cfg.UPSScanInterval = time.Hour
	return cfg
}

func TestAgent_Refresh(t *testing.T) {
	nas := &fakeNAS{}
	a := New(testConfig(t), Options{
		Dial:   nas.dial,
		Probe:  func(context.Context, string) bool { return true },
		Logger: logger.Noop(),
	})
	defer a.Close()

	var got []snapshot.Snapshot
	unsub := a.Subscribe(func(s snapshot.Snapshot) { got = append(got, s) })

	snap := a.Refresh(context.Background())

	assert.True(t, a.Online())
	assert.Equal(t, snapshot.StatusOn, snap.System.Status)
	require.Len(t, snap.Disks, 1)
	assert.Equal(t, "sda", snap.Disks[0].Device)
	require.Len(t, got, 1)
	assert.Equal(t, snap, got[0])
	assert.Equal(t, snap, a.Current())

	size, inUse, capacity := a.PoolStats()
	assert.GreaterOrEqual(t, size, 1)
	assert.Equal(t, 0, inUse)
	assert.Equal(t, config.DefaultPoolSize, capacity)

	unsub()
	a.Refresh(context.Background())
	assert.Len(t, got, 1)
}

func TestAgent_Unreachable(t *testing.T) {
	nas := &fakeNAS{}
	a := New(testConfig(t), Options{
		Dial:  nas.dial,
		Probe: func(context.Context, string) bool { return false },
		Sleep: func(ctx context.Context, _ time.Duration) bool {
			<-ctx.Done()
			return false
		},
		Logger: logger.Noop(),
	})

	snap := a.Refresh(context.Background())

	assert.False(t, a.Online())
	assert.Equal(t, snapshot.Default(), snap)
	assert.Equal(t, 0, nas.dials())

	// Close must cancel the parked retry loop.
	done := make(chan struct{})
	go func() {
		a.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not stop the retry loop")
	}
}

func TestAgent_RunReloadsAfterRecovery(t *testing.T) {
	nas := &fakeNAS{}
	var probes atomic.Int32
	a := New(testConfig(t), Options{
		Dial: nas.dial,
		// Down for the first poll and the first retry, then back.
		Probe: func(context.Context, string) bool { return probes.Add(1) >= 3 },
		Sleep: func(ctx context.Context, _ time.Duration) bool {
			return ctx.Err() == nil
		},
		Logger: logger.Noop(),
	})
	defer a.Close()

	var mu sync.Mutex
	var statuses []string
	a.Subscribe(func(s snapshot.Snapshot) {
		mu.Lock()
		statuses = append(statuses, s.System.Status)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return a.Reloads() == 1 && a.Online()
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-runDone)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(statuses), 2)
	assert.Equal(t, snapshot.StatusOff, statuses[0])
	assert.Equal(t, snapshot.StatusOn, statuses[len(statuses)-1])
	assert.Equal(t, 1, a.Reloads())
}

func TestAgent_ReloadAfterCloseIsIgnored(t *testing.T) {
	nas := &fakeNAS{}
	a := New(testConfig(t), Options{
		Dial:   nas.dial,
		Probe:  func(context.Context, string) bool { return true },
		Logger: logger.Noop(),
	})

	a.Close()
	a.Reload(context.Background())

	assert.Equal(t, 0, a.Reloads())
	assert.Equal(t, 0, nas.dials())
}

func TestAgent_ActionsPublish(t *testing.T) {
	nas := &fakeNAS{}
	a := New(testConfig(t), Options{
		Dial:   nas.dial,
		Probe:  func(context.Context, string) bool { return true },
		Logger: logger.Noop(),
	})
	defer a.Close()

	a.Refresh(context.Background())
	require.NoError(t, a.Actions().Reboot(context.Background()))

	assert.Equal(t, snapshot.StatusRebooting, a.Current().System.Status)
}

func TestAgent_Interfaces(t *testing.T) {
	nas := &fakeNAS{}
	a := New(testConfig(t), Options{Dial: nas.dial, Logger: logger.Noop()})
	defer a.Close()

	ifaces, err := a.Interfaces(context.Background())
	require.NoError(t, err)
	require.Len(t, ifaces, 1)
	assert.Equal(t, "eth0", ifaces[0].Name)
	assert.Equal(t, "00:11:32:aa:bb:cc", ifaces[0].MAC)
}

func TestAgent_InterfacesDialError(t *testing.T) {
	dialErr := errors.New("connection refused")
	a := New(testConfig(t), Options{
		Dial:   func(context.Context) (sshutil.SSHClient, error) { return nil, dialErr },
		Logger: logger.Noop(),
	})
	defer a.Close()

	_, err := a.Interfaces(context.Background())
	assert.ErrorIs(t, err, dialErr)
}

func TestAgent_Checks(t *testing.T) {
	nas := &fakeNAS{}
	a := New(testConfig(t), Options{
		Dial:   nas.dial,
		Probe:  func(context.Context, string) bool { return true },
		Logger: logger.Noop(),
	})
	defer a.Close()

	results := doctor.RunAll(context.Background(), a.Checks())

	byName := map[string]doctor.CheckResult{}
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.Equal(t, doctor.StatusPass, byName["reachable"].Status)
	assert.Equal(t, doctor.StatusPass, byName["login"].Status)
	assert.Equal(t, "Logged in as root", byName["privilege"].Message)
	// The mock answers no `command -v` lookups.
	assert.Equal(t, doctor.StatusFail, byName["tool_smartctl"].Status)
	assert.Equal(t, doctor.StatusWarn, byName["tool_virsh"].Status)
	assert.NotContains(t, byName, "tool_docker")
}
