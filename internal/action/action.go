// Package action sends one-shot control commands to the NAS: host power,
// VM and container lifecycle, and pool scrubs. Each successful command is
// reflected immediately in the published snapshot.
package action

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rileyhilliard/nasmon/internal/errors"
	"github.com/rileyhilliard/nasmon/internal/extract"
	"github.com/rileyhilliard/nasmon/internal/logger"
	"github.com/rileyhilliard/nasmon/internal/parsers"
	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/internal/util"
)

// ErrInvalidAction is returned for an action outside the allowed set. No
// remote command is sent. Match with errors.Is.
var ErrInvalidAction = errors.New(errors.ErrAction, "Unknown action", "")

// VM actions and the state a VM record takes right after each one is sent.
var vmTransitions = map[string]string{
	"start":    snapshot.VMRunning,
	"shutdown": snapshot.VMShutOff,
	"reboot":   snapshot.VMRebooting,
	"destroy":  snapshot.VMDestroying,
}

// Container actions and the status a container record takes right after
// each one is sent.
var containerTransitions = map[string]string{
	"start":   "running",
	"stop":    "exited",
	"restart": "restarting",
	"pause":   "paused",
	"unpause": "running",
}

// Channel runs commands and reports whether a connection can be made at all.
// *pool.Pool satisfies it.
type Channel interface {
	extract.Runner
	Prime(ctx context.Context) error
}

// Publisher applies a change to the published snapshot. *orchestrator.Orchestrator
// satisfies it.
type Publisher interface {
	Mutate(fn func(*snapshot.Snapshot))
}

// Executor sends control commands.
type Executor struct {
	ch  Channel
	pub Publisher
	log logger.Logger
}

// New creates an Executor. pub may be nil when nothing needs to observe the
// optimistic state changes.
func New(ch Channel, pub Publisher, log logger.Logger) *Executor {
	return &Executor{ch: ch, pub: pub, log: logger.OrNoop(log)}
}

// Actions returns the allowed VM and container action names, sorted.
func Actions() (vm, container []string) {
	for a := range vmTransitions {
		vm = append(vm, a)
	}
	for a := range containerTransitions {
		container = append(container, a)
	}
	slices.Sort(vm)
	slices.Sort(container)
	return vm, container
}

// Reboot asks the host to reboot and marks it rebooting. The connection
// usually drops before any output arrives, so only the ability to connect is
// checked.
func (e *Executor) Reboot(ctx context.Context) error {
	return e.power(ctx, "reboot", snapshot.StatusRebooting)
}

// Shutdown powers the host off and marks it off.
func (e *Executor) Shutdown(ctx context.Context) error {
	return e.power(ctx, "shutdown -h now", snapshot.StatusOff)
}

func (e *Executor) power(ctx context.Context, command, status string) error {
	if err := e.ch.Prime(ctx); err != nil {
		return errors.WrapWithCode(err, errors.ErrAction,
			fmt.Sprintf("Couldn't send %q", command),
			"Check that the NAS is reachable over SSH")
	}

	e.log.Info("sending %s", command)
	e.ch.Run(ctx, command, 0)

	e.mutate(func(s *snapshot.Snapshot) {
		s.System.Status = status
	})
	return nil
}

// ControlVM runs `virsh <action> <name>`. The bool reports whether the
// hypervisor accepted the command.
func (e *Executor) ControlVM(ctx context.Context, name, action string) (bool, error) {
	state, ok := vmTransitions[action]
	if !ok {
		vm, _ := Actions()
		return false, invalidAction(action, vm)
	}

	out := e.ch.Run(ctx, fmt.Sprintf("virsh %s %s 2>&1", action, util.QuoteIfNeeded(name)), 0)
	if !Succeeded(out) {
		e.log.Error("virsh %s %s failed: %s", action, name, out)
		return false, nil
	}

	e.log.Info("virsh %s %s: %s", action, name, out)
	e.mutate(func(s *snapshot.Snapshot) {
		for i := range s.VMs {
			if s.VMs[i].Name == name {
				s.VMs[i].State = state
			}
		}
	})
	return true, nil
}

// ControlContainer runs `docker <action> <name>`.
func (e *Executor) ControlContainer(ctx context.Context, name, action string) (bool, error) {
	status, ok := containerTransitions[action]
	if !ok {
		_, container := Actions()
		return false, invalidAction(action, container)
	}

	out := e.ch.Run(ctx, fmt.Sprintf("docker %s %s 2>&1", action, util.QuoteIfNeeded(name)), 0)
	if !Succeeded(out) {
		e.log.Error("docker %s %s failed: %s", action, name, out)
		return false, nil
	}

	e.mutate(func(s *snapshot.Snapshot) {
		for i := range s.Containers {
			if s.Containers[i].Name == name {
				s.Containers[i].Status = status
			}
		}
	})
	return true, nil
}

// ScrubPool starts a scrub on the named pool. zpool prints nothing on
// success, so a marker is echoed after it.
func (e *Executor) ScrubPool(ctx context.Context, name string) bool {
	out := e.ch.Run(ctx, fmt.Sprintf("zpool scrub %s 2>&1 && echo 'scrub started'", util.QuoteIfNeeded(name)), 0)
	if !Succeeded(out) {
		e.log.Error("zpool scrub %s failed: %s", name, out)
		return false
	}

	e.mutate(func(s *snapshot.Snapshot) {
		if _, known := s.Scrub[name]; known {
			s.Scrub[name] = snapshot.ScrubStatus{State: parsers.ScrubInProgress, InProgress: true}
		}
	})
	return true
}

// Succeeded applies the output rule shared by every control command: some
// output arrived and it doesn't open with "cannot" or "error". Stderr is
// folded into stdout by the callers so failures are visible here.
func Succeeded(out string) bool {
	out = strings.ToLower(strings.TrimSpace(out))
	if out == "" {
		return false
	}
	return !strings.HasPrefix(out, "cannot") && !strings.HasPrefix(out, "error")
}

func (e *Executor) mutate(fn func(*snapshot.Snapshot)) {
	if e.pub != nil {
		e.pub.Mutate(fn)
	}
}

func invalidAction(action string, valid []string) error {
	return errors.WrapWithCode(ErrInvalidAction, errors.ErrAction,
		fmt.Sprintf("%s: %q", ErrInvalidAction.Message, action),
		"Use one of: "+strings.Join(valid, ", "))
}
