package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rileyhilliard/nasmon/internal/errors"
)

// GuestKind selects which control command a guest action goes through.
type GuestKind int

const (
	GuestVM GuestKind = iota
	GuestContainer
)

func (k GuestKind) tool() string {
	if k == GuestVM {
		return "virsh"
	}
	return "docker"
}

// guestCommand runs one VM or container action and reports whether the
// host accepted it.
func guestCommand(ctx context.Context, kind GuestKind, name, act string, timeout time.Duration, out io.Writer) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ag := newAgent(cfg)
	defer ag.Close()

	label := fmt.Sprintf("%s %s %s", kind.tool(), act, name)
	return runAction(ctx, out, label, timeout, func(ctx context.Context) error {
		exec := ag.Actions()

		var ok bool
		var err error
		if kind == GuestVM {
			ok, err = exec.ControlVM(ctx, name, act)
		} else {
			ok, err = exec.ControlContainer(ctx, name, act)
		}
		if err != nil {
			return err
		}
		if !ok {
			return errors.New(errors.ErrAction,
				fmt.Sprintf("%s refused to %s %q", cfg.Host, act, name),
				"Check the name with 'nasmon status' and run with NASMON_DEBUG=1 to see the command output")
		}
		return nil
	})
}

// scrubCommand starts a scrub on pool.
func scrubCommand(ctx context.Context, pool string, timeout time.Duration, out io.Writer) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ag := newAgent(cfg)
	defer ag.Close()

	label := fmt.Sprintf("zpool scrub %s", pool)
	return runAction(ctx, out, label, timeout, func(ctx context.Context) error {
		if !ag.Actions().ScrubPool(ctx, pool) {
			return errors.New(errors.ErrAction,
				fmt.Sprintf("Couldn't start a scrub on %q", pool),
				"Check the pool name with 'zpool list' and that no scrub is already running")
		}
		return nil
	})
}
