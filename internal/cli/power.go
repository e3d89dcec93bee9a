package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rileyhilliard/nasmon/internal/errors"
)

// PowerAction is a host power operation.
type PowerAction string

const (
	PowerReboot   PowerAction = "reboot"
	PowerShutdown PowerAction = "shutdown"
)

// powerCommand asks before touching the host unless yes is set. Without a
// terminal there is nobody to ask, so --yes is required.
func powerCommand(ctx context.Context, act PowerAction, yes bool, out io.Writer) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	if !yes {
		if !interactive() {
			return errors.New(errors.ErrAction,
				fmt.Sprintf("Refusing to %s %s without confirmation", act, cfg.Host),
				"Pass --yes to confirm from a script")
		}
		ok, err := confirm(
			fmt.Sprintf("%s %s?", powerTitle(act), cfg.Host),
			"Running VMs and containers go down with it")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	ag := newAgent(cfg)
	defer ag.Close()

	label := fmt.Sprintf("Sending %s to %s", act, cfg.Host)
	return runAction(ctx, out, label, DefaultActionTimeout, func(ctx context.Context) error {
		if act == PowerReboot {
			return ag.Actions().Reboot(ctx)
		}
		return ag.Actions().Shutdown(ctx)
	})
}

func powerTitle(act PowerAction) string {
	if act == PowerReboot {
		return "Reboot"
	}
	return "Shut down"
}
