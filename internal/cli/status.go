package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/nasmon/internal/errors"
	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/internal/ui"
)

// Output formats for status.
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
	FormatJSON  = "json"
)

// DefaultStatusTimeout bounds a one-shot poll. A full poll of a busy NAS
// with many disks can take a while.
const DefaultStatusTimeout = 2 * time.Minute

// StatusOptions holds options for the status command.
type StatusOptions struct {
	Format  string
	Timeout time.Duration
}

// statusCommand polls once and writes the snapshot in the chosen format.
// An unreachable NAS still prints the offline snapshot, then fails so
// scripts see a non-zero exit.
func statusCommand(ctx context.Context, opts StatusOptions, out io.Writer) error {
	if err := validateFormat(opts.Format); err != nil {
		return err
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return reportError(out, opts.Format, err)
	}

	ag := newAgent(cfg)
	defer ag.Close()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	snap := ag.Refresh(ctx)
	if !ag.Online() {
		offline := offlineError(cfg.Host)
		if opts.Format == FormatJSON {
			// The offline snapshot rides along with the error.
			env := JSONEnvelope{Success: false, Data: snap, Error: ErrorToJSON(offline)}
			if err := writeJSONEnvelope(out, env); err != nil {
				return err
			}
			return errReported
		}
		if err := writeSnapshot(out, opts.Format, cfg.Host, snap); err != nil {
			return err
		}
		return offline
	}

	return writeSnapshot(out, opts.Format, cfg.Host, snap)
}

func validateFormat(format string) error {
	switch format {
	case FormatTable, FormatYAML, FormatJSON:
		return nil
	}
	return errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown output format %q", format),
		"Use one of: table, yaml, json")
}

// writeSnapshot renders snap for humans or encodes it for machines.
func writeSnapshot(out io.Writer, format, host string, snap snapshot.Snapshot) error {
	switch format {
	case FormatJSON:
		return WriteJSONSuccess(out, snap)
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return errors.WrapWithCode(err, errors.ErrExec,
				"Failed to encode snapshot",
				"Try --format json instead")
		}
		return enc.Close()
	default:
		_, err := fmt.Fprint(out, ui.RenderSnapshot(host, snap))
		return err
	}
}

func offlineError(host string) error {
	return errors.New(errors.ErrSSH,
		fmt.Sprintf("NAS %s is offline", host),
		"Check that it is powered on and reachable, then try again")
}
