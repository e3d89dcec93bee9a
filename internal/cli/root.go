package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/nasmon/internal/agent"
	"github.com/rileyhilliard/nasmon/internal/config"
	"github.com/rileyhilliard/nasmon/internal/errors"
	"github.com/rileyhilliard/nasmon/internal/ui"
	"github.com/rileyhilliard/nasmon/internal/util"
)

// Global flags
var (
	configFlag  string
	noColorFlag bool
)

// newAgent builds the agent for a loaded config. Tests swap it for one with
// a scripted SSH dialer.
var newAgent = func(cfg *config.Config) *agent.Agent {
	return agent.New(cfg, agent.Options{})
}

var rootCmd = &cobra.Command{
	Use:   "nasmon",
	Short: "Monitor and control a NAS over SSH",
	Long: `nasmon polls a Linux NAS over SSH and reports disks, temperatures,
memory, volumes, ZFS pools, virtual machines, containers and the UPS.

It can also reboot or shut the NAS down, start and stop VMs and containers,
and kick off pool scrubs.

Get started:
  nasmon init      - Create a config file
  nasmon status    - Print one snapshot
  nasmon watch     - Live dashboard
  nasmon serve     - Prometheus metrics endpoint`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag || os.Getenv("NO_COLOR") != "" || !ui.IsTerminal(os.Stdout) {
			ui.DisableColors()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default ./nasmon.yaml or ~/.config/nasmon/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		writeError(os.Stderr, err)
		os.Exit(1)
	}
}

// writeError prints err the way users see every nasmon failure.
func writeError(w io.Writer, err error) {
	if stderrors.Is(err, errReported) {
		return
	}
	if isUnknownCommandError(err) {
		if name := extractUnknownCommand(err); name != "" {
			if matches := util.SuggestSimilar(name, commandNames(), 2); len(matches) > 0 {
				err = errors.New(errors.ErrConfig,
					fmt.Sprintf("Unknown command %q", name),
					"Did you mean: "+strings.Join(matches, ", ")+"?")
			}
		}
	}

	msg := err.Error()
	if !strings.HasPrefix(msg, "✗") {
		msg = "✗ " + msg + "\n"
	}
	fmt.Fprint(w, msg)
}

func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

var unknownCommandRe = regexp.MustCompile(`unknown command "([^"]+)"`)

func extractUnknownCommand(err error) string {
	m := unknownCommandRe.FindStringSubmatch(err.Error())
	if m == nil {
		return ""
	}
	return m[1]
}

func commandNames() []string {
	var names []string
	for _, c := range rootCmd.Commands() {
		if !c.Hidden {
			names = append(names, c.Name())
		}
	}
	return names
}

// loadConfig finds, loads and validates the config. It returns the path the
// config came from, or "" when it was built from defaults and environment.
func loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
