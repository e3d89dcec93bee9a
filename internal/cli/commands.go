package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/nasmon/internal/action"
	"github.com/rileyhilliard/nasmon/internal/errors"
)

// Command-specific flags
var (
	statusFormatFlag  string
	statusTimeoutFlag time.Duration
	serveAddrFlag     string
	powerYesFlag      bool
	guestTimeoutFlag  time.Duration
	macsSaveFlag      bool
	initHostFlag      string
	initGlobalFlag    bool
	initForceFlag     bool
	doctorJSONFlag    bool
)

// statusCmd prints one snapshot
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Poll the NAS once and print what it reports",
	Long: `Connect to the NAS, run one full poll and print the snapshot.

Output formats:
  table  Human-readable sections (default)
  yaml   The snapshot as YAML
  json   The snapshot wrapped in a {"success", "data", "error"} envelope

Examples:
  nasmon status
  nasmon status --format json
  nasmon status --timeout 10s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusCommand(cmd.Context(), StatusOptions{
			Format:  statusFormatFlag,
			Timeout: statusTimeoutFlag,
		}, cmd.OutOrStdout())
	},
}

// watchCmd starts the dashboard
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard for the NAS",
	Long: `Start an interactive dashboard that follows the NAS as it is polled.

Keyboard shortcuts:
  q / Ctrl+C       Quit
  r                Poll now
  tab / shift+tab  Next / previous section
  1-4              Jump to section
  up/k, down/j     Scroll
  ?                Show help

Examples:
  nasmon watch
  nasmon watch --config ~/nas/nasmon.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCommand(cmd.Context())
	},
}

// serveCmd runs the poller and exposes metrics
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll continuously and serve Prometheus metrics",
	Long: `Run the poller in the foreground and expose the readings over HTTP.

Endpoints:
  /metrics   Prometheus text format
  /snapshot  Latest snapshot as JSON
  /healthz   200 while the NAS answers, 503 otherwise

Examples:
  nasmon serve
  nasmon serve --addr 127.0.0.1:9877`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCommand(cmd.Context(), serveAddrFlag, cmd.OutOrStdout())
	},
}

// rebootCmd reboots the NAS
var rebootCmd = &cobra.Command{
	Use:   "reboot",
	Short: "Reboot the NAS",
	Long: `Ask the NAS to reboot.

The SSH session usually drops before any output arrives, so success only
means the command was sent.

Examples:
  nasmon reboot
  nasmon reboot --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return powerCommand(cmd.Context(), PowerReboot, powerYesFlag, cmd.OutOrStdout())
	},
}

// shutdownCmd powers the NAS off
var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Power the NAS off",
	Long: `Run "shutdown -h now" on the NAS.

Examples:
  nasmon shutdown
  nasmon shutdown --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return powerCommand(cmd.Context(), PowerShutdown, powerYesFlag, cmd.OutOrStdout())
	},
}

// vmCmd controls a libvirt guest
var vmCmd = &cobra.Command{
	Use:   "vm <name> <action>",
	Short: "Start, stop or restart a virtual machine",
	Long: `Run a virsh action against a virtual machine on the NAS.

Actions: destroy, reboot, shutdown, start

Examples:
  nasmon vm homeassistant start
  nasmon vm homeassistant shutdown`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: guestCompletion(GuestVM),
	RunE: func(cmd *cobra.Command, args []string) error {
		return guestCommand(cmd.Context(), GuestVM, args[0], args[1], guestTimeoutFlag, cmd.OutOrStdout())
	},
}

// containerCmd controls a docker container
var containerCmd = &cobra.Command{
	Use:   "container <name> <action>",
	Short: "Start, stop or restart a container",
	Long: `Run a docker action against a container on the NAS.

Actions: pause, restart, start, stop, unpause

Examples:
  nasmon container plex restart
  nasmon container plex stop`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: guestCompletion(GuestContainer),
	RunE: func(cmd *cobra.Command, args []string) error {
		return guestCommand(cmd.Context(), GuestContainer, args[0], args[1], guestTimeoutFlag, cmd.OutOrStdout())
	},
}

// scrubCmd starts a ZFS scrub
var scrubCmd = &cobra.Command{
	Use:   "scrub <pool>",
	Short: "Start a scrub on a ZFS pool",
	Long: `Run "zpool scrub" on the named pool. Progress shows up in status,
watch and the metrics once the next poll runs.

Examples:
  nasmon scrub tank`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return scrubCommand(cmd.Context(), args[0], guestTimeoutFlag, cmd.OutOrStdout())
	},
}

// macsCmd lists network interfaces
var macsCmd = &cobra.Command{
	Use:   "macs",
	Short: "List the NAS network interfaces and MAC addresses",
	Long: `Connect to the NAS and list each non-loopback interface with its MAC.

With --save, pick one and store it as "mac" in the config file.

Examples:
  nasmon macs
  nasmon macs --save`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return macsCommand(cmd.Context(), macsSaveFlag, cmd.OutOrStdout())
	},
}

// doctorCmd diagnoses the setup
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose config, SSH access and the tools on the NAS",
	Long: `Run diagnostics against the configured NAS.

Checks the config, whether the host answers the liveness probe, the SSH
login and its sudo privilege, and each remote tool the readings depend on.
A failed config, probe or login skips the checks after it.

Examples:
  nasmon doctor
  nasmon doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.Context(), doctorJSONFlag, cmd.OutOrStdout())
	},
}

// initCmd creates a config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a nasmon.yaml config",
	Long: `Create a config file with interactive prompts.

Offers hosts from ~/.ssh/config, asks for credentials, tests the
connection and lets you pick the NAS MAC address.

Writes ./nasmon.yaml, or ~/.config/nasmon/config.yaml with --global.

Examples:
  nasmon init
  nasmon init --host nas.local
  nasmon init --global --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(cmd.Context(), InitOptions{
			Host:      initHostFlag,
			Global:    initGlobalFlag,
			Overwrite: initForceFlag,
		})
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for nasmon.

Examples:
  # Bash
  nasmon completion bash > /etc/bash_completion.d/nasmon

  # Zsh
  nasmon completion zsh > "${fpath[1]}/_nasmon"

  # Fish
  nasmon completion fish > ~/.config/fish/completions/nasmon.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return errors.New(errors.ErrConfig,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

// guestCompletion completes the action argument once a name is given.
func guestCompletion(kind GuestKind) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) != 1 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		vm, container := action.Actions()
		if kind == GuestVM {
			return vm, cobra.ShellCompDirectiveNoFileComp
		}
		return container, cobra.ShellCompDirectiveNoFileComp
	}
}

func init() {
	// status command flags
	statusCmd.Flags().StringVarP(&statusFormatFlag, "format", "o", FormatTable, "output format: table, yaml or json")
	statusCmd.Flags().DurationVar(&statusTimeoutFlag, "timeout", DefaultStatusTimeout, "give up on the poll after this long")

	// serve command flags
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "listen address (default metrics_addr from config)")

	// power command flags
	rebootCmd.Flags().BoolVarP(&powerYesFlag, "yes", "y", false, "skip the confirmation prompt")
	shutdownCmd.Flags().BoolVarP(&powerYesFlag, "yes", "y", false, "skip the confirmation prompt")

	// control command flags
	for _, c := range []*cobra.Command{vmCmd, containerCmd, scrubCmd} {
		c.Flags().DurationVar(&guestTimeoutFlag, "timeout", DefaultActionTimeout, "give up on the command after this long")
	}

	// macs command flags
	macsCmd.Flags().BoolVar(&macsSaveFlag, "save", false, "pick an interface and store its MAC in the config")

	// init command flags
	doctorCmd.Flags().BoolVar(&doctorJSONFlag, "json", false, "output in JSON format")

	initCmd.Flags().StringVar(&initHostFlag, "host", "", "pre-specify the NAS host or SSH alias")
	initCmd.Flags().BoolVar(&initGlobalFlag, "global", false, "write ~/.config/nasmon/config.yaml")
	initCmd.Flags().BoolVarP(&initForceFlag, "force", "f", false, "overwrite an existing config")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(shutdownCmd)
	rootCmd.AddCommand(vmCmd)
	rootCmd.AddCommand(containerCmd)
	rootCmd.AddCommand(scrubCmd)
	rootCmd.AddCommand(macsCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
}
