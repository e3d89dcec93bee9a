package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/rileyhilliard/nasmon/internal/config"
	"github.com/rileyhilliard/nasmon/internal/errors"
	"github.com/rileyhilliard/nasmon/internal/parsers"
	"github.com/rileyhilliard/nasmon/internal/ui"
	"github.com/rileyhilliard/nasmon/pkg/sshutil"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Host      string // Pre-specified NAS host or SSH alias
	Global    bool   // Write the global config instead of ./nasmon.yaml
	Overwrite bool   // Overwrite existing config without asking
}

// initAnswers is what the init prompts collect.
type initAnswers struct {
	Host         string
	Username     string
	Password     string
	SSHKey       string
	EnableDocker bool
}

// manualHost is the select value for typing a host by hand.
const manualHost = "\x00manual"

const connectTimeout = 20 * time.Second

// initConfigPath returns where init writes.
func initConfigPath(global bool) string {
	if global {
		return config.GlobalPath()
	}
	return filepath.Join(".", config.ConfigFileName)
}

// initCommand walks through creating a config file: prompts, a connection
// test that also lists MAC addresses, then the write.
func initCommand(ctx context.Context, opts InitOptions) error {
	path := initConfigPath(opts.Global)
	if path == "" {
		return errors.New(errors.ErrConfig,
			"Couldn't work out your home directory",
			"Run init without --global, or set HOME")
	}

	if !interactive() {
		return errors.New(errors.ErrConfig,
			"init needs an interactive terminal",
			"Copy nasmon.yaml from the README and edit it by hand")
	}

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		overwrite, err := confirm(
			fmt.Sprintf("Config file '%s' already exists. Overwrite?", path),
			"The current settings are replaced")
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	hosts, _ := sshutil.ParseSSHConfig()
	answers, err := promptInit(opts.Host, hosts)
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Host = strings.TrimSpace(answers.Host)
	cfg.Username = strings.TrimSpace(answers.Username)
	cfg.Password = answers.Password
	cfg.SSHKey = config.ExpandTilde(strings.TrimSpace(answers.SSHKey))
	cfg.EnableDocker = answers.EnableDocker
	if err := config.Validate(cfg); err != nil {
		return err
	}

	fmt.Println()
	ifaces, connErr := testConnection(ctx, cfg)
	if connErr != nil {
		fmt.Printf("\n%s Connection to '%s' failed: %v\n\n", ui.SymbolFail, cfg.Host, connErr)
		saveAnyway, err := confirm("Save config anyway?", "You can fix the connection later and run 'nasmon macs --save'")
		if err != nil || !saveAnyway {
			return errors.WrapWithCode(connErr, errors.ErrSSH,
				fmt.Sprintf("Connection to '%s' failed", cfg.Host),
				"Check that the NAS is reachable: ssh "+cfg.Host)
		}
	}

	if len(ifaces) > 0 {
		mac, err := pickMAC(ifaces, "")
		if err != nil {
			return err
		}
		cfg.MAC = mac
	}

	if err := config.Write(path, cfg); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write config file",
			"Check that you have write permission for "+filepath.Dir(path))
	}

	fmt.Printf("%s Created %s\n\n", ui.SymbolSuccess, path)
	fmt.Println("Next steps:")
	fmt.Println("  nasmon status    Print one snapshot")
	fmt.Println("  nasmon watch     Live dashboard")
	return nil
}

// testConnection dials the NAS once and lists its interfaces.
func testConnection(ctx context.Context, cfg *config.Config) ([]parsers.Interface, error) {
	ag := newAgent(cfg)
	defer ag.Close()

	var ifaces []parsers.Interface
	err := runAction(ctx, os.Stdout, "Testing connection to "+cfg.Host, connectTimeout, func(ctx context.Context) error {
		var err error
		ifaces, err = ag.Interfaces(ctx)
		return err
	})
	return ifaces, err
}

// promptInit asks for connection details. Tests replace it.
var promptInit = func(presetHost string, hosts []sshutil.SSHHostEntry) (initAnswers, error) {
	a := initAnswers{Host: presetHost, Username: "root"}

	hostChoice := manualHost
	var groups []*huh.Group
	if presetHost == "" && len(hosts) > 0 {
		options := make([]huh.Option[string], 0, len(hosts)+1)
		for _, h := range hosts {
			options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", h.Alias, h.Description()), h.Alias))
		}
		options = append(options, huh.NewOption("Enter a host by hand", manualHost))
		hostChoice = hosts[0].Alias

		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which host is the NAS?").
				Description("Hosts from ~/.ssh/config").
				Options(options...).
				Value(&hostChoice),
		))
	}

	groups = append(groups,
		huh.NewGroup(
			huh.NewInput().
				Title("NAS host").
				Description("Address or SSH config alias").
				Placeholder("nas.local or 192.168.1.10").
				Value(&a.Host).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("host is required")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return presetHost != "" || hostChoice != manualHost }),
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&a.Username),
			huh.NewInput().
				Title("Password").
				Description("Also used for sudo. Leave empty to rely on a key or ssh-agent").
				EchoMode(huh.EchoModePassword).
				Value(&a.Password),
			huh.NewInput().
				Title("SSH key (optional)").
				Placeholder("~/.ssh/id_ed25519").
				Value(&a.SSHKey),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Monitor docker containers?").
				Value(&a.EnableDocker),
		),
	)

	if err := huh.NewForm(groups...).Run(); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return a, errors.New(errors.ErrConfig, "Cancelled", "")
		}
		return a, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or write nasmon.yaml by hand")
	}

	if presetHost == "" && hostChoice != manualHost {
		a.Host = hostChoice
	}
	return a, nil
}
