package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/rileyhilliard/nasmon/internal/config"
	"github.com/rileyhilliard/nasmon/internal/errors"
	"github.com/rileyhilliard/nasmon/internal/parsers"
	"github.com/rileyhilliard/nasmon/internal/ui"
)

var macColumns = []ui.TableColumn{
	{Title: "INTERFACE", Width: 16},
	{Title: "MAC", Width: 19},
	{Title: "", Width: 10},
}

// macsCommand lists interfaces and optionally stores one MAC in the config.
func macsCommand(ctx context.Context, save bool, out io.Writer) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if save && path == "" {
		return errors.New(errors.ErrConfig,
			"No config file to save into",
			"Run 'nasmon init' first, or pass --config")
	}

	ag := newAgent(cfg)
	defer ag.Close()

	ctx, cancel := context.WithTimeout(ctx, DefaultActionTimeout)
	defer cancel()

	ifaces, err := ag.Interfaces(ctx)
	if err != nil {
		return err
	}
	if len(ifaces) == 0 {
		fmt.Fprintln(out, "No network interfaces reported.")
		return nil
	}

	fmt.Fprintln(out, ui.RenderTable(macColumns, macRows(ifaces, cfg.MAC)))
	if !save {
		return nil
	}

	mac, err := pickMAC(ifaces, cfg.MAC)
	if err != nil {
		return err
	}
	if mac == "" {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}
	if err := config.SetValue(path, "mac", mac); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to save mac",
			"Check that "+path+" is writable")
	}
	fmt.Fprintf(out, "%s Saved mac %s to %s\n", ui.SymbolSuccess, mac, path)
	return nil
}

func macRows(ifaces []parsers.Interface, current string) [][]string {
	rows := make([][]string, 0, len(ifaces))
	for _, i := range ifaces {
		mark := ""
		if current != "" && strings.EqualFold(i.MAC, current) {
			mark = "configured"
		}
		rows = append(rows, []string{i.Name, i.MAC, mark})
	}
	return rows
}

// pickMAC returns the MAC to store. A single interface is chosen without
// asking. An empty result means the user backed out. Tests replace it.
var pickMAC = func(ifaces []parsers.Interface, current string) (string, error) {
	if len(ifaces) == 1 {
		return ifaces[0].MAC, nil
	}

	options := make([]huh.Option[string], len(ifaces))
	selected := ifaces[0].MAC
	for i, iface := range ifaces {
		options[i] = huh.NewOption(fmt.Sprintf("%-12s %s", iface.Name, iface.MAC), iface.MAC)
		if strings.EqualFold(iface.MAC, current) {
			selected = iface.MAC
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which interface identifies the NAS?").
				Description("Pick the one on the network nasmon reaches it through").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Set mac in the config file by hand")
	}
	return selected, nil
}
