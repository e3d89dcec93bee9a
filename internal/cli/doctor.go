package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/nasmon/internal/config"
	"github.com/rileyhilliard/nasmon/internal/doctor"
	"github.com/rileyhilliard/nasmon/internal/ui"
)

const doctorTimeout = 2 * time.Minute

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	Skip     int  `json:"skip"`
	AllClear bool `json:"all_clear"`
}

// doctorCommand implements the doctor command logic. Failures exit non-zero
// after the report is printed.
func doctorCommand(ctx context.Context, asJSON bool, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()

	cfg, path, err := config.LoadOrDefault(configFlag)
	if err == nil {
		err = config.Validate(cfg)
	}

	checks := []doctor.Check{&doctor.ConfigCheck{Path: path, Err: err}}
	if err == nil {
		ag := newAgent(cfg)
		defer ag.Close()
		checks = append(checks, ag.Checks()...)
	}

	results := doctor.RunAll(ctx, checks)

	if asJSON {
		if werr := WriteJSONSuccess(out, doctorOutput(results)); werr != nil {
			return werr
		}
	} else {
		writeDoctorText(out, results)
	}

	if doctor.HasFailures(results) {
		return errReported
	}
	return nil
}

// doctorOutput groups results in report order.
func doctorOutput(results []doctor.CheckResult) DoctorOutput {
	grouped := doctor.GroupByCategory(results)
	output := DoctorOutput{Categories: make([]CategoryOutput, 0, len(doctor.Categories))}
	for _, cat := range doctor.Categories {
		if len(grouped[cat]) == 0 {
			continue
		}
		output.Categories = append(output.Categories, CategoryOutput{Name: cat, Results: grouped[cat]})
	}

	counts := doctor.CountByStatus(results)
	output.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		Skip:     counts[doctor.StatusSkip],
		AllClear: !doctor.HasIssues(results),
	}
	return output
}

func writeDoctorText(out io.Writer, results []doctor.CheckResult) {
	successStyle := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	errorStyle := lipgloss.NewStyle().Foreground(ui.ColorError)
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("nasmon Diagnostic Report"))
	fmt.Fprintln(out)

	grouped := doctor.GroupByCategory(results)
	for _, cat := range doctor.Categories {
		if len(grouped[cat]) == 0 {
			continue
		}
		fmt.Fprintln(out, headerStyle.Render(cat))
		for _, r := range grouped[cat] {
			writeCheckResult(out, r)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, strings.Repeat("━", 60))
	fmt.Fprintln(out)

	symbol := successStyle.Render(ui.SymbolSuccess)
	if doctor.HasIssues(results) {
		symbol = errorStyle.Render(ui.SymbolFail)
	}
	fmt.Fprintf(out, "%s %s\n\n", symbol, doctor.Summary(results))
}

// writeCheckResult renders a single check result.
func writeCheckResult(out io.Writer, r doctor.CheckResult) {
	mutedStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)

	var symbol string
	var style lipgloss.Style
	switch r.Status {
	case doctor.StatusPass:
		symbol, style = ui.SymbolSuccess, lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	case doctor.StatusWarn:
		symbol, style = ui.SymbolWarning, lipgloss.NewStyle().Foreground(ui.ColorWarning)
	case doctor.StatusFail:
		symbol, style = ui.SymbolFail, lipgloss.NewStyle().Foreground(ui.ColorError)
	default:
		symbol, style = ui.SymbolSkipped, mutedStyle
	}

	fmt.Fprintf(out, "  %s %s\n", style.Render(symbol), r.Message)

	if r.Suggestion != "" && r.Status != doctor.StatusPass {
		for _, line := range strings.Split(r.Suggestion, "\n") {
			fmt.Fprintf(out, "    %s\n", mutedStyle.Render(line))
		}
	}
}
