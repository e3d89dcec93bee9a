package cli

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/rileyhilliard/nasmon/internal/errors"
	"github.com/rileyhilliard/nasmon/internal/ui"
)

// DefaultActionTimeout bounds a single control command.
const DefaultActionTimeout = 30 * time.Second

// errReported marks a failure that has already been written to the output,
// such as a JSON error envelope. Execute exits non-zero without printing it
// again.
var errReported = stderrors.New("already reported")

// reportError writes err as a JSON envelope in JSON mode. Other formats
// leave printing to Execute.
func reportError(out io.Writer, format string, err error) error {
	if format != FormatJSON {
		return err
	}
	if werr := WriteJSONFromError(out, err); werr != nil {
		return werr
	}
	return errReported
}

// isTTY reports whether w is a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && ui.IsTerminal(f)
}

// runAction runs fn under a spinner labelled label with its own timeout.
func runAction(ctx context.Context, out io.Writer, label string, timeout time.Duration, fn func(context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sp := ui.NewSpinner(out, label, isTTY(out))
	sp.Start()
	if err := fn(ctx); err != nil {
		sp.Fail("")
		return err
	}
	sp.Success()
	return nil
}

// confirm asks a yes/no question. Tests replace it.
var confirm = func(title, description string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Pass --yes to skip the prompt")
	}
	return ok, nil
}

// interactive reports whether prompts can be shown. Tests replace it.
var interactive = func() bool {
	return ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stdout)
}
