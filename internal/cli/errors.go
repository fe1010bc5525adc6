package cli

import (
	stderrors "errors"

	"github.com/spf13/cobra"

	wcerrors "github.com/mrz1836/wipecert/internal/errors"
	"github.com/mrz1836/wipecert/internal/tui"
)

// runFunc is the signature of a command body.
type runFunc func(cmd *cobra.Command, args []string) error

// withErrorOutput renders a failing command's error in the selected output
// format and silences cobra's own error printing. JSON errors go to stdout
// so scripts can parse them; text errors go to stderr with a suggestion.
// The error is still returned so the process exits non-zero.
func withErrorOutput(flags *GlobalFlags, fn runFunc) runFunc {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		cmd.SilenceErrors = true
		if stderrors.Is(err, wcerrors.ErrJSONErrorOutput) {
			return err
		}

		if flags.Output == OutputJSON {
			tui.NewJSONOutput(cmd.OutOrStdout()).Error(err)
		} else {
			tui.NewTTYOutput(cmd.ErrOrStderr()).Error(tui.AsActionable(err))
		}
		return err
	}
}
