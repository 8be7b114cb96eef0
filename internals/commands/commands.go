package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Command is a cobra command that renders returned errors
type Command struct {
	*cobra.Command
	runner Runner
}

// Runner runs a [Command]
type Runner interface {
	RunE(cmd *cobra.Command, args []string) error
}

// New wraps cmd. Errors of run are printed and exit the process with code 1
func New(cmd *cobra.Command, run Runner) *Command {
	cmd.Run = func(cmd *cobra.Command, args []string) {
		if err := run.RunE(cmd, args); err != nil {
			PrintError(cmd.ErrOrStderr(), err)
			os.Exit(1)
		}
	}
	return &Command{cmd, run}
}

// PrintError renders err to w. [CliError]s get their help and suggestions
func PrintError(w io.Writer, err error) {
	var cliErr *CliError
	if !errors.As(err, &cliErr) {
		fmt.Fprintln(w, ErrorBox(err.Error(), ""))
		return
	}
	fmt.Fprintln(w, cliErr.RichError())
	if cliErr.Code != "" {
		fmt.Fprintf(w, "error code: %s\n", cliErr.Code)
	}
	fmt.Fprintln(w)
}
