// Command initiative is an interactive game-master notebook: create NPCs,
// places and regions, keep the ones worth remembering in a journal, and undo
// or redo any change.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"initiative/internal/console"
)

var exitFunc = os.Exit

func main() {
	exitFunc(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	configPath    string
	storageDriver string
	traceFile     string
	logLevel      string
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		var failure console.Failure
		if !errors.As(err, &failure) {
			fmt.Fprintf(stderr, "initiative: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(stdin io.Reader) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "initiative",
		Short:         "Game-master notebook with a persistent journal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()
			return repl(cmd.Context(), a.console, stdin, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.storageDriver, "storage-driver", "", "override storage.driver (memory|null|sqlite|postgres|badger|blob)")
	flags.StringVar(&opts.traceFile, "trace-file", "", "append JSON trace spans to this file")
	flags.StringVar(&opts.logLevel, "log-level", "", "override log.level (debug|info|warn|error)")

	root.AddCommand(newJournalCmd(opts), newExecCmd(opts))
	return root
}

func newJournalCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "journal",
		Short: "Print the saved journal and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommands(cmd, opts, []string{"journal"})
		},
	}
}

func newExecCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "exec COMMAND...",
		Short: "Run each argument as a console command, stopping at the first failure",
		Example: `  initiative exec "npc Odysseus" "save Odysseus" journal
  initiative exec "time +2h"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommands(cmd, opts, args)
		},
	}
}

func runCommands(cmd *cobra.Command, opts *options, lines []string) error {
	a, err := setup(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()
	for _, line := range lines {
		out, err := a.console.Run(cmd.Context(), line)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			return err
		}
		if strings.TrimSpace(out) != "" {
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}
	}
	return nil
}
