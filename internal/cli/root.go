// Package cli provides the command-line interface for content_ranker.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/helheim/content_ranker/internal/app"
	"github.com/helheim/content_ranker/internal/domain"
)

// Version is set at build time.
var Version = "0.1.0"

type flags struct {
	root    string
	verbose bool
}

// runFunc executes a ranking run and returns the process exit code.
type runFunc func(app.Options) int

// NewRootCmd builds the command tree. run is called once per invocation with the
// resolved options.
func NewRootCmd(run runFunc, stdout io.Writer) *cobra.Command {
	var f flags

	execute := func(kinds ...domain.Kind) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			code := run(app.Options{
				Root:    f.root,
				Kinds:   kinds,
				Verbose: f.verbose,
				Stdout:  stdout,
			})
			if code != 0 {
				return app.Exit(code)
			}
			return nil
		}
	}

	rootCmd := &cobra.Command{
		Use:   "content_ranker",
		Short: "Rank game items and mobs by weighted attributes",
		Long: `content_ranker reads item lore and mob definitions, scores every entity
against a self-extending weight table and reports the mean score per level
together with the percent change between consecutive levels.

Without a subcommand both items and mobs are ranked.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          execute(),
	}
	rootCmd.PersistentFlags().StringVar(&f.root, "root", "", "app root (default: nearest dir with ranker_config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "items",
		Short: "Rank items",
		Args:  cobra.NoArgs,
		RunE:  execute(domain.KindItem),
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "mobs",
		Short: "Rank mobs",
		Args:  cobra.NoArgs,
		RunE:  execute(domain.KindMob),
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Rank items and mobs",
		Args:  cobra.NoArgs,
		RunE:  execute(),
	})
	return rootCmd
}

// Execute runs the CLI against os.Args and returns the process exit code.
func Execute() int {
	return ExecuteArgs(os.Args[1:], app.RunWithOptions, os.Stdout, os.Stderr)
}

func ExecuteArgs(args []string, run runFunc, stdout, stderr io.Writer) int {
	cmd := NewRootCmd(run, stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return 0
	}
	if ee, ok := app.AsExitError(err); ok {
		return ee.Code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 2
}
