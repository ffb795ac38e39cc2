package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose bool
	logger  *slog.Logger
}

// NewRootCommand builds the predictors command tree.
func NewRootCommand() *cobra.Command {
	ro := &rootOptions{}

	root := &cobra.Command{
		Use:   "predictors",
		Short: "Typed prediction-market streams",
		Long: `predictors classifies market lifecycles and replays recorded stream
events through the router, lifecycle tracker and batch writers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ro.logger = newLogger(cmd.ErrOrStderr(), ro.verbose)
			slog.SetDefault(ro.logger)
		},
	}

	root.PersistentFlags().BoolVarP(&ro.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newClassifyCommand())
	root.AddCommand(newReplayCommand(ro))
	root.AddCommand(newChannelsCommand())
	root.AddCommand(newVersionCommand())

	return root
}

// newLogger builds the text logger used by every command.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
