package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgao/predictors-stream/internal/lifecycle"
)

type classifyOptions struct {
	file     string
	now      string
	validate bool
}

func newClassifyCommand() *cobra.Command {
	opts := &classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify lifecycle snapshots",
		Long: `Classify each lifecycle snapshot in a YAML file and print one update per
line as "market<TAB>state | status_ts | update_ts".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "YAML file with a list of snapshots (required)")
	cmd.Flags().StringVar(&opts.now, "now", "", "Classification time, RFC 3339 (default: current time)")
	cmd.Flags().BoolVar(&opts.validate, "validate", false, "Report and skip inconsistent snapshots")
	cmd.MarkFlagRequired("file")

	return cmd
}

func runClassify(out, errOut io.Writer, opts *classifyOptions) error {
	entries, err := loadSnapshots(opts.file)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if opts.now != "" {
		now, err = time.Parse(time.RFC3339, opts.now)
		if err != nil {
			return fmt.Errorf("parse --now: %w", err)
		}
	}

	invalid := 0
	for _, e := range entries {
		id := e.market().ID()

		if opts.validate {
			if err := e.Snapshot.Validate(); err != nil {
				fmt.Fprintf(errOut, "%s: invalid: %s\n", id, strings.ReplaceAll(err.Error(), "\n", "; "))
				invalid++
				continue
			}
		}

		fmt.Fprintf(out, "%s\t%s\n", id, lifecycle.Classify(e.Snapshot, now))
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d snapshots invalid", invalid, len(entries))
	}
	return nil
}
