package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rickgao/predictors-stream/internal/lifecycle"
	"github.com/rickgao/predictors-stream/internal/model"
	"github.com/rickgao/predictors-stream/internal/subscription"
)

func newChannelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List the channel catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printChannels(cmd.OutOrStdout())
		},
	}
}

func printChannels(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL\tEVENT\tSEQUENCED\tDESCRIPTION")
	for _, kind := range subscription.Kinds() {
		d := kind.Discipline()
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", kind, eventTypeName(kind), d.Sequenced, d.Summary)
	}
	return w.Flush()
}

// eventTypeName names the event type subscribers of kind receive.
func eventTypeName(kind subscription.Kind) string {
	switch kind {
	case subscription.KindOrderbookDeltas:
		return fmt.Sprintf("%T", model.OrderbookUpdate{})
	case subscription.KindTickers:
		return fmt.Sprintf("%T", model.TickerUpdate{})
	case subscription.KindTrades:
		return fmt.Sprintf("%T", model.Trade{})
	case subscription.KindFills:
		return fmt.Sprintf("%T", model.Fill{})
	case subscription.KindMarketLifecycles:
		return fmt.Sprintf("%T", lifecycle.Update{})
	}
	return "?"
}
