package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/assetcli/internal/bridge"
	"github.com/Mohsinsiddi/assetcli/internal/contract"
	"github.com/Mohsinsiddi/assetcli/internal/feed"
	"github.com/Mohsinsiddi/assetcli/internal/ui"
)

// defaultEventSpan is how far back events looks without --from.
const defaultEventSpan = 1000

var (
	eventsFrom   uint64
	eventsTo     uint64
	eventsCount  int
	eventsFollow bool
	eventsNames  []string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List and follow the contract's token events",
	Long: `Fetch and decode the contract's events.

By default queries the last 1000 blocks for TokenCreated, TokenActivated,
TokenPurchased, RedemptionRequested and TokenBurned. --follow keeps
polling for new blocks until interrupted.

Examples:
  assetcli events
  assetcli events --from 5000000 --to 5001000 --event TokenPurchased
  assetcli events --count 5 --follow`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := eventsNames
		if len(names) == 0 {
			names = contract.DefaultEvents
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		sess, err := connect(ctx, "", true)
		if err != nil {
			return err
		}
		defer sess.Close()

		to := eventsTo
		if to == 0 {
			if to, err = sess.Client.BlockNumber(ctx); err != nil {
				return fmt.Errorf("getting block number: %w", err)
			}
		}
		from := eventsFrom
		if !cmd.Flags().Changed("from") {
			from = defaultFrom(to, defaultEventSpan)
		}

		br := bridge.New(sess.Client, sess.Handle, cfg.EventPollDuration(), logger)
		spin := ui.NewSpinner(fmt.Sprintf("Fetching events %d → %d...", from, to))
		spin.Start()
		recs, err := br.Query(ctx, names, from, to)
		spin.Stop()
		if err != nil {
			return fmt.Errorf("querying events: %w", err)
		}

		total := len(recs)
		recs = lastN(recs, eventsCount)
		fmt.Println(ui.KeyValueBlock("Events · "+sess.Network.String(), [][2]string{
			{"Contract", sess.Handle.Address().Hex()},
			{"Found", fmt.Sprintf("%d events (showing %d)", total, len(recs))},
			{"Block Range", fmt.Sprintf("%d → %d", from, to)},
		}))
		for _, r := range recs {
			fmt.Println(formatEvent(r))
		}
		if !eventsFollow {
			return nil
		}

		fmt.Println(ui.Meta("Following new events, Ctrl+C to stop..."))
		return br.Subscribe(ctx, names, func(r feed.EventRecord) {
			fmt.Println(formatEvent(r))
		})
	},
}

// defaultFrom returns the block span blocks before head, floored at zero.
func defaultFrom(head, span uint64) uint64 {
	if head < span {
		return 0
	}
	return head - span
}

// lastN keeps the newest n records; n <= 0 keeps all.
func lastN(recs []feed.EventRecord, n int) []feed.EventRecord {
	if n <= 0 || len(recs) <= n {
		return recs
	}
	return recs[len(recs)-n:]
}

func formatEvent(r feed.EventRecord) string {
	return fmt.Sprintf("  %s  %s  %s  %s",
		ui.Meta(fmt.Sprintf("#%d", r.Block)),
		ui.ChainName(r.EventName),
		ui.Val(strings.Join(r.Args, ", ")),
		ui.Addr(feed.ShortHash(r.TxHash)),
	)
}

func init() {
	eventsCmd.Flags().Uint64Var(&eventsFrom, "from", 0, "first block (default: 1000 blocks before --to)")
	eventsCmd.Flags().Uint64Var(&eventsTo, "to", 0, "last block (default: head)")
	eventsCmd.Flags().IntVarP(&eventsCount, "count", "n", 20, "show at most this many past events (0 = all)")
	eventsCmd.Flags().BoolVarP(&eventsFollow, "follow", "f", false, "keep streaming new events")
	eventsCmd.Flags().StringSliceVarP(&eventsNames, "event", "e", nil, "event names to include (default: all token events)")
}
