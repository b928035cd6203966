package cmd

import (
	"fmt"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"

	"github.com/openalpha/clobcore/slab"
)

func newDumpBookCmd(logger log.Logger) *cobra.Command {
	c := &cobra.Command{
		Use:   "dump-book",
		Short: "print both sides of the demo market, best price first",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			m, _, _, _, _, ok, err := openMarket(dataDir, logger)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no market found in %s; run create-market first", dataDir)
			}

			out := cmd.OutOrStdout()
			bestBid, bestAsk, spreadOK := m.Book.GetSpread()
			if spreadOK {
				fmt.Fprintf(out, "spread: bid=%d ask=%d\n", bestBid, bestAsk)
			} else {
				fmt.Fprintln(out, "spread: n/a")
			}

			fmt.Fprintln(out, "bids (best first):")
			m.Book.Bids.Iterate(slab.Descending, func(_ slab.NodeHandle, l slab.LeafNode) bool {
				fmt.Fprintf(out, "  price=%d qty=%d\n", l.Key.Price(), l.BaseQty)
				return true
			})
			fmt.Fprintln(out, "asks (best first):")
			m.Book.Asks.Iterate(slab.Ascending, func(_ slab.NodeHandle, l slab.LeafNode) bool {
				fmt.Fprintf(out, "  price=%d qty=%d\n", l.Key.Price(), l.BaseQty)
				return true
			})

			fmt.Fprintf(out, "event queue: %d live entries\n", m.Events.Count())
			return nil
		},
	}
	return c
}
