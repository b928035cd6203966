package cmd

import (
	"fmt"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"

	"github.com/openalpha/clobcore/clobtypes"
	"github.com/openalpha/clobcore/matching"
)

func newOrderCmd(logger log.Logger) *cobra.Command {
	var side string
	var baseQty, quoteQty, limitPrice, matchLimit uint64
	var postOnly, postAllowed bool
	var selfTrade string

	c := &cobra.Command{
		Use:   "new-order",
		Short: "submit a single order against the demo market",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			m, marketBuf, eventsBuf, bidsBuf, asksBuf, ok, err := openMarket(dataDir, logger)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no market found in %s; run create-market first", dataDir)
			}

			s, err := parseSide(side)
			if err != nil {
				return err
			}
			stb, err := parseSelfTradeBehavior(selfTrade)
			if err != nil {
				return err
			}

			summary, err := m.NewOrder(matching.Params{
				MaxBaseQty:        baseQty,
				MaxQuoteQty:       quoteQty,
				Side:              s,
				LimitPrice:        limitPrice,
				CallbackInfo:      fixtureCallbackInfo(),
				PostOnly:          postOnly,
				PostAllowed:       postAllowed,
				SelfTradeBehavior: stb,
				MatchLimit:        matchLimit,
			})
			if err != nil {
				return err
			}
			if err := saveMarketBuffers(dataDir, marketBuf, eventsBuf, bidsBuf, asksBuf); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total_base_qty=%d total_quote_qty=%d total_base_qty_posted=%d\n",
				summary.TotalBaseQty, summary.TotalQuoteQty, summary.TotalBaseQtyPosted)
			if summary.PostedOrderID != nil {
				fmt.Fprintf(out, "posted_order_id=%d:%d\n", summary.PostedOrderID.Hi, summary.PostedOrderID.Lo)
			} else {
				fmt.Fprintln(out, "posted_order_id=none")
			}
			return nil
		},
	}

	c.Flags().StringVar(&side, "side", "bid", "bid or ask")
	c.Flags().Uint64Var(&baseQty, "base-qty", 0, "max base quantity")
	c.Flags().Uint64Var(&quoteQty, "quote-qty", 0, "max quote quantity")
	c.Flags().Uint64Var(&limitPrice, "limit-price", 0, "fixed-point-32 limit price")
	c.Flags().Uint64Var(&matchLimit, "match-limit", 1<<20, "maximum matching iterations")
	c.Flags().BoolVar(&postOnly, "post-only", false, "if the order would cross, neither trade nor post")
	c.Flags().BoolVar(&postAllowed, "post-allowed", true, "post any residual quantity")
	c.Flags().StringVar(&selfTrade, "self-trade", "decrement-take", "decrement-take | cancel-provide | abort")
	return c
}

func parseSide(s string) (clobtypes.Side, error) {
	switch s {
	case "bid":
		return clobtypes.SideBid, nil
	case "ask":
		return clobtypes.SideAsk, nil
	default:
		return 0, fmt.Errorf("side must be \"bid\" or \"ask\", got %q", s)
	}
}

func parseSelfTradeBehavior(s string) (clobtypes.SelfTradeBehavior, error) {
	switch s {
	case "decrement-take":
		return clobtypes.DecrementTake, nil
	case "cancel-provide":
		return clobtypes.CancelProvide, nil
	case "abort":
		return clobtypes.AbortTransaction, nil
	default:
		return 0, fmt.Errorf("self-trade must be decrement-take, cancel-provide, or abort, got %q", s)
	}
}
