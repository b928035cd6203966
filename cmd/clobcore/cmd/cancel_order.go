package cmd

import (
	"fmt"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"

	"github.com/openalpha/clobcore/pkg/orderid"
)

func newCancelOrderCmd(logger log.Logger) *cobra.Command {
	var hi, lo uint64

	c := &cobra.Command{
		Use:   "cancel-order",
		Short: "cancel a single resting order by its 128-bit id",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			m, marketBuf, eventsBuf, bidsBuf, asksBuf, ok, err := openMarket(dataDir, logger)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no market found in %s; run create-market first", dataDir)
			}

			if err := m.CancelOrder(orderid.ID{Hi: hi, Lo: lo}); err != nil {
				return err
			}
			return saveMarketBuffers(dataDir, marketBuf, eventsBuf, bidsBuf, asksBuf)
		},
	}
	c.Flags().Uint64Var(&hi, "id-hi", 0, "high 64 bits of the order id (the fixed-point-32 price)")
	c.Flags().Uint64Var(&lo, "id-lo", 0, "low 64 bits of the order id (the sequence number, XOR-encoded)")
	return c
}
