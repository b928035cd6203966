package cmd

import (
	"fmt"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/openalpha/clobcore/facade"
)

func newCreateMarketCmd(logger log.Logger) *cobra.Command {
	var minBaseOrderSize uint64
	var tickSize, crankerReward string

	c := &cobra.Command{
		Use:   "create-market",
		Short: "initialize a fresh market's buffers",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			marketBuf, eventsBuf, bidsBuf, asksBuf, err := marketBuffers(dataDir)
			if err != nil {
				return err
			}

			tick, err := math.LegacyNewDecFromStr(tickSize)
			if err != nil {
				return fmt.Errorf("tick-size: %w", err)
			}
			reward, err := math.LegacyNewDecFromStr(crankerReward)
			if err != nil {
				return fmt.Errorf("cranker-reward: %w", err)
			}

			authority := fixtureAddress()
			marketAddr := fixtureAddress()

			cfg := facade.MarketConfig{
				CallerAuthority:  authority,
				CallbackInfoLen:  demoCallbackInfoLen,
				CallbackIDLen:    demoCallbackIDLen,
				MinBaseOrderSize: minBaseOrderSize,
				TickSize:         tick,
				CrankerReward:    reward,
			}
			if _, err := facade.CreateMarket(logger, marketBuf, eventsBuf, bidsBuf, asksBuf, cfg, marketAddr); err != nil {
				return err
			}
			if err := saveMarketBuffers(dataDir, marketBuf, eventsBuf, bidsBuf, asksBuf); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "market created in %s\n", dataDir)
			return nil
		},
	}
	c.Flags().Uint64Var(&minBaseOrderSize, "min-base-order-size", 1, "minimum resting order size, in base units")
	c.Flags().StringVar(&tickSize, "tick-size", "0.01", "decimal tick size")
	c.Flags().StringVar(&crankerReward, "cranker-reward", "0", "decimal cranker reward")
	return c
}
