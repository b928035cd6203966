// Package cmd is the clobcore demo CLI: a thin stand-in for "the host"
// spec.md §6 describes but places out of scope. It persists the four
// buffers (market, events, bids, asks) as flat files under --data-dir
// between invocations, the same "buffers are caller-owned, core only
// mutates in place" discipline the spec requires — here the caller is
// just the filesystem instead of a chain's account model.
package cmd

import (
	"os"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the clobcore command tree, grounded on teacher's
// cmd/perpdexd/cmd/root.go (cobra root + PersistentFlags + AddCommand
// shape), stripped of every cosmos-sdk server/app/genesis concern this
// module has no chain to run.
func NewRootCmd() *cobra.Command {
	logger := log.NewLogger(os.Stderr)

	root := &cobra.Command{
		Use:   "clobcore",
		Short: "clobcore — demo CLI over the agnostic CLOB core",
		Long: `clobcore drives the crit-bit slab, matching engine, and event queue
directly, persisting their byte buffers as flat files so repeated
invocations see the same market. It exists to exercise the core end to
end; it is not a production exchange host.`,
	}

	root.PersistentFlags().String("data-dir", "./clobcore-data", "directory holding this market's buffer files")

	root.AddCommand(
		newCreateMarketCmd(logger),
		newOrderCmd(logger),
		newCancelOrderCmd(logger),
		newDumpBookCmd(logger),
		newServeEventsCmd(logger),
	)
	return root
}
