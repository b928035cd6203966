package cmd

import (
	"os"
	"path/filepath"

	"cosmossdk.io/log"

	"github.com/openalpha/clobcore/eventqueue"
	"github.com/openalpha/clobcore/facade"
	"github.com/openalpha/clobcore/slab"
)

// Demo-CLI-wide fixed sizing. A real host would size these per
// create_market call; the CLI fixes them so every subcommand invocation
// agrees on the buffer layout without a separate manifest file.
const (
	demoInnerCap        = 4096
	demoEventCap        = 4096
	demoCallbackInfoLen = 32
	demoCallbackIDLen   = 16
)

func bufferPaths(dataDir string) (market, events, bids, asks string) {
	return filepath.Join(dataDir, "market.bin"),
		filepath.Join(dataDir, "events.bin"),
		filepath.Join(dataDir, "bids.bin"),
		filepath.Join(dataDir, "asks.bin")
}

// loadOrCreateBuffer reads path if it exists, or returns a fresh
// zero-filled (and therefore Uninitialized-tagged) buffer of size n.
func loadOrCreateBuffer(path string, n int) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err == nil {
		return buf, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	return make([]byte, n), nil
}

func saveBuffer(path string, buf []byte) error {
	return os.WriteFile(path, buf, 0o600)
}

// marketBuffers loads (or fresh-allocates) this demo market's four
// buffers from dataDir, sized per the demo constants above.
func marketBuffers(dataDir string) (marketBuf, eventsBuf, bidsBuf, asksBuf []byte, err error) {
	if err = os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, nil, nil, err
	}
	marketPath, eventsPath, bidsPath, asksPath := bufferPaths(dataDir)

	marketBuf, err = loadOrCreateBuffer(marketPath, 8+88)
	if err != nil {
		return
	}
	eventsBuf, err = loadOrCreateBuffer(eventsPath, eventqueue.BufferSize(demoEventCap, demoCallbackInfoLen))
	if err != nil {
		return
	}
	bidsBuf, err = loadOrCreateBuffer(bidsPath, slab.BufferSize(demoInnerCap, demoCallbackInfoLen))
	if err != nil {
		return
	}
	asksBuf, err = loadOrCreateBuffer(asksPath, slab.BufferSize(demoInnerCap, demoCallbackInfoLen))
	return
}

func saveMarketBuffers(dataDir string, marketBuf, eventsBuf, bidsBuf, asksBuf []byte) error {
	marketPath, eventsPath, bidsPath, asksPath := bufferPaths(dataDir)
	for _, pair := range []struct {
		path string
		buf  []byte
	}{
		{marketPath, marketBuf}, {eventsPath, eventsBuf}, {bidsPath, bidsBuf}, {asksPath, asksBuf},
	} {
		if err := saveBuffer(pair.path, pair.buf); err != nil {
			return err
		}
	}
	return nil
}

// openMarket loads the market's buffers and opens an existing
// facade.Market, or returns a nil Market with ok=false and a nil error if
// create_market has not been run yet in this data dir.
func openMarket(dataDir string, logger log.Logger) (*facade.Market, []byte, []byte, []byte, []byte, bool, error) {
	marketBuf, eventsBuf, bidsBuf, asksBuf, err := marketBuffers(dataDir)
	if err != nil {
		return nil, nil, nil, nil, nil, false, err
	}
	if len(marketBuf) < 8 || isAllZero(marketBuf[:8]) {
		return nil, marketBuf, eventsBuf, bidsBuf, asksBuf, false, nil
	}
	m, err := facade.OpenMarket(logger, marketBuf, eventsBuf, bidsBuf, asksBuf)
	if err != nil {
		return nil, marketBuf, eventsBuf, bidsBuf, asksBuf, false, err
	}
	return m, marketBuf, eventsBuf, bidsBuf, asksBuf, true, nil
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
