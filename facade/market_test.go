package facade

import (
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"

	"github.com/openalpha/clobcore/clobtypes"
	"github.com/openalpha/clobcore/eventqueue"
	"github.com/openalpha/clobcore/matching"
	"github.com/openalpha/clobcore/slab"
)

const (
	testCallbackInfoLen = 8
	testCallbackIDLen   = 4
	testInnerCap        = 16
	testEventCap        = 16
)

func newTestMarket(t *testing.T) *Market {
	t.Helper()
	marketBuf := make([]byte, tagSize+headerSize)
	eventsBuf := make([]byte, eventqueue.BufferSize(testEventCap, testCallbackInfoLen))
	bidsBuf := make([]byte, slab.BufferSize(testInnerCap, testCallbackInfoLen))
	asksBuf := make([]byte, slab.BufferSize(testInnerCap, testCallbackInfoLen))

	cfg := MarketConfig{
		CallbackInfoLen:  testCallbackInfoLen,
		CallbackIDLen:    testCallbackIDLen,
		MinBaseOrderSize: 1,
		TickSize:         math.LegacyNewDecWithPrec(1, 2),
		CrankerReward:    math.LegacyZeroDec(),
	}
	m, err := CreateMarket(log.NewNopLogger(), marketBuf, eventsBuf, bidsBuf, asksBuf, cfg, [32]byte{1})
	if err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}
	return m
}

func callbackInfo(b byte) clobtypes.CallbackInfo {
	info := make([]byte, testCallbackInfoLen)
	info[0] = b
	return info
}

func TestCreateMarketThenNewOrderNoCross(t *testing.T) {
	m := newTestMarket(t)
	summary, err := m.NewOrder(matching.Params{
		MaxBaseQty:   10,
		MaxQuoteQty:  10,
		Side:         clobtypes.SideAsk,
		LimitPrice:   10 << 32,
		CallbackInfo: callbackInfo(1),
		PostAllowed:  false,
		MatchLimit:   0,
	})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if summary.PostedOrderID != nil || summary.TotalBaseQty != 0 || summary.TotalQuoteQty != 0 {
		t.Fatalf("summary = %+v, want all-zero", summary)
	}
	if m.Events.Count() != 0 {
		t.Fatalf("Events.Count() = %d, want 0", m.Events.Count())
	}
}

func TestPauseBlocksNewOrderOnly(t *testing.T) {
	m := newTestMarket(t)
	if err := m.PauseMatching(); err != nil {
		t.Fatalf("PauseMatching: %v", err)
	}
	if _, err := m.NewOrder(matching.Params{Side: clobtypes.SideBid, LimitPrice: 1 << 32, CallbackInfo: callbackInfo(1)}); err != clobtypes.ErrMarketPaused {
		t.Fatalf("NewOrder on paused market = %v, want ErrMarketPaused", err)
	}
	// cancel/consume/prune remain legal while paused.
	if err := m.ConsumeEvents(0); err != nil {
		t.Fatalf("ConsumeEvents while paused: %v", err)
	}
	if err := m.PruneOrders(0); err != nil {
		t.Fatalf("PruneOrders while paused: %v", err)
	}
	if err := m.ResumeMatching(); err != nil {
		t.Fatalf("ResumeMatching: %v", err)
	}
	if m.Paused() {
		t.Fatal("Paused() true after ResumeMatching")
	}
}

func TestCancelOrderRoundTrip(t *testing.T) {
	m := newTestMarket(t)
	summary, err := m.NewOrder(matching.Params{
		MaxBaseQty:   5,
		MaxQuoteQty:  50,
		Side:         clobtypes.SideBid,
		LimitPrice:   10 << 32,
		CallbackInfo: callbackInfo(2),
		PostAllowed:  true,
		MatchLimit:   16,
	})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if summary.PostedOrderID == nil {
		t.Fatal("expected a posted order")
	}
	id := *summary.PostedOrderID
	if err := m.CancelOrder(id); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if !m.Book.Bids.IsEmpty() {
		t.Fatal("bids should be empty after cancel")
	}
	if err := m.CancelOrder(id); err != clobtypes.ErrOrderNotFound {
		t.Fatalf("second CancelOrder = %v, want ErrOrderNotFound", err)
	}
}

func TestCloseMarketRequiresEmpty(t *testing.T) {
	m := newTestMarket(t)
	if err := m.CloseMarket(); err != nil {
		t.Fatalf("CloseMarket on empty market: %v", err)
	}

	summary, err := m.NewOrder(matching.Params{
		MaxBaseQty: 5, MaxQuoteQty: 50, Side: clobtypes.SideBid, LimitPrice: 10 << 32,
		CallbackInfo: callbackInfo(3), PostAllowed: true, MatchLimit: 16,
	})
	if err != nil || summary.PostedOrderID == nil {
		t.Fatalf("NewOrder: summary=%+v err=%v", summary, err)
	}
	if err := m.CloseMarket(); err != clobtypes.ErrMarketStillActive {
		t.Fatalf("CloseMarket with resting order = %v, want ErrMarketStillActive", err)
	}
}
