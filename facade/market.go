// Package facade is the host-facing instruction surface spec.md §6
// describes but places out of scope: one method per instruction
// (create_market, new_order, cancel_order, mass_cancel_orders,
// consume_events, pause_matching/resume_matching, prune_orders,
// close_market), standing in for "the host" the way teacher's Keeper
// stands in for chain state access.
package facade

import (
	"encoding/binary"
	"fmt"

	"cosmossdk.io/log"
	"cosmossdk.io/math"

	"github.com/openalpha/clobcore/clobtypes"
	"github.com/openalpha/clobcore/eventqueue"
	"github.com/openalpha/clobcore/matching"
	"github.com/openalpha/clobcore/orderbook"
	"github.com/openalpha/clobcore/pkg/orderid"
	"github.com/openalpha/clobcore/slab"
)

// MarketConfig is spec.md §6's create_market parameter set. TickSize and
// CrankerReward are decimal (math.LegacyDec) because they are host-facing
// fee/rent bookkeeping values, not trie keys — the spec's raw fixed-point
// requirement binds only to the in-slab key/limit_price (SPEC_FULL.md §4).
// They are not persisted byte-exact in MarketState; only CallerAuthority,
// CallbackInfoLen, CallbackIDLen, MinBaseOrderSize and MarketAddress are,
// since those are the fields the core's own invariants depend on.
type MarketConfig struct {
	CallerAuthority   [32]byte
	CallbackInfoLen   int
	CallbackIDLen     int
	MinBaseOrderSize  uint64
	TickSize          math.LegacyDec
	CrankerReward     math.LegacyDec
}

// Market owns the four caller-supplied buffers backing one market: the
// market header, the event queue, and the two slabs.
type Market struct {
	logger    log.Logger
	marketBuf []byte
	Book      *orderbook.State
	Events    *eventqueue.EventQueue
	Config    MarketConfig
}

// CreateMarket stamps all four uninitialized buffers and returns the live
// Market (spec.md §6 create_market).
func CreateMarket(logger log.Logger, marketBuf, eventsBuf, bidsBuf, asksBuf []byte, cfg MarketConfig, marketAddress [32]byte) (*Market, error) {
	if len(marketBuf) < tagSize+headerSize {
		return nil, fmt.Errorf("%w: market buffer too small", clobtypes.ErrInvalidAccountData)
	}
	if tagOf(marketBuf) != clobtypes.TagUninitialized {
		return nil, fmt.Errorf("%w: market", clobtypes.ErrAlreadyInitialized)
	}
	for i := range headerBytes(marketBuf) {
		headerBytes(marketBuf)[i] = 0
	}
	setTag(marketBuf, clobtypes.TagMarket)
	h := headerBytes(marketBuf)
	copy(h[offCallerAuthority:offCallerAuthority+32], cfg.CallerAuthority[:])
	binary.LittleEndian.PutUint32(h[offCallbackInfoLen:offCallbackInfoLen+4], uint32(cfg.CallbackInfoLen))
	binary.LittleEndian.PutUint32(h[offCallbackIDLen:offCallbackIDLen+4], uint32(cfg.CallbackIDLen))
	binary.LittleEndian.PutUint64(h[offMinBaseOrderSize:offMinBaseOrderSize+8], cfg.MinBaseOrderSize)
	copy(h[offMarketAddress:offMarketAddress+32], marketAddress[:])

	if _, err := eventqueue.Initialize(eventsBuf, cfg.CallbackInfoLen); err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	eq, err := eventqueue.FromBuffer(eventsBuf, cfg.CallbackInfoLen)
	if err != nil {
		return nil, err
	}

	bids, err := slab.Initialize(bidsBuf, clobtypes.TagBids, cfg.CallbackInfoLen)
	if err != nil {
		return nil, fmt.Errorf("bids: %w", err)
	}
	bids.SetMarketAddress(marketAddress)
	asks, err := slab.Initialize(asksBuf, clobtypes.TagAsks, cfg.CallbackInfoLen)
	if err != nil {
		return nil, fmt.Errorf("asks: %w", err)
	}
	asks.SetMarketAddress(marketAddress)

	return &Market{
		logger:    logger.With("module", "clobcore/facade"),
		marketBuf: marketBuf,
		Book:      &orderbook.State{Bids: bids, Asks: asks},
		Events:    eq,
		Config:    cfg,
	}, nil
}

// OpenMarket re-aliases four already-created buffers as a live Market (the
// call pattern every instruction after create_market uses: the host hands
// the same four buffers back in on each call).
func OpenMarket(logger log.Logger, marketBuf, eventsBuf, bidsBuf, asksBuf []byte) (*Market, error) {
	if len(marketBuf) < tagSize+headerSize {
		return nil, fmt.Errorf("%w: market buffer too small", clobtypes.ErrInvalidAccountData)
	}
	if tagOf(marketBuf) != clobtypes.TagMarket {
		return nil, fmt.Errorf("%w: market tag %s, want %s", clobtypes.ErrInvalidAccountData, tagOf(marketBuf), clobtypes.TagMarket)
	}
	h := headerBytes(marketBuf)
	cfg := MarketConfig{
		CallbackInfoLen:  int(binary.LittleEndian.Uint32(h[offCallbackInfoLen : offCallbackInfoLen+4])),
		CallbackIDLen:    int(binary.LittleEndian.Uint32(h[offCallbackIDLen : offCallbackIDLen+4])),
		MinBaseOrderSize: binary.LittleEndian.Uint64(h[offMinBaseOrderSize : offMinBaseOrderSize+8]),
	}
	copy(cfg.CallerAuthority[:], h[offCallerAuthority:offCallerAuthority+32])

	eq, err := eventqueue.FromBuffer(eventsBuf, cfg.CallbackInfoLen)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	book, err := orderbook.FromBuffers(bidsBuf, asksBuf, cfg.CallbackInfoLen)
	if err != nil {
		return nil, err
	}

	return &Market{
		logger:    logger.With("module", "clobcore/facade"),
		marketBuf: marketBuf,
		Book:      book,
		Events:    eq,
		Config:    cfg,
	}, nil
}

func (m *Market) Paused() bool { return headerBytes(m.marketBuf)[offPaused] != 0 }

func (m *Market) setPaused(v bool) {
	if v {
		headerBytes(m.marketBuf)[offPaused] = 1
	} else {
		headerBytes(m.marketBuf)[offPaused] = 0
	}
}

// PauseMatching / ResumeMatching toggle the paused gate. Cancel, consume
// and prune remain legal while paused (SPEC_FULL.md §6); only NewOrder
// checks this flag.
func (m *Market) PauseMatching() error  { m.setPaused(true); return nil }
func (m *Market) ResumeMatching() error { m.setPaused(false); return nil }

// NewOrder runs matching.NewOrder against this market's book and event
// queue, filling in the market-level config fields of p that are caller-
// invariant (MinBaseOrderSize, CallbackIDLen) rather than making every
// caller repeat them.
func (m *Market) NewOrder(p matching.Params) (matching.OrderSummary, error) {
	if m.Paused() {
		return matching.OrderSummary{}, clobtypes.ErrMarketPaused
	}
	p.MinBaseOrderSize = m.Config.MinBaseOrderSize
	p.CallbackIDLen = m.Config.CallbackIDLen
	return matching.NewOrder(m.logger, m.Book, m.Events, p)
}

// CancelOrder removes a single resting order by id. Side is derived by
// probing both books for the key (spec.md §9 flags the source's
// inconsistent two-sides-by-parameter cancel_order as a bug to avoid; this
// takes exactly the documented single order_id field and finds the order
// itself rather than trusting a caller-supplied side).
func (m *Market) CancelOrder(id orderid.ID) error {
	for _, side := range []clobtypes.Side{clobtypes.SideBid, clobtypes.SideAsk} {
		sl := m.Book.Side(side)
		h, ok := sl.FindByKey(id)
		if !ok {
			continue
		}
		leaf := sl.Leaf(h)
		info := append([]byte(nil), sl.GetCallbackInfo(h)...)
		out := eventqueue.OutEvent{Side: side, Delete: true, OrderID: id, BaseSize: leaf.BaseQty}
		if err := m.Events.PushBack(nil, &out, info, nil); err != nil {
			return err
		}
		if _, _, ok := sl.RemoveHandle(h); !ok {
			return fmt.Errorf("facade: cancel race on %v", id)
		}
		return nil
	}
	return clobtypes.ErrOrderNotFound
}

// MassCancelOrders cancels each id independently; a failure for one id
// does not abort the rest (spec.md §6 mass_cancel_orders).
func (m *Market) MassCancelOrders(ids []orderid.ID) []error {
	errs := make([]error, len(ids))
	for i, id := range ids {
		errs[i] = m.CancelOrder(id)
	}
	return errs
}

// ConsumeEvents drains up to n entries from the front of the event queue
// (spec.md §6 consume_events).
func (m *Market) ConsumeEvents(n uint64) error {
	m.Events.PopN(n)
	return nil
}

// PruneOrders removes up to n resting orders across both books, least
// aggressive first, via the same Out{delete:true} eviction path NewOrder
// uses when a slab is full (SPEC_FULL.md §6 supplemented semantics —
// spec.md's distillation names prune_orders without defining it).
func (m *Market) PruneOrders(n uint64) error {
	for i := uint64(0); i < n; i++ {
		h, side, ok := m.leastAggressive()
		if !ok {
			return nil
		}
		sl := m.Book.Side(side)
		leaf := sl.Leaf(h)
		info := append([]byte(nil), sl.GetCallbackInfo(h)...)
		out := eventqueue.OutEvent{Side: side, Delete: true, OrderID: leaf.Key, BaseSize: leaf.BaseQty}
		if err := m.Events.PushBack(nil, &out, info, nil); err != nil {
			return err
		}
		if _, _, ok := sl.RemoveHandle(h); !ok {
			return fmt.Errorf("facade: prune race on %v", leaf.Key)
		}
	}
	return nil
}

// leastAggressive picks the single least competitive resting order across
// both books: the lowest bid or the highest ask, whichever is further from
// its own book's best price. Ties favor the bid side.
func (m *Market) leastAggressive() (h slab.NodeHandle, side clobtypes.Side, ok bool) {
	bidH, bidOK := m.Book.Bids.FindMin()
	askH, askOK := m.Book.Asks.FindMax()
	switch {
	case bidOK && askOK:
		bidPrice := m.Book.Bids.Leaf(bidH).Key.Price()
		askPrice := m.Book.Asks.Leaf(askH).Key.Price()
		bidSpread, askSpread := spreadFromBBO(m, clobtypes.SideBid, bidPrice), spreadFromBBO(m, clobtypes.SideAsk, askPrice)
		if askSpread > bidSpread {
			return askH, clobtypes.SideAsk, true
		}
		return bidH, clobtypes.SideBid, true
	case bidOK:
		return bidH, clobtypes.SideBid, true
	case askOK:
		return askH, clobtypes.SideAsk, true
	default:
		return 0, 0, false
	}
}

func spreadFromBBO(m *Market, side clobtypes.Side, worstPrice uint64) uint64 {
	bbo, ok := m.Book.FindBBO(side)
	if !ok {
		return 0
	}
	best := bbo.Key.Price()
	if side == clobtypes.SideBid {
		return best - worstPrice
	}
	return worstPrice - best
}

// CloseMarket fails MarketStillActive unless both books and the queue are
// empty (spec.md §6 close_market).
func (m *Market) CloseMarket() error {
	if !m.Book.IsEmpty() || !m.Events.Empty() {
		return clobtypes.ErrMarketStillActive
	}
	return nil
}
