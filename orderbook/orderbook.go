// Package orderbook composes the two per-side slabs (bids, asks) that make
// up one market's resting-order state (spec.md §4.3), the same "one struct,
// two sides selected by Side" shape as teacher's OrderBookART.
package orderbook

import (
	"fmt"

	"github.com/openalpha/clobcore/clobtypes"
	"github.com/openalpha/clobcore/pkg/orderid"
	"github.com/openalpha/clobcore/slab"
)

// State holds the two crit-bit tries backing one market. Bids are keyed so
// FindMax yields the highest bid price (best bid); Asks are keyed so
// FindMin yields the lowest ask price (best ask) — both follow directly
// from pkg/orderid.New's invertLow convention, so State itself does no
// price-side translation.
type State struct {
	Bids *slab.Slab
	Asks *slab.Slab
}

// FromBuffers aliases the two caller-owned buffers as bid/ask slabs.
func FromBuffers(bidsBuf, asksBuf []byte, callbackInfoLen int) (*State, error) {
	bids, err := slab.FromBuffer(bidsBuf, clobtypes.TagBids, callbackInfoLen)
	if err != nil {
		return nil, fmt.Errorf("bids: %w", err)
	}
	asks, err := slab.FromBuffer(asksBuf, clobtypes.TagAsks, callbackInfoLen)
	if err != nil {
		return nil, fmt.Errorf("asks: %w", err)
	}
	return &State{Bids: bids, Asks: asks}, nil
}

// Side returns this state's slab for the given side.
func (s *State) Side(side clobtypes.Side) *slab.Slab {
	if side == clobtypes.SideBid {
		return s.Bids
	}
	return s.Asks
}

// BBO is the best bid/offer leaf handle and key for one side, the "top of
// book" tip new_order reads on every step of its matching loop.
type BBO struct {
	Handle slab.NodeHandle
	Key    orderid.ID
}

// FindBBO returns the best resting order on the given side: FindMax for
// bids, FindMin for asks (spec.md §4.3 find_bbo). ok is false for an empty
// side.
func (s *State) FindBBO(side clobtypes.Side) (BBO, bool) {
	sl := s.Side(side)
	var h slab.NodeHandle
	var ok bool
	if side == clobtypes.SideBid {
		h, ok = sl.FindMax()
	} else {
		h, ok = sl.FindMin()
	}
	if !ok {
		return BBO{}, false
	}
	leaf := sl.Leaf(h)
	return BBO{Handle: h, Key: leaf.Key}, true
}

// GetSpread returns (bestBid, bestAsk, ok) prices; ok is false unless both
// sides are non-empty.
func (s *State) GetSpread() (bestBid, bestAsk uint64, ok bool) {
	bid, okBid := s.FindBBO(clobtypes.SideBid)
	ask, okAsk := s.FindBBO(clobtypes.SideAsk)
	if !okBid || !okAsk {
		return 0, 0, false
	}
	return bid.Key.Price(), ask.Key.Price(), true
}

// IsEmpty reports both sides have no resting orders.
func (s *State) IsEmpty() bool { return s.Bids.IsEmpty() && s.Asks.IsEmpty() }
