// Package clobtypes holds the small, shared vocabulary types used across
// slab, eventqueue, orderbook, matching and facade: the Side/SelfTradeBehavior
// enums, the CallbackInfo payload convention, and the registered error
// sentinels. It plays the role teacher's x/orderbook/types package plays,
// minus the gogoproto wire-format boilerplate this module has no chain to
// need (see DESIGN.md).
package clobtypes

// Tag identifies the role a byte buffer was initialized for (spec.md §3).
// Mis-tag on access must fail with ErrInvalidAccountData before any mutation.
type Tag uint64

const (
	TagUninitialized Tag = iota
	TagMarket
	TagEventQueue
	TagBids
	TagAsks
)

func (t Tag) String() string {
	switch t {
	case TagMarket:
		return "Market"
	case TagEventQueue:
		return "EventQueue"
	case TagBids:
		return "Bids"
	case TagAsks:
		return "Asks"
	default:
		return "Uninitialized"
	}
}

// Side is a taker or resting order's side.
type Side uint8

const (
	SideBid Side = iota
	SideAsk
)

func (s Side) String() string {
	if s == SideBid {
		return "Bid"
	}
	return "Ask"
}

// Opposite returns the other side, mirroring teacher's Side.Opposite() in
// x/orderbook/types/types.go.
func (s Side) Opposite() Side {
	if s == SideBid {
		return SideAsk
	}
	return SideBid
}

// SelfTradeBehavior selects how new_order handles a taker crossing its own
// resting liquidity (spec.md §4.4 step 4).
type SelfTradeBehavior uint8

const (
	DecrementTake SelfTradeBehavior = iota
	CancelProvide
	AbortTransaction
)

func (b SelfTradeBehavior) String() string {
	switch b {
	case CancelProvide:
		return "CancelProvide"
	case AbortTransaction:
		return "AbortTransaction"
	default:
		return "DecrementTake"
	}
}
