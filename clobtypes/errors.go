package clobtypes

import (
	"cosmossdk.io/errors"
)

// Registered error codes, stable and numerically ordered per spec.md §6
// ("every instruction returns one of {Ok, OrderNotFound, SlabOutOfSpace,
// EventQueueFull, WouldSelfTrade, NumericalOverflow, InvalidAccountData,
// MarketStillActive, WrongMarketOwner/...Account}") and §7's error table.
// Mirrors the cosmossdk.io/errors.Register pattern in teacher's
// x/orderbook/types/errors.go.
var (
	ErrOrderNotFound       = errors.Register("clobcore", 1, "order not found")
	ErrSlabOutOfSpace      = errors.Register("clobcore", 2, "slab out of space")
	ErrEventQueueFull      = errors.Register("clobcore", 3, "event queue full")
	ErrWouldSelfTrade      = errors.Register("clobcore", 4, "order would self-trade")
	ErrNumericalOverflow   = errors.Register("clobcore", 5, "numerical overflow")
	ErrInvalidAccountData  = errors.Register("clobcore", 6, "invalid account data")
	ErrMarketStillActive   = errors.Register("clobcore", 7, "market still active")
	ErrWrongMarketOwner    = errors.Register("clobcore", 8, "wrong market owner")
	ErrAlreadyInitialized  = errors.Register("clobcore", 9, "buffer already initialized")

	// Expansion code: not in spec.md §6's table verbatim, needed once
	// pause_matching/resume_matching are given real semantics
	// (SPEC_FULL.md §6). Numbered well above the spec's own 1-9 so it can
	// never collide with the wire-stable core set (see DESIGN.md).
	ErrMarketPaused = errors.Register("clobcore", 90, "market matching is paused")
)
