// Package matching implements the deterministic single-order matcher
// (spec.md §4.4 new_order): cross the opposite side's best-price tip,
// apply self-trade policy, emit Fill/Out events, and post any residual
// liquidity (evicting the least-aggressive resting order if the slab is
// full). The matcher itself is stateless — every call is a pure function
// of the book, the event queue, and the caller's Params.
package matching

import (
	"fmt"

	"cosmossdk.io/log"

	"github.com/openalpha/clobcore/clobtypes"
	"github.com/openalpha/clobcore/eventqueue"
	"github.com/openalpha/clobcore/orderbook"
	"github.com/openalpha/clobcore/pkg/orderid"
	"github.com/openalpha/clobcore/slab"
)

// Params is one new_order call's arguments (spec.md §4.4 "Inputs").
type Params struct {
	MaxBaseQty         uint64
	MaxQuoteQty        uint64
	Side               clobtypes.Side
	LimitPrice         uint64
	CallbackInfo       clobtypes.CallbackInfo
	PostOnly           bool
	PostAllowed        bool
	SelfTradeBehavior  clobtypes.SelfTradeBehavior
	MatchLimit         uint64
	MinBaseOrderSize   uint64
	CallbackIDLen      int
}

// OrderSummary is new_order's return value: cumulative totals over the
// whole call.
type OrderSummary struct {
	PostedOrderID     *orderid.ID
	TotalBaseQty      uint64
	TotalQuoteQty     uint64
	TotalBaseQtyPosted uint64
}

// NewOrder runs the full matching loop against book, then posts any
// residual per p, appending Fill/Out events to eq as it goes.
func NewOrder(logger log.Logger, book *orderbook.State, eq *eventqueue.EventQueue, p Params) (OrderSummary, error) {
	var summary OrderSummary
	baseRemaining := p.MaxBaseQty
	quoteRemaining := p.MaxQuoteQty
	opposite := p.Side.Opposite()
	matchLimit := p.MatchLimit

	// crossed starts true (not recomputed from the book after the loop):
	// it is threaded through every iteration and read as-is by the Posting
	// step below, exactly as the reference matcher's `let mut crossed =
	// true` does.
	crossed := true

	for matchLimit > 0 {
		bbo, ok := book.FindBBO(opposite)
		if !ok {
			crossed = false
			break
		}
		oppositeSlab := book.Side(opposite)
		maker := oppositeSlab.Leaf(bbo.Handle)
		tradePrice := bbo.Key.Price()

		if p.Side == clobtypes.SideBid {
			crossed = p.LimitPrice >= tradePrice
		} else {
			crossed = p.LimitPrice <= tradePrice
		}
		if p.PostOnly || !crossed {
			break
		}

		maxFromQuote, err := fp32Div(quoteRemaining, tradePrice)
		if err != nil {
			return summary, err
		}
		baseTrade := minU64(maker.BaseQty, baseRemaining, maxFromQuote)
		if baseTrade == 0 {
			break
		}
		quoteMaker, err := fp32Mul(baseTrade, tradePrice)
		if err != nil {
			return summary, err
		}
		if quoteMaker == 0 {
			break
		}

		makerInfo := oppositeSlab.GetCallbackInfo(bbo.Handle)
		if p.SelfTradeBehavior != clobtypes.DecrementTake &&
			clobtypes.SameCallbackID(p.CallbackInfo, clobtypes.CallbackInfo(makerInfo), p.CallbackIDLen) {
			switch p.SelfTradeBehavior {
			case clobtypes.AbortTransaction:
				return summary, clobtypes.ErrWouldSelfTrade
			case clobtypes.CancelProvide:
				out := eventqueue.OutEvent{Side: opposite, Delete: true, OrderID: bbo.Key, BaseSize: maker.BaseQty}
				if err := eq.PushBack(nil, &out, makerCallbackCopy(makerInfo), nil); err != nil {
					return summary, err
				}
				if _, _, ok := oppositeSlab.RemoveHandle(bbo.Handle); !ok {
					return summary, fmt.Errorf("matching: self-trade removal of maker %v not found", bbo.Key)
				}
				matchLimit--
				continue
			}
		}

		fill := eventqueue.FillEvent{
			TakerSide:    p.Side,
			QuoteSize:    quoteMaker,
			MakerOrderID: bbo.Key,
			BaseSize:     baseTrade,
		}
		if err := eq.PushBack(&fill, nil, makerCallbackCopy(makerInfo), []byte(p.CallbackInfo)); err != nil {
			return summary, err
		}

		logger.Debug("matched", "maker_order_id_hi", bbo.Key.Hi, "maker_order_id_lo", bbo.Key.Lo,
			"base_trade", baseTrade, "quote_maker", quoteMaker, "trade_price", tradePrice)

		newMakerQty := maker.BaseQty - baseTrade
		baseRemaining -= baseTrade
		quoteRemaining -= quoteMaker
		summary.TotalBaseQty += baseTrade
		summary.TotalQuoteQty += quoteMaker

		if newMakerQty < p.MinBaseOrderSize {
			out := eventqueue.OutEvent{Side: opposite, Delete: true, OrderID: bbo.Key, BaseSize: newMakerQty}
			if err := eq.PushBack(nil, &out, makerCallbackCopy(makerInfo), nil); err != nil {
				return summary, err
			}
			if _, _, ok := oppositeSlab.RemoveHandle(bbo.Handle); !ok {
				return summary, fmt.Errorf("matching: dust removal of maker %v not found", bbo.Key)
			}
		} else {
			oppositeSlab.SetLeafQuantity(bbo.Handle, newMakerQty)
		}

		matchLimit--
	}

	baseToPost, err := postSize(p, baseRemaining, quoteRemaining)
	if err != nil {
		return summary, err
	}
	if crossed || !p.PostAllowed || baseToPost < p.MinBaseOrderSize {
		return summary, nil
	}

	ownSlab := book.Side(p.Side)
	newID := eq.GenOrderID(p.LimitPrice, p.Side)
	h, _, err := ownSlab.InsertLeaf(slab.LeafNode{Key: newID, BaseQty: baseToPost})
	if err == clobtypes.ErrSlabOutOfSpace {
		h, err = evictAndRetry(eq, ownSlab, p.Side, newID, baseToPost)
	}
	if err != nil {
		return summary, err
	}

	ownSlab.SetCallbackInfo(h, p.CallbackInfo)

	summary.PostedOrderID = &newID
	summary.TotalBaseQtyPosted = baseToPost

	return summary, nil
}

// postSize computes base_to_post, saturating to the maximum uint64 on a
// fp32Div overflow per spec.md §4.4 ("saturating to u64::MAX on division
// overflow").
func postSize(p Params, baseRemaining, quoteRemaining uint64) (uint64, error) {
	fromQuote, err := fp32Div(quoteRemaining, p.LimitPrice)
	if err == clobtypes.ErrNumericalOverflow {
		fromQuote = ^uint64(0)
	} else if err != nil {
		return 0, err
	}
	return minU64(fromQuote, baseRemaining), nil
}

// evictAndRetry implements spec.md §4.4's slab-full eviction: remove the
// least-aggressive resting order on the taker's own side if it is strictly
// less aggressive than the order being posted, then retry the insert
// (which must now succeed).
func evictAndRetry(eq *eventqueue.EventQueue, ownSlab *slab.Slab, side clobtypes.Side, newID orderid.ID, baseToPost uint64) (slab.NodeHandle, error) {
	var victim slab.NodeHandle
	var ok bool
	if side == clobtypes.SideBid {
		victim, ok = ownSlab.FindMin()
	} else {
		victim, ok = ownSlab.FindMax()
	}
	if !ok {
		return slab.NodeHandle(0), clobtypes.ErrSlabOutOfSpace
	}
	victimLeaf := ownSlab.Leaf(victim)

	lessAggressive := false
	if side == clobtypes.SideBid {
		lessAggressive = victimLeaf.Key.Price() < newID.Price()
	} else {
		lessAggressive = victimLeaf.Key.Price() > newID.Price()
	}
	if !lessAggressive {
		return slab.NodeHandle(0), clobtypes.ErrSlabOutOfSpace
	}

	victimInfo := append([]byte(nil), ownSlab.GetCallbackInfo(victim)...)
	out := eventqueue.OutEvent{Side: side, Delete: true, OrderID: victimLeaf.Key, BaseSize: victimLeaf.BaseQty}
	if err := eq.PushBack(nil, &out, victimInfo, nil); err != nil {
		return slab.NodeHandle(0), err
	}
	if _, _, ok := ownSlab.RemoveHandle(victim); !ok {
		return slab.NodeHandle(0), fmt.Errorf("matching: eviction of %v not found", victimLeaf.Key)
	}

	h, _, err := ownSlab.InsertLeaf(slab.LeafNode{Key: newID, BaseQty: baseToPost})
	return h, err
}

func makerCallbackCopy(info []byte) []byte {
	return append([]byte(nil), info...)
}

func minU64(vs ...uint64) uint64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
