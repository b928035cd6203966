package slab

import (
	"encoding/binary"
	"fmt"

	"github.com/openalpha/clobcore/clobtypes"
)

// Slab is a typed view over a caller-owned byte buffer: one side (bids or
// asks) of one market. All methods mutate buf in place; Slab itself holds
// no state beyond the slice header and the derived, buffer-length-only
// layout constants (array offsets/capacities), which are recomputed from
// buf and callbackInfoLen every time FromBuffer is called rather than
// cached across calls — there is exactly one source of truth, the buffer.
type Slab struct {
	buf             []byte
	callbackInfoLen int

	leafCap     uint32 // capacity of leaf_nodes / callback_infos (= innerCap+1)
	innerCap    uint32 // capacity of inner_nodes
	leafOff     int
	innerOff    int
	callbackOff int
}

// FromBuffer aliases buf as a Slab view, verifying its tag. callbackInfoLen
// must be the market's configured CallbackInfoLen (spec.md §6
// create_market param) — it is not itself persisted in SlabHeader, so every
// caller must supply it consistently for a given buffer's lifetime.
func FromBuffer(buf []byte, expectedTag clobtypes.Tag, callbackInfoLen int) (*Slab, error) {
	if len(buf) < tagSize+headerSize {
		return nil, fmt.Errorf("%w: buffer too small for slab header", clobtypes.ErrInvalidAccountData)
	}
	if tagOf(buf) != expectedTag {
		return nil, fmt.Errorf("%w: slab tag %s, want %s", clobtypes.ErrInvalidAccountData, tagOf(buf), expectedTag)
	}
	s := &Slab{buf: buf, callbackInfoLen: callbackInfoLen}
	s.computeLayout()
	return s, nil
}

func (s *Slab) computeLayout() {
	arraysOff := tagSize + headerSize
	leafSlot := leafNodeSize + s.callbackInfoLen
	innerSlot := innerNodeSize
	avail := len(s.buf) - arraysOff - leafSlot
	var cap uint32
	if avail > 0 {
		cap = uint32(avail / (leafSlot + innerSlot))
	}
	s.innerCap = cap
	s.leafCap = cap + 1
	s.leafOff = arraysOff
	s.innerOff = s.leafOff + int(s.leafCap)*leafNodeSize
	s.callbackOff = s.innerOff + int(s.innerCap)*innerNodeSize
}

// Initialize stamps an uninitialized buffer as a Bids or Asks slab: zeroes
// the header and writes the tag (spec.md §3 "Lifecycle").
func Initialize(buf []byte, tag clobtypes.Tag, callbackInfoLen int) (*Slab, error) {
	if tag != clobtypes.TagBids && tag != clobtypes.TagAsks {
		return nil, fmt.Errorf("%w: slab tag must be Bids or Asks", clobtypes.ErrInvalidAccountData)
	}
	if len(buf) < tagSize+headerSize {
		return nil, fmt.Errorf("%w: buffer too small for slab header", clobtypes.ErrInvalidAccountData)
	}
	if tagOf(buf) != clobtypes.TagUninitialized {
		return nil, fmt.Errorf("%w: slab", clobtypes.ErrAlreadyInitialized)
	}
	for i := tagSize; i < tagSize+headerSize; i++ {
		buf[i] = 0
	}
	setTag(buf, tag)
	s := &Slab{buf: buf, callbackInfoLen: callbackInfoLen}
	s.computeLayout()
	s.setLeafFreeListHead(noFree)
	s.setInnerFreeListHead(noFree)
	return s, nil
}

// BufferSize returns the byte length a buffer must have to hold innerCap
// inner nodes (and therefore innerCap+1 leaves) at the given
// callbackInfoLen, the inverse of the capacity formula in computeLayout /
// spec.md §3 ("Capacity of each array = ..."). Callers (facade, tests, the
// demo CLI) use this to size buffers up front.
func BufferSize(innerCap uint32, callbackInfoLen int) int {
	leafSlot := leafNodeSize + callbackInfoLen
	return tagSize + headerSize + int(innerCap+1)*leafSlot + int(innerCap)*innerNodeSize
}

// Capacity returns (leafCap, innerCap) — the number of leaf and inner node
// slots this buffer can hold, derived from its length and callbackInfoLen.
func (s *Slab) Capacity() (leafCap, innerCap uint32) { return s.leafCap, s.innerCap }

// LeafCount is the number of live leaves currently in the trie (I2, I5).
func (s *Slab) LeafCount() uint32 { return s.headerU32(offLeafCount) }

func (s *Slab) setLeafCount(v uint32) { s.setHeaderU32(offLeafCount, v) }

// IsEmpty reports LeafCount() == 0.
func (s *Slab) IsEmpty() bool { return s.LeafCount() == 0 }

// RootNode returns the current root handle. Only meaningful when
// LeafCount() > 0 (I2).
func (s *Slab) RootNode() NodeHandle { return NodeHandle(s.headerU32(offRootNode)) }

func (s *Slab) setRootNode(h NodeHandle) { s.setHeaderU32(offRootNode, uint32(h)) }

func (s *Slab) headerU32(off int) uint32 {
	return binary.LittleEndian.Uint32(s.buf[tagSize+off : tagSize+off+4])
}

func (s *Slab) setHeaderU32(off int, v uint32) {
	binary.LittleEndian.PutUint32(s.buf[tagSize+off:tagSize+off+4], v)
}

func (s *Slab) headerU64(off int) uint64 {
	return binary.LittleEndian.Uint64(s.buf[tagSize+off : tagSize+off+8])
}

func (s *Slab) setHeaderU64(off int, v uint64) {
	binary.LittleEndian.PutUint64(s.buf[tagSize+off:tagSize+off+8], v)
}

func (s *Slab) leafFreeListLen() uint32     { return s.headerU32(offLeafFreeListLen) }
func (s *Slab) setLeafFreeListLen(v uint32) { s.setHeaderU32(offLeafFreeListLen, v) }
func (s *Slab) leafFreeListHead() uint32    { return s.headerU32(offLeafFreeListHead) }
func (s *Slab) setLeafFreeListHead(v uint32) { s.setHeaderU32(offLeafFreeListHead, v) }
func (s *Slab) leafBumpIndex() uint32       { return s.headerU32(offLeafBumpIndex) }
func (s *Slab) setLeafBumpIndex(v uint32)   { s.setHeaderU32(offLeafBumpIndex, v) }

func (s *Slab) innerFreeListLen() uint32      { return s.headerU32(offInnerFreeListLen) }
func (s *Slab) setInnerFreeListLen(v uint32)  { s.setHeaderU32(offInnerFreeListLen, v) }
func (s *Slab) innerFreeListHead() uint32     { return s.headerU32(offInnerFreeListHead) }
func (s *Slab) setInnerFreeListHead(v uint32) { s.setHeaderU32(offInnerFreeListHead, v) }
func (s *Slab) innerBumpIndex() uint32        { return s.headerU32(offInnerBumpIndex) }
func (s *Slab) setInnerBumpIndex(v uint32)    { s.setHeaderU32(offInnerBumpIndex, v) }

// CallbackFreeListLen/Head are reserved per spec.md §3 ("reserved; unused
// by core") — exposed read-only so a host layer can use the field without
// this package needing to understand callback-info recycling policy.
func (s *Slab) CallbackFreeListLen() uint64 { return s.headerU64(offCallbackFreeLen) }
func (s *Slab) CallbackFreeListHead() uint64 { return s.headerU64(offCallbackFreeHead) }

// MarketAddress returns the 32-byte market address stamped at
// initialization time.
func (s *Slab) MarketAddress() [32]byte {
	var addr [32]byte
	copy(addr[:], s.buf[tagSize+offMarketAddress:tagSize+offMarketAddress+32])
	return addr
}

// SetMarketAddress stamps the market address (called once, from
// facade.CreateMarket).
func (s *Slab) SetMarketAddress(addr [32]byte) {
	copy(s.buf[tagSize+offMarketAddress:tagSize+offMarketAddress+32], addr[:])
}

func (s *Slab) leafBytes(i uint32) []byte {
	off := s.leafOff + int(i)*leafNodeSize
	return s.buf[off : off+leafNodeSize]
}

func (s *Slab) innerBytes(i uint32) []byte {
	off := s.innerOff + int(i)*innerNodeSize
	return s.buf[off : off+innerNodeSize]
}

func (s *Slab) callbackBytes(i uint32) []byte {
	off := s.callbackOff + int(i)*s.callbackInfoLen
	return s.buf[off : off+s.callbackInfoLen]
}

// readLeaf/writeLeaf/readInner/writeInner read and write by handle index,
// not by handle kind check — callers must already know the handle's kind
// (I1 is enforced by construction: every call site branches on IsInner()
// before reaching these).

func (s *Slab) readLeaf(i uint32) LeafNode    { return decodeLeaf(s.leafBytes(i)) }
func (s *Slab) writeLeaf(i uint32, l LeafNode) { encodeLeaf(s.leafBytes(i), l) }

func (s *Slab) readInner(i uint32) InnerNode     { return decodeInner(s.innerBytes(i)) }
func (s *Slab) writeInner(i uint32, n InnerNode) { encodeInner(s.innerBytes(i), n) }

// Leaf returns the leaf record at handle h. h must be a leaf handle
// (!h.IsInner()).
func (s *Slab) Leaf(h NodeHandle) LeafNode { return s.readLeaf(h.Index()) }

// SetLeafQuantity overwrites the base quantity of the live leaf at handle
// h, used by the matching engine to decrement a resting order's remaining
// size in place without disturbing its trie position (the key, which
// determines position, never changes for a live leaf).
func (s *Slab) SetLeafQuantity(h NodeHandle, qty uint64) {
	l := s.readLeaf(h.Index())
	l.BaseQty = qty
	s.writeLeaf(h.Index(), l)
}

// RemoveHandle removes the live leaf at handle h from the trie, the same
// operation as RemoveByKey but addressed by handle (avoids a redundant
// find_by_key when the caller already holds the handle from a prior
// FindBBO/FindByKey).
func (s *Slab) RemoveHandle(h NodeHandle) (LeafNode, []byte, bool) {
	return s.RemoveByKey(s.readLeaf(h.Index()).Key)
}

// GetCallbackInfo returns the callback-info payload attached to the leaf at
// handle h (which must be a leaf handle — spec.md §4.1's
// get_callback_info[_mut]).
func (s *Slab) GetCallbackInfo(h NodeHandle) []byte {
	return s.callbackBytes(h.Index())
}

// SetCallbackInfo writes the callback-info payload for the leaf at handle
// h. len(info) must equal the slab's configured callback-info length.
func (s *Slab) SetCallbackInfo(h NodeHandle, info []byte) {
	copy(s.callbackBytes(h.Index()), info)
}
