// Package slab implements the crit-bit trie and in-place node allocator
// described in spec.md §3/§4.1: a single contiguous byte buffer holds a tag,
// a fixed-width header, and three flat arrays (leaf nodes, inner nodes,
// callback-info payloads), indexed entirely through integer handles — no
// heap, no pointers. One Slab instance backs one side (bids or asks) of one
// market's order book.
//
// Every multi-byte field is little-endian and packed; this package never
// relies on Go struct layout for the wire format, it encodes/decodes
// explicit byte offsets with encoding/binary, matching spec.md §9's
// "packed, endian-fixed records... treat the buffer as a raw byte window."
package slab

import (
	"encoding/binary"

	"github.com/openalpha/clobcore/clobtypes"
	"github.com/openalpha/clobcore/pkg/orderid"
)

const (
	tagSize    = 8
	headerSize = 4*6 + 8*2 + 4*2 + 32 // 80 bytes, see field list below

	leafNodeSize  = 16 + 8      // key(u128) + base_quantity(u64)
	innerNodeSize = 16 + 8 + 8  // key(u128) + prefix_len(u64) + children[2](u32 each)

	noFree uint32 = ^uint32(0)
)

// Header field byte offsets, relative to the start of the header (i.e.
// after the 8-byte tag). Field order and widths match spec.md §3 exactly:
//
//	leaf_free_list_len: u32, leaf_free_list_head: u32, leaf_bump_index: u32
//	inner_node_free_list_len: u32, inner_node_free_list_head: u32, inner_node_bump_index: u32
//	callback_free_list_len: u64, callback_free_list_head: u64 (reserved; unused by core)
//	root_node: u32, leaf_count: u32, market_address: [u8;32]
const (
	offLeafFreeListLen    = 0
	offLeafFreeListHead   = 4
	offLeafBumpIndex      = 8
	offInnerFreeListLen   = 12
	offInnerFreeListHead  = 16
	offInnerBumpIndex     = 20
	offCallbackFreeLen    = 24
	offCallbackFreeHead   = 32
	offRootNode           = 40
	offLeafCount          = 44
	offMarketAddress      = 48
)

// NodeHandle is a tagged integer handle into either the leaf-node array or
// the inner-node array, per spec.md §3: the high bit (InnerFlag) selects
// which array; the inner-node index is recovered by a bitwise NOT of the
// handle, not by masking off the flag bit.
type NodeHandle uint32

// InnerFlag is the high bit of a NodeHandle, set iff the handle addresses
// the inner-node array.
const InnerFlag uint32 = 1 << 31

// Every uint32 decodes to *some* leaf or inner index, so there is no spare
// bit pattern to reserve as "nil" — queries that may find nothing (empty
// tree, missing key) return (NodeHandle, bool) instead of a sentinel value.

// leafHandle builds a handle addressing leaf_nodes[i].
func leafHandle(i uint32) NodeHandle { return NodeHandle(i) }

// innerHandle builds a handle addressing inner_nodes[i] via bitwise NOT,
// per spec.md §3 ("else it indexes inner_nodes[!h]").
func innerHandle(i uint32) NodeHandle { return NodeHandle(^i) }

// IsInner reports whether h addresses the inner-node array.
func (h NodeHandle) IsInner() bool { return uint32(h)&InnerFlag != 0 }

// Index recovers the underlying array index, dispatching on IsInner.
func (h NodeHandle) Index() uint32 {
	if h.IsInner() {
		return ^uint32(h)
	}
	return uint32(h)
}

// LeafNode mirrors spec.md §3's LeafNode record.
type LeafNode struct {
	Key         orderid.ID
	BaseQty     uint64
}

// InnerNode mirrors spec.md §3's InnerNode record.
type InnerNode struct {
	Key       orderid.ID
	PrefixLen uint64
	Children  [2]NodeHandle
}

func encodeID(buf []byte, id orderid.ID) {
	binary.LittleEndian.PutUint64(buf[0:8], id.Lo)
	binary.LittleEndian.PutUint64(buf[8:16], id.Hi)
}

func decodeID(buf []byte) orderid.ID {
	return orderid.ID{
		Lo: binary.LittleEndian.Uint64(buf[0:8]),
		Hi: binary.LittleEndian.Uint64(buf[8:16]),
	}
}

func encodeLeaf(buf []byte, l LeafNode) {
	encodeID(buf[0:16], l.Key)
	binary.LittleEndian.PutUint64(buf[16:24], l.BaseQty)
}

func decodeLeaf(buf []byte) LeafNode {
	return LeafNode{Key: decodeID(buf[0:16]), BaseQty: binary.LittleEndian.Uint64(buf[16:24])}
}

func encodeInner(buf []byte, n InnerNode) {
	encodeID(buf[0:16], n.Key)
	binary.LittleEndian.PutUint64(buf[16:24], n.PrefixLen)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(n.Children[0]))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(n.Children[1]))
}

func decodeInner(buf []byte) InnerNode {
	return InnerNode{
		Key:       decodeID(buf[0:16]),
		PrefixLen: binary.LittleEndian.Uint64(buf[16:24]),
		Children: [2]NodeHandle{
			NodeHandle(binary.LittleEndian.Uint32(buf[24:28])),
			NodeHandle(binary.LittleEndian.Uint32(buf[28:32])),
		},
	}
}

// tagOf reads the 8-byte role tag prefixing every buffer (spec.md §3).
func tagOf(buf []byte) clobtypes.Tag {
	return clobtypes.Tag(binary.LittleEndian.Uint64(buf[0:tagSize]))
}

func setTag(buf []byte, t clobtypes.Tag) {
	binary.LittleEndian.PutUint64(buf[0:tagSize], uint64(t))
}
