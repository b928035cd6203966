package slab

import (
	"testing"

	"github.com/openalpha/clobcore/clobtypes"
	"github.com/openalpha/clobcore/pkg/orderid"
)

const testCallbackLen = 8

func newTestSlab(t *testing.T, innerCap uint32) *Slab {
	t.Helper()
	buf := make([]byte, BufferSize(innerCap, testCallbackLen))
	s, err := Initialize(buf, clobtypes.TagBids, testCallbackLen)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s
}

func key(price, seq uint64) orderid.ID { return orderid.ID{Hi: price, Lo: seq} }

func TestInsertFindMinMax(t *testing.T) {
	s := newTestSlab(t, 16)

	ks := []orderid.ID{key(10, 1), key(5, 2), key(20, 3), key(15, 4)}
	for _, k := range ks {
		if _, _, err := s.InsertLeaf(LeafNode{Key: k, BaseQty: 100}); err != nil {
			t.Fatalf("InsertLeaf(%v): %v", k, err)
		}
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants: %v", err)
	}

	minH, ok := s.FindMin()
	if !ok {
		t.Fatal("FindMin: empty")
	}
	if got := s.readLeaf(minH.Index()).Key; !got.Equal(key(5, 2)) {
		t.Fatalf("FindMin = %v, want %v", got, key(5, 2))
	}

	maxH, ok := s.FindMax()
	if !ok {
		t.Fatal("FindMax: empty")
	}
	if got := s.readLeaf(maxH.Index()).Key; !got.Equal(key(20, 3)) {
		t.Fatalf("FindMax = %v, want %v", got, key(20, 3))
	}
}

// TestInsertReplaceIdempotent covers P4: insert(l); insert(l') with the
// same key leaves exactly one leaf holding l''s contents, and returns
// Some(l) the second time.
func TestInsertReplaceIdempotent(t *testing.T) {
	s := newTestSlab(t, 8)
	k := key(10, 1)

	h1, prev1, err := s.InsertLeaf(LeafNode{Key: k, BaseQty: 100})
	if err != nil || prev1 != nil {
		t.Fatalf("first insert: h=%v prev=%v err=%v", h1, prev1, err)
	}

	h2, prev2, err := s.InsertLeaf(LeafNode{Key: k, BaseQty: 50})
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if prev2 == nil || prev2.BaseQty != 100 {
		t.Fatalf("second insert prev = %v, want BaseQty=100", prev2)
	}
	if h1 != h2 {
		t.Fatalf("clobber should reuse the handle: %v != %v", h1, h2)
	}
	if s.LeafCount() != 1 {
		t.Fatalf("LeafCount = %d, want 1", s.LeafCount())
	}
	if got := s.readLeaf(h2.Index()).BaseQty; got != 50 {
		t.Fatalf("final BaseQty = %d, want 50", got)
	}
}

// TestRoundTripFreeList covers P3: insert N distinct keys, remove them all
// in some order, leaf_count returns to zero and the free list accounts for
// every handed-out leaf handle.
func TestRoundTripFreeList(t *testing.T) {
	s := newTestSlab(t, 32)

	var ks []orderid.ID
	for i := uint64(0); i < 20; i++ {
		ks = append(ks, key(i*7%97, i))
	}
	for _, k := range ks {
		if _, _, err := s.InsertLeaf(LeafNode{Key: k, BaseQty: 1}); err != nil {
			t.Fatalf("InsertLeaf(%v): %v", k, err)
		}
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("after inserts: %v", err)
	}

	// Remove in reverse order.
	for i := len(ks) - 1; i >= 0; i-- {
		leaf, _, ok := s.RemoveByKey(ks[i])
		if !ok {
			t.Fatalf("RemoveByKey(%v): not found", ks[i])
		}
		if !leaf.Key.Equal(ks[i]) {
			t.Fatalf("removed wrong leaf: %v != %v", leaf.Key, ks[i])
		}
	}
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("after removes: %v", err)
	}
	if s.LeafCount() != 0 {
		t.Fatalf("LeafCount = %d, want 0", s.LeafCount())
	}
	if s.leafFreeListLen() != s.leafBumpIndex() {
		t.Fatalf("leaf free list len %d != bump index %d", s.leafFreeListLen(), s.leafBumpIndex())
	}
}

func TestRemoveMissingKeyReturnsFalse(t *testing.T) {
	s := newTestSlab(t, 4)
	s.InsertLeaf(LeafNode{Key: key(1, 1), BaseQty: 1})
	if _, _, ok := s.RemoveByKey(key(2, 2)); ok {
		t.Fatal("RemoveByKey found a key that was never inserted")
	}
}

func TestSlabOutOfSpace(t *testing.T) {
	s := newTestSlab(t, 2)
	for i := uint64(0); i < 3; i++ {
		if _, _, err := s.InsertLeaf(LeafNode{Key: key(i, i), BaseQty: 1}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if _, _, err := s.InsertLeaf(LeafNode{Key: key(99, 99), BaseQty: 1}); err != clobtypes.ErrSlabOutOfSpace {
		t.Fatalf("expected ErrSlabOutOfSpace, got %v", err)
	}
	// The slab must still be internally consistent after the failed insert
	// (with innerCap=2 all three leaf slots are in use, so the leaf
	// allocation itself fails and nothing is left allocated).
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants after OOS insert: %v", err)
	}
}

func TestTagMismatch(t *testing.T) {
	buf := make([]byte, BufferSize(8, testCallbackLen))
	if _, err := Initialize(buf, clobtypes.TagBids, testCallbackLen); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := FromBuffer(buf, clobtypes.TagAsks, testCallbackLen); err == nil {
		t.Fatal("expected tag mismatch error")
	}
}

func TestCallbackInfoRoundTrip(t *testing.T) {
	s := newTestSlab(t, 4)
	h, _, err := s.InsertLeaf(LeafNode{Key: key(1, 1), BaseQty: 1})
	if err != nil {
		t.Fatalf("InsertLeaf: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	s.SetCallbackInfo(h, want)
	got := s.GetCallbackInfo(h)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("GetCallbackInfo = %v, want %v", got, want)
		}
	}
}

func TestIterateAscendingOrder(t *testing.T) {
	s := newTestSlab(t, 16)
	prices := []uint64{30, 10, 50, 20, 40}
	for i, p := range prices {
		s.InsertLeaf(LeafNode{Key: key(p, uint64(i)), BaseQty: 1})
	}
	var seen []uint64
	s.Iterate(Ascending, func(_ NodeHandle, l LeafNode) bool {
		seen = append(seen, l.Key.Hi)
		return true
	})
	want := []uint64{10, 20, 30, 40, 50}
	if len(seen) != len(want) {
		t.Fatalf("Iterate visited %d leaves, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("Iterate order = %v, want %v", seen, want)
		}
	}
}
