package slab

import "fmt"

// CheckInvariants walks the whole trie and free lists and verifies I2, I3,
// I4 (at each leaf child), I5 and I6 of spec.md §3. I1 holds by
// construction and I7 (key uniqueness) is not checked here. It is O(n) and intended for tests/property checks, not the
// hot path — but it is exported because "does the slab look sane" is a
// useful question for a host layer to ask after a batch of mutations too.
func (s *Slab) CheckInvariants() error {
	if err := s.checkFreeList(false); err != nil {
		return err
	}
	if err := s.checkFreeList(true); err != nil {
		return err
	}

	liveLeaves, liveInner, err := s.walkCount()
	if err != nil {
		return err
	}

	if s.IsEmpty() {
		if liveLeaves != 0 {
			return fmt.Errorf("I2 violated: leaf_count=0 but trie reaches %d leaves", liveLeaves)
		}
	} else if liveLeaves != int(s.LeafCount()) {
		return fmt.Errorf("I2 violated: leaf_count=%d but trie reaches %d leaves", s.LeafCount(), liveLeaves)
	}

	// I5: live_leaves + leaf_free_list_len == leaf_bump_index, and the
	// analogous identity for inner nodes. liveInner = liveLeaves-1 for a
	// nonempty trie (one inner node per split), 0 for an empty one.
	if got, want := uint32(liveLeaves)+s.leafFreeListLen(), s.leafBumpIndex(); got != want {
		return fmt.Errorf("I5 violated (leaf): live(%d)+free_len(%d)=%d != bump_index(%d)", liveLeaves, s.leafFreeListLen(), got, want)
	}
	if got, want := uint32(liveInner)+s.innerFreeListLen(), s.innerBumpIndex(); got != want {
		return fmt.Errorf("I5 violated (inner): live(%d)+free_len(%d)=%d != bump_index(%d)", liveInner, s.innerFreeListLen(), got, want)
	}

	return nil
}

// walkCount performs the I3/I4 structural check while counting live nodes.
func (s *Slab) walkCount() (leaves, inner int, err error) {
	if s.IsEmpty() {
		return 0, 0, nil
	}
	var rec func(h NodeHandle, minPrefix int) error
	rec = func(h NodeHandle, minPrefix int) error {
		if !h.IsInner() {
			leaves++
			return nil
		}
		inner++
		n := s.readInner(h.Index())
		if int(n.PrefixLen) < minPrefix {
			return fmt.Errorf("I3 violated: prefix_len %d not increasing (parent floor %d)", n.PrefixLen, minPrefix)
		}
		for dir, child := range n.Children {
			if !child.IsInner() {
				leaf := s.readLeaf(child.Index())
				if int(leaf.Key.Bit(int(n.PrefixLen))) != dir {
					return fmt.Errorf("I4 violated: child %d leaf key disagrees with split bit", dir)
				}
			}
			if err := rec(child, int(n.PrefixLen)+1); err != nil {
				return err
			}
		}
		return nil
	}
	err = rec(s.RootNode(), 0)
	return leaves, inner, err
}

// checkFreeList verifies I6: following head by chained "next" fields visits
// exactly free_list_len slots and terminates without cycling.
func (s *Slab) checkFreeList(inner bool) error {
	var length, head uint32
	var nextFn func(uint32) uint32
	if inner {
		length, head, nextFn = s.innerFreeListLen(), s.innerFreeListHead(), s.readInnerNextFree
	} else {
		length, head, nextFn = s.leafFreeListLen(), s.leafFreeListHead(), s.readLeafNextFree
	}

	seen := make(map[uint32]bool, length)
	cur := head
	for i := uint32(0); i < length; i++ {
		if seen[cur] {
			return fmt.Errorf("I6 violated: free list cycles at slot %d before reaching len %d", cur, length)
		}
		seen[cur] = true
		cur = nextFn(cur)
	}
	if uint32(len(seen)) != length {
		return fmt.Errorf("I6 violated: free list visited %d slots, want %d", len(seen), length)
	}
	return nil
}
