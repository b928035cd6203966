package slab

import "github.com/openalpha/clobcore/pkg/orderid"

// FindMin walks from the root following the left (0) child at every inner
// node, returning the handle of the smallest-key leaf.
func (s *Slab) FindMin() (NodeHandle, bool) { return s.findExtreme(0) }

// FindMax walks from the root following the right (1) child at every inner
// node, returning the handle of the largest-key leaf.
func (s *Slab) FindMax() (NodeHandle, bool) { return s.findExtreme(1) }

func (s *Slab) findExtreme(dir int) (NodeHandle, bool) {
	if s.IsEmpty() {
		return 0, false
	}
	cur := s.RootNode()
	for cur.IsInner() {
		n := s.readInner(cur.Index())
		cur = n.Children[dir]
	}
	return cur, true
}

// FindByKey descends the trie comparing the search key's bits against each
// inner node's discriminating bit, landing on a leaf whose key may or may
// not equal k; the final equality check is what spec.md's find_by_key
// actually promises.
func (s *Slab) FindByKey(k orderid.ID) (NodeHandle, bool) {
	if s.IsEmpty() {
		return 0, false
	}
	cur := s.RootNode()
	for cur.IsInner() {
		n := s.readInner(cur.Index())
		dir := k.Bit(int(n.PrefixLen))
		cur = n.Children[dir]
	}
	leaf := s.readLeaf(cur.Index())
	if !leaf.Key.Equal(k) {
		return 0, false
	}
	return cur, true
}

// InsertLeaf implements spec.md §4.1's insertion algorithm: descend to the
// split point, clobber in place on an exact key match, otherwise splice in
// a fresh inner node above the divergence point. Returns the new leaf's
// handle and, if an existing leaf with the same key was clobbered, that
// leaf's prior contents.
//
// Both allocations (the fresh leaf, then the fresh inner node) are rolled
// back on failure — spec.md §9 flags the source as inconsistent about this
// across its two code paths and directs an implementation to always roll
// back both.
func (s *Slab) InsertLeaf(newLeaf LeafNode) (NodeHandle, *LeafNode, error) {
	if s.IsEmpty() {
		h, err := s.allocateLeaf()
		if err != nil {
			return 0, nil, err
		}
		s.writeLeaf(h.Index(), newLeaf)
		s.setRootNode(h)
		s.setLeafCount(1)
		return h, nil, nil
	}

	// Descend, tracking the last inner node and which child slot led to the
	// split point so we can rewrite it (or root_node, if the split point is
	// the root itself) once the new subtree is built.
	var parent NodeHandle
	var parentDir int
	haveParent := false
	cur := s.RootNode()
	var shared int

	for {
		if !cur.IsInner() {
			leaf := s.readLeaf(cur.Index())
			if leaf.Key.Equal(newLeaf.Key) {
				prev := leaf
				s.writeLeaf(cur.Index(), newLeaf)
				return cur, &prev, nil
			}
			shared = leaf.Key.Xor(newLeaf.Key).LeadingZeros()
			break
		}
		inner := s.readInner(cur.Index())
		shared = inner.Key.Xor(newLeaf.Key).LeadingZeros()
		if shared < int(inner.PrefixLen) {
			break
		}
		parent, parentDir, haveParent = cur, int(newLeaf.Key.Bit(int(inner.PrefixLen))), true
		cur = inner.Children[parentDir]
	}

	newLeafDir := int(newLeaf.Key.Bit(shared))

	leafH, err := s.allocateLeaf()
	if err != nil {
		return 0, nil, err
	}
	s.writeLeaf(leafH.Index(), newLeaf)

	innerH, err := s.allocateInner()
	if err != nil {
		s.freeLeaf(leafH) // roll back the leaf too (spec.md §9 open question)
		return 0, nil, err
	}

	var children [2]NodeHandle
	children[newLeafDir] = leafH
	children[1-newLeafDir] = cur
	s.writeInner(innerH.Index(), InnerNode{Key: newLeaf.Key, PrefixLen: uint64(shared), Children: children})

	if haveParent {
		s.rewriteChild(parent, parentDir, innerH)
	} else {
		s.setRootNode(innerH)
	}

	s.setLeafCount(s.LeafCount() + 1)
	return leafH, nil, nil
}

// RemoveByKey implements spec.md §4.1's removal algorithm.
func (s *Slab) RemoveByKey(k orderid.ID) (LeafNode, []byte, bool) {
	if s.IsEmpty() {
		return LeafNode{}, nil, false
	}

	root := s.RootNode()
	if !root.IsInner() {
		leaf := s.readLeaf(root.Index())
		if !leaf.Key.Equal(k) {
			return LeafNode{}, nil, false
		}
		cb := append([]byte(nil), s.GetCallbackInfo(root)...)
		s.freeLeaf(root)
		s.setLeafCount(0)
		return leaf, cb, true
	}

	type frame struct {
		handle NodeHandle
		dir    int
	}
	var path []frame
	cur := root
	for cur.IsInner() {
		inner := s.readInner(cur.Index())
		dir := int(k.Bit(int(inner.PrefixLen)))
		path = append(path, frame{cur, dir})
		cur = inner.Children[dir]
	}

	leaf := s.readLeaf(cur.Index())
	if !leaf.Key.Equal(k) {
		return LeafNode{}, nil, false
	}
	cb := append([]byte(nil), s.GetCallbackInfo(cur)...)

	parentFrame := path[len(path)-1]
	parent := s.readInner(parentFrame.handle.Index())
	other := parent.Children[1-parentFrame.dir]

	if len(path) >= 2 {
		gp := path[len(path)-2]
		s.rewriteChild(gp.handle, gp.dir, other)
	} else {
		s.setRootNode(other)
	}

	s.freeLeaf(cur)
	s.freeInner(parentFrame.handle)
	s.setLeafCount(s.LeafCount() - 1)
	return leaf, cb, true
}

// rewriteChild overwrites one of parent's two children in place, used by
// both InsertLeaf and RemoveByKey to splice a subtree without disturbing
// the rest of parent's record.
func (s *Slab) rewriteChild(parent NodeHandle, dir int, child NodeHandle) {
	n := s.readInner(parent.Index())
	n.Children[dir] = child
	s.writeInner(parent.Index(), n)
}

// Ascending/Descending walk order for Iterate.
type Order bool

const (
	Ascending  Order = true
	Descending Order = false
)

// Iterate performs a depth-first, stack-based traversal of every live leaf
// (spec.md §4.1 "Traversal / iteration"), calling fn with each leaf's
// handle and decoded record. Traversal stops early if fn returns false.
func (s *Slab) Iterate(order Order, fn func(h NodeHandle, l LeafNode) bool) {
	if s.IsEmpty() {
		return
	}
	stack := []NodeHandle{s.RootNode()}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !h.IsInner() {
			if !fn(h, s.readLeaf(h.Index())) {
				return
			}
			continue
		}
		n := s.readInner(h.Index())
		first, second := 0, 1
		if order == Ascending {
			// Push the larger-subtree child first so the smaller one pops
			// (and is visited) first.
			first, second = 1, 0
		}
		stack = append(stack, n.Children[first], n.Children[second])
	}
}
