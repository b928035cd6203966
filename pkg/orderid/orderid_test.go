package orderid

import "testing"

func TestCompareOrdering(t *testing.T) {
	a := ID{Hi: 10, Lo: 5}
	b := ID{Hi: 10, Lo: 6}
	c := ID{Hi: 11, Lo: 0}

	if !a.Less(b) {
		t.Fatalf("expected %v < %v", a, b)
	}
	if !b.Less(c) {
		t.Fatalf("expected %v < %v", b, c)
	}
	if a.Compare(a) != 0 {
		t.Fatalf("expected equal id to compare 0")
	}
	if c.Compare(a) != 1 {
		t.Fatalf("expected %v > %v", c, a)
	}
}

func TestNewInvertsLowOnBidSide(t *testing.T) {
	bid := New(100, 1, true)
	ask := New(100, 1, false)

	if bid.Lo != ^uint64(1) {
		t.Fatalf("bid low bits not inverted: %x", bid.Lo)
	}
	if ask.Lo != 1 {
		t.Fatalf("ask low bits unexpectedly altered: %x", ask.Lo)
	}

	// Among same-price bids, an earlier (smaller) sequence number must sort
	// as the bitwise maximum once inverted, since "for bids, best = find_max".
	earlier := New(100, 1, true)
	later := New(100, 2, true)
	if !later.Less(earlier) {
		t.Fatalf("expected later-sequence bid %v to sort below earlier %v", later, earlier)
	}
}

func TestLeadingZerosAndBit(t *testing.T) {
	id := ID{Hi: 0, Lo: 1}
	if got := id.LeadingZeros(); got != 127 {
		t.Fatalf("LeadingZeros() = %d, want 127", got)
	}
	if id.Bit(127) != 1 {
		t.Fatalf("Bit(127) = %d, want 1", id.Bit(127))
	}
	if id.Bit(0) != 0 {
		t.Fatalf("Bit(0) = %d, want 0", id.Bit(0))
	}

	top := ID{Hi: 1 << 63, Lo: 0}
	if got := top.LeadingZeros(); got != 0 {
		t.Fatalf("LeadingZeros() = %d, want 0", got)
	}
	if top.Bit(0) != 1 {
		t.Fatalf("Bit(0) = %d, want 1", top.Bit(0))
	}
}

func TestXor(t *testing.T) {
	a := ID{Hi: 0xFF, Lo: 0x0F}
	b := ID{Hi: 0x0F, Lo: 0xFF}
	x := a.Xor(b)
	if x.Hi != 0xF0 || x.Lo != 0xF0 {
		t.Fatalf("Xor = %v, want {Hi:0xF0 Lo:0xF0}", x)
	}
}
