package eventqueue

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/openalpha/clobcore/clobtypes"
	"github.com/openalpha/clobcore/pkg/orderid"
)

const testCallbackLen = 8

func newTestQueue(t *testing.T, cap uint32) *EventQueue {
	t.Helper()
	buf := make([]byte, BufferSize(cap, testCallbackLen))
	q, err := Initialize(buf, testCallbackLen)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return q
}

func TestPushPopBasic(t *testing.T) {
	q := newTestQueue(t, 4)
	for i := 0; i < 4; i++ {
		out := &OutEvent{Side: clobtypes.SideAsk, BaseSize: uint64(i)}
		if err := q.PushBack(nil, out, []byte{byte(i)}, nil); err != nil {
			t.Fatalf("PushBack %d: %v", i, err)
		}
	}
	if !q.Full() {
		t.Fatal("expected Full after capacity pushes")
	}
	if err := q.PushBack(nil, &OutEvent{}, nil, nil); err != clobtypes.ErrEventQueueFull {
		t.Fatalf("expected ErrEventQueueFull, got %v", err)
	}

	n := q.PopN(2)
	if n != 2 {
		t.Fatalf("PopN = %d, want 2", n)
	}
	if q.Count() != 2 {
		t.Fatalf("Count = %d, want 2", q.Count())
	}
	ev, owner, _, ok := q.PeekAt(0)
	if !ok || ev.Out.BaseSize != 2 || owner[0] != 2 {
		t.Fatalf("PeekAt(0) = %+v owner=%v, want BaseSize=2 owner[0]=2", ev.Out, owner)
	}
}

// TestCircularDiscipline covers P5: after any sequence of push_back/pop_n,
// count == pushed - popped (clamped at 0 and cap), and PeekAt never exposes
// a slot outside [head, head+count).
func TestCircularDiscipline(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cap := uint32(rapid.IntRange(1, 8).Draw(rt, "cap"))
		buf := make([]byte, BufferSize(cap, testCallbackLen))
		q, err := Initialize(buf, testCallbackLen)
		if err != nil {
			rt.Fatalf("Initialize: %v", err)
		}

		var pushed, popped uint64
		nOps := rapid.IntRange(5, 60).Draw(rt, "nOps")
		for i := 0; i < nOps; i++ {
			if rapid.Boolean().Draw(rt, "doPush") {
				out := &OutEvent{Side: clobtypes.SideBid, BaseSize: pushed}
				err := q.PushBack(nil, out, nil, nil)
				if err == nil {
					pushed++
				} else if err != clobtypes.ErrEventQueueFull {
					rt.Fatalf("PushBack: %v", err)
				} else if !q.Full() {
					rt.Fatalf("PushBack failed but queue not full")
				}
			} else {
				n := uint64(rapid.IntRange(0, 3).Draw(rt, "popN"))
				got := q.PopN(n)
				if got > n {
					rt.Fatalf("PopN(%d) returned %d > n", n, got)
				}
				popped += got
			}
			if want := pushed - popped; q.Count() != want {
				rt.Fatalf("Count=%d, want %d (pushed=%d popped=%d)", q.Count(), want, pushed, popped)
			}
			// Every live slot must round-trip its BaseSize as a monotonic
			// tag of push order (head's event was pushed first among the
			// live ones).
			var prev uint64
			var first = true
			q.Iterate(func(_ uint64, ev Event, _, _ []byte) bool {
				if !first && ev.Out.BaseSize <= prev {
					rt.Fatalf("Iterate order violated: %d after %d", ev.Out.BaseSize, prev)
				}
				prev = ev.Out.BaseSize
				first = false
				return true
			})
		}
	})
}

// TestGenOrderIDInjective covers P6: gen_order_id never returns the same id
// twice for a given queue, across both sides.
func TestGenOrderIDInjective(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		q := newTestQueue(t, 1)
		seen := map[orderid.ID]bool{}
		n := rapid.IntRange(1, 200).Draw(rt, "n")
		for i := 0; i < n; i++ {
			price := uint64(rapid.IntRange(0, 5).Draw(rt, "price"))
			side := clobtypes.SideBid
			if rapid.Boolean().Draw(rt, "ask") {
				side = clobtypes.SideAsk
			}
			id := q.GenOrderID(price, side)
			if seen[id] {
				rt.Fatalf("GenOrderID produced a duplicate id %v at iteration %d", id, i)
			}
			seen[id] = true
		}
	})
}
