package eventqueue

import (
	"encoding/binary"
	"fmt"

	"github.com/openalpha/clobcore/clobtypes"
	"github.com/openalpha/clobcore/pkg/orderid"
)

// EventQueue is a typed view over a caller-owned byte buffer holding a
// fixed-capacity circular queue of events (spec.md §4.2). Layout:
//
//	[0:8)    tag
//	[8:32)   header (head, count, seq_num — all uint64)
//	events   cap * 40-byte tagged slots
//	callbacks 2*cap * callbackInfoLen (maker/owner at 2i, taker at 2i+1)
//
// Like Slab, an EventQueue holds no state beyond the buffer and the
// layout derived from its length.
type EventQueue struct {
	buf             []byte
	callbackInfoLen int
	cap             uint32
	eventsOff       int
	callbackOff     int
}

// FromBuffer aliases buf as an EventQueue view, verifying its tag.
func FromBuffer(buf []byte, callbackInfoLen int) (*EventQueue, error) {
	if len(buf) < tagSize+headerSize {
		return nil, fmt.Errorf("%w: buffer too small for event queue header", clobtypes.ErrInvalidAccountData)
	}
	if tagOf(buf) != clobtypes.TagEventQueue {
		return nil, fmt.Errorf("%w: event queue tag %s, want %s", clobtypes.ErrInvalidAccountData, tagOf(buf), clobtypes.TagEventQueue)
	}
	q := &EventQueue{buf: buf, callbackInfoLen: callbackInfoLen}
	q.computeLayout()
	return q, nil
}

func (q *EventQueue) computeLayout() {
	arraysOff := tagSize + headerSize
	slot := slotSize + 2*q.callbackInfoLen
	avail := len(q.buf) - arraysOff
	var c uint32
	if avail > 0 {
		c = uint32(avail / slot)
	}
	q.cap = c
	q.eventsOff = arraysOff
	q.callbackOff = q.eventsOff + int(c)*slotSize
}

// Initialize stamps an uninitialized buffer as an event queue.
func Initialize(buf []byte, callbackInfoLen int) (*EventQueue, error) {
	if len(buf) < tagSize+headerSize {
		return nil, fmt.Errorf("%w: buffer too small for event queue header", clobtypes.ErrInvalidAccountData)
	}
	if tagOf(buf) != clobtypes.TagUninitialized {
		return nil, fmt.Errorf("%w: event queue", clobtypes.ErrAlreadyInitialized)
	}
	for i := tagSize; i < tagSize+headerSize; i++ {
		buf[i] = 0
	}
	setTag(buf, clobtypes.TagEventQueue)
	q := &EventQueue{buf: buf, callbackInfoLen: callbackInfoLen}
	q.computeLayout()
	return q, nil
}

// BufferSize returns the byte length a buffer must have to hold cap events
// at the given callbackInfoLen, the inverse of computeLayout.
func BufferSize(cap uint32, callbackInfoLen int) int {
	slot := slotSize + 2*callbackInfoLen
	return tagSize + headerSize + int(cap)*slot
}

// Capacity is the number of event slots this buffer can hold.
func (q *EventQueue) Capacity() uint32 { return q.cap }

func (q *EventQueue) head() uint64      { return q.headerU64(offHead) }
func (q *EventQueue) setHead(v uint64)  { q.setHeaderU64(offHead, v) }
func (q *EventQueue) count() uint64     { return q.headerU64(offCount) }
func (q *EventQueue) setCount(v uint64) { q.setHeaderU64(offCount, v) }

func (q *EventQueue) seqNum() uint64     { return q.headerU64(offSeqNum) }
func (q *EventQueue) setSeqNum(v uint64) { q.setHeaderU64(offSeqNum, v) }

func (q *EventQueue) headerU64(off int) uint64 {
	return binary.LittleEndian.Uint64(q.buf[tagSize+off : tagSize+off+8])
}
func (q *EventQueue) setHeaderU64(off int, v uint64) {
	binary.LittleEndian.PutUint64(q.buf[tagSize+off:tagSize+off+8], v)
}

// Count is the number of live events currently queued (P5).
func (q *EventQueue) Count() uint64 { return q.count() }

// Full reports the queue has no room for another push_back.
func (q *EventQueue) Full() bool { return q.count() == uint64(q.cap) }

// Empty reports the queue holds no events.
func (q *EventQueue) Empty() bool { return q.count() == 0 }

func (q *EventQueue) slotBytes(i uint32) []byte {
	off := q.eventsOff + int(i)*slotSize
	return q.buf[off : off+slotSize]
}

func (q *EventQueue) callbackBytes(eventIdx uint32, which int) []byte {
	idx := 2*eventIdx + uint32(which)
	off := q.callbackOff + int(idx)*q.callbackInfoLen
	return q.buf[off : off+q.callbackInfoLen]
}

// PushBack appends exactly one of fill/out (the other must be nil) plus its
// associated callback infos (spec.md §4.2 push_back). ownerInfo is stored at
// slot 2i (maker for a Fill, the owner for an Out), takerInfo at 2i+1 (taker
// for a Fill; nil/ignored for an Out). Returns ErrEventQueueFull when the
// queue has no free slot (back-pressure: callers must pop_n before
// continuing to match).
func (q *EventQueue) PushBack(fill *FillEvent, out *OutEvent, ownerInfo, takerInfo []byte) error {
	if q.Full() {
		return clobtypes.ErrEventQueueFull
	}
	pos := uint32((q.head() + q.count()) % uint64(q.cap))
	buf := q.slotBytes(pos)
	switch {
	case fill != nil:
		encodeFill(buf, *fill)
	case out != nil:
		encodeOut(buf, *out)
	default:
		return fmt.Errorf("PushBack: exactly one of fill/out must be non-nil")
	}
	if ownerInfo != nil {
		copy(q.callbackBytes(pos, 0), ownerInfo)
	}
	if takerInfo != nil {
		copy(q.callbackBytes(pos, 1), takerInfo)
	}
	q.setCount(q.count() + 1)
	return nil
}

// PopN advances head by min(n, count()), discarding that many events from
// the front (spec.md §4.2 pop_n). Returns the number actually popped.
func (q *EventQueue) PopN(n uint64) uint64 {
	popped := n
	if popped > q.count() {
		popped = q.count()
	}
	if q.cap > 0 {
		q.setHead((q.head() + popped) % uint64(q.cap))
	}
	q.setCount(q.count() - popped)
	return popped
}

// PeekAt returns the i-th live event (0 = the event at head) along with its
// owner/taker callback infos, without removing it. ok is false when i is
// out of [0, Count()).
func (q *EventQueue) PeekAt(i uint64) (ev Event, ownerInfo, takerInfo []byte, ok bool) {
	if i >= q.count() {
		return Event{}, nil, nil, false
	}
	pos := uint32((q.head() + i) % uint64(q.cap))
	ev = decodeEvent(q.slotBytes(pos))
	ownerInfo = q.callbackBytes(pos, 0)
	takerInfo = q.callbackBytes(pos, 1)
	return ev, ownerInfo, takerInfo, true
}

// Iterate visits all live events from head to tail in queue order, stopping
// early if fn returns false.
func (q *EventQueue) Iterate(fn func(i uint64, ev Event, ownerInfo, takerInfo []byte) bool) {
	for i := uint64(0); i < q.count(); i++ {
		ev, ownerInfo, takerInfo, _ := q.PeekAt(i)
		if !fn(i, ev, ownerInfo, takerInfo) {
			return
		}
	}
}

// GenOrderID atomically increments seq_num and derives a fresh 128-bit
// order id from (price, side) per spec.md §3's "order id generation": high
// bits are price, low bits are the sequence number, inverted on the bid
// side so that bitwise comparison still yields "most aggressive first" on
// both sides of the book (see pkg/orderid.New).
func (q *EventQueue) GenOrderID(price uint64, side clobtypes.Side) orderid.ID {
	seq := q.seqNum()
	q.setSeqNum(seq + 1)
	return orderid.New(price, seq, side == clobtypes.SideBid)
}
