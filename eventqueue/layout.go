// Package eventqueue implements the fixed-capacity circular buffer of
// Fill/Out events described in spec.md §3/§4.2: a single contiguous byte
// buffer holds a small header (head, count, seq_num), a flat array of
// 40-byte tagged event slots, and a parallel array of two callback-info
// payloads per slot (maker/owner, taker).
package eventqueue

import (
	"encoding/binary"

	"github.com/openalpha/clobcore/clobtypes"
	"github.com/openalpha/clobcore/pkg/orderid"
)

const (
	tagSize    = 8
	headerSize = 8 * 3 // head, count, seq_num
	slotSize   = 40

	offHead    = 0
	offCount   = 8
	offSeqNum  = 16
)

// EventTag discriminates the two event kinds sharing one 40-byte slot
// (spec.md §3 "Event variants").
type EventTag uint8

const (
	EventFill EventTag = iota
	EventOut
)

// FillEvent mirrors spec.md §3's FillEvent record.
type FillEvent struct {
	TakerSide    clobtypes.Side
	QuoteSize    uint64
	MakerOrderID orderid.ID
	BaseSize     uint64
}

// OutEvent mirrors spec.md §3's OutEvent record.
type OutEvent struct {
	Side     clobtypes.Side
	Delete   bool
	OrderID  orderid.ID
	BaseSize uint64
}

// Event is the decoded form of one queue slot: exactly one of Fill/Out is
// non-nil, discriminated by Tag.
type Event struct {
	Tag  EventTag
	Fill *FillEvent
	Out  *OutEvent
}

func encodeFill(buf []byte, e FillEvent) {
	buf[0] = byte(EventFill)
	buf[1] = byte(e.TakerSide)
	// bytes [2:8] are _pad, left zero.
	binary.LittleEndian.PutUint64(buf[8:16], e.QuoteSize)
	binary.LittleEndian.PutUint64(buf[16:24], e.MakerOrderID.Lo)
	binary.LittleEndian.PutUint64(buf[24:32], e.MakerOrderID.Hi)
	binary.LittleEndian.PutUint64(buf[32:40], e.BaseSize)
}

func encodeOut(buf []byte, e OutEvent) {
	buf[0] = byte(EventOut)
	buf[1] = byte(e.Side)
	if e.Delete {
		buf[2] = 1
	} else {
		buf[2] = 0
	}
	// bytes [3:16] are _pad, left zero.
	binary.LittleEndian.PutUint64(buf[16:24], e.OrderID.Lo)
	binary.LittleEndian.PutUint64(buf[24:32], e.OrderID.Hi)
	binary.LittleEndian.PutUint64(buf[32:40], e.BaseSize)
}

func decodeEvent(buf []byte) Event {
	switch EventTag(buf[0]) {
	case EventOut:
		return Event{Tag: EventOut, Out: &OutEvent{
			Side:    clobtypes.Side(buf[1]),
			Delete:  buf[2] != 0,
			OrderID: orderid.ID{Lo: binary.LittleEndian.Uint64(buf[16:24]), Hi: binary.LittleEndian.Uint64(buf[24:32])},
			BaseSize: binary.LittleEndian.Uint64(buf[32:40]),
		}}
	default:
		return Event{Tag: EventFill, Fill: &FillEvent{
			TakerSide: clobtypes.Side(buf[1]),
			QuoteSize: binary.LittleEndian.Uint64(buf[8:16]),
			MakerOrderID: orderid.ID{Lo: binary.LittleEndian.Uint64(buf[16:24]), Hi: binary.LittleEndian.Uint64(buf[24:32])},
			BaseSize: binary.LittleEndian.Uint64(buf[32:40]),
		}}
	}
}

func tagOf(buf []byte) clobtypes.Tag {
	return clobtypes.Tag(binary.LittleEndian.Uint64(buf[0:tagSize]))
}

func setTag(buf []byte, t clobtypes.Tag) {
	binary.LittleEndian.PutUint64(buf[0:tagSize], uint64(t))
}
