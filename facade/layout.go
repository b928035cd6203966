package facade

import (
	"encoding/binary"

	"github.com/openalpha/clobcore/clobtypes"
)

// Market buffer layout: [8 bytes tag][MarketState header]. MarketState
// carries the host-facing create_market params (spec.md §6) plus the
// paused flag pause_matching/resume_matching toggles.
const (
	tagSize    = 8
	headerSize = 88

	offPaused            = 0  // 1 byte, rest of the 8-byte slot is padding
	offCallerAuthority   = 8  // 32 bytes
	offCallbackInfoLen   = 40 // u32
	offCallbackIDLen     = 44 // u32
	offMinBaseOrderSize  = 48 // u64
	offMarketAddress     = 56 // 32 bytes
)

func tagOf(buf []byte) clobtypes.Tag {
	return clobtypes.Tag(binary.LittleEndian.Uint64(buf[0:tagSize]))
}

func setTag(buf []byte, t clobtypes.Tag) {
	binary.LittleEndian.PutUint64(buf[0:tagSize], uint64(t))
}

func headerBytes(buf []byte) []byte { return buf[tagSize : tagSize+headerSize] }
