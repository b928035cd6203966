package cmd

import "github.com/google/uuid"

// fixtureAddress fabricates a 32-byte identity (market address, caller
// authority) for demo purposes by concatenating two random UUIDs — this
// CLI stands in for a host that would otherwise supply a real pubkey.
func fixtureAddress() [32]byte {
	var addr [32]byte
	a, b := uuid.New(), uuid.New()
	copy(addr[:16], a[:])
	copy(addr[16:], b[:])
	return addr
}

// fixtureCallbackInfo fabricates a callback-info payload whose leading
// demoCallbackIDLen bytes are a fresh UUID (the self-trade comparison
// projection) padded to demoCallbackInfoLen.
func fixtureCallbackInfo() []byte {
	info := make([]byte, demoCallbackInfoLen)
	id := uuid.New()
	copy(info, id[:])
	return info
}
