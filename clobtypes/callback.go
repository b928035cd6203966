package clobtypes

import "bytes"

// CallbackInfo is the opaque, plain-old-data identity a caller attaches to
// an order. Its length is fixed per market (MarketConfig.CallbackInfoLen);
// the leading CallbackIDLen bytes are the projection compared for
// self-trade detection (spec.md §9's "fixed-size byte array with an
// application-supplied comparator" fallback for callers without generics).
type CallbackInfo []byte

// AsCallbackID returns the leading idLen bytes of the payload, the
// sub-projection used for self-trade equality (spec.md §4.4 step 4,
// §9 glossary "Callback info / id").
func (c CallbackInfo) AsCallbackID(idLen int) []byte {
	if idLen > len(c) {
		idLen = len(c)
	}
	return c[:idLen]
}

// SameCallbackID reports whether a and b share the same callback id
// projection, the test new_order performs before applying self-trade
// policy.
func SameCallbackID(a, b CallbackInfo, idLen int) bool {
	return bytes.Equal(a.AsCallbackID(idLen), b.AsCallbackID(idLen))
}
