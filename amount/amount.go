// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package amount rescales token amounts between a token's native decimal
// precision and the 8-decimal precision carried by the cross-chain
// transport format. Any precision beyond 8 decimals is truncated on the
// way out and cannot be recovered on the way in.
package amount

import "errors"

// TransportDecimals is the decimal precision of amounts carried inside
// the cross-chain transport format.
const TransportDecimals uint8 = 8

// ErrOverflow is returned when a denormalized amount does not fit in a
// uint64.
var ErrOverflow = errors.New("denormalized amount overflows uint64")

// maxPow10 is the largest n with 10^n representable in a uint64.
const maxPow10 uint8 = 19

// pow10 returns 10^n, reporting false when the power does not fit in a
// uint64.
func pow10(n uint8) (uint64, bool) {
	if n > maxPow10 {
		return 0, false
	}
	p := uint64(1)
	for i := uint8(0); i < n; i++ {
		p *= 10
	}
	return p, true
}

// Normalize scales amount from a token with the given decimals down to
// transport precision, truncating toward zero. Tokens with 8 or fewer
// decimals pass through unchanged. Decimal spreads past uint64 range
// floor every representable amount to zero.
func Normalize(amount uint64, decimals uint8) uint64 {
	if decimals <= TransportDecimals {
		return amount
	}
	scale, ok := pow10(decimals - TransportDecimals)
	if !ok {
		return 0
	}
	return amount / scale
}

// Denormalize scales a transport-precision amount back up to the token's
// native decimals. It fails with ErrOverflow if the result does not fit
// in a uint64.
func Denormalize(amount uint64, decimals uint8) (uint64, error) {
	if decimals <= TransportDecimals {
		return amount, nil
	}
	if amount == 0 {
		return 0, nil
	}
	scale, ok := pow10(decimals - TransportDecimals)
	if !ok {
		return 0, ErrOverflow
	}
	out := amount * scale
	if out/amount != scale {
		return 0, ErrOverflow
	}
	return out, nil
}

// Transform returns the truncation-consistent amount: what amount becomes
// after a round trip through the transport format. All sender-side payout
// math must use the transformed amount so the debited balance matches
// what the receiving side can account for. Transform(x) <= x always.
func Transform(amount uint64, decimals uint8) uint64 {
	if decimals <= TransportDecimals {
		return amount
	}
	scale, ok := pow10(decimals - TransportDecimals)
	if !ok {
		return 0
	}
	return amount / scale * scale
}
