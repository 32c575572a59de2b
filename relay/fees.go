// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relay

import (
	"math/big"

	"github.com/luxfi/geth/common"
)

// All fee and swap math floors. Inputs and outputs are uint64;
// intermediates run through big.Int so misconfigured rates surface as
// overflow errors instead of silent wraparound.

func pow10Big(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

func toUint64(x *big.Int) (uint64, bool) {
	if !x.IsUint64() {
		return 0, false
	}
	return x.Uint64(), true
}

// RelayerFeeInTokens quotes the fee owed to a relayer for a transfer to
// targetChain, denominated in token units at the token's own decimals:
//
//	floor(relayerFee * 10^decimals * swapRatePrecision /
//	      (relayerFeePrecision * swapRate))
//
// The quote uses current registry state; on the destination chain it is
// re-evaluated at redemption time, so it is a quote, not a lock.
func (g *Gateway) RelayerFeeInTokens(targetChain uint16, token common.Address) (uint64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.relayerFeeInTokens(targetChain, token)
}

func (g *Gateway) relayerFeeInTokens(targetChain uint16, token common.Address) (uint64, error) {
	fc := g.contracts[targetChain]
	if fc == nil {
		return 0, ErrChainNotRegistered
	}
	rec := g.tokens[token]
	if rec == nil || !rec.IsRegistered {
		return 0, ErrTokenNotRegistered
	}

	num := new(big.Int).SetUint64(fc.RelayerFee)
	num.Mul(num, pow10Big(rec.Decimals))
	num.Mul(num, new(big.Int).SetUint64(uint64(g.swapRatePrecision)))

	den := new(big.Int).SetUint64(uint64(g.relayerFeePrecision))
	den.Mul(den, new(big.Int).SetUint64(rec.SwapRate))

	fee, ok := toUint64(num.Div(num, den))
	if !ok {
		return 0, ErrFeeCalculation
	}
	return fee, nil
}

// NativeSwapRate returns the rate between the native asset and token,
// scaled by the swap rate precision.
func (g *Gateway) NativeSwapRate(token common.Address) (uint64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec := g.tokens[token]
	if rec == nil || !rec.IsRegistered {
		return 0, ErrTokenNotRegistered
	}
	native := g.tokens[g.nativeToken]
	if native == nil || !native.IsRegistered {
		return 0, ErrTokenNotRegistered
	}
	return g.nativeSwapRate(rec, native)
}

func (g *Gateway) nativeSwapRate(rec, native *RegisteredToken) (uint64, error) {
	rate := new(big.Int).SetUint64(uint64(g.swapRatePrecision))
	rate.Mul(rate, new(big.Int).SetUint64(native.SwapRate))
	rate.Div(rate, new(big.Int).SetUint64(rec.SwapRate))

	// A zero rate means the registry is grossly misconfigured; refuse
	// to quote rather than round every swap to nothing.
	if rate.Sign() == 0 {
		return 0, ErrInvalidSwapCalculation
	}
	out, ok := toUint64(rate)
	if !ok {
		return 0, ErrInvalidSwapCalculation
	}
	return out, nil
}

// maxSwapAmountIn converts a token's native payout cap into the largest
// token amount a redemption may swap, rescaling between the token's and
// the native asset's decimals.
func (g *Gateway) maxSwapAmountIn(rec *RegisteredToken, nativeSwapRate uint64) (uint64, error) {
	maxIn := new(big.Int).SetUint64(rec.MaxNativeSwapAmount)
	maxIn.Mul(maxIn, new(big.Int).SetUint64(nativeSwapRate))

	if rec.Decimals > g.nativeDecimals {
		maxIn.Mul(maxIn, pow10Big(rec.Decimals-g.nativeDecimals))
		maxIn.Div(maxIn, new(big.Int).SetUint64(uint64(g.swapRatePrecision)))
	} else {
		den := pow10Big(g.nativeDecimals - rec.Decimals)
		den.Mul(den, new(big.Int).SetUint64(uint64(g.swapRatePrecision)))
		maxIn.Div(maxIn, den)
	}

	out, ok := toUint64(maxIn)
	if !ok {
		return 0, ErrInvalidSwapCalculation
	}
	return out, nil
}

// CalculateNativeSwapAmounts quotes a native swap for a redemption: the
// token amount actually swapped in and the native currency paid out.
// The requested toNativeTokenAmount (token units at the token's own
// decimals) is clamped so the payout never exceeds the token's cap; when
// clamped, the swapped token amount shrinks in proportion so debit and
// credit stay consistent. Swaps disabled for the token, a zero request,
// or a payout that floors to zero all quote as (0, 0).
func (g *Gateway) CalculateNativeSwapAmounts(token common.Address, toNativeTokenAmount uint64) (swapIn, nativeOut uint64, err error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec := g.tokens[token]
	if rec == nil || !rec.IsRegistered {
		return 0, 0, ErrTokenNotRegistered
	}
	return g.calculateNativeSwapAmounts(rec, toNativeTokenAmount)
}

func (g *Gateway) calculateNativeSwapAmounts(rec *RegisteredToken, toNativeTokenAmount uint64) (swapIn, nativeOut uint64, err error) {
	if toNativeTokenAmount == 0 || rec.MaxNativeSwapAmount == 0 || !rec.SwapEnabled {
		return 0, 0, nil
	}

	native := g.tokens[g.nativeToken]
	if native == nil || !native.IsRegistered {
		return 0, 0, ErrTokenNotRegistered
	}

	nativeSwapRate, err := g.nativeSwapRate(rec, native)
	if err != nil {
		return 0, 0, err
	}

	maxIn, err := g.maxSwapAmountIn(rec, nativeSwapRate)
	if err != nil {
		return 0, 0, err
	}
	if toNativeTokenAmount > maxIn {
		toNativeTokenAmount = maxIn
	}

	out := new(big.Int).SetUint64(uint64(g.swapRatePrecision))
	out.Mul(out, new(big.Int).SetUint64(toNativeTokenAmount))
	if rec.Decimals > g.nativeDecimals {
		den := new(big.Int).SetUint64(nativeSwapRate)
		den.Mul(den, pow10Big(rec.Decimals-g.nativeDecimals))
		out.Div(out, den)
	} else {
		out.Mul(out, pow10Big(g.nativeDecimals-rec.Decimals))
		out.Div(out, new(big.Int).SetUint64(nativeSwapRate))
	}

	nativeOut, ok := toUint64(out)
	if !ok {
		return 0, 0, ErrInvalidSwapCalculation
	}

	// Rounding toward zero can wipe out tiny requests entirely; in that
	// case nothing is swapped and nothing is debited.
	if nativeOut == 0 {
		return 0, 0, nil
	}
	return toNativeTokenAmount, nativeOut, nil
}
