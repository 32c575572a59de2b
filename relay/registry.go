// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relay

import "github.com/luxfi/geth/common"

// RegisterToken accepts a token for bridging with the given swap
// economics. Owner only. The native asset may be registered (its swap
// rate prices native swaps for every other token) but must keep a zero
// max native swap amount. Decimals past MaxTokenDecimals are rejected,
// keeping every transport scale factor representable.
func (g *Gateway) RegisterToken(
	caller common.Address,
	token common.Address,
	decimals uint8,
	swapRate uint64,
	maxNativeSwapAmount uint64,
	swapEnabled bool,
) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsOwner(caller) {
		return ErrOwnerOnly
	}
	if rec := g.tokens[token]; rec != nil && rec.IsRegistered {
		return ErrTokenAlreadyRegistered
	}
	if decimals > MaxTokenDecimals {
		return ErrInvalidDecimals
	}
	if swapRate == 0 {
		return ErrZeroSwapRate
	}
	if token == g.nativeToken && maxNativeSwapAmount != 0 {
		return ErrSwapsNotAllowedForNative
	}

	rec := &RegisteredToken{
		SwapRate:            swapRate,
		MaxNativeSwapAmount: maxNativeSwapAmount,
		SwapEnabled:         swapEnabled,
		Decimals:            decimals,
		IsRegistered:        true,
	}
	if err := g.persistToken(token, rec); err != nil {
		return err
	}
	g.tokens[token] = rec
	return nil
}

// DeregisterToken removes a token from the registry, resetting every
// field. Owner only. Re-registration starts from a clean record.
func (g *Gateway) DeregisterToken(caller, token common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsOwner(caller) {
		return ErrOwnerOnly
	}
	if rec := g.tokens[token]; rec == nil || !rec.IsRegistered {
		return ErrTokenNotRegistered
	}

	if err := g.persistTokenDelete(token); err != nil {
		return err
	}
	delete(g.tokens, token)
	return nil
}

// UpdateSwapRate sets a token's USD swap rate. Owner or assistant; zero
// is rejected.
func (g *Gateway) UpdateSwapRate(caller, token common.Address, swapRate uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsAuthorized(caller) {
		return ErrOwnerOrAssistantOnly
	}
	rec := g.tokens[token]
	if rec == nil || !rec.IsRegistered {
		return ErrTokenNotRegistered
	}
	if swapRate == 0 {
		return ErrZeroSwapRate
	}

	updated := *rec
	updated.SwapRate = swapRate
	if err := g.persistToken(token, &updated); err != nil {
		return err
	}
	*rec = updated
	return nil
}

// UpdateMaxNativeSwapAmount sets a token's per-redemption native payout
// cap. Owner or assistant. Zero is legal and disables native swaps for
// the token while keeping it accepted.
func (g *Gateway) UpdateMaxNativeSwapAmount(caller, token common.Address, maxAmount uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsAuthorized(caller) {
		return ErrOwnerOrAssistantOnly
	}
	rec := g.tokens[token]
	if rec == nil || !rec.IsRegistered {
		return ErrTokenNotRegistered
	}
	if token == g.nativeToken && maxAmount != 0 {
		return ErrSwapsNotAllowedForNative
	}

	updated := *rec
	updated.MaxNativeSwapAmount = maxAmount
	if err := g.persistToken(token, &updated); err != nil {
		return err
	}
	*rec = updated
	return nil
}

// SetSwapEnabled toggles native swaps for a token. Owner or assistant.
func (g *Gateway) SetSwapEnabled(caller, token common.Address, enabled bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsAuthorized(caller) {
		return ErrOwnerOrAssistantOnly
	}
	rec := g.tokens[token]
	if rec == nil || !rec.IsRegistered {
		return ErrTokenNotRegistered
	}

	updated := *rec
	updated.SwapEnabled = enabled
	if err := g.persistToken(token, &updated); err != nil {
		return err
	}
	*rec = updated
	return nil
}

// Token returns a copy of a token's registry record.
func (g *Gateway) Token(token common.Address) (RegisteredToken, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec := g.tokens[token]
	if rec == nil || !rec.IsRegistered {
		return RegisteredToken{}, ErrTokenNotRegistered
	}
	return *rec, nil
}
