// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relay

import "github.com/luxfi/geth/common"

// Ownership is a two-phase state machine: the owner nominates a pending
// owner, who must confirm before any authority changes hands. The owner
// can cancel a nomination at any point.

// Ownership returns a snapshot of the current owner configuration.
func (g *Gateway) Ownership() OwnerConfig {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ownership
}

// SubmitOwnershipTransfer nominates a new owner. Owner only; the zero
// address and the current owner are rejected.
func (g *Gateway) SubmitOwnershipTransfer(caller, newOwner common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsOwner(caller) {
		return ErrOwnerOnly
	}
	if newOwner == (common.Address{}) {
		return ErrInvalidAddress
	}
	if newOwner == g.ownership.Owner {
		return ErrAlreadyTheOwner
	}

	updated := g.ownership
	updated.PendingOwner = newOwner
	if err := g.persistOwnership(updated); err != nil {
		return err
	}
	g.ownership = updated
	return nil
}

// ConfirmOwnershipTransfer completes an in-flight transfer. Only the
// pending owner may call; on success the caller becomes owner and the
// pending slot is cleared.
func (g *Gateway) ConfirmOwnershipTransfer(caller common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsPendingOwner(caller) {
		return ErrNotPendingOwner
	}

	updated := g.ownership
	updated.Owner = caller
	updated.PendingOwner = common.Address{}
	if err := g.persistOwnership(updated); err != nil {
		return err
	}
	g.ownership = updated
	return nil
}

// CancelOwnershipTransfer clears the pending owner without changing the
// owner. Owner only.
func (g *Gateway) CancelOwnershipTransfer(caller common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsOwner(caller) {
		return ErrOwnerOnly
	}

	updated := g.ownership
	updated.PendingOwner = common.Address{}
	if err := g.persistOwnership(updated); err != nil {
		return err
	}
	g.ownership = updated
	return nil
}

// UpdateAssistant replaces the assistant key. Owner only; the zero
// address and the current assistant are rejected.
func (g *Gateway) UpdateAssistant(caller, newAssistant common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsOwner(caller) {
		return ErrOwnerOnly
	}
	if newAssistant == (common.Address{}) {
		return ErrInvalidAddress
	}
	if newAssistant == g.ownership.Assistant {
		return ErrAlreadyTheAssistant
	}

	updated := g.ownership
	updated.Assistant = newAssistant
	if err := g.persistOwnership(updated); err != nil {
		return err
	}
	g.ownership = updated
	return nil
}

// UpdateFeeRecipient replaces the recipient of relayer fees and swap
// proceeds. Owner only; the zero address and the current recipient are
// rejected.
func (g *Gateway) UpdateFeeRecipient(caller, newRecipient common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsOwner(caller) {
		return ErrOwnerOnly
	}
	if newRecipient == (common.Address{}) {
		return ErrInvalidAddress
	}
	if newRecipient == g.ownership.FeeRecipient {
		return ErrAlreadyTheFeeRecipient
	}

	updated := g.ownership
	updated.FeeRecipient = newRecipient
	if err := g.persistOwnership(updated); err != nil {
		return err
	}
	g.ownership = updated
	return nil
}
