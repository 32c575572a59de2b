// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relay

import "github.com/luxfi/geth/common"

// RegisterForeignContract records the trusted counterpart contract for a
// chain together with its USD relayer fee. Owner only. Registering a
// chain again overwrites the stored address and fee; the protocol allows
// address rotation this way.
//
// The address must be exactly 32 bytes; shorter or longer inputs are
// rejected rather than padded or truncated.
func (g *Gateway) RegisterForeignContract(
	caller common.Address,
	chain uint16,
	address []byte,
	relayerFee uint64,
) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsOwner(caller) {
		return ErrOwnerOnly
	}
	if chain == 0 || chain == g.chainID {
		return ErrInvalidChain
	}
	if len(address) != common.HashLength {
		return ErrInvalidContract
	}
	addr := common.BytesToHash(address)
	if addr == (common.Hash{}) {
		return ErrInvalidContract
	}

	fc := &ForeignContract{
		Chain:      chain,
		Address:    addr,
		RelayerFee: relayerFee,
	}
	if err := g.persistContract(fc); err != nil {
		return err
	}
	g.contracts[chain] = fc
	return nil
}

// UpdateRelayerFee sets the USD fee owed for relaying transfers to an
// already-registered chain. Owner or assistant.
func (g *Gateway) UpdateRelayerFee(caller common.Address, chain uint16, fee uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsAuthorized(caller) {
		return ErrOwnerOrAssistantOnly
	}
	fc := g.contracts[chain]
	if fc == nil {
		return ErrChainNotRegistered
	}

	updated := *fc
	updated.RelayerFee = fee
	if err := g.persistContract(&updated); err != nil {
		return err
	}
	*fc = updated
	return nil
}

// ForeignContractFor returns a copy of the registered counterpart for a
// chain.
func (g *Gateway) ForeignContractFor(chain uint16) (ForeignContract, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	fc := g.contracts[chain]
	if fc == nil {
		return ForeignContract{}, ErrChainNotRegistered
	}
	return *fc, nil
}
