// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relay

import (
	"math"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/relayer/amount"
	"github.com/luxfi/relayer/message"
)

// TransferTokensWithRelay escrows tokens for an outbound transfer and
// produces the relay instruction payload for the transport layer. The
// debited amount is truncated to transport consistency first, so the
// sender never loses precision the destination chain cannot account
// for. The transfer must cover the target chain's relayer fee plus the
// requested native swap with a nonzero remainder.
func (g *Gateway) TransferTokensWithRelay(
	sender common.Address,
	token common.Address,
	transferAmount uint64,
	toNativeTokenAmount uint64,
	targetChain uint16,
	recipient [32]byte,
) (*OutboundTransfer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.paused {
		return nil, ErrOutboundTransfersPaused
	}
	if transferAmount == 0 {
		return nil, ErrZeroBridgeAmount
	}
	rec := g.tokens[token]
	if rec == nil || !rec.IsRegistered {
		return nil, ErrTokenNotRegistered
	}
	fc := g.contracts[targetChain]
	if fc == nil {
		return nil, ErrChainNotRegistered
	}
	if recipient == ([32]byte{}) {
		return nil, ErrInvalidRecipient
	}

	// Truncate to what survives the transport round trip.
	truncated := amount.Transform(transferAmount, rec.Decimals)
	normalizedAmount := amount.Normalize(truncated, rec.Decimals)
	if normalizedAmount == 0 {
		return nil, ErrZeroBridgeAmount
	}

	normalizedToNative := amount.Normalize(toNativeTokenAmount, rec.Decimals)
	if toNativeTokenAmount != 0 && normalizedToNative == 0 {
		return nil, ErrInvalidToNativeAmount
	}

	relayerFee, err := g.relayerFeeInTokens(targetChain, token)
	if err != nil {
		return nil, err
	}
	normalizedFee := amount.Normalize(relayerFee, rec.Decimals)

	// The transfer must strictly exceed fee plus swap so the recipient
	// receives something.
	if normalizedToNative > math.MaxUint64-normalizedFee ||
		normalizedAmount <= normalizedToNative+normalizedFee {
		return nil, ErrInsufficientFunds
	}

	if err := g.custodian.Escrow(token, sender, truncated); err != nil {
		return nil, err
	}

	seq := g.sequences[sender]
	g.sequences[sender] = seq + 1

	msg := &message.TransferWithRelay{
		TargetRelayerFee:    uint256.NewInt(normalizedFee),
		ToNativeTokenAmount: uint256.NewInt(normalizedToNative),
		Recipient:           recipient,
	}

	g.log.Info("outbound transfer prepared",
		"sender", sender,
		"token", token,
		"targetChain", targetChain,
		"amount", truncated,
		"relayerFee", normalizedFee,
		"toNative", normalizedToNative,
		"sequence", seq,
	)

	return &OutboundTransfer{
		Sequence:         seq,
		TargetChain:      targetChain,
		TargetAddress:    fc.Address,
		Token:            token,
		Amount:           truncated,
		NormalizedAmount: normalizedAmount,
		Payload:          msg.Encode(),
	}, nil
}
