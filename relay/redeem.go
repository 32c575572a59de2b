// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relay

import (
	"math"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/relayer/amount"
	"github.com/luxfi/relayer/custody"
	"github.com/luxfi/relayer/message"
	"github.com/luxfi/relayer/transport"
)

// CompleteTransferWithRelay redeems a verified inbound transfer. The
// caller is the principal submitting the redemption (usually an
// off-chain relayer) and nativePayment is the native currency it offers
// toward the recipient's swap; at least the quoted swap output is
// required. When the caller is the recipient itself, fee and swap are
// skipped and the whole transferred amount is released.
//
// The entire transition is atomic: every failure leaves the registries,
// the redemption record set, and all balances untouched, and the
// transfer stays in escrow for a later attempt. At most one call per
// envelope hash ever reaches payout; subsequent calls fail with
// ErrAlreadyRedeemed.
func (g *Gateway) CompleteTransferWithRelay(
	env *transport.Envelope,
	caller common.Address,
	nativePayment uint64,
) (*RedemptionRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if env.TargetChain != g.chainID {
		return nil, ErrInvalidTransferTarget
	}

	// The declared source must be the registered counterpart for that
	// chain. An unregistered chain can never match.
	fc := g.contracts[env.SourceChain]
	if fc == nil || fc.Address != env.SourceAddress {
		return nil, ErrInvalidForeignContract
	}

	hash := env.Digest()
	if g.redeemed[hash] != nil {
		return nil, ErrAlreadyRedeemed
	}

	msg, err := message.Decode(env.Payload)
	if err != nil {
		return nil, err
	}

	token := common.BytesToAddress(env.TokenAddress.Bytes())
	rec := g.tokens[token]
	if rec == nil || !rec.IsRegistered {
		return nil, ErrTokenNotRegistered
	}

	transferAmount, err := denormalizeField(env.Amount, rec.Decimals)
	if err != nil {
		return nil, err
	}
	relayerFee, err := denormalizeField(msg.TargetRelayerFee, rec.Decimals)
	if err != nil {
		return nil, err
	}
	toNativeAmount, err := denormalizeField(msg.ToNativeTokenAmount, rec.Decimals)
	if err != nil {
		return nil, err
	}

	recipient := common.BytesToAddress(msg.Recipient[:])

	// Custody must be able to cover the full payout before anything
	// moves; the releases below are then infallible, keeping the
	// transition all-or-nothing.
	if g.custodian.EscrowedBalance(token) < transferAmount {
		return nil, custody.ErrInsufficientEscrow
	}

	switch {
	case caller == recipient:
		// Self-redemption: no payout splitting.
		if err := g.custodian.Release(token, transferAmount, recipient); err != nil {
			return nil, err
		}

	case token == g.nativeToken:
		// The bridged asset is this chain's own native currency coming
		// back. The relayer keeps the wrapped tokens and settles the
		// recipient in native units, less the relayer fee. No swap.
		if relayerFee > transferAmount {
			relayerFee = transferAmount
		}
		owed := transferAmount - relayerFee
		if g.custodian.NativeBalance(caller) < owed {
			return nil, ErrInsufficientSwapPayment
		}
		if err := g.custodian.Release(token, transferAmount, caller); err != nil {
			return nil, err
		}
		if err := g.custodian.MoveNative(caller, recipient, owed); err != nil {
			return nil, err
		}

	default:
		swapIn, nativeOut, err := g.calculateNativeSwapAmounts(rec, toNativeAmount)
		if err != nil {
			return nil, err
		}
		if nativePayment < nativeOut || g.custodian.NativeBalance(caller) < nativeOut {
			return nil, ErrInsufficientSwapPayment
		}

		// Fee plus swapped tokens go to the fee recipient; an inbound
		// message whose fee cannot be covered by the transfer is
		// rejected (the recipient can still self-redeem).
		if relayerFee > math.MaxUint64-swapIn || swapIn+relayerFee > transferAmount {
			return nil, ErrFeeCalculation
		}
		feeAndSwap := swapIn + relayerFee

		if nativeOut > 0 {
			if err := g.custodian.MoveNative(caller, recipient, nativeOut); err != nil {
				return nil, err
			}
			g.log.Info("swap executed",
				"recipient", recipient,
				"relayer", caller,
				"token", token,
				"tokenAmount", swapIn,
				"nativeAmount", nativeOut,
			)
		}
		if feeAndSwap > 0 {
			if err := g.custodian.Release(token, feeAndSwap, g.ownership.FeeRecipient); err != nil {
				return nil, err
			}
		}
		if err := g.custodian.Release(token, transferAmount-feeAndSwap, recipient); err != nil {
			return nil, err
		}
	}

	record := &RedemptionRecord{
		Hash:          hash,
		SourceChain:   env.SourceChain,
		SourceAddress: env.SourceAddress,
		Sequence:      env.Sequence,
		Recipient:     recipient,
		Amount:        transferAmount,
	}
	g.redeemed[hash] = record
	// Custody already moved, so the in-memory record must stand even if
	// the write-through fails. The record is re-persisted on restart
	// only if the operator replays it.
	if err := g.persistRedemption(record); err != nil {
		g.log.Error("failed to persist redemption record",
			"hash", hash,
			"err", err,
		)
	}

	g.log.Info("transfer redeemed",
		"sourceChain", env.SourceChain,
		"sourceAddress", env.SourceAddress,
		"sequence", env.Sequence,
		"recipient", recipient,
		"amount", transferAmount,
	)
	return record, nil
}

// IsRedeemed reports whether an envelope hash has already been redeemed.
func (g *Gateway) IsRedeemed(hash common.Hash) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.redeemed[hash] != nil
}

// denormalizeField converts a transport-precision u256 payload field to
// the token's native decimals, rejecting values that cannot fit.
func denormalizeField(x *uint256.Int, decimals uint8) (uint64, error) {
	if x == nil {
		return 0, nil
	}
	if !x.IsUint64() {
		return 0, ErrAmountOverflow
	}
	out, err := amount.Denormalize(x.Uint64(), decimals)
	if err != nil {
		return 0, ErrAmountOverflow
	}
	return out, nil
}
