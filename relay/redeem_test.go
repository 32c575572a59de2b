// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relay

import (
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/relayer/custody"
	"github.com/luxfi/relayer/message"
	"github.com/luxfi/relayer/transport"
)

var (
	foreignAddr   = common.HexToHash("0x1234")
	testRelayer   = common.HexToAddress("0x60")
	testRecipient = common.HexToAddress("0x61")
)

// redeemFixture registers chain 2 as the source, an 8-decimal token at
// $10 with a 10-native swap cap, and the native asset at $420.
func redeemFixture(tb testing.TB) (*Gateway, *custody.Ledger, common.Address) {
	tb.Helper()
	g, ledger := newTestGateway(tb)

	token := common.HexToAddress("0x01")
	require.NoError(tb, g.RegisterForeignContract(testOwner, 2, foreignAddr.Bytes(), 0))
	require.NoError(tb, g.RegisterToken(testOwner, token, 8, 1_000_000_000, 10_000_000_000, true))
	require.NoError(tb, g.RegisterToken(testOwner, testNativeToken, 9, 42_000_000_000, 0, false))

	return g, ledger, token
}

// inboundEnvelope builds a verified transfer envelope from chain 2 for
// the given token. Amounts are in transport precision.
func inboundEnvelope(token common.Address, amount, fee, toNative, seq uint64, recipient common.Address) *transport.Envelope {
	msg := &message.TransferWithRelay{
		TargetRelayerFee:    uint256.NewInt(fee),
		ToNativeTokenAmount: uint256.NewInt(toNative),
		Recipient:           [32]byte(common.BytesToHash(recipient.Bytes())),
	}
	return &transport.Envelope{
		SourceChain:   2,
		SourceAddress: foreignAddr,
		Sequence:      seq,
		TargetChain:   1,
		TargetAddress: common.BytesToHash(foreignAddr.Bytes()),
		TokenChain:    2,
		TokenAddress:  common.BytesToHash(token.Bytes()),
		Amount:        uint256.NewInt(amount),
		Payload:       msg.Encode(),
	}
}

func TestCompleteTransferWithRelay(t *testing.T) {
	require := require.New(t)
	g, ledger, token := redeemFixture(t)

	// 500 tokens in, 10 tokens relayer fee, 100 tokens requested for
	// native swap. At $10/$420 the swap pays out 2.38095238 native.
	const (
		transferAmount = 50_000_000_000
		relayerFee     = 1_000_000_000
		toNative       = 10_000_000_000
		nativeOut      = 2_380_952_380
	)
	ledger.FundEscrow(token, transferAmount)
	ledger.FundNative(testRelayer, 5_000_000_000)

	env := inboundEnvelope(token, transferAmount, relayerFee, toNative, 1, testRecipient)
	rec, err := g.CompleteTransferWithRelay(env, testRelayer, nativeOut)
	require.NoError(err)

	require.Equal(env.Digest(), rec.Hash)
	require.Equal(uint16(2), rec.SourceChain)
	require.Equal(uint64(1), rec.Sequence)
	require.Equal(testRecipient, rec.Recipient)
	require.Equal(uint64(transferAmount), rec.Amount)
	require.True(g.IsRedeemed(env.Digest()))

	// The recipient got the native payout plus the remaining tokens;
	// the fee recipient got the fee and the swapped-in tokens.
	require.Equal(uint64(nativeOut), ledger.NativeBalance(testRecipient))
	require.Equal(uint64(5_000_000_000-nativeOut), ledger.NativeBalance(testRelayer))
	require.Equal(uint64(relayerFee+toNative), ledger.TokenBalance(token, testFeeRecipient))
	require.Equal(uint64(transferAmount-relayerFee-toNative), ledger.TokenBalance(token, testRecipient))
	require.Zero(ledger.EscrowedBalance(token))

	// A second attempt fails and moves nothing.
	_, err = g.CompleteTransferWithRelay(env, testRelayer, nativeOut)
	require.ErrorIs(err, ErrAlreadyRedeemed)
	require.Equal(uint64(nativeOut), ledger.NativeBalance(testRecipient))
}

func TestCompleteTransferNoSwap(t *testing.T) {
	require := require.New(t)
	g, ledger, token := redeemFixture(t)

	const (
		transferAmount = 50_000_000_000
		relayerFee     = 1_000_000_000
	)
	ledger.FundEscrow(token, transferAmount)

	// No swap requested means no native changes hands at all.
	env := inboundEnvelope(token, transferAmount, relayerFee, 0, 1, testRecipient)
	_, err := g.CompleteTransferWithRelay(env, testRelayer, 0)
	require.NoError(err)

	require.Zero(ledger.NativeBalance(testRecipient))
	require.Equal(uint64(relayerFee), ledger.TokenBalance(token, testFeeRecipient))
	require.Equal(uint64(transferAmount-relayerFee), ledger.TokenBalance(token, testRecipient))
}

func TestSelfRedemption(t *testing.T) {
	require := require.New(t)
	g, ledger, token := redeemFixture(t)

	const transferAmount = 50_000_000_000
	ledger.FundEscrow(token, transferAmount)

	// The recipient redeeming its own transfer pays no fee and swaps
	// nothing, whatever the payload asked for.
	env := inboundEnvelope(token, transferAmount, 1_000_000_000, 10_000_000_000, 1, testRecipient)
	_, err := g.CompleteTransferWithRelay(env, testRecipient, 0)
	require.NoError(err)

	require.Equal(uint64(transferAmount), ledger.TokenBalance(token, testRecipient))
	require.Zero(ledger.TokenBalance(token, testFeeRecipient))
	require.Zero(ledger.NativeBalance(testRecipient))
}

func TestRedeemNativeToken(t *testing.T) {
	require := require.New(t)
	g, ledger, _ := redeemFixture(t)

	// The bridged asset is this chain's native currency coming home.
	// Transport precision is 8, native decimals 9, so envelope amounts
	// scale up by 10 on arrival.
	const (
		envAmount      = 1_000_000_000 // 10 native in transport precision
		envFee         = 100_000_000   // 1 native
		transferAmount = 10_000_000_000
		relayerFee     = 1_000_000_000
	)
	ledger.FundEscrow(testNativeToken, transferAmount)
	ledger.FundNative(testRelayer, transferAmount)

	env := inboundEnvelope(testNativeToken, envAmount, envFee, 0, 1, testRecipient)
	_, err := g.CompleteTransferWithRelay(env, testRelayer, 0)
	require.NoError(err)

	// The relayer keeps the wrapped tokens and settles the recipient
	// in native units, less its fee.
	require.Equal(uint64(transferAmount), ledger.TokenBalance(testNativeToken, testRelayer))
	require.Equal(uint64(transferAmount-relayerFee), ledger.NativeBalance(testRecipient))
	require.Equal(uint64(relayerFee), ledger.NativeBalance(testRelayer))
}

func TestRedeemNativeTokenFeeSaturates(t *testing.T) {
	require := require.New(t)
	g, ledger, _ := redeemFixture(t)

	// A fee above the transferred amount is capped at the amount, so
	// the recipient simply gets nothing rather than the redemption
	// failing forever.
	const envAmount = 1_000_000_000
	ledger.FundEscrow(testNativeToken, 10_000_000_000)

	env := inboundEnvelope(testNativeToken, envAmount, envAmount*2, 0, 1, testRecipient)
	_, err := g.CompleteTransferWithRelay(env, testRelayer, 0)
	require.NoError(err)

	require.Zero(ledger.NativeBalance(testRecipient))
	require.Equal(uint64(10_000_000_000), ledger.TokenBalance(testNativeToken, testRelayer))
}

func TestRedeemRejections(t *testing.T) {
	require := require.New(t)
	g, ledger, token := redeemFixture(t)

	const transferAmount = 50_000_000_000
	ledger.FundEscrow(token, transferAmount)

	// Wrong destination chain.
	env := inboundEnvelope(token, transferAmount, 0, 0, 1, testRecipient)
	env.TargetChain = 3
	_, err := g.CompleteTransferWithRelay(env, testRelayer, 0)
	require.ErrorIs(err, ErrInvalidTransferTarget)

	// Unregistered source chain.
	env = inboundEnvelope(token, transferAmount, 0, 0, 1, testRecipient)
	env.SourceChain = 3
	_, err = g.CompleteTransferWithRelay(env, testRelayer, 0)
	require.ErrorIs(err, ErrInvalidForeignContract)

	// Registered chain, wrong emitter.
	env = inboundEnvelope(token, transferAmount, 0, 0, 1, testRecipient)
	env.SourceAddress = common.HexToHash("0xbad")
	_, err = g.CompleteTransferWithRelay(env, testRelayer, 0)
	require.ErrorIs(err, ErrInvalidForeignContract)

	// Malformed payloads.
	env = inboundEnvelope(token, transferAmount, 0, 0, 1, testRecipient)
	env.Payload = env.Payload[:42]
	_, err = g.CompleteTransferWithRelay(env, testRelayer, 0)
	require.ErrorIs(err, message.ErrInvalidLength)

	env = inboundEnvelope(token, transferAmount, 0, 0, 2, testRecipient)
	env.Payload[0] = 9
	_, err = g.CompleteTransferWithRelay(env, testRelayer, 0)
	require.ErrorIs(err, message.ErrInvalidPayloadID)

	// Unknown token.
	env = inboundEnvelope(common.HexToAddress("0x0f"), transferAmount, 0, 0, 3, testRecipient)
	_, err = g.CompleteTransferWithRelay(env, testRelayer, 0)
	require.ErrorIs(err, ErrTokenNotRegistered)

	// An amount past uint64 can never be paid out.
	env = inboundEnvelope(token, transferAmount, 0, 0, 4, testRecipient)
	env.Amount = new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	_, err = g.CompleteTransferWithRelay(env, testRelayer, 0)
	require.ErrorIs(err, ErrAmountOverflow)

	// None of the failures consumed the envelope or moved funds.
	require.Equal(uint64(transferAmount), ledger.EscrowedBalance(token))
	require.Zero(ledger.TokenBalance(token, testRecipient))
}

func TestRedeemEscrowShortfall(t *testing.T) {
	require := require.New(t)
	g, ledger, token := redeemFixture(t)

	const transferAmount = 50_000_000_000
	env := inboundEnvelope(token, transferAmount, 0, 0, 1, testRecipient)

	// Custody cannot cover the payout yet; the envelope stays
	// redeemable.
	_, err := g.CompleteTransferWithRelay(env, testRecipient, 0)
	require.ErrorIs(err, custody.ErrInsufficientEscrow)
	require.False(g.IsRedeemed(env.Digest()))

	ledger.FundEscrow(token, transferAmount)
	_, err = g.CompleteTransferWithRelay(env, testRecipient, 0)
	require.NoError(err)
}

func TestRedeemInsufficientSwapPayment(t *testing.T) {
	require := require.New(t)
	g, ledger, token := redeemFixture(t)

	const (
		transferAmount = 50_000_000_000
		toNative       = 10_000_000_000
		nativeOut      = 2_380_952_380
	)
	ledger.FundEscrow(token, transferAmount)

	// The relayer offers less than the quoted payout.
	env := inboundEnvelope(token, transferAmount, 0, toNative, 1, testRecipient)
	ledger.FundNative(testRelayer, 5_000_000_000)
	_, err := g.CompleteTransferWithRelay(env, testRelayer, nativeOut-1)
	require.ErrorIs(err, ErrInsufficientSwapPayment)

	// Or offers enough but cannot actually pay it.
	broke := common.HexToAddress("0x62")
	_, err = g.CompleteTransferWithRelay(env, broke, nativeOut)
	require.ErrorIs(err, ErrInsufficientSwapPayment)

	require.False(g.IsRedeemed(env.Digest()))
	_, err = g.CompleteTransferWithRelay(env, testRelayer, nativeOut)
	require.NoError(err)
}

func TestRedeemFeeExceedsAmount(t *testing.T) {
	require := require.New(t)
	g, ledger, token := redeemFixture(t)

	const transferAmount = 1_000_000_000
	ledger.FundEscrow(token, transferAmount)

	// A relayed redemption whose fee cannot be covered is rejected,
	// but the recipient can still claim the transfer itself.
	env := inboundEnvelope(token, transferAmount, transferAmount+1, 0, 1, testRecipient)
	_, err := g.CompleteTransferWithRelay(env, testRelayer, 0)
	require.ErrorIs(err, ErrFeeCalculation)

	_, err = g.CompleteTransferWithRelay(env, testRecipient, 0)
	require.NoError(err)
	require.Equal(uint64(transferAmount), ledger.TokenBalance(token, testRecipient))
}

func TestRedeemConcurrent(t *testing.T) {
	require := require.New(t)
	g, ledger, token := redeemFixture(t)

	const transferAmount = 50_000_000_000
	ledger.FundEscrow(token, transferAmount)
	env := inboundEnvelope(token, transferAmount, 0, 0, 1, testRecipient)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.CompleteTransferWithRelay(env, testRecipient, 0)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, replayed int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(err, ErrAlreadyRedeemed)
			replayed++
		}
	}
	require.Equal(1, succeeded)
	require.Equal(attempts-1, replayed)

	// The payout happened exactly once.
	require.Equal(uint64(transferAmount), ledger.TokenBalance(token, testRecipient))
	require.Zero(ledger.EscrowedBalance(token))
}
