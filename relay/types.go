// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relay

import (
	"errors"

	"github.com/luxfi/geth/common"
)

// DefaultSwapRatePrecision and DefaultRelayerFeePrecision are the fixed-
// point scale factors applied to swap rates and USD relayer fees at
// deployment time. Updating a precision does not rescale stored values;
// the operator owns that migration.
const (
	DefaultSwapRatePrecision   uint32 = 100_000_000
	DefaultRelayerFeePrecision uint32 = 100_000_000
)

// MaxTokenDecimals is the largest decimal precision a token may register
// with. 10^(27-8) is the largest transport scale factor that fits a
// uint64; beyond it amounts could not be rescaled without wrapping.
const MaxTokenDecimals uint8 = 27

// RegisteredToken stores the swap economics and eligibility of a token
// accepted by this deployment. Only owner or assistant mutate it; the
// redemption path is read-only.
type RegisteredToken struct {
	// SwapRate is the USD value of one whole token, scaled by the
	// swap rate precision.
	SwapRate uint64
	// MaxNativeSwapAmount caps the native currency paid out per
	// redemption, in native units. Zero disables native swaps for the
	// token while keeping it accepted.
	MaxNativeSwapAmount uint64
	// SwapEnabled gates native swaps independently of the cap.
	SwapEnabled bool
	// Decimals is the token's native decimal precision.
	Decimals uint8
	// IsRegistered is false only on a zero-value record.
	IsRegistered bool
}

// ForeignContract is the trusted counterpart contract on another chain,
// together with the USD-denominated fee owed to whoever relays a
// transfer to that chain.
type ForeignContract struct {
	// Chain is the counterpart's chain ID. Never zero and never this
	// deployment's own chain ID.
	Chain uint16
	// Address is the 32-byte canonical contract address. Never zero
	// once registered.
	Address common.Hash
	// RelayerFee is USD, scaled by the relayer fee precision.
	RelayerFee uint64
}

// RedemptionRecord marks a transport envelope as redeemed. Created
// exactly once per successful redemption, never updated.
type RedemptionRecord struct {
	Hash          common.Hash
	SourceChain   uint16
	SourceAddress common.Hash
	Sequence      uint64
	Recipient     common.Address
	Amount        uint64
}

// OwnerConfig holds the access-control state machine: the owner, an
// assistant permitted a restricted subset of owner actions, the fee
// recipient credited with relayer proceeds, and the nullable pending
// owner of an in-flight ownership transfer.
type OwnerConfig struct {
	Owner        common.Address
	Assistant    common.Address
	FeeRecipient common.Address
	PendingOwner common.Address
}

// IsOwner reports whether key is the current owner.
func (c *OwnerConfig) IsOwner(key common.Address) bool {
	return c.Owner == key
}

// IsAuthorized reports whether key is the owner or the assistant.
func (c *OwnerConfig) IsAuthorized(key common.Address) bool {
	return c.IsOwner(key) || (c.Assistant != (common.Address{}) && c.Assistant == key)
}

// IsPendingOwner reports whether key is the pending owner of an
// in-flight transfer.
func (c *OwnerConfig) IsPendingOwner(key common.Address) bool {
	return c.PendingOwner != (common.Address{}) && c.PendingOwner == key
}

// OutboundTransfer is what the outbound path hands to the transport
// collaborator: the normalized amount, the destination contract, and the
// encoded relay instruction payload.
type OutboundTransfer struct {
	Sequence      uint64
	TargetChain   uint16
	TargetAddress common.Hash
	Token         common.Address
	// Amount is the escrowed amount in token units, already truncated
	// to transport consistency.
	Amount uint64
	// NormalizedAmount is Amount rescaled to transport precision.
	NormalizedAmount uint64
	Payload          []byte
}

// Store persists the deployment's state surface. The gateway keeps its
// in-memory tables authoritative and writes every mutation through; on
// construction it reloads from the store.
type Store interface {
	PutToken(token common.Address, rec RegisteredToken) error
	DeleteToken(token common.Address) error
	Tokens() (map[common.Address]RegisteredToken, error)

	PutForeignContract(fc ForeignContract) error
	ForeignContracts() (map[uint16]ForeignContract, error)

	PutRedemption(rec RedemptionRecord) error
	Redemptions() (map[common.Hash]RedemptionRecord, error)

	PutOwnerConfig(cfg OwnerConfig) error
	OwnerConfig() (OwnerConfig, bool, error)

	PutPrecisions(relayerFee, swapRate uint32) error
	Precisions() (relayerFee, swapRate uint32, ok bool, err error)
}

// Error taxonomy. Every operation either fully succeeds or returns one
// of these with no side effects.
var (
	// Authorization.
	ErrOwnerOnly              = errors.New("only the owner is permitted")
	ErrOwnerOrAssistantOnly   = errors.New("only the owner or assistant is permitted")
	ErrNotPendingOwner        = errors.New("only the pending owner is permitted")
	ErrAlreadyTheOwner        = errors.New("key is already the owner")
	ErrAlreadyTheAssistant    = errors.New("key is already the assistant")
	ErrAlreadyTheFeeRecipient = errors.New("key is already the fee recipient")
	ErrInvalidAddress         = errors.New("address is the zero value")

	// Registry state.
	ErrTokenAlreadyRegistered   = errors.New("token already registered")
	ErrTokenNotRegistered       = errors.New("token not registered")
	ErrZeroSwapRate             = errors.New("swap rate is zero")
	ErrInvalidChain             = errors.New("invalid chain ID")
	ErrInvalidContract          = errors.New("invalid foreign contract address")
	ErrChainNotRegistered       = errors.New("no foreign contract registered for chain")
	ErrInvalidPrecision         = errors.New("precision must be nonzero")
	ErrInvalidDecimals          = errors.New("token decimals exceed the supported range")
	ErrSwapsNotAllowedForNative = errors.New("native swaps not allowed for the native asset")

	// Outbound transfers.
	ErrOutboundTransfersPaused = errors.New("outbound transfers are paused")
	ErrZeroBridgeAmount        = errors.New("nothing to transfer")
	ErrInvalidToNativeAmount   = errors.New("to-native amount truncates to zero")
	ErrInvalidRecipient        = errors.New("recipient has a bad chain ID or zero address")
	ErrInsufficientFunds       = errors.New("amount does not cover relayer fee and swap")

	// Redemption.
	ErrInvalidForeignContract  = errors.New("envelope source does not match registered contract")
	ErrAlreadyRedeemed         = errors.New("transfer already redeemed")
	ErrInsufficientSwapPayment = errors.New("native payment below swap quote")
	ErrInvalidTransferTarget   = errors.New("envelope not addressed to this deployment")

	// Arithmetic.
	ErrFeeCalculation         = errors.New("relayer fee calculation overflow")
	ErrInvalidSwapCalculation = errors.New("swap calculation overflow")
	ErrAmountOverflow         = errors.New("transfer amount overflows uint64")
)
