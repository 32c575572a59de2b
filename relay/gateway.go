// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package relay implements the relay accounting core: the token and
// foreign-contract registries, cross-decimal fee and swap-rate math, and
// the redemption state machine that turns a verified inbound transfer
// envelope into payouts with at-most-once redemption. The same protocol
// runs on every chain; this package is the portable accounting library,
// and each deployment supplies thin adapters for transport, custody and
// storage.
package relay

import (
	"sync"

	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"

	"github.com/luxfi/relayer/custody"
)

// Config carries the immutable deployment parameters of a Gateway.
type Config struct {
	// ChainID is this deployment's own chain ID in the transport
	// format's numbering.
	ChainID uint16
	// NativeToken is the local handle of the chain's native asset,
	// used to price native swaps.
	NativeToken common.Address
	// NativeDecimals is the native currency's decimal precision.
	NativeDecimals uint8

	Owner        common.Address
	Assistant    common.Address
	FeeRecipient common.Address

	// RelayerFeePrecision and SwapRatePrecision default to 1e8 when
	// zero.
	RelayerFeePrecision uint32
	SwapRatePrecision   uint32
}

// Gateway is one chain deployment of the relay protocol. All state
// mutations and redemptions are serialized through a single lock, so
// each operation is atomic and the redemption record check-then-create
// cannot race.
type Gateway struct {
	chainID        uint16
	nativeToken    common.Address
	nativeDecimals uint8

	ownership           OwnerConfig
	paused              bool
	relayerFeePrecision uint32
	swapRatePrecision   uint32

	tokens    map[common.Address]*RegisteredToken
	contracts map[uint16]*ForeignContract
	redeemed  map[common.Hash]*RedemptionRecord
	sequences map[common.Address]uint64

	custodian custody.Custodian
	store     Store
	log       log.Logger

	mu sync.RWMutex
}

// NewGateway creates a gateway with empty registries.
func NewGateway(cfg Config, custodian custody.Custodian) (*Gateway, error) {
	if cfg.ChainID == 0 {
		return nil, ErrInvalidChain
	}
	if cfg.Owner == (common.Address{}) || cfg.FeeRecipient == (common.Address{}) {
		return nil, ErrInvalidAddress
	}
	if cfg.RelayerFeePrecision == 0 {
		cfg.RelayerFeePrecision = DefaultRelayerFeePrecision
	}
	if cfg.SwapRatePrecision == 0 {
		cfg.SwapRatePrecision = DefaultSwapRatePrecision
	}

	return &Gateway{
		chainID:        cfg.ChainID,
		nativeToken:    cfg.NativeToken,
		nativeDecimals: cfg.NativeDecimals,
		ownership: OwnerConfig{
			Owner:        cfg.Owner,
			Assistant:    cfg.Assistant,
			FeeRecipient: cfg.FeeRecipient,
		},
		relayerFeePrecision: cfg.RelayerFeePrecision,
		swapRatePrecision:   cfg.SwapRatePrecision,
		tokens:              make(map[common.Address]*RegisteredToken),
		contracts:           make(map[uint16]*ForeignContract),
		redeemed:            make(map[common.Hash]*RedemptionRecord),
		sequences:           make(map[common.Address]uint64),
		custodian:           custodian,
		log:                 log.NewTestLogger(log.InfoLevel),
	}, nil
}

// SetLogger replaces the gateway's logger.
func (g *Gateway) SetLogger(l log.Logger) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.log = l
}

// WithStore attaches a persistence backend and reloads any state it
// holds. Subsequent mutations are written through.
func (g *Gateway) WithStore(s Store) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tokens, err := s.Tokens()
	if err != nil {
		return err
	}
	contracts, err := s.ForeignContracts()
	if err != nil {
		return err
	}
	redeemed, err := s.Redemptions()
	if err != nil {
		return err
	}
	owner, haveOwner, err := s.OwnerConfig()
	if err != nil {
		return err
	}
	feePrec, ratePrec, havePrec, err := s.Precisions()
	if err != nil {
		return err
	}

	for token, rec := range tokens {
		rec := rec
		g.tokens[token] = &rec
	}
	for chain, fc := range contracts {
		fc := fc
		g.contracts[chain] = &fc
	}
	for hash, rec := range redeemed {
		rec := rec
		g.redeemed[hash] = &rec
	}
	if haveOwner {
		g.ownership = owner
	}
	if havePrec {
		g.relayerFeePrecision = feePrec
		g.swapRatePrecision = ratePrec
	}

	g.store = s
	return nil
}

// ChainID returns this deployment's chain ID.
func (g *Gateway) ChainID() uint16 { return g.chainID }

// Paused reports whether outbound transfers are paused.
func (g *Gateway) Paused() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.paused
}

// SetPauseForTransfers pauses or resumes outbound transfers. Redemption
// of inbound transfers is never pausable. Owner only.
func (g *Gateway) SetPauseForTransfers(caller common.Address, paused bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsOwner(caller) {
		return ErrOwnerOnly
	}
	g.paused = paused
	return nil
}

// Precisions returns the current relayer fee and swap rate precisions.
func (g *Gateway) Precisions() (relayerFee, swapRate uint32) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.relayerFeePrecision, g.swapRatePrecision
}

// UpdateRelayerFeePrecision sets the relayer fee scale factor. Owner
// only; zero is rejected. Stored relayer fees are not rescaled.
func (g *Gateway) UpdateRelayerFeePrecision(caller common.Address, precision uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsOwner(caller) {
		return ErrOwnerOnly
	}
	if precision == 0 {
		return ErrInvalidPrecision
	}
	if err := g.persistPrecisions(precision, g.swapRatePrecision); err != nil {
		return err
	}
	g.relayerFeePrecision = precision
	return nil
}

// UpdateSwapRatePrecision sets the swap rate scale factor. Owner only;
// zero is rejected. Stored swap rates are not rescaled.
func (g *Gateway) UpdateSwapRatePrecision(caller common.Address, precision uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ownership.IsOwner(caller) {
		return ErrOwnerOnly
	}
	if precision == 0 {
		return ErrInvalidPrecision
	}
	if err := g.persistPrecisions(g.relayerFeePrecision, precision); err != nil {
		return err
	}
	g.swapRatePrecision = precision
	return nil
}

// Write-through helpers. Callers hold the lock.

func (g *Gateway) persistToken(token common.Address, rec *RegisteredToken) error {
	if g.store == nil {
		return nil
	}
	return g.store.PutToken(token, *rec)
}

func (g *Gateway) persistTokenDelete(token common.Address) error {
	if g.store == nil {
		return nil
	}
	return g.store.DeleteToken(token)
}

func (g *Gateway) persistContract(fc *ForeignContract) error {
	if g.store == nil {
		return nil
	}
	return g.store.PutForeignContract(*fc)
}

func (g *Gateway) persistRedemption(rec *RedemptionRecord) error {
	if g.store == nil {
		return nil
	}
	return g.store.PutRedemption(*rec)
}

func (g *Gateway) persistOwnership(cfg OwnerConfig) error {
	if g.store == nil {
		return nil
	}
	return g.store.PutOwnerConfig(cfg)
}

func (g *Gateway) persistPrecisions(relayerFee, swapRate uint32) error {
	if g.store == nil {
		return nil
	}
	return g.store.PutPrecisions(relayerFee, swapRate)
}
