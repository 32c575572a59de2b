// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package custody defines the token-custody collaborator consumed by the
// relay core. The core never moves value itself; it instructs a
// Custodian, which is assumed to either fully succeed or fully fail and
// roll back the enclosing transition.
package custody

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientEscrow  = errors.New("insufficient escrowed funds")
)

// Custodian locks outbound tokens and releases inbound tokens and native
// currency.
type Custodian interface {
	// Escrow locks amount of token taken from the given holder.
	Escrow(token common.Address, from common.Address, amount uint64) error
	// Release pays amount of token out of escrow to the given address.
	Release(token common.Address, amount uint64, to common.Address) error
	// ReleaseNative pays amount of native currency out of the custody
	// reserve to the given address.
	ReleaseNative(amount uint64, to common.Address) error
	// MoveNative transfers native currency between two principals, used
	// to settle a relayer's swap payment to the recipient.
	MoveNative(from, to common.Address, amount uint64) error

	// EscrowedBalance reports how much of token is currently held in
	// escrow. The redemption path pre-checks it so that a sequence of
	// releases cannot fail halfway.
	EscrowedBalance(token common.Address) uint64
	// NativeBalance reports a principal's native currency balance.
	NativeBalance(addr common.Address) uint64
}

// Ledger is an in-memory Custodian used by tests and local deployments.
// Balances are tracked as uint256 so escrow totals cannot overflow even
// under adversarial uint64 inputs.
type Ledger struct {
	tokens  map[common.Address]map[common.Address]*uint256.Int
	escrow  map[common.Address]*uint256.Int
	native  map[common.Address]*uint256.Int
	reserve *uint256.Int

	mu sync.Mutex
}

var _ Custodian = (*Ledger)(nil)

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		tokens:  make(map[common.Address]map[common.Address]*uint256.Int),
		escrow:  make(map[common.Address]*uint256.Int),
		native:  make(map[common.Address]*uint256.Int),
		reserve: uint256.NewInt(0),
	}
}

// Fund credits a holder with token balance. Test setup helper.
func (l *Ledger) Fund(token, holder common.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokenBalance(token, holder).Add(l.tokenBalance(token, holder), uint256.NewInt(amount))
}

// FundNative credits a principal with native currency. Test setup helper.
func (l *Ledger) FundNative(addr common.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nativeBalance(addr).Add(l.nativeBalance(addr), uint256.NewInt(amount))
}

// FundEscrow places token directly into escrow, modeling value that
// arrived through an inbound transfer before redemption.
func (l *Ledger) FundEscrow(token common.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.escrowBalance(token).Add(l.escrowBalance(token), uint256.NewInt(amount))
}

// FundReserve credits the native custody reserve backing ReleaseNative.
func (l *Ledger) FundReserve(amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reserve.Add(l.reserve, uint256.NewInt(amount))
}

func (l *Ledger) Escrow(token common.Address, from common.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal := l.tokenBalance(token, from)
	amt := uint256.NewInt(amount)
	if bal.Lt(amt) {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, amt)
	l.escrowBalance(token).Add(l.escrowBalance(token), amt)
	return nil
}

func (l *Ledger) Release(token common.Address, amount uint64, to common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	esc := l.escrowBalance(token)
	amt := uint256.NewInt(amount)
	if esc.Lt(amt) {
		return ErrInsufficientEscrow
	}
	esc.Sub(esc, amt)
	l.tokenBalance(token, to).Add(l.tokenBalance(token, to), amt)
	return nil
}

func (l *Ledger) ReleaseNative(amount uint64, to common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	amt := uint256.NewInt(amount)
	if l.reserve.Lt(amt) {
		return ErrInsufficientEscrow
	}
	l.reserve.Sub(l.reserve, amt)
	l.nativeBalance(to).Add(l.nativeBalance(to), amt)
	return nil
}

func (l *Ledger) MoveNative(from, to common.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal := l.nativeBalance(from)
	amt := uint256.NewInt(amount)
	if bal.Lt(amt) {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, amt)
	l.nativeBalance(to).Add(l.nativeBalance(to), amt)
	return nil
}

func (l *Ledger) EscrowedBalance(token common.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.escrowBalance(token).Uint64()
}

func (l *Ledger) NativeBalance(addr common.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nativeBalance(addr).Uint64()
}

// TokenBalance reports a holder's token balance. Test assertion helper.
func (l *Ledger) TokenBalance(token, holder common.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokenBalance(token, holder).Uint64()
}

func (l *Ledger) tokenBalance(token, holder common.Address) *uint256.Int {
	if l.tokens[token] == nil {
		l.tokens[token] = make(map[common.Address]*uint256.Int)
	}
	if l.tokens[token][holder] == nil {
		l.tokens[token][holder] = uint256.NewInt(0)
	}
	return l.tokens[token][holder]
}

func (l *Ledger) escrowBalance(token common.Address) *uint256.Int {
	if l.escrow[token] == nil {
		l.escrow[token] = uint256.NewInt(0)
	}
	return l.escrow[token]
}

func (l *Ledger) nativeBalance(addr common.Address) *uint256.Int {
	if l.native[addr] == nil {
		l.native[addr] = uint256.NewInt(0)
	}
	return l.native[addr]
}
