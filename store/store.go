// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store persists gateway state on a key-value database. Each
// state surface lives under its own prefix so records never collide and
// bulk loads can iterate a single partition.
package store

import (
	"encoding/binary"
	"errors"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/relayer/relay"
)

// ErrCorruptRecord is returned when a stored value does not decode.
var ErrCorruptRecord = errors.New("store: corrupt record")

var (
	tokenPrefix      = []byte("token")
	contractPrefix   = []byte("contract")
	redemptionPrefix = []byte("redeemed")
	configPrefix     = []byte("config")

	ownerKey      = []byte("owner")
	precisionsKey = []byte("precisions")
)

// Fixed record widths.
const (
	tokenRecordLen      = 18 // swapRate + maxNativeSwapAmount + swapEnabled + decimals
	contractRecordLen   = 40 // address + relayerFee
	redemptionRecordLen = 70 // sourceChain + sourceAddress + sequence + recipient + amount
	ownerRecordLen      = 4 * common.AddressLength
	precisionsRecordLen = 8
)

var _ relay.Store = (*Store)(nil)

// Store implements relay.Store on a database.Database.
type Store struct {
	tokens      database.Database
	contracts   database.Database
	redemptions database.Database
	config      database.Database
}

// New partitions db and returns a store over it.
func New(db database.Database) *Store {
	return &Store{
		tokens:      prefixdb.New(tokenPrefix, db),
		contracts:   prefixdb.New(contractPrefix, db),
		redemptions: prefixdb.New(redemptionPrefix, db),
		config:      prefixdb.New(configPrefix, db),
	}
}

// PutToken writes a token record keyed by its local handle.
func (s *Store) PutToken(token common.Address, rec relay.RegisteredToken) error {
	return s.tokens.Put(token.Bytes(), encodeToken(rec))
}

// DeleteToken removes a token record. Deleting an absent token is not
// an error.
func (s *Store) DeleteToken(token common.Address) error {
	return s.tokens.Delete(token.Bytes())
}

// Tokens loads every token record.
func (s *Store) Tokens() (map[common.Address]relay.RegisteredToken, error) {
	out := make(map[common.Address]relay.RegisteredToken)
	iter := s.tokens.NewIterator()
	defer iter.Release()
	for iter.Next() {
		key := iter.Key()
		if len(key) != common.AddressLength {
			return nil, ErrCorruptRecord
		}
		rec, err := decodeToken(iter.Value())
		if err != nil {
			return nil, err
		}
		out[common.BytesToAddress(key)] = rec
	}
	return out, iter.Error()
}

// PutForeignContract writes a foreign contract record keyed by chain ID.
func (s *Store) PutForeignContract(fc relay.ForeignContract) error {
	return s.contracts.Put(chainKey(fc.Chain), encodeContract(fc))
}

// ForeignContracts loads every foreign contract record.
func (s *Store) ForeignContracts() (map[uint16]relay.ForeignContract, error) {
	out := make(map[uint16]relay.ForeignContract)
	iter := s.contracts.NewIterator()
	defer iter.Release()
	for iter.Next() {
		key := iter.Key()
		if len(key) != 2 {
			return nil, ErrCorruptRecord
		}
		chain := binary.BigEndian.Uint16(key)
		fc, err := decodeContract(chain, iter.Value())
		if err != nil {
			return nil, err
		}
		out[chain] = fc
	}
	return out, iter.Error()
}

// PutRedemption writes a redemption record keyed by envelope hash.
// Records are never overwritten in practice; the gateway checks its
// in-memory table first.
func (s *Store) PutRedemption(rec relay.RedemptionRecord) error {
	return s.redemptions.Put(rec.Hash.Bytes(), encodeRedemption(rec))
}

// Redemptions loads every redemption record.
func (s *Store) Redemptions() (map[common.Hash]relay.RedemptionRecord, error) {
	out := make(map[common.Hash]relay.RedemptionRecord)
	iter := s.redemptions.NewIterator()
	defer iter.Release()
	for iter.Next() {
		key := iter.Key()
		if len(key) != common.HashLength {
			return nil, ErrCorruptRecord
		}
		rec, err := decodeRedemption(common.BytesToHash(key), iter.Value())
		if err != nil {
			return nil, err
		}
		out[rec.Hash] = rec
	}
	return out, iter.Error()
}

// PutOwnerConfig writes the access-control record.
func (s *Store) PutOwnerConfig(cfg relay.OwnerConfig) error {
	buf := make([]byte, 0, ownerRecordLen)
	buf = append(buf, cfg.Owner.Bytes()...)
	buf = append(buf, cfg.Assistant.Bytes()...)
	buf = append(buf, cfg.FeeRecipient.Bytes()...)
	buf = append(buf, cfg.PendingOwner.Bytes()...)
	return s.config.Put(ownerKey, buf)
}

// OwnerConfig loads the access-control record. ok is false when none
// has been written.
func (s *Store) OwnerConfig() (relay.OwnerConfig, bool, error) {
	val, err := s.config.Get(ownerKey)
	if errors.Is(err, database.ErrNotFound) {
		return relay.OwnerConfig{}, false, nil
	}
	if err != nil {
		return relay.OwnerConfig{}, false, err
	}
	if len(val) != ownerRecordLen {
		return relay.OwnerConfig{}, false, ErrCorruptRecord
	}
	a := common.AddressLength
	return relay.OwnerConfig{
		Owner:        common.BytesToAddress(val[0:a]),
		Assistant:    common.BytesToAddress(val[a : 2*a]),
		FeeRecipient: common.BytesToAddress(val[2*a : 3*a]),
		PendingOwner: common.BytesToAddress(val[3*a : 4*a]),
	}, true, nil
}

// PutPrecisions writes the fixed-point scale factors.
func (s *Store) PutPrecisions(relayerFee, swapRate uint32) error {
	buf := make([]byte, precisionsRecordLen)
	binary.BigEndian.PutUint32(buf[0:4], relayerFee)
	binary.BigEndian.PutUint32(buf[4:8], swapRate)
	return s.config.Put(precisionsKey, buf)
}

// Precisions loads the fixed-point scale factors. ok is false when none
// have been written.
func (s *Store) Precisions() (relayerFee, swapRate uint32, ok bool, err error) {
	val, err := s.config.Get(precisionsKey)
	if errors.Is(err, database.ErrNotFound) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	if len(val) != precisionsRecordLen {
		return 0, 0, false, ErrCorruptRecord
	}
	return binary.BigEndian.Uint32(val[0:4]), binary.BigEndian.Uint32(val[4:8]), true, nil
}

func chainKey(chain uint16) []byte {
	key := make([]byte, 2)
	binary.BigEndian.PutUint16(key, chain)
	return key
}

func encodeToken(rec relay.RegisteredToken) []byte {
	buf := make([]byte, tokenRecordLen)
	binary.BigEndian.PutUint64(buf[0:8], rec.SwapRate)
	binary.BigEndian.PutUint64(buf[8:16], rec.MaxNativeSwapAmount)
	if rec.SwapEnabled {
		buf[16] = 1
	}
	buf[17] = rec.Decimals
	return buf
}

func decodeToken(val []byte) (relay.RegisteredToken, error) {
	if len(val) != tokenRecordLen {
		return relay.RegisteredToken{}, ErrCorruptRecord
	}
	return relay.RegisteredToken{
		SwapRate:            binary.BigEndian.Uint64(val[0:8]),
		MaxNativeSwapAmount: binary.BigEndian.Uint64(val[8:16]),
		SwapEnabled:         val[16] == 1,
		Decimals:            val[17],
		IsRegistered:        true,
	}, nil
}

func encodeContract(fc relay.ForeignContract) []byte {
	buf := make([]byte, 0, contractRecordLen)
	buf = append(buf, fc.Address.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, fc.RelayerFee)
	return buf
}

func decodeContract(chain uint16, val []byte) (relay.ForeignContract, error) {
	if len(val) != contractRecordLen {
		return relay.ForeignContract{}, ErrCorruptRecord
	}
	return relay.ForeignContract{
		Chain:      chain,
		Address:    common.BytesToHash(val[0:common.HashLength]),
		RelayerFee: binary.BigEndian.Uint64(val[common.HashLength:]),
	}, nil
}

func encodeRedemption(rec relay.RedemptionRecord) []byte {
	buf := make([]byte, 0, redemptionRecordLen)
	buf = binary.BigEndian.AppendUint16(buf, rec.SourceChain)
	buf = append(buf, rec.SourceAddress.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, rec.Sequence)
	buf = append(buf, rec.Recipient.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, rec.Amount)
	return buf
}

func decodeRedemption(hash common.Hash, val []byte) (relay.RedemptionRecord, error) {
	if len(val) != redemptionRecordLen {
		return relay.RedemptionRecord{}, ErrCorruptRecord
	}
	return relay.RedemptionRecord{
		Hash:          hash,
		SourceChain:   binary.BigEndian.Uint16(val[0:2]),
		SourceAddress: common.BytesToHash(val[2:34]),
		Sequence:      binary.BigEndian.Uint64(val[34:42]),
		Recipient:     common.BytesToAddress(val[42:62]),
		Amount:        binary.BigEndian.Uint64(val[62:70]),
	}, nil
}
