// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package transport defines the verified envelope handed to the core by
// the message-transport/attestation collaborator. The collaborator is a
// black box: by the time an Envelope reaches this module it has already
// been cryptographically verified and cleared the transport layer's own
// replay protection.
package transport

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Envelope is a verified, parsed cross-chain transfer message. Amount is
// normalized to transport precision; Payload is the opaque inner blob
// interpreted by the message package.
type Envelope struct {
	SourceChain   uint16
	SourceAddress common.Hash
	Sequence      uint64
	TargetChain   uint16
	TargetAddress common.Hash
	TokenChain    uint16
	TokenAddress  common.Hash
	Amount        *uint256.Int
	Payload       []byte

	// Hash uniquely identifies the envelope. The transport layer
	// usually supplies it; Digest computes it when absent.
	Hash common.Hash
}

// Digest returns the unique hash of the envelope, computing the keccak256
// of its serialized form if the transport layer did not supply one.
func (e *Envelope) Digest() common.Hash {
	if e.Hash != (common.Hash{}) {
		return e.Hash
	}
	return common.Keccak256Hash(e.serialize())
}

// serialize encodes the envelope header and payload as big-endian
// fixed-width fields, mirroring the wire order of the transport format.
func (e *Envelope) serialize() []byte {
	buf := make([]byte, 0, 110+len(e.Payload))
	buf = binary.BigEndian.AppendUint16(buf, e.SourceChain)
	buf = append(buf, e.SourceAddress.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, e.Sequence)
	buf = binary.BigEndian.AppendUint16(buf, e.TargetChain)
	buf = append(buf, e.TargetAddress.Bytes()...)
	buf = binary.BigEndian.AppendUint16(buf, e.TokenChain)
	buf = append(buf, e.TokenAddress.Bytes()...)
	amt := e.Amount.Bytes32()
	buf = append(buf, amt[:]...)
	buf = append(buf, e.Payload...)
	return buf
}
