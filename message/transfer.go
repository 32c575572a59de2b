// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package message implements the wire format of the relay instruction
// payload carried inside a generic token-transfer-with-payload envelope.
// The codec only sees this inner blob; the envelope's own header fields
// belong to the transport layer.
package message

import (
	"errors"

	"github.com/holiman/uint256"
)

// PayloadIDTransferWithRelay tags the transfer-with-relay payload shape.
const PayloadIDTransferWithRelay uint8 = 1

// EncodedLength is the exact length of an encoded TransferWithRelay:
// 1 (payload id) + 32 (target relayer fee) + 32 (to-native amount) +
// 32 (recipient).
const EncodedLength = 97

var (
	ErrInvalidPayloadID = errors.New("invalid payload ID")
	ErrInvalidLength    = errors.New("invalid payload length")
)

// TransferWithRelay is the relay instruction constructed on send and
// parsed on redemption. Amounts are normalized to transport precision.
type TransferWithRelay struct {
	// TargetRelayerFee is the fee owed to the submitting relayer, in
	// normalized token units.
	TargetRelayerFee *uint256.Int
	// ToNativeTokenAmount is the normalized token amount the recipient
	// requested to swap into destination-chain native currency.
	ToNativeTokenAmount *uint256.Int
	// Recipient is the 32-byte canonical recipient address on the
	// destination chain.
	Recipient [32]byte
}

// Encode serializes the message as big-endian fixed-width fields with no
// padding.
func (m *TransferWithRelay) Encode() []byte {
	buf := make([]byte, EncodedLength)
	buf[0] = PayloadIDTransferWithRelay

	fee := m.TargetRelayerFee.Bytes32()
	copy(buf[1:33], fee[:])

	toNative := m.ToNativeTokenAmount.Bytes32()
	copy(buf[33:65], toNative[:])

	copy(buf[65:97], m.Recipient[:])
	return buf
}

// Decode parses an encoded TransferWithRelay. The buffer must be exactly
// EncodedLength bytes and carry the expected payload ID.
func Decode(buf []byte) (*TransferWithRelay, error) {
	if len(buf) != EncodedLength {
		return nil, ErrInvalidLength
	}
	if buf[0] != PayloadIDTransferWithRelay {
		return nil, ErrInvalidPayloadID
	}

	msg := &TransferWithRelay{
		TargetRelayerFee:    new(uint256.Int).SetBytes(buf[1:33]),
		ToNativeTokenAmount: new(uint256.Int).SetBytes(buf[33:65]),
	}
	copy(msg.Recipient[:], buf[65:97])
	return msg, nil
}
