package crypto

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// SubstratePrefix is the generic Substrate network prefix used by Bittensor hotkeys.
const SubstratePrefix uint16 = 42

const (
	ss58PublicKeyLen = 32
	ss58ChecksumLen  = 2
)

var ss58Preimage = []byte("SS58PRE")

var (
	ErrInvalidAddress  = errors.New("invalid ss58 address")
	ErrAddressChecksum = errors.New("ss58 checksum mismatch")
)

// DecodeSS58 decodes an SS58 address into its public key and network prefix.
func DecodeSS58(address string) (PublicKey, uint16, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) == 0 {
		return nil, 0, ErrInvalidAddress
	}

	var (
		prefix    uint16
		prefixLen int
	)
	switch {
	case raw[0] < 64:
		prefix, prefixLen = uint16(raw[0]), 1
	case raw[0] < 128:
		if len(raw) < 2 {
			return nil, 0, ErrInvalidAddress
		}
		// Two-byte prefixes pack 14 bits across both bytes, see the SS58 registry.
		lower := (raw[0] << 2) | (raw[1] >> 6)
		upper := raw[1] & 0x3f
		prefix, prefixLen = uint16(lower)|uint16(upper)<<8, 2
		if prefix < 64 {
			return nil, 0, fmt.Errorf("%w: non-canonical prefix %d", ErrInvalidAddress, prefix)
		}
	default:
		return nil, 0, fmt.Errorf("%w: reserved prefix byte %d", ErrInvalidAddress, raw[0])
	}

	if len(raw) != prefixLen+ss58PublicKeyLen+ss58ChecksumLen {
		return nil, 0, fmt.Errorf("%w: unexpected length %d", ErrInvalidAddress, len(raw))
	}

	body := raw[:prefixLen+ss58PublicKeyLen]
	checksum := ss58Checksum(body)
	if checksum[0] != raw[len(body)] || checksum[1] != raw[len(body)+1] {
		return nil, 0, ErrAddressChecksum
	}

	return NewPublicKeyFromBytes(raw[prefixLen:len(body)]), prefix, nil
}

// EncodeSS58 encodes a 32-byte public key as an SS58 address.
func EncodeSS58(pub PublicKey, prefix uint16) (string, error) {
	if len(pub) != ss58PublicKeyLen {
		return "", fmt.Errorf("%w: public key must be %d bytes", ErrInvalidAddress, ss58PublicKeyLen)
	}
	if prefix > 16383 {
		return "", fmt.Errorf("%w: prefix %d out of range", ErrInvalidAddress, prefix)
	}

	var body []byte
	if prefix < 64 {
		body = append(body, byte(prefix))
	} else {
		first := byte((prefix&0xfc)>>2) | 0x40
		second := byte(prefix>>8) | byte((prefix&0x03)<<6)
		body = append(body, first, second)
	}
	body = append(body, pub...)

	checksum := ss58Checksum(body)
	return base58.Encode(append(body, checksum[:ss58ChecksumLen]...)), nil
}

func ss58Checksum(body []byte) [blake2b.Size]byte {
	data := make([]byte, 0, len(ss58Preimage)+len(body))
	data = append(data, ss58Preimage...)
	data = append(data, body...)
	return blake2b.Sum512(data)
}
