package domain

import (
	"encoding/hex"
	"strings"

	dErrors "namegate/pkg/domain-errors"
)

// AddressLength is the byte length of a caller identity.
const AddressLength = 20

// Address is an unforgeable caller identity as provided by the host
// environment. The zero value means "no owner".
type Address [AddressLength]byte

// ZeroAddress is the cleared-owner sentinel.
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed or bare 40-character hex identity.
// The zero address is rejected: it is a sentinel, never a caller.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw := strings.TrimPrefix(s, "0x")
	if len(raw) != AddressLength*2 {
		return a, dErrors.New(dErrors.CodeBadRequest, "address must be 20 hex-encoded bytes")
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return a, dErrors.New(dErrors.CodeBadRequest, "address is not valid hex")
	}
	copy(a[:], b)
	if a.IsZero() {
		return a, dErrors.New(dErrors.CodeBadRequest, "address must not be the zero identity")
	}
	return a, nil
}

// Hex renders the address as 0x-prefixed lowercase hex.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string { return a.Hex() }

// IsZero reports whether the address is the cleared-owner sentinel.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Bytes returns a copy of the address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressLength)
	copy(b, a[:])
	return b
}
