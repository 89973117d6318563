package domain

import (
	"encoding/hex"
	"strings"

	dErrors "namegate/pkg/domain-errors"

	"golang.org/x/crypto/sha3"
)

// HashLength is the byte length of a content hash.
const HashLength = 32

// Hash is a keccak-256 content hash used as a ledger key.
type Hash [HashLength]byte

// Keccak256 hashes the concatenation of the given byte slices.
func Keccak256(data ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	var h Hash
	d.Sum(h[:0])
	return h
}

// Hex renders the hash as 0x-prefixed lowercase hex.
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) String() string { return h.Hex() }

// IsZero reports whether the hash is all zero bytes.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Bytes returns a copy of the hash bytes.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashLength)
	copy(b, h[:])
	return b
}

// ParseHash parses a 0x-prefixed or bare 64-character hex string.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw := strings.TrimPrefix(s, "0x")
	if len(raw) != HashLength*2 {
		return h, dErrors.New(dErrors.CodeBadRequest, "hash must be 32 hex-encoded bytes")
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return h, dErrors.New(dErrors.CodeBadRequest, "hash is not valid hex")
	}
	copy(h[:], b)
	return h, nil
}

// HashFromBytes copies b into a Hash. Short input is rejected rather than
// zero-padded so truncated keys never alias real ones.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashLength {
		return h, dErrors.New(dErrors.CodeBadRequest, "hash must be exactly 32 bytes")
	}
	copy(h[:], b)
	return h, nil
}
