// Package domain holds the shared registry vocabulary: caller identities,
// content hashes, and the pure identifier derivations that key the ledgers.
package domain

import (
	"encoding/binary"
	"time"
)

// NameID derives the name-ledger key from the raw name bytes only. Two
// callers registering the same name always collide on this key.
func NameID(name []byte) Hash {
	return Keccak256(name)
}

// EscrowID derives the escrow-ledger key from the name and the claimant.
// Distinct claimants of the same name get distinct escrow entries.
func EscrowID(name []byte, claimant Address) Hash {
	return Keccak256(name, claimant[:])
}

// ReceiptID derives a receipt key salted with the transaction's effective
// time, so repeated registrations of the same name by the same caller yield
// distinct receipts. Sub-second precision is discarded: the host clock's
// transaction time is whole seconds.
func ReceiptID(name []byte, claimant Address, at time.Time) Hash {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(at.Unix()))
	return Keccak256(name, claimant[:], ts[:])
}
