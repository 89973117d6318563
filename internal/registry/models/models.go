// Package models defines the registry's ledger records and the pricing
// parameters of the registration protocol.
package models

import (
	"math/big"
	"time"

	"namegate/pkg/domain"
)

const (
	// MinNameLength is the shortest registrable name in bytes.
	MinNameLength = 1

	// ClaimPeriod is how long a successful registration holds a name, and
	// how much each renewal adds.
	ClaimPeriod = 365 * 24 * time.Hour
)

// BasePrice is the flat registration fee in wei: 1 unit of native currency.
// Per-length pricing divides this down, but the receipt always records the
// base fee actually charged.
var BasePrice = big.NewInt(1_000_000_000_000_000_000)

// Price computes the per-length registration price: BasePrice / len(name),
// integer division. Very long names can price to zero; a free-but-valid
// registration is an accepted consequence of the formula.
func Price(name []byte) *big.Int {
	return new(big.Int).Quo(BasePrice, big.NewInt(int64(len(name))))
}

// NameRecord binds a name to its owner, expiration, and registration price.
// The zero value (expiration zero) is an available name.
type NameRecord struct {
	Name       []byte
	Owner      domain.Address
	Expiration time.Time
	Price      *big.Int
}

// Available reports whether the name can be (re-)registered: a record is
// available iff its expiration is strictly before now. Missing records have
// a zero expiration and are therefore available.
func (r NameRecord) Available(now time.Time) bool {
	return r.Expiration.Before(now)
}

// EscrowRecord backs the refundable deposit for one (name, claimant) pair.
// Its owner and expiration move in lock-step with the name record through the
// service's single write path; a zeroed owner marks a claimed (spent) escrow.
type EscrowRecord struct {
	Name       []byte
	Owner      domain.Address
	Expiration time.Time
	Price      *big.Int
}

// Claimable reports whether the escrow can be withdrawn by owner at now.
func (r EscrowRecord) Claimable(owner domain.Address, now time.Time) bool {
	return !r.Owner.IsZero() && r.Owner == owner && r.Expiration.Before(now)
}

// ReceiptRecord is immutable proof of payment for a single registration.
// PriceInWei is the flat base fee charged, not the per-length price.
type ReceiptRecord struct {
	PriceInWei *big.Int
	Timestamp  time.Time
	Expiration time.Time
}
