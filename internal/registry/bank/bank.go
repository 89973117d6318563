// Package bank is the registry's value-transfer collaborator: the host
// capability that moves native currency and signals failure. The registry
// only ever moves registration fees caller->treasury and refunds
// treasury->payout; everything else about money is outside the core.
package bank

import (
	"context"
	"math/big"

	"namegate/pkg/domain"
)

// Bank moves native currency between identities. Transfer must be
// all-or-nothing: on error no value has moved.
type Bank interface {
	Transfer(ctx context.Context, from, to domain.Address, amount *big.Int) error
}
