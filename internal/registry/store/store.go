// Package store holds the three registry ledgers. Stores are interface-driven
// so the service can run against in-memory maps in tests and Postgres in
// production without rewiring business code. Stores enforce no
// cross-consistency between ledgers; keeping name and escrow records in
// lock-step is the service's job.
package store

import (
	"context"

	"namegate/internal/registry/models"
	"namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
)

// ErrNotFound keeps store-level misses consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found")

// NameStore is the registration ledger, keyed by NameID.
type NameStore interface {
	Save(ctx context.Context, id domain.Hash, rec models.NameRecord) error
	FindByID(ctx context.Context, id domain.Hash) (models.NameRecord, error)
}

// EscrowStore is the escrow ledger, keyed by EscrowID (name + claimant).
type EscrowStore interface {
	Save(ctx context.Context, id domain.Hash, rec models.EscrowRecord) error
	FindByID(ctx context.Context, id domain.Hash) (models.EscrowRecord, error)
}

// ReceiptStore is the append-only receipt ledger: a global map from receipt
// ID to record plus a per-identity ordered list of receipt IDs.
type ReceiptStore interface {
	Save(ctx context.Context, id domain.Hash, rec models.ReceiptRecord) error
	FindByID(ctx context.Context, id domain.Hash) (models.ReceiptRecord, error)
	AppendToList(ctx context.Context, owner domain.Address, id domain.Hash) error
	ListByOwner(ctx context.Context, owner domain.Address) ([]domain.Hash, error)
}
