package store

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"namegate/internal/registry/models"
	"namegate/pkg/domain"
)

// Schema creates the registry ledger tables. Wei amounts are stored as
// base-10 text: they exceed bigint range and are never aggregated in SQL.
const Schema = `
CREATE TABLE IF NOT EXISTS registry_names (
	name_id    BYTEA PRIMARY KEY,
	name       BYTEA NOT NULL,
	owner      BYTEA NOT NULL,
	expiration TIMESTAMPTZ NOT NULL,
	price      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS registry_escrows (
	escrow_id  BYTEA PRIMARY KEY,
	name       BYTEA NOT NULL,
	owner      BYTEA NOT NULL,
	expiration TIMESTAMPTZ NOT NULL,
	price      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS registry_receipts (
	receipt_id   BYTEA PRIMARY KEY,
	price_in_wei TEXT NOT NULL,
	ts           TIMESTAMPTZ NOT NULL,
	expiration   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS registry_receipt_lists (
	seq        BIGSERIAL PRIMARY KEY,
	owner      BYTEA NOT NULL,
	receipt_id BYTEA NOT NULL
);

CREATE INDEX IF NOT EXISTS registry_receipt_lists_owner_idx
	ON registry_receipt_lists (owner, seq);
`

// EnsureSchema applies the ledger schema. Idempotent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply registry schema: %w", err)
	}
	return nil
}

// PostgresNameStore persists the registration ledger in Postgres.
type PostgresNameStore struct {
	pool *pgxpool.Pool
}

func NewPostgresNameStore(pool *pgxpool.Pool) *PostgresNameStore {
	return &PostgresNameStore{pool: pool}
}

func (s *PostgresNameStore) Save(ctx context.Context, id domain.Hash, rec models.NameRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO registry_names (name_id, name, owner, expiration, price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name_id) DO UPDATE
		SET name = EXCLUDED.name, owner = EXCLUDED.owner,
		    expiration = EXCLUDED.expiration, price = EXCLUDED.price`,
		id.Bytes(), rec.Name, rec.Owner.Bytes(), rec.Expiration, domain.WeiString(rec.Price),
	)
	if err != nil {
		return fmt.Errorf("save name record: %w", err)
	}
	return nil
}

func (s *PostgresNameStore) FindByID(ctx context.Context, id domain.Hash) (models.NameRecord, error) {
	var (
		rec        models.NameRecord
		ownerBytes []byte
		expiration time.Time
		price      string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT name, owner, expiration, price
		FROM registry_names WHERE name_id = $1`,
		id.Bytes(),
	).Scan(&rec.Name, &ownerBytes, &expiration, &price)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NameRecord{}, ErrNotFound
	}
	if err != nil {
		return models.NameRecord{}, fmt.Errorf("find name record: %w", err)
	}
	copy(rec.Owner[:], ownerBytes)
	rec.Expiration = expiration
	rec.Price, _ = new(big.Int).SetString(price, 10)
	return rec, nil
}

// PostgresEscrowStore persists the escrow ledger in Postgres.
type PostgresEscrowStore struct {
	pool *pgxpool.Pool
}

func NewPostgresEscrowStore(pool *pgxpool.Pool) *PostgresEscrowStore {
	return &PostgresEscrowStore{pool: pool}
}

func (s *PostgresEscrowStore) Save(ctx context.Context, id domain.Hash, rec models.EscrowRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO registry_escrows (escrow_id, name, owner, expiration, price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (escrow_id) DO UPDATE
		SET name = EXCLUDED.name, owner = EXCLUDED.owner,
		    expiration = EXCLUDED.expiration, price = EXCLUDED.price`,
		id.Bytes(), rec.Name, rec.Owner.Bytes(), rec.Expiration, domain.WeiString(rec.Price),
	)
	if err != nil {
		return fmt.Errorf("save escrow record: %w", err)
	}
	return nil
}

func (s *PostgresEscrowStore) FindByID(ctx context.Context, id domain.Hash) (models.EscrowRecord, error) {
	var (
		rec        models.EscrowRecord
		ownerBytes []byte
		expiration time.Time
		price      string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT name, owner, expiration, price
		FROM registry_escrows WHERE escrow_id = $1`,
		id.Bytes(),
	).Scan(&rec.Name, &ownerBytes, &expiration, &price)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.EscrowRecord{}, ErrNotFound
	}
	if err != nil {
		return models.EscrowRecord{}, fmt.Errorf("find escrow record: %w", err)
	}
	copy(rec.Owner[:], ownerBytes)
	rec.Expiration = expiration
	rec.Price, _ = new(big.Int).SetString(price, 10)
	return rec, nil
}

// PostgresReceiptStore persists receipts and the per-identity receipt lists.
type PostgresReceiptStore struct {
	pool *pgxpool.Pool
}

func NewPostgresReceiptStore(pool *pgxpool.Pool) *PostgresReceiptStore {
	return &PostgresReceiptStore{pool: pool}
}

func (s *PostgresReceiptStore) Save(ctx context.Context, id domain.Hash, rec models.ReceiptRecord) error {
	// Receipts are append-only: conflicts mean a replay of the same
	// (name, claimant, second) tuple and the first write wins.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO registry_receipts (receipt_id, price_in_wei, ts, expiration)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (receipt_id) DO NOTHING`,
		id.Bytes(), domain.WeiString(rec.PriceInWei), rec.Timestamp, rec.Expiration,
	)
	if err != nil {
		return fmt.Errorf("save receipt: %w", err)
	}
	return nil
}

func (s *PostgresReceiptStore) FindByID(ctx context.Context, id domain.Hash) (models.ReceiptRecord, error) {
	var (
		rec   models.ReceiptRecord
		price string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT price_in_wei, ts, expiration
		FROM registry_receipts WHERE receipt_id = $1`,
		id.Bytes(),
	).Scan(&price, &rec.Timestamp, &rec.Expiration)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ReceiptRecord{}, ErrNotFound
	}
	if err != nil {
		return models.ReceiptRecord{}, fmt.Errorf("find receipt: %w", err)
	}
	rec.PriceInWei, _ = new(big.Int).SetString(price, 10)
	return rec, nil
}

func (s *PostgresReceiptStore) AppendToList(ctx context.Context, owner domain.Address, id domain.Hash) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO registry_receipt_lists (owner, receipt_id)
		VALUES ($1, $2)`,
		owner.Bytes(), id.Bytes(),
	)
	if err != nil {
		return fmt.Errorf("append receipt to list: %w", err)
	}
	return nil
}

func (s *PostgresReceiptStore) ListByOwner(ctx context.Context, owner domain.Address) ([]domain.Hash, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT receipt_id FROM registry_receipt_lists
		WHERE owner = $1 ORDER BY seq`,
		owner.Bytes(),
	)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var ids []domain.Hash
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan receipt id: %w", err)
		}
		id, err := domain.HashFromBytes(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipt list: %w", err)
	}
	return ids, nil
}
