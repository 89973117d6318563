package store

import (
	"context"
	"sync"

	"namegate/internal/registry/models"
	"namegate/pkg/domain"
)

// In-memory ledgers keep tests and single-node deployments lightweight. They
// intentionally favor clarity over performance.

// MemoryNameStore is a mutex-guarded map implementation of NameStore.
type MemoryNameStore struct {
	mu    sync.RWMutex
	names map[domain.Hash]models.NameRecord
}

func NewMemoryNameStore() *MemoryNameStore {
	return &MemoryNameStore{names: make(map[domain.Hash]models.NameRecord)}
}

func (s *MemoryNameStore) Save(_ context.Context, id domain.Hash, rec models.NameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[id] = rec
	return nil
}

func (s *MemoryNameStore) FindByID(_ context.Context, id domain.Hash) (models.NameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.names[id]; ok {
		return rec, nil
	}
	return models.NameRecord{}, ErrNotFound
}

// MemoryEscrowStore is a mutex-guarded map implementation of EscrowStore.
type MemoryEscrowStore struct {
	mu      sync.RWMutex
	escrows map[domain.Hash]models.EscrowRecord
}

func NewMemoryEscrowStore() *MemoryEscrowStore {
	return &MemoryEscrowStore{escrows: make(map[domain.Hash]models.EscrowRecord)}
}

func (s *MemoryEscrowStore) Save(_ context.Context, id domain.Hash, rec models.EscrowRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escrows[id] = rec
	return nil
}

func (s *MemoryEscrowStore) FindByID(_ context.Context, id domain.Hash) (models.EscrowRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.escrows[id]; ok {
		return rec, nil
	}
	return models.EscrowRecord{}, ErrNotFound
}

// MemoryReceiptStore keeps the receipt map and the per-identity append-only
// lists. Receipts are never mutated or deleted once written.
type MemoryReceiptStore struct {
	mu       sync.RWMutex
	receipts map[domain.Hash]models.ReceiptRecord
	lists    map[domain.Address][]domain.Hash
}

func NewMemoryReceiptStore() *MemoryReceiptStore {
	return &MemoryReceiptStore{
		receipts: make(map[domain.Hash]models.ReceiptRecord),
		lists:    make(map[domain.Address][]domain.Hash),
	}
}

func (s *MemoryReceiptStore) Save(_ context.Context, id domain.Hash, rec models.ReceiptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[id] = rec
	return nil
}

func (s *MemoryReceiptStore) FindByID(_ context.Context, id domain.Hash) (models.ReceiptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.receipts[id]; ok {
		return rec, nil
	}
	return models.ReceiptRecord{}, ErrNotFound
}

func (s *MemoryReceiptStore) AppendToList(_ context.Context, owner domain.Address, id domain.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[owner] = append(s.lists[owner], id)
	return nil
}

func (s *MemoryReceiptStore) ListByOwner(_ context.Context, owner domain.Address) ([]domain.Hash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Hash{}, s.lists[owner]...), nil
}
