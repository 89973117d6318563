package bank

import (
	"context"
	"math/big"
	"sync"

	"namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
)

// Ledger is an in-memory Bank for tests and single-node deployments.
// Balances never go negative; an underfunded transfer fails with no effect.
type Ledger struct {
	mu       sync.Mutex
	balances map[domain.Address]*big.Int
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[domain.Address]*big.Int)}
}

// Mint credits an identity out of thin air. Test and bootstrap helper.
func (l *Ledger) Mint(addr domain.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(addr, amount)
}

// BalanceOf returns the identity's current balance.
func (l *Ledger) BalanceOf(addr domain.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.balances[addr]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (l *Ledger) Transfer(_ context.Context, from, to domain.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return dErrors.New(dErrors.CodeTransferFailed, "transfer amount must be non-negative")
	}
	if to.IsZero() {
		return dErrors.New(dErrors.CodeTransferFailed, "transfer to the zero identity")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balances[from]
	if !ok || balance.Cmp(amount) < 0 {
		return dErrors.New(dErrors.CodeTransferFailed, "insufficient balance")
	}
	balance.Sub(balance, amount)
	l.credit(to, amount)
	return nil
}

func (l *Ledger) credit(addr domain.Address, amount *big.Int) {
	if b, ok := l.balances[addr]; ok {
		b.Add(b, amount)
		return
	}
	l.balances[addr] = new(big.Int).Set(amount)
}
