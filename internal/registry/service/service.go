// Package service implements the registration protocol: the four
// state-changing operations (register, renew, transfer, withdraw) and the
// read-only query surface. All mutations run serialized through the service's
// transaction runner so every operation observes and leaves a consistent
// ledger state.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"time"

	"namegate/internal/events"
	"namegate/internal/registry/bank"
	"namegate/internal/registry/guard"
	"namegate/internal/registry/metrics"
	"namegate/internal/registry/models"
	"namegate/internal/registry/store"
	"namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
)

// Config wires the service's collaborators. Now is injectable for tests and
// defaults to time.Now.
type Config struct {
	Names    store.NameStore
	Escrows  store.EscrowStore
	Receipts store.ReceiptStore
	Guard    guard.Guard
	Bank     bank.Bank
	Events   *events.Publisher
	Logger   *slog.Logger
	Treasury domain.Address
	Now      func() time.Time
}

// Service orchestrates the registry ledgers, the ordering guard, and the bank.
type Service struct {
	names    store.NameStore
	escrows  store.EscrowStore
	receipts store.ReceiptStore
	guard    guard.Guard
	bank     bank.Bank
	events   *events.Publisher
	logger   *slog.Logger
	treasury domain.Address
	now      func() time.Time
	tx       *txRunner
}

func New(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		names:    cfg.Names,
		escrows:  cfg.Escrows,
		receipts: cfg.Receipts,
		guard:    cfg.Guard,
		bank:     cfg.Bank,
		events:   cfg.Events,
		logger:   cfg.Logger,
		treasury: cfg.Treasury,
		now:      now,
		tx:       newTxRunner(),
	}
}

// RegisterResult reports a successful registration back to the caller.
type RegisterResult struct {
	NameID     domain.Hash
	EscrowID   domain.Hash
	ReceiptID  domain.Hash
	Owner      domain.Address
	Expiration time.Time
	Price      *big.Int
	Counter    uint64
}

// Register claims name for caller. The caller pays payment wei (at least the
// per-length price; any overpayment is kept by the treasury) and supplies the
// guard counter value it observed when it decided to register. A stale
// counter aborts the registration before any value moves.
func (s *Service) Register(ctx context.Context, caller domain.Address, name []byte, observed uint64, payment *big.Int) (RegisterResult, error) {
	start := time.Now()
	var res RegisterResult
	err := s.tx.Run(ctx, func(ctx context.Context) error {
		if len(name) < models.MinNameLength {
			return dErrors.New(dErrors.CodeNameTooShort, "name is shorter than the minimum length")
		}

		nameID := domain.NameID(name)
		rec, err := s.loadName(ctx, nameID)
		if err != nil {
			return err
		}
		now := s.now()
		if !rec.Available(now) {
			return dErrors.New(dErrors.CodeNameUnavailable, "name is held by an unexpired registration")
		}

		price := models.Price(name)
		if payment == nil || payment.Cmp(price) < 0 {
			return dErrors.New(dErrors.CodePaymentInsufficient, "payment is below the registration price")
		}

		// Check the guard before moving value so the common stale-counter
		// case costs nothing.
		current, err := s.guard.Current(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "reading ordering counter")
		}
		if current != observed {
			metrics.IncOrderingConflict()
			return guard.ErrConflict
		}

		if err := s.bank.Transfer(ctx, caller, s.treasury, payment); err != nil {
			return err
		}
		if err := s.guard.CompareAndIncrement(ctx, observed); err != nil {
			// Another registration won the race after our early check.
			// Return the fee before reporting the conflict.
			if refundErr := s.bank.Transfer(ctx, s.treasury, caller, payment); refundErr != nil {
				s.logger.ErrorContext(ctx, "refund after ordering conflict failed",
					"error", refundErr,
					"caller", caller.Hex(),
					"amount", domain.WeiString(payment),
				)
			}
			if dErrors.HasCode(err, dErrors.CodeOrderingConflict) {
				metrics.IncOrderingConflict()
			}
			return err
		}

		expiration := now.Add(models.ClaimPeriod)
		if err := s.names.Save(ctx, nameID, models.NameRecord{
			Name:       name,
			Owner:      caller,
			Expiration: expiration,
			Price:      price,
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving name record")
		}

		escrowID := domain.EscrowID(name, caller)
		if err := s.escrows.Save(ctx, escrowID, models.EscrowRecord{
			Name:       name,
			Owner:      caller,
			Expiration: expiration,
			Price:      price,
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving escrow record")
		}

		receiptID := domain.ReceiptID(name, caller, now)
		receipt := models.ReceiptRecord{
			PriceInWei: models.BasePrice,
			Timestamp:  now,
			Expiration: expiration,
		}
		if err := s.receipts.Save(ctx, receiptID, receipt); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving receipt record")
		}
		if err := s.receipts.AppendToList(ctx, caller, receiptID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "appending receipt to owner list")
		}

		if err := s.emit(ctx, events.Event{
			Type:       events.TypeNameRegistration,
			Name:       string(name),
			Owner:      caller.Hex(),
			Amount:     domain.WeiString(payment),
			Expiration: expiration,
		}); err != nil {
			return err
		}
		if err := s.emit(ctx, events.Event{
			Type:       events.TypeReceipt,
			Name:       string(name),
			Owner:      caller.Hex(),
			PriceInWei: domain.WeiString(receipt.PriceInWei),
			Expiration: expiration,
		}); err != nil {
			return err
		}

		res = RegisterResult{
			NameID:     nameID,
			EscrowID:   escrowID,
			ReceiptID:  receiptID,
			Owner:      caller,
			Expiration: expiration,
			Price:      price,
			Counter:    observed + 1,
		}
		return nil
	})
	metrics.ObserveOperation("register", err, time.Since(start))
	return res, err
}

// RenewResult reports the expiration after a renewal.
type RenewResult struct {
	NameID     domain.Hash
	Expiration time.Time
}

// Renew extends caller's claim by one claim period. Renewal is additive: it
// extends from the current expiration, not from now, so early renewal loses
// nothing. The caller's escrow expiration moves in lock-step.
func (s *Service) Renew(ctx context.Context, caller domain.Address, name []byte) (RenewResult, error) {
	start := time.Now()
	var res RenewResult
	err := s.tx.Run(ctx, func(ctx context.Context) error {
		nameID := domain.NameID(name)
		rec, err := s.loadName(ctx, nameID)
		if err != nil {
			return err
		}
		if rec.Owner != caller {
			return dErrors.New(dErrors.CodeNotOwner, "caller does not own this name")
		}

		rec.Expiration = rec.Expiration.Add(models.ClaimPeriod)
		if err := s.names.Save(ctx, nameID, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving name record")
		}

		escrowID := domain.EscrowID(name, caller)
		esc, err := s.loadEscrow(ctx, escrowID)
		if err != nil {
			return err
		}
		esc.Name = name
		esc.Expiration = rec.Expiration
		if err := s.escrows.Save(ctx, escrowID, esc); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving escrow record")
		}

		if err := s.emit(ctx, events.Event{
			Type:       events.TypeNameRenew,
			Name:       string(name),
			Owner:      caller.Hex(),
			Expiration: rec.Expiration,
		}); err != nil {
			return err
		}

		res = RenewResult{NameID: nameID, Expiration: rec.Expiration}
		return nil
	})
	metrics.ObserveOperation("renew", err, time.Since(start))
	return res, err
}

// Transfer reassigns caller's name to newOwner. The caller's escrow record is
// rewritten to the new owner as well, under its original key: after a
// transfer, neither the old owner (no longer the escrow owner) nor the new
// owner (whose escrow key never existed) can withdraw that deposit.
func (s *Service) Transfer(ctx context.Context, caller domain.Address, name []byte, newOwner domain.Address) error {
	start := time.Now()
	err := s.tx.Run(ctx, func(ctx context.Context) error {
		if newOwner.IsZero() {
			return dErrors.New(dErrors.CodeInvalidRecipient, "cannot transfer to the zero identity")
		}

		nameID := domain.NameID(name)
		rec, err := s.loadName(ctx, nameID)
		if err != nil {
			return err
		}
		if rec.Owner != caller {
			return dErrors.New(dErrors.CodeNotOwner, "caller does not own this name")
		}

		rec.Owner = newOwner
		if err := s.names.Save(ctx, nameID, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving name record")
		}

		escrowID := domain.EscrowID(name, caller)
		esc, err := s.loadEscrow(ctx, escrowID)
		if err != nil {
			return err
		}
		esc.Name = name
		esc.Owner = newOwner
		if err := s.escrows.Save(ctx, escrowID, esc); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving escrow record")
		}

		return s.emit(ctx, events.Event{
			Type:     events.TypeNameTransfer,
			Name:     string(name),
			Owner:    caller.Hex(),
			NewOwner: newOwner.Hex(),
		})
	})
	metrics.ObserveOperation("transfer", err, time.Since(start))
	return err
}

// WithdrawResult reports the amount released from escrow.
type WithdrawResult struct {
	Amount *big.Int
	Payout domain.Address
}

// Withdraw releases caller's expired escrow for name, paying the deposit to
// payout. The bank transfer runs first: if it fails nothing is cleared and
// the escrow stays claimable. On success both the escrow owner and the name
// record owner are zeroed, so a second withdrawal fails the ownership check.
func (s *Service) Withdraw(ctx context.Context, caller domain.Address, name []byte, payout domain.Address) (WithdrawResult, error) {
	start := time.Now()
	var res WithdrawResult
	err := s.tx.Run(ctx, func(ctx context.Context) error {
		escrowID := domain.EscrowID(name, caller)
		esc, err := s.loadEscrow(ctx, escrowID)
		if err != nil {
			return err
		}
		if esc.Owner.IsZero() || esc.Owner != caller {
			return dErrors.New(dErrors.CodeNotOwner, "caller has no claimable escrow for this name")
		}
		now := s.now()
		if !esc.Expiration.Before(now) {
			return dErrors.New(dErrors.CodeNotYetEligible, "escrow has not expired yet")
		}

		if err := s.bank.Transfer(ctx, s.treasury, payout, esc.Price); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTransferFailed, "escrow payout failed")
		}

		esc.Owner = domain.ZeroAddress
		if err := s.escrows.Save(ctx, escrowID, esc); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving escrow record")
		}

		nameID := domain.NameID(name)
		rec, err := s.loadName(ctx, nameID)
		if err != nil {
			return err
		}
		rec.Owner = domain.ZeroAddress
		if err := s.names.Save(ctx, nameID, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "saving name record")
		}

		if err := s.emit(ctx, events.Event{
			Type:   events.TypePay,
			Name:   string(name),
			Owner:  caller.Hex(),
			Amount: domain.WeiString(esc.Price),
		}); err != nil {
			return err
		}

		res = WithdrawResult{Amount: esc.Price, Payout: payout}
		return nil
	})
	metrics.ObserveOperation("withdraw", err, time.Since(start))
	return res, err
}

// Price quotes the registration price for name.
func (s *Service) Price(name []byte) (*big.Int, error) {
	if len(name) < models.MinNameLength {
		return nil, dErrors.New(dErrors.CodeNameTooShort, "name is shorter than the minimum length")
	}
	return models.Price(name), nil
}

// Counter returns the live ordering counter.
func (s *Service) Counter(ctx context.Context) (uint64, error) {
	return s.guard.Current(ctx)
}

// Available reports whether name is registrable now, along with the held
// record's expiration and the counter the caller should submit with a
// registration attempt.
func (s *Service) Available(ctx context.Context, name []byte) (bool, time.Time, uint64, error) {
	if len(name) < models.MinNameLength {
		return false, time.Time{}, 0, dErrors.New(dErrors.CodeNameTooShort, "name is shorter than the minimum length")
	}
	rec, err := s.loadName(ctx, domain.NameID(name))
	if err != nil {
		return false, time.Time{}, 0, err
	}
	counter, err := s.guard.Current(ctx)
	if err != nil {
		return false, time.Time{}, 0, dErrors.Wrap(err, dErrors.CodeInternal, "reading ordering counter")
	}
	return rec.Available(s.now()), rec.Expiration, counter, nil
}

// NameHash derives the name-ledger key for name.
func (s *Service) NameHash(name []byte) domain.Hash {
	return domain.NameID(name)
}

// PayHash derives the escrow-ledger key for (name, claimant).
func (s *Service) PayHash(name []byte, claimant domain.Address) domain.Hash {
	return domain.EscrowID(name, claimant)
}

// ReceiptHash derives the receipt key (name, claimant) would produce if the
// registration finalized now.
func (s *Service) ReceiptHash(name []byte, claimant domain.Address) domain.Hash {
	return domain.ReceiptID(name, claimant, s.now())
}

// GetReceipt looks up a receipt by ID. Missing receipts return the zero
// record, not an error: an all-zero receipt is the defined answer for an
// unknown key.
func (s *Service) GetReceipt(ctx context.Context, id domain.Hash) (models.ReceiptRecord, error) {
	rec, err := s.receipts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.ReceiptRecord{}, nil
		}
		return models.ReceiptRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "loading receipt record")
	}
	return rec, nil
}

// ReceiptList returns owner's receipt IDs in issuance order.
func (s *Service) ReceiptList(ctx context.Context, owner domain.Address) ([]domain.Hash, error) {
	ids, err := s.receipts.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing receipts")
	}
	return ids, nil
}

// loadName treats a missing record as the zero (available) record.
func (s *Service) loadName(ctx context.Context, id domain.Hash) (models.NameRecord, error) {
	rec, err := s.names.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.NameRecord{}, nil
		}
		return models.NameRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "loading name record")
	}
	return rec, nil
}

// loadEscrow treats a missing record as the zero record.
func (s *Service) loadEscrow(ctx context.Context, id domain.Hash) (models.EscrowRecord, error) {
	rec, err := s.escrows.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.EscrowRecord{}, nil
		}
		return models.EscrowRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "loading escrow record")
	}
	return rec, nil
}

func (s *Service) emit(ctx context.Context, event events.Event) error {
	if err := s.events.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "appending event")
	}
	return nil
}
