package bank

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
)

func TestLedgerTransfer(t *testing.T) {
	ctx := context.Background()
	alice := domain.Address{0xaa}
	bob := domain.Address{0xbb}

	t.Run("moves value", func(t *testing.T) {
		l := NewLedger()
		l.Mint(alice, big.NewInt(100))

		require.NoError(t, l.Transfer(ctx, alice, bob, big.NewInt(60)))
		assert.Equal(t, "40", l.BalanceOf(alice).String())
		assert.Equal(t, "60", l.BalanceOf(bob).String())
	})

	t.Run("insufficient balance fails with no effect", func(t *testing.T) {
		l := NewLedger()
		l.Mint(alice, big.NewInt(10))

		err := l.Transfer(ctx, alice, bob, big.NewInt(11))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTransferFailed))
		assert.Equal(t, "10", l.BalanceOf(alice).String())
		assert.Equal(t, "0", l.BalanceOf(bob).String())
	})

	t.Run("unknown sender has zero balance", func(t *testing.T) {
		l := NewLedger()
		err := l.Transfer(ctx, alice, bob, big.NewInt(1))
		require.Error(t, err)
	})

	t.Run("zero-amount transfer succeeds", func(t *testing.T) {
		l := NewLedger()
		l.Mint(alice, big.NewInt(0))
		require.NoError(t, l.Transfer(ctx, alice, bob, big.NewInt(0)))
	})

	t.Run("zero recipient rejected", func(t *testing.T) {
		l := NewLedger()
		l.Mint(alice, big.NewInt(5))
		err := l.Transfer(ctx, alice, domain.ZeroAddress, big.NewInt(1))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTransferFailed))
	})
}
