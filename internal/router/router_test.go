package router

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namegate/internal/events"
	"namegate/internal/jwtauth"
	"namegate/internal/registry/bank"
	"namegate/internal/registry/guard"
	"namegate/internal/registry/handler"
	"namegate/internal/registry/models"
	"namegate/internal/registry/service"
	"namegate/internal/registry/store"
	"namegate/pkg/domain"
	"namegate/pkg/testutil"
)

func newTestRouter(t *testing.T, health map[string]func(context.Context) error) chi.Router {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	svc := service.New(service.Config{
		Names:    store.NewMemoryNameStore(),
		Escrows:  store.NewMemoryEscrowStore(),
		Receipts: store.NewMemoryReceiptStore(),
		Guard:    guard.NewMemory(),
		Bank:     bank.NewLedger(),
		Events:   events.NewPublisher(events.NewMemoryStore(), logger),
		Logger:   logger,
		Treasury: domain.Address{19: 0xFD},
		Now:      time.Now,
	})
	auth := jwtauth.New([]byte("router-test-key"))
	return New(Deps{
		Logger:   logger,
		Registry: handler.New(svc, logger),
		Auth:     auth,
		Health:   health,
	})
}

func TestAuthFlow(t *testing.T) {
	r := newTestRouter(t, nil)
	identity := domain.Address{19: 0x01}

	// Registry routes demand a token.
	req := testutil.NewJSONRequest(t, http.MethodGet, "/registry/counter", nil)
	w := testutil.Do(r, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Mint one, then the same request succeeds.
	req = testutil.NewJSONRequest(t, http.MethodPost, "/auth/token", map[string]string{
		"address": identity.Hex(),
	})
	w = testutil.Do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	var minted struct {
		Token string `json:"token"`
	}
	testutil.DecodeJSON(t, w, &minted)
	require.NotEmpty(t, minted.Token)

	req = testutil.NewJSONRequest(t, http.MethodGet, "/registry/counter", nil)
	req.Header.Set("Authorization", "Bearer "+minted.Token)
	w = testutil.Do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var counter struct {
		Counter uint64 `json:"counter"`
	}
	testutil.DecodeJSON(t, w, &counter)
	assert.Equal(t, uint64(0), counter.Counter)
}

func TestTokenMintRejectsBadIdentity(t *testing.T) {
	r := newTestRouter(t, nil)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/token", map[string]string{
		"address": "not-an-identity",
	})
	w := testutil.Do(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = testutil.NewJSONRequest(t, http.MethodPost, "/auth/token", map[string]string{
		"address": domain.ZeroAddress.Hex(),
	})
	w = testutil.Do(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		r := newTestRouter(t, map[string]func(context.Context) error{
			"postgres": func(context.Context) error { return nil },
		})
		w := testutil.Do(r, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("backend down", func(t *testing.T) {
		r := newTestRouter(t, map[string]func(context.Context) error{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		})
		w := testutil.Do(r, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var body map[string]string
		testutil.DecodeJSON(t, w, &body)
		assert.Equal(t, "redis", body["component"])
	})
}

// TestFaucetFundedLifecycle drives register, renew, and withdraw over HTTP
// with the token mint as the only funding path, wired the way cmd/server
// wires a fresh deployment. Without the faucet the register call could never
// pay its fee.
func TestFaucetFundedLifecycle(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := bank.NewLedger()
	faucetAmount, ok := new(big.Int).SetString("10000000000000000000", 10)
	require.True(t, ok)

	svc := service.New(service.Config{
		Names:    store.NewMemoryNameStore(),
		Escrows:  store.NewMemoryEscrowStore(),
		Receipts: store.NewMemoryReceiptStore(),
		Guard:    guard.NewMemory(),
		Bank:     ledger,
		Events:   events.NewPublisher(events.NewMemoryStore(), logger),
		Logger:   logger,
		Treasury: domain.Address{19: 0xFD},
		Now:      func() time.Time { return clock },
	})
	r := New(Deps{
		Logger:   logger,
		Registry: handler.New(svc, logger),
		Auth:     jwtauth.New([]byte("router-test-key")),
		Faucet:   func(addr domain.Address) { ledger.Mint(addr, faucetAmount) },
	})

	identity := domain.Address{19: 0x01}
	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/token", map[string]string{
		"address": identity.Hex(),
	})
	w := testutil.Do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	var minted struct {
		Token string `json:"token"`
	}
	testutil.DecodeJSON(t, w, &minted)
	require.Equal(t, faucetAmount, ledger.BalanceOf(identity))

	authed := func(req *http.Request) *http.Request {
		req.Header.Set("Authorization", "Bearer "+minted.Token)
		return req
	}

	req = authed(testutil.NewJSONRequest(t, http.MethodPost, "/registry/names", map[string]any{
		"name":             "ab",
		"observed_counter": 0,
		"payment_wei":      "1000000000000000000",
	}))
	w = testutil.Do(r, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var reg struct {
		Expiration time.Time `json:"expiration"`
	}
	testutil.DecodeJSON(t, w, &reg)

	req = authed(testutil.NewJSONRequest(t, http.MethodPost, "/registry/names/ab/renew", nil))
	w = testutil.Do(r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Past the renewed expiration the escrow becomes claimable and the
	// treasury can cover the payout from the registration fee it holds.
	clock = reg.Expiration.Add(models.ClaimPeriod + time.Second)
	req = authed(testutil.NewJSONRequest(t, http.MethodPost, "/registry/names/ab/withdraw", map[string]string{}))
	w = testutil.Do(r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var withdrawn struct {
		AmountWei string `json:"amount_wei"`
	}
	testutil.DecodeJSON(t, w, &withdrawn)
	assert.Equal(t, "500000000000000000", withdrawn.AmountWei)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, nil)
	w := testutil.Do(r, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
