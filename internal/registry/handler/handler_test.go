package handler

import (
	"log/slog"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"namegate/internal/events"
	"namegate/internal/registry/bank"
	"namegate/internal/registry/guard"
	"namegate/internal/registry/models"
	"namegate/internal/registry/service"
	"namegate/internal/registry/store"
	"namegate/pkg/domain"
	"namegate/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite

	clock  time.Time
	ledger *bank.Ledger
	router chi.Router

	alice    domain.Address
	bob      domain.Address
	treasury domain.Address
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ledger = bank.NewLedger()
	s.alice = domain.Address{19: 0x01}
	s.bob = domain.Address{19: 0x02}
	s.treasury = domain.Address{19: 0xFD}

	logger := slog.New(slog.DiscardHandler)
	svc := service.New(service.Config{
		Names:    store.NewMemoryNameStore(),
		Escrows:  store.NewMemoryEscrowStore(),
		Receipts: store.NewMemoryReceiptStore(),
		Guard:    guard.NewMemory(),
		Bank:     s.ledger,
		Events:   events.NewPublisher(events.NewMemoryStore(), logger),
		Logger:   logger,
		Treasury: s.treasury,
		Now:      func() time.Time { return s.clock },
	})

	s.router = chi.NewRouter()
	s.router.Mount("/registry", New(svc, logger).Routes())
}

func (s *HandlerSuite) registerName(caller domain.Address, name, paymentWei string, observed uint64) registerResponse {
	s.T().Helper()
	amount, ok := new(big.Int).SetString(paymentWei, 10)
	s.Require().True(ok)
	s.ledger.Mint(caller, amount)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/registry/names", registerRequest{
		Name:            name,
		ObservedCounter: observed,
		PaymentWei:      paymentWei,
	})
	w := testutil.Do(s.router, testutil.WithCaller(req, caller))
	s.Require().Equal(http.StatusCreated, w.Code, "register %q: %s", name, w.Body.String())

	var resp registerResponse
	testutil.DecodeJSON(s.T(), w, &resp)
	return resp
}

func (s *HandlerSuite) TestRegister() {
	resp := s.registerName(s.alice, "ab", "1000000000000000000", 0)

	s.Equal("ab", resp.Name)
	s.Equal(domain.NameID([]byte("ab")).Hex(), resp.NameID)
	s.Equal(domain.EscrowID([]byte("ab"), s.alice).Hex(), resp.EscrowID)
	s.Equal(s.alice.Hex(), resp.Owner)
	s.Equal("500000000000000000", resp.PriceWei)
	s.Equal(uint64(1), resp.Counter)
	s.True(resp.Expiration.Equal(s.clock.Add(models.ClaimPeriod)))
}

func (s *HandlerSuite) TestRegisterRejections() {
	cases := []struct {
		desc   string
		body   registerRequest
		status int
		code   string
	}{
		{
			desc:   "empty name",
			body:   registerRequest{Name: "", ObservedCounter: 0, PaymentWei: "1000000000000000000"},
			status: http.StatusBadRequest,
			code:   "name_too_short",
		},
		{
			desc:   "payment below price",
			body:   registerRequest{Name: "ab", ObservedCounter: 0, PaymentWei: "1"},
			status: http.StatusPaymentRequired,
			code:   "payment_insufficient",
		},
		{
			desc:   "stale counter",
			body:   registerRequest{Name: "ab", ObservedCounter: 7, PaymentWei: "1000000000000000000"},
			status: http.StatusConflict,
			code:   "ordering_conflict",
		},
		{
			desc:   "malformed payment",
			body:   registerRequest{Name: "ab", ObservedCounter: 0, PaymentWei: "one ether"},
			status: http.StatusBadRequest,
			code:   "bad_request",
		},
	}

	for _, tc := range cases {
		s.Run(tc.desc, func() {
			s.ledger.Mint(s.alice, big.NewInt(1_000_000_000_000_000_000))
			req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/registry/names", tc.body)
			w := testutil.Do(s.router, testutil.WithCaller(req, s.alice))
			s.Equal(tc.status, w.Code)

			var body map[string]string
			testutil.DecodeJSON(s.T(), w, &body)
			s.Equal(tc.code, body["error"])
		})
	}
}

func (s *HandlerSuite) TestRegisterConflictOnHeldName() {
	s.registerName(s.alice, "ab", "1000000000000000000", 0)

	s.ledger.Mint(s.bob, big.NewInt(1_000_000_000_000_000_000))
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/registry/names", registerRequest{
		Name:            "ab",
		ObservedCounter: 1,
		PaymentWei:      "1000000000000000000",
	})
	w := testutil.Do(s.router, testutil.WithCaller(req, s.bob))
	s.Equal(http.StatusConflict, w.Code)

	var body map[string]string
	testutil.DecodeJSON(s.T(), w, &body)
	s.Equal("name_unavailable", body["error"])
}

func (s *HandlerSuite) TestRenew() {
	reg := s.registerName(s.alice, "ab", "1000000000000000000", 0)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/registry/names/ab/renew", nil)
	w := testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	s.Require().Equal(http.StatusOK, w.Code)

	var resp renewResponse
	testutil.DecodeJSON(s.T(), w, &resp)
	s.True(resp.Expiration.Equal(reg.Expiration.Add(models.ClaimPeriod)))

	// Renewal is owner-only.
	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/registry/names/ab/renew", nil)
	w = testutil.Do(s.router, testutil.WithCaller(req, s.bob))
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlerSuite) TestTransfer() {
	s.registerName(s.alice, "ab", "1000000000000000000", 0)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/registry/names/ab/transfer", transferRequest{
		NewOwner: s.bob.Hex(),
	})
	w := testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	s.Require().Equal(http.StatusOK, w.Code)

	var resp transferResponse
	testutil.DecodeJSON(s.T(), w, &resp)
	s.Equal(s.bob.Hex(), resp.NewOwner)

	// Zero recipient is rejected at decode time.
	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/registry/names/ab/transfer", transferRequest{
		NewOwner: domain.ZeroAddress.Hex(),
	})
	w = testutil.Do(s.router, testutil.WithCaller(req, s.bob))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestWithdraw() {
	reg := s.registerName(s.alice, "y", "1000000000000000000", 0)

	s.clock = reg.Expiration.Add(time.Second)
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/registry/names/y/withdraw", withdrawRequest{})
	w := testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp withdrawResponse
	testutil.DecodeJSON(s.T(), w, &resp)
	s.Equal("1000000000000000000", resp.AmountWei)
	s.Equal(s.alice.Hex(), resp.Payout)
	s.Equal("1000000000000000000", s.ledger.BalanceOf(s.alice).String())

	// Second withdrawal is forbidden.
	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/registry/names/y/withdraw", withdrawRequest{})
	w = testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlerSuite) TestWithdrawBeforeExpiry() {
	s.registerName(s.alice, "y", "1000000000000000000", 0)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/registry/names/y/withdraw", withdrawRequest{})
	w := testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	s.Equal(http.StatusForbidden, w.Code)

	var body map[string]string
	testutil.DecodeJSON(s.T(), w, &body)
	s.Equal("not_yet_eligible", body["error"])
}

func (s *HandlerSuite) TestAvailabilityAndPrice() {
	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/names/ab", nil)
	w := testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	s.Require().Equal(http.StatusOK, w.Code)

	var avail availabilityResponse
	testutil.DecodeJSON(s.T(), w, &avail)
	s.True(avail.Available)
	s.Equal(uint64(0), avail.Counter)

	s.registerName(s.alice, "ab", "1000000000000000000", 0)

	req = testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/names/ab", nil)
	w = testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	testutil.DecodeJSON(s.T(), w, &avail)
	s.False(avail.Available)
	s.Equal(uint64(1), avail.Counter)

	req = testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/names/abc/price", nil)
	w = testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	s.Require().Equal(http.StatusOK, w.Code)

	var price priceResponse
	testutil.DecodeJSON(s.T(), w, &price)
	s.Equal("333333333333333333", price.PriceWei)
}

func (s *HandlerSuite) TestHashEndpoints() {
	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/names/ab/hash", nil)
	w := testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	s.Require().Equal(http.StatusOK, w.Code)
	var hash hashResponse
	testutil.DecodeJSON(s.T(), w, &hash)
	s.Equal(domain.NameID([]byte("ab")).Hex(), hash.Hash)

	// pay-hash defaults to the caller's identity as claimant.
	req = testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/names/ab/pay-hash", nil)
	w = testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	testutil.DecodeJSON(s.T(), w, &hash)
	s.Equal(domain.EscrowID([]byte("ab"), s.alice).Hex(), hash.Hash)

	// An explicit claimant overrides the caller.
	req = testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/names/ab/pay-hash?claimant="+s.bob.Hex(), nil)
	w = testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	testutil.DecodeJSON(s.T(), w, &hash)
	s.Equal(domain.EscrowID([]byte("ab"), s.bob).Hex(), hash.Hash)

	req = testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/names/ab/receipt-hash", nil)
	w = testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	testutil.DecodeJSON(s.T(), w, &hash)
	s.Equal(domain.ReceiptID([]byte("ab"), s.alice, s.clock).Hex(), hash.Hash)
}

func (s *HandlerSuite) TestReceipts() {
	reg := s.registerName(s.alice, "ab", "1000000000000000000", 0)

	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/receipts", nil)
	w := testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	s.Require().Equal(http.StatusOK, w.Code)
	var list receiptListResponse
	testutil.DecodeJSON(s.T(), w, &list)
	s.Equal([]string{reg.ReceiptID}, list.Receipts)

	req = testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/receipts/"+reg.ReceiptID, nil)
	w = testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	s.Require().Equal(http.StatusOK, w.Code)
	var rec receiptResponse
	testutil.DecodeJSON(s.T(), w, &rec)
	s.Equal("1000000000000000000", rec.PriceInWei)

	// Unknown receipts come back zero-valued, not 404.
	unknown := domain.NameID([]byte("unknown")).Hex()
	req = testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/receipts/"+unknown, nil)
	w = testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	s.Require().Equal(http.StatusOK, w.Code)
	rec = receiptResponse{}
	testutil.DecodeJSON(s.T(), w, &rec)
	s.Equal("0", rec.PriceInWei)
	s.True(rec.Timestamp.IsZero())
}

func (s *HandlerSuite) TestCounter() {
	req := testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/counter", nil)
	w := testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	s.Require().Equal(http.StatusOK, w.Code)

	var resp counterResponse
	testutil.DecodeJSON(s.T(), w, &resp)
	s.Equal(uint64(0), resp.Counter)

	s.registerName(s.alice, "ab", "1000000000000000000", 0)

	req = testutil.NewJSONRequest(s.T(), http.MethodGet, "/registry/counter", nil)
	w = testutil.Do(s.router, testutil.WithCaller(req, s.alice))
	testutil.DecodeJSON(s.T(), w, &resp)
	s.Equal(uint64(1), resp.Counter)
}
