// Package handler exposes the registry protocol over HTTP. All routes expect
// an authenticated caller in the request context; decoding and error mapping
// live here so the service stays transport-free.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"namegate/internal/platform/middleware"
	"namegate/internal/registry/service"
	"namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
	"namegate/pkg/platform/httputil"
)

type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Routes returns the registry sub-router. Callers mount it behind the auth
// middleware.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/names", h.register)
	r.Post("/names/{name}/renew", h.renew)
	r.Post("/names/{name}/transfer", h.transfer)
	r.Post("/names/{name}/withdraw", h.withdraw)
	r.Get("/names/{name}", h.availability)
	r.Get("/names/{name}/price", h.price)
	r.Get("/names/{name}/hash", h.nameHash)
	r.Get("/names/{name}/pay-hash", h.payHash)
	r.Get("/names/{name}/receipt-hash", h.receiptHash)
	r.Get("/counter", h.counter)
	r.Get("/receipts", h.receiptList)
	r.Get("/receipts/{id}", h.receipt)
	return r
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetCaller(r.Context())
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	payment, err := domain.ParseWei(req.PaymentWei)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.svc.Register(r.Context(), caller, []byte(req.Name), req.ObservedCounter, payment)
	if err != nil {
		h.logError(r, "register", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, registerResponse{
		Name:       req.Name,
		NameID:     res.NameID.Hex(),
		EscrowID:   res.EscrowID.Hex(),
		ReceiptID:  res.ReceiptID.Hex(),
		Owner:      res.Owner.Hex(),
		Expiration: res.Expiration,
		PriceWei:   domain.WeiString(res.Price),
		Counter:    res.Counter,
	})
}

func (h *Handler) renew(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetCaller(r.Context())
	name := urlName(r)

	res, err := h.svc.Renew(r.Context(), caller, []byte(name))
	if err != nil {
		h.logError(r, "renew", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, renewResponse{
		Name:       name,
		NameID:     res.NameID.Hex(),
		Expiration: res.Expiration,
	})
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetCaller(r.Context())
	name := urlName(r)

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	newOwner, err := domain.ParseAddress(req.NewOwner)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidRecipient, "new owner is not a valid identity"))
		return
	}

	if err := h.svc.Transfer(r.Context(), caller, []byte(name), newOwner); err != nil {
		h.logError(r, "transfer", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, transferResponse{
		Name:     name,
		Owner:    caller.Hex(),
		NewOwner: newOwner.Hex(),
	})
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetCaller(r.Context())
	name := urlName(r)

	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	// Withdrawing to the caller is the common case; an empty payout means
	// "pay me".
	payout := caller
	if req.Payout != "" {
		var err error
		payout, err = domain.ParseAddress(req.Payout)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidRecipient, "payout is not a valid identity"))
			return
		}
	}

	res, err := h.svc.Withdraw(r.Context(), caller, []byte(name), payout)
	if err != nil {
		h.logError(r, "withdraw", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, withdrawResponse{
		Name:      name,
		AmountWei: domain.WeiString(res.Amount),
		Payout:    res.Payout.Hex(),
	})
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	name := urlName(r)
	available, expiration, counter, err := h.svc.Available(r.Context(), []byte(name))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, availabilityResponse{
		Name:       name,
		Available:  available,
		Expiration: expiration,
		Counter:    counter,
	})
}

func (h *Handler) price(w http.ResponseWriter, r *http.Request) {
	name := urlName(r)
	price, err := h.svc.Price([]byte(name))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, priceResponse{
		Name:     name,
		PriceWei: domain.WeiString(price),
	})
}

func (h *Handler) nameHash(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, hashResponse{
		Hash: h.svc.NameHash([]byte(urlName(r))).Hex(),
	})
}

func (h *Handler) payHash(w http.ResponseWriter, r *http.Request) {
	claimant, err := h.claimant(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hashResponse{
		Hash: h.svc.PayHash([]byte(urlName(r)), claimant).Hex(),
	})
}

func (h *Handler) receiptHash(w http.ResponseWriter, r *http.Request) {
	claimant, err := h.claimant(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hashResponse{
		Hash: h.svc.ReceiptHash([]byte(urlName(r)), claimant).Hex(),
	})
}

func (h *Handler) counter(w http.ResponseWriter, r *http.Request) {
	counter, err := h.svc.Counter(r.Context())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "reading ordering counter"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, counterResponse{Counter: counter})
}

func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseHash(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.svc.GetReceipt(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receiptResponse{
		PriceInWei: domain.WeiString(rec.PriceInWei),
		Timestamp:  rec.Timestamp,
		Expiration: rec.Expiration,
	})
}

func (h *Handler) receiptList(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetCaller(r.Context())
	ids, err := h.svc.ReceiptList(r.Context(), caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	hexIDs := make([]string, len(ids))
	for i, id := range ids {
		hexIDs[i] = id.Hex()
	}
	httputil.WriteJSON(w, http.StatusOK, receiptListResponse{
		Owner:    caller.Hex(),
		Receipts: hexIDs,
	})
}

// claimant resolves the identity a hash derivation is scoped to: the
// claimant query parameter when present, the authenticated caller otherwise.
func (h *Handler) claimant(r *http.Request) (domain.Address, error) {
	if q := r.URL.Query().Get("claimant"); q != "" {
		return domain.ParseAddress(q)
	}
	caller := middleware.GetCaller(r.Context())
	if caller.IsZero() {
		return domain.ZeroAddress, dErrors.New(dErrors.CodeBadRequest, "no claimant given and no authenticated caller")
	}
	return caller, nil
}

// urlName extracts the name path segment. Names are arbitrary bytes, so the
// segment is percent-decoded before use.
func urlName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func (h *Handler) logError(r *http.Request, op string, err error) {
	h.logger.WarnContext(r.Context(), "registry operation rejected",
		"op", op,
		"error", err,
		"request_id", middleware.GetRequestID(r.Context()),
	)
}
