// Package router assembles the HTTP surface: middleware chain, health and
// metrics endpoints, the dev token mint, and the authenticated registry API.
package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"namegate/internal/jwtauth"
	"namegate/internal/platform/middleware"
	"namegate/internal/registry/handler"
	"namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
	"namegate/pkg/platform/httputil"
)

const (
	requestTimeout = 30 * time.Second
	healthTimeout  = 2 * time.Second
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger   *slog.Logger
	Registry *handler.Handler
	Auth     *jwtauth.Service

	// Faucet, when set, funds an identity each time it obtains a token.
	// Deployments with a real settlement system leave it nil.
	Faucet func(domain.Address)

	// Health holds named backend liveness checks (postgres, redis). Empty
	// map means the process only depends on itself.
	Health map[string]func(context.Context) error
}

func New(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Latency)

	r.Get("/healthz", healthz(d.Health))
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/auth/token", issueToken(d.Auth, d.Faucet))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(d.Auth, d.Logger))
		r.Mount("/registry", d.Registry.Routes())
	})

	return r
}

func healthz(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		for name, check := range checks {
			if err := check(ctx); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status":    "unhealthy",
					"component": name,
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type tokenRequest struct {
	Address string `json:"address"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// issueToken mints a bearer token for any well-formed identity. This stands
// in for a real identity provider; deployments front it with their own auth.
// When a faucet is wired, minting also funds the identity so a fresh
// deployment can register names immediately.
func issueToken(auth *jwtauth.Service, faucet func(domain.Address)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
			return
		}
		addr, err := domain.ParseAddress(req.Address)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		token, err := auth.IssueToken(addr.Hex())
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		if faucet != nil {
			faucet(addr)
		}
		httputil.WriteJSON(w, http.StatusOK, tokenResponse{Token: token})
	}
}
