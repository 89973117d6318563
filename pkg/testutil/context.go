package testutil

import (
	"context"
	"net/http"

	"namegate/internal/platform/middleware"
	"namegate/pkg/domain"
)

// WithCaller returns a copy of the request carrying an authenticated caller,
// the way the auth middleware would after validating a token.
func WithCaller(req *http.Request, caller domain.Address) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyCaller, caller)
	return req.WithContext(ctx)
}
