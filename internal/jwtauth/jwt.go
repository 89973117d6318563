// Package jwtauth issues and validates the HS256 bearer tokens that carry
// caller identities into the registry API.
package jwtauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"namegate/internal/platform/middleware"
	dErrors "namegate/pkg/domain-errors"
)

const defaultTokenTTL = 24 * time.Hour

// Claims binds a registry identity to a standard JWT claim set.
type Claims struct {
	// Address is the caller's hex identity; it becomes the authenticated
	// caller for every registry operation.
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// Service signs and validates tokens with a shared HS256 key.
type Service struct {
	signingKey []byte
	ttl        time.Duration
}

func New(signingKey []byte) *Service {
	return &Service{signingKey: signingKey, ttl: defaultTokenTTL}
}

// IssueToken mints a token for the given identity.
func (s *Service) IssueToken(address string) (string, error) {
	now := time.Now()
	claims := Claims{
		Address: address,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "namegate",
			Subject:   address,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "signing token")
	}
	return signed, nil
}

// ValidateToken parses and verifies a bearer token, returning the identity
// claims the middleware needs.
func (s *Service) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}
	if !token.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if claims.Address == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token carries no identity")
	}
	return &middleware.JWTClaims{Address: claims.Address}, nil
}
