package domain

import (
	"math/big"

	dErrors "namegate/pkg/domain-errors"
)

// ParseWei parses a base-10 wei amount. Negative amounts are rejected;
// ledgers only ever hold non-negative value.
func ParseWei(s string) (*big.Int, error) {
	if s == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "amount must not be empty")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "amount is not a base-10 integer")
	}
	if v.Sign() < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "amount must not be negative")
	}
	return v, nil
}

// WeiString renders a wei amount, treating nil as zero.
func WeiString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
