// Package gateway charges payment cards. Mock is the default gateway; Stripe is used when configured.
package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway returns an error only when the charge could not be attempted. A declined card is a
// result with Approved == false.
type Gateway interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}

type Card struct {
	Number string
	Expiry string // MM/YY
	CVC    string
	Holder string
}

// ExpiryMonthYear splits MM/YY into a month and a four digit year.
func (c Card) ExpiryMonthYear() (int64, int64, error) {
	month, year, ok := strings.Cut(c.Expiry, "/")
	if !ok {
		return 0, 0, fmt.Errorf("invalid card expiry %q", c.Expiry)
	}

	m, err := strconv.ParseInt(month, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid card expiration month: %w", err)
	}

	y, err := strconv.ParseInt(year, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid card expiration year: %w", err)
	}

	return m, 2000 + y, nil
}

type ChargeRequest struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	Amount     decimal.Decimal
	Currency   string
	Card       Card
}

type ChargeResult struct {
	Approved      bool
	Reference     string
	FailureReason string
}

// MinorUnits converts an amount to the smallest currency unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.RoundBank(2).Shift(2).IntPart()
}
