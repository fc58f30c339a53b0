package gateway

import (
	"context"

	"github.com/google/uuid"
)

var declinedCards = map[string]string{
	"4000000000000002": "card_declined",
	"4000000000009995": "insufficient_funds",
}

// Mock approves every card except the well-known declined test numbers.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if reason, declined := declinedCards[req.Card.Number]; declined {
		return &ChargeResult{Approved: false, FailureReason: reason}, nil
	}

	return &ChargeResult{Approved: true, Reference: "mock_ch_" + uuid.NewString()}, nil
}
