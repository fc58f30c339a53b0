package events

import (
	"context"
	"time"

	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderFinalized     = "order.finalized"
	TypeOrderStatusChanged = "order.status_changed"
)

// Publisher delivers order lifecycle events. Callers treat publishing as best effort.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
	Close() error
}

type OrderFinalized struct {
	Type       string          `json:"type"`
	OrderID    uuid.UUID       `json:"order_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	PaymentID  uuid.UUID       `json:"payment_id"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type OrderStatusChanged struct {
	Type       string             `json:"type"`
	OrderID    uuid.UUID          `json:"order_id"`
	From       models.OrderStatus `json:"from"`
	To         models.OrderStatus `json:"to"`
	OccurredAt time.Time          `json:"occurred_at"`
}

func NewOrderFinalized(order *models.Order) OrderFinalized {
	event := OrderFinalized{
		Type:       TypeOrderFinalized,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Amount:     order.Amount,
		OccurredAt: time.Now().UTC(),
	}

	if order.PaymentID != nil {
		event.PaymentID = *order.PaymentID
	}

	return event
}

func NewOrderStatusChanged(orderID uuid.UUID, from, to models.OrderStatus) OrderStatusChanged {
	return OrderStatusChanged{
		Type:       TypeOrderStatusChanged,
		OrderID:    orderID,
		From:       from,
		To:         to,
		OccurredAt: time.Now().UTC(),
	}
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

func (NopPublisher) Close() error { return nil }
