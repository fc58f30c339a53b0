package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusCartPending OrderStatus = "cart_pending"
	OrderStatusCreated     OrderStatus = "created"
	OrderStatusProcessing  OrderStatus = "processing"
	OrderStatusCompleted   OrderStatus = "completed"
	OrderStatusCancelled   OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCartPending: {OrderStatusCreated},
	OrderStatusCreated:     {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:  {OrderStatusCompleted, OrderStatusCancelled},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

type OrderItem struct {
	ProductID    uuid.UUID       `json:"product_id" validate:"required"`
	Quantity     int             `json:"quantity" validate:"required,min=1"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
}

// Order is a draft while Status is cart_pending and a finalized order afterwards.
type Order struct {
	ID         uuid.UUID       `json:"id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Items      []OrderItem     `json:"items"`
	Amount     decimal.Decimal `json:"amount"`
	Address    string          `json:"address"`
	Status     OrderStatus     `json:"status"`
	PaymentID  *uuid.UUID      `json:"payment_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (o *Order) IsDraft() bool {
	return o.Status == OrderStatusCartPending
}

// UpsertDraftRequest replaces the customer's draft. ID is only used when a new draft has to be created.
type UpsertDraftRequest struct {
	ID         uuid.UUID       `json:"id,omitempty"`
	CustomerID uuid.UUID       `json:"customer_id" validate:"required"`
	Items      []OrderItem     `json:"items" validate:"required,min=1,dive"`
	Amount     decimal.Decimal `json:"amount"`
	Address    string          `json:"address" validate:"max=500"`
}

type CompleteOrderRequest struct {
	OrderID   uuid.UUID `json:"order_id" validate:"required"`
	PaymentID uuid.UUID `json:"payment_id" validate:"required"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=processing completed cancelled"`
}

type OrderHistoryResponse struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Size   int     `json:"size"`
}
