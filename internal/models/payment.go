package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type Payment struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	OrderID     uuid.UUID       `json:"order_id"`
	PaymentType string          `json:"payment_type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      PaymentStatus   `json:"status"`
	GatewayRef  string          `json:"gateway_ref,omitempty"`
	FailureText string          `json:"failure_reason,omitempty"`
	PaymentDate time.Time       `json:"payment_date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PaymentForm is the card form submitted at checkout.
type PaymentForm struct {
	CardNumber     string `json:"card_number"`
	Expiry         string `json:"expiry"`
	CVC            string `json:"cvc"`
	CardholderName string `json:"cardholder_name"`
}

type CreatePaymentRequest struct {
	UserID      uuid.UUID       `json:"user_id" validate:"required"`
	OrderID     uuid.UUID       `json:"order_id" validate:"required"`
	PaymentType string          `json:"payment_type" validate:"required,oneof=card"`
	Amount      decimal.Decimal `json:"amount"`
	Card        *PaymentForm    `json:"card,omitempty"`
}

type PaymentListResponse struct {
	Payments []*Payment `json:"payments"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	Size     int        `json:"size"`
}
