package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one product selection. Quantity is always >= 1 while the line exists.
type CartLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Cart is the persisted form of a customer's cart. Lines keep insertion order and never repeat a product.
type Cart struct {
	CustomerID uuid.UUID  `json:"customer_id"`
	Lines      []CartLine `json:"lines"`
	Address    string     `json:"address,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type PricedLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Missing   bool            `json:"missing,omitempty"`
}

// PriceSnapshot is derived from live catalog prices and never stored on its own.
type PriceSnapshot struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
	Lines       []PricedLine    `json:"lines"`
	Missing     []uuid.UUID     `json:"missing,omitempty"`
}

func (p PriceSnapshot) HasMissing() bool {
	return len(p.Missing) > 0
}

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Delta     int       `json:"delta"      validate:"required,ne=0"`
}

type UpdateAddressRequest struct {
	Address string `json:"address" validate:"required,max=500"`
}

type CartResponse struct {
	Lines   []CartLine    `json:"lines"`
	Address string        `json:"address,omitempty"`
	Price   PriceSnapshot `json:"price"`
}
