// Package pricing turns cart lines into a PriceSnapshot using live catalog prices.
package pricing

import (
	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places every amount is rounded to.
const MinorUnits = 2

// Lookup resolves the live price and stock of a product.
type Lookup interface {
	Lookup(productID uuid.UUID) (price decimal.Decimal, stock int, ok bool)
}

// Catalog is a Lookup over products that were fetched up front.
type Catalog map[uuid.UUID]models.Product

func (c Catalog) Lookup(productID uuid.UUID) (decimal.Decimal, int, bool) {
	p, ok := c[productID]
	if !ok {
		return decimal.Zero, 0, false
	}

	return p.Price, p.StockQuantity, true
}

// DeliveryFeePolicy decides the delivery fee for a priced cart.
type DeliveryFeePolicy interface {
	Fee(lines []models.CartLine, subtotal decimal.Decimal) decimal.Decimal
}

// FixedFee charges the same amount for every non-empty cart.
type FixedFee struct {
	Amount decimal.Decimal
}

func NewFixedFee(amount decimal.Decimal) FixedFee {
	return FixedFee{Amount: amount}
}

func (f FixedFee) Fee(lines []models.CartLine, _ decimal.Decimal) decimal.Decimal {
	if len(lines) == 0 {
		return decimal.Zero
	}

	return f.Amount
}

type Calculator struct {
	policy DeliveryFeePolicy
}

func NewCalculator(policy DeliveryFeePolicy) *Calculator {
	return &Calculator{policy: policy}
}

// Calculate prices lines in order. Products absent from lookup contribute zero and are reported in Missing.
func (c *Calculator) Calculate(lines []models.CartLine, lookup Lookup) models.PriceSnapshot {
	snapshot := models.PriceSnapshot{
		Lines: make([]models.PricedLine, 0, len(lines)),
	}

	subtotal := decimal.Zero

	for _, line := range lines {
		priced := models.PricedLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: decimal.Zero,
			LineTotal: decimal.Zero,
		}

		price, _, ok := lookup.Lookup(line.ProductID)
		if !ok {
			priced.Missing = true
			snapshot.Missing = append(snapshot.Missing, line.ProductID)
			snapshot.Lines = append(snapshot.Lines, priced)
			continue
		}

		if price.IsNegative() {
			price = decimal.Zero
		}

		quantity := max(line.Quantity, 0)

		priced.UnitPrice = price
		priced.LineTotal = price.Mul(decimal.NewFromInt(int64(quantity)))
		subtotal = subtotal.Add(priced.LineTotal)

		snapshot.Lines = append(snapshot.Lines, priced)
	}

	snapshot.Subtotal = subtotal.RoundBank(MinorUnits)

	fee := decimal.Zero
	if c.policy != nil {
		fee = c.policy.Fee(lines, snapshot.Subtotal)
	}
	if fee.IsNegative() {
		fee = decimal.Zero
	}

	snapshot.DeliveryFee = fee.RoundBank(MinorUnits)
	snapshot.Total = snapshot.Subtotal.Add(snapshot.DeliveryFee)

	return snapshot
}
