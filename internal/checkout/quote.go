package checkout

import (
	"context"
	"time"

	appErrors "github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/cricketxpert/checkout-service/internal/pricing"
	"github.com/google/uuid"
)

// Quoter prices cart lines against the live catalog.
type Quoter struct {
	catalog Catalog
	calc    *pricing.Calculator
	timeout time.Duration
}

func NewQuoter(catalog Catalog, calc *pricing.Calculator, timeout time.Duration) *Quoter {
	return &Quoter{catalog: catalog, calc: calc, timeout: timeout}
}

// Quote fetches every product once. Unknown products end up in the snapshot's Missing list;
// any other catalog error aborts the quote.
func (q *Quoter) Quote(ctx context.Context, lines []models.CartLine) (models.PriceSnapshot, error) {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	found := make(pricing.Catalog, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))

	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}

		product, err := q.catalog.GetProductByID(ctx, line.ProductID)
		if err != nil {
			if appErrors.IsNotFound(err) {
				continue
			}

			return models.PriceSnapshot{}, err
		}

		found[line.ProductID] = *product
	}

	return q.calc.Calculate(lines, found), nil
}

// StockChecker adapts a Catalog to cart.StockChecker.
type StockChecker struct {
	catalog Catalog
	timeout time.Duration
}

func NewStockChecker(catalog Catalog, timeout time.Duration) *StockChecker {
	return &StockChecker{catalog: catalog, timeout: timeout}
}

func (s *StockChecker) Stock(ctx context.Context, productID uuid.UUID) (int, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	product, err := s.catalog.GetProductByID(ctx, productID)
	if err != nil {
		return 0, err
	}

	return product.StockQuantity, nil
}
