package checkout

import (
	"context"
	"log/slog"
	"time"

	"github.com/cricketxpert/checkout-service/internal/cart"
	appErrors "github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/metrics"
	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/google/uuid"
)

// Synchronizer mirrors a cart into the customer's draft order. Every call writes a full
// snapshot, so the last call for a customer wins.
type Synchronizer struct {
	drafts  DraftOrderAPI
	quoter  *Quoter
	timeout time.Duration
	logger  *slog.Logger
}

func NewSynchronizer(drafts DraftOrderAPI, quoter *Quoter, timeout time.Duration, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Synchronizer{
		drafts:  drafts,
		quoter:  quoter,
		timeout: timeout,
		logger:  logger,
	}
}

// SyncDraft deletes the draft for an empty cart and replaces it otherwise. Failures are
// logged and returned as SYNC_FAILURE.
func (s *Synchronizer) SyncDraft(ctx context.Context, customerID uuid.UUID, lines []models.CartLine, price models.PriceSnapshot, address string) error {
	req := draftRequest(customerID, price, address)

	if len(lines) == 0 || req == nil {
		if err := s.drafts.DeleteDraft(ctx, customerID); err != nil && !appErrors.IsNotFound(err) {
			return s.fail(customerID, "Failed to delete draft order", err)
		}

		metrics.CheckoutSyncTotal.WithLabelValues(metrics.SyncDeleted).Inc()

		return nil
	}

	if _, err := s.drafts.UpsertDraft(ctx, req); err != nil {
		return s.fail(customerID, "Failed to upsert draft order", err)
	}

	metrics.CheckoutSyncTotal.WithLabelValues(metrics.SyncUpserted).Inc()

	return nil
}

// HandleCartChanged re-prices the cart and syncs it. Used as the dispatcher handler.
func (s *Synchronizer) HandleCartChanged(ctx context.Context, ev cart.Event) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var price models.PriceSnapshot

	if len(ev.Lines) > 0 {
		quote, err := s.quoter.Quote(ctx, ev.Lines)
		if err != nil {
			_ = s.fail(ev.CustomerID, "Failed to price cart for draft order", err)
			return
		}
		price = quote
	}

	_ = s.SyncDraft(ctx, ev.CustomerID, ev.Lines, price, ev.Address)
}

func (s *Synchronizer) fail(customerID uuid.UUID, message string, err error) error {
	metrics.CheckoutSyncTotal.WithLabelValues(metrics.SyncFailed).Inc()
	metrics.CheckoutSyncFailures.Inc()

	s.logger.Warn(message,
		slog.String("code", appErrors.ErrCodeSyncFailure),
		slog.String("customerId", customerID.String()),
		slog.String("error", err.Error()))

	return appErrors.SyncFailureError(message).WithError(err)
}

// draftRequest builds the draft from priced lines. Missing products are left out; nil
// means nothing in the cart could be priced.
func draftRequest(customerID uuid.UUID, price models.PriceSnapshot, address string) *models.UpsertDraftRequest {
	items := make([]models.OrderItem, 0, len(price.Lines))

	for _, line := range price.Lines {
		if line.Missing || line.Quantity <= 0 {
			continue
		}

		items = append(items, models.OrderItem{
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			PriceAtOrder: line.UnitPrice,
		})
	}

	if len(items) == 0 {
		return nil
	}

	return &models.UpsertDraftRequest{
		CustomerID: customerID,
		Items:      items,
		Amount:     price.Total,
		Address:    address,
	}
}
