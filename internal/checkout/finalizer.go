package checkout

import (
	"context"
	"log/slog"

	"github.com/cricketxpert/checkout-service/internal/cart"
	appErrors "github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/metrics"
	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/google/uuid"
)

const paymentTypeCard = "card"

// Finalizer turns a customer's draft into a paid order. The cart is cleared only once the
// order is confirmed as created.
type Finalizer struct {
	drafts   DraftOrderAPI
	payments PaymentAPI
	quoter   *Quoter
	fence    SyncFence
	logger   *slog.Logger
}

// NewFinalizer builds a finalizer. fence may be nil when no asynchronous draft sync runs
// in this process.
func NewFinalizer(drafts DraftOrderAPI, payments PaymentAPI, quoter *Quoter, fence SyncFence, logger *slog.Logger) *Finalizer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Finalizer{
		drafts:   drafts,
		payments: payments,
		quoter:   quoter,
		fence:    fence,
		logger:   logger,
	}
}

// Checkout pays for the cart in store and finalizes its draft. The caller must hold the
// customer's cart lock.
func (f *Finalizer) Checkout(ctx context.Context, store *cart.Store, form models.PaymentForm) (*models.Order, error) {
	customerID := store.CustomerID()
	logger := f.logger.With(slog.String("customerId", customerID.String()))

	if err := ValidatePaymentForm(form); err != nil {
		metrics.CheckoutFinalizations.WithLabelValues(metrics.OutcomeInvalidForm).Inc()
		return nil, err
	}

	lines := store.Snapshot()
	if len(lines) == 0 {
		metrics.CheckoutFinalizations.WithLabelValues(metrics.OutcomeEmptyCart).Inc()
		return nil, appErrors.BadRequestError("Cart is empty")
	}

	quote, err := f.quoter.Quote(ctx, lines)
	if err != nil {
		metrics.CheckoutFinalizations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, upstreamError("Failed to price cart", err)
	}

	if quote.HasMissing() {
		metrics.CheckoutFinalizations.WithLabelValues(metrics.OutcomeMissingPrices).Inc()

		ids := make([]string, 0, len(quote.Missing))
		for _, id := range quote.Missing {
			ids = append(ids, id.String())
		}

		return nil, appErrors.PriceLookupMissingError(ids)
	}

	address := store.Address()

	// Mutations are blocked by the cart lock, so once queued syncs are done nothing else
	// rewrites the draft until the cart is cleared.
	if f.fence != nil {
		if err := f.fence.Flush(ctx, customerID); err != nil {
			logger.Warn("Draft sync still pending at checkout", slog.String("error", err.Error()))
		}
	}

	draft, err := f.ensureDraft(ctx, logger, customerID, quote, address)
	if err != nil {
		metrics.CheckoutFinalizations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	card := normalizeForm(form)

	payment, err := f.payments.CreatePayment(ctx, &models.CreatePaymentRequest{
		UserID:      customerID,
		OrderID:     draft.ID,
		PaymentType: paymentTypeCard,
		Amount:      draft.Amount,
		Card:        &card,
	})
	if err != nil {
		metrics.CheckoutFinalizations.WithLabelValues(metrics.OutcomeError).Inc()
		logger.Error("Payment request failed", slog.String("orderId", draft.ID.String()), slog.String("error", err.Error()))

		return nil, appErrors.ThirdPartyError("Payment could not be processed, please try again").WithError(err)
	}

	if payment.Status != models.PaymentStatusSuccess {
		metrics.CheckoutFinalizations.WithLabelValues(metrics.OutcomeRejected).Inc()
		logger.Info("Payment rejected", slog.String("paymentId", payment.ID.String()), slog.String("reason", payment.FailureText))

		return nil, appErrors.PaymentRejectedError("Payment was declined, please try again").
			WithDetail(payment.FailureText).
			WithMeta(appErrors.MetaPaymentID, payment.ID.String())
	}

	order, err := f.complete(ctx, logger, draft, payment, quote, address)
	if err != nil {
		metrics.CheckoutFinalizations.WithLabelValues(metrics.OutcomeError).Inc()
		logger.Error("Failed to finalize paid order",
			slog.String("orderId", draft.ID.String()),
			slog.String("paymentId", payment.ID.String()),
			slog.String("error", err.Error()))

		return nil, appErrors.InternalError("Payment succeeded but the order could not be finalized").
			WithDetail("payment " + payment.ID.String()).
			WithMeta(appErrors.MetaPaymentID, payment.ID.String()).
			WithError(err)
	}

	if err := store.Clear(ctx); err != nil {
		logger.Error("Failed to clear cart after checkout", slog.String("orderId", order.ID.String()), slog.String("error", err.Error()))
	}

	metrics.CheckoutFinalizations.WithLabelValues(metrics.OutcomeCreated).Inc()
	logger.Info("Order finalized", slog.String("orderId", order.ID.String()), slog.String("paymentId", payment.ID.String()))

	return order, nil
}

// ensureDraft returns a draft matching the quote, creating or replacing it when needed.
func (f *Finalizer) ensureDraft(ctx context.Context, logger *slog.Logger, customerID uuid.UUID, quote models.PriceSnapshot, address string) (*models.Order, error) {
	req := draftRequest(customerID, quote, address)
	if req == nil {
		return nil, appErrors.BadRequestError("Cart has no purchasable items")
	}

	draft, err := f.drafts.GetDraft(ctx, customerID)

	switch {
	case appErrors.IsNotFound(err):
		f.inconsistent(logger, "Draft order missing at checkout, reconstructing from cart")
	case err != nil:
		return nil, upstreamError("Failed to load draft order", err)
	case draftMatches(draft, req):
		return draft, nil
	}

	draft, err = f.drafts.UpsertDraft(ctx, req)
	if err != nil {
		return nil, upstreamError("Failed to save draft order", err)
	}

	return draft, nil
}

// complete finalizes the draft. When the draft vanished or no longer matches the payment
// after paying, it is restored once from the paid quote under the same id and completed again.
func (f *Finalizer) complete(ctx context.Context, logger *slog.Logger, draft *models.Order, payment *models.Payment, quote models.PriceSnapshot, address string) (*models.Order, error) {
	req := &models.CompleteOrderRequest{OrderID: draft.ID, PaymentID: payment.ID}

	order, err := f.drafts.CompleteDraft(ctx, req)

	switch {
	case err == nil:
		return order, nil
	case appErrors.IsNotFound(err):
		f.inconsistent(logger, "Draft order vanished before completion, reconstructing from cart")
	case appErrors.HasCode(err, appErrors.ErrCodeBadRequest):
		f.inconsistent(logger, "Draft order changed after payment, restoring the paid cart")
	default:
		return nil, err
	}

	rebuild := draftRequest(draft.CustomerID, quote, address)
	rebuild.ID = draft.ID

	if _, err := f.drafts.UpsertDraft(ctx, rebuild); err != nil {
		return nil, err
	}

	return f.drafts.CompleteDraft(ctx, req)
}

func (f *Finalizer) inconsistent(logger *slog.Logger, message string) {
	metrics.CheckoutFinalizations.WithLabelValues(metrics.OutcomeReconstructed).Inc()
	logger.Warn(message, slog.String("code", appErrors.ErrCodeFinalizationInconsistency))
}

func draftMatches(draft *models.Order, req *models.UpsertDraftRequest) bool {
	if draft == nil || !draft.IsDraft() {
		return false
	}

	if !draft.Amount.Equal(req.Amount) || draft.Address != req.Address || len(draft.Items) != len(req.Items) {
		return false
	}

	for i, item := range draft.Items {
		want := req.Items[i]
		if item.ProductID != want.ProductID || item.Quantity != want.Quantity || !item.PriceAtOrder.Equal(want.PriceAtOrder) {
			return false
		}
	}

	return true
}

// upstreamError keeps AppErrors as they are and wraps anything else as a third-party failure.
func upstreamError(message string, err error) error {
	if _, ok := appErrors.IsAppError(err); ok {
		return err
	}

	return appErrors.ThirdPartyError(message).WithError(err)
}
