// Package checkout keeps a customer's draft order in step with their cart and turns
// the draft into a paid order.
package checkout

import (
	"context"

	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/google/uuid"
)

// DraftOrderAPI is the server boundary for draft orders. Implemented in-process by
// services.OrderService and over HTTP by pkg/client.
type DraftOrderAPI interface {
	UpsertDraft(ctx context.Context, req *models.UpsertDraftRequest) (*models.Order, error)
	GetDraft(ctx context.Context, customerID uuid.UUID) (*models.Order, error)
	DeleteDraft(ctx context.Context, customerID uuid.UUID) error
	CompleteDraft(ctx context.Context, req *models.CompleteOrderRequest) (*models.Order, error)
}

type PaymentAPI interface {
	CreatePayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.Payment, error)
}

// Catalog returns a NOT_FOUND AppError for unknown products.
type Catalog interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// SyncFence waits until no draft sync for customerID is queued or running.
// Implemented by cart.Dispatcher.
type SyncFence interface {
	Flush(ctx context.Context, customerID uuid.UUID) error
}
