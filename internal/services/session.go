package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/cricketxpert/checkout-service/internal/api/middleware"
	"github.com/cricketxpert/checkout-service/internal/cart"
	"github.com/cricketxpert/checkout-service/internal/checkout"
	appErrors "github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/models"
	repository "github.com/cricketxpert/checkout-service/internal/repositories"
	"github.com/cricketxpert/checkout-service/internal/utils"
	"github.com/google/uuid"
)

const MetaRetryAfter = "retry_after"

// CartSessionService is the customer-facing cart: edits go through the cart store and
// checkout goes through the finalizer, both under the customer's cart lock.
type CartSessionService interface {
	View(ctx context.Context, customerID uuid.UUID) (*models.CartResponse, error)
	AddItem(ctx context.Context, customerID uuid.UUID, req *models.AddItemRequest) (*models.CartResponse, error)
	RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*models.CartResponse, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
	SetAddress(ctx context.Context, customerID uuid.UUID, address string) (*models.CartResponse, error)
	Checkout(ctx context.Context, customerID uuid.UUID, form models.PaymentForm) (*models.Order, error)
}

type cartSessionService struct {
	carts     *cart.Manager
	quoter    *checkout.Quoter
	finalizer *checkout.Finalizer
	limiter   repository.RateLimitRepository
}

func NewCartSessionService(carts *cart.Manager, quoter *checkout.Quoter, finalizer *checkout.Finalizer, limiter repository.RateLimitRepository) CartSessionService {
	return &cartSessionService{carts: carts, quoter: quoter, finalizer: finalizer, limiter: limiter}
}

func (s *cartSessionService) View(ctx context.Context, customerID uuid.UUID) (*models.CartResponse, error) {
	store, err := s.carts.View(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return s.describe(ctx, store)
}

func (s *cartSessionService) AddItem(ctx context.Context, customerID uuid.UUID, req *models.AddItemRequest) (*models.CartResponse, error) {
	return s.mutate(ctx, customerID, func(store *cart.Store) error {
		return store.AddOrIncrement(ctx, req.ProductID, req.Delta)
	})
}

func (s *cartSessionService) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*models.CartResponse, error) {
	return s.mutate(ctx, customerID, func(store *cart.Store) error {
		return store.Remove(ctx, productID)
	})
}

func (s *cartSessionService) Clear(ctx context.Context, customerID uuid.UUID) error {
	return s.carts.Do(ctx, customerID, func(store *cart.Store) error {
		return store.Clear(ctx)
	})
}

func (s *cartSessionService) SetAddress(ctx context.Context, customerID uuid.UUID, address string) (*models.CartResponse, error) {
	clean := utils.SanitizeText(address)
	if clean == "" {
		return nil, appErrors.AddValidationError("address", "must not be empty")
	}

	return s.mutate(ctx, customerID, func(store *cart.Store) error {
		return store.SetAddress(ctx, clean)
	})
}

// Checkout is limited per customer. A limiter that cannot be reached blocks the attempt.
func (s *cartSessionService) Checkout(ctx context.Context, customerID uuid.UUID, form models.PaymentForm) (*models.Order, error) {
	logger := middleware.LoggerFromContext(ctx)

	allowed, remaining, retryAfter, err := s.limiter.CheckCheckoutRateLimit(ctx, customerID.String())
	if err != nil {
		return nil, appErrors.ThirdPartyError("Rate limit check failed").WithError(err)
	}

	if !allowed {
		logger.Warn("Checkout attempts exhausted", slog.Int("retryAfter", retryAfter))
		return nil, appErrors.TooManyRequestsError("Too many checkout attempts. Please try again later.").
			WithDetail("retry after " + strconv.Itoa(retryAfter) + "s").
			WithMeta(MetaRetryAfter, retryAfter)
	}

	logger.Debug("Checkout attempt", slog.Int("remainingAttempts", remaining))

	var order *models.Order

	err = s.carts.Do(ctx, customerID, func(store *cart.Store) error {
		var err error
		order, err = s.finalizer.Checkout(ctx, store, form)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (s *cartSessionService) mutate(ctx context.Context, customerID uuid.UUID, fn func(*cart.Store) error) (*models.CartResponse, error) {
	var view *models.CartResponse

	err := s.carts.Do(ctx, customerID, func(store *cart.Store) error {
		if err := fn(store); err != nil {
			return err
		}

		var err error
		view, err = s.describe(ctx, store)
		return err
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

func (s *cartSessionService) describe(ctx context.Context, store *cart.Store) (*models.CartResponse, error) {
	lines := store.Snapshot()

	price, err := s.quoter.Quote(ctx, lines)
	if err != nil {
		if _, ok := appErrors.IsAppError(err); ok {
			return nil, err
		}
		return nil, appErrors.ThirdPartyError("Failed to price cart").WithError(err)
	}

	return &models.CartResponse{Lines: lines, Address: store.Address(), Price: price}, nil
}
