package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/cricketxpert/checkout-service/internal/api/middleware"
	appErrors "github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/events"
	"github.com/cricketxpert/checkout-service/internal/models"
	repository "github.com/cricketxpert/checkout-service/internal/repositories"
	"github.com/cricketxpert/checkout-service/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	UpsertDraft(ctx context.Context, req *models.UpsertDraftRequest) (*models.Order, error)
	GetDraft(ctx context.Context, customerID uuid.UUID) (*models.Order, error)
	DeleteDraft(ctx context.Context, customerID uuid.UUID) error
	CompleteDraft(ctx context.Context, req *models.CompleteOrderRequest) (*models.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error)
}

type orderService struct {
	repo      repository.OrderRepository
	publisher events.Publisher
}

func NewOrderService(repo repository.OrderRepository, publisher events.Publisher) OrderService {
	return &orderService{repo: repo, publisher: publisher}
}

// UpsertDraft stores the amount the client computed. It only checks that the amount covers
// the items, so a delivery fee on top is accepted.
func (s *orderService) UpsertDraft(ctx context.Context, req *models.UpsertDraftRequest) (*models.Order, error) {

	if len(req.Items) == 0 {
		return nil, appErrors.BadRequestError("Draft order needs at least one item")
	}

	seen := make(map[uuid.UUID]struct{}, len(req.Items))
	itemsTotal := decimal.Zero

	for _, item := range req.Items {

		if _, dup := seen[item.ProductID]; dup {
			return nil, appErrors.AddValidationError("items", "product "+item.ProductID.String()+" appears more than once")
		}
		seen[item.ProductID] = struct{}{}

		if item.Quantity < 1 {
			return nil, appErrors.AddValidationError("quantity", "must be at least 1")
		}

		if item.PriceAtOrder.IsNegative() {
			return nil, appErrors.AddValidationError("price_at_order", "must not be negative")
		}

		itemsTotal = itemsTotal.Add(item.PriceAtOrder.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if req.Amount.LessThan(itemsTotal.RoundBank(2)) {
		return nil, appErrors.AddValidationError("amount", "must cover the order items")
	}

	draft := &models.Order{
		ID:         req.ID,
		CustomerID: req.CustomerID,
		Items:      req.Items,
		Amount:     req.Amount,
		Address:    utils.SanitizeText(req.Address),
	}

	stored, err := s.repo.UpsertDraft(ctx, draft)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to save draft order").WithError(err)
	}

	return stored, nil
}

func (s *orderService) GetDraft(ctx context.Context, customerID uuid.UUID) (*models.Order, error) {

	draft, err := s.repo.GetDraftByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Draft order not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch draft order").WithError(err)
	}

	return draft, nil
}

// DeleteDraft succeeds whether or not a draft existed.
func (s *orderService) DeleteDraft(ctx context.Context, customerID uuid.UUID) error {

	if _, err := s.repo.DeleteDraft(ctx, customerID); err != nil {
		return appErrors.DatabaseError("Failed to delete draft order").WithError(err)
	}

	return nil
}

func (s *orderService) CompleteDraft(ctx context.Context, req *models.CompleteOrderRequest) (*models.Order, error) {

	order, err := s.repo.CompleteDraft(ctx, req.OrderID, req.PaymentID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.NotFoundError("Draft order not found").WithError(err)
		case errors.Is(err, repository.ErrOrderNotDraft):
			return nil, appErrors.ConflictError("Order is no longer a draft").WithError(err)
		case errors.Is(err, repository.ErrPaymentMismatch):
			return nil, appErrors.BadRequestError("Payment does not settle this order").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to complete order").WithError(err)
	}

	s.publish(ctx, order.ID, events.NewOrderFinalized(order))

	return order, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Order not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	return order, nil
}

func (s *orderService) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID, page, size int) ([]models.Order, int, error) {

	page, size = normalizePage(page, size)

	orders, total, err := s.repo.ListOrdersByCustomer(ctx, customerID, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {

	order, err := s.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, appErrors.ConflictError("Cannot move order from " + string(order.Status) + " to " + string(status))
	}

	updated, err := s.repo.UpdateOrderStatus(ctx, id, order.Status, status)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to update order status").WithError(err)
	}

	if !updated {
		return nil, appErrors.ConflictError("Order status changed, reload and retry")
	}

	previous := order.Status
	order.Status = status

	s.publish(ctx, order.ID, events.NewOrderStatusChanged(order.ID, previous, status))

	return order, nil
}

func (s *orderService) publish(ctx context.Context, orderID uuid.UUID, event any) {
	if err := s.publisher.Publish(ctx, orderID.String(), event); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to publish order event",
			slog.String("orderId", orderID.String()), slog.Any("error", err))
	}
}
