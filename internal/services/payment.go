package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/cricketxpert/checkout-service/internal/api/middleware"
	"github.com/cricketxpert/checkout-service/internal/checkout"
	appErrors "github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/models"
	repository "github.com/cricketxpert/checkout-service/internal/repositories"
	"github.com/cricketxpert/checkout-service/pkg/gateway"
	"github.com/google/uuid"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.Payment, error)
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListPaymentsByCustomer(ctx context.Context, customerID uuid.UUID, page, size int) ([]*models.Payment, int, error)
}

type paymentService struct {
	repo     repository.PaymentRepository
	gateway  gateway.Gateway
	currency string
}

func NewPaymentService(repo repository.PaymentRepository, gw gateway.Gateway, currency string) PaymentService {
	return &paymentService{repo: repo, gateway: gw, currency: currency}
}

// CreatePayment charges the card and records the outcome. A declined card is recorded as a
// failed payment and returned without error; a gateway that cannot be reached records nothing.
func (s *paymentService) CreatePayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.Payment, error) {

	logger := middleware.LoggerFromContext(ctx)

	if !req.Amount.IsPositive() {
		return nil, appErrors.AddValidationError("amount", "must be greater than zero")
	}

	if req.Card == nil {
		return nil, appErrors.PaymentValidationError("card", "is required")
	}

	if err := checkout.ValidatePaymentForm(*req.Card); err != nil {
		return nil, err
	}

	result, err := s.gateway.Charge(ctx, &gateway.ChargeRequest{
		OrderID:    req.OrderID,
		CustomerID: req.UserID,
		Amount:     req.Amount,
		Currency:   s.currency,
		Card: gateway.Card{
			Number: strings.Join(strings.Fields(req.Card.CardNumber), ""),
			Expiry: req.Card.Expiry,
			CVC:    req.Card.CVC,
			Holder: strings.TrimSpace(req.Card.CardholderName),
		},
	})
	if err != nil {
		logger.Error("Payment gateway unavailable", slog.String("orderId", req.OrderID.String()), slog.Any("error", err))
		return nil, appErrors.ThirdPartyError("Failed to charge the card").WithError(err)
	}

	now := time.Now().UTC()

	payment := &models.Payment{
		ID:          uuid.New(),
		UserID:      req.UserID,
		OrderID:     req.OrderID,
		PaymentType: req.PaymentType,
		Amount:      req.Amount,
		Currency:    s.currency,
		Status:      models.PaymentStatusSuccess,
		GatewayRef:  result.Reference,
		PaymentDate: now,
	}

	if !result.Approved {
		payment.Status = models.PaymentStatusFailed
		payment.FailureText = result.FailureReason
	}

	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		// the charge went through but is not on record; the gateway reference is the only trace
		logger.Error("Failed to record payment",
			slog.String("orderId", req.OrderID.String()),
			slog.String("gatewayRef", result.Reference),
			slog.Any("error", err))
		return nil, appErrors.DatabaseError("Failed to record payment").WithError(err)
	}

	logger.Info("Payment recorded",
		slog.String("paymentId", payment.ID.String()),
		slog.String("orderId", payment.OrderID.String()),
		slog.String("status", string(payment.Status)))

	return payment, nil
}

func (s *paymentService) GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.GetPaymentByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Payment not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch payment").WithError(err)
	}

	return payment, nil
}

func (s *paymentService) ListPaymentsByCustomer(ctx context.Context, customerID uuid.UUID, page, size int) ([]*models.Payment, int, error) {

	page, size = normalizePage(page, size)

	payments, total, err := s.repo.ListPaymentsOfCustomer(ctx, customerID, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch payments").WithError(err)
	}

	return payments, total, nil
}
