package service_test

import (
	"database/sql"
	"errors"
	"testing"

	appErrors "github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/cricketxpert/checkout-service/internal/repositories/mocks"
	service "github.com/cricketxpert/checkout-service/internal/services"
	"github.com/cricketxpert/checkout-service/pkg/gateway"
	gatewayMocks "github.com/cricketxpert/checkout-service/pkg/gateway/mocks"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func paymentRequest(cardNumber string) *models.CreatePaymentRequest {
	return &models.CreatePaymentRequest{
		UserID:      uuid.New(),
		OrderID:     uuid.New(),
		PaymentType: "card",
		Amount:      decimal.NewFromInt(3450),
		Card: &models.PaymentForm{
			CardNumber:     cardNumber,
			Expiry:         "12/30",
			CVC:            "123",
			CardholderName: " Muttiah Muralitharan ",
		},
	}
}

func TestCreatePayment(t *testing.T) {
	t.Run("Success - Approved Card", func(t *testing.T) {
		// Arrange
		repo := mocks.NewMockPaymentRepository(t)
		paymentService := service.NewPaymentService(repo, gateway.NewMock(), "lkr")
		req := paymentRequest("4242 4242 4242 4242")

		repo.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
			return p.Status == models.PaymentStatusSuccess && p.OrderID == req.OrderID && p.Currency == "lkr" && p.GatewayRef != ""
		})).Return(nil).Once()

		// Act
		payment, err := paymentService.CreatePayment(t.Context(), req)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
		assert.True(t, req.Amount.Equal(payment.Amount))
		assert.NotEqual(t, uuid.Nil, payment.ID)
		assert.False(t, payment.PaymentDate.IsZero())
	})

	t.Run("Success - Declined Card Is Recorded As Failed", func(t *testing.T) {
		// Arrange
		repo := mocks.NewMockPaymentRepository(t)
		paymentService := service.NewPaymentService(repo, gateway.NewMock(), "lkr")

		repo.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
			return p.Status == models.PaymentStatusFailed && p.FailureText == "card_declined"
		})).Return(nil).Once()

		// Act
		payment, err := paymentService.CreatePayment(t.Context(), paymentRequest("4000000000000002"))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	})

	t.Run("Gateway Sees Normalized Card", func(t *testing.T) {
		// Arrange
		repo := mocks.NewMockPaymentRepository(t)
		gw := gatewayMocks.NewMockGateway(t)
		paymentService := service.NewPaymentService(repo, gw, "lkr")

		gw.On("Charge", mock.Anything, mock.MatchedBy(func(r *gateway.ChargeRequest) bool {
			return r.Card.Number == "4242424242424242" && r.Card.Holder == "Muttiah Muralitharan" && r.Currency == "lkr"
		})).Return(&gateway.ChargeResult{Approved: true, Reference: "ch_1"}, nil).Once()
		repo.On("CreatePayment", mock.Anything, mock.Anything).Return(nil).Once()

		// Act
		payment, err := paymentService.CreatePayment(t.Context(), paymentRequest("4242 4242 4242 4242"))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "ch_1", payment.GatewayRef)
	})

	t.Run("Failure - Gateway Unreachable Records Nothing", func(t *testing.T) {
		// Arrange
		repo := mocks.NewMockPaymentRepository(t)
		gw := gatewayMocks.NewMockGateway(t)
		paymentService := service.NewPaymentService(repo, gw, "lkr")

		gw.On("Charge", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: i/o timeout")).Once()

		// Act
		payment, err := paymentService.CreatePayment(t.Context(), paymentRequest("4242424242424242"))

		// Assert
		assert.Nil(t, payment)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeThirdPartyError))
		repo.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Invalid Card", func(t *testing.T) {
		// Arrange
		paymentService := service.NewPaymentService(mocks.NewMockPaymentRepository(t), gatewayMocks.NewMockGateway(t), "lkr")
		req := paymentRequest("4242424242424242")
		req.Card.CVC = "12"

		// Act
		_, err := paymentService.CreatePayment(t.Context(), req)

		// Assert
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodePaymentValidation, appErr.Code)
		assert.Equal(t, "cvc", appErr.Meta[appErrors.MetaField])
	})

	t.Run("Failure - Missing Card Or Amount", func(t *testing.T) {
		paymentService := service.NewPaymentService(mocks.NewMockPaymentRepository(t), gatewayMocks.NewMockGateway(t), "lkr")

		noCard := paymentRequest("4242424242424242")
		noCard.Card = nil
		_, err := paymentService.CreatePayment(t.Context(), noCard)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodePaymentValidation))

		zero := paymentRequest("4242424242424242")
		zero.Amount = decimal.Zero
		_, err = paymentService.CreatePayment(t.Context(), zero)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeValidation))
	})

	t.Run("Failure - Record Error", func(t *testing.T) {
		repo := mocks.NewMockPaymentRepository(t)
		paymentService := service.NewPaymentService(repo, gateway.NewMock(), "lkr")
		repo.On("CreatePayment", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

		_, err := paymentService.CreatePayment(t.Context(), paymentRequest("4242424242424242"))

		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeDatabaseError))
	})
}

func TestGetPaymentByID(t *testing.T) {
	t.Run("Not Found", func(t *testing.T) {
		repo := mocks.NewMockPaymentRepository(t)
		paymentService := service.NewPaymentService(repo, gateway.NewMock(), "lkr")
		repo.On("GetPaymentByID", mock.Anything, mock.Anything).Return(nil, sql.ErrNoRows).Once()

		_, err := paymentService.GetPaymentByID(t.Context(), uuid.New())

		assert.True(t, appErrors.IsNotFound(err))
	})

	t.Run("Found", func(t *testing.T) {
		repo := mocks.NewMockPaymentRepository(t)
		paymentService := service.NewPaymentService(repo, gateway.NewMock(), "lkr")
		id := uuid.New()
		repo.On("GetPaymentByID", mock.Anything, id).Return(&models.Payment{ID: id}, nil).Once()

		payment, err := paymentService.GetPaymentByID(t.Context(), id)

		require.NoError(t, err)
		assert.Equal(t, id, payment.ID)
	})
}

func TestListPaymentsByCustomer(t *testing.T) {
	repo := mocks.NewMockPaymentRepository(t)
	paymentService := service.NewPaymentService(repo, gateway.NewMock(), "lkr")
	customerID := uuid.New()

	repo.On("ListPaymentsOfCustomer", mock.Anything, customerID, 2, 100).Return([]*models.Payment{}, 0, nil).Once()

	payments, total, err := paymentService.ListPaymentsByCustomer(t.Context(), customerID, 2, 1000)

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, payments)
}
