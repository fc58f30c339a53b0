package checkout_test

import (
	"errors"
	"testing"
	"time"

	"github.com/cricketxpert/checkout-service/internal/checkout"
	"github.com/cricketxpert/checkout-service/internal/checkout/mocks"
	appErrors "github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type finalizerFixture struct {
	finalizer *checkout.Finalizer
	drafts    *mocks.MockDraftOrderAPI
	payments  *mocks.MockPaymentAPI
	catalog   *mocks.MockCatalog
}

func newFinalizer(t *testing.T) *finalizerFixture {
	t.Helper()

	drafts := mocks.NewMockDraftOrderAPI(t)
	payments := mocks.NewMockPaymentAPI(t)
	catalog := mocks.NewMockCatalog(t)
	quoter := checkout.NewQuoter(catalog, newCalculator(), time.Second)

	return &finalizerFixture{
		finalizer: checkout.NewFinalizer(drafts, payments, quoter, nil, nil),
		drafts:    drafts,
		payments:  payments,
		catalog:   catalog,
	}
}

var validForm = models.PaymentForm{
	CardNumber:     "4242424242424242",
	Expiry:         "12/29",
	CVC:            "123",
	CardholderName: "Jane Doe",
}

func TestCheckout(t *testing.T) {
	customerID := uuid.New()
	p1 := uuid.New()
	orderID := uuid.New()
	paymentID := uuid.New()
	total := decimal.NewFromInt(3450)

	cartLines := []models.CartLine{{ProductID: p1, Quantity: 2}}

	matchingDraft := func() *models.Order {
		return &models.Order{
			ID:         orderID,
			CustomerID: customerID,
			Items:      []models.OrderItem{{ProductID: p1, Quantity: 2, PriceAtOrder: decimal.NewFromInt(1500)}},
			Amount:     total,
			Status:     models.OrderStatusCartPending,
		}
	}

	payment := func(status models.PaymentStatus) *models.Payment {
		return &models.Payment{ID: paymentID, UserID: customerID, OrderID: orderID, Amount: total, Status: status}
	}

	created := func() *models.Order {
		o := matchingDraft()
		o.Status = models.OrderStatusCreated
		o.PaymentID = &paymentID
		return o
	}

	t.Run("Success - Paid Order Created And Cart Cleared", func(t *testing.T) {
		// Arrange
		f := newFinalizer(t)
		store, notifier := newStore(t, customerID, cartLines...)

		f.catalog.On("GetProductByID", mock.Anything, p1).Return(product(p1, 1500, 5), nil).Once()
		f.drafts.On("GetDraft", mock.Anything, customerID).Return(matchingDraft(), nil).Once()
		f.payments.On("CreatePayment", mock.Anything, mock.MatchedBy(func(req *models.CreatePaymentRequest) bool {
			return req.UserID == customerID &&
				req.OrderID == orderID &&
				req.PaymentType == "card" &&
				req.Amount.Equal(total) &&
				req.Card != nil && req.Card.CardNumber == "4242424242424242"
		})).Return(payment(models.PaymentStatusSuccess), nil).Once()
		f.drafts.On("CompleteDraft", mock.Anything, &models.CompleteOrderRequest{OrderID: orderID, PaymentID: paymentID}).
			Return(created(), nil).Once()

		// Act
		order, err := f.finalizer.Checkout(t.Context(), store, validForm)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCreated, order.Status)
		assert.Equal(t, &paymentID, order.PaymentID)
		assert.True(t, order.Amount.Equal(total))
		assert.Empty(t, store.Snapshot())
		require.NotEmpty(t, notifier.events)
		assert.Empty(t, notifier.events[len(notifier.events)-1].Lines, "clear is announced so the draft mirror is removed")
		f.payments.AssertNumberOfCalls(t, "CreatePayment", 1)
	})

	t.Run("Failure - Payment Rejected Keeps Cart And Draft", func(t *testing.T) {
		// Arrange
		f := newFinalizer(t)
		store, notifier := newStore(t, customerID, cartLines...)

		f.catalog.On("GetProductByID", mock.Anything, p1).Return(product(p1, 1500, 5), nil).Once()
		f.drafts.On("GetDraft", mock.Anything, customerID).Return(matchingDraft(), nil).Once()
		failed := payment(models.PaymentStatusFailed)
		failed.FailureText = "card_declined"
		f.payments.On("CreatePayment", mock.Anything, mock.Anything).Return(failed, nil).Once()

		// Act
		order, err := f.finalizer.Checkout(t.Context(), store, validForm)

		// Assert
		require.Error(t, err)
		assert.Nil(t, order)
		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodePaymentRejected, appErr.Code)
		assert.Equal(t, paymentID.String(), appErr.Meta[appErrors.MetaPaymentID])
		assert.Equal(t, cartLines, store.Snapshot())
		assert.Empty(t, notifier.events)
		f.drafts.AssertNotCalled(t, "CompleteDraft", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Payment Service Down", func(t *testing.T) {
		f := newFinalizer(t)
		store, _ := newStore(t, customerID, cartLines...)

		f.catalog.On("GetProductByID", mock.Anything, p1).Return(product(p1, 1500, 5), nil).Once()
		f.drafts.On("GetDraft", mock.Anything, customerID).Return(matchingDraft(), nil).Once()
		f.payments.On("CreatePayment", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: connection refused")).Once()

		_, err := f.finalizer.Checkout(t.Context(), store, validForm)

		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeThirdPartyError))
		assert.Equal(t, cartLines, store.Snapshot())
	})

	t.Run("Failure - Invalid Form Never Reaches Payment", func(t *testing.T) {
		f := newFinalizer(t)
		store, _ := newStore(t, customerID, cartLines...)
		form := validForm
		form.CVC = "12"

		_, err := f.finalizer.Checkout(t.Context(), store, form)

		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodePaymentValidation))
		assert.Equal(t, cartLines, store.Snapshot())
	})

	t.Run("Failure - Empty Cart", func(t *testing.T) {
		f := newFinalizer(t)
		store, _ := newStore(t, customerID)

		_, err := f.finalizer.Checkout(t.Context(), store, validForm)

		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeBadRequest))
	})

	t.Run("Failure - Product Gone From Catalog", func(t *testing.T) {
		f := newFinalizer(t)
		store, _ := newStore(t, customerID, cartLines...)

		f.catalog.On("GetProductByID", mock.Anything, p1).Return(nil, appErrors.NotFoundError("Product not found")).Once()

		_, err := f.finalizer.Checkout(t.Context(), store, validForm)

		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodePriceLookupMissing, appErr.Code)
		assert.Equal(t, []string{p1.String()}, appErr.Meta[appErrors.MetaProducts])
	})

	t.Run("Success - Missing Draft Is Reconstructed", func(t *testing.T) {
		// Arrange
		f := newFinalizer(t)
		store, _ := newStore(t, customerID, cartLines...)

		f.catalog.On("GetProductByID", mock.Anything, p1).Return(product(p1, 1500, 5), nil).Once()
		f.drafts.On("GetDraft", mock.Anything, customerID).Return(nil, appErrors.NotFoundError("Draft order not found")).Once()
		f.drafts.On("UpsertDraft", mock.Anything, mock.MatchedBy(func(req *models.UpsertDraftRequest) bool {
			return req.CustomerID == customerID && req.Amount.Equal(total) && len(req.Items) == 1
		})).Return(matchingDraft(), nil).Once()
		f.payments.On("CreatePayment", mock.Anything, mock.Anything).Return(payment(models.PaymentStatusSuccess), nil).Once()
		f.drafts.On("CompleteDraft", mock.Anything, mock.Anything).Return(created(), nil).Once()

		// Act
		order, err := f.finalizer.Checkout(t.Context(), store, validForm)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, orderID, order.ID)
		assert.Empty(t, store.Snapshot())
	})

	t.Run("Success - Stale Draft Is Replaced Before Payment", func(t *testing.T) {
		f := newFinalizer(t)
		store, _ := newStore(t, customerID, cartLines...)

		stale := matchingDraft()
		stale.Items[0].PriceAtOrder = decimal.NewFromInt(1400)
		stale.Amount = decimal.NewFromInt(3250)

		f.catalog.On("GetProductByID", mock.Anything, p1).Return(product(p1, 1500, 5), nil).Once()
		f.drafts.On("GetDraft", mock.Anything, customerID).Return(stale, nil).Once()
		f.drafts.On("UpsertDraft", mock.Anything, mock.Anything).Return(matchingDraft(), nil).Once()
		f.payments.On("CreatePayment", mock.Anything, mock.MatchedBy(func(req *models.CreatePaymentRequest) bool {
			return req.Amount.Equal(total)
		})).Return(payment(models.PaymentStatusSuccess), nil).Once()
		f.drafts.On("CompleteDraft", mock.Anything, mock.Anything).Return(created(), nil).Once()

		_, err := f.finalizer.Checkout(t.Context(), store, validForm)

		require.NoError(t, err)
	})

	t.Run("Success - Draft Vanishes After Payment", func(t *testing.T) {
		// Arrange
		f := newFinalizer(t)
		store, _ := newStore(t, customerID, cartLines...)
		completeReq := &models.CompleteOrderRequest{OrderID: orderID, PaymentID: paymentID}

		f.catalog.On("GetProductByID", mock.Anything, p1).Return(product(p1, 1500, 5), nil).Once()
		f.drafts.On("GetDraft", mock.Anything, customerID).Return(matchingDraft(), nil).Once()
		f.payments.On("CreatePayment", mock.Anything, mock.Anything).Return(payment(models.PaymentStatusSuccess), nil).Once()
		f.drafts.On("CompleteDraft", mock.Anything, completeReq).Return(nil, appErrors.NotFoundError("Draft order not found")).Once()
		f.drafts.On("UpsertDraft", mock.Anything, mock.MatchedBy(func(req *models.UpsertDraftRequest) bool {
			return req.ID == orderID
		})).Return(matchingDraft(), nil).Once()
		f.drafts.On("CompleteDraft", mock.Anything, completeReq).Return(created(), nil).Once()

		// Act
		order, err := f.finalizer.Checkout(t.Context(), store, validForm)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCreated, order.Status)
		f.drafts.AssertNumberOfCalls(t, "CompleteDraft", 2)
	})

	t.Run("Success - Draft Rewritten After Payment Is Restored", func(t *testing.T) {
		// Arrange
		f := newFinalizer(t)
		store, _ := newStore(t, customerID, cartLines...)
		completeReq := &models.CompleteOrderRequest{OrderID: orderID, PaymentID: paymentID}

		f.catalog.On("GetProductByID", mock.Anything, p1).Return(product(p1, 1500, 5), nil).Once()
		f.drafts.On("GetDraft", mock.Anything, customerID).Return(matchingDraft(), nil).Once()
		f.payments.On("CreatePayment", mock.Anything, mock.Anything).Return(payment(models.PaymentStatusSuccess), nil).Once()
		f.drafts.On("CompleteDraft", mock.Anything, completeReq).
			Return(nil, appErrors.BadRequestError("Payment does not settle this order")).Once()
		f.drafts.On("UpsertDraft", mock.Anything, mock.MatchedBy(func(req *models.UpsertDraftRequest) bool {
			return req.ID == orderID && req.Amount.Equal(total) && req.Items[0].Quantity == 2
		})).Return(matchingDraft(), nil).Once()
		f.drafts.On("CompleteDraft", mock.Anything, completeReq).Return(created(), nil).Once()

		// Act
		order, err := f.finalizer.Checkout(t.Context(), store, validForm)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCreated, order.Status)
		assert.True(t, store.IsEmpty())
	})

	t.Run("Failure - Completion Error Keeps Cart", func(t *testing.T) {
		f := newFinalizer(t)
		store, _ := newStore(t, customerID, cartLines...)

		f.catalog.On("GetProductByID", mock.Anything, p1).Return(product(p1, 1500, 5), nil).Once()
		f.drafts.On("GetDraft", mock.Anything, customerID).Return(matchingDraft(), nil).Once()
		f.payments.On("CreatePayment", mock.Anything, mock.Anything).Return(payment(models.PaymentStatusSuccess), nil).Once()
		f.drafts.On("CompleteDraft", mock.Anything, mock.Anything).Return(nil, appErrors.DatabaseError("Failed to complete order")).Once()

		_, err := f.finalizer.Checkout(t.Context(), store, validForm)

		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeInternal, appErr.Code)
		assert.Equal(t, paymentID.String(), appErr.Meta[appErrors.MetaPaymentID])
		assert.Equal(t, cartLines, store.Snapshot())
	})
}
