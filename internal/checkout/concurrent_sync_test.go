package checkout_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cricketxpert/checkout-service/internal/cart"
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

// draftBook keeps orders in memory and settles them the way the order repository does:
// a payment completes a draft only when it pays exactly the draft amount.
type draftBook struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*models.Order
	payments map[uuid.UUID]*models.Payment
	upserted []int
}

func newDraftBook() *draftBook {
	return &draftBook{
		orders:   make(map[uuid.UUID]*models.Order),
		payments: make(map[uuid.UUID]*models.Payment),
	}
}

func (b *draftBook) pending(customerID uuid.UUID) *models.Order {
	for _, o := range b.orders {
		if o.CustomerID == customerID && o.IsDraft() {
			return o
		}
	}

	return nil
}

func (b *draftBook) UpsertDraft(_ context.Context, req *models.UpsertDraftRequest) (*models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.upserted = append(b.upserted, req.Items[0].Quantity)

	draft := b.pending(req.CustomerID)
	if draft == nil {
		id := req.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		draft = &models.Order{ID: id, CustomerID: req.CustomerID, Status: models.OrderStatusCartPending}
		b.orders[id] = draft
	}

	draft.Items = append([]models.OrderItem(nil), req.Items...)
	draft.Amount = req.Amount
	draft.Address = req.Address

	out := *draft
	return &out, nil
}

func (b *draftBook) GetDraft(_ context.Context, customerID uuid.UUID) (*models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	draft := b.pending(customerID)
	if draft == nil {
		return nil, appErrors.NotFoundError("Draft order not found")
	}

	out := *draft
	return &out, nil
}

func (b *draftBook) DeleteDraft(_ context.Context, customerID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if draft := b.pending(customerID); draft != nil {
		delete(b.orders, draft.ID)
	}

	return nil
}

func (b *draftBook) CompleteDraft(_ context.Context, req *models.CompleteOrderRequest) (*models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	order, ok := b.orders[req.OrderID]
	if !ok {
		return nil, appErrors.NotFoundError("Draft order not found")
	}

	payment, ok := b.payments[req.PaymentID]
	if !ok || payment.OrderID != order.ID || !payment.Amount.Equal(order.Amount) {
		return nil, appErrors.BadRequestError("Payment does not settle this order")
	}

	order.Status = models.OrderStatusCreated
	order.PaymentID = &payment.ID

	out := *order
	return &out, nil
}

// bookPayments approves every charge and records it in the book. during runs while the
// charge is in progress.
type bookPayments struct {
	book    *draftBook
	during  func(ctx context.Context)
	charged []decimal.Decimal
}

func (p *bookPayments) CreatePayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.Payment, error) {
	if p.during != nil {
		p.during(ctx)
	}

	payment := &models.Payment{
		ID:      uuid.New(),
		UserID:  req.UserID,
		OrderID: req.OrderID,
		Amount:  req.Amount,
		Status:  models.PaymentStatusSuccess,
	}

	p.book.mu.Lock()
	p.book.payments[payment.ID] = payment
	p.book.mu.Unlock()

	p.charged = append(p.charged, req.Amount)

	return payment, nil
}

func TestCheckoutWithConcurrentDraftSync(t *testing.T) {
	customerID := uuid.New()
	p1 := uuid.New()
	total := decimal.NewFromInt(3450)

	staleEvent := cart.Event{CustomerID: customerID, Lines: []models.CartLine{{ProductID: p1, Quantity: 1}}}

	newQuoter := func(t *testing.T) *checkout.Quoter {
		catalog := mocks.NewMockCatalog(t)
		catalog.On("GetProductByID", mock.Anything, p1).Return(product(p1, 1500, 10), nil)

		return checkout.NewQuoter(catalog, newCalculator(), time.Second)
	}

	t.Run("Success - Stale Sync During Payment Does Not Strand The Charge", func(t *testing.T) {
		// Arrange
		book := newDraftBook()
		quoter := newQuoter(t)
		synchronizer := checkout.NewSynchronizer(book, quoter, time.Second, nil)
		payments := &bookPayments{book: book, during: func(ctx context.Context) {
			synchronizer.HandleCartChanged(ctx, staleEvent)
		}}
		finalizer := checkout.NewFinalizer(book, payments, quoter, nil, nil)
		store, _ := newStore(t, customerID, models.CartLine{ProductID: p1, Quantity: 2})

		// Act
		order, err := finalizer.Checkout(t.Context(), store, validForm)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCreated, order.Status)
		assert.True(t, total.Equal(order.Amount), "order amount %s", order.Amount)
		require.Len(t, order.Items, 1)
		assert.Equal(t, 2, order.Items[0].Quantity)
		require.Len(t, payments.charged, 1)
		assert.True(t, total.Equal(payments.charged[0]))
		assert.True(t, store.IsEmpty())
	})

	t.Run("Success - Queued Sync Lands Before The Draft Is Ensured", func(t *testing.T) {
		// Arrange
		book := newDraftBook()
		quoter := newQuoter(t)
		synchronizer := checkout.NewSynchronizer(book, quoter, time.Second, nil)

		gate := make(chan struct{})
		dispatcher := cart.NewDispatcher(1, func(ctx context.Context, ev cart.Event) {
			<-gate
			synchronizer.HandleCartChanged(ctx, ev)
		}, nil)
		t.Cleanup(func() { _ = dispatcher.Close(context.Background()) })

		payments := &bookPayments{book: book}
		finalizer := checkout.NewFinalizer(book, payments, quoter, dispatcher, nil)
		store, _ := newStore(t, customerID, models.CartLine{ProductID: p1, Quantity: 2})

		dispatcher.CartChanged(t.Context(), staleEvent)
		time.AfterFunc(50*time.Millisecond, func() { close(gate) })

		// Act
		order, err := finalizer.Checkout(t.Context(), store, validForm)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, order.Items[0].Quantity)
		assert.True(t, total.Equal(order.Amount))

		book.mu.Lock()
		defer book.mu.Unlock()
		assert.Equal(t, []int{1, 2}, book.upserted, "the queued sync must finish before checkout writes the draft")
	})
}
