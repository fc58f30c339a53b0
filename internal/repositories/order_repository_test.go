package repository_test

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cricketxpert/checkout-service/internal/models"
	repository "github.com/cricketxpert/checkout-service/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orderLockSQL     = regexp.QuoteMeta(`FROM orders WHERE id = $1 FOR UPDATE`)
	paymentCheckSQL  = regexp.QuoteMeta(`SELECT order_id, amount, status FROM payments WHERE id = $1`)
	orderItemsSQL    = regexp.QuoteMeta(`FROM order_items WHERE order_id = $1 ORDER BY position`)
	orderItemColumns = []string{"product_id", "quantity", "price_at_order"}
	orderRowColumns  = []string{"customer_id", "amount", "address", "status", "payment_id", "created_at", "updated_at"}
)

func setupOrderRepoTest(t *testing.T) (repository.OrderRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	return repository.NewOrderRepository(db), mock
}

func TestUpsertDraft(t *testing.T) {
	upsertSQL := regexp.QuoteMeta(`ON CONFLICT (customer_id) WHERE status = 'cart_pending'`)
	clearSQL := regexp.QuoteMeta(`DELETE FROM order_items WHERE order_id = $1`)
	insertItemSQL := regexp.QuoteMeta(`INSERT INTO order_items (order_id, product_id, quantity, price_at_order, position)`)

	customerID := uuid.New()
	bat, pads := uuid.New(), uuid.New()

	draft := &models.Order{
		CustomerID: customerID,
		Amount:     decimal.NewFromInt(3450),
		Address:    "12 Galle Road, Colombo",
		Items: []models.OrderItem{
			{ProductID: bat, Quantity: 2, PriceAtOrder: decimal.NewFromInt(1500)},
		},
	}

	t.Run("Success - Creates Or Replaces Draft", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		storedID := uuid.New()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(upsertSQL).
			WithArgs(sqlmock.AnyArg(), customerID, draft.Amount, draft.Address).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(storedID.String(), now, now))
		mock.ExpectExec(clearSQL).WithArgs(storedID).WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(insertItemSQL).
			WithArgs(storedID, bat, 2, draft.Items[0].PriceAtOrder, 0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		// Act
		stored, err := repo.UpsertDraft(t.Context(), draft)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, storedID, stored.ID)
		assert.Equal(t, models.OrderStatusCartPending, stored.Status)
		assert.Equal(t, draft.Items, stored.Items)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - Uses Requested ID", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		requested := *draft
		requested.ID = uuid.New()
		requested.Items = append(requested.Items, models.OrderItem{ProductID: pads, Quantity: 1, PriceAtOrder: decimal.NewFromInt(3000)})
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(upsertSQL).
			WithArgs(requested.ID, customerID, requested.Amount, requested.Address).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(requested.ID.String(), now, now))
		mock.ExpectExec(clearSQL).WithArgs(requested.ID).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(insertItemSQL).WithArgs(requested.ID, bat, 2, sqlmock.AnyArg(), 0).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insertItemSQL).WithArgs(requested.ID, pads, 1, sqlmock.AnyArg(), 1).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		// Act
		stored, err := repo.UpsertDraft(t.Context(), &requested)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, requested.ID, stored.ID)
		assert.Len(t, stored.Items, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Item Insert Rolls Back", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		storedID := uuid.New()
		now := time.Now()
		dbErr := errors.New("foreign key violation")

		mock.ExpectBegin()
		mock.ExpectQuery(upsertSQL).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(storedID.String(), now, now))
		mock.ExpectExec(clearSQL).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(insertItemSQL).WillReturnError(dbErr)
		mock.ExpectRollback()

		// Act
		stored, err := repo.UpsertDraft(t.Context(), draft)

		// Assert
		assert.Nil(t, stored)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to insert draft item")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetDraftByCustomerID(t *testing.T) {
	draftSQL := regexp.QuoteMeta(`WHERE customer_id = $1 AND status = 'cart_pending'`)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		customerID, draftID, productID := uuid.New(), uuid.New(), uuid.New()
		now := time.Now()

		mock.ExpectQuery(draftSQL).
			WithArgs(customerID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "amount", "address", "status", "created_at", "updated_at"}).
				AddRow(draftID.String(), "3450.00", "", "cart_pending", now, now))
		mock.ExpectQuery(orderItemsSQL).
			WithArgs(draftID).
			WillReturnRows(sqlmock.NewRows(orderItemColumns).AddRow(productID.String(), 2, "1500.00"))

		// Act
		draft, err := repo.GetDraftByCustomerID(t.Context(), customerID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, draftID, draft.ID)
		assert.True(t, draft.IsDraft())
		require.Len(t, draft.Items, 1)
		assert.Equal(t, productID, draft.Items[0].ProductID)
		assert.True(t, decimal.NewFromInt(1500).Equal(draft.Items[0].PriceAtOrder))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		mock.ExpectQuery(draftSQL).WillReturnError(sql.ErrNoRows)

		// Act
		draft, err := repo.GetDraftByCustomerID(t.Context(), uuid.New())

		// Assert
		assert.Nil(t, draft)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteDraft(t *testing.T) {
	deleteSQL := regexp.QuoteMeta(`DELETE FROM orders WHERE customer_id = $1 AND status = 'cart_pending'`)

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "Deleted", affected: 1, want: true},
		{name: "Nothing To Delete", affected: 0, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			repo, mock := setupOrderRepoTest(t)
			customerID := uuid.New()
			mock.ExpectExec(deleteSQL).WithArgs(customerID).WillReturnResult(sqlmock.NewResult(0, tc.affected))

			// Act
			deleted, err := repo.DeleteDraft(t.Context(), customerID)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tc.want, deleted)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCompleteDraft(t *testing.T) {
	finalizeSQL := regexp.QuoteMeta(`UPDATE orders SET status = 'created', payment_id = $1`)

	customerID := uuid.New()
	productID := uuid.New()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		orderID, paymentID := uuid.New(), uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(orderLockSQL).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(customerID.String(), "3450.00", "addr", "cart_pending", nil, now, now))
		mock.ExpectQuery(paymentCheckSQL).
			WithArgs(paymentID).
			WillReturnRows(sqlmock.NewRows([]string{"order_id", "amount", "status"}).AddRow(orderID.String(), "3450", "success"))
		mock.ExpectQuery(finalizeSQL).
			WithArgs(paymentID, orderID).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
		mock.ExpectQuery(orderItemsSQL).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows(orderItemColumns).AddRow(productID.String(), 2, "1500.00"))
		mock.ExpectCommit()

		// Act
		order, err := repo.CompleteDraft(t.Context(), orderID, paymentID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCreated, order.Status)
		require.NotNil(t, order.PaymentID)
		assert.Equal(t, paymentID, *order.PaymentID)
		assert.Len(t, order.Items, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - Already Completed With Same Payment", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		orderID, paymentID := uuid.New(), uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(orderLockSQL).
			WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(customerID.String(), "3450.00", "addr", "created", paymentID.String(), now, now))
		mock.ExpectQuery(orderItemsSQL).
			WillReturnRows(sqlmock.NewRows(orderItemColumns).AddRow(productID.String(), 2, "1500.00"))
		mock.ExpectCommit()

		// Act
		order, err := repo.CompleteDraft(t.Context(), orderID, paymentID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCreated, order.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Not A Draft", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)

		mock.ExpectBegin()
		mock.ExpectQuery(orderLockSQL).
			WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(customerID.String(), "3450.00", "addr", "cancelled", nil, now, now))
		mock.ExpectRollback()

		// Act
		order, err := repo.CompleteDraft(t.Context(), uuid.New(), uuid.New())

		// Assert
		assert.Nil(t, order)
		assert.ErrorIs(t, err, repository.ErrOrderNotDraft)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Payment Mismatch", func(t *testing.T) {
		tests := []struct {
			name   string
			amount string
			status string
			other  bool
		}{
			{name: "Failed Payment", amount: "3450", status: "failed"},
			{name: "Different Amount", amount: "3000", status: "success"},
			{name: "Different Order", amount: "3450", status: "success", other: true},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				// Arrange
				repo, mock := setupOrderRepoTest(t)
				orderID := uuid.New()
				paymentOrder := orderID
				if tc.other {
					paymentOrder = uuid.New()
				}

				mock.ExpectBegin()
				mock.ExpectQuery(orderLockSQL).
					WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(customerID.String(), "3450.00", "addr", "cart_pending", nil, now, now))
				mock.ExpectQuery(paymentCheckSQL).
					WillReturnRows(sqlmock.NewRows([]string{"order_id", "amount", "status"}).AddRow(paymentOrder.String(), tc.amount, tc.status))
				mock.ExpectRollback()

				// Act
				order, err := repo.CompleteDraft(t.Context(), orderID, uuid.New())

				// Assert
				assert.Nil(t, order)
				assert.ErrorIs(t, err, repository.ErrPaymentMismatch)
				assert.NoError(t, mock.ExpectationsWereMet())
			})
		}
	})

	t.Run("Failure - Payment Not Found", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)

		mock.ExpectBegin()
		mock.ExpectQuery(orderLockSQL).
			WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(customerID.String(), "3450.00", "addr", "cart_pending", nil, now, now))
		mock.ExpectQuery(paymentCheckSQL).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		// Act
		_, err := repo.CompleteDraft(t.Context(), uuid.New(), uuid.New())

		// Assert
		assert.ErrorIs(t, err, repository.ErrPaymentMismatch)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Order Not Found", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)

		mock.ExpectBegin()
		mock.ExpectQuery(orderLockSQL).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		// Act
		_, err := repo.CompleteDraft(t.Context(), uuid.New(), uuid.New())

		// Assert
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetOrderByID(t *testing.T) {
	selectSQL := regexp.QuoteMeta(`SELECT customer_id, amount, address, status, payment_id, created_at, updated_at FROM orders WHERE id = $1`)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		orderID, customerID, paymentID := uuid.New(), uuid.New(), uuid.New()
		now := time.Now()

		mock.ExpectQuery(selectSQL).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows(orderRowColumns).AddRow(customerID.String(), "3450.00", "addr", "processing", paymentID.String(), now, now))
		mock.ExpectQuery(orderItemsSQL).WithArgs(orderID).WillReturnRows(sqlmock.NewRows(orderItemColumns))

		// Act
		order, err := repo.GetOrderByID(t.Context(), orderID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, customerID, order.CustomerID)
		assert.Equal(t, models.OrderStatusProcessing, order.Status)
		require.NotNil(t, order.PaymentID)
		assert.Equal(t, paymentID, *order.PaymentID)
		assert.Empty(t, order.Items)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		mock.ExpectQuery(selectSQL).WillReturnError(sql.ErrNoRows)

		// Act
		order, err := repo.GetOrderByID(t.Context(), uuid.New())

		// Assert
		assert.Nil(t, order)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListOrdersByCustomer(t *testing.T) {
	countSQL := regexp.QuoteMeta(`SELECT COUNT(*) FROM orders WHERE customer_id = $1 AND status <> 'cart_pending'`)
	listSQL := regexp.QuoteMeta(`ORDER BY created_at DESC LIMIT $2 OFFSET $3`)
	itemsSQL := regexp.QuoteMeta(`WHERE order_id = ANY($1::uuid[])`)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		customerID := uuid.New()
		first, second := uuid.New(), uuid.New()
		productA, productB := uuid.New(), uuid.New()
		now := time.Now()

		mock.ExpectQuery(countSQL).WithArgs(customerID).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery(listSQL).
			WithArgs(customerID, 10, 0).
			WillReturnRows(sqlmock.NewRows([]string{"id", "amount", "address", "status", "payment_id", "created_at", "updated_at"}).
				AddRow(first.String(), "3450.00", "addr", "created", uuid.NewString(), now, now).
				AddRow(second.String(), "700.00", "addr", "cancelled", nil, now.Add(-time.Hour), now))
		mock.ExpectQuery(itemsSQL).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id", "quantity", "price_at_order"}).
				AddRow(first.String(), productA.String(), 2, "1500.00").
				AddRow(second.String(), productB.String(), 1, "250.00"))

		// Act
		orders, total, err := repo.ListOrdersByCustomer(t.Context(), customerID, 1, 10)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, orders, 2)
		assert.NotNil(t, orders[0].PaymentID)
		assert.Nil(t, orders[1].PaymentID)
		require.Len(t, orders[0].Items, 1)
		assert.Equal(t, productA, orders[0].Items[0].ProductID)
		assert.Equal(t, productB, orders[1].Items[0].ProductID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - Empty Page Skips Items", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)

		mock.ExpectQuery(countSQL).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(listSQL).WillReturnRows(sqlmock.NewRows([]string{"id", "amount", "address", "status", "payment_id", "created_at", "updated_at"}))

		// Act
		orders, total, err := repo.ListOrdersByCustomer(t.Context(), uuid.New(), 1, 10)

		// Assert
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, orders)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	updateSQL := regexp.QuoteMeta(`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		orderID := uuid.New()
		mock.ExpectExec(updateSQL).
			WithArgs(models.OrderStatusProcessing, orderID, models.OrderStatusCreated).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		updated, err := repo.UpdateOrderStatus(t.Context(), orderID, models.OrderStatusCreated, models.OrderStatusProcessing)

		// Assert
		require.NoError(t, err)
		assert.True(t, updated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Status Changed Concurrently", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 0))

		// Act
		updated, err := repo.UpdateOrderStatus(t.Context(), uuid.New(), models.OrderStatusCreated, models.OrderStatusCancelled)

		// Assert
		require.NoError(t, err)
		assert.False(t, updated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - DB Error", func(t *testing.T) {
		// Arrange
		repo, mock := setupOrderRepoTest(t)
		dbErr := errors.New("deadlock detected")
		mock.ExpectExec(updateSQL).WillReturnError(dbErr)

		// Act
		_, err := repo.UpdateOrderStatus(t.Context(), uuid.New(), models.OrderStatusCreated, models.OrderStatusCancelled)

		// Assert
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
