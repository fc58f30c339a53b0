package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/cricketxpert/checkout-service/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type OrderRepository interface {
	UpsertDraft(ctx context.Context, draft *models.Order) (*models.Order, error)
	GetDraftByCustomerID(ctx context.Context, customerID uuid.UUID) (*models.Order, error)
	DeleteDraft(ctx context.Context, customerID uuid.UUID) (bool, error)
	CompleteDraft(ctx context.Context, orderID, paymentID uuid.UUID) (*models.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error)
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// UpsertDraft writes the customer's only draft. An existing draft keeps its id and has
// its amount, address and items replaced.
func (r *orderRepository) UpsertDraft(ctx context.Context, draft *models.Order) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := draft.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	query := `
		INSERT INTO orders (id, customer_id, amount, address, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'cart_pending', NOW(), NOW())
		ON CONFLICT (customer_id) WHERE status = 'cart_pending'
		DO UPDATE SET amount = EXCLUDED.amount, address = EXCLUDED.address, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	stored := &models.Order{
		CustomerID: draft.CustomerID,
		Amount:     draft.Amount,
		Address:    draft.Address,
		Status:     models.OrderStatusCartPending,
	}

	err = tx.QueryRowContext(dbCtx, query, id, draft.CustomerID, draft.Amount, draft.Address).
		Scan(&stored.ID, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert draft order: %w", err)
	}

	if _, err := tx.ExecContext(dbCtx, `DELETE FROM order_items WHERE order_id = $1`, stored.ID); err != nil {
		return nil, fmt.Errorf("failed to clear draft items: %w", err)
	}

	for position, item := range draft.Items {

		_, err := tx.ExecContext(dbCtx, `
			INSERT INTO order_items (order_id, product_id, quantity, price_at_order, position)
			VALUES ($1, $2, $3, $4, $5)
		`, stored.ID, item.ProductID, item.Quantity, item.PriceAtOrder, position)
		if err != nil {
			return nil, fmt.Errorf("failed to insert draft item: %w", err)
		}

	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit draft order: %w", err)
	}

	stored.Items = append([]models.OrderItem(nil), draft.Items...)

	return stored, nil
}

func (r *orderRepository) GetDraftByCustomerID(ctx context.Context, customerID uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.Order{CustomerID: customerID}

	query := `
		SELECT id, amount, address, status, created_at, updated_at
		FROM orders
		WHERE customer_id = $1 AND status = 'cart_pending'
	`

	err := r.DB.QueryRowContext(dbCtx, query, customerID).
		Scan(&order.ID, &order.Amount, &order.Address, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft order: %w", err)
	}

	if order.Items, err = loadItems(dbCtx, r.DB, order.ID); err != nil {
		return nil, err
	}

	return order, nil
}

// DeleteDraft only touches cart_pending rows; items go with the order.
func (r *orderRepository) DeleteDraft(ctx context.Context, customerID uuid.UUID) (bool, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `DELETE FROM orders WHERE customer_id = $1 AND status = 'cart_pending'`, customerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete draft order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// CompleteDraft flips a draft to created inside one transaction, after checking that the
// payment succeeded for this order and for its amount. Completing twice with the same
// payment returns the order unchanged.
func (r *orderRepository) CompleteDraft(ctx context.Context, orderID, paymentID uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order := &models.Order{ID: orderID}

	var currentPayment uuid.NullUUID

	err = tx.QueryRowContext(dbCtx, `
		SELECT customer_id, amount, address, status, payment_id, created_at, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, orderID).Scan(&order.CustomerID, &order.Amount, &order.Address, &order.Status, &currentPayment, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	alreadyDone := order.Status == models.OrderStatusCreated && currentPayment.Valid && currentPayment.UUID == paymentID

	if !alreadyDone {

		if order.Status != models.OrderStatusCartPending {
			return nil, fmt.Errorf("order %s has status %s: %w", orderID, order.Status, ErrOrderNotDraft)
		}

		payment := &models.Payment{ID: paymentID}

		err = tx.QueryRowContext(dbCtx, `SELECT order_id, amount, status FROM payments WHERE id = $1`, paymentID).
			Scan(&payment.OrderID, &payment.Amount, &payment.Status)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %s not found: %w", paymentID, ErrPaymentMismatch)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load payment: %w", err)
		}

		if payment.OrderID != orderID || payment.Status != models.PaymentStatusSuccess || !payment.Amount.Equal(order.Amount) {
			return nil, fmt.Errorf("payment %s (status %s, amount %s): %w", paymentID, payment.Status, payment.Amount, ErrPaymentMismatch)
		}

		err = tx.QueryRowContext(dbCtx, `
			UPDATE orders SET status = 'created', payment_id = $1, updated_at = NOW()
			WHERE id = $2
			RETURNING updated_at
		`, paymentID, orderID).Scan(&order.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to finalize order: %w", err)
		}

		order.Status = models.OrderStatusCreated
	}

	if order.Items, err = loadItems(dbCtx, tx, orderID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	order.PaymentID = &paymentID

	return order, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order := &models.Order{ID: id}

	var paymentID uuid.NullUUID

	err := r.DB.QueryRowContext(dbCtx, `
		SELECT customer_id, amount, address, status, payment_id, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.CustomerID, &order.Amount, &order.Address, &order.Status, &paymentID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	if paymentID.Valid {
		order.PaymentID = &paymentID.UUID
	}

	if order.Items, err = loadItems(dbCtx, r.DB, id); err != nil {
		return nil, err
	}

	return order, nil
}

// ListOrdersByCustomer returns finalized orders, newest first. Drafts are not listed.
func (r *orderRepository) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID, page, size int) ([]models.Order, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM orders WHERE customer_id = $1 AND status <> 'cart_pending'`, customerID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * size

	rows, err := r.DB.QueryContext(dbCtx, `
		SELECT id, amount, address, status, payment_id, created_at, updated_at
		FROM orders
		WHERE customer_id = $1 AND status <> 'cart_pending'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, customerID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []models.Order
		ids    []string
	)

	for rows.Next() {

		order := models.Order{CustomerID: customerID}

		var paymentID uuid.NullUUID

		if err := rows.Scan(&order.ID, &order.Amount, &order.Address, &order.Status, &paymentID, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan the orders: %w", err)
		}

		if paymentID.Valid {
			order.PaymentID = &paymentID.UUID
		}

		orders = append(orders, order)
		ids = append(ids, order.ID.String())

	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, total, nil
	}

	itemRows, err := r.DB.QueryContext(dbCtx, `
		SELECT order_id, product_id, quantity, price_at_order
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`, pq.Array(ids))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get the order items: %w", err)
	}
	defer itemRows.Close()

	byOrder := make(map[uuid.UUID][]models.OrderItem, len(orders))

	for itemRows.Next() {

		var (
			orderID uuid.UUID
			item    models.OrderItem
		)

		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.PriceAtOrder); err != nil {
			return nil, 0, fmt.Errorf("failed to scan order item: %w", err)
		}

		byOrder[orderID] = append(byOrder[orderID], item)

	}

	if err := itemRows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate order items: %w", err)
	}

	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}

	return orders, total, nil
}

// UpdateOrderStatus moves the order from one status to the next. It reports false when
// the order was not in the expected status.
func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := r.DB.ExecContext(dbCtx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

func loadItems(ctx context.Context, q queryer, orderID uuid.UUID) ([]models.OrderItem, error) {

	rows, err := q.QueryContext(ctx, `
		SELECT product_id, quantity, price_at_order
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get the order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}

	for rows.Next() {

		var item models.OrderItem

		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.PriceAtOrder); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		items = append(items, item)

	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}

	return items, nil
}
