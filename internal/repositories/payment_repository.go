package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/cricketxpert/checkout-service/internal/utils"
	"github.com/google/uuid"
)

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListPaymentsOfCustomer(ctx context.Context, customerID uuid.UUID, page, size int) ([]*models.Payment, int, error)
}

type paymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{DB: db}
}

func (r *paymentRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO payments (id, user_id, order_id, payment_type, amount, currency, status, gateway_ref, failure_reason, payment_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING created_at
	`

	err := r.DB.QueryRowContext(dbCtx, query, payment.ID, payment.UserID, payment.OrderID, payment.PaymentType, payment.Amount,
		payment.Currency, payment.Status, payment.GatewayRef, payment.FailureText, payment.PaymentDate).Scan(&payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

const paymentColumns = `id, user_id, order_id, payment_type, amount, currency, status, gateway_ref, failure_reason, payment_date, created_at`

func scanPayment(row interface{ Scan(dest ...any) error }) (*models.Payment, error) {
	payment := &models.Payment{}

	err := row.Scan(&payment.ID, &payment.UserID, &payment.OrderID, &payment.PaymentType, &payment.Amount, &payment.Currency,
		&payment.Status, &payment.GatewayRef, &payment.FailureText, &payment.PaymentDate, &payment.CreatedAt)
	if err != nil {
		return nil, err
	}

	return payment, nil
}

func (r *paymentRepository) GetPaymentByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	payment, err := scanPayment(r.DB.QueryRowContext(dbCtx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get the payment: %w", err)
	}

	return payment, nil
}

func (r *paymentRepository) ListPaymentsOfCustomer(ctx context.Context, customerID uuid.UUID, page, size int) ([]*models.Payment, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int

	if err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM payments WHERE user_id = $1`, customerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	offset := (page - 1) * size

	rows, err := r.DB.QueryContext(dbCtx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, customerID, size, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []*models.Payment{}

	for rows.Next() {

		payment, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payment: %w", err)
		}

		payments = append(payments, payment)

	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, total, nil
}
