package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/cricketxpert/checkout-service/internal/utils"
	"github.com/google/uuid"
)

type ProductRepository interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error)
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

const productColumns = `
	p.id, COALESCE(p.category_id, 0), p.name, p.description, p.price,
	p.stock_quantity, p.sku, p.status, p.created_at, p.updated_at,
	c.id, c.name, c.description`

func scanProduct(row interface{ Scan(dest ...any) error }) (*models.Product, error) {
	product := &models.Product{}

	var (
		categoryID   sql.NullInt64
		categoryName sql.NullString
		categoryDesc sql.NullString
	)

	err := row.Scan(&product.ID, &product.CategoryID, &product.Name, &product.Description, &product.Price,
		&product.StockQuantity, &product.SKU, &product.Status, &product.CreatedAt, &product.UpdatedAt,
		&categoryID, &categoryName, &categoryDesc)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		product.Category = &models.Category{ID: categoryID.Int64, Name: categoryName.String, Description: categoryDesc.String}
	}

	return product, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.id = $1`

	product, err := scanProduct(r.DB.QueryRowContext(dbCtx, query, id))
	if err != nil {
		return nil, fmt.Errorf("querying product %s: %w", id, err)
	}

	return product, nil
}

// ListProducts filters by category and a case-insensitive name search. Page and Size
// must already be normalized by the caller.
func (r *productRepository) ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var (
		conditions []string
		args       []any
	)

	if filter.CategoryID > 0 {
		args = append(args, filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", len(args)))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("p.name ILIKE $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int

	if err := r.DB.QueryRowContext(dbCtx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	offset := (filter.Page - 1) * filter.Size
	args = append(args, filter.Size, offset)

	query := `SELECT` + productColumns + `
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id` + where + fmt.Sprintf(`
		ORDER BY p.name, p.id
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(dbCtx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0, filter.Size)

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning product: %w", err)
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating products: %w", err)
	}

	return products, total, nil
}
