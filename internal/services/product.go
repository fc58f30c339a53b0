package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/cricketxpert/checkout-service/internal/api/middleware"
	"github.com/cricketxpert/checkout-service/internal/cache"
	"github.com/cricketxpert/checkout-service/internal/config"
	appErrors "github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/models"
	repository "github.com/cricketxpert/checkout-service/internal/repositories"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type ProductService interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error)
}

type productService struct {
	repo  repository.ProductRepository
	cache cache.Cache
	cfg   *config.CacheConfig
}

func NewProductService(repo repository.ProductRepository, cache cache.Cache, cfg *config.CacheConfig) ProductService {
	return &productService{repo: repo, cache: cache, cfg: cfg}
}

// GetProductByID reads through the product cache. Cache failures only cost a database round trip.
func (s *productService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	logger := middleware.LoggerFromContext(ctx)
	key := cache.Key(cache.ProductKeyPrefix, id.String())

	var cached models.Product

	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("Product cache read failed", slog.String("productId", id.String()), slog.Any("error", err))
	}
	if hit {
		return &cached, nil
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}
		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if err := s.cache.Set(ctx, key, product, s.cfg.ProductTTL); err != nil {
		logger.Warn("Product cache write failed", slog.String("productId", id.String()), slog.Any("error", err))
	}

	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error) {

	page, size := normalizePage(filter.Page, filter.Size)

	normalized := *filter
	normalized.Page, normalized.Size = page, size

	products, total, err := s.repo.ListProducts(ctx, &normalized)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch products").WithError(err)
	}

	return products, total, nil
}

// page means "page number requested"
// size means "number of rows to be displayed per page"
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}

	if size < 1 {
		size = defaultPageSize
	}

	if size > maxPageSize {
		size = maxPageSize
	}

	return page, size
}
