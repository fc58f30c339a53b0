// Package cart owns a customer's cart lines, persists them on every change and
// announces each change to whoever keeps the draft order in step.
package cart

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/cricketxpert/checkout-service/internal/cache"
	appErrors "github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/google/uuid"
)

// Storage is the durable get/set/remove contract the store serializes its state to.
type Storage interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// StockChecker returns the live stock of a product. A missing product is reported
// as a NOT_FOUND AppError.
type StockChecker interface {
	Stock(ctx context.Context, productID uuid.UUID) (int, error)
}

// Event carries the full cart state after a mutation.
type Event struct {
	CustomerID uuid.UUID
	Lines      []models.CartLine
	Address    string
	At         time.Time
}

// Notifier must not block the caller.
type Notifier interface {
	CartChanged(ctx context.Context, ev Event)
}

type Options struct {
	Storage  Storage
	Stock    StockChecker
	Notifier Notifier
	TTL      time.Duration
	Logger   *slog.Logger
}

// Store is the cart of one customer. Lines keep insertion order and never repeat a product.
type Store struct {
	customerID uuid.UUID
	key        string
	opts       Options
	logger     *slog.Logger

	mu      sync.RWMutex
	lines   []models.CartLine
	address string
}

func StorageKey(customerID uuid.UUID) string {
	return cache.Key(cache.CartKeyPrefix, customerID.String())
}

// Open loads the persisted cart of customerID, or starts an empty one.
func Open(ctx context.Context, customerID uuid.UUID, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		customerID: customerID,
		key:        StorageKey(customerID),
		opts:       opts,
		logger:     logger.With(slog.String("customerId", customerID.String())),
	}

	var persisted models.Cart

	found, err := opts.Storage.Get(ctx, s.key, &persisted)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to load cart").WithError(err)
	}

	if found {
		s.lines = normalize(persisted.Lines)
		s.address = persisted.Address
	}

	return s, nil
}

func (s *Store) CustomerID() uuid.UUID {
	return s.customerID
}

// Snapshot returns a copy of the current lines.
func (s *Store) Snapshot() []models.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.lines)
}

func (s *Store) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.address
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.lines) == 0
}

// AddOrIncrement changes the quantity of productID by delta. Increments are checked
// against live stock and rejected in full when they do not fit; decrements never are.
func (s *Store) AddOrIncrement(ctx context.Context, productID uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.lines)
	idx := indexOf(next, productID)

	if idx < 0 {
		if delta < 0 {
			return nil
		}

		stock, known, err := s.stock(ctx, productID)
		if err != nil {
			return err
		}

		if known {
			if stock <= 0 {
				return appErrors.OutOfStockError(productID.String())
			}
			if delta > stock {
				return appErrors.InsufficientStockError(productID.String(), stock)
			}
		}

		next = append(next, models.CartLine{ProductID: productID, Quantity: delta})

		return s.commit(ctx, next, s.address)
	}

	quantity := max(0, next[idx].Quantity+delta)

	if quantity == 0 {
		next = slices.Delete(next, idx, idx+1)

		return s.commit(ctx, next, s.address)
	}

	if delta > 0 {
		stock, known, err := s.stock(ctx, productID)
		if err != nil {
			return err
		}

		if known && quantity > stock {
			if stock <= 0 {
				return appErrors.OutOfStockError(productID.String())
			}

			return appErrors.InsufficientStockError(productID.String(), stock)
		}
	}

	next[idx].Quantity = quantity

	return s.commit(ctx, next, s.address)
}

// Remove deletes the line for productID; a missing line is not an error.
func (s *Store) Remove(ctx context.Context, productID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.lines, productID)
	if idx < 0 {
		return nil
	}

	next := slices.Delete(slices.Clone(s.lines), idx, idx+1)

	return s.commit(ctx, next, s.address)
}

// Clear empties the cart. It always announces the change so leftover drafts get removed.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, nil, s.address)
}

func (s *Store) SetAddress(ctx context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if address == s.address {
		return nil
	}

	return s.commit(ctx, slices.Clone(s.lines), address)
}

// stock reports known=false when the catalog could not be reached; the mutation
// then goes ahead unchecked.
func (s *Store) stock(ctx context.Context, productID uuid.UUID) (int, bool, error) {
	if s.opts.Stock == nil {
		return 0, false, nil
	}

	stock, err := s.opts.Stock.Stock(ctx, productID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return 0, false, appErrors.NotFoundError("Product not found").WithDetail(productID.String())
		}

		s.logger.Warn("Stock lookup failed, allowing cart mutation",
			slog.String("productId", productID.String()),
			slog.String("error", err.Error()))

		return 0, false, nil
	}

	return stock, true, nil
}

// commit persists the next state and only then makes it visible. Must hold s.mu.
func (s *Store) commit(ctx context.Context, lines []models.CartLine, address string) error {
	if err := s.persist(ctx, lines, address); err != nil {
		s.logger.Error("Failed to persist cart", slog.String("error", err.Error()))

		return appErrors.DatabaseError("Failed to save cart").WithError(err)
	}

	s.lines = lines
	s.address = address

	if s.opts.Notifier != nil {
		s.opts.Notifier.CartChanged(ctx, Event{
			CustomerID: s.customerID,
			Lines:      slices.Clone(lines),
			Address:    address,
			At:         time.Now().UTC(),
		})
	}

	return nil
}

func (s *Store) persist(ctx context.Context, lines []models.CartLine, address string) error {
	if len(lines) == 0 && address == "" {
		return s.opts.Storage.Delete(ctx, s.key)
	}

	return s.opts.Storage.Set(ctx, s.key, models.Cart{
		CustomerID: s.customerID,
		Lines:      lines,
		Address:    address,
		UpdatedAt:  time.Now().UTC(),
	}, s.opts.TTL)
}

func indexOf(lines []models.CartLine, productID uuid.UUID) int {
	return slices.IndexFunc(lines, func(l models.CartLine) bool {
		return l.ProductID == productID
	})
}

// normalize merges duplicate products and drops non-positive quantities from persisted data.
func normalize(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, 0, len(lines))

	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}

		if idx := indexOf(out, line.ProductID); idx >= 0 {
			out[idx].Quantity += line.Quantity
			continue
		}

		out = append(out, line)
	}

	return out
}
