package checkout_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cricketxpert/checkout-service/internal/cache"
	"github.com/cricketxpert/checkout-service/internal/cart"
	"github.com/cricketxpert/checkout-service/internal/config"
	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/cricketxpert/checkout-service/internal/pricing"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var deliveryFee = decimal.NewFromInt(450)

func newCalculator() *pricing.Calculator {
	return pricing.NewCalculator(pricing.NewFixedFee(deliveryFee))
}

type notifications struct {
	events []cart.Event
}

func (n *notifications) CartChanged(_ context.Context, ev cart.Event) {
	n.events = append(n.events, ev)
}

// newStore opens a Redis-backed cart holding lines, with stock checks disabled.
func newStore(t *testing.T, customerID uuid.UUID, lines ...models.CartLine) (*cart.Store, *notifications) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	storage := cache.NewRedisCache(client, &config.CacheConfig{DefaultTTL: time.Hour})

	if len(lines) > 0 {
		require.NoError(t, storage.Set(t.Context(), cart.StorageKey(customerID), models.Cart{
			CustomerID: customerID,
			Lines:      lines,
		}, time.Hour))
	}

	notifier := &notifications{}

	store, err := cart.Open(t.Context(), customerID, cart.Options{
		Storage:  storage,
		Notifier: notifier,
		TTL:      time.Hour,
	})
	require.NoError(t, err)

	return store, notifier
}

func product(id uuid.UUID, price int64, stock int) *models.Product {
	return &models.Product{ID: id, Name: "Cricket Bat", Price: decimal.NewFromInt(price), StockQuantity: stock}
}
