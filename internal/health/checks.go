package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cricketxpert/checkout-service/internal/config"
	"github.com/hellofresh/health-go/v5"
	"github.com/hellofresh/health-go/v5/checks/postgres"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
	"github.com/segmentio/kafka-go"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/balance"
)

const componentName = "checkout-service"

// Endpoints holds the optional dependencies that get a check only when configured.
type Endpoints struct {
	Stripe     stripe.Backend
	HTTPClient *http.Client
}

func NewHealthHandler(cfg *config.Config, endpoints *Endpoints) (*health.Health, error) {
	if endpoints == nil {
		endpoints = &Endpoints{}
	}

	checks := []health.Config{
		{
			Name:      "database",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: postgres.New(postgres.Config{
				DSN: cfg.Database.GetDSN(),
			}),
		},
		{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: false,
			Check: healthRedis.New(healthRedis.Config{
				DSN: cfg.RedisConnect.GetDSN(),
			}),
		},
	}

	if len(cfg.Kafka.Brokers) > 0 {
		checks = append(checks, health.Config{
			Name:      "kafka",
			Timeout:   2 * time.Second,
			SkipOnErr: true,
			Check:     KafkaCheck(cfg.Kafka.Brokers),
		})
	}

	if cfg.Upstream.BaseURL != "" {
		checks = append(checks, health.Config{
			Name:      "upstream",
			Timeout:   cfg.Upstream.Timeout,
			SkipOnErr: false,
			Check:     UpstreamCheck(endpoints.HTTPClient, cfg.Upstream.BaseURL),
		})
	}

	if cfg.Stripe.Enabled {
		backend := endpoints.Stripe
		if backend == nil {
			backend = stripe.GetBackend(stripe.APIBackend)
		}

		checks = append(checks, health.Config{
			Name:      "stripe",
			Timeout:   5 * time.Second,
			SkipOnErr: true,
			Check:     StripeCheck(backend, cfg.Stripe.APIKey),
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    componentName,
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}

// KafkaCheck passes when any broker accepts a connection.
func KafkaCheck(brokers []string) health.CheckFunc {
	return func(ctx context.Context) error {
		var lastErr error

		for _, broker := range brokers {
			conn, err := kafka.DialContext(ctx, "tcp", broker)
			if err != nil {
				lastErr = err
				continue
			}

			return conn.Close()
		}

		return fmt.Errorf("no kafka broker reachable: %w", lastErr)
	}
}

// UpstreamCheck calls the remote checkout API's own health endpoint.
func UpstreamCheck(client *http.Client, baseURL string) health.CheckFunc {
	if client == nil {
		client = http.DefaultClient
	}

	target := strings.TrimRight(baseURL, "/") + "/health"

	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to reach upstream: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("upstream unhealthy: status %d", resp.StatusCode)
		}

		return nil
	}
}

func StripeCheck(backend stripe.Backend, apiKey string) health.CheckFunc {
	client := balance.Client{B: backend, Key: apiKey}

	return func(ctx context.Context) error {
		params := &stripe.BalanceParams{
			Params: stripe.Params{
				Context: ctx,
			},
		}

		if _, err := client.Get(params); err != nil {
			return fmt.Errorf("failed to connect to stripe: %w", err)
		}

		return nil
	}
}
