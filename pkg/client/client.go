// Package client talks to the draft order, payment and catalog endpoints of a remote
// checkout service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cricketxpert/checkout-service/internal/checkout"
	appErrors "github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/cricketxpert/checkout-service/internal/utils/response"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	_ checkout.DraftOrderAPI = (*Client)(nil)
	_ checkout.PaymentAPI    = (*Client)(nil)
	_ checkout.Catalog       = (*Client)(nil)
)

type Client struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
}

func New(baseURL, serviceToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type envelope struct {
	Success bool                    `json:"success"`
	Data    json.RawMessage         `json:"data"`
	Error   *response.ErrorResponse `json:"error"`
}

func (c *Client) UpsertDraft(ctx context.Context, req *models.UpsertDraftRequest) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders/cart", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) GetDraft(ctx context.Context, customerID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodGet, "/api/v1/orders/cart/"+customerID.String(), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) DeleteDraft(ctx context.Context, customerID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/orders/cart/"+customerID.String(), nil, nil)
}

func (c *Client) CompleteDraft(ctx context.Context, req *models.CompleteOrderRequest) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPut, "/api/v1/orders/cart/complete", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) CreatePayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.Payment, error) {
	var payment models.Payment
	if err := c.do(ctx, http.MethodPost, "/api/v1/payments", req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *Client) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, http.MethodGet, "/api/v1/products/"+id.String(), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// do sends one JSON request. Error envelopes come back as *errors.AppError so callers can
// classify them the same way as in-process errors; transport failures are returned wrapped.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return appErrors.ThirdPartyError(fmt.Sprintf("Upstream returned status %d", resp.StatusCode)).WithError(err)
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		return decodeError(resp.StatusCode, env.Error)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}

	return nil
}

func decodeError(status int, body *response.ErrorResponse) error {
	if body == nil {
		return appErrors.ThirdPartyError(fmt.Sprintf("Upstream returned status %d", status))
	}

	appErr := appErrors.NewAppError(body.Code, body.Message, status)
	if len(body.Details) > 0 {
		appErr.WithDetail(strings.Join(body.Details, "; "))
	}
	for key, value := range body.Meta {
		appErr.WithMeta(key, value)
	}

	return appErr
}
