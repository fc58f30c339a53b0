package handlers

import (
	"log/slog"
	"net/http"

	"github.com/cricketxpert/checkout-service/internal/api/middleware"
	"github.com/cricketxpert/checkout-service/internal/models"
	service "github.com/cricketxpert/checkout-service/internal/services"
	"github.com/cricketxpert/checkout-service/internal/utils"
	"github.com/cricketxpert/checkout-service/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	validator      *validator.Validate
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, validator: validator.New()}
}

// CreatePayment godoc
//	@Summary		Charge a card for an order
//	@Description	Charges the configured gateway and records the outcome. A declined card is recorded with status failed and still returns 201.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			payment	body		models.CreatePaymentRequest	true	"Payment details"
//	@Success		201		{object}	models.Payment				"Recorded payment"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		403		{object}	response.ErrorResponse		"Forbidden - paying for another customer"
//	@Failure		500		{object}	response.ErrorResponse		"Gateway or database error"
//	@Security		BearerAuth
//	@Router			/payments [post]
func (h *PaymentHandler) CreatePayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := requireClaims(w, r, logger)
		if !ok {
			return
		}

		var req models.CreatePaymentRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid payment input")
			return
		}

		if !requireOwner(w, logger, claims, req.UserID) {
			return
		}

		logger = logger.With(slog.String("orderId", req.OrderID.String()))

		payment, err := h.paymentService.CreatePayment(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to process payment", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Payment recorded", slog.String("paymentId", payment.ID.String()), slog.String("status", string(payment.Status)))
		response.Success(w, http.StatusCreated, payment)
	}
}

// GetPayment godoc
//	@Summary		Get a payment by ID
//	@Tags			Payments
//	@Produce		json
//	@Param			id	path		string					true	"Payment ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Payment			"Successfully retrieved payment"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid payment ID format"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	response.ErrorResponse	"Forbidden - not the caller's payment"
//	@Failure		404	{object}	response.ErrorResponse	"Payment not found"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/payments/{id} [get]
func (h *PaymentHandler) GetPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := requireClaims(w, r, logger)
		if !ok {
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		payment, err := h.paymentService.GetPaymentByID(r.Context(), id)
		if err != nil {
			logger.Error("Failed to get payment", slog.String("paymentId", id.String()), slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		if !requireOwner(w, logger, claims, payment.UserID) {
			return
		}

		response.Success(w, http.StatusOK, payment)
	}
}

// ListPayments godoc
//	@Summary		List the caller's payments
//	@Tags			Payments
//	@Produce		json
//	@Param			page		query		int													false	"Page number for pagination (default: 1)"			minimum(1)
//	@Param			pageSize	query		int													false	"Number of items per page (default: 10, max: 100)"	minimum(1)	maximum(100)
//	@Param			customerId	query		string												false	"Customer to list for (service tokens only)"		Format(uuid)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Payment}	"Successfully retrieved list of payments"
//	@Failure		401			{object}	response.ErrorResponse								"Authentication required"
//	@Failure		500			{object}	response.ErrorResponse								"Internal server error"
//	@Security		BearerAuth
//	@Router			/payments [get]
func (h *PaymentHandler) ListPayments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := requireClaims(w, r, logger)
		if !ok {
			return
		}

		customerID, err := customerScope(r, claims)
		if err != nil {
			response.Error(w, err)
			return
		}

		page, pageSize := pageParams(r)

		payments, total, err := h.paymentService.ListPaymentsByCustomer(r.Context(), customerID, page, pageSize)
		if err != nil {
			logger.Error("Failed to list payments", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.NewPage(payments, total, max(page, 1), clampPageSize(pageSize)))
	}
}
