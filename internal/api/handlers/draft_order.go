package handlers

import (
	"log/slog"
	"net/http"

	"github.com/cricketxpert/checkout-service/internal/api/middleware"
	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/cricketxpert/checkout-service/internal/utils"
	"github.com/cricketxpert/checkout-service/internal/utils/response"
)

// UpsertDraft godoc
//	@Summary		Create or replace a customer's draft order
//	@Description	Stores the cart mirror of a customer as the single cart_pending order. The existing draft keeps its ID.
//	@Tags			Draft Orders
//	@Accept			json
//	@Produce		json
//	@Param			draft	body		models.UpsertDraftRequest	true	"Draft contents"
//	@Success		200		{object}	models.Order				"Stored draft"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		403		{object}	response.ErrorResponse		"Forbidden - not the caller's draft"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/cart [post]
func (h *OrderHandler) UpsertDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := requireClaims(w, r, logger)
		if !ok {
			return
		}

		var req models.UpsertDraftRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid draft order input")
			return
		}

		if !requireOwner(w, logger, claims, req.CustomerID) {
			return
		}

		draft, err := h.orderService.UpsertDraft(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to upsert draft order", slog.String("customerId", req.CustomerID.String()), slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Draft order stored", slog.String("orderId", draft.ID.String()))
		response.Success(w, http.StatusOK, draft)
	}
}

// GetDraft godoc
//	@Summary		Get a customer's draft order
//	@Tags			Draft Orders
//	@Produce		json
//	@Param			customerId	path		string					true	"Customer ID (UUID)"	Format(uuid)
//	@Success		200			{object}	models.Order			"Current draft"
//	@Failure		400			{object}	response.ErrorResponse	"Invalid customer ID format"
//	@Failure		401			{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403			{object}	response.ErrorResponse	"Forbidden - not the caller's draft"
//	@Failure		404			{object}	response.ErrorResponse	"No draft"
//	@Failure		500			{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/cart/{customerId} [get]
func (h *OrderHandler) GetDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := requireClaims(w, r, logger)
		if !ok {
			return
		}

		customerID, err := utils.ParseID(r, "customerId")
		if err != nil {
			response.Error(w, err)
			return
		}

		if !requireOwner(w, logger, claims, customerID) {
			return
		}

		draft, err := h.orderService.GetDraft(r.Context(), customerID)
		if err != nil {
			logger.Info("Draft order lookup failed", slog.String("customerId", customerID.String()), slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, draft)
	}
}

// DeleteDraft godoc
//	@Summary		Delete a customer's draft order
//	@Description	Idempotent. Finalized orders are never touched.
//	@Tags			Draft Orders
//	@Param			customerId	path	string	true	"Customer ID (UUID)"	Format(uuid)
//	@Success		204			"Draft deleted or absent"
//	@Failure		400			{object}	response.ErrorResponse	"Invalid customer ID format"
//	@Failure		401			{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403			{object}	response.ErrorResponse	"Forbidden - not the caller's draft"
//	@Failure		500			{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/cart/{customerId} [delete]
func (h *OrderHandler) DeleteDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := requireClaims(w, r, logger)
		if !ok {
			return
		}

		customerID, err := utils.ParseID(r, "customerId")
		if err != nil {
			response.Error(w, err)
			return
		}

		if !requireOwner(w, logger, claims, customerID) {
			return
		}

		if err := h.orderService.DeleteDraft(r.Context(), customerID); err != nil {
			logger.Error("Failed to delete draft order", slog.String("customerId", customerID.String()), slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.NoContent(w)
	}
}

// CompleteDraft godoc
//	@Summary		Turn a paid draft into a created order
//	@Description	Requires a successful payment for the same order and amount. Repeating the call with the same payment is a no-op.
//	@Tags			Draft Orders
//	@Accept			json
//	@Produce		json
//	@Param			completion	body		models.CompleteOrderRequest	true	"Order and payment IDs"
//	@Success		200			{object}	models.Order				"Created order"
//	@Failure		400			{object}	response.ErrorResponse		"Payment does not match the draft"
//	@Failure		401			{object}	response.ErrorResponse		"Authentication required"
//	@Failure		403			{object}	response.ErrorResponse		"Forbidden - not the caller's order"
//	@Failure		404			{object}	response.ErrorResponse		"Order or payment not found"
//	@Failure		409			{object}	response.ErrorResponse		"Order is no longer a draft"
//	@Failure		500			{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders/cart/complete [put]
func (h *OrderHandler) CompleteDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := requireClaims(w, r, logger)
		if !ok {
			return
		}

		var req models.CompleteOrderRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid complete order input")
			return
		}

		logger = logger.With(slog.String("orderId", req.OrderID.String()), slog.String("paymentId", req.PaymentID.String()))

		if claims.Role != models.RoleService {
			order, err := h.orderService.GetOrderByID(r.Context(), req.OrderID)
			if err != nil {
				response.Error(w, err)
				return
			}

			if !requireOwner(w, logger, claims, order.CustomerID) {
				return
			}
		}

		order, err := h.orderService.CompleteDraft(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to complete draft order", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Draft order completed")
		response.Success(w, http.StatusOK, order)
	}
}
