package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cricketxpert/checkout-service/internal/api/middleware"
	"github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/models"
	service "github.com/cricketxpert/checkout-service/internal/services"
	"github.com/cricketxpert/checkout-service/internal/utils"
	"github.com/cricketxpert/checkout-service/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// CartHandler serves the caller's own cart. The customer is always taken from the token.
type CartHandler struct {
	cartService service.CartSessionService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartSessionService) *CartHandler {
	return &CartHandler{cartService: cartService, validator: validator.New()}
}

// GetCart godoc
//	@Summary		Get the caller's cart
//	@Description	Returns the cart lines, the delivery address and a price computed from live catalog prices.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	models.CartResponse		"Current cart"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := requireClaims(w, r, logger)
		if !ok {
			return
		}

		view, err := h.cartService.View(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Failed to load cart", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, view)
	}
}

// AddItem godoc
//	@Summary		Add to or change the quantity of a cart line
//	@Description	A positive delta is checked against live stock and rejected in full when it does not fit. A negative delta never fails; reaching zero removes the line.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddItemRequest	true	"Product and quantity change"
//	@Success		200		{object}	models.CartResponse		"Updated cart"
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		409		{object}	response.ErrorResponse	"Out of stock or insufficient stock"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/items [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := requireClaims(w, r, logger)
		if !ok {
			return
		}

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add item input")
			return
		}

		view, err := h.cartService.AddItem(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Info("Cart item change rejected",
				slog.String("productId", req.ProductID.String()),
				slog.Int("delta", req.Delta),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, view)
	}
}

// RemoveItem godoc
//	@Summary		Remove a product from the cart
//	@Tags			Cart
//	@Produce		json
//	@Param			productId	path		string					true	"Product ID (UUID)"	Format(uuid)
//	@Success		200			{object}	models.CartResponse		"Updated cart"
//	@Failure		400			{object}	response.ErrorResponse	"Invalid product ID format"
//	@Failure		401			{object}	response.ErrorResponse	"Authentication required"
//	@Failure		500			{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := requireClaims(w, r, logger)
		if !ok {
			return
		}

		productID, err := utils.ParseID(r, "productId")
		if err != nil {
			response.Error(w, err)
			return
		}

		view, err := h.cartService.RemoveItem(r.Context(), claims.UserID, productID)
		if err != nil {
			logger.Error("Failed to remove cart item", slog.String("productId", productID.String()), slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, view)
	}
}

// ClearCart godoc
//	@Summary		Empty the cart
//	@Tags			Cart
//	@Success		204	"Cart cleared"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart [delete]
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := requireClaims(w, r, logger)
		if !ok {
			return
		}

		if err := h.cartService.Clear(r.Context(), claims.UserID); err != nil {
			logger.Error("Failed to clear cart", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.NoContent(w)
	}
}

// SetAddress godoc
//	@Summary		Set the delivery address
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			address	body		models.UpdateAddressRequest	true	"Delivery address"
//	@Success		200		{object}	models.CartResponse			"Updated cart"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/cart/address [put]
func (h *CartHandler) SetAddress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := requireClaims(w, r, logger)
		if !ok {
			return
		}

		var req models.UpdateAddressRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid address input")
			return
		}

		view, err := h.cartService.SetAddress(r.Context(), claims.UserID, req.Address)
		if err != nil {
			logger.Error("Failed to set address", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, view)
	}
}

// Checkout godoc
//	@Summary		Pay for the cart and create the order
//	@Description	Prices the cart, makes sure a matching draft exists, charges the card and completes the draft. The cart is emptied on success.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			payment	body		models.PaymentForm		true	"Card details"
//	@Success		201		{object}	models.Order			"Created order"
//	@Failure		400		{object}	response.ErrorResponse	"Empty cart or invalid card details"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		402		{object}	response.ErrorResponse	"Payment declined"
//	@Failure		409		{object}	response.ErrorResponse	"Some cart items are no longer available"
//	@Failure		429		{object}	response.ErrorResponse	"Too many checkout attempts"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/checkout [post]
func (h *CartHandler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := requireClaims(w, r, logger)
		if !ok {
			return
		}

		var form models.PaymentForm
		if err := utils.DecodeJSONBody(r, &form); err != nil {
			response.Error(w, errors.BadRequestError("Invalid request body").WithDetail(err.Error()))
			return
		}

		order, err := h.cartService.Checkout(r.Context(), claims.UserID, form)
		if err != nil {
			if appErr, ok := errors.IsAppError(err); ok && appErr.Code == errors.ErrCodeTooManyRequests {
				if retryAfter, ok := appErr.Meta[service.MetaRetryAfter].(int); ok {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
			}

			logger.Warn("Checkout failed", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Checkout succeeded", slog.String("orderId", order.ID.String()))
		response.Success(w, http.StatusCreated, order)
	}
}
