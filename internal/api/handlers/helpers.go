package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cricketxpert/checkout-service/internal/api/middleware"
	"github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/cricketxpert/checkout-service/internal/utils/response"
	"github.com/google/uuid"
)

// requireClaims writes a 401 and returns false when the request carries no claims.
func requireClaims(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*models.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		logger.Warn("Unauthorized access attempt: missing user claims")
		response.Error(w, errors.UnauthorizedError("Authentication required"))
		return nil, false
	}

	return claims, true
}

// requireOwner writes a 403 and returns false unless claims may act for customerID.
func requireOwner(w http.ResponseWriter, logger *slog.Logger, claims *models.Claims, customerID uuid.UUID) bool {
	if claims.CanActFor(customerID) {
		return true
	}

	logger.Warn("Attempted to access another customer's data",
		slog.String("requesterId", claims.UserID.String()),
		slog.String("ownerId", customerID.String()))
	response.Error(w, errors.ForbiddenError("You don't have permission to access this resource"))

	return false
}

// pageParams reads page and pageSize; the services clamp the values.
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	return page, pageSize
}

// customerScope returns the customer a list request is about. Service callers may pass
// customerId; everyone else is scoped to themselves.
func customerScope(r *http.Request, claims *models.Claims) (uuid.UUID, error) {
	raw := r.URL.Query().Get("customerId")
	if raw == "" || claims.Role != models.RoleService {
		return claims.UserID, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.BadRequestError("Invalid customerId format").WithError(err)
	}

	return id, nil
}
