package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type AppError struct {
	Code       string
	Message    string
	Detail     string
	StatusCode int
	Meta       map[string]any
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail

	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err

	return e
}

// WithMeta attaches a machine-readable value that is rendered next to the message.
func (e *AppError) WithMeta(key string, value any) *AppError {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value

	return e
}

const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeDuplicateEntry    = "DUPLICATE_ENTRY"
	ErrCodeThirdPartyError   = "THIRD_PARTY_ERROR"
	ErrCodeTooManyRequests   = "TOO_MANY_REQUESTS"
	ErrCodeResourceExhausted = "RESOURCE_EXHAUSTED"

	ErrCodeOutOfStock                = "OUT_OF_STOCK"
	ErrCodeInsufficientStock         = "INSUFFICIENT_STOCK"
	ErrCodePriceLookupMissing        = "PRICE_LOOKUP_MISSING"
	ErrCodeSyncFailure               = "SYNC_FAILURE"
	ErrCodePaymentValidation         = "PAYMENT_VALIDATION_ERROR"
	ErrCodePaymentRejected           = "PAYMENT_REJECTED"
	ErrCodeFinalizationInconsistency = "FINALIZATION_INCONSISTENCY"
)

const (
	MetaAvailable = "available"
	MetaField     = "field"
	MetaProducts  = "product_ids"
	MetaPaymentID = "payment_id"
)

func ValidationError(message string) *AppError {
	return NewAppError(ErrCodeValidation, message, http.StatusBadRequest)
}

func BadRequestError(message string) *AppError {
	return NewAppError(ErrCodeBadRequest, message, http.StatusBadRequest)
}

func NotFoundError(message string) *AppError {
	return NewAppError(ErrCodeNotFound, message, http.StatusNotFound)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func ForbiddenError(message string) *AppError {
	return NewAppError(ErrCodeForbidden, message, http.StatusForbidden)
}

func ConflictError(message string) *AppError {
	return NewAppError(ErrCodeConflict, message, http.StatusConflict)
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

func DatabaseError(message string) *AppError {
	return NewAppError(ErrCodeDatabaseError, message, http.StatusInternalServerError)
}

func DuplicateEntryError(message string) *AppError {
	return NewAppError(ErrCodeDuplicateEntry, message, http.StatusConflict)
}

func ThirdPartyError(message string) *AppError {
	return NewAppError(ErrCodeThirdPartyError, message, http.StatusInternalServerError)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(ErrCodeTooManyRequests, message, http.StatusTooManyRequests)
}

func ResourceExhaustedError(message string) *AppError {
	return NewAppError(ErrCodeResourceExhausted, message, http.StatusTooManyRequests)
}

func OutOfStockError(productID string) *AppError {
	return NewAppError(ErrCodeOutOfStock, "Product is out of stock", http.StatusConflict).
		WithDetail(productID).
		WithMeta(MetaAvailable, 0)
}

// InsufficientStockError reports the quantity that is actually available.
func InsufficientStockError(productID string, available int) *AppError {
	return NewAppError(ErrCodeInsufficientStock, fmt.Sprintf("Only %d item(s) available", available), http.StatusConflict).
		WithDetail(productID).
		WithMeta(MetaAvailable, available)
}

func PriceLookupMissingError(productIDs []string) *AppError {
	return NewAppError(ErrCodePriceLookupMissing, "Some cart items are no longer available", http.StatusConflict).
		WithDetail(strings.Join(productIDs, ",")).
		WithMeta(MetaProducts, productIDs)
}

func SyncFailureError(message string) *AppError {
	return NewAppError(ErrCodeSyncFailure, message, http.StatusBadGateway)
}

func PaymentValidationError(field, reason string) *AppError {
	return NewAppError(ErrCodePaymentValidation, fmt.Sprintf("Invalid field '%s': %s", field, reason), http.StatusBadRequest).
		WithMeta(MetaField, field)
}

func PaymentRejectedError(message string) *AppError {
	return NewAppError(ErrCodePaymentRejected, message, http.StatusPaymentRequired)
}

func FinalizationInconsistencyError(message string) *AppError {
	return NewAppError(ErrCodeFinalizationInconsistency, message, http.StatusInternalServerError)
}

func IsAppError(err error) (*AppError, bool) {
	var appError *AppError

	if errors.As(err, &appError) {
		return appError, true
	}

	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	appErr, ok := IsAppError(err)

	return ok && appErr.Code == code
}

func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFound)
}

// Available returns the available quantity attached to a stock error.
func Available(err error) (int, bool) {
	appErr, ok := IsAppError(err)
	if !ok || appErr.Meta == nil {
		return 0, false
	}

	switch v := appErr.Meta[MetaAvailable].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}

	return 0, false
}

// field validation error.
func AddValidationError(field, reason string) *AppError {
	return ValidationError(fmt.Sprintf("Invalid field '%s': %s", field, reason))
}
