package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps a JSON request body.
const MaxBodyBytes = 1 << 20

// DecodeJSONBody reads a single JSON document from the request body into dest.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		slog.Warn("Could not read request body",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to read request body: %w", err)
	}

	switch {
	case len(body) == 0:
		return errors.New("request body cannot be empty")
	case len(body) > MaxBodyBytes:
		return fmt.Errorf("request body exceeds %d bytes", MaxBodyBytes)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		slog.Warn("Rejected malformed JSON body",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		return fmt.Errorf("invalid JSON format: %w", err)
	}

	return nil
}

// ValidateStruct checks the validate tags of data. Field failures are returned wrapped
// as validator.ValidationErrors so they can be rendered per field.
func ValidateStruct(validate *validator.Validate, data any) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("unexpected validation error: %w", err)
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}
	slog.Debug("Payload failed validation", slog.Any("fields", fields))

	return fmt.Errorf("validation error: %w", fieldErrs)
}
