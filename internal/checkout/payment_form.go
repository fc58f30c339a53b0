package checkout

import (
	"regexp"
	"strings"
	"sync"

	appErrors "github.com/cricketxpert/checkout-service/internal/errors"
	"github.com/cricketxpert/checkout-service/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)

	formValidator     *validator.Validate
	formValidatorOnce sync.Once
)

func fieldValidator() *validator.Validate {
	formValidatorOnce.Do(func() {
		formValidator = validator.New()
	})

	return formValidator
}

// ValidatePaymentForm checks the card form field by field and reports the first failure.
func ValidatePaymentForm(form models.PaymentForm) error {
	v := fieldValidator()

	cardNumber := strings.Join(strings.Fields(form.CardNumber), "")
	if v.Var(cardNumber, "required,number,len=16") != nil {
		return appErrors.PaymentValidationError("card_number", "must be exactly 16 digits")
	}

	if !expiryPattern.MatchString(form.Expiry) {
		return appErrors.PaymentValidationError("expiry", "must be in MM/YY format")
	}

	if v.Var(form.CVC, "required,number,len=3") != nil {
		return appErrors.PaymentValidationError("cvc", "must be exactly 3 digits")
	}

	if strings.TrimSpace(form.CardholderName) == "" {
		return appErrors.PaymentValidationError("cardholder_name", "is required")
	}

	return nil
}

// normalizeForm strips the whitespace a valid form may carry.
func normalizeForm(form models.PaymentForm) models.PaymentForm {
	form.CardNumber = strings.Join(strings.Fields(form.CardNumber), "")
	form.CardholderName = strings.TrimSpace(form.CardholderName)

	return form
}
