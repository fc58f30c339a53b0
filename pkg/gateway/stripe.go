package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/paymentmethod"
)

// Stripe creates a card PaymentMethod and charges it with a confirmed PaymentIntent.
type Stripe struct {
	methods *paymentmethod.Client
	intents *paymentintent.Client
}

func NewStripe(apiKey string) *Stripe {
	return NewStripeWithBackend(apiKey, stripe.GetBackend(stripe.APIBackend))
}

func NewStripeWithBackend(apiKey string, backend stripe.Backend) *Stripe {
	return &Stripe{
		methods: &paymentmethod.Client{B: backend, Key: apiKey},
		intents: &paymentintent.Client{B: backend, Key: apiKey},
	}
}

func (s *Stripe) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	expMonth, expYear, err := req.Card.ExpiryMonthYear()
	if err != nil {
		return nil, err
	}

	methodParams := &stripe.PaymentMethodParams{
		Type: stripe.String("card"),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(req.Card.Number),
			ExpMonth: stripe.Int64(expMonth),
			ExpYear:  stripe.Int64(expYear),
			CVC:      stripe.String(req.Card.CVC),
		},
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Name: stripe.String(req.Card.Holder),
		},
	}
	methodParams.Context = ctx

	method, err := s.methods.New(methodParams)
	if err != nil {
		return declinedOr(err, "failed to create payment method")
	}

	intentParams := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(MinorUnits(req.Amount)),
		Currency:           stripe.String(req.Currency),
		PaymentMethod:      stripe.String(method.ID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
	}
	intentParams.Context = ctx
	intentParams.AddMetadata("order_id", req.OrderID.String())
	intentParams.AddMetadata("customer_id", req.CustomerID.String())

	intent, err := s.intents.New(intentParams)
	if err != nil {
		return declinedOr(err, "failed to create payment intent")
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return &ChargeResult{Approved: false, Reference: intent.ID, FailureReason: string(intent.Status)}, nil
	}

	return &ChargeResult{Approved: true, Reference: intent.ID}, nil
}

// card errors are declines, everything else means the charge could not be attempted
func declinedOr(err error, msg string) (*ChargeResult, error) {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
		reason := string(stripeErr.Code)
		if reason == "" {
			reason = stripeErr.Msg
		}

		return &ChargeResult{Approved: false, FailureReason: reason}, nil
	}

	return nil, fmt.Errorf("%s: %w", msg, err)
}
