package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/checkout/session"
)

var ErrNotPaid = errors.New("checkout session is not paid")

type sessionGetter func(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

// StripeVerifier looks the checkout session up with a restricted Stripe key.
type StripeVerifier struct {
	get sessionGetter
}

func NewStripeVerifier(key string) *StripeVerifier {
	sc := session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: key}
	return &StripeVerifier{get: sc.Get}
}

func (v *StripeVerifier) Verify(ctx context.Context, sessionID string) (Verification, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	cs, err := v.get(sessionID, params)
	if err != nil {
		return Verification{}, fmt.Errorf("stripe session %s: %w", sessionID, err)
	}

	out := Verification{Email: cs.CustomerEmail}
	if pi := cs.PaymentIntent; pi != nil {
		out.Paid = pi.Status == stripe.PaymentIntentStatusSucceeded
		out.Amount = decimal.New(pi.Amount, -2)
		if out.Email == "" {
			out.Email = pi.ReceiptEmail
		}
	}
	return out, nil
}
