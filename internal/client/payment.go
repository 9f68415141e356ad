package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ticketbari/internal/models"
)

type CheckoutSession struct {
	URL string `json:"url"`
}

// PaymentResult is the API's answer to a confirmed session: the recorded
// transaction and the booking it paid for.
type PaymentResult struct {
	TransactionID string          `json:"transactionId"`
	BookingID     string          `json:"bookingId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
}

// CreateCheckoutSession asks the API for a payment provider redirect URL.
// Each attempt carries a fresh idempotency key.
func (c *Client) CreateCheckoutSession(ctx context.Context, ts TokenSource, info models.PaymentInfo) (CheckoutSession, error) {
	var out CheckoutSession
	err := c.do(ctx, request{
		endpoint: "payment.checkout",
		method:   http.MethodPost,
		path:     "/create-checkout-session",
		token:    ts,
		body:     info,
		headers:  map[string]string{"Idempotency-Key": uuid.New().String()},
	}, &out)
	return out, err
}

// ConfirmPayment posts the provider session id back; the API marks the
// booking paid and records a transaction.
func (c *Client) ConfirmPayment(ctx context.Context, ts TokenSource, sessionID string) (PaymentResult, error) {
	var out PaymentResult
	err := c.do(ctx, request{
		endpoint: "payment.confirm",
		method:   http.MethodPost,
		path:     "/payment-success",
		token:    ts,
		body:     map[string]string{"sessionId": sessionID},
		headers:  map[string]string{"Idempotency-Key": sessionID},
	}, &out)
	return out, err
}

func (c *Client) Transactions(ctx context.Context, ts TokenSource, email string) ([]models.Transaction, error) {
	var out []models.Transaction
	err := c.do(ctx, request{endpoint: "payment.transactions", method: http.MethodGet, path: "/transactions", query: url.Values{"email": {email}}, token: ts}, &out)
	return out, err
}
