package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"ticketbari/internal/broker"
	"ticketbari/internal/cache"
	"ticketbari/internal/circuitbreaker"
	"ticketbari/internal/client"
	"ticketbari/internal/models"
	"ticketbari/internal/monitoring"
)

var logger = log.New(os.Stdout, "CHECKOUT: ", log.LstdFlags|log.Lshortfile)

var (
	ErrCannotPay        = errors.New("booking is not payable")
	ErrAlreadyConfirmed = errors.New("payment already confirmed for this session")
	ErrMissingSession   = errors.New("missing checkout session id")
)

// Phases recorded per booking.
const (
	PhaseRequested = "requested"
	PhaseConfirmed = "confirmed"
)

const (
	phaseTTL = 24 * time.Hour
	guardTTL = 7 * 24 * time.Hour
)

type API interface {
	CreateCheckoutSession(ctx context.Context, ts client.TokenSource, info models.PaymentInfo) (client.CheckoutSession, error)
	ConfirmPayment(ctx context.Context, ts client.TokenSource, sessionID string) (client.PaymentResult, error)
	Transactions(ctx context.Context, ts client.TokenSource, email string) ([]models.Transaction, error)
}

// Verification is what the payment provider reports about a session.
type Verification struct {
	Paid   bool
	Amount decimal.Decimal
	Email  string
}

// Verifier checks a checkout session with the payment provider.
type Verifier interface {
	Verify(ctx context.Context, sessionID string) (Verification, error)
}

type Service struct {
	api      API
	store    cache.Store
	events   broker.Publisher
	verifier Verifier
	now      func() time.Time
}

// NewService builds the checkout flow. verifier may be nil, in which case
// sessions are confirmed without asking the provider.
func NewService(api API, store cache.Store, events broker.Publisher, verifier Verifier) *Service {
	return &Service{api: api, store: store, events: events, verifier: verifier, now: time.Now}
}

// CanPay reports whether b may be paid at now.
func CanPay(b models.Booking, now time.Time) bool {
	return b.Payable(now)
}

func phaseKey(bookingID string) string { return "checkout:phase:" + bookingID }
func guardKey(sessionID string) string { return "checkout:confirmed:" + sessionID }

// Begin asks the API for a provider checkout URL for b.
func (s *Service) Begin(ctx context.Context, ts client.TokenSource, b models.Booking, email string) (string, error) {
	if !CanPay(b, s.now()) {
		monitoring.TrackCheckout(PhaseRequested, "refused")
		return "", ErrCannotPay
	}

	session, err := s.api.CreateCheckoutSession(ctx, ts, models.NewPaymentInfo(b, email))
	if err != nil {
		monitoring.TrackCheckout(PhaseRequested, "error")
		return "", err
	}
	if session.URL == "" {
		monitoring.TrackCheckout(PhaseRequested, "error")
		return "", fmt.Errorf("checkout session for booking %s has no url", b.ID)
	}

	if err := s.store.Set(ctx, phaseKey(b.ID), PhaseRequested, phaseTTL); err != nil {
		logger.Printf("Failed to record checkout phase for booking %s: %v", b.ID, err)
	}
	monitoring.TrackCheckout(PhaseRequested, "ok")
	logger.Printf("Checkout started for booking %s", b.ID)
	return session.URL, nil
}

// Phase returns the last recorded phase of the booking, or "" when none.
func (s *Service) Phase(ctx context.Context, bookingID string) string {
	var phase string
	if err := s.store.Get(ctx, phaseKey(bookingID), &phase); err != nil {
		return ""
	}
	return phase
}

// Confirm tells the API that sessionID has been paid. It runs at most once
// per session id; repeats return ErrAlreadyConfirmed without calling the API.
func (s *Service) Confirm(ctx context.Context, ts client.TokenSource, user models.User, sessionID string) (client.PaymentResult, error) {
	if sessionID == "" {
		return client.PaymentResult{}, ErrMissingSession
	}

	acquired, err := s.store.SetNX(ctx, guardKey(sessionID), s.now().UTC(), guardTTL)
	if err != nil {
		return client.PaymentResult{}, fmt.Errorf("checkout guard: %w", err)
	}
	if !acquired {
		monitoring.TrackCheckout(PhaseConfirmed, "duplicate")
		return client.PaymentResult{}, ErrAlreadyConfirmed
	}

	var v Verification
	if s.verifier != nil {
		v, err = s.verifier.Verify(ctx, sessionID)
		if err == nil && !v.Paid {
			err = ErrNotPaid
		}
		if err != nil {
			s.release(ctx, sessionID)
			monitoring.TrackCheckout(PhaseConfirmed, "unverified")
			return client.PaymentResult{}, err
		}
	}

	result, err := s.api.ConfirmPayment(ctx, ts, sessionID)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) || circuitbreaker.IsBreakerError(err) {
			s.release(ctx, sessionID)
		}
		monitoring.TrackCheckout(PhaseConfirmed, "error")
		return client.PaymentResult{}, err
	}
	monitoring.TrackCheckout(PhaseConfirmed, "ok")

	if result.BookingID != "" {
		if err := s.store.Set(ctx, phaseKey(result.BookingID), PhaseConfirmed, phaseTTL); err != nil {
			logger.Printf("Failed to record checkout phase for booking %s: %v", result.BookingID, err)
		}
	}

	// The provider's amount wins when it was asked; otherwise the API's.
	if s.verifier != nil {
		result.Amount = v.Amount
	}

	email := user.Email
	if email == "" {
		email = v.Email
	}
	msg := broker.PaymentConfirmedMessage{
		SessionID:     sessionID,
		TransactionID: result.TransactionID,
		UserEmail:     email,
		Amount:        result.Amount,
		ConfirmedAt:   s.now().UTC(),
	}
	if err := s.events.Publish(msg, broker.TopicPaymentConfirmed); err != nil {
		logger.Printf("Failed to publish payment.confirmed for session %s: %v", sessionID, err)
	}

	logger.Printf("Payment confirmed: session=%s transaction=%s", sessionID, result.TransactionID)
	return result, nil
}

// release drops the guard so the session can be confirmed again.
func (s *Service) release(ctx context.Context, sessionID string) {
	if err := s.store.Delete(ctx, guardKey(sessionID)); err != nil {
		logger.Printf("Failed to release checkout guard for %s: %v", sessionID, err)
	}
}

func (s *Service) Transactions(ctx context.Context, ts client.TokenSource, email string) ([]models.Transaction, error) {
	return s.api.Transactions(ctx, ts, email)
}
