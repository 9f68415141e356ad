package broker

import (
	"time"

	"github.com/shopspring/decimal"
)

// Topic names
const (
	TopicBookingRequested = "booking.requested"
	TopicTicketSubmitted  = "ticket.submitted"
	TopicPaymentConfirmed = "payment.confirmed"
)

// BookingRequestedMessage is published after the API accepts a booking request.
type BookingRequestedMessage struct {
	BookingID     string          `json:"booking_id"`
	TicketID      string          `json:"ticket_id"`
	Title         string          `json:"title"`
	Quantity      int             `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
	UserEmail     string          `json:"user_email"`
	DepartureTime time.Time       `json:"departure_time"`
	RequestedAt   time.Time       `json:"requested_at"`
}

// TicketSubmittedMessage is published when a vendor adds a ticket for review.
type TicketSubmittedMessage struct {
	Title         string          `json:"title"`
	VendorEmail   string          `json:"vendor_email"`
	TransportType string          `json:"transport_type"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	SubmittedAt   time.Time       `json:"submitted_at"`
}

// PaymentConfirmedMessage is published once per checkout session.
type PaymentConfirmedMessage struct {
	SessionID     string          `json:"session_id"`
	TransactionID string          `json:"transaction_id"`
	UserEmail     string          `json:"user_email"`
	Amount        decimal.Decimal `json:"amount"`
	ConfirmedAt   time.Time       `json:"confirmed_at"`
}
