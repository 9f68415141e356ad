package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingAccepted BookingStatus = "accepted"
	BookingRejected BookingStatus = "rejected"
	BookingPaid     BookingStatus = "paid"
)

type Booking struct {
	ID            string          `json:"_id,omitempty"`
	TicketID      string          `json:"ticketId"`
	Title         string          `json:"title"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	UserEmail     string          `json:"userEmail"`
	Status        BookingStatus   `json:"status"`
	DepartureTime time.Time       `json:"departureTime"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Image         string          `json:"image"`
}

// Payable reports whether the customer may start a checkout for b.
func (b Booking) Payable(now time.Time) bool {
	return b.Status == BookingAccepted && now.Before(b.DepartureTime)
}

// PaymentInfo is the body of POST /create-checkout-session.
type PaymentInfo struct {
	BookingID     string          `json:"_id"`
	TicketID      string          `json:"ticketId"`
	Title         string          `json:"title"`
	Image         string          `json:"image"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	UserEmail     string          `json:"userEmail"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	DepartureTime time.Time       `json:"departureTime"`
}

func NewPaymentInfo(b Booking, email string) PaymentInfo {
	return PaymentInfo{
		BookingID:     b.ID,
		TicketID:      b.TicketID,
		Title:         b.Title,
		Image:         b.Image,
		Price:         b.Price,
		Quantity:      b.Quantity,
		UserEmail:     email,
		From:          b.From,
		To:            b.To,
		DepartureTime: b.DepartureTime.UTC(),
	}
}

type Transaction struct {
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Title         string          `json:"title"`
	Date          time.Time       `json:"date"`
}
