package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"ticketbari/internal/broker"
	"ticketbari/internal/client"
	"ticketbari/internal/models"
	"ticketbari/internal/monitoring"
)

var logger = log.New(os.Stdout, "BOOKING: ", log.LstdFlags|log.Lshortfile)

var (
	ErrLoginRequired        = errors.New("please log in to book tickets")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrQuantityExceedsStock = errors.New("quantity exceeds available tickets")
	ErrDeparturePassed      = errors.New("departure time has passed")
	ErrSoldOut              = errors.New("no tickets left")
)

type API interface {
	Ticket(ctx context.Context, ts client.TokenSource, id string) (models.Ticket, error)
	CreateBooking(ctx context.Context, ts client.TokenSource, b models.Booking) (client.BookingResult, error)
	MyBookings(ctx context.Context, ts client.TokenSource, email string) ([]models.Booking, error)
}

// StockCache receives the lowered stock of a ticket after a booking.
type StockCache interface {
	AdjustQuantity(ctx context.Context, ticketID string, quantity int)
}

// Validate checks a booking attempt before anything is sent upstream.
func Validate(t models.Ticket, quantity int, user *models.User, now time.Time) error {
	if user == nil || user.Email == "" {
		return ErrLoginRequired
	}
	if t.DeparturePassed(now) {
		return ErrDeparturePassed
	}
	if t.Quantity <= 0 {
		return ErrSoldOut
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if quantity > t.Quantity {
		return ErrQuantityExceedsStock
	}
	return nil
}

// NewBooking builds the request payload. The price is the unit price times
// the quantity.
func NewBooking(t models.Ticket, quantity int, email string) models.Booking {
	return models.Booking{
		TicketID:      t.ID,
		Title:         t.Title,
		Quantity:      quantity,
		Price:         t.Price.Mul(decimal.NewFromInt(int64(quantity))),
		UserEmail:     email,
		Status:        models.BookingPending,
		DepartureTime: t.DepartureTime,
		From:          t.From,
		To:            t.To,
		Image:         t.Image,
	}
}

type Service struct {
	api    API
	stock  StockCache
	events broker.Publisher
	now    func() time.Time
}

func NewService(api API, stock StockCache, events broker.Publisher) *Service {
	return &Service{api: api, stock: stock, events: events, now: time.Now}
}

// Detail loads one ticket into a fresh detail view.
func (s *Service) Detail(ctx context.Context, ts client.TokenSource, id string) (*Detail, error) {
	t, err := s.api.Ticket(ctx, ts, id)
	if err != nil {
		return nil, err
	}
	d := NewDetail()
	d.Load(t, s.now())
	return d, nil
}

// Result is the outcome of a successful booking.
type Result struct {
	Booking           models.Booking `json:"booking"`
	RemainingQuantity int            `json:"remainingQuantity"`
}

// Book validates against the current ticket and posts the booking. The
// upstream is not called when a guard fails.
func (s *Service) Book(ctx context.Context, ts client.TokenSource, user *models.User, ticketID string, quantity int) (Result, error) {
	if user == nil || user.Email == "" {
		monitoring.TrackBooking("login_required")
		return Result{}, ErrLoginRequired
	}

	d, err := s.Detail(ctx, ts, ticketID)
	if err != nil {
		return Result{}, fmt.Errorf("load ticket: %w", err)
	}
	t := d.Ticket()

	if err := Validate(t, quantity, user, s.now()); err != nil {
		monitoring.TrackBooking("rejected")
		return Result{}, err
	}

	b := NewBooking(t, quantity, user.Email)
	res, err := s.api.CreateBooking(ctx, ts, b)
	if err != nil {
		monitoring.TrackBooking("failed")
		logger.Printf("Booking %s x%d for %s failed: %v", t.ID, quantity, user.Email, err)
		return Result{}, err
	}
	b.ID = res.InsertedID
	monitoring.TrackBooking("created")

	d.Booked(quantity)
	remaining := d.Ticket().Quantity
	s.stock.AdjustQuantity(ctx, t.ID, remaining)

	msg := broker.BookingRequestedMessage{
		BookingID:     b.ID,
		TicketID:      b.TicketID,
		Title:         b.Title,
		Quantity:      b.Quantity,
		Amount:        b.Price,
		UserEmail:     b.UserEmail,
		DepartureTime: b.DepartureTime,
		RequestedAt:   s.now().UTC(),
	}
	if err := s.events.Publish(msg, broker.TopicBookingRequested); err != nil {
		logger.Printf("Failed to publish booking.requested for %s: %v", b.ID, err)
	}

	logger.Printf("Booking created for %s: ticket %s x%d", user.Email, t.ID, quantity)
	return Result{Booking: b, RemainingQuantity: remaining}, nil
}

// Row is one line of the customer's booking list.
type Row struct {
	models.Booking
	Countdown   string `json:"countdown"`
	CanPay      bool   `json:"canPay"`
	DisplayedAs string `json:"displayStatus"`
}

func (s *Service) MyBookings(ctx context.Context, ts client.TokenSource, email string) ([]Row, error) {
	bookings, err := s.api.MyBookings(ctx, ts, email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rows := make([]Row, len(bookings))
	for i, b := range bookings {
		status := b.Status
		if status == "" {
			status = models.BookingPending
		}
		rows[i] = Row{
			Booking:     b,
			Countdown:   Countdown{Departure: b.DepartureTime}.At(now),
			CanPay:      b.Payable(now),
			DisplayedAs: string(status),
		}
	}
	return rows, nil
}
