package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticketbari/internal/client"
	"ticketbari/internal/models"
)

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Ticket(ctx context.Context, ts client.TokenSource, id string) (models.Ticket, error) {
	args := m.Called(ctx, ts, id)
	return args.Get(0).(models.Ticket), args.Error(1)
}

func (m *MockAPI) CreateBooking(ctx context.Context, ts client.TokenSource, b models.Booking) (client.BookingResult, error) {
	args := m.Called(ctx, ts, b)
	return args.Get(0).(client.BookingResult), args.Error(1)
}

func (m *MockAPI) MyBookings(ctx context.Context, ts client.TokenSource, email string) ([]models.Booking, error) {
	args := m.Called(ctx, ts, email)
	return args.Get(0).([]models.Booking), args.Error(1)
}

type MockStock struct {
	mock.Mock
}

func (m *MockStock) AdjustQuantity(ctx context.Context, ticketID string, quantity int) {
	m.Called(ctx, ticketID, quantity)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(message interface{}, key string) error {
	args := m.Called(message, key)
	return args.Error(0)
}

func newTestService() (*Service, *MockAPI, *MockStock, *MockPublisher) {
	api, stock, pub := new(MockAPI), new(MockStock), new(MockPublisher)
	svc := NewService(api, stock, pub)
	svc.now = func() time.Time { return now }
	return svc, api, stock, pub
}

func busTicket() models.Ticket {
	return models.Ticket{
		ID:            "t1",
		Title:         "Dhaka to Cox's Bazar",
		From:          "Dhaka",
		To:            "Cox's Bazar",
		TransportType: models.TransportBus,
		Price:         decimal.NewFromInt(500),
		Quantity:      10,
		DepartureTime: now.Add(48 * time.Hour),
	}
}

var rahim = &models.User{Name: "Rahim", Email: "rahim@example.com"}

func TestBook_EndToEnd(t *testing.T) {
	svc, api, stock, pub := newTestService()
	ctx := context.Background()
	ts := client.StaticToken("tok")

	api.On("Ticket", ctx, client.TokenSource(ts), "t1").Return(busTicket(), nil)
	api.On("CreateBooking", ctx, ts, mock.MatchedBy(func(b models.Booking) bool {
		return b.Price.Equal(decimal.NewFromInt(1500)) && b.Quantity == 3 && b.Status == models.BookingPending &&
			b.UserEmail == "rahim@example.com" && b.TicketID == "t1"
	})).Return(client.BookingResult{InsertedID: "b1"}, nil)
	stock.On("AdjustQuantity", ctx, "t1", 7).Return()
	pub.On("Publish", mock.Anything, "booking.requested").Return(nil)

	res, err := svc.Book(ctx, ts, rahim, "t1", 3)
	require.NoError(t, err)
	assert.Equal(t, 7, res.RemainingQuantity)
	assert.Equal(t, "b1", res.Booking.ID)

	api.AssertExpectations(t)
	stock.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestBook_GuardsNeverReachUpstream(t *testing.T) {
	tests := []struct {
		name     string
		ticket   func() models.Ticket
		quantity int
		want     error
	}{
		{"exceeds stock", busTicket, 11, ErrQuantityExceedsStock},
		{"zero quantity", busTicket, 0, ErrInvalidQuantity},
		{"negative quantity", busTicket, -2, ErrInvalidQuantity},
		{"departed", func() models.Ticket {
			t := busTicket()
			t.DepartureTime = now.Add(-time.Minute)
			return t
		}, 1, ErrDeparturePassed},
		{"departs now", func() models.Ticket {
			t := busTicket()
			t.DepartureTime = now
			return t
		}, 1, ErrDeparturePassed},
		{"sold out", func() models.Ticket {
			t := busTicket()
			t.Quantity = 0
			return t
		}, 1, ErrSoldOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, api, _, _ := newTestService()
			ctx := context.Background()
			api.On("Ticket", ctx, mock.Anything, "t1").Return(tt.ticket(), nil)

			_, err := svc.Book(ctx, client.StaticToken("tok"), rahim, "t1", tt.quantity)
			assert.ErrorIs(t, err, tt.want)
			api.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestBook_QuantityAboveStockProperty(t *testing.T) {
	for stock := 0; stock <= 12; stock++ {
		for q := stock + 1; q <= stock+5; q++ {
			tk := busTicket()
			tk.Quantity = stock
			assert.Error(t, Validate(tk, q, rahim, now), "stock=%d quantity=%d", stock, q)
		}
	}
}

func TestBook_LoginRequired(t *testing.T) {
	svc, api, _, _ := newTestService()

	_, err := svc.Book(context.Background(), nil, nil, "t1", 1)
	assert.ErrorIs(t, err, ErrLoginRequired)
	api.AssertNotCalled(t, "Ticket", mock.Anything, mock.Anything, mock.Anything)
}

func TestBook_UpstreamFailureKeepsQuantity(t *testing.T) {
	svc, api, stock, pub := newTestService()
	ctx := context.Background()
	ts := client.StaticToken("tok")

	api.On("Ticket", ctx, mock.Anything, "t1").Return(busTicket(), nil)
	api.On("CreateBooking", ctx, ts, mock.Anything).Return(client.BookingResult{}, &client.APIError{Status: 500, Message: "boom"})

	_, err := svc.Book(ctx, ts, rahim, "t1", 2)
	require.Error(t, err)
	stock.AssertNotCalled(t, "AdjustQuantity", mock.Anything, mock.Anything, mock.Anything)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestBook_PublishFailureDoesNotFailBooking(t *testing.T) {
	svc, api, stock, pub := newTestService()
	ctx := context.Background()
	ts := client.StaticToken("tok")

	api.On("Ticket", ctx, mock.Anything, "t1").Return(busTicket(), nil)
	api.On("CreateBooking", ctx, ts, mock.Anything).Return(client.BookingResult{InsertedID: "b2"}, nil)
	stock.On("AdjustQuantity", ctx, "t1", 9).Return()
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	res, err := svc.Book(ctx, ts, rahim, "t1", 1)
	require.NoError(t, err)
	assert.Equal(t, 9, res.RemainingQuantity)
}

func TestMyBookings_Rows(t *testing.T) {
	svc, api, _, _ := newTestService()
	ctx := context.Background()
	ts := client.StaticToken("tok")

	api.On("MyBookings", ctx, ts, "rahim@example.com").Return([]models.Booking{
		{ID: "b1", Status: models.BookingAccepted, DepartureTime: now.Add(time.Hour)},
		{ID: "b2", Status: models.BookingAccepted, DepartureTime: now.Add(-time.Hour)},
		{ID: "b3", Status: models.BookingPending, DepartureTime: now.Add(time.Hour)},
		{ID: "b4", DepartureTime: now.Add(time.Hour)},
	}, nil)

	rows, err := svc.MyBookings(ctx, ts, "rahim@example.com")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.True(t, rows[0].CanPay)
	assert.Equal(t, "00d 01h 00m 00s", rows[0].Countdown)
	assert.False(t, rows[1].CanPay)
	assert.Equal(t, DeparturePassedLabel, rows[1].Countdown)
	assert.False(t, rows[2].CanPay)
	assert.Equal(t, "pending", rows[3].DisplayedAs)
}
