package listing

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticketbari/internal/cache"
	"ticketbari/internal/client"
	"ticketbari/internal/models"
)

func ticket(id string, price int64, transport models.TransportType) models.Ticket {
	return models.Ticket{ID: id, Price: decimal.NewFromInt(price), TransportType: transport, Status: models.TicketApproved}
}

func prices(tickets []models.Ticket) []string {
	out := make([]string, len(tickets))
	for i, t := range tickets {
		out[i] = t.Price.String()
	}
	return out
}

func ids(tickets []models.Ticket) []string {
	out := make([]string, len(tickets))
	for i, t := range tickets {
		out[i] = t.ID
	}
	return out
}

func randomTickets(r *rand.Rand, n int) []models.Ticket {
	types := []models.TransportType{models.TransportBus, models.TransportTrain, models.TransportLaunch, models.TransportPlane}
	out := make([]models.Ticket, n)
	for i := range out {
		out[i] = ticket(fmt.Sprintf("t%d", i), int64(r.Intn(20))*50, types[r.Intn(len(types))])
	}
	return out
}

func TestSortByPrice_ReversalProperty(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		list := randomTickets(r, r.Intn(30))

		asc := SortByPrice(list, SortAsc)
		desc := SortByPrice(asc, SortDesc)

		ascPrices := prices(asc)
		descPrices := prices(desc)
		for j := range ascPrices {
			require.Equal(t, ascPrices[j], descPrices[len(descPrices)-1-j])
		}
	}
}

func TestSortByPrice_NonePreservesOrder(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		list := randomTickets(r, r.Intn(20))
		assert.Equal(t, ids(list), ids(SortByPrice(list, SortNone)))
	}
}

func TestSortByPrice_StableAndNonMutating(t *testing.T) {
	list := []models.Ticket{
		ticket("a", 300, models.TransportBus),
		ticket("b", 100, models.TransportBus),
		ticket("c", 300, models.TransportBus),
		ticket("d", 100, models.TransportBus),
	}

	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(SortByPrice(list, SortAsc)))
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(SortByPrice(list, SortDesc)))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(list))
}

func TestFilter(t *testing.T) {
	list := []models.Ticket{
		ticket("a", 1, models.TransportBus),
		ticket("b", 1, models.TransportTrain),
		ticket("c", 1, models.TransportBus),
	}

	assert.Equal(t, []string{"a", "c"}, ids(Filter(list, models.TransportBus)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(Filter(list, models.TransportAll)))
	assert.Empty(t, Filter(list, models.TransportPlane))
}

func TestPaginate(t *testing.T) {
	list := randomTickets(rand.New(rand.NewSource(1)), 14)

	p := Paginate(list, 1, 6)
	assert.Len(t, p.Tickets, 6)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 14, p.Total)

	p = Paginate(list, 3, 6)
	assert.Len(t, p.Tickets, 2)
	assert.Equal(t, "t12", p.Tickets[0].ID)

	p = Paginate(list, 9, 6)
	assert.Equal(t, 3, p.Page)

	p = Paginate(list, 0, 6)
	assert.Equal(t, 1, p.Page)

	p = Paginate(nil, 2, 6)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.TotalPages)
	assert.Empty(t, p.Tickets)
}

func TestParse(t *testing.T) {
	o, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortNone, o)

	o, err = ParseSortOrder("DESC")
	require.NoError(t, err)
	assert.Equal(t, SortDesc, o)

	_, err = ParseSortOrder("random")
	assert.Error(t, err)

	tr, err := ParseTransport("")
	require.NoError(t, err)
	assert.Equal(t, models.TransportAll, tr)

	tr, err = ParseTransport("Launch")
	require.NoError(t, err)
	assert.Equal(t, models.TransportLaunch, tr)

	_, err = ParseTransport("rocket")
	assert.Error(t, err)
}

type MockTicketAPI struct {
	mock.Mock
}

func (m *MockTicketAPI) Tickets(ctx context.Context, ts client.TokenSource) ([]models.Ticket, error) {
	args := m.Called(ctx, ts)
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketAPI) SearchTickets(ctx context.Context, ts client.TokenSource, q models.SearchCriteria) ([]models.Ticket, error) {
	args := m.Called(ctx, ts, q)
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockTicketAPI) AdvertisedTickets(ctx context.Context, ts client.TokenSource) ([]models.Ticket, error) {
	args := m.Called(ctx, ts)
	return args.Get(0).([]models.Ticket), args.Error(1)
}

var (
	rahimToken = client.StaticToken("rahim-token")
	rahim      = Reader{Email: "rahim@example.com", Token: rahimToken}
)

func TestService_ListUsesCache(t *testing.T) {
	api := new(MockTicketAPI)
	svc := NewService(api, cache.NewMemoryStore(), time.Minute, 6)
	ctx := context.Background()

	api.On("Tickets", ctx, client.TokenSource(rahimToken)).Return(randomTickets(rand.New(rand.NewSource(3)), 10), nil).Once()

	p, err := svc.List(ctx, rahim, Query{Transport: models.TransportAll, Sort: SortNone, Page: 2})
	require.NoError(t, err)
	assert.Len(t, p.Tickets, 4)

	_, err = svc.List(ctx, Reader{Email: "RAHIM@example.com", Token: rahimToken}, Query{Page: 1})
	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "Tickets", 1)

	svc.Invalidate(ctx)
	api.On("Tickets", ctx, client.TokenSource(rahimToken)).Return([]models.Ticket{}, nil).Once()
	p, err = svc.List(ctx, rahim, Query{Page: 1})
	require.NoError(t, err)
	assert.Empty(t, p.Tickets)
}

func TestService_CacheIsPerReader(t *testing.T) {
	api := new(MockTicketAPI)
	svc := NewService(api, cache.NewMemoryStore(), time.Minute, 6)
	ctx := context.Background()
	karimToken := client.StaticToken("karim-token")

	api.On("Tickets", ctx, client.TokenSource(rahimToken)).Return([]models.Ticket{ticket("r1", 100, models.TransportBus)}, nil).Once()
	api.On("Tickets", ctx, client.TokenSource(karimToken)).Return([]models.Ticket{ticket("k1", 100, models.TransportBus)}, nil).Once()

	p, err := svc.List(ctx, rahim, Query{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids(p.Tickets))

	p, err = svc.List(ctx, Reader{Email: "karim@example.com", Token: karimToken}, Query{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"k1"}, ids(p.Tickets))
	api.AssertExpectations(t)
}

func TestService_SearchSendsReaderToken(t *testing.T) {
	api := new(MockTicketAPI)
	svc := NewService(api, cache.NewMemoryStore(), time.Minute, 6)
	ctx := context.Background()
	criteria := models.SearchCriteria{From: "Dhaka", To: "Chittagong"}

	api.On("SearchTickets", ctx, client.TokenSource(rahimToken), criteria).Return(randomTickets(rand.New(rand.NewSource(4)), 13), nil)

	p, err := svc.Search(ctx, rahim, criteria, Query{Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, "t0", p.Tickets[0].ID)
}

func TestService_ListErrorIsReturned(t *testing.T) {
	api := new(MockTicketAPI)
	svc := NewService(api, cache.NewMemoryStore(), time.Minute, 6)
	ctx := context.Background()

	api.On("Tickets", ctx, client.TokenSource(rahimToken)).Return([]models.Ticket(nil), errors.New("network down"))

	_, err := svc.List(ctx, rahim, Query{Page: 1})
	assert.EqualError(t, err, "network down")
}

func TestService_LatestNewestApprovedFirst(t *testing.T) {
	api := new(MockTicketAPI)
	svc := NewService(api, cache.NewMemoryStore(), time.Minute, 6)
	ctx := context.Background()

	tickets := randomTickets(rand.New(rand.NewSource(5)), 10)
	tickets[8].Status = models.TicketPending
	tickets[5].Status = ""
	tickets[3].Status = models.TicketRejected
	api.On("Tickets", ctx, client.TokenSource(rahimToken)).Return(tickets, nil)

	latest, err := svc.Latest(ctx, rahim)
	require.NoError(t, err)
	assert.Equal(t, []string{"t9", "t7", "t6", "t4", "t2", "t1"}, ids(latest))
}

func TestService_AnonymousReads(t *testing.T) {
	api := new(MockTicketAPI)
	svc := NewService(api, cache.NewMemoryStore(), time.Minute, 6)
	ctx := context.Background()

	api.On("AdvertisedTickets", ctx, client.TokenSource(nil)).Return([]models.Ticket{ticket("ad1", 100, models.TransportPlane)}, nil)

	ads, err := svc.Advertised(ctx, Reader{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ad1"}, ids(ads))

	latest, err := svc.Latest(ctx, Reader{})
	require.NoError(t, err)
	assert.Empty(t, latest)
	api.AssertNotCalled(t, "Tickets", mock.Anything, mock.Anything)
}

func TestService_AdjustQuantityRefetches(t *testing.T) {
	api := new(MockTicketAPI)
	svc := NewService(api, cache.NewMemoryStore(), time.Minute, 6)
	ctx := context.Background()

	before := ticket("t1", 100, models.TransportBus)
	before.Quantity = 10
	after := before
	after.Quantity = 7
	api.On("Tickets", ctx, client.TokenSource(rahimToken)).Return([]models.Ticket{before}, nil).Once()
	api.On("Tickets", ctx, client.TokenSource(rahimToken)).Return([]models.Ticket{after}, nil).Once()

	_, err := svc.List(ctx, rahim, Query{Page: 1})
	require.NoError(t, err)

	svc.AdjustQuantity(ctx, "t1", 7)

	p, err := svc.List(ctx, rahim, Query{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 7, p.Tickets[0].Quantity)
	api.AssertNumberOfCalls(t, "Tickets", 2)
}
