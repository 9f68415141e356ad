package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticketbari/internal/client"
	"ticketbari/internal/models"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Ticket(ctx context.Context, ts client.TokenSource, id string) (models.Ticket, error) {
	args := m.Called(ctx, ts, id)
	return args.Get(0).(models.Ticket), args.Error(1)
}

func (m *MockAPI) AdminTickets(ctx context.Context, ts client.TokenSource) ([]models.Ticket, error) {
	args := m.Called(ctx, ts)
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockAPI) AdminUsers(ctx context.Context, ts client.TokenSource) ([]models.User, error) {
	args := m.Called(ctx, ts)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockAPI) AdvertiseCandidates(ctx context.Context, ts client.TokenSource) ([]models.Ticket, error) {
	args := m.Called(ctx, ts)
	return args.Get(0).([]models.Ticket), args.Error(1)
}

func (m *MockAPI) ApproveTicket(ctx context.Context, ts client.TokenSource, id string) error {
	return m.Called(ctx, ts, id).Error(0)
}

func (m *MockAPI) RejectTicket(ctx context.Context, ts client.TokenSource, id string) error {
	return m.Called(ctx, ts, id).Error(0)
}

func (m *MockAPI) SetAdvertise(ctx context.Context, ts client.TokenSource, id string, advertise bool) error {
	return m.Called(ctx, ts, id, advertise).Error(0)
}

func (m *MockAPI) MakeAdmin(ctx context.Context, ts client.TokenSource, email string) error {
	return m.Called(ctx, ts, email).Error(0)
}

func (m *MockAPI) MakeVendor(ctx context.Context, ts client.TokenSource, email string) error {
	return m.Called(ctx, ts, email).Error(0)
}

func (m *MockAPI) MarkFraud(ctx context.Context, ts client.TokenSource, email string) error {
	return m.Called(ctx, ts, email).Error(0)
}

type nopInvalidator struct{ calls int }

func (n *nopInvalidator) Invalidate(context.Context) { n.calls++ }

var ts = client.StaticToken("admin-token")

func newTestService(tickets []models.Ticket, users []models.User) (*Service, *MockAPI, *nopInvalidator) {
	api := new(MockAPI)
	board := NewBoard()
	board.ReplaceTickets(tickets)
	board.ReplaceUsers(users)
	inv := &nopInvalidator{}
	return NewService(api, board, inv), api, inv
}

func TestApprove_PatchesBoard(t *testing.T) {
	svc, api, inv := newTestService([]models.Ticket{{ID: "t1"}, {ID: "t2"}}, nil)
	ctx := context.Background()

	api.On("ApproveTicket", ctx, ts, "t1").Return(nil)

	got, err := svc.Approve(ctx, ts, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TicketApproved, got.Status)

	stored, _ := svc.board.Ticket("t1")
	assert.Equal(t, models.TicketApproved, stored.Status)
	other, _ := svc.board.Ticket("t2")
	assert.Equal(t, models.TicketPending, other.EffectiveStatus())
	assert.Equal(t, 1, inv.calls)
}

func TestApproveReject_OnlyWhilePending(t *testing.T) {
	svc, api, _ := newTestService([]models.Ticket{{ID: "t1", Status: models.TicketApproved}}, nil)
	ctx := context.Background()

	api.On("Ticket", ctx, ts, "t1").Return(models.Ticket{ID: "t1", Status: models.TicketApproved}, nil)

	_, err := svc.Reject(ctx, ts, "t1")
	assert.ErrorIs(t, err, ErrNotPending)
	_, err = svc.Approve(ctx, ts, "t1")
	assert.ErrorIs(t, err, ErrNotPending)

	api.AssertNotCalled(t, "RejectTicket", mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "ApproveTicket", mock.Anything, mock.Anything, mock.Anything)
}

func TestApprove_RollsBackOnFailure(t *testing.T) {
	svc, api, inv := newTestService([]models.Ticket{{ID: "t1", Status: models.TicketPending}}, nil)
	ctx := context.Background()

	api.On("ApproveTicket", ctx, ts, "t1").Return(&client.APIError{Status: 500, Message: "db down"})

	got, err := svc.Approve(ctx, ts, "t1")
	require.Error(t, err)
	assert.Equal(t, models.TicketPending, got.Status)

	stored, _ := svc.board.Ticket("t1")
	assert.Equal(t, models.TicketPending, stored.Status)
	assert.Equal(t, 0, inv.calls)
}

func TestApprove_LoadsUnknownTicket(t *testing.T) {
	svc, api, _ := newTestService(nil, nil)
	ctx := context.Background()

	api.On("AdminTickets", ctx, ts).Return([]models.Ticket{{ID: "t9"}}, nil).Once()
	api.On("ApproveTicket", ctx, ts, "t9").Return(nil)

	_, err := svc.Approve(ctx, ts, "t9")
	require.NoError(t, err)

	api.On("AdminTickets", ctx, ts).Return([]models.Ticket{}, nil).Once()
	_, err = svc.Approve(ctx, ts, "missing")
	assert.ErrorIs(t, err, ErrUnknownTicket)
}

func TestApprove_RefreshesStaleBoard(t *testing.T) {
	svc, api, _ := newTestService([]models.Ticket{{ID: "t1", Status: models.TicketRejected}}, nil)
	ctx := context.Background()

	api.On("Ticket", ctx, ts, "t1").Return(models.Ticket{ID: "t1", Status: models.TicketPending}, nil).Once()
	api.On("ApproveTicket", ctx, ts, "t1").Return(nil)

	got, err := svc.Approve(ctx, ts, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TicketApproved, got.Status)
	api.AssertExpectations(t)
}

func TestApprove_RefreshFailureKeepsGuardError(t *testing.T) {
	svc, api, _ := newTestService([]models.Ticket{{ID: "t1", Status: models.TicketApproved}}, nil)
	ctx := context.Background()

	api.On("Ticket", ctx, ts, "t1").Return(models.Ticket{}, errors.New("timeout"))

	_, err := svc.Approve(ctx, ts, "t1")
	assert.ErrorIs(t, err, ErrNotPending)
	api.AssertNotCalled(t, "ApproveTicket", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleAdvertise_RefreshesStaleBoard(t *testing.T) {
	svc, api, _ := newTestService([]models.Ticket{{ID: "t1", Status: models.TicketPending}}, nil)
	ctx := context.Background()

	api.On("Ticket", ctx, ts, "t1").Return(models.Ticket{ID: "t1", Status: models.TicketApproved}, nil).Once()
	api.On("SetAdvertise", ctx, ts, "t1", true).Return(nil)

	got, err := svc.ToggleAdvertise(ctx, ts, "t1")
	require.NoError(t, err)
	assert.True(t, got.Advertise)
}

func TestBoard_UndoSkipsNewerWrite(t *testing.T) {
	b := NewBoard()
	b.ReplaceTickets([]models.Ticket{{ID: "t1", Status: models.TicketPending}})

	_, undo, err := b.PatchTicket("t1", func(t *models.Ticket) error {
		t.Status = models.TicketApproved
		return nil
	})
	require.NoError(t, err)

	b.PutTicket(models.Ticket{ID: "t1", Status: models.TicketRejected})
	undo()

	got, _ := b.Ticket("t1")
	assert.Equal(t, models.TicketRejected, got.Status)
}

func TestBoard_UndoAfterReloadKeepsFreshUsers(t *testing.T) {
	b := NewBoard()
	b.ReplaceUsers([]models.User{{Email: "k@x.com", Role: models.RoleCustomer}})

	_, undo, err := b.PatchUser("k@x.com", func(u *models.User) error {
		u.Role = models.RoleVendor
		return nil
	})
	require.NoError(t, err)

	b.ReplaceUsers([]models.User{{Email: "k@x.com", Role: models.RoleAdmin}})
	undo()

	got, _ := b.User("k@x.com")
	assert.Equal(t, models.RoleAdmin, got.Role)
}

func TestBoard_UndoRestoresUntouched(t *testing.T) {
	b := NewBoard()
	b.ReplaceTickets([]models.Ticket{{ID: "t1"}})

	_, undo, err := b.PatchTicket("t1", func(t *models.Ticket) error {
		t.Advertise = true
		return nil
	})
	require.NoError(t, err)
	undo()

	got, _ := b.Ticket("t1")
	assert.False(t, got.Advertise)
}

func TestToggleAdvertise_FlipsAndSendsNewValue(t *testing.T) {
	svc, api, _ := newTestService([]models.Ticket{{ID: "t1", Status: models.TicketApproved}}, nil)
	ctx := context.Background()

	api.On("SetAdvertise", ctx, ts, "t1", true).Return(nil).Once()
	api.On("SetAdvertise", ctx, ts, "t1", false).Return(nil).Once()

	got, err := svc.ToggleAdvertise(ctx, ts, "t1")
	require.NoError(t, err)
	assert.True(t, got.Advertise)

	got, err = svc.ToggleAdvertise(ctx, ts, "t1")
	require.NoError(t, err)
	assert.False(t, got.Advertise)
	api.AssertExpectations(t)
}

func TestToggleAdvertise_RollsBack(t *testing.T) {
	svc, api, _ := newTestService([]models.Ticket{{ID: "t1", Status: models.TicketApproved}}, nil)
	ctx := context.Background()

	api.On("SetAdvertise", ctx, ts, "t1", true).Return(errors.New("timeout"))

	_, err := svc.ToggleAdvertise(ctx, ts, "t1")
	require.Error(t, err)
	stored, _ := svc.board.Ticket("t1")
	assert.False(t, stored.Advertise)
}

func TestToggleAdvertise_PendingRefused(t *testing.T) {
	svc, api, _ := newTestService([]models.Ticket{{ID: "t1"}}, nil)
	ctx := context.Background()

	api.On("Ticket", ctx, ts, "t1").Return(models.Ticket{ID: "t1", Status: models.TicketPending}, nil)

	_, err := svc.ToggleAdvertise(ctx, ts, "t1")
	assert.ErrorIs(t, err, ErrNotApproved)
	api.AssertNotCalled(t, "SetAdvertise", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUserRoles(t *testing.T) {
	svc, api, _ := newTestService(nil, []models.User{
		{Email: "Rahim@Example.com", Role: models.RoleCustomer},
		{Email: "karim@example.com", Role: models.RoleVendor},
	})
	ctx := context.Background()

	api.On("MakeVendor", ctx, ts, "rahim@example.com").Return(nil)
	api.On("MakeAdmin", ctx, ts, "karim@example.com").Return(errors.New("forbidden"))

	u, err := svc.MakeVendor(ctx, ts, "rahim@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleVendor, u.Role)

	u, err = svc.MakeAdmin(ctx, ts, "karim@example.com")
	require.Error(t, err)
	assert.Equal(t, models.RoleVendor, u.Role)
	stored, _ := svc.board.User("karim@example.com")
	assert.Equal(t, models.RoleVendor, stored.Role)
}

func TestMarkFraud(t *testing.T) {
	svc, api, inv := newTestService(nil, []models.User{
		{Email: "rahim@example.com", Role: models.RoleCustomer},
		{Email: "karim@example.com", Role: models.RoleVendor},
	})
	ctx := context.Background()

	_, err := svc.MarkFraud(ctx, ts, "rahim@example.com")
	assert.ErrorIs(t, err, ErrNotVendor)

	api.On("MarkFraud", ctx, ts, "karim@example.com").Return(nil).Once()
	u, err := svc.MarkFraud(ctx, ts, "karim@example.com")
	require.NoError(t, err)
	assert.True(t, u.Fraud)
	assert.Equal(t, 1, inv.calls)

	_, err = svc.MarkFraud(ctx, ts, "karim@example.com")
	assert.ErrorIs(t, err, ErrAlreadyFraud)
	api.AssertNumberOfCalls(t, "MarkFraud", 1)
}

func TestBoard_KeepsOrder(t *testing.T) {
	b := NewBoard()
	b.ReplaceTickets([]models.Ticket{{ID: "c"}, {ID: "a"}, {ID: "b"}})

	_, _, err := b.PatchTicket("a", func(t *models.Ticket) error { t.Title = "patched"; return nil })
	require.NoError(t, err)

	got := b.Tickets()
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "patched", got[1].Title)
	assert.Equal(t, "b", got[2].ID)
}

func TestAdvertiseCandidates(t *testing.T) {
	svc, api, _ := newTestService([]models.Ticket{{ID: "p1"}}, nil)
	ctx := context.Background()

	api.On("AdvertiseCandidates", ctx, ts).Return([]models.Ticket{{ID: "a1", Status: models.TicketApproved}}, nil)

	got, err := svc.AdvertiseCandidates(ctx, ts)
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, ok := svc.board.Ticket("p1")
	assert.True(t, ok)
	_, ok = svc.board.Ticket("a1")
	assert.True(t, ok)
}
