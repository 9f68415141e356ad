package moderation

import (
	"context"
	"errors"
	"log"
	"os"

	"ticketbari/internal/client"
	"ticketbari/internal/models"
)

var logger = log.New(os.Stdout, "MODERATION: ", log.LstdFlags|log.Lshortfile)

var (
	ErrNotPending   = errors.New("only pending tickets can be approved or rejected")
	ErrNotApproved  = errors.New("only approved tickets can be advertised")
	ErrNotVendor    = errors.New("only vendors can be marked as fraud")
	ErrAlreadyFraud = errors.New("user is already marked as fraud")
)

type API interface {
	Ticket(ctx context.Context, ts client.TokenSource, id string) (models.Ticket, error)
	AdminTickets(ctx context.Context, ts client.TokenSource) ([]models.Ticket, error)
	AdminUsers(ctx context.Context, ts client.TokenSource) ([]models.User, error)
	AdvertiseCandidates(ctx context.Context, ts client.TokenSource) ([]models.Ticket, error)
	ApproveTicket(ctx context.Context, ts client.TokenSource, id string) error
	RejectTicket(ctx context.Context, ts client.TokenSource, id string) error
	SetAdvertise(ctx context.Context, ts client.TokenSource, id string, advertise bool) error
	MakeAdmin(ctx context.Context, ts client.TokenSource, email string) error
	MakeVendor(ctx context.Context, ts client.TokenSource, email string) error
	MarkFraud(ctx context.Context, ts client.TokenSource, email string) error
}

// Invalidator drops public ticket lists after a moderation change.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Service runs admin actions against the board: patch first, call the API,
// undo the patch if the call fails.
type Service struct {
	api   API
	board *Board
	lists Invalidator
}

func NewService(api API, board *Board, lists Invalidator) *Service {
	return &Service{api: api, board: board, lists: lists}
}

func (s *Service) Tickets(ctx context.Context, ts client.TokenSource) ([]models.Ticket, error) {
	tickets, err := s.api.AdminTickets(ctx, ts)
	if err != nil {
		return nil, err
	}
	s.board.ReplaceTickets(tickets)
	return s.board.Tickets(), nil
}

// AdvertiseCandidates lists approved tickets and merges them into the board.
func (s *Service) AdvertiseCandidates(ctx context.Context, ts client.TokenSource) ([]models.Ticket, error) {
	tickets, err := s.api.AdvertiseCandidates(ctx, ts)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(tickets))
	merged := make([]models.Ticket, 0, len(tickets))
	for _, t := range tickets {
		seen[t.ID] = true
		merged = append(merged, t)
	}
	for _, t := range s.board.Tickets() {
		if !seen[t.ID] {
			merged = append(merged, t)
		}
	}
	s.board.ReplaceTickets(merged)
	return tickets, nil
}

func (s *Service) Users(ctx context.Context, ts client.TokenSource) ([]models.User, error) {
	users, err := s.api.AdminUsers(ctx, ts)
	if err != nil {
		return nil, err
	}
	s.board.ReplaceUsers(users)
	return s.board.Users(), nil
}

func (s *Service) Approve(ctx context.Context, ts client.TokenSource, id string) (models.Ticket, error) {
	return s.decide(ctx, ts, id, models.TicketApproved, s.api.ApproveTicket)
}

func (s *Service) Reject(ctx context.Context, ts client.TokenSource, id string) (models.Ticket, error) {
	return s.decide(ctx, ts, id, models.TicketRejected, s.api.RejectTicket)
}

func (s *Service) decide(ctx context.Context, ts client.TokenSource, id string, to models.TicketStatus, call func(context.Context, client.TokenSource, string) error) (models.Ticket, error) {
	if err := s.ensureTicket(ctx, ts, id); err != nil {
		return models.Ticket{}, err
	}

	t, undo, err := s.patchTicket(ctx, ts, id, ErrNotPending, func(t *models.Ticket) error {
		if t.EffectiveStatus() != models.TicketPending {
			return ErrNotPending
		}
		t.Status = to
		return nil
	})
	if err != nil {
		return t, err
	}

	if err := call(ctx, ts, id); err != nil {
		undo()
		logger.Printf("Setting ticket %s to %s failed, reverted: %v", id, to, err)
		prev, _ := s.board.Ticket(id)
		return prev, err
	}
	s.lists.Invalidate(ctx)
	logger.Printf("Ticket %s %s", id, to)
	return t, nil
}

// ToggleAdvertise flips the advertise flag and sends the new value.
func (s *Service) ToggleAdvertise(ctx context.Context, ts client.TokenSource, id string) (models.Ticket, error) {
	if err := s.ensureTicket(ctx, ts, id); err != nil {
		return models.Ticket{}, err
	}

	t, undo, err := s.patchTicket(ctx, ts, id, ErrNotApproved, func(t *models.Ticket) error {
		if !t.Advertise && t.EffectiveStatus() != models.TicketApproved {
			return ErrNotApproved
		}
		t.Advertise = !t.Advertise
		return nil
	})
	if err != nil {
		return t, err
	}

	if err := s.api.SetAdvertise(ctx, ts, id, t.Advertise); err != nil {
		undo()
		logger.Printf("Advertise toggle on %s failed, reverted: %v", id, err)
		prev, _ := s.board.Ticket(id)
		return prev, err
	}
	s.lists.Invalidate(ctx)
	return t, nil
}

func (s *Service) MakeAdmin(ctx context.Context, ts client.TokenSource, email string) (models.User, error) {
	return s.patchUser(ctx, ts, email, func(u *models.User) error {
		u.Role = models.RoleAdmin
		return nil
	}, s.api.MakeAdmin)
}

func (s *Service) MakeVendor(ctx context.Context, ts client.TokenSource, email string) (models.User, error) {
	return s.patchUser(ctx, ts, email, func(u *models.User) error {
		u.Role = models.RoleVendor
		return nil
	}, s.api.MakeVendor)
}

func (s *Service) MarkFraud(ctx context.Context, ts client.TokenSource, email string) (models.User, error) {
	u, err := s.patchUser(ctx, ts, email, func(u *models.User) error {
		if u.Role != models.RoleVendor {
			return ErrNotVendor
		}
		if u.Fraud {
			return ErrAlreadyFraud
		}
		u.Fraud = true
		return nil
	}, s.api.MarkFraud)
	if err == nil {
		s.lists.Invalidate(ctx)
	}
	return u, err
}

func (s *Service) patchUser(ctx context.Context, ts client.TokenSource, email string, fn func(*models.User) error, call func(context.Context, client.TokenSource, string) error) (models.User, error) {
	if _, ok := s.board.User(email); !ok {
		if _, err := s.Users(ctx, ts); err != nil {
			return models.User{}, err
		}
	}

	u, undo, err := s.board.PatchUser(email, fn)
	if err != nil {
		return u, err
	}
	if err := call(ctx, ts, email); err != nil {
		undo()
		logger.Printf("User change for %s failed, reverted: %v", email, err)
		prev, _ := s.board.User(email)
		return prev, err
	}
	logger.Printf("User %s updated: role=%s fraud=%t", email, u.Role, u.Fraud)
	return u, nil
}

// patchTicket patches the board copy. When fn refuses with guard the copy
// may be stale, so the ticket is fetched again and fn gets one more try.
func (s *Service) patchTicket(ctx context.Context, ts client.TokenSource, id string, guard error, fn func(*models.Ticket) error) (models.Ticket, func(), error) {
	t, undo, err := s.board.PatchTicket(id, fn)
	if !errors.Is(err, guard) {
		return t, undo, err
	}
	fresh, ferr := s.api.Ticket(ctx, ts, id)
	if ferr != nil {
		logger.Printf("Refreshing ticket %s failed: %v", id, ferr)
		return t, nil, err
	}
	s.board.PutTicket(fresh)
	return s.board.PatchTicket(id, fn)
}

// ensureTicket loads the ticket list when id has not been seen yet.
func (s *Service) ensureTicket(ctx context.Context, ts client.TokenSource, id string) error {
	if _, ok := s.board.Ticket(id); ok {
		return nil
	}
	_, err := s.Tickets(ctx, ts)
	return err
}
