package listing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"ticketbari/internal/cache"
	"ticketbari/internal/client"
	"ticketbari/internal/models"
	"ticketbari/internal/monitoring"
)

var logger = log.New(os.Stdout, "LISTING: ", log.LstdFlags|log.Lshortfile)

const (
	generationKey  = "tickets:generation"
	LatestCount    = 6
	cacheLabelList = "tickets"
)

type TicketAPI interface {
	Tickets(ctx context.Context, ts client.TokenSource) ([]models.Ticket, error)
	SearchTickets(ctx context.Context, ts client.TokenSource, q models.SearchCriteria) ([]models.Ticket, error)
	AdvertisedTickets(ctx context.Context, ts client.TokenSource) ([]models.Ticket, error)
}

// Reader is whoever a list is fetched for. Cached lists are kept per reader
// email; the zero Reader reads anonymously.
type Reader struct {
	Email string
	Token client.TokenSource
}

func (r Reader) cacheID() string {
	if r.Email == "" {
		return "anonymous"
	}
	return strings.ToLower(r.Email)
}

// Query is the client-side view state of the all-tickets page.
type Query struct {
	Transport models.TransportType
	Sort      SortOrder
	Page      int
}

type Service struct {
	api      TicketAPI
	store    cache.Store
	ttl      time.Duration
	pageSize int
	now      func() time.Time
}

func NewService(api TicketAPI, store cache.Store, ttl time.Duration, pageSize int) *Service {
	return &Service{api: api, store: store, ttl: ttl, pageSize: pageSize, now: time.Now}
}

// List filters, sorts and paginates the full ticket set.
func (s *Service) List(ctx context.Context, r Reader, q Query) (Page, error) {
	tickets, err := s.cached(ctx, r, "all", s.api.Tickets)
	if err != nil {
		return Page{}, err
	}
	return s.view(tickets, q), nil
}

// Search replaces the working set with the search result and always starts
// at page 1.
func (s *Service) Search(ctx context.Context, r Reader, criteria models.SearchCriteria, q Query) (Page, error) {
	tickets, err := s.api.SearchTickets(ctx, r.Token, criteria)
	if err != nil {
		return Page{}, err
	}
	q.Page = 1
	return s.view(tickets, q), nil
}

// Latest returns the most recently added approved tickets, newest first.
// The full list is a signed-in read, so an anonymous reader gets none.
func (s *Service) Latest(ctx context.Context, r Reader) ([]models.Ticket, error) {
	if r.Token == nil {
		return []models.Ticket{}, nil
	}
	tickets, err := s.cached(ctx, r, "all", s.api.Tickets)
	if err != nil {
		return nil, err
	}
	out := make([]models.Ticket, 0, LatestCount)
	for i := len(tickets) - 1; i >= 0 && len(out) < LatestCount; i-- {
		if tickets[i].EffectiveStatus() == models.TicketApproved {
			out = append(out, tickets[i])
		}
	}
	return out, nil
}

func (s *Service) Advertised(ctx context.Context, r Reader) ([]models.Ticket, error) {
	return s.cached(ctx, r, "advertised", s.api.AdvertisedTickets)
}

// AdjustQuantity is called after a booking lowered a ticket's stock. Every
// reader's cached copy is stale then, so all cached lists are dropped.
func (s *Service) AdjustQuantity(ctx context.Context, ticketID string, quantity int) {
	logger.Printf("Ticket %s stock now %d, dropping cached lists", ticketID, quantity)
	s.Invalidate(ctx)
}

// Invalidate drops the cached lists of every reader by moving to a new
// generation. Old entries expire with their TTL.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.store.Set(ctx, generationKey, s.now().UnixNano(), 0); err != nil {
		logger.Printf("Failed to invalidate ticket cache: %v", err)
	}
}

func (s *Service) generation(ctx context.Context) int64 {
	var gen int64
	if err := s.store.Get(ctx, generationKey, &gen); err != nil && !errors.Is(err, cache.ErrMiss) {
		logger.Printf("Cache generation read failed: %v", err)
	}
	return gen
}

func (s *Service) listKey(ctx context.Context, r Reader, list string) string {
	return fmt.Sprintf("tickets:%d:%s:%s", s.generation(ctx), list, r.cacheID())
}

func (s *Service) view(tickets []models.Ticket, q Query) Page {
	filtered := Filter(tickets, q.Transport)
	sorted := SortByPrice(filtered, q.Sort)
	return Paginate(sorted, q.Page, s.pageSize)
}

func (s *Service) cached(ctx context.Context, r Reader, list string, fetch func(context.Context, client.TokenSource) ([]models.Ticket, error)) ([]models.Ticket, error) {
	key := s.listKey(ctx, r, list)
	var tickets []models.Ticket
	err := s.store.Get(ctx, key, &tickets)
	if err == nil {
		monitoring.TrackCache(cacheLabelList, true)
		return tickets, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.Printf("Cache read for %s failed: %v", key, err)
	}
	monitoring.TrackCache(cacheLabelList, false)

	tickets, err = fetch(ctx, r.Token)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, key, tickets, s.ttl); err != nil {
		logger.Printf("Cache write for %s failed: %v", key, err)
	}
	return tickets, nil
}
