package moderation

import (
	"errors"
	"strings"
	"sync"

	"ticketbari/internal/models"
)

var (
	ErrUnknownTicket = errors.New("ticket not found")
	ErrUnknownUser   = errors.New("user not found")
)

// Board is the admin's local copy of tickets keyed by id and users keyed by
// e-mail. Patches apply immediately and hand back an undo.
//
// Every write stamps the entry with a new revision. An undo only restores
// while the entry still carries the revision its patch wrote.
type Board struct {
	mu          sync.Mutex
	seq         uint64
	tickets     map[string]models.Ticket
	ticketRev   map[string]uint64
	ticketOrder []string
	users       map[string]models.User
	userRev     map[string]uint64
	userOrder   []string
}

func NewBoard() *Board {
	return &Board{
		tickets:   map[string]models.Ticket{},
		ticketRev: map[string]uint64{},
		users:     map[string]models.User{},
		userRev:   map[string]uint64{},
	}
}

func (b *Board) next() uint64 {
	b.seq++
	return b.seq
}

func userKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// ReplaceTickets swaps in a freshly fetched ticket list.
func (b *Board) ReplaceTickets(tickets []models.Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tickets = make(map[string]models.Ticket, len(tickets))
	b.ticketRev = make(map[string]uint64, len(tickets))
	b.ticketOrder = make([]string, 0, len(tickets))
	rev := b.next()
	for _, t := range tickets {
		if _, dup := b.tickets[t.ID]; !dup {
			b.ticketOrder = append(b.ticketOrder, t.ID)
		}
		b.tickets[t.ID] = t
		b.ticketRev[t.ID] = rev
	}
}

// PutTicket stores a freshly fetched copy of one ticket, adding it at the
// end when the board has not seen it.
func (b *Board) PutTicket(t models.Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tickets[t.ID]; !ok {
		b.ticketOrder = append(b.ticketOrder, t.ID)
	}
	b.tickets[t.ID] = t
	b.ticketRev[t.ID] = b.next()
}

func (b *Board) ReplaceUsers(users []models.User) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.users = make(map[string]models.User, len(users))
	b.userRev = make(map[string]uint64, len(users))
	b.userOrder = make([]string, 0, len(users))
	rev := b.next()
	for _, u := range users {
		k := userKey(u.Email)
		if _, dup := b.users[k]; !dup {
			b.userOrder = append(b.userOrder, k)
		}
		b.users[k] = u
		b.userRev[k] = rev
	}
}

func (b *Board) Tickets() []models.Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.Ticket, 0, len(b.ticketOrder))
	for _, id := range b.ticketOrder {
		out = append(out, b.tickets[id])
	}
	return out
}

func (b *Board) Users() []models.User {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.User, 0, len(b.userOrder))
	for _, k := range b.userOrder {
		out = append(out, b.users[k])
	}
	return out
}

func (b *Board) Ticket(id string) (models.Ticket, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tickets[id]
	return t, ok
}

func (b *Board) User(email string) (models.User, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[userKey(email)]
	return u, ok
}

// PatchTicket applies fn to the ticket with id. fn may refuse the patch by
// returning an error. The returned undo restores the previous value unless
// the ticket was written again since.
func (b *Board) PatchTicket(id string, fn func(*models.Ticket) error) (models.Ticket, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev, ok := b.tickets[id]
	if !ok {
		return models.Ticket{}, nil, ErrUnknownTicket
	}
	next := prev
	if err := fn(&next); err != nil {
		return prev, nil, err
	}
	b.tickets[id] = next
	rev := b.next()
	b.ticketRev[id] = rev

	undo := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.ticketRev[id] == rev {
			b.tickets[id] = prev
			b.ticketRev[id] = b.next()
		}
	}
	return next, undo, nil
}

func (b *Board) PatchUser(email string, fn func(*models.User) error) (models.User, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := userKey(email)
	prev, ok := b.users[k]
	if !ok {
		return models.User{}, nil, ErrUnknownUser
	}
	next := prev
	if err := fn(&next); err != nil {
		return prev, nil, err
	}
	b.users[k] = next
	rev := b.next()
	b.userRev[k] = rev

	undo := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.userRev[k] == rev {
			b.users[k] = prev
			b.userRev[k] = b.next()
		}
	}
	return next, undo, nil
}
