package booking

import (
	"time"

	"ticketbari/internal/models"
)

// State of one ticket detail view.
type State int

const (
	StateLoading State = iota
	StateLoaded
	StateCountdownTicking
	StateDeparturePassed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateCountdownTicking:
		return "countdown_ticking"
	case StateDeparturePassed:
		return "departure_passed"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Detail tracks a ticket detail view. DeparturePassed is terminal.
type Detail struct {
	ticket models.Ticket
	state  State
}

func NewDetail() *Detail { return &Detail{state: StateLoading} }

// Load moves a loading view to Loaded and evaluates the clock once.
func (d *Detail) Load(t models.Ticket, now time.Time) State {
	if d.state != StateLoading {
		return d.state
	}
	d.ticket = t
	d.state = StateLoaded
	return d.Tick(now)
}

// Tick re-evaluates the view against now.
func (d *Detail) Tick(now time.Time) State {
	switch d.state {
	case StateLoaded, StateCountdownTicking:
		if d.ticket.DeparturePassed(now) {
			d.state = StateDeparturePassed
		} else {
			d.state = StateCountdownTicking
		}
	}
	return d.state
}

func (d *Detail) State() State { return d.state }

func (d *Detail) Ticket() models.Ticket { return d.ticket }

// CanBook reports whether "Book Now" is enabled.
func (d *Detail) CanBook() bool {
	return d.state == StateCountdownTicking && d.ticket.Quantity > 0
}

// Booked lowers the displayed stock after a successful booking.
func (d *Detail) Booked(quantity int) {
	d.ticket.Quantity -= quantity
	if d.ticket.Quantity < 0 {
		d.ticket.Quantity = 0
	}
}

// View is the JSON shape of the detail page.
type View struct {
	Ticket    models.Ticket `json:"ticket"`
	State     State         `json:"state"`
	Countdown string        `json:"countdown"`
	CanBook   bool          `json:"canBook"`
}

func (d *Detail) View(now time.Time) View {
	return View{
		Ticket:    d.ticket,
		State:     d.state,
		Countdown: Countdown{Departure: d.ticket.DepartureTime}.At(now),
		CanBook:   d.CanBook(),
	}
}
