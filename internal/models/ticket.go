package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The ticketing API stores prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type TransportType string

const (
	TransportBus    TransportType = "bus"
	TransportTrain  TransportType = "train"
	TransportLaunch TransportType = "launch"
	TransportPlane  TransportType = "plane"
)

// TransportAll is the listing filter value that matches every transport type.
const TransportAll TransportType = "all"

func (t TransportType) Valid() bool {
	switch t {
	case TransportBus, TransportTrain, TransportLaunch, TransportPlane:
		return true
	}
	return false
}

type TicketStatus string

const (
	TicketPending  TicketStatus = "pending"
	TicketApproved TicketStatus = "approved"
	TicketRejected TicketStatus = "rejected"
)

type Seller struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
}

type Ticket struct {
	ID            string          `json:"_id"`
	Title         string          `json:"title"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	TransportType TransportType   `json:"transport_type"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"ticket_quantity"`
	Perks         []string        `json:"perks"`
	Description   string          `json:"description"`
	DepartureTime time.Time       `json:"departure_date_time"`
	Image         string          `json:"image"`
	Seller        Seller          `json:"seller"`
	Status        TicketStatus    `json:"status,omitempty"`
	Advertise     bool            `json:"advertise"`
}

// EffectiveStatus treats a ticket the API has not moderated yet as pending.
func (t Ticket) EffectiveStatus() TicketStatus {
	if t.Status == "" {
		return TicketPending
	}
	return t.Status
}

// DeparturePassed reports whether now is at or after the departure time.
func (t Ticket) DeparturePassed(now time.Time) bool {
	return !now.Before(t.DepartureTime)
}

// TicketPayload is the body of a vendor create or update request.
type TicketPayload struct {
	Title         string          `json:"title"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	TransportType TransportType   `json:"transport_type"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"ticket_quantity"`
	Perks         []string        `json:"perks"`
	Description   string          `json:"description"`
	DepartureTime time.Time       `json:"departure_date_time"`
	Image         string          `json:"image"`
	Seller        *Seller         `json:"seller,omitempty"`
}

// Apply returns t with every field of the payload replacing its own.
func (p TicketPayload) Apply(t Ticket) Ticket {
	t.Title = p.Title
	t.From = p.From
	t.To = p.To
	t.TransportType = p.TransportType
	t.Price = p.Price
	t.Quantity = p.Quantity
	t.Perks = p.Perks
	t.Description = p.Description
	t.DepartureTime = p.DepartureTime
	t.Image = p.Image
	if p.Seller != nil {
		t.Seller = *p.Seller
	}
	return t
}

// SearchCriteria are the query parameters of GET /tickets/search.
type SearchCriteria struct {
	From string
	To   string
	Date string
}
