package client

import (
	"context"
	"net/http"
	"net/url"

	"ticketbari/internal/models"
)

// Tickets, SearchTickets and Ticket are signed-in reads. AdvertisedTickets
// also serves the public home page; a nil ts sends no Authorization header.
func (c *Client) Tickets(ctx context.Context, ts TokenSource) ([]models.Ticket, error) {
	var out []models.Ticket
	err := c.do(ctx, request{endpoint: "tickets.list", method: http.MethodGet, path: "/tickets", token: ts}, &out)
	return out, err
}

func (c *Client) SearchTickets(ctx context.Context, ts TokenSource, q models.SearchCriteria) ([]models.Ticket, error) {
	params := url.Values{}
	params.Set("from", q.From)
	params.Set("to", q.To)
	params.Set("date", q.Date)

	var out []models.Ticket
	err := c.do(ctx, request{endpoint: "tickets.search", method: http.MethodGet, path: "/tickets/search", query: params, token: ts}, &out)
	return out, err
}

func (c *Client) AdvertisedTickets(ctx context.Context, ts TokenSource) ([]models.Ticket, error) {
	var out []models.Ticket
	err := c.do(ctx, request{endpoint: "tickets.advertised", method: http.MethodGet, path: "/advertised-tickets", token: ts}, &out)
	return out, err
}

func (c *Client) Ticket(ctx context.Context, ts TokenSource, id string) (models.Ticket, error) {
	var out models.Ticket
	err := c.do(ctx, request{endpoint: "ticket.get", method: http.MethodGet, path: "/ticket/" + escape(id), token: ts}, &out)
	return out, err
}

func (c *Client) CreateTicket(ctx context.Context, ts TokenSource, p models.TicketPayload) error {
	return c.do(ctx, request{endpoint: "ticket.create", method: http.MethodPost, path: "/tickets", token: ts, body: p}, nil)
}

func (c *Client) UpdateTicket(ctx context.Context, ts TokenSource, id string, p models.TicketPayload) error {
	return c.do(ctx, request{endpoint: "ticket.update", method: http.MethodPatch, path: "/ticket/" + escape(id), token: ts, body: p}, nil)
}

func (c *Client) DeleteTicket(ctx context.Context, ts TokenSource, id string) error {
	return c.do(ctx, request{endpoint: "ticket.delete", method: http.MethodDelete, path: "/ticket/" + escape(id), token: ts}, nil)
}

func (c *Client) MyTickets(ctx context.Context, ts TokenSource, email string) ([]models.Ticket, error) {
	var out []models.Ticket
	err := c.do(ctx, request{endpoint: "tickets.mine", method: http.MethodGet, path: "/my-tickets", query: url.Values{"email": {email}}, token: ts}, &out)
	return out, err
}
