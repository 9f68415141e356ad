package client

import (
	"context"
	"net/http"

	"ticketbari/internal/models"
)

func (c *Client) AdminTickets(ctx context.Context, ts TokenSource) ([]models.Ticket, error) {
	var out []models.Ticket
	err := c.do(ctx, request{endpoint: "admin.tickets", method: http.MethodGet, path: "/admin/tickets", token: ts}, &out)
	return out, err
}

func (c *Client) AdminUsers(ctx context.Context, ts TokenSource) ([]models.User, error) {
	var out []models.User
	err := c.do(ctx, request{endpoint: "admin.users", method: http.MethodGet, path: "/admin/users", token: ts}, &out)
	return out, err
}

// AdvertiseCandidates lists the approved tickets an admin may feature.
func (c *Client) AdvertiseCandidates(ctx context.Context, ts TokenSource) ([]models.Ticket, error) {
	var out []models.Ticket
	err := c.do(ctx, request{endpoint: "admin.advertise_tickets", method: http.MethodGet, path: "/admin/advertise-tickets", token: ts}, &out)
	return out, err
}

func (c *Client) ApproveTicket(ctx context.Context, ts TokenSource, id string) error {
	return c.do(ctx, request{endpoint: "admin.approve", method: http.MethodPatch, path: "/admin/ticket/approve/" + escape(id), token: ts}, nil)
}

func (c *Client) RejectTicket(ctx context.Context, ts TokenSource, id string) error {
	return c.do(ctx, request{endpoint: "admin.reject", method: http.MethodPatch, path: "/admin/ticket/reject/" + escape(id), token: ts}, nil)
}

func (c *Client) SetAdvertise(ctx context.Context, ts TokenSource, id string, advertise bool) error {
	body := map[string]bool{"advertise": advertise}
	return c.do(ctx, request{endpoint: "admin.advertise", method: http.MethodPatch, path: "/admin/ticket/advertise/" + escape(id), token: ts, body: body}, nil)
}

func (c *Client) MakeAdmin(ctx context.Context, ts TokenSource, email string) error {
	return c.do(ctx, request{endpoint: "admin.make_admin", method: http.MethodPatch, path: "/admin/make-admin/" + escape(email), token: ts}, nil)
}

func (c *Client) MakeVendor(ctx context.Context, ts TokenSource, email string) error {
	return c.do(ctx, request{endpoint: "admin.make_vendor", method: http.MethodPatch, path: "/admin/make-vendor/" + escape(email), token: ts}, nil)
}

func (c *Client) MarkFraud(ctx context.Context, ts TokenSource, email string) error {
	return c.do(ctx, request{endpoint: "admin.mark_fraud", method: http.MethodPatch, path: "/admin/mark-fraud/" + escape(email), token: ts}, nil)
}
