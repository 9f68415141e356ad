package client

import (
	"context"
	"net/http"
	"net/url"

	"ticketbari/internal/models"
)

// BookingResult is the upstream answer to POST /bookings.
type BookingResult struct {
	InsertedID string `json:"insertedId"`
}

func (c *Client) CreateBooking(ctx context.Context, ts TokenSource, b models.Booking) (BookingResult, error) {
	var out BookingResult
	err := c.do(ctx, request{endpoint: "booking.create", method: http.MethodPost, path: "/bookings", token: ts, body: b}, &out)
	return out, err
}

func (c *Client) MyBookings(ctx context.Context, ts TokenSource, email string) ([]models.Booking, error) {
	var out []models.Booking
	err := c.do(ctx, request{endpoint: "bookings.mine", method: http.MethodGet, path: "/my-bookings", query: url.Values{"email": {email}}, token: ts}, &out)
	return out, err
}

func (c *Client) VendorBookings(ctx context.Context, ts TokenSource, email string) ([]models.Booking, error) {
	var out []models.Booking
	err := c.do(ctx, request{endpoint: "vendor.bookings", method: http.MethodGet, path: "/vendor/bookings", query: url.Values{"email": {email}}, token: ts}, &out)
	return out, err
}

func (c *Client) AcceptBooking(ctx context.Context, ts TokenSource, id string) error {
	return c.do(ctx, request{endpoint: "vendor.accept", method: http.MethodPatch, path: "/vendor/accept/" + escape(id), token: ts}, nil)
}

func (c *Client) RejectBooking(ctx context.Context, ts TokenSource, id string) error {
	return c.do(ctx, request{endpoint: "vendor.reject", method: http.MethodPatch, path: "/vendor/reject/" + escape(id), token: ts}, nil)
}
