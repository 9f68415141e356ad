package client

import (
	"context"
	"net/http"

	"ticketbari/internal/models"
)

func (c *Client) AdminStats(ctx context.Context, ts TokenSource) (models.AdminStats, error) {
	var out models.AdminStats
	err := c.do(ctx, request{endpoint: "stats.admin", method: http.MethodGet, path: "/admin/stats", token: ts}, &out)
	return out, err
}

func (c *Client) CustomerStats(ctx context.Context, ts TokenSource) (models.CustomerStats, error) {
	var out models.CustomerStats
	err := c.do(ctx, request{endpoint: "stats.customer", method: http.MethodGet, path: "/dashboard/customer-stats", token: ts}, &out)
	return out, err
}

func (c *Client) VendorStats(ctx context.Context, ts TokenSource, email string) (models.VendorStats, error) {
	var out models.VendorStats
	err := c.do(ctx, request{endpoint: "stats.vendor", method: http.MethodGet, path: "/vendor/stats/" + escape(email), token: ts}, &out)
	return out, err
}

func (c *Client) RevenueOverview(ctx context.Context, ts TokenSource) (models.RevenueOverview, error) {
	var out models.RevenueOverview
	err := c.do(ctx, request{endpoint: "stats.revenue", method: http.MethodGet, path: "/vendor/revenue-overview", token: ts}, &out)
	return out, err
}
