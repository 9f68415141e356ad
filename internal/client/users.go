package client

import (
	"context"
	"net/http"

	"ticketbari/internal/models"
)

// SaveUser creates the user record on first sign-in and refreshes it after.
func (c *Client) SaveUser(ctx context.Context, ts TokenSource, u models.User) error {
	body := models.User{Name: u.Name, Email: u.Email, Photo: u.Photo}
	return c.do(ctx, request{endpoint: "user.save", method: http.MethodPost, path: "/user", token: ts, body: body}, nil)
}

func (c *Client) UserRole(ctx context.Context, ts TokenSource, email string) (models.Role, error) {
	var out struct {
		Role string `json:"role"`
	}
	if err := c.do(ctx, request{endpoint: "user.role", method: http.MethodGet, path: "/user/role/" + escape(email), token: ts}, &out); err != nil {
		return "", err
	}
	if out.Role == "" {
		return models.RoleCustomer, nil
	}
	return models.ParseRole(out.Role)
}
