package dashboard

import (
	"context"
	"log"
	"os"

	"ticketbari/internal/auth"
	"ticketbari/internal/client"
	"ticketbari/internal/models"
)

var logger = log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags|log.Lshortfile)

type RoleAPI interface {
	UserRole(ctx context.Context, ts client.TokenSource, email string) (models.Role, error)
}

type SessionStore interface {
	Save(ctx context.Context, s *auth.Session) error
	TokenSource(s *auth.Session) client.TokenSource
}

// RoleResolver fetches the caller's role once per session.
type RoleResolver struct {
	api      RoleAPI
	sessions SessionStore
}

func NewRoleResolver(api RoleAPI, sessions SessionStore) *RoleResolver {
	return &RoleResolver{api: api, sessions: sessions}
}

// Role returns the role cached on s, fetching and caching it on first use.
func (r *RoleResolver) Role(ctx context.Context, s *auth.Session) (models.Role, error) {
	if s.Role != "" {
		return s.Role, nil
	}

	role, err := r.api.UserRole(ctx, r.sessions.TokenSource(s), s.User.Email)
	if err != nil {
		return "", err
	}
	s.Role = role
	s.User.Role = role
	if err := r.sessions.Save(ctx, s); err != nil {
		logger.Printf("Failed to cache role for %s: %v", s.User.Email, err)
	}
	return role, nil
}
