package auth

import (
	"time"

	"ticketbari/internal/models"
)

// refreshWindow is how close to expiry an id token is refreshed before use.
const refreshWindow = time.Minute

// Session is the per-browser auth context held server side.
type Session struct {
	ID           string      `json:"id"`
	User         models.User `json:"user"`
	IDToken      string      `json:"idToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresAt    time.Time   `json:"expiresAt"`
	// Role is filled on first dashboard visit and kept for the session.
	Role models.Role `json:"role,omitempty"`
}

func (s *Session) needsRefresh(now time.Time) bool {
	return !now.Before(s.ExpiresAt.Add(-refreshWindow))
}

func sessionKey(id string) string { return "session:" + id }

func stateKey(state string) string { return "oauth_state:" + state }
