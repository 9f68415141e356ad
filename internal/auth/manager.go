package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"ticketbari/internal/cache"
	"ticketbari/internal/client"
	"ticketbari/internal/models"
)

var logger = log.New(os.Stdout, "AUTH: ", log.LstdFlags|log.Lshortfile)

var (
	ErrNoSession    = errors.New("not signed in")
	ErrInvalidState = errors.New("invalid oauth state")
)

const stateTTL = 10 * time.Minute

// UserSaver records the signed-in user with the ticketing API.
type UserSaver interface {
	SaveUser(ctx context.Context, ts client.TokenSource, u models.User) error
}

// Manager owns the session lifecycle: created on sign-in or sign-up, kept in
// the store, destroyed on sign-out.
type Manager struct {
	provider IdentityProvider
	store    cache.Store
	users    UserSaver
	cookies  *CookieCodec
	now      func() time.Time
}

func NewManager(provider IdentityProvider, store cache.Store, users UserSaver, cookies *CookieCodec) *Manager {
	return &Manager{provider: provider, store: store, users: users, cookies: cookies, now: time.Now}
}

func (m *Manager) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrInvalidCredentials
	}

	id, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return m.start(ctx, id)
}

func (m *Manager) SignUp(ctx context.Context, name, email, password, photo string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, ErrMissingName
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	id, err := m.provider.SignUp(ctx, name, email, password, photo)
	if err != nil {
		return nil, err
	}
	return m.start(ctx, id)
}

func (m *Manager) SignInWithGoogle(ctx context.Context, googleIDToken string) (*Session, error) {
	id, err := m.provider.SignInWithIdp(ctx, googleIDToken)
	if err != nil {
		return nil, err
	}
	return m.start(ctx, id)
}

func (m *Manager) start(ctx context.Context, id Identity) (*Session, error) {
	s := &Session{
		ID: uuid.New().String(),
		User: models.User{
			Name:  id.DisplayName,
			Email: id.Email,
			Photo: id.PhotoURL,
		},
		IDToken:      id.IDToken,
		RefreshToken: id.RefreshToken,
		ExpiresAt:    id.ExpiresAt,
	}
	if err := m.Save(ctx, s); err != nil {
		return nil, err
	}

	if err := m.users.SaveUser(ctx, m.TokenSource(s), s.User); err != nil {
		logger.Printf("Failed to save user %s upstream: %v", s.User.Email, err)
	}

	logger.Printf("Session started for %s", s.User.Email)
	return s, nil
}

func (m *Manager) LogOut(ctx context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	if err := m.store.Delete(ctx, sessionKey(s.ID)); err != nil {
		return fmt.Errorf("log out: %w", err)
	}
	logger.Printf("Session ended for %s", s.User.Email)
	return nil
}

// Load resolves a cookie value to its session.
func (m *Manager) Load(ctx context.Context, cookie string) (*Session, error) {
	if cookie == "" {
		return nil, ErrNoSession
	}
	id, err := m.cookies.Decode(cookie)
	if err != nil {
		return nil, ErrNoSession
	}

	var s Session
	if err := m.store.Get(ctx, sessionKey(id), &s); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &s, nil
}

func (m *Manager) Save(ctx context.Context, s *Session) error {
	if err := m.store.Set(ctx, sessionKey(s.ID), s, m.cookies.TTL()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Cookie returns the signed cookie value for s.
func (m *Manager) Cookie(s *Session) (string, error) {
	return m.cookies.Encode(s.ID)
}

func (m *Manager) CookieTTL() time.Duration { return m.cookies.TTL() }

// TokenSource returns the id token of s, refreshing it first when it is
// within a minute of expiry.
func (m *Manager) TokenSource(s *Session) client.TokenSource {
	return client.TokenFunc(func(ctx context.Context) (string, error) {
		if !s.needsRefresh(m.now()) {
			return s.IDToken, nil
		}
		if s.RefreshToken == "" {
			return "", ErrSessionExpired
		}

		id, err := m.provider.Refresh(ctx, s.RefreshToken)
		if err != nil {
			return "", fmt.Errorf("refresh token: %w", err)
		}
		s.IDToken = id.IDToken
		if id.RefreshToken != "" {
			s.RefreshToken = id.RefreshToken
		}
		s.ExpiresAt = id.ExpiresAt
		if err := m.Save(ctx, s); err != nil {
			logger.Printf("Failed to persist refreshed token: %v", err)
		}
		return s.IDToken, nil
	})
}

// BeginOAuth records a fresh state value for the Google redirect.
func (m *Manager) BeginOAuth(ctx context.Context) (string, error) {
	state, err := NewState()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, stateKey(state), true, stateTTL); err != nil {
		return "", fmt.Errorf("save oauth state: %w", err)
	}
	return state, nil
}

// ConsumeOAuth checks and discards a state value. Each state is usable once.
func (m *Manager) ConsumeOAuth(ctx context.Context, state string) error {
	if state == "" {
		return ErrInvalidState
	}
	var ok bool
	if err := m.store.Take(ctx, stateKey(state), &ok); err != nil || !ok {
		return ErrInvalidState
	}
	return nil
}
