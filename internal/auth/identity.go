package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("an account with this email already exists")
	ErrSessionExpired     = errors.New("session expired, please sign in again")
)

// Identity is what the identity provider returns for a signed-in user.
type Identity struct {
	UID          string
	Email        string
	DisplayName  string
	PhotoURL     string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignUp(ctx context.Context, name, email, password, photo string) (Identity, error)
	// SignInWithIdp exchanges a Google id token for a provider session.
	SignInWithIdp(ctx context.Context, googleIDToken string) (Identity, error)
	Refresh(ctx context.Context, refreshToken string) (Identity, error)
}

// ProviderError is an error answer from the identity provider.
type ProviderError struct {
	Status int
	Code   string
	err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider: %s (%d)", e.Code, e.Status)
}

func (e *ProviderError) Unwrap() error { return e.err }
