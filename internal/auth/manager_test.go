package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"ticketbari/internal/cache"
	"ticketbari/internal/client"
	"ticketbari/internal/models"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(Identity), args.Error(1)
}

func (m *MockProvider) SignUp(ctx context.Context, name, email, password, photo string) (Identity, error) {
	args := m.Called(ctx, name, email, password, photo)
	return args.Get(0).(Identity), args.Error(1)
}

func (m *MockProvider) SignInWithIdp(ctx context.Context, token string) (Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(Identity), args.Error(1)
}

func (m *MockProvider) Refresh(ctx context.Context, refreshToken string) (Identity, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(Identity), args.Error(1)
}

type MockUserSaver struct {
	mock.Mock
}

func (m *MockUserSaver) SaveUser(ctx context.Context, ts client.TokenSource, u models.User) error {
	args := m.Called(ctx, ts, u)
	return args.Error(0)
}

func newTestManager(p IdentityProvider, users UserSaver) *Manager {
	return NewManager(p, cache.NewMemoryStore(), users, NewCookieCodec([]byte("secret"), time.Hour))
}

func TestManager_SignInStartsSession(t *testing.T) {
	p := new(MockProvider)
	users := new(MockUserSaver)
	m := newTestManager(p, users)
	ctx := context.Background()

	p.On("SignIn", ctx, "rahim@example.com", "Secret1").Return(Identity{
		Email:        "rahim@example.com",
		DisplayName:  "Rahim",
		IDToken:      "tok",
		RefreshToken: "r",
		ExpiresAt:    time.Now().Add(time.Hour),
	}, nil)
	users.On("SaveUser", ctx, mock.Anything, models.User{Name: "Rahim", Email: "rahim@example.com"}).Return(nil)

	s, err := m.SignIn(ctx, " rahim@example.com ", "Secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)

	cookie, err := m.Cookie(s)
	require.NoError(t, err)

	loaded, err := m.Load(ctx, cookie)
	require.NoError(t, err)
	assert.Equal(t, "Rahim", loaded.User.Name)
	assert.Equal(t, "tok", loaded.IDToken)

	p.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestManager_SignInRejectsBadEmailBeforeProvider(t *testing.T) {
	p := new(MockProvider)
	m := newTestManager(p, new(MockUserSaver))

	_, err := m.SignIn(context.Background(), "not-an-email", "Secret1")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	p.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_SignUpValidatesPassword(t *testing.T) {
	p := new(MockProvider)
	m := newTestManager(p, new(MockUserSaver))

	_, err := m.SignUp(context.Background(), "Karim", "karim@example.com", "weakpw", "")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = m.SignUp(context.Background(), " ", "karim@example.com", "Secret1", "")
	assert.ErrorIs(t, err, ErrMissingName)

	p.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_SaveUserFailureKeepsSession(t *testing.T) {
	p := new(MockProvider)
	users := new(MockUserSaver)
	m := newTestManager(p, users)
	ctx := context.Background()

	p.On("SignInWithIdp", ctx, "google-token").Return(Identity{Email: "g@example.com", IDToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil)
	users.On("SaveUser", ctx, mock.Anything, mock.Anything).Return(errors.New("api down"))

	s, err := m.SignInWithGoogle(ctx, "google-token")
	require.NoError(t, err)
	assert.Equal(t, "g@example.com", s.User.Email)
}

func TestManager_LogOutDestroysSession(t *testing.T) {
	p := new(MockProvider)
	users := new(MockUserSaver)
	m := newTestManager(p, users)
	ctx := context.Background()

	p.On("SignIn", ctx, mock.Anything, mock.Anything).Return(Identity{Email: "a@b.co", IDToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil)
	users.On("SaveUser", ctx, mock.Anything, mock.Anything).Return(nil)

	s, err := m.SignIn(ctx, "a@b.co", "Secret1")
	require.NoError(t, err)
	cookie, _ := m.Cookie(s)

	require.NoError(t, m.LogOut(ctx, s))

	_, err = m.Load(ctx, cookie)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManager_LoadRejectsForgedCookie(t *testing.T) {
	m := newTestManager(new(MockProvider), new(MockUserSaver))
	other := NewCookieCodec([]byte("other-secret"), time.Hour)

	forged, err := other.Encode("some-id")
	require.NoError(t, err)

	_, err = m.Load(context.Background(), forged)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestTokenSource_RefreshesNearExpiry(t *testing.T) {
	p := new(MockProvider)
	m := newTestManager(p, new(MockUserSaver))
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	s := &Session{ID: "s1", IDToken: "old", RefreshToken: "r1", ExpiresAt: now.Add(30 * time.Second)}
	p.On("Refresh", ctx, "r1").Return(Identity{IDToken: "new", RefreshToken: "r2", ExpiresAt: now.Add(time.Hour)}, nil).Once()

	tok, err := m.TokenSource(s).Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", tok)
	assert.Equal(t, "r2", s.RefreshToken)

	tok, err = m.TokenSource(s).Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", tok)
	p.AssertNumberOfCalls(t, "Refresh", 1)
}

func TestTokenSource_FreshTokenUsedAsIs(t *testing.T) {
	p := new(MockProvider)
	m := newTestManager(p, new(MockUserSaver))
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	s := &Session{ID: "s1", IDToken: "tok", ExpiresAt: now.Add(10 * time.Minute)}

	tok, err := m.TokenSource(s).Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
	p.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestOAuthState_SingleUse(t *testing.T) {
	m := newTestManager(new(MockProvider), new(MockUserSaver))
	ctx := context.Background()

	state, err := m.BeginOAuth(ctx)
	require.NoError(t, err)

	require.NoError(t, m.ConsumeOAuth(ctx, state))
	assert.ErrorIs(t, m.ConsumeOAuth(ctx, state), ErrInvalidState)
	assert.ErrorIs(t, m.ConsumeOAuth(ctx, "made-up"), ErrInvalidState)
}

func TestOAuthState_ConcurrentCallbacksOneWins(t *testing.T) {
	m := newTestManager(new(MockProvider), new(MockUserSaver))
	ctx := context.Background()

	state, err := m.BeginOAuth(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var accepted atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.ConsumeOAuth(ctx, state) == nil {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), accepted.Load())
}

func TestCookieCodec_Expiry(t *testing.T) {
	codec := NewCookieCodec([]byte("secret"), time.Minute)
	now := time.Now()
	codec.now = func() time.Time { return now }

	value, err := codec.Encode("sid")
	require.NoError(t, err)

	id, err := codec.Decode(value)
	require.NoError(t, err)
	assert.Equal(t, "sid", id)

	now = now.Add(2 * time.Minute)
	_, err = codec.Decode(value)
	assert.Error(t, err)
}

func TestGoogleSignIn_ExchangeReturnsIDToken(t *testing.T) {
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	defer httpmock.DeactivateAndReset()

	cfg := &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/google/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.test/auth", TokenURL: "https://accounts.test/token"},
	}
	httpmock.RegisterResponder(http.MethodPost, "https://accounts.test/token",
		httpmock.NewStringResponder(http.StatusOK, `{"access_token":"at","token_type":"Bearer","expires_in":3600,"id_token":"google-id-token"}`).
			HeaderSet(http.Header{"Content-Type": {"application/json"}}))

	g := NewGoogleSignIn(cfg)
	assert.Contains(t, g.AuthURL("xyz"), "state=xyz")

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
	idToken, err := g.Exchange(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "google-id-token", idToken)
}
