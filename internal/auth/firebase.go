package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	secureTokenURL     = "https://securetoken.googleapis.com/v1/token"
)

// FirebaseProvider talks to the Firebase Identity Toolkit REST API.
type FirebaseProvider struct {
	apiKey     string
	requestURI string
	hc         *http.Client
	now        func() time.Time
}

// NewFirebaseProvider builds a provider for apiKey. requestURI is the public
// URL Google redirects back to and is sent with IdP sign-ins.
func NewFirebaseProvider(apiKey, requestURI string, hc *http.Client) *FirebaseProvider {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &FirebaseProvider{apiKey: apiKey, requestURI: requestURI, hc: hc, now: time.Now}
}

type accountResponse struct {
	LocalID        string `json:"localId"`
	Email          string `json:"email"`
	DisplayName    string `json:"displayName"`
	PhotoURL       string `json:"photoUrl"`
	ProfilePicture string `json:"profilePicture"`
	IDToken        string `json:"idToken"`
	RefreshToken   string `json:"refreshToken"`
	ExpiresIn      string `json:"expiresIn"`
}

func (p *FirebaseProvider) identity(r accountResponse) Identity {
	photo := r.PhotoURL
	if photo == "" {
		photo = r.ProfilePicture
	}
	return Identity{
		UID:          r.LocalID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		PhotoURL:     photo,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    tokenExpiry(r.IDToken, r.ExpiresIn, p.now()),
	}
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	var out accountResponse
	err := p.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return Identity{}, err
	}
	return p.identity(out), nil
}

// SignUp creates the account and then sets its display name and photo.
func (p *FirebaseProvider) SignUp(ctx context.Context, name, email, password, photo string) (Identity, error) {
	var created accountResponse
	err := p.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &created)
	if err != nil {
		return Identity{}, err
	}

	var updated accountResponse
	err = p.post(ctx, "accounts:update", map[string]any{
		"idToken":           created.IDToken,
		"displayName":       name,
		"photoUrl":          photo,
		"returnSecureToken": true,
	}, &updated)
	if err != nil {
		return Identity{}, fmt.Errorf("update profile: %w", err)
	}

	if updated.IDToken != "" {
		created.IDToken = updated.IDToken
		created.RefreshToken = updated.RefreshToken
		created.ExpiresIn = updated.ExpiresIn
	}
	created.DisplayName = name
	created.PhotoURL = photo
	return p.identity(created), nil
}

func (p *FirebaseProvider) SignInWithIdp(ctx context.Context, googleIDToken string) (Identity, error) {
	postBody := url.Values{}
	postBody.Set("id_token", googleIDToken)
	postBody.Set("providerId", "google.com")

	var out accountResponse
	err := p.post(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":          postBody.Encode(),
		"requestUri":        p.requestURI,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return Identity{}, err
	}
	return p.identity(out), nil
}

func (p *FirebaseProvider) Refresh(ctx context.Context, refreshToken string) (Identity, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, secureTokenURL+"?key="+url.QueryEscape(p.apiKey), strings.NewReader(form.Encode()))
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
		UserID       string `json:"user_id"`
	}
	if err := p.send(req, &out); err != nil {
		return Identity{}, err
	}
	return Identity{
		UID:          out.UserID,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresAt:    tokenExpiry(out.IDToken, out.ExpiresIn, p.now()),
	}, nil
}

func (p *FirebaseProvider) post(ctx context.Context, method string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	target := identityToolkitURL + "/" + method + "?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return p.send(req, out)
}

func (p *FirebaseProvider) send(req *http.Request, out any) error {
	resp, err := p.hc.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("identity provider: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return providerError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("identity provider: decode response: %w", err)
	}
	return nil
}

func providerError(status int, body []byte) error {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	code := http.StatusText(status)
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		// Messages look like "WEAK_PASSWORD : Password should be ...".
		code = strings.TrimSpace(strings.SplitN(parsed.Error.Message, " ", 2)[0])
	}

	pe := &ProviderError{Status: status, Code: code}
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL":
		pe.err = ErrInvalidCredentials
	case "EMAIL_EXISTS":
		pe.err = ErrEmailExists
	case "WEAK_PASSWORD":
		pe.err = ErrWeakPassword
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "USER_DISABLED", "USER_NOT_FOUND", "INVALID_ID_TOKEN":
		pe.err = ErrSessionExpired
	}
	return pe
}

// tokenExpiry reads exp from the id token, falling back to expiresIn seconds.
func tokenExpiry(idToken, expiresIn string, now time.Time) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if secs, err := strconv.Atoi(expiresIn); err == nil {
		return now.Add(time.Duration(secs) * time.Second)
	}
	return now.Add(time.Hour)
}
