package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/example/todo-app/config"
	domain "github.com/example/todo-app/domain/user"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var (
	// ErrGoogleDisabled is returned when Google sign-in is not configured.
	ErrGoogleDisabled = errors.New("google sign-in is not configured")
	// ErrInvalidState is returned when the OAuth state is missing, forged or stale.
	ErrInvalidState = errors.New("invalid oauth state")
	// ErrGoogleExchange is returned when the code exchange or profile lookup fails.
	ErrGoogleExchange = errors.New("google sign-in failed")
)

// GoogleProvider is the part of the Google OAuth flow the auth service needs.
type GoogleProvider interface {
	AuthCodeURL(state string) string
	Profile(ctx context.Context, code string) (*domain.GoogleProfile, error)
}

// GoogleOAuth implements GoogleProvider with golang.org/x/oauth2.
type GoogleOAuth struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogleOAuth returns nil when Google sign-in is not configured.
func NewGoogleOAuth(cfg config.GoogleConfig) *GoogleOAuth {
	if !cfg.Enabled() {
		return nil
	}
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// AuthCodeURL returns the consent page URL.
func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Profile exchanges the authorization code and reads the user's profile.
func (g *GoogleOAuth) Profile(ctx context.Context, code string) (*domain.GoogleProfile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", ErrGoogleExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo: %v", ErrGoogleExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: userinfo status %d: %s", ErrGoogleExchange, resp.StatusCode, body)
	}

	var profile domain.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", ErrGoogleExchange, err)
	}
	if profile.ID == "" || profile.Email == "" {
		return nil, fmt.Errorf("%w: profile is missing id or email", ErrGoogleExchange)
	}
	return &profile, nil
}
