package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/oauth/entity"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/observability"
	"github.com/ovaphlow/pitchfork/service-fitness-go/pkg/utilities"
)

// Scopes is the fixed scope set requested from Google.
var Scopes = []string{
	"https://www.googleapis.com/auth/fitness.activity.read",
	"https://www.googleapis.com/auth/fitness.blood_glucose.read",
	"https://www.googleapis.com/auth/fitness.blood_pressure.read",
	"https://www.googleapis.com/auth/fitness.heart_rate.read",
	"https://www.googleapis.com/auth/fitness.body.read",
	"https://www.googleapis.com/auth/fitness.sleep.read",
	"https://www.googleapis.com/auth/fitness.reproductive_health.read",
	"https://www.googleapis.com/auth/userinfo.profile",
}

var (
	ErrMissingCode   = errors.New("authorization code not provided")
	ErrTokenExchange = errors.New("token exchange failed")
	ErrTokenExpired  = errors.New("credential expired")
	ErrStateMismatch = errors.New("oauth state mismatch")
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	DashboardURL string
	Timeout      time.Duration
}

// ConfigFromEnv reads the Google client registration from env vars.
func ConfigFromEnv() Config {
	return Config{
		ClientID:     utilities.EnvString("GOOGLE_CLIENT_ID", ""),
		ClientSecret: utilities.EnvString("GOOGLE_CLIENT_SECRET", ""),
		RedirectURL:  utilities.EnvString("GOOGLE_REDIRECT_URL", "http://localhost:8000/auth/google/callback"),
		DashboardURL: utilities.EnvString("DASHBOARD_URL", "http://localhost:3000/dashboard"),
		Timeout:      utilities.EnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
	}
}

// Service performs the authorization-code grant and token refresh.
type Service struct {
	oauth   *oauth2.Config
	timeout time.Duration
	now     func() time.Time
}

func NewService(cfg Config) *Service {
	return NewServiceWithEndpoint(cfg, google.Endpoint)
}

// NewServiceWithEndpoint builds a Service against a custom token endpoint.
// This is primarily used for testing.
func NewServiceWithEndpoint(cfg Config, endpoint oauth2.Endpoint) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
		},
		timeout: timeout,
		now:     time.Now,
	}
}

// BuildAuthorizationURL returns the consent URL. No network call is made.
func (s *Service) BuildAuthorizationURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode trades an authorization code for a Credential.
func (s *Service) ExchangeCode(ctx context.Context, code string) (*entity.Credential, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrMissingCode
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	tok, err := s.oauth.Exchange(ctx, code)
	observability.ObserveUpstream("token_exchange", started, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}
	cred := entity.FromToken(tok)
	cred.Subject = subjectFromToken(tok)
	return cred, nil
}

// Refresh returns cred unchanged while it is still fresh, otherwise a new
// Credential obtained with its refresh token.
func (s *Service) Refresh(ctx context.Context, cred *entity.Credential) (*entity.Credential, error) {
	if cred == nil {
		return nil, ErrTokenExpired
	}
	if !cred.Expired(s.now()) {
		return cred, nil
	}
	if cred.RefreshToken == "" {
		return nil, ErrTokenExpired
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// oauth2 uses a smaller skew than ExpirySkew; dropping the access token
	// forces the token source to hit the endpoint
	stale := cred.Token()
	stale.AccessToken = ""
	started := time.Now()
	tok, err := s.oauth.TokenSource(ctx, stale).Token()
	observability.ObserveUpstream("token_refresh", started, err)
	if err != nil {
		return nil, fmt.Errorf("%w: refresh: %w", ErrTokenExpired, err)
	}
	next := entity.FromToken(tok)
	next.Subject = subjectFromToken(tok)
	if next.Subject == "" {
		next.Subject = cred.Subject
	}
	return next, nil
}

// subjectFromToken reads "sub" from the id_token returned alongside the
// access token. The token comes straight from the token endpoint over TLS,
// so the signature is not checked.
func subjectFromToken(tok *oauth2.Token) string {
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
