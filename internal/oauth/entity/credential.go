package entity

import (
	"time"

	"golang.org/x/oauth2"
)

// ExpirySkew is how early a credential is treated as stale, so a token
// never expires in the middle of an upstream call.
const ExpirySkew = 30 * time.Second

// Credential is the access/refresh token pair bound to a session.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry"`
	// Subject is the provider's stable user id (id_token "sub"), when present.
	Subject string `json:"subject,omitempty"`
}

// Expired reports whether the access token is missing or within ExpirySkew
// of its expiry. A zero Expiry means the provider did not say, and the
// token is assumed valid.
func (c *Credential) Expired(now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return true
	}
	if c.Expiry.IsZero() {
		return false
	}
	return !now.Add(ExpirySkew).Before(c.Expiry)
}

// Token converts the credential back into an oauth2 token.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

// FromToken copies the fields of an oauth2 token.
func FromToken(t *oauth2.Token) *Credential {
	return &Credential{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}
