package session

import (
	"context"
	"errors"
	"time"

	oauthentity "github.com/ovaphlow/pitchfork/service-fitness-go/internal/oauth/entity"
	profileentity "github.com/ovaphlow/pitchfork/service-fitness-go/internal/profile/entity"
)

var ErrNotFound = errors.New("session not found")

// State is everything the service keeps for one browser session.
type State struct {
	Credential *oauthentity.Credential     `json:"credential,omitempty"`
	Identity   *profileentity.UserIdentity `json:"identity,omitempty"`
	// OAuthState is the pending state parameter of an authorization redirect.
	OAuthState string `json:"oauth_state,omitempty"`
}

// Store keeps session state keyed by session id.
type Store interface {
	Get(ctx context.Context, id string) (*State, error)
	Put(ctx context.Context, id string, st *State, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
