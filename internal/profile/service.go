package profile

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/oauth"
	oauthentity "github.com/ovaphlow/pitchfork/service-fitness-go/internal/oauth/entity"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/observability"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/profile/entity"
	"github.com/ovaphlow/pitchfork/service-fitness-go/pkg/utilities"
)

const resourcePrefix = "people/"

var (
	ErrUpstreamProfile   = errors.New("profile service unavailable")
	ErrMalformedIdentity = errors.New("malformed identity")
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL: utilities.EnvString("GOOGLE_PEOPLE_URL", "https://people.googleapis.com"),
		Timeout: utilities.EnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
	}
}

type personResponse struct {
	ResourceName string `json:"resourceName"`
	Names        []struct {
		DisplayName string `json:"displayName"`
	} `json:"names"`
	Photos []struct {
		URL string `json:"url"`
	} `json:"photos"`
}

// Service resolves the signed-in user's identity via the People API.
type Service struct {
	client *resty.Client
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(cfg Config, logger *zap.SugaredLogger) *Service {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	return &Service{client: client, logger: logger, now: time.Now}
}

// ResolveIdentity fetches name, photo and numeric id for cred's owner.
func (s *Service) ResolveIdentity(ctx context.Context, cred *oauthentity.Credential) (*entity.UserIdentity, error) {
	if cred.Expired(s.now()) {
		return nil, oauth.ErrTokenExpired
	}

	var body personResponse
	started := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(cred.AccessToken).
		SetQueryParam("personFields", "names,photos,emailAddresses").
		SetResult(&body).
		Get("/v1/people/me")
	if err == nil && resp.IsError() {
		err = fmt.Errorf("status %d", resp.StatusCode())
	}
	observability.ObserveUpstream("people_get", started, err)
	if err != nil {
		s.logger.Warnw("people api call failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstreamProfile, err)
	}
	if len(body.Names) == 0 || len(body.Photos) == 0 {
		return nil, fmt.Errorf("%w: response is missing names or photos", ErrUpstreamProfile)
	}

	id, err := ParseUserID(body.ResourceName)
	if err != nil {
		return nil, err
	}
	return &entity.UserIdentity{
		DisplayName: body.Names[0].DisplayName,
		PhotoURL:    body.Photos[0].URL,
		UserID:      id,
	}, nil
}

// ParseUserID strips the "people/" prefix and parses the rest as a
// base-10 integer.
func ParseUserID(resourceName string) (*big.Int, error) {
	digits := strings.TrimPrefix(resourceName, resourcePrefix)
	if digits == "" || strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return nil, fmt.Errorf("%w: resource name %q", ErrMalformedIdentity, resourceName)
	}
	id, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: resource name %q", ErrMalformedIdentity, resourceName)
	}
	return id, nil
}
