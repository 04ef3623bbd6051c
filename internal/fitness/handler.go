package fitness

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/fitness/entity"
	oauthentity "github.com/ovaphlow/pitchfork/service-fitness-go/internal/oauth/entity"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/observability"
	profileentity "github.com/ovaphlow/pitchfork/service-fitness-go/internal/profile/entity"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/session"
)

var errNotAuthorized = errors.New("session has no authorized user")

// CredentialRefresher renews a credential that is about to expire.
type CredentialRefresher interface {
	Refresh(ctx context.Context, cred *oauthentity.Credential) (*oauthentity.Credential, error)
}

// Persister stores a user's identity and daily records.
type Persister interface {
	Persist(ctx context.Context, identity *profileentity.UserIdentity, records []entity.DailyRecord)
}

// DataResponse is returned by GET /fetch-data.
type DataResponse struct {
	UserName      string               `json:"userName"`
	ProfilePhoto  string               `json:"profilePhoto"`
	UserID        *big.Int             `json:"userId"`
	FormattedData []entity.DailyRecord `json:"formattedData"`
}

type Handler struct {
	client    *Client
	refresher CredentialRefresher
	sessions  *session.Manager
	persister Persister
	logger    *zap.SugaredLogger

	persistTimeout time.Duration
	wg             sync.WaitGroup
	now            func() time.Time
}

// NewHandler wires the fetch endpoint. A nil persister disables background
// writes.
func NewHandler(client *Client, refresher CredentialRefresher, sessions *session.Manager, persister Persister, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		client:         client,
		refresher:      refresher,
		sessions:       sessions,
		persister:      persister,
		logger:         logger,
		persistTimeout: 30 * time.Second,
		now:            time.Now,
	}
}

func (h *Handler) FetchData(w http.ResponseWriter, r *http.Request) {
	resp, err := h.fetch(w, r)
	if err != nil {
		h.logger.Errorw("fetch data", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) (*DataResponse, error) {
	sess, err := h.sessions.Load(r)
	if err != nil {
		return nil, err
	}
	if sess.Credential == nil || sess.Identity == nil {
		return nil, errNotAuthorized
	}

	cred, err := h.refresher.Refresh(r.Context(), sess.Credential)
	if err != nil {
		return nil, err
	}
	if cred != sess.Credential {
		sess.Credential = cred
		if err := h.sessions.Save(w, r, sess); err != nil {
			h.logger.Warnw("store refreshed credential", "err", err)
		}
	}

	agg, err := h.client.FetchAggregate(r.Context(), cred, DefaultWindow(h.now()), MetricTypes)
	if err != nil {
		return nil, err
	}
	records := Normalize(agg)
	observability.AddNormalized(len(records))

	identity := sess.Identity
	h.persist(identity, records)

	return &DataResponse{
		UserName:      identity.DisplayName,
		ProfilePhoto:  identity.PhotoURL,
		UserID:        identity.UserID,
		FormattedData: records,
	}, nil
}

// persist hands the records to the persister off the request path.
func (h *Handler) persist(identity *profileentity.UserIdentity, records []entity.DailyRecord) {
	if h.persister == nil {
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), h.persistTimeout)
		defer cancel()
		h.persister.Persist(ctx, identity, records)
	}()
}

// Wait blocks until in-flight background writes finish.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
