package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/oauth/entity"
	profileentity "github.com/ovaphlow/pitchfork/service-fitness-go/internal/profile/entity"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/session"
)

// IdentityResolver looks up who owns a credential.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, cred *entity.Credential) (*profileentity.UserIdentity, error)
}

// Handler exposes the Google authorization endpoints.
type Handler struct {
	svc          *Service
	resolver     IdentityResolver
	sessions     *session.Manager
	logger       *zap.SugaredLogger
	dashboardURL string
}

func NewHandler(svc *Service, resolver IdentityResolver, sessions *session.Manager, logger *zap.SugaredLogger, dashboardURL string) *Handler {
	return &Handler{svc: svc, resolver: resolver, sessions: sessions, logger: logger, dashboardURL: dashboardURL}
}

// AuthURLResponse is returned by GET /auth/google.
type AuthURLResponse struct {
	AuthURL string `json:"authUrl"`
}

// TokenResponse is returned by GET /get-token.
type TokenResponse struct {
	Token string `json:"token"`
}

func (h *Handler) AuthURL(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		h.logger.Errorw("generate oauth state", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}
	// the frontend may call this without cookies; then the callback
	// simply has no state to compare against
	if sess, err := h.sessions.Load(r); err == nil {
		sess.OAuthState = state
		if err := h.sessions.Save(w, r, sess); err != nil {
			h.logger.Warnw("store oauth state", "err", err)
		}
	} else {
		h.logger.Warnw("load session", "err", err)
	}
	h.writeJSON(w, http.StatusOK, AuthURLResponse{AuthURL: h.svc.BuildAuthorizationURL(state)})
}

// Callback completes the authorization-code grant, resolves the user's
// identity and binds both to the session.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if err := h.completeLogin(w, r); err != nil {
		h.logger.Warnw("oauth callback failed", "err", err)
		http.Redirect(w, r, "/error", http.StatusFound)
		return
	}
	http.Redirect(w, r, h.dashboardURL, http.StatusFound)
}

func (h *Handler) completeLogin(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	if q.Get("code") == "" {
		return ErrMissingCode
	}
	sess, err := h.sessions.Load(r)
	if err != nil {
		return err
	}
	if sess.OAuthState != "" && q.Get("state") != sess.OAuthState {
		return ErrStateMismatch
	}
	cred, err := h.svc.ExchangeCode(r.Context(), q.Get("code"))
	if err != nil {
		return err
	}
	identity, err := h.resolver.ResolveIdentity(r.Context(), cred)
	if err != nil {
		return err
	}
	sess.Credential = cred
	sess.Identity = identity
	sess.OAuthState = ""
	if err := h.sessions.Save(w, r, sess); err != nil {
		return err
	}
	h.logger.Infow("user authorized", "user_id", identity.UserID.String(), "subject", cred.Subject)
	return nil
}

// GetToken exchanges ?code= and returns the access token.
func (h *Handler) GetToken(w http.ResponseWriter, r *http.Request) {
	cred, err := h.svc.ExchangeCode(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Debugw("get-token failed", "err", err)
		switch {
		case errors.Is(err, ErrMissingCode):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": ErrMissingCode.Error()})
		default:
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": ErrTokenExchange.Error()})
		}
		return
	}
	sess, err := h.sessions.Load(r)
	if err == nil {
		sess.Credential = cred
		err = h.sessions.Save(w, r, sess)
	}
	if err != nil {
		h.logger.Warnw("bind credential to session", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}
	h.writeJSON(w, http.StatusOK, TokenResponse{Token: cred.AccessToken})
}

// Logout ends the session and forgets its credential.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(w, r); err != nil {
		h.logger.Warnw("destroy session", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Error is where failed authorizations land.
func (h *Handler) Error(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "An error occurred", http.StatusInternalServerError)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
