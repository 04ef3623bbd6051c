package session

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"

	"github.com/ovaphlow/pitchfork/service-fitness-go/pkg/utilities"
)

const (
	CookieName = "fitness_session"
	sidKey     = "sid"
)

type Config struct {
	Secret        string
	MaxAge        time.Duration
	Secure        bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// ConfigFromEnv reads session settings. An empty SESSION_SECRET yields a
// random per-process secret, so cookies do not survive a restart.
func ConfigFromEnv() Config {
	return Config{
		Secret:        utilities.EnvString("SESSION_SECRET", ""),
		MaxAge:        utilities.EnvDuration("SESSION_MAX_AGE", 24*time.Hour),
		Secure:        utilities.EnvBool("SESSION_SECURE"),
		RedisAddr:     utilities.EnvString("REDIS_ADDR", ""),
		RedisPassword: utilities.EnvString("REDIS_PASSWORD", ""),
		RedisDB:       utilities.EnvInt("REDIS_DB", 0),
	}
}

// Session is a loaded session. An empty ID means no session exists yet;
// Save assigns one.
type Session struct {
	ID string
	State
}

// Manager ties the signed session cookie to server-side State. The cookie
// only carries the session id.
type Manager struct {
	cookies sessions.Store
	store   Store
	maxAge  time.Duration
}

func NewManager(cfg Config, store Store) (*Manager, error) {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}
	hashKey, blockKey, err := deriveKeys(secret)
	if err != nil {
		return nil, err
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	cs := sessions.NewCookieStore(hashKey, blockKey)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{cookies: cs, store: store, maxAge: maxAge}, nil
}

// deriveKeys expands one secret into the HMAC and AES keys securecookie needs.
func deriveKeys(secret []byte) (hashKey, blockKey []byte, err error) {
	r := hkdf.New(sha256.New, secret, nil, []byte("fitness-session-cookie"))
	hashKey = make([]byte, 64)
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(r, hashKey); err != nil {
		return nil, nil, fmt.Errorf("derive hash key: %w", err)
	}
	if _, err := io.ReadFull(r, blockKey); err != nil {
		return nil, nil, fmt.Errorf("derive block key: %w", err)
	}
	return hashKey, blockKey, nil
}

// Load returns the caller's session. A missing or undecodable cookie, or a
// session id the store no longer knows, yields an empty session.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	sid := m.sessionID(r)
	if sid == "" {
		return &Session{}, nil
	}
	st, err := m.store.Get(r.Context(), sid)
	if errors.Is(err, ErrNotFound) {
		return &Session{ID: sid}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Session{ID: sid, State: *st}, nil
}

// Save persists s and (re)issues the cookie.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if err := m.store.Put(r.Context(), s.ID, &s.State, m.maxAge); err != nil {
		return err
	}
	cs, _ := m.cookies.Get(r, CookieName)
	cs.Values[sidKey] = s.ID
	return cs.Save(r, w)
}

// Destroy drops the server-side state and expires the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) error {
	if sid := m.sessionID(r); sid != "" {
		if err := m.store.Delete(r.Context(), sid); err != nil {
			return err
		}
	}
	cs, _ := m.cookies.Get(r, CookieName)
	delete(cs.Values, sidKey)
	cs.Options.MaxAge = -1
	return cs.Save(r, w)
}

func (m *Manager) sessionID(r *http.Request) string {
	cs, err := m.cookies.Get(r, CookieName)
	if err != nil {
		return ""
	}
	sid, _ := cs.Values[sidKey].(string)
	return sid
}
