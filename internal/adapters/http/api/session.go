package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const (
	defaultCookieName = "hairhealth_session"
	defaultCookieAge  = 30 * time.Minute
	hashKeyLen        = 64
	blockKeyLen       = 32
)

// CookieConfig controls the signed cookie that carries the session id.
type CookieConfig struct {
	Name string
	// HashKey signs the cookie. Empty means a random key for this process.
	HashKey []byte
	// BlockKey encrypts the cookie; it must be 16, 24 or 32 bytes.
	// Empty means a random key for this process.
	BlockKey []byte
	MaxAge   time.Duration
	Secure   bool
}

// sessionCookie maps browsers to session ids. The id is a random uuid; the
// results themselves stay server side in the repository.
type sessionCookie struct {
	name   string
	codec  *securecookie.SecureCookie
	maxAge time.Duration
	secure bool
}

func newSessionCookie(cfg CookieConfig) (*sessionCookie, error) {
	if cfg.Name == "" {
		cfg.Name = defaultCookieName
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultCookieAge
	}
	if len(cfg.HashKey) == 0 {
		cfg.HashKey = securecookie.GenerateRandomKey(hashKeyLen)
	}
	if len(cfg.BlockKey) == 0 {
		cfg.BlockKey = securecookie.GenerateRandomKey(blockKeyLen)
	}
	switch len(cfg.BlockKey) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes, got %d", ErrInvalidConfig, len(cfg.BlockKey))
	}
	if cfg.HashKey == nil || cfg.BlockKey == nil {
		return nil, fmt.Errorf("%w: could not generate cookie keys", ErrInvalidConfig)
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.MaxAge(int(cfg.MaxAge / time.Second))
	return &sessionCookie{name: cfg.Name, codec: codec, maxAge: cfg.MaxAge, secure: cfg.Secure}, nil
}

// id returns the session id carried by r. A missing, tampered or expired
// cookie yields false.
func (c *sessionCookie) id(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return "", false
	}
	var id string
	if err := c.codec.Decode(c.name, cookie.Value, &id); err != nil {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// ensure returns the current session id, issuing a new cookie when r has none.
// The cookie is refreshed either way so it lives as long as the stored result.
func (c *sessionCookie) ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	id, ok := c.id(r)
	if !ok {
		id = uuid.NewString()
	}
	value, err := c.codec.Encode(c.name, id)
	if err != nil {
		return "", WrapKind("session.encode", ErrSession, err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.maxAge / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}
