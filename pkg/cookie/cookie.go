package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Errors.
var (
	ErrNotFound = errors.New("cookie: not found")
	ErrNoSecret = errors.New("cookie: secret required")
	ErrBadSig   = errors.New("cookie: invalid signature")
)

const flashPrefix = "flash_"

// Manager reads and writes cookies with shared attributes.
type Manager struct {
	key      []byte // nil = signing disabled
	domain   string
	path     string
	secure   bool
	httpOnly bool
	sameSite http.SameSite
}

// Option configures the Manager.
type Option func(*Manager)

// New creates a cookie Manager with the given options.
// Cookies default to Path=/, HttpOnly and SameSite=Lax.
func New(opts ...Option) *Manager {
	m := &Manager{
		path:     "/",
		httpOnly: true,
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithSecret enables signed and flash cookies.
// The secret is stretched with SHA-256, so any non-empty value yields a
// 32-byte signing key.
func WithSecret(secret string) Option {
	return func(m *Manager) {
		if secret == "" {
			return
		}
		sum := sha256.Sum256([]byte(secret))
		m.key = sum[:]
	}
}

// WithDomain sets the cookie domain.
func WithDomain(domain string) Option {
	return func(m *Manager) {
		m.domain = domain
	}
}

// WithPath sets the cookie path.
func WithPath(path string) Option {
	return func(m *Manager) {
		m.path = path
	}
}

// WithSecure sets the Secure flag.
func WithSecure(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithHTTPOnly sets the HttpOnly flag.
func WithHTTPOnly(httpOnly bool) Option {
	return func(m *Manager) {
		m.httpOnly = httpOnly
	}
}

// WithSameSite sets the SameSite attribute.
func WithSameSite(ss http.SameSite) Option {
	return func(m *Manager) {
		m.sameSite = ss
	}
}

// Get returns a plain cookie value.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Set sets a plain cookie. maxAge is in seconds; zero makes a browser-session cookie.
func (m *Manager) Set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, m.cookie(name, value, maxAge))
}

// Delete expires a cookie.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, m.cookie(name, "", -1))
}

// GetSigned returns the value of a cookie written by SetSigned.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	if m.key == nil {
		return "", ErrNoSecret
	}

	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	value, err := m.verify(raw)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// SetSigned sets a cookie whose value is protected by an HMAC-SHA256 tag.
// The value stays readable by the client but cannot be altered.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, maxAge int) error {
	if m.key == nil {
		return ErrNoSecret
	}
	http.SetCookie(w, m.cookie(name, m.sign([]byte(value)), maxAge))
	return nil
}

// Flash decodes a one-shot message into dest and deletes the cookie.
// Returns ErrNotFound when there is no message.
func (m *Manager) Flash(w http.ResponseWriter, r *http.Request, key string, dest any) error {
	name := flashPrefix + key
	raw, err := m.GetSigned(r, name)
	if err != nil {
		return err
	}
	m.Delete(w, name)

	return json.Unmarshal([]byte(raw), dest)
}

// SetFlash stores a one-shot message for the next request.
func (m *Manager) SetFlash(w http.ResponseWriter, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.SetSigned(w, flashPrefix+key, string(data), 0)
}

// Format: base64(value).base64(tag)
func (m *Manager) sign(value []byte) string {
	mac := hmac.New(sha256.New, m.key)
	mac.Write(value)

	return base64.RawURLEncoding.EncodeToString(value) +
		"." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *Manager) verify(raw string) ([]byte, error) {
	encValue, encSig, ok := strings.Cut(raw, ".")
	if !ok {
		return nil, ErrBadSig
	}

	value, err := base64.RawURLEncoding.DecodeString(encValue)
	if err != nil {
		return nil, ErrBadSig
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return nil, ErrBadSig
	}

	mac := hmac.New(sha256.New, m.key)
	mac.Write(value)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return nil, ErrBadSig
	}
	return value, nil
}

func (m *Manager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: m.httpOnly,
		SameSite: m.sameSite,
	}
}
