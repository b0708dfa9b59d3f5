// Package auth implements the single-administrator credential that guards /admin.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dfryer1193/pressroom/blog/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CookieName carries the admin credential
	CookieName = "token"

	DefaultTokenTTL = 24 * time.Hour
)

// State is the outcome of checking a request's credential
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

type Config struct {
	AdminID string
	// SecretHash is the bcrypt hash of the admin secret
	SecretHash   []byte
	TokenSecret  []byte
	TokenTTL     time.Duration
	CookieSecure bool
}

// Credential is a signed token issued on a successful login
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

type Claims struct {
	jwt.RegisteredClaims
}

// Gate issues, verifies and revokes the admin credential
type Gate struct {
	cfg Config
	now func() time.Time
}

func NewGate(cfg Config) (*Gate, error) {
	if cfg.AdminID == "" {
		return nil, errors.New("admin id not configured")
	}
	if len(cfg.SecretHash) == 0 {
		return nil, errors.New("admin secret hash not configured")
	}
	if _, err := bcrypt.Cost(cfg.SecretHash); err != nil {
		return nil, fmt.Errorf("invalid admin secret hash: %w", err)
	}
	if len(cfg.TokenSecret) == 0 {
		return nil, errors.New("token secret not configured")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}

	return &Gate{cfg: cfg, now: time.Now}, nil
}

// HashSecret returns the bcrypt hash stored as ADMIN_SECRET_HASH
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// Login checks id and secret against the configured pair and issues a credential.
// Any mismatch yields domain.ErrUnauthorized without saying which part was wrong.
func (g *Gate) Login(id, secret string) (*Credential, error) {
	idMatch := subtle.ConstantTimeCompare([]byte(id), []byte(g.cfg.AdminID)) == 1
	// the hash is always compared so a wrong id costs the same as a wrong secret
	secretErr := bcrypt.CompareHashAndPassword(g.cfg.SecretHash, []byte(secret))

	if !idMatch || secretErr != nil {
		return nil, domain.ErrUnauthorized
	}

	return g.issue()
}

func (g *Gate) issue() (*Credential, error) {
	jti, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token id: %w", err)
	}

	now := g.now()
	expires := now.Add(g.cfg.TokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   g.cfg.AdminID,
			ID:        jti.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.cfg.TokenSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Credential{Token: signed, ExpiresAt: expires}, nil
}

// Verify checks the signature, expiry and subject of a token
func (g *Gate) Verify(token string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(g.cfg.AdminID),
		jwt.WithTimeFunc(g.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return g.cfg.TokenSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	return &claims, nil
}

// Authorize reports whether the request carries a valid credential
func (g *Gate) Authorize(r *http.Request) State {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Unauthenticated
	}

	if _, err := g.Verify(cookie.Value); err != nil {
		return Unauthenticated
	}

	return Authenticated
}

// SetCookie delivers the credential to the client
func (g *Gate) SetCookie(w http.ResponseWriter, c *Credential) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    c.Token,
		Path:     "/",
		MaxAge:   int(g.cfg.TokenTTL / time.Second),
		HttpOnly: true,
		Secure:   g.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Logout overwrites the credential with an empty, already expired cookie
func (g *Gate) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   g.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
