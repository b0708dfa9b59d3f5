package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dfryer1193/pressroom/blog/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	g, err := NewGate(Config{
		AdminID:     "admin",
		SecretHash:  hash,
		TokenSecret: []byte("test-signing-key"),
	})
	require.NoError(t, err)
	return g
}

func requestWithCookie(value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if value != "" {
		r.AddCookie(&http.Cookie{Name: CookieName, Value: value})
	}
	return r
}

func TestNewGate_Validation(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("x"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing admin id", cfg: Config{SecretHash: hash, TokenSecret: []byte("k")}},
		{name: "missing hash", cfg: Config{AdminID: "a", TokenSecret: []byte("k")}},
		{name: "plaintext instead of hash", cfg: Config{AdminID: "a", SecretHash: []byte("x"), TokenSecret: []byte("k")}},
		{name: "missing token secret", cfg: Config{AdminID: "a", SecretHash: hash}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGate(tt.cfg)
			assert.Error(t, err)
		})
	}

	g, err := NewGate(Config{AdminID: "a", SecretHash: hash, TokenSecret: []byte("k")})
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, g.cfg.TokenTTL)
}

func TestLogin(t *testing.T) {
	g := newTestGate(t)

	tests := []struct {
		name    string
		id      string
		secret  string
		wantErr bool
	}{
		{name: "valid", id: "admin", secret: "s3cret"},
		{name: "wrong secret", id: "admin", secret: "nope", wantErr: true},
		{name: "wrong id", id: "root", secret: "s3cret", wantErr: true},
		{name: "empty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, err := g.Login(tt.id, tt.secret)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnauthorized)
				assert.Nil(t, cred)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, cred.Token)

			claims, err := g.Verify(cred.Token)
			require.NoError(t, err)
			assert.Equal(t, "admin", claims.Subject)
			assert.NotEmpty(t, claims.ID)
		})
	}
}

func TestAuthorize(t *testing.T) {
	g := newTestGate(t)

	cred, err := g.Login("admin", "s3cret")
	require.NoError(t, err)

	other, err := NewGate(Config{AdminID: "admin", SecretHash: g.cfg.SecretHash, TokenSecret: []byte("another-key")})
	require.NoError(t, err)
	forged, err := other.Login("admin", "s3cret")
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie string
		want   State
	}{
		{name: "no cookie", cookie: "", want: Unauthenticated},
		{name: "arbitrary value", cookie: "anything", want: Unauthenticated},
		{name: "signed with another key", cookie: forged.Token, want: Unauthenticated},
		{name: "valid token", cookie: cred.Token, want: Authenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Authorize(requestWithCookie(tt.cookie)))
		})
	}
}

func TestAuthorize_Expired(t *testing.T) {
	g := newTestGate(t)

	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return issued }

	cred, err := g.Login("admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, Authenticated, g.Authorize(requestWithCookie(cred.Token)))

	g.now = func() time.Time { return issued.Add(DefaultTokenTTL + time.Second) }
	assert.Equal(t, Unauthenticated, g.Authorize(requestWithCookie(cred.Token)))
}

func TestVerify_RejectsOtherSubjectAndAlgorithm(t *testing.T) {
	g := newTestGate(t)

	claims := jwt.RegisteredClaims{
		Subject:   "intruder",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.cfg.TokenSecret)
	require.NoError(t, err)

	_, err = g.Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = g.Verify(unsigned)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "admin"}).SignedString(g.cfg.TokenSecret)
	require.NoError(t, err)

	_, err = g.Verify(noExpiry)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSetCookie(t *testing.T) {
	g := newTestGate(t)

	cred, err := g.Login("admin", "s3cret")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	g.SetCookie(rec, cred)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, cred.Token, c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 86400, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestLogout(t *testing.T) {
	g := newTestGate(t)

	rec := httptest.NewRecorder()
	g.Logout(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Empty(t, c.Value)
	assert.LessOrEqual(t, c.MaxAge, 0)
	assert.True(t, c.Expires.Equal(time.Unix(0, 0)))
}

func TestHashSecret(t *testing.T) {
	hash, err := HashSecret("hunter2")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))

	_, err = HashSecret("")
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "unauthenticated", Unauthenticated.String())
}
