package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dfryer1193/pressroom/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubAuthorizer auth.State

func (s stubAuthorizer) Authorize(*http.Request) auth.State {
	return auth.State(s)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name         string
		state        auth.State
		path         string
		wantStatus   int
		wantLocation string
		wantCalled   bool
	}{
		{name: "unauthenticated redirects", state: auth.Unauthenticated, path: "/admin/posts", wantStatus: http.StatusFound, wantLocation: "/login"},
		{name: "authenticated passes", state: auth.Authenticated, path: "/admin/posts", wantStatus: http.StatusOK, wantCalled: true},
		{name: "prefix itself is gated", state: auth.Unauthenticated, path: "/admin", wantStatus: http.StatusFound, wantLocation: "/login"},
		{name: "unrouted admin path redirects", state: auth.Unauthenticated, path: "/admin/nothing/here", wantStatus: http.StatusFound, wantLocation: "/login"},
		{name: "unrouted admin path authenticated is 404", state: auth.Authenticated, path: "/admin/nothing/here", wantStatus: http.StatusNotFound},
		{name: "public path bypasses gate", state: auth.Unauthenticated, path: "/posts", wantStatus: http.StatusOK, wantCalled: true},
		{name: "lookalike prefix bypasses gate", state: auth.Unauthenticated, path: "/administrators", wantStatus: http.StatusOK, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := func(c *gin.Context) {
				called = true
				c.Status(http.StatusOK)
			}

			r := newEngine(RequireAdmin(stubAuthorizer(tt.state), "/admin", "/login"))
			r.GET("/admin", handler)
			r.GET("/admin/posts", handler)
			r.GET("/posts", handler)
			r.GET("/administrators", handler)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func TestHandlePanics(t *testing.T) {
	r := newEngine(gin.CustomRecovery(HandlePanics()))
	r.GET("/err", func(*gin.Context) { panic(errors.New("secret detail")) })
	r.GET("/str", func(*gin.Context) { panic("boom") })

	for _, path := range []string{"/err", "/str"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "secret detail")
	}
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	r := newEngine(LoggingMiddleware())
	r.GET("/teapot", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
