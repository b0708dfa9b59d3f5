package middleware

import (
	"net/http"
	"strings"

	"github.com/dfryer1193/pressroom/auth"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Authorizer decides whether a request carries the admin credential
type Authorizer interface {
	Authorize(r *http.Request) auth.State
}

// RequireAdmin gates every request whose path is prefix or lies below it, whether or
// not a route matches. Unauthenticated requests get 302 Found to loginPath. It must be
// installed on the engine with Use, where gin also runs it for unmatched paths.
func RequireAdmin(gate Authorizer, prefix, loginPath string) gin.HandlerFunc {
	prefix = strings.TrimSuffix(prefix, "/")

	return func(c *gin.Context) {
		if !underPrefix(c.Request.URL.Path, prefix) {
			c.Next()
			return
		}

		if gate.Authorize(c.Request) == auth.Authenticated {
			c.Next()
			return
		}

		log.Debug().Str("path", c.Request.URL.Path).Msg("Redirecting unauthenticated admin request")
		c.Redirect(http.StatusFound, loginPath)
		c.Abort()
	}
}

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
