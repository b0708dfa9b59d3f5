package rest

import (
	"net/http"

	"github.com/dfryer1193/pressroom/api"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Login checks the submitted pair and sets the credential cookie on success
func (h *Handlers) Login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cred, err := h.gate.Login(req.ID, req.Credential())
	if err != nil {
		log.Warn().Str("clientIP", c.ClientIP()).Msg("Rejected admin login")
		respondError(c, err)
		return
	}

	h.gate.SetCookie(c.Writer, cred)
	c.JSON(http.StatusOK, api.MessageResponse{Message: "logged in"})
}

// Logout always clears the credential cookie
func (h *Handlers) Logout(c *gin.Context) {
	h.gate.Logout(c.Writer)
	c.JSON(http.StatusOK, api.MessageResponse{Message: "logged out"})
}

// LoginPage answers the redirect target of the admin gate
func (h *Handlers) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, api.MessageResponse{Message: "sign in with POST /auth/login"})
}

func (h *Handlers) AdminHome(c *gin.Context) {
	c.JSON(http.StatusOK, api.MessageResponse{Message: "authenticated"})
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}
