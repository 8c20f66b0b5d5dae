package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sfp-api/internal/models"
	"github.com/noah-isme/sfp-api/internal/service"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
	"github.com/noah-isme/sfp-api/pkg/response"
)

// AuthHandler wires the admin login endpoints to the session guard.
type AuthHandler struct {
	service      *service.AuthService
	cookieName   string
	cookieSecure bool
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService, cookieName string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{service: svc, cookieName: cookieName, cookieSecure: cookieSecure}
}

// Login authenticates a department admin. On success the token is set as
// an HttpOnly cookie for browser clients and returned in the body for
// programmatic use.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	token, err := h.service.Login(req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, token, int(h.service.TTL().Seconds()))
	response.JSON(c, http.StatusOK, models.LoginResponse{OK: true, Token: token, Department: req.Department})
}

// Logout clears the session cookie. Sessions are stateless, so bearer
// tokens already issued stay valid until their own expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	response.JSON(c, http.StatusOK, gin.H{"ok": true})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, maxAge, "/", "", h.cookieSecure, true)
}
