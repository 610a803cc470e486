package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blockvault/blockvault/service"
)

// AuthHandlers contains HTTP handlers for the challenge-response login flow.
type AuthHandlers struct {
	authService *service.AuthService
}

// NewAuthHandlers creates new auth handlers.
func NewAuthHandlers(authService *service.AuthService) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

// GetNonce issues a fresh login challenge for an address.
func (h *AuthHandlers) GetNonce(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "address is required")
		return
	}

	challenge, err := h.authService.CreateNonce(c.Request.Context(), req.Address)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": challenge.Address,
		"nonce":   challenge.Nonce,
		"message": challenge.Message,
	})
}

// Login verifies a signature over the outstanding challenge and returns a
// bearer token.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		Address   string `json:"address" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "address and signature are required")
		return
	}

	token, address, err := h.authService.Login(c.Request.Context(), req.Address, req.Signature)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"address": address,
	})
}

// Me returns the authenticated identity.
func (h *AuthHandlers) Me(c *gin.Context) {
	auth := authFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"address":    auth.Address,
		"role":       auth.Role.String(),
		"role_value": int(auth.Role),
	})
}
