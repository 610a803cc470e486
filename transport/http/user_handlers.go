package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blockvault/blockvault/service"
)

// UserHandlers contains HTTP handlers for profile and sharing-key endpoints.
type UserHandlers struct {
	userService *service.UserService
}

// NewUserHandlers creates new user handlers.
func NewUserHandlers(userService *service.UserService) *UserHandlers {
	return &UserHandlers{userService: userService}
}

// Profile returns the caller's account state. Pass with_key=1 to include
// the registered public key PEM.
func (h *UserHandlers) Profile(c *gin.Context) {
	auth := authFrom(c)

	user, err := h.userService.GetUser(c.Request.Context(), auth.Address)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{
		"address":        auth.Address,
		"role":           auth.Role.String(),
		"role_value":     int(auth.Role),
		"has_public_key": user.HasPublicKey(),
	}
	if c.Query("with_key") == "1" && user.HasPublicKey() {
		resp["public_key_pem"] = user.PublicKeyPEM
	}
	c.JSON(http.StatusOK, resp)
}

// SetPublicKey registers or replaces the caller's sharing public key.
func (h *UserHandlers) SetPublicKey(c *gin.Context) {
	var req struct {
		PublicKeyPEM string `json:"public_key_pem" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "public_key_pem is required")
		return
	}

	auth := authFrom(c)
	updatedAt, err := h.userService.SetPublicKey(c.Request.Context(), auth.Address, req.PublicKeyPEM)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"updated_at": updatedAt,
	})
}

// DeletePublicKey removes the caller's sharing public key. Existing shares
// keep their already wrapped passphrases; only new incoming shares are
// blocked.
func (h *UserHandlers) DeletePublicKey(c *gin.Context) {
	auth := authFrom(c)
	if err := h.userService.DeletePublicKey(c.Request.Context(), auth.Address); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
