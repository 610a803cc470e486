package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blockvault/blockvault/core"
	"github.com/blockvault/blockvault/ports"
	"github.com/blockvault/blockvault/service"
)

const maxNoteLen = 280

// ShareHandlers contains HTTP handlers for access-grant endpoints.
type ShareHandlers struct {
	shareService *service.ShareService
	pinner       ports.Pinner
}

// NewShareHandlers creates new share handlers.
func NewShareHandlers(shareService *service.ShareService, pinner ports.Pinner) *ShareHandlers {
	return &ShareHandlers{shareService: shareService, pinner: pinner}
}

// Create grants a recipient access to a file. The caller supplies the file
// passphrase; it is wrapped with the recipient's registered public key and
// never stored in the clear. Re-sharing the same triple updates in place.
func (h *ShareHandlers) Create(c *gin.Context) {
	var req struct {
		Recipient  string `json:"recipient"`
		Passphrase string `json:"passphrase"`
		Note       string `json:"note"`
		ExpiresAt  *int64 `json:"expires_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request body")
		return
	}
	if req.Recipient == "" {
		writeBadRequest(c, "recipient address required")
		return
	}
	if req.Passphrase == "" {
		writeBadRequest(c, "passphrase required")
		return
	}
	if len(req.Note) > maxNoteLen {
		writeBadRequest(c, "note too long (max 280 chars)")
		return
	}

	auth := authFrom(c)
	rec, err := h.shareService.CreateOrUpdate(c.Request.Context(), auth.Address,
		c.Param("id"), req.Recipient, req.Passphrase, req.Note, req.ExpiresAt)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.shareJSON(rec, true))
}

// Incoming lists unexpired shares addressed to the caller, wrapped
// passphrase included.
func (h *ShareHandlers) Incoming(c *gin.Context) {
	auth := authFrom(c)
	recs, err := h.shareService.ListIncoming(c.Request.Context(), auth.Address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shares": h.shareListJSON(recs, true)})
}

// Outgoing lists the shares the caller has granted, expired ones included.
// Wrapped passphrases are withheld; they belong to the recipients.
func (h *ShareHandlers) Outgoing(c *gin.Context) {
	auth := authFrom(c)
	recs, err := h.shareService.ListOutgoing(c.Request.Context(), auth.Address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shares": h.shareListJSON(recs, false)})
}

// Revoke removes a share. Owner, recipient, or admin only.
func (h *ShareHandlers) Revoke(c *gin.Context) {
	auth := authFrom(c)
	shareID := c.Param("id")
	if err := h.shareService.Revoke(c.Request.Context(), auth, shareID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "revoked", "share_id": shareID})
}

func (h *ShareHandlers) shareListJSON(recs []*core.ShareRecord, withKey bool) []gin.H {
	items := make([]gin.H, 0, len(recs))
	for _, rec := range recs {
		items = append(items, h.shareJSON(rec, withKey))
	}
	return items
}

func (h *ShareHandlers) shareJSON(rec *core.ShareRecord, withKey bool) gin.H {
	var encryptedKey any
	if withKey {
		encryptedKey = rec.WrappedPassphrase
	}
	var expiresAt any
	if rec.ExpiresAt != nil {
		expiresAt = *rec.ExpiresAt
	}
	return gin.H{
		"share_id":      rec.ID,
		"file_id":       rec.FileID,
		"owner":         rec.Owner,
		"recipient":     rec.Recipient,
		"encrypted_key": encryptedKey,
		"note":          nullable(rec.Note),
		"created_at":    rec.CreatedAt,
		"expires_at":    expiresAt,
		"file_name":     rec.FileName,
		"file_size":     rec.FileSize,
		"sha256":        nullable(rec.SHA256),
		"cid":           nullable(rec.CID),
		"gateway_url":   h.gatewayURL(rec.CID),
	}
}

func (h *ShareHandlers) gatewayURL(cid string) any {
	if cid == "" {
		return nil
	}
	if url := h.pinner.GatewayURL(cid); url != "" {
		return url
	}
	return nil
}
