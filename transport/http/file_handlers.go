package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/blockvault/blockvault/core"
	"github.com/blockvault/blockvault/ports"
	"github.com/blockvault/blockvault/service"
)

const (
	maxNameLen   = 255
	maxFolderLen = 120
)

// FileHandlers contains HTTP handlers for encrypted file endpoints.
type FileHandlers struct {
	fileService *service.FileService
	pinner      ports.Pinner
}

// NewFileHandlers creates new file handlers.
func NewFileHandlers(fileService *service.FileService, pinner ports.Pinner) *FileHandlers {
	return &FileHandlers{fileService: fileService, pinner: pinner}
}

// Upload accepts a multipart upload and stores it encrypted under the
// caller's passphrase. Form fields: file, key, aad (optional), folder
// (optional).
func (h *FileHandlers) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		writeBadRequest(c, "file part required (multipart/form-data)")
		return
	}
	if header.Filename == "" {
		writeBadRequest(c, "empty filename")
		return
	}
	passphrase := c.PostForm("key")
	if passphrase == "" {
		writeBadRequest(c, "key (passphrase) required")
		return
	}
	folder := strings.TrimSpace(c.PostForm("folder"))
	if len(folder) > maxFolderLen {
		writeBadRequest(c, "folder name too long")
		return
	}

	f, err := header.Open()
	if err != nil {
		writeBadRequest(c, "cannot read uploaded file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeBadRequest(c, "cannot read uploaded file")
		return
	}
	if len(data) == 0 {
		writeBadRequest(c, "empty file content")
		return
	}

	auth := authFrom(c)
	rec, err := h.fileService.Upload(c.Request.Context(), auth.Address,
		header.Filename, data, passphrase, c.PostForm("aad"), folder)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file_id":     rec.ID,
		"name":        rec.OriginalName,
		"sha256":      rec.SHA256,
		"cid":         nullable(rec.CID),
		"gateway_url": h.gatewayURL(rec.CID),
	})
}

// Download decrypts a file with the passphrase from the key query parameter
// or the X-File-Key header and streams the plaintext back. inline=1 skips
// the attachment disposition.
func (h *FileHandlers) Download(c *gin.Context) {
	passphrase := c.Query("key")
	if passphrase == "" {
		passphrase = c.GetHeader("X-File-Key")
	}
	if passphrase == "" {
		writeBadRequest(c, "key required (query ?key= or X-File-Key header)")
		return
	}

	auth := authFrom(c)
	name, data, err := h.fileService.Download(c.Request.Context(), auth.Address, c.Param("id"), passphrase)
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("inline") != "1" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// List returns the caller's files. Query parameters: limit, after (created-at
// cursor), q (name substring), folder.
func (h *FileHandlers) List(c *gin.Context) {
	opts := service.ListOptions{
		Query:  c.Query("q"),
		Folder: c.Query("folder"),
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(c, "limit must be int")
			return
		}
		opts.Limit = n
	}
	if v := c.Query("after"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeBadRequest(c, "after must be int timestamp")
			return
		}
		opts.After = n
	}

	auth := authFrom(c)
	page, err := h.fileService.List(c.Request.Context(), auth.Address, opts)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]gin.H, 0, len(page.Items))
	for _, rec := range page.Items {
		items = append(items, h.fileJSON(rec))
	}
	var nextAfter any
	if len(page.Items) > 0 {
		nextAfter = page.NextAfter
	}
	c.JSON(http.StatusOK, gin.H{
		"items":      items,
		"next_after": nextAfter,
		"has_more":   page.HasMore,
	})
}

// Folders returns the caller's distinct folder labels.
func (h *FileHandlers) Folders(c *gin.Context) {
	auth := authFrom(c)
	folders, err := h.fileService.Folders(c.Request.Context(), auth.Address)
	if err != nil {
		writeError(c, err)
		return
	}
	if folders == nil {
		folders = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

// Update renames a file or moves it to another folder. Owner only; the
// encrypted blob is untouched.
func (h *FileHandlers) Update(c *gin.Context) {
	var req struct {
		Name   *string `json:"name"`
		Folder *string `json:"folder"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "invalid request body")
		return
	}
	if req.Name != nil && (strings.TrimSpace(*req.Name) == "" || len(*req.Name) > maxNameLen) {
		writeBadRequest(c, "name must be a non-empty string")
		return
	}
	if req.Folder != nil && len(*req.Folder) > maxFolderLen {
		writeBadRequest(c, "folder name too long")
		return
	}

	auth := authFrom(c)
	fileID := c.Param("id")
	if req.Name == nil && req.Folder == nil {
		c.JSON(http.StatusOK, gin.H{"updated": false, "file_id": fileID})
		return
	}

	rec, err := h.fileService.Update(c.Request.Context(), auth.Address, fileID, req.Name, req.Folder)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"updated": true,
		"file_id": rec.ID,
		"name":    rec.OriginalName,
		"folder":  nullable(rec.Folder),
	})
}

// Delete removes a file, its encrypted blob, and all shares pointing at it.
func (h *FileHandlers) Delete(c *gin.Context) {
	auth := authFrom(c)
	fileID := c.Param("id")
	if err := h.fileService.Delete(c.Request.Context(), auth.Address, fileID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "file_id": fileID})
}

// Verify reports whether the encrypted blob backing a file is present.
func (h *FileHandlers) Verify(c *gin.Context) {
	auth := authFrom(c)
	status, err := h.fileService.Verify(c.Request.Context(), auth.Address, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"file_id":            status.FileID,
		"has_encrypted_blob": status.HasEncryptedBlob,
		"cid":                nullable(status.CID),
		"sha256":             status.SHA256,
	})
}

func (h *FileHandlers) fileJSON(rec *core.FileRecord) gin.H {
	return gin.H{
		"file_id":     rec.ID,
		"name":        rec.OriginalName,
		"size":        rec.Size,
		"created_at":  rec.CreatedAt,
		"aad":         nullable(rec.AAD),
		"sha256":      rec.SHA256,
		"cid":         nullable(rec.CID),
		"gateway_url": h.gatewayURL(rec.CID),
		"folder":      nullable(rec.Folder),
	}
}

func (h *FileHandlers) gatewayURL(cid string) any {
	if cid == "" {
		return nil
	}
	if url := h.pinner.GatewayURL(cid); url != "" {
		return url
	}
	return nil
}

// nullable renders the empty string as JSON null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
