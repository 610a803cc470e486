package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blockvault/blockvault/core"
)

// writeError maps core sentinel errors to an HTTP status and a stable error
// code. This is the only place service errors become wire responses. An
// expired share answers with the same not-found shape as an absent one so
// callers cannot probe for revealing differences.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	msg := "Internal server error"

	switch {
	case errors.Is(err, core.ErrInvalidAddress):
		status, code, msg = http.StatusBadRequest, "invalid_address", "Invalid address"
	case errors.Is(err, core.ErrInvalidPublicKey):
		status, code, msg = http.StatusBadRequest, "invalid_public_key", "Invalid public key"
	case errors.Is(err, core.ErrInvalidFileName):
		status, code, msg = http.StatusBadRequest, "invalid_file_name", "Invalid file name"
	case errors.Is(err, core.ErrNonceNotFound):
		status, code, msg = http.StatusBadRequest, "nonce_not_found", "No active nonce for this address"
	case errors.Is(err, core.ErrNonceExpired):
		status, code, msg = http.StatusBadRequest, "nonce_expired", "Nonce expired, request a new one"
	// A malformed signature is a bad request; 401 is reserved for a
	// well-formed signature recovering the wrong address.
	case errors.Is(err, core.ErrInvalidSignature):
		status, code, msg = http.StatusBadRequest, "invalid_signature", "Invalid signature"
	case errors.Is(err, core.ErrSignatureMismatch):
		status, code, msg = http.StatusUnauthorized, "invalid_signature", "Signature does not match address"
	case errors.Is(err, core.ErrTokenExpired):
		status, code, msg = http.StatusUnauthorized, "token_expired", "Token expired"
	case errors.Is(err, core.ErrInvalidToken):
		status, code, msg = http.StatusUnauthorized, "invalid_token", "Invalid token"
	case errors.Is(err, core.ErrPermissionDenied):
		status, code, msg = http.StatusForbidden, "forbidden", "Permission denied"
	case errors.Is(err, core.ErrSelfShareDenied):
		status, code, msg = http.StatusBadRequest, "self_share", "Cannot share a file with yourself"
	case errors.Is(err, core.ErrRecipientKeyMissing):
		status, code, msg = http.StatusBadRequest, "recipient_key_missing", "Recipient has no public key registered"
	case errors.Is(err, core.ErrKeyNotFound):
		status, code, msg = http.StatusNotFound, "key_not_found", "No public key registered"
	case errors.Is(err, core.ErrFileNotFound),
		errors.Is(err, core.ErrShareNotFound),
		errors.Is(err, core.ErrShareExpired):
		status, code, msg = http.StatusNotFound, "not_found", "Not found"
	case errors.Is(err, core.ErrBlobMissing):
		status, code, msg = http.StatusGone, "blob_missing", "Encrypted data is no longer available"
	case errors.Is(err, core.ErrDecryptionFailed):
		status, code, msg = http.StatusBadRequest, "decryption_failed", "Decryption failed"
	}

	c.JSON(status, gin.H{"error": code, "message": msg})
}

func writeBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": msg})
}
