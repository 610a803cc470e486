package core

import "errors"

var (
	// Validation failures.
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrInvalidFileName  = errors.New("invalid file name")

	// Authentication failures.
	ErrNonceNotFound     = errors.New("nonce not found")
	ErrNonceExpired      = errors.New("nonce expired")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrSignatureMismatch = errors.New("signature does not match address")
	ErrTokenExpired      = errors.New("token has expired")
	ErrInvalidToken      = errors.New("invalid token")

	// Permission failures.
	ErrPermissionDenied = errors.New("permission denied")
	ErrSelfShareDenied  = errors.New("cannot share with yourself")

	// Missing resources.
	ErrFileNotFound  = errors.New("file not found")
	ErrShareNotFound = errors.New("share not found")
	ErrKeyNotFound   = errors.New("public key not set")

	// ErrShareExpired must surface with the same not-found shape as an absent
	// share, so an expired-share holder cannot probe for file existence.
	ErrShareExpired = errors.New("share expired")

	// ErrRecipientKeyMissing blocks share creation for recipients that never
	// registered a sharing public key.
	ErrRecipientKeyMissing = errors.New("recipient has not registered a sharing public key")

	// ErrDecryptionFailed covers both wrong-key and corrupted ciphertext; the
	// cipher gateway does not distinguish them.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrBlobMissing is returned when the encrypted blob is gone from local
	// storage and no replica could be fetched.
	ErrBlobMissing = errors.New("encrypted blob missing")
)
