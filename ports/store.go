package ports

import (
	"context"

	"github.com/blockvault/blockvault/core"
)

// NonceStore persists one-time login challenges. UpsertNonce must be atomic
// per address: concurrent issues for the same address resolve
// last-writer-wins, and only the surviving nonce can authenticate.
type NonceStore interface {
	// UpsertNonce replaces any prior nonce for the record's address.
	UpsertNonce(ctx context.Context, rec *core.NonceRecord) error

	// GetNonce returns the live record for the address, or
	// core.ErrNonceNotFound. Expiry is the caller's read-time concern.
	GetNonce(ctx context.Context, address core.Address) (*core.NonceRecord, error)

	// DeleteNonce removes the record. Deleting an absent record is not an
	// error.
	DeleteNonce(ctx context.Context, address core.Address) error
}

// UserStore persists per-address account state and sharing public keys.
type UserStore interface {
	// GetUser returns the user record; an unknown address yields (nil, nil).
	GetUser(ctx context.Context, address core.Address) (*core.UserRecord, error)

	// PutUser upserts the record keyed by address.
	PutUser(ctx context.Context, rec *core.UserRecord) error
}

// FileStore persists file metadata records keyed by ID.
type FileStore interface {
	PutFile(ctx context.Context, rec *core.FileRecord) error

	// GetFile returns the record, or core.ErrFileNotFound.
	GetFile(ctx context.Context, id string) (*core.FileRecord, error)

	// ListFilesByOwner returns the owner's records ordered by CreatedAt
	// ascending.
	ListFilesByOwner(ctx context.Context, owner core.Address) ([]*core.FileRecord, error)

	// DeleteFile removes the record, or returns core.ErrFileNotFound.
	DeleteFile(ctx context.Context, id string) error
}

// ShareStore persists share records. Each mutation targets a single record
// by key; no cross-record transactions are required.
type ShareStore interface {
	// PutShare upserts the record keyed by ID. The (FileID, Owner, Recipient)
	// triple stays unique because the service resolves the triple to an
	// existing ID before writing.
	PutShare(ctx context.Context, rec *core.ShareRecord) error

	// GetShare returns the record, or core.ErrShareNotFound.
	GetShare(ctx context.Context, id string) (*core.ShareRecord, error)

	// GetShareByTriple returns the record for (fileID, owner, recipient), or
	// core.ErrShareNotFound.
	GetShareByTriple(ctx context.Context, fileID string, owner, recipient core.Address) (*core.ShareRecord, error)

	// GetShareByFileAndRecipient returns any record granting recipient access
	// to the file regardless of owner, or core.ErrShareNotFound.
	GetShareByFileAndRecipient(ctx context.Context, fileID string, recipient core.Address) (*core.ShareRecord, error)

	// ListSharesByRecipient returns all records naming the recipient, expired
	// ones included; expiry filtering happens at read time in the service.
	ListSharesByRecipient(ctx context.Context, recipient core.Address) ([]*core.ShareRecord, error)

	// ListSharesByOwner returns all records created by the owner.
	ListSharesByOwner(ctx context.Context, owner core.Address) ([]*core.ShareRecord, error)

	// DeleteShare removes the record, or returns core.ErrShareNotFound.
	DeleteShare(ctx context.Context, id string) error

	// DeleteSharesByFile removes every share pointing at the file.
	DeleteSharesByFile(ctx context.Context, fileID string) error
}

// Store aggregates the four record stores an adapter typically implements
// together.
type Store interface {
	NonceStore
	UserStore
	FileStore
	ShareStore
}
