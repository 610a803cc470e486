package ports

import (
	"context"

	"github.com/blockvault/blockvault/core"
)

// FileAnchoredEvent notarizes an upload: content hash, size, and optional
// content ID of the encrypted blob.
type FileAnchoredEvent struct {
	FileID string       `json:"file_id"`
	Owner  core.Address `json:"owner"`
	SHA256 string       `json:"sha256"`
	Size   int64        `json:"size"`
	CID    string       `json:"cid,omitempty"`
}

// ShareEvent records a share grant or revocation for audit consumers.
type ShareEvent struct {
	ShareID   string       `json:"share_id"`
	FileID    string       `json:"file_id"`
	Owner     core.Address `json:"owner"`
	Recipient core.Address `json:"recipient"`
}

// EventPublisher emits fire-and-forget notifications. Publish failures must
// never affect the outcome of the operation that triggered them; callers log
// and swallow errors.
type EventPublisher interface {
	PublishFileAnchored(ctx context.Context, ev FileAnchoredEvent) error
	PublishShareCreated(ctx context.Context, ev ShareEvent) error
	PublishShareRevoked(ctx context.Context, ev ShareEvent) error
}
