package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/blockvault/blockvault/core"
	"github.com/blockvault/blockvault/internal/keywrap"
	"github.com/blockvault/blockvault/ports"
)

// ShareService manages per-(file, recipient) access grants: it wraps file
// passphrases for recipients, upserts share records, evaluates expiry at
// read time, and answers access decisions.
type ShareService struct {
	shares ports.ShareStore
	files  ports.FileStore
	users  ports.UserStore
	events ports.EventPublisher
	log    *slog.Logger
}

// NewShareService creates a new share service.
func NewShareService(
	shares ports.ShareStore,
	files ports.FileStore,
	users ports.UserStore,
	events ports.EventPublisher,
	log *slog.Logger,
) *ShareService {
	return &ShareService{
		shares: shares,
		files:  files,
		users:  users,
		events: events,
		log:    log,
	}
}

// CreateOrUpdate grants the recipient access to the file, wrapping the
// passphrase with the recipient's registered public key. The operation is an
// idempotent upsert on the (file, owner, recipient) triple: an existing
// share keeps its ID and CreatedAt while the wrapped passphrase, note, and
// expiry are refreshed.
func (s *ShareService) CreateOrUpdate(
	ctx context.Context,
	owner core.Address,
	fileID string,
	recipientStr string,
	passphrase string,
	note string,
	expiresAt *int64,
) (*core.ShareRecord, error) {
	file, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.Owner != owner {
		return nil, fmt.Errorf("only the file owner can share: %w", core.ErrPermissionDenied)
	}

	recipient, err := core.ParseAddress(recipientStr)
	if err != nil {
		return nil, err
	}
	if recipient == owner {
		return nil, core.ErrSelfShareDenied
	}

	recipientUser, err := s.users.GetUser(ctx, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}
	if !recipientUser.HasPublicKey() {
		return nil, core.ErrRecipientKeyMissing
	}

	wrapped, err := keywrap.Wrap(recipientUser.PublicKeyPEM, []byte(passphrase))
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	rec, err := s.shares.GetShareByTriple(ctx, file.ID, owner, recipient)
	switch {
	case err == nil:
		rec.WrappedPassphrase = wrapped
		rec.Note = note
		rec.ExpiresAt = expiresAt
		rec.UpdatedAt = now
	case errors.Is(err, core.ErrShareNotFound):
		rec = &core.ShareRecord{
			ID:                uuid.New().String(),
			FileID:            file.ID,
			Owner:             owner,
			Recipient:         recipient,
			WrappedPassphrase: wrapped,
			Note:              note,
			ExpiresAt:         expiresAt,
			CreatedAt:         now,
		}
	default:
		return nil, err
	}

	rec.FileName = file.OriginalName
	rec.FileSize = file.Size
	rec.SHA256 = file.SHA256
	rec.CID = file.CID

	if err := s.shares.PutShare(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store share: %w", err)
	}

	s.notify(ctx, "share created", s.events.PublishShareCreated, rec)
	return rec, nil
}

// Revoke deletes a share. Permitted for the share's owner, its recipient,
// and admin actors; revoking an unknown ID reports core.ErrShareNotFound so
// callers can distinguish "already gone".
func (s *ShareService) Revoke(ctx context.Context, actor core.AuthContext, shareID string) error {
	rec, err := s.shares.GetShare(ctx, shareID)
	if err != nil {
		return err
	}

	if actor.Address != rec.Owner && actor.Address != rec.Recipient && actor.Role != core.RoleAdmin {
		return fmt.Errorf("not a share participant: %w", core.ErrPermissionDenied)
	}

	if err := s.shares.DeleteShare(ctx, shareID); err != nil {
		return err
	}

	s.notify(ctx, "share revoked", s.events.PublishShareRevoked, rec)
	return nil
}

// ListIncoming returns the recipient's unexpired shares, each refreshed with
// current file metadata so the recipient needs no owner-gated lookups.
func (s *ShareService) ListIncoming(ctx context.Context, recipient core.Address) ([]*core.ShareRecord, error) {
	recs, err := s.shares.ListSharesByRecipient(ctx, recipient)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	out := make([]*core.ShareRecord, 0, len(recs))
	for _, rec := range recs {
		if rec.Expired(now) {
			continue
		}
		s.refreshFileMetadata(ctx, rec)
		out = append(out, rec)
	}
	return out, nil
}

// ListOutgoing returns every share the owner has created, expired ones
// included. Stripping the wrapped passphrase is the transport's concern.
func (s *ShareService) ListOutgoing(ctx context.Context, owner core.Address) ([]*core.ShareRecord, error) {
	recs, err := s.shares.ListSharesByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		s.refreshFileMetadata(ctx, rec)
	}
	return recs, nil
}

// CanRead is the access decision for a file read: the owner always passes;
// anyone else needs an unexpired share. Absent and expired shares both
// surface as core.ErrFileNotFound-shaped denials upstream, but expiry is
// reported distinctly here so callers can keep it out of key material paths.
func (s *ShareService) CanRead(ctx context.Context, requester core.Address, file *core.FileRecord) error {
	if file.Owner == requester {
		return nil
	}

	rec, err := s.shares.GetShareByFileAndRecipient(ctx, file.ID, requester)
	if errors.Is(err, core.ErrShareNotFound) {
		return core.ErrFileNotFound
	}
	if err != nil {
		return err
	}

	if rec.Expired(time.Now().UnixMilli()) {
		return core.ErrShareExpired
	}
	return nil
}

func (s *ShareService) refreshFileMetadata(ctx context.Context, rec *core.ShareRecord) {
	file, err := s.files.GetFile(ctx, rec.FileID)
	if err != nil {
		return // file deleted since sharing; keep the cached copy
	}
	rec.FileName = file.OriginalName
	rec.FileSize = file.Size
	rec.SHA256 = file.SHA256
	rec.CID = file.CID
}

// notify publishes an audit event; failures are logged and swallowed so
// side calls never affect the core outcome.
func (s *ShareService) notify(ctx context.Context, what string, publish func(context.Context, ports.ShareEvent) error, rec *core.ShareRecord) {
	ev := ports.ShareEvent{
		ShareID:   rec.ID,
		FileID:    rec.FileID,
		Owner:     rec.Owner,
		Recipient: rec.Recipient,
	}
	if err := publish(ctx, ev); err != nil {
		s.log.Warn("failed to publish event",
			slog.String("event", what),
			slog.String("share_id", rec.ID),
			slog.Any("err", err))
	}
}
