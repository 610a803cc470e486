package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/blockvault/blockvault/adapters/blob"
	"github.com/blockvault/blockvault/core"
	"github.com/blockvault/blockvault/ports"
)

// FileService handles encrypted file upload, download, listing, and
// deletion. Plaintext only ever exists in request-scoped scratch files; the
// cipher gateway call is synchronous and holds no locks while it runs.
type FileService struct {
	files  ports.FileStore
	shares ports.ShareStore
	blobs  *blob.FileStore
	cipher ports.CipherGateway
	pinner ports.Pinner
	events ports.EventPublisher
	access *ShareService
	log    *slog.Logger
}

// NewFileService creates a new file service. access provides the read
// decision gating downloads.
func NewFileService(
	files ports.FileStore,
	shares ports.ShareStore,
	blobs *blob.FileStore,
	cipher ports.CipherGateway,
	pinner ports.Pinner,
	events ports.EventPublisher,
	access *ShareService,
	log *slog.Logger,
) *FileService {
	return &FileService{
		files:  files,
		shares: shares,
		blobs:  blobs,
		cipher: cipher,
		pinner: pinner,
		events: events,
		access: access,
		log:    log,
	}
}

// cleanFileName validates a display name before it is stored. Names carrying
// path separators or dot segments are rejected outright; a stored name must
// never be usable as anything but a single path element.
func cleanFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "", core.ErrInvalidFileName
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", core.ErrInvalidFileName
	}
	return name, nil
}

// Upload encrypts the payload under the caller's passphrase and stores the
// blob plus metadata. Pinning and anchoring are best-effort side calls.
func (s *FileService) Upload(ctx context.Context, owner core.Address, name string, data []byte, passphrase, aad, folder string) (*core.FileRecord, error) {
	name, err := cleanFileName(name)
	if err != nil {
		return nil, err
	}

	plainPath := s.blobs.TempPath()
	if err := os.WriteFile(plainPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	defer os.Remove(plainPath)

	encName := s.blobs.NewBlobName()
	encPath := s.blobs.Path(encName)
	if err := s.cipher.Encrypt(ctx, plainPath, encPath, passphrase, aad); err != nil {
		return nil, fmt.Errorf("encryption failed: %w", err)
	}

	digest := sha256.Sum256(data)

	cid, err := s.pinner.Add(ctx, encPath)
	if err != nil {
		s.log.Debug("pinning skipped", slog.Any("err", err))
		cid = ""
	}

	rec := &core.FileRecord{
		ID:           uuid.New().String(),
		Owner:        owner,
		OriginalName: name,
		EncBlobName:  encName,
		Size:         int64(len(data)),
		SHA256:       hex.EncodeToString(digest[:]),
		AAD:          aad,
		CID:          cid,
		Folder:       folder,
		CreatedAt:    time.Now().UnixMilli(),
	}
	if err := s.files.PutFile(ctx, rec); err != nil {
		// Metadata write failed: do not leave an orphaned blob behind.
		_ = s.blobs.Remove(encName)
		return nil, fmt.Errorf("failed to store file record: %w", err)
	}

	ev := ports.FileAnchoredEvent{
		FileID: rec.ID,
		Owner:  rec.Owner,
		SHA256: rec.SHA256,
		Size:   rec.Size,
		CID:    rec.CID,
	}
	if err := s.events.PublishFileAnchored(ctx, ev); err != nil {
		s.log.Warn("failed to publish anchor event", slog.String("file_id", rec.ID), slog.Any("err", err))
	}

	s.log.Info("file uploaded",
		slog.String("file_id", rec.ID),
		slog.String("owner", rec.Owner.String()),
		slog.Int64("size", rec.Size))
	return rec, nil
}

// Download runs the access decision, then decrypts the blob with the
// supplied passphrase. If the local blob is gone and a content ID exists,
// retrieval from content-addressed storage is attempted first.
func (s *FileService) Download(ctx context.Context, requester core.Address, fileID, passphrase string) (string, []byte, error) {
	rec, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return "", nil, err
	}

	// The access decision runs before any key material is touched.
	if err := s.access.CanRead(ctx, requester, rec); err != nil {
		return "", nil, err
	}

	encPath := s.blobs.Path(rec.EncBlobName)
	if !s.blobs.Exists(rec.EncBlobName) {
		if rec.CID == "" {
			return "", nil, core.ErrBlobMissing
		}
		if err := s.pinner.Fetch(ctx, rec.CID, encPath); err != nil {
			s.log.Warn("replica fetch failed", slog.String("file_id", rec.ID), slog.Any("err", err))
			return "", nil, core.ErrBlobMissing
		}
	}

	outPath := s.blobs.TempPath()
	defer os.Remove(outPath)
	if err := s.cipher.Decrypt(ctx, encPath, outPath, passphrase, rec.AAD); err != nil {
		return "", nil, err
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read decrypted file: %w", err)
	}
	return rec.OriginalName, data, nil
}

// ListOptions narrows an owner's file listing.
type ListOptions struct {
	Limit  int    // page size, clamped to [1, 100]
	After  int64  // created-at cursor (unix ms), exclusive
	Query  string // case-insensitive substring match on the name
	Folder string // exact folder label match
}

// FilePage is one page of an owner's files.
type FilePage struct {
	Items     []*core.FileRecord
	NextAfter int64
	HasMore   bool
}

// List returns the owner's files ordered by creation time with cursor
// pagination.
func (s *FileService) List(ctx context.Context, owner core.Address, opts ListOptions) (*FilePage, error) {
	limit := opts.Limit
	if limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	recs, err := s.files.ListFilesByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(opts.Query)
	filtered := make([]*core.FileRecord, 0, len(recs))
	for _, rec := range recs {
		if opts.After > 0 && rec.CreatedAt <= opts.After {
			continue
		}
		if opts.Folder != "" && rec.Folder != opts.Folder {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(rec.OriginalName), query) {
			continue
		}
		filtered = append(filtered, rec)
	}

	page := &FilePage{}
	if len(filtered) > limit {
		page.HasMore = true
		filtered = filtered[:limit]
	}
	page.Items = filtered
	if len(filtered) > 0 {
		page.NextAfter = filtered[len(filtered)-1].CreatedAt
	}
	return page, nil
}

// Folders returns the owner's distinct folder labels, sorted.
func (s *FileService) Folders(ctx context.Context, owner core.Address) ([]string, error) {
	recs, err := s.files.ListFilesByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var folders []string
	for _, rec := range recs {
		if rec.Folder == "" {
			continue
		}
		if _, ok := seen[rec.Folder]; ok {
			continue
		}
		seen[rec.Folder] = struct{}{}
		folders = append(folders, rec.Folder)
	}
	sort.Slice(folders, func(i, j int) bool {
		return strings.ToLower(folders[i]) < strings.ToLower(folders[j])
	})
	return folders, nil
}

// Update changes mutable metadata (name, folder). Owner only; the encrypted
// blob is untouched.
func (s *FileService) Update(ctx context.Context, owner core.Address, fileID string, newName, newFolder *string) (*core.FileRecord, error) {
	rec, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if rec.Owner != owner {
		return nil, fmt.Errorf("only the file owner can update: %w", core.ErrPermissionDenied)
	}

	changed := false
	if newName != nil && strings.TrimSpace(*newName) != "" {
		cleaned, err := cleanFileName(*newName)
		if err != nil {
			return nil, err
		}
		rec.OriginalName = cleaned
		changed = true
	}
	if newFolder != nil {
		rec.Folder = strings.TrimSpace(*newFolder)
		changed = true
	}
	if !changed {
		return rec, nil
	}

	if err := s.files.PutFile(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to update file record: %w", err)
	}
	return rec, nil
}

// Delete removes the record, the encrypted blob, any shares pointing at the
// file, and (best-effort) the content-addressed replica. Ownership is
// checked with a not-found answer for non-owners, matching lookups that
// never reveal other owners' files.
func (s *FileService) Delete(ctx context.Context, owner core.Address, fileID string) error {
	rec, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if rec.Owner != owner {
		return core.ErrFileNotFound
	}

	if err := s.blobs.Remove(rec.EncBlobName); err != nil && !errors.Is(err, core.ErrBlobMissing) {
		s.log.Warn("failed to remove blob", slog.String("file_id", rec.ID), slog.Any("err", err))
	}
	if rec.CID != "" {
		if err := s.pinner.Unpin(ctx, rec.CID); err != nil {
			s.log.Debug("unpin skipped", slog.String("cid", rec.CID), slog.Any("err", err))
		}
	}

	if err := s.files.DeleteFile(ctx, fileID); err != nil {
		return err
	}
	if err := s.shares.DeleteSharesByFile(ctx, fileID); err != nil {
		s.log.Warn("failed to drop file shares", slog.String("file_id", fileID), slog.Any("err", err))
	}

	s.log.Info("file deleted", slog.String("file_id", fileID), slog.String("owner", owner.String()))
	return nil
}

// BlobStatus is the owner-facing integrity report for one file.
type BlobStatus struct {
	FileID           string
	HasEncryptedBlob bool
	SHA256           string
	CID              string
}

// Verify reports whether the encrypted blob is locally present.
func (s *FileService) Verify(ctx context.Context, owner core.Address, fileID string) (*BlobStatus, error) {
	rec, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if rec.Owner != owner {
		return nil, core.ErrFileNotFound
	}
	return &BlobStatus{
		FileID:           rec.ID,
		HasEncryptedBlob: s.blobs.Exists(rec.EncBlobName),
		SHA256:           rec.SHA256,
		CID:              rec.CID,
	}, nil
}
