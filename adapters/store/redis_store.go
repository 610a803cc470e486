package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blockvault/blockvault/core"
)

// RedisStore is a Redis implementation of all four store interfaces. Records
// are stored as JSON strings; shares and files carry secondary index sets so
// lookups by owner, recipient, and file stay single round-trips.
type RedisStore struct {
	client *redis.Client
	prefix string

	// nonceRetention bounds how long a consumed-or-abandoned nonce key lives.
	// It is deliberately longer than the nonce TTL: expiry is still reported
	// at read time (core.ErrNonceExpired), Redis only garbage-collects keys
	// no reader will ever distinguish from absent.
	nonceRetention time.Duration
}

// NewRedisStore creates a Redis store. nonceTTL is the challenge TTL the
// service enforces at read time.
func NewRedisStore(client *redis.Client, nonceTTL time.Duration) *RedisStore {
	return &RedisStore{
		client:         client,
		prefix:         "blockvault:",
		nonceRetention: 2 * nonceTTL,
	}
}

func (s *RedisStore) nonceKey(address core.Address) string {
	return s.prefix + "nonce:" + address.String()
}

func (s *RedisStore) userKey(address core.Address) string {
	return s.prefix + "user:" + address.String()
}

func (s *RedisStore) fileKey(id string) string {
	return s.prefix + "file:" + id
}

func (s *RedisStore) fileOwnerKey(owner core.Address) string {
	return s.prefix + "file_owner:" + owner.String()
}

func (s *RedisStore) shareKey(id string) string {
	return s.prefix + "share:" + id
}

func (s *RedisStore) shareTripleKey(fileID string, owner, recipient core.Address) string {
	return fmt.Sprintf("%sshare_triple:%s:%s:%s", s.prefix, fileID, owner, recipient)
}

func (s *RedisStore) shareOwnerKey(owner core.Address) string {
	return s.prefix + "share_owner:" + owner.String()
}

func (s *RedisStore) shareRecipientKey(recipient core.Address) string {
	return s.prefix + "share_recipient:" + recipient.String()
}

func (s *RedisStore) shareFileKey(fileID string) string {
	return s.prefix + "share_file:" + fileID
}

// UpsertNonce replaces any prior nonce for the record's address.
func (s *RedisStore) UpsertNonce(ctx context.Context, rec *core.NonceRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal nonce record: %w", err)
	}
	if err := s.client.Set(ctx, s.nonceKey(rec.Address), payload, s.nonceRetention).Err(); err != nil {
		return fmt.Errorf("failed to store nonce: %w", err)
	}
	return nil
}

// GetNonce returns the live nonce record for the address.
func (s *RedisStore) GetNonce(ctx context.Context, address core.Address) (*core.NonceRecord, error) {
	payload, err := s.client.Get(ctx, s.nonceKey(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrNonceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}
	var rec core.NonceRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nonce record: %w", err)
	}
	return &rec, nil
}

// DeleteNonce removes the nonce record for the address.
func (s *RedisStore) DeleteNonce(ctx context.Context, address core.Address) error {
	if err := s.client.Del(ctx, s.nonceKey(address)).Err(); err != nil {
		return fmt.Errorf("failed to delete nonce: %w", err)
	}
	return nil
}

// GetUser returns the user record, or (nil, nil) for an unknown address.
func (s *RedisStore) GetUser(ctx context.Context, address core.Address) (*core.UserRecord, error) {
	payload, err := s.client.Get(ctx, s.userKey(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	var rec core.UserRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user record: %w", err)
	}
	return &rec, nil
}

// PutUser upserts the user record keyed by address.
func (s *RedisStore) PutUser(ctx context.Context, rec *core.UserRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal user record: %w", err)
	}
	if err := s.client.Set(ctx, s.userKey(rec.Address), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}

// PutFile upserts the file record and its owner index entry.
func (s *RedisStore) PutFile(ctx context.Context, rec *core.FileRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal file record: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.fileKey(rec.ID), payload, 0)
		pipe.SAdd(ctx, s.fileOwnerKey(rec.Owner), rec.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store file: %w", err)
	}
	return nil
}

// GetFile returns the file record for the ID.
func (s *RedisStore) GetFile(ctx context.Context, id string) (*core.FileRecord, error) {
	payload, err := s.client.Get(ctx, s.fileKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file: %w", err)
	}
	var rec core.FileRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal file record: %w", err)
	}
	return &rec, nil
}

// ListFilesByOwner returns the owner's file records ordered by CreatedAt.
func (s *RedisStore) ListFilesByOwner(ctx context.Context, owner core.Address) ([]*core.FileRecord, error) {
	ids, err := s.client.SMembers(ctx, s.fileOwnerKey(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	out := make([]*core.FileRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetFile(ctx, id)
		if errors.Is(err, core.ErrFileNotFound) {
			continue // index member outlived the record
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

// DeleteFile removes the file record and its owner index entry.
func (s *RedisStore) DeleteFile(ctx context.Context, id string) error {
	rec, err := s.GetFile(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.fileKey(id))
		pipe.SRem(ctx, s.fileOwnerKey(rec.Owner), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// PutShare upserts the share record, its triple key, and its index entries.
func (s *RedisStore) PutShare(ctx context.Context, rec *core.ShareRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal share record: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.shareKey(rec.ID), payload, 0)
		pipe.Set(ctx, s.shareTripleKey(rec.FileID, rec.Owner, rec.Recipient), rec.ID, 0)
		pipe.SAdd(ctx, s.shareOwnerKey(rec.Owner), rec.ID)
		pipe.SAdd(ctx, s.shareRecipientKey(rec.Recipient), rec.ID)
		pipe.SAdd(ctx, s.shareFileKey(rec.FileID), rec.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store share: %w", err)
	}
	return nil
}

// GetShare returns the share record for the ID.
func (s *RedisStore) GetShare(ctx context.Context, id string) (*core.ShareRecord, error) {
	payload, err := s.client.Get(ctx, s.shareKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch share: %w", err)
	}
	var rec core.ShareRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal share record: %w", err)
	}
	return &rec, nil
}

// GetShareByTriple returns the share for (fileID, owner, recipient).
func (s *RedisStore) GetShareByTriple(ctx context.Context, fileID string, owner, recipient core.Address) (*core.ShareRecord, error) {
	id, err := s.client.Get(ctx, s.shareTripleKey(fileID, owner, recipient)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve share triple: %w", err)
	}
	return s.GetShare(ctx, id)
}

// GetShareByFileAndRecipient returns any share granting recipient access to
// the file.
func (s *RedisStore) GetShareByFileAndRecipient(ctx context.Context, fileID string, recipient core.Address) (*core.ShareRecord, error) {
	ids, err := s.client.SInter(ctx, s.shareFileKey(fileID), s.shareRecipientKey(recipient)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to intersect share indexes: %w", err)
	}
	if len(ids) == 0 {
		return nil, core.ErrShareNotFound
	}
	return s.GetShare(ctx, ids[0])
}

func (s *RedisStore) listShares(ctx context.Context, indexKey string) ([]*core.ShareRecord, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	out := make([]*core.ShareRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetShare(ctx, id)
		if errors.Is(err, core.ErrShareNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

// ListSharesByRecipient returns all shares naming the recipient.
func (s *RedisStore) ListSharesByRecipient(ctx context.Context, recipient core.Address) ([]*core.ShareRecord, error) {
	return s.listShares(ctx, s.shareRecipientKey(recipient))
}

// ListSharesByOwner returns all shares created by the owner.
func (s *RedisStore) ListSharesByOwner(ctx context.Context, owner core.Address) ([]*core.ShareRecord, error) {
	return s.listShares(ctx, s.shareOwnerKey(owner))
}

// DeleteShare removes the share record, its triple key, and index entries.
func (s *RedisStore) DeleteShare(ctx context.Context, id string) error {
	rec, err := s.GetShare(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.shareKey(id))
		pipe.Del(ctx, s.shareTripleKey(rec.FileID, rec.Owner, rec.Recipient))
		pipe.SRem(ctx, s.shareOwnerKey(rec.Owner), id)
		pipe.SRem(ctx, s.shareRecipientKey(rec.Recipient), id)
		pipe.SRem(ctx, s.shareFileKey(rec.FileID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete share: %w", err)
	}
	return nil
}

// DeleteSharesByFile removes every share pointing at the file.
func (s *RedisStore) DeleteSharesByFile(ctx context.Context, fileID string) error {
	ids, err := s.client.SMembers(ctx, s.shareFileKey(fileID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list file shares: %w", err)
	}
	for _, id := range ids {
		if err := s.DeleteShare(ctx, id); err != nil && !errors.Is(err, core.ErrShareNotFound) {
			return err
		}
	}
	if err := s.client.Del(ctx, s.shareFileKey(fileID)).Err(); err != nil {
		return fmt.Errorf("failed to drop file share index: %w", err)
	}
	return nil
}
