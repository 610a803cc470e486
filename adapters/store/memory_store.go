package store

import (
	"context"
	"sort"
	"sync"

	"github.com/blockvault/blockvault/core"
)

// MemoryStore is an in-memory implementation of all four store interfaces.
// Suitable for tests and single-process deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	nonces map[core.Address]core.NonceRecord
	users  map[core.Address]core.UserRecord
	files  map[string]core.FileRecord
	shares map[string]core.ShareRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nonces: make(map[core.Address]core.NonceRecord),
		users:  make(map[core.Address]core.UserRecord),
		files:  make(map[string]core.FileRecord),
		shares: make(map[string]core.ShareRecord),
	}
}

// UpsertNonce replaces any prior nonce for the address.
func (s *MemoryStore) UpsertNonce(ctx context.Context, rec *core.NonceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[rec.Address] = *rec
	return nil
}

// GetNonce returns the live nonce record for the address.
func (s *MemoryStore) GetNonce(ctx context.Context, address core.Address) (*core.NonceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.nonces[address]
	if !ok {
		return nil, core.ErrNonceNotFound
	}
	return &rec, nil
}

// DeleteNonce removes the nonce record for the address.
func (s *MemoryStore) DeleteNonce(ctx context.Context, address core.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nonces, address)
	return nil
}

// GetUser returns the user record, or (nil, nil) for an unknown address.
func (s *MemoryStore) GetUser(ctx context.Context, address core.Address) (*core.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[address]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// PutUser upserts the user record keyed by address.
func (s *MemoryStore) PutUser(ctx context.Context, rec *core.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[rec.Address] = *rec
	return nil
}

// PutFile upserts the file record keyed by ID.
func (s *MemoryStore) PutFile(ctx context.Context, rec *core.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[rec.ID] = *rec
	return nil
}

// GetFile returns the file record for the ID.
func (s *MemoryStore) GetFile(ctx context.Context, id string) (*core.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.files[id]
	if !ok {
		return nil, core.ErrFileNotFound
	}
	return &rec, nil
}

// ListFilesByOwner returns the owner's file records ordered by CreatedAt.
func (s *MemoryStore) ListFilesByOwner(ctx context.Context, owner core.Address) ([]*core.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.FileRecord
	for _, rec := range s.files {
		if rec.Owner == owner {
			r := rec
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

// DeleteFile removes the file record for the ID.
func (s *MemoryStore) DeleteFile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return core.ErrFileNotFound
	}
	delete(s.files, id)
	return nil
}

// PutShare upserts the share record keyed by ID.
func (s *MemoryStore) PutShare(ctx context.Context, rec *core.ShareRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shares[rec.ID] = *rec
	return nil
}

// GetShare returns the share record for the ID.
func (s *MemoryStore) GetShare(ctx context.Context, id string) (*core.ShareRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.shares[id]
	if !ok {
		return nil, core.ErrShareNotFound
	}
	return &rec, nil
}

// GetShareByTriple returns the share for (fileID, owner, recipient).
func (s *MemoryStore) GetShareByTriple(ctx context.Context, fileID string, owner, recipient core.Address) (*core.ShareRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.shares {
		if rec.FileID == fileID && rec.Owner == owner && rec.Recipient == recipient {
			r := rec
			return &r, nil
		}
	}
	return nil, core.ErrShareNotFound
}

// GetShareByFileAndRecipient returns any share granting recipient access to
// the file.
func (s *MemoryStore) GetShareByFileAndRecipient(ctx context.Context, fileID string, recipient core.Address) (*core.ShareRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.shares {
		if rec.FileID == fileID && rec.Recipient == recipient {
			r := rec
			return &r, nil
		}
	}
	return nil, core.ErrShareNotFound
}

// ListSharesByRecipient returns all shares naming the recipient.
func (s *MemoryStore) ListSharesByRecipient(ctx context.Context, recipient core.Address) ([]*core.ShareRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.ShareRecord
	for _, rec := range s.shares {
		if rec.Recipient == recipient {
			r := rec
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

// ListSharesByOwner returns all shares created by the owner.
func (s *MemoryStore) ListSharesByOwner(ctx context.Context, owner core.Address) ([]*core.ShareRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.ShareRecord
	for _, rec := range s.shares {
		if rec.Owner == owner {
			r := rec
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

// DeleteShare removes the share record for the ID.
func (s *MemoryStore) DeleteShare(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shares[id]; !ok {
		return core.ErrShareNotFound
	}
	delete(s.shares, id)
	return nil
}

// DeleteSharesByFile removes every share pointing at the file.
func (s *MemoryStore) DeleteSharesByFile(ctx context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.shares {
		if rec.FileID == fileID {
			delete(s.shares, id)
		}
	}
	return nil
}
