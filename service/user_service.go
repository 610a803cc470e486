package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blockvault/blockvault/core"
	"github.com/blockvault/blockvault/internal/keywrap"
	"github.com/blockvault/blockvault/ports"
)

// UserService is the key registry: it manages each user's PEM-encoded
// sharing public key.
type UserService struct {
	users ports.UserStore
	log   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(users ports.UserStore, log *slog.Logger) *UserService {
	return &UserService{users: users, log: log}
}

// GetUser returns the account record, or nil for an address that never
// logged in.
func (s *UserService) GetUser(ctx context.Context, address core.Address) (*core.UserRecord, error) {
	return s.users.GetUser(ctx, address)
}

// SetPublicKey validates and stores the sharing public key for the address,
// replacing any previous one. Returns the update timestamp (unix ms).
func (s *UserService) SetPublicKey(ctx context.Context, address core.Address, pemStr string) (int64, error) {
	if err := keywrap.ValidatePublicKeyPEM(pemStr); err != nil {
		return 0, err
	}

	user, err := s.users.GetUser(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		user = &core.UserRecord{Address: address, CreatedAt: time.Now().UnixMilli()}
	}

	now := time.Now().UnixMilli()
	user.PublicKeyPEM = pemStr
	user.KeyUpdatedAt = now

	if err := s.users.PutUser(ctx, user); err != nil {
		return 0, fmt.Errorf("failed to store public key: %w", err)
	}

	s.log.Info("sharing key registered", slog.String("address", address.String()))
	return now, nil
}

// DeletePublicKey removes the registered sharing key. Fails with
// core.ErrKeyNotFound when none is set.
func (s *UserService) DeletePublicKey(ctx context.Context, address core.Address) error {
	user, err := s.users.GetUser(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.HasPublicKey() {
		return core.ErrKeyNotFound
	}

	user.PublicKeyPEM = ""
	if err := s.users.PutUser(ctx, user); err != nil {
		return fmt.Errorf("failed to remove public key: %w", err)
	}
	return nil
}
