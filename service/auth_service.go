package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/blockvault/blockvault/core"
	"github.com/blockvault/blockvault/internal/eth"
	"github.com/blockvault/blockvault/ports"
)

// DefaultNonceTTL is how long an issued login challenge stays usable.
const DefaultNonceTTL = 5 * time.Minute

// NonceChallenge is what the client receives from a nonce request: the
// canonical address, the raw nonce, and the exact message text to sign.
type NonceChallenge struct {
	Address core.Address
	Nonce   string
	Message string
}

// AuthService implements the challenge-response login protocol: nonce
// issuance, signature verification, and minting of the bearer credential
// that gates every other endpoint.
type AuthService struct {
	nonces    ports.NonceStore
	users     ports.UserStore
	tokenizer ports.Tokenizer
	log       *slog.Logger

	appName  string
	nonceTTL time.Duration
	admins   map[core.Address]struct{}
}

// NewAuthService creates a new authentication service. adminAddrs widens the
// role attached to those addresses to admin; it may be empty.
func NewAuthService(
	nonces ports.NonceStore,
	users ports.UserStore,
	tokenizer ports.Tokenizer,
	appName string,
	adminAddrs []core.Address,
	log *slog.Logger,
) *AuthService {
	admins := make(map[core.Address]struct{}, len(adminAddrs))
	for _, a := range adminAddrs {
		admins[a] = struct{}{}
	}
	return &AuthService{
		nonces:    nonces,
		users:     users,
		tokenizer: tokenizer,
		log:       log,
		appName:   appName,
		nonceTTL:  DefaultNonceTTL,
		admins:    admins,
	}
}

// CreateNonce issues a fresh one-time challenge for the address, replacing
// and thereby invalidating any prior one.
func (s *AuthService) CreateNonce(ctx context.Context, addressStr string) (*NonceChallenge, error) {
	address, err := core.ParseAddress(addressStr)
	if err != nil {
		return nil, err
	}

	nonceBytes := make([]byte, 16)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)

	rec := &core.NonceRecord{
		Address:   address,
		Nonce:     nonce,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.nonces.UpsertNonce(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to store nonce: %w", err)
	}

	return &NonceChallenge{
		Address: address,
		Nonce:   nonce,
		Message: core.ChallengeMessage(s.appName, nonce),
	}, nil
}

// Login verifies a signature over the outstanding challenge, consumes the
// nonce, and mints a bearer token. The nonce is deleted only after the
// signature checks out, so a failed attempt can be retried with the same
// challenge until it expires.
func (s *AuthService) Login(ctx context.Context, addressStr, signatureStr string) (string, core.Address, error) {
	address, err := core.ParseAddress(addressStr)
	if err != nil {
		return "", "", err
	}

	rec, err := s.nonces.GetNonce(ctx, address)
	if err != nil {
		return "", "", err
	}
	if time.Now().Unix()-rec.CreatedAt > int64(s.nonceTTL.Seconds()) {
		return "", "", core.ErrNonceExpired
	}

	message := core.ChallengeMessage(s.appName, rec.Nonce)

	sig, err := hexutil.Decode(signatureStr)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}

	recovered, err := eth.RecoverAddress([]byte(message), sig)
	if err != nil {
		return "", "", err
	}
	if recovered != address {
		return "", "", core.ErrSignatureMismatch
	}

	// Consume the nonce; a replay of the same signature now fails NotFound.
	if err := s.nonces.DeleteNonce(ctx, address); err != nil {
		return "", "", fmt.Errorf("failed to consume nonce: %w", err)
	}

	if err := s.ensureUser(ctx, address); err != nil {
		return "", "", err
	}

	token, err := s.tokenizer.Mint(address, time.Now())
	if err != nil {
		return "", "", fmt.Errorf("failed to mint token: %w", err)
	}

	s.log.Info("login succeeded", slog.String("address", address.String()))
	return token, address, nil
}

// ValidateToken checks a bearer token and returns the authenticated context.
// This is the sole gate in front of every protected operation.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (core.AuthContext, error) {
	address, err := s.tokenizer.Validate(token)
	if err != nil {
		return core.AuthContext{}, err
	}
	return core.AuthContext{Address: address, Role: s.roleFor(address)}, nil
}

func (s *AuthService) roleFor(address core.Address) core.Role {
	if _, ok := s.admins[address]; ok {
		return core.RoleAdmin
	}
	return core.RoleOwner
}

// ensureUser creates the account record on first login; CreatedAt is set
// once and never touched again.
func (s *AuthService) ensureUser(ctx context.Context, address core.Address) error {
	user, err := s.users.GetUser(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user != nil {
		return nil
	}
	user = &core.UserRecord{
		Address:   address,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := s.users.PutUser(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}
