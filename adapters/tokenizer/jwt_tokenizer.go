package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/blockvault/blockvault/core"
	"github.com/blockvault/blockvault/ports"
)

// DefaultExpiry is the session window used when none is configured.
const DefaultExpiry = 60 * time.Minute

// JWTTokenizer implements the Tokenizer interface with HMAC-SHA256 signed
// JWTs and a server-held secret.
type JWTTokenizer struct {
	secret []byte
	expiry time.Duration
}

// NewJWTTokenizer creates a tokenizer signing with the given secret. A
// non-positive expiry falls back to DefaultExpiry.
func NewJWTTokenizer(secret []byte, expiry time.Duration) ports.Tokenizer {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &JWTTokenizer{secret: secret, expiry: expiry}
}

// Mint builds and signs a session token for the address.
func (t *JWTTokenizer) Mint(address core.Address, now time.Time) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Validate verifies the signature and expiry and returns the canonical
// subject address. Any defect other than expiry is a hard core.ErrInvalidToken.
func (t *JWTTokenizer) Validate(tokenStr string) (core.Address, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", core.ErrTokenExpired
		}
		return "", fmt.Errorf("failed to parse token: %w", core.ErrInvalidToken)
	}

	if !token.Valid {
		return "", core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.Subject == "" {
		return "", core.ErrInvalidToken
	}

	address, err := core.ParseAddress(claims.Subject)
	if err != nil {
		return "", core.ErrInvalidToken
	}

	return address, nil
}
