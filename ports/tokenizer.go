package ports

import (
	"time"

	"github.com/blockvault/blockvault/core"
)

// Tokenizer mints and validates the stateless bearer credential. Validity is
// solely a function of the signature and the exp claim; there is no
// server-side session record to revoke.
type Tokenizer interface {
	// Mint builds a token carrying {sub: address, iat: now, exp: now+window}.
	Mint(address core.Address, now time.Time) (string, error)

	// Validate verifies signature and expiry and returns the canonical
	// subject address. Expired tokens fail with core.ErrTokenExpired; any
	// other defect fails with core.ErrInvalidToken.
	Validate(token string) (core.Address, error)
}
