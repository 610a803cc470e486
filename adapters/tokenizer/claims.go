package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the bearer credential claims: the registered sub/iat/exp
// triple, nothing more. The subject is the authenticated address.
type SessionClaims struct {
	jwt.RegisteredClaims
}
