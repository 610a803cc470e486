package core

import "fmt"

// NonceRecord is a one-time login challenge bound to an address. A single
// live record exists per address; issuing a new nonce replaces the prior one.
type NonceRecord struct {
	Address   Address // canonical address the nonce was issued for
	Nonce     string  // random 128-bit value, hex encoded
	CreatedAt int64   // unix seconds
}

// ChallengeMessage is the exact text the wallet signs. The nonce is embedded
// verbatim; any change here breaks signature verification for in-flight
// challenges.
func ChallengeMessage(appName, nonce string) string {
	return fmt.Sprintf("%s login nonce: %s", appName, nonce)
}

// Role is the coarse access level attached to an authenticated request.
// Every authenticated address acts as an owner for its own files; admin is
// granted only through the configured allow-list and only widens share
// revocation.
type Role int

const (
	RoleViewer Role = 1
	RoleOwner  Role = 2
	RoleAdmin  Role = 3
)

func (r Role) String() string {
	switch r {
	case RoleViewer:
		return "viewer"
	case RoleOwner:
		return "owner"
	case RoleAdmin:
		return "admin"
	default:
		return "none"
	}
}

// AuthContext is the authenticated identity produced by token validation and
// threaded explicitly through handlers and services.
type AuthContext struct {
	Address Address
	Role    Role
}
