package core

// UserRecord holds per-address account state. The sharing public key is the
// PEM-encoded key other users wrap file passphrases with; an empty value
// means no key is registered and blocks incoming shares.
type UserRecord struct {
	Address      Address
	PublicKeyPEM string
	KeyUpdatedAt int64 // unix milliseconds, zero if no key was ever set
	CreatedAt    int64 // unix milliseconds, set once on first login
}

// HasPublicKey reports whether a sharing key is currently registered.
func (u *UserRecord) HasPublicKey() bool {
	return u != nil && u.PublicKeyPEM != ""
}
