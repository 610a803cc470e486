package core

// ShareRecord grants one recipient read access to one file. Uniquely keyed by
// (FileID, Owner, Recipient): re-sharing the same triple updates the existing
// record in place. Expiry is a read-time predicate, never a stored state
// transition; expired records stay in storage until explicitly revoked.
type ShareRecord struct {
	ID                string
	FileID            string
	Owner             Address
	Recipient         Address
	WrappedPassphrase string // file passphrase, RSA-OAEP wrapped for the recipient, base64
	Note              string
	ExpiresAt         *int64 // unix milliseconds, nil means no expiry
	CreatedAt         int64  // unix milliseconds, preserved across upserts
	UpdatedAt         int64  // unix milliseconds, zero until the first update

	// File metadata denormalized at share time so recipients can list basic
	// details without owner-gated file lookups.
	FileName string
	FileSize int64
	SHA256   string
	CID      string
}

// Expired reports whether the share is past its expiry at the given instant
// (unix milliseconds). Shares without an expiry never expire.
func (s *ShareRecord) Expired(nowMS int64) bool {
	return s.ExpiresAt != nil && nowMS > *s.ExpiresAt
}
