package core

// FileRecord describes one uploaded encrypted artifact. The plaintext never
// touches durable storage: only the encrypted blob (EncBlobName under the
// blob directory) and metadata are kept. Owned exclusively by Owner.
type FileRecord struct {
	ID           string
	Owner        Address
	OriginalName string
	EncBlobName  string
	Size         int64  // plaintext size in bytes
	SHA256       string // hex digest of the plaintext
	AAD          string // associated data bound to the ciphertext, optional
	CID          string // content identifier of the pinned blob, optional
	Folder       string // owner-chosen label, optional
	CreatedAt    int64  // unix milliseconds
}
