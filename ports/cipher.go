package ports

import "context"

// CipherGateway is the boundary to the symmetric file cipher. The core only
// depends on this call contract: paths in, paths out, opaque failure. An
// implementation may be an in-process library, a sidecar process, or an FFI
// call. AAD supplied at encryption time must be supplied identically at
// decryption time. Implementations must never log the passphrase.
type CipherGateway interface {
	Encrypt(ctx context.Context, plainPath, encPath, passphrase, aad string) error

	// Decrypt fails with core.ErrDecryptionFailed for both wrong-key and
	// corrupted input; the cipher container does not expose the distinction.
	Decrypt(ctx context.Context, encPath, outPath, passphrase, aad string) error
}
