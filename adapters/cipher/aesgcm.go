// Package cipher provides the in-process implementation of the cipher
// gateway contract: AES-256-GCM over whole files, with the key derived from
// a passphrase via PBKDF2-HMAC-SHA256.
//
// The on-disk container is fixed for compatibility with existing blobs:
//
//	magic "BVENC001" (8 bytes) | salt (16) | nonce (12) | ciphertext+tag
package cipher

import (
	"bytes"
	"context"
	"crypto/aes"
	gocipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"

	"github.com/blockvault/blockvault/core"
	"github.com/blockvault/blockvault/ports"
)

var magic = []byte("BVENC001")

const (
	saltLen     = 16
	nonceLen    = 12
	keyLen      = 32
	pbkdf2Iters = 120_000
)

// AESGCMGateway implements ports.CipherGateway in process.
type AESGCMGateway struct{}

// NewAESGCMGateway creates the in-process cipher gateway.
func NewAESGCMGateway() ports.CipherGateway {
	return &AESGCMGateway{}
}

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iters, keyLen, sha256.New)
}

func newAEAD(passphrase string, salt []byte) (gocipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}
	return gocipher.NewGCM(block)
}

// Encrypt seals the file at plainPath into the container format at encPath.
// The AAD, when non-empty, is bound to the ciphertext and must be presented
// again on decryption.
func (g *AESGCMGateway) Encrypt(ctx context.Context, plainPath, encPath, passphrase, aad string) error {
	plaintext, err := os.ReadFile(plainPath)
	if err != nil {
		return fmt.Errorf("failed to read plaintext: %w", err)
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return fmt.Errorf("failed to initialize cipher: %w", err)
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, []byte(aad))

	out := make([]byte, 0, len(magic)+saltLen+nonceLen+len(ciphertext))
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)

	if err := os.WriteFile(encPath, out, 0o600); err != nil {
		return fmt.Errorf("failed to write ciphertext: %w", err)
	}
	return nil
}

// Decrypt opens the container at encPath and writes the plaintext to
// outPath. Wrong passphrase, wrong AAD, and corruption are all reported as
// core.ErrDecryptionFailed.
func (g *AESGCMGateway) Decrypt(ctx context.Context, encPath, outPath, passphrase, aad string) error {
	data, err := os.ReadFile(encPath)
	if err != nil {
		return fmt.Errorf("failed to read ciphertext: %w", err)
	}

	header := len(magic) + saltLen + nonceLen
	if len(data) < header || !bytes.Equal(data[:len(magic)], magic) {
		return fmt.Errorf("malformed container: %w", core.ErrDecryptionFailed)
	}
	salt := data[len(magic) : len(magic)+saltLen]
	nonce := data[len(magic)+saltLen : header]
	ciphertext := data[header:]

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return fmt.Errorf("failed to initialize cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(aad))
	if err != nil {
		return core.ErrDecryptionFailed
	}

	if err := os.WriteFile(outPath, plaintext, 0o600); err != nil {
		return fmt.Errorf("failed to write plaintext: %w", err)
	}
	return nil
}
