// Package keywrap re-wraps a file's symmetric passphrase for one recipient's
// public key. The scheme is fixed for interoperability with existing wrapped
// payloads: RSA-OAEP with SHA-256 digest, SHA-256 MGF1, and an empty label,
// ciphertext encoded as standard base64.
package keywrap

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"

	"github.com/blockvault/blockvault/core"
)

// ParsePublicKey decodes a PEM-encoded SubjectPublicKeyInfo block and
// requires an RSA key, since only RSA supports the OAEP wrap.
func ParsePublicKey(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found: %w", core.ErrInvalidPublicKey)
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", core.ErrInvalidPublicKey)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key: %w", core.ErrInvalidPublicKey)
	}
	return rsaPub, nil
}

// ValidatePublicKeyPEM reports whether pemStr can later serve as a wrap
// target. The key registry calls this before storing a key.
func ValidatePublicKeyPEM(pemStr string) error {
	_, err := ParsePublicKey(pemStr)
	return err
}

// Wrap encrypts the passphrase for the holder of the private key matching
// pemStr. The wrapped value is opaque to the server.
func Wrap(pemStr string, passphrase []byte) (string, error) {
	pub, err := ParsePublicKey(pemStr)
	if err != nil {
		return "", err
	}
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, passphrase, nil)
	if err != nil {
		return "", fmt.Errorf("failed to wrap passphrase: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Unwrap recovers a passphrase wrapped with Wrap. The server never calls
// this; it exists for recipients and for round-trip tests.
func Unwrap(priv *rsa.PrivateKey, wrapped string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	passphrase, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap passphrase: %w", err)
	}
	return passphrase, nil
}

// EncodePublicKeyPEM renders an RSA public key as the PEM form accepted by
// the key registry. Client-side helper.
func EncodePublicKeyPEM(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}
