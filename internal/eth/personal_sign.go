// Package eth implements the chain's personal-message signing scheme:
// EIP-191 prefixing, keccak-256 hashing, and secp256k1 address recovery.
package eth

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/blockvault/blockvault/core"
)

const signatureLength = 65

// PersonalMessageHash returns the keccak-256 digest of the EIP-191
// personal-message envelope: "\x19Ethereum Signed Message:\n" + len + msg.
// This matches what wallets hash for personal_sign requests.
func PersonalMessageHash(msg []byte) common.Hash {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	return crypto.Keccak256Hash([]byte(prefixed))
}

// RecoverAddress recovers the signing address from a personal-message
// signature. Wallets emit 65-byte signatures with V in {27, 28}; the raw
// {0, 1} form is accepted as well. Malformed signatures fail with
// core.ErrInvalidSignature.
func RecoverAddress(msg, sig []byte) (core.Address, error) {
	if len(sig) != signatureLength {
		return "", fmt.Errorf("signature must be %d bytes, got %d: %w", signatureLength, len(sig), core.ErrInvalidSignature)
	}

	// SigToPub expects the recovery id in the last byte as 0/1.
	normalized := make([]byte, signatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	if normalized[64] > 1 {
		return "", fmt.Errorf("invalid recovery id %d: %w", sig[64], core.ErrInvalidSignature)
	}

	hash := PersonalMessageHash(msg)
	pub, err := crypto.SigToPub(hash.Bytes(), normalized)
	if err != nil {
		return "", fmt.Errorf("failed to recover public key: %w", core.ErrInvalidSignature)
	}

	recovered := crypto.PubkeyToAddress(*pub)
	return core.ParseAddress(recovered.Hex())
}

// SignPersonalMessage signs msg the way a wallet would: EIP-191 envelope,
// keccak-256, secp256k1, V offset to 27. Used by clients and tests.
func SignPersonalMessage(msg []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	hash := PersonalMessageHash(msg)
	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	sig[64] += 27
	return sig, nil
}
