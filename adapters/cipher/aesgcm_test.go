package cipher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockvault/blockvault/core"
)

func writeTemp(t *testing.T, dir string, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	g := NewAESGCMGateway()
	ctx := context.Background()

	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	plainPath := writeTemp(t, dir, "plain.txt", plaintext)
	encPath := filepath.Join(dir, "enc.bin")
	outPath := filepath.Join(dir, "out.txt")

	require.NoError(t, g.Encrypt(ctx, plainPath, encPath, "passphrase", "aad-value"))

	enc, err := os.ReadFile(encPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("BVENC001"), enc[:8])
	assert.Greater(t, len(enc), 8+16+12, "container carries salt, nonce, and tag")
	assert.NotContains(t, string(enc), string(plaintext))

	require.NoError(t, g.Decrypt(ctx, encPath, outPath, "passphrase", "aad-value"))
	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestDecrypt_WrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	g := NewAESGCMGateway()
	ctx := context.Background()

	plainPath := writeTemp(t, dir, "plain.txt", []byte("data"))
	encPath := filepath.Join(dir, "enc.bin")
	require.NoError(t, g.Encrypt(ctx, plainPath, encPath, "right", ""))

	err := g.Decrypt(ctx, encPath, filepath.Join(dir, "out.txt"), "wrong", "")
	assert.ErrorIs(t, err, core.ErrDecryptionFailed)
}

func TestDecrypt_AADMismatch(t *testing.T) {
	dir := t.TempDir()
	g := NewAESGCMGateway()
	ctx := context.Background()

	plainPath := writeTemp(t, dir, "plain.txt", []byte("data"))
	encPath := filepath.Join(dir, "enc.bin")
	require.NoError(t, g.Encrypt(ctx, plainPath, encPath, "passphrase", "bound-context"))

	err := g.Decrypt(ctx, encPath, filepath.Join(dir, "out.txt"), "passphrase", "other-context")
	assert.ErrorIs(t, err, core.ErrDecryptionFailed)
}

func TestDecrypt_MalformedContainer(t *testing.T) {
	dir := t.TempDir()
	g := NewAESGCMGateway()
	ctx := context.Background()

	for name, data := range map[string][]byte{
		"empty":      {},
		"short":      []byte("BVENC001 too short"),
		"bad magic":  append([]byte("NOTMAGIC"), make([]byte, 64)...),
		"no payload": []byte("BVENC001"),
	} {
		encPath := writeTemp(t, dir, "bad.bin", data)
		err := g.Decrypt(ctx, encPath, filepath.Join(dir, "out.txt"), "passphrase", "")
		assert.ErrorIs(t, err, core.ErrDecryptionFailed, "case %q", name)
	}
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	dir := t.TempDir()
	g := NewAESGCMGateway()
	ctx := context.Background()

	plainPath := writeTemp(t, dir, "plain.txt", []byte("integrity matters"))
	encPath := filepath.Join(dir, "enc.bin")
	require.NoError(t, g.Encrypt(ctx, plainPath, encPath, "passphrase", ""))

	enc, err := os.ReadFile(encPath)
	require.NoError(t, err)
	enc[len(enc)-1] ^= 0xff
	require.NoError(t, os.WriteFile(encPath, enc, 0o600))

	err = g.Decrypt(ctx, encPath, filepath.Join(dir, "out.txt"), "passphrase", "")
	assert.ErrorIs(t, err, core.ErrDecryptionFailed)
}
