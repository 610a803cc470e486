package http

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockvault/blockvault/adapters/blob"
	"github.com/blockvault/blockvault/adapters/cipher"
	"github.com/blockvault/blockvault/adapters/events"
	"github.com/blockvault/blockvault/adapters/pin"
	"github.com/blockvault/blockvault/adapters/store"
	"github.com/blockvault/blockvault/adapters/tokenizer"
	"github.com/blockvault/blockvault/core"
	"github.com/blockvault/blockvault/internal/eth"
	"github.com/blockvault/blockvault/internal/keywrap"
	"github.com/blockvault/blockvault/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	blobs, err := blob.NewFileStore(t.TempDir())
	require.NoError(t, err)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tok := tokenizer.NewJWTTokenizer([]byte("test-secret"), time.Hour)
	authSvc := service.NewAuthService(st, st, tok, "BlockVault", nil, log)
	userSvc := service.NewUserService(st, log)
	shareSvc := service.NewShareService(st, st, st, events.NopPublisher{}, log)
	fileSvc := service.NewFileService(st, st, blobs, cipher.NewAESGCMGateway(),
		pin.NoopPinner{}, events.NopPublisher{}, shareSvc, log)

	return SetupRouter(Services{Auth: authSvc, Users: userSvc, Files: fileSvc, Share: shareSvc, Pinner: pin.NoopPinner{}})
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type testWallet struct {
	key     *ecdsa.PrivateKey
	address string
}

func newTestWallet(t *testing.T) *testWallet {
	t.Helper()
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	return &testWallet{
		key:     key,
		address: strings.ToLower(ethcrypto.PubkeyToAddress(key.PublicKey).Hex()),
	}
}

// login runs the whole challenge-response flow and returns a bearer token.
func (tw *testWallet) login(t *testing.T, router *gin.Engine) string {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/auth/get_nonce", "", gin.H{"address": tw.address})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	message := decodeBody(t, w)["message"].(string)

	sig, err := eth.SignPersonalMessage([]byte(message), tw.key)
	require.NoError(t, err)

	w = doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
		"address":   tw.address,
		"signature": hexutil.Encode(sig),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeBody(t, w)["token"].(string)
}

func uploadFile(t *testing.T, router *gin.Engine, token, name, passphrase string, data []byte) string {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("key", passphrase))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeBody(t, w)["file_id"].(string)
}

func TestLivez(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/livez", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthFlow(t *testing.T) {
	router := newTestRouter(t)
	wallet := newTestWallet(t)

	token := wallet.login(t, router)

	w := doJSON(t, router, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, wallet.address, body["address"])
	assert.Equal(t, "owner", body["role"])
	assert.Equal(t, float64(core.RoleOwner), body["role_value"])
}

func TestAuth_Rejections(t *testing.T) {
	router := newTestRouter(t)
	wallet := newTestWallet(t)

	// Protected routes without a token.
	w := doJSON(t, router, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(t, router, http.MethodGet, "/files", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Login without an outstanding challenge.
	sig, err := eth.SignPersonalMessage([]byte("whatever"), wallet.key)
	require.NoError(t, err)
	w = doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
		"address":   wallet.address,
		"signature": hexutil.Encode(sig),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "nonce_not_found", decodeBody(t, w)["error"])

	// Signature by the wrong key.
	intruder := newTestWallet(t)
	w = doJSON(t, router, http.MethodPost, "/auth/get_nonce", "", gin.H{"address": wallet.address})
	require.Equal(t, http.StatusOK, w.Code)
	message := decodeBody(t, w)["message"].(string)
	sig, err = eth.SignPersonalMessage([]byte(message), intruder.key)
	require.NoError(t, err)
	w = doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
		"address":   wallet.address,
		"signature": hexutil.Encode(sig),
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_signature", decodeBody(t, w)["error"])

	// Undecodable signature bytes are a bad request, not an auth failure.
	w = doJSON(t, router, http.MethodPost, "/auth/get_nonce", "", gin.H{"address": wallet.address})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
		"address":   wallet.address,
		"signature": "0xdeadbeef",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_signature", decodeBody(t, w)["error"])
}

func TestFileSharingFlow(t *testing.T) {
	router := newTestRouter(t)
	ownerWallet := newTestWallet(t)
	recipientWallet := newTestWallet(t)

	ownerToken := ownerWallet.login(t, router)
	recipientToken := recipientWallet.login(t, router)

	// Recipient registers a sharing key.
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemStr, err := keywrap.EncodePublicKeyPEM(&priv.PublicKey)
	require.NoError(t, err)
	w := doJSON(t, router, http.MethodPost, "/users/public_key", recipientToken, gin.H{"public_key_pem": pemStr})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Owner uploads and shares.
	payload := []byte("shared secret document")
	fileID := uploadFile(t, router, ownerToken, "doc.txt", "file-pass", payload)

	w = doJSON(t, router, http.MethodPost, "/files/"+fileID+"/share", ownerToken, gin.H{
		"recipient":  recipientWallet.address,
		"passphrase": "file-pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decodeBody(t, w)
	assert.NotEmpty(t, created["encrypted_key"], "create response echoes the wrapped key")
	shareID := created["share_id"].(string)

	// The outgoing listing withholds the wrapped key.
	w = doJSON(t, router, http.MethodGet, "/files/shares/outgoing", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	outgoing := decodeBody(t, w)["shares"].([]any)
	require.Len(t, outgoing, 1)
	assert.Nil(t, outgoing[0].(map[string]any)["encrypted_key"])

	// Recipient sees the share, wrapped key included, and unwraps it.
	w = doJSON(t, router, http.MethodGet, "/files/shared", recipientToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	shares := decodeBody(t, w)["shares"].([]any)
	require.Len(t, shares, 1)
	wrapped := shares[0].(map[string]any)["encrypted_key"].(string)
	passphrase, err := keywrap.Unwrap(priv, wrapped)
	require.NoError(t, err)
	assert.Equal(t, []byte("file-pass"), passphrase)

	// Recipient downloads with the recovered passphrase.
	req := httptest.NewRequest(http.MethodGet, "/files/"+fileID, nil)
	req.Header.Set("Authorization", "Bearer "+recipientToken)
	req.Header.Set("X-File-Key", string(passphrase))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, payload, rec.Body.Bytes())

	// After revocation the file is invisible to the recipient.
	w = doJSON(t, router, http.MethodDelete, "/files/shares/"+shareID, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodGet, "/files/"+fileID+"?key=file-pass", recipientToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeBody(t, w)["error"])
}

func TestShareExpiryIsNotFoundShaped(t *testing.T) {
	router := newTestRouter(t)
	ownerWallet := newTestWallet(t)
	recipientWallet := newTestWallet(t)

	ownerToken := ownerWallet.login(t, router)
	recipientToken := recipientWallet.login(t, router)

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemStr, err := keywrap.EncodePublicKeyPEM(&priv.PublicKey)
	require.NoError(t, err)
	w := doJSON(t, router, http.MethodPost, "/users/public_key", recipientToken, gin.H{"public_key_pem": pemStr})
	require.Equal(t, http.StatusOK, w.Code)

	fileID := uploadFile(t, router, ownerToken, "doc.txt", "file-pass", []byte("data"))

	past := time.Now().Add(-time.Minute).UnixMilli()
	w = doJSON(t, router, http.MethodPost, "/files/"+fileID+"/share", ownerToken, gin.H{
		"recipient":  recipientWallet.address,
		"passphrase": "file-pass",
		"expires_at": past,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// The expired grant downloads exactly like no grant at all.
	w = doJSON(t, router, http.MethodGet, "/files/"+fileID+"?key=file-pass", recipientToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "not_found", body["error"])
	assert.Equal(t, "Not found", body["message"])
}

func TestFileCRUD(t *testing.T) {
	router := newTestRouter(t)
	wallet := newTestWallet(t)
	token := wallet.login(t, router)

	fileID := uploadFile(t, router, token, "notes.txt", "pass", []byte("notes"))

	w := doJSON(t, router, http.MethodGet, "/files", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	listing := decodeBody(t, w)
	require.Len(t, listing["items"].([]any), 1)
	assert.Equal(t, false, listing["has_more"])

	// Renames carrying path segments never reach storage.
	w = doJSON(t, router, http.MethodPatch, "/files/"+fileID, token, gin.H{"name": "../../../victim.txt"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_file_name", decodeBody(t, w)["error"])

	w = doJSON(t, router, http.MethodPatch, "/files/"+fileID, token, gin.H{"name": "renamed.txt", "folder": "work"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeBody(t, w)
	assert.Equal(t, true, updated["updated"])
	assert.Equal(t, "renamed.txt", updated["name"])
	assert.Equal(t, "work", updated["folder"])

	w = doJSON(t, router, http.MethodGet, "/files/folders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"work"}, decodeBody(t, w)["folders"])

	w = doJSON(t, router, http.MethodGet, "/files/"+fileID+"/verify", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["has_encrypted_blob"])

	w = doJSON(t, router, http.MethodDelete, "/files/"+fileID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodGet, "/files/"+fileID+"?key=pass", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfile(t *testing.T) {
	router := newTestRouter(t)
	wallet := newTestWallet(t)
	token := wallet.login(t, router)

	w := doJSON(t, router, http.MethodGet, "/users/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, wallet.address, body["address"])
	assert.Equal(t, false, body["has_public_key"])

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemStr, err := keywrap.EncodePublicKeyPEM(&priv.PublicKey)
	require.NoError(t, err)
	w = doJSON(t, router, http.MethodPost, "/users/public_key", token, gin.H{"public_key_pem": pemStr})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])

	w = doJSON(t, router, http.MethodGet, "/users/profile?with_key=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, true, body["has_public_key"])
	assert.Equal(t, pemStr, body["public_key_pem"])
}
