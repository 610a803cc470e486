package tokenizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockvault/blockvault/core"
)

const testAddress = core.Address("0xab5801a7d398351b8be11c439e05c5b3259aec9b")

func TestMintValidateRoundTrip(t *testing.T) {
	tok := NewJWTTokenizer([]byte("test-secret"), time.Hour)

	token, err := tok.Mint(testAddress, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := tok.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, testAddress, got)
}

func TestValidate_Expired(t *testing.T) {
	tok := NewJWTTokenizer([]byte("test-secret"), time.Minute)

	token, err := tok.Mint(testAddress, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = tok.Validate(token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestValidate_WrongSecret(t *testing.T) {
	minter := NewJWTTokenizer([]byte("right"), time.Hour)
	checker := NewJWTTokenizer([]byte("wrong"), time.Hour)

	token, err := minter.Mint(testAddress, time.Now())
	require.NoError(t, err)

	_, err = checker.Validate(token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestValidate_Garbage(t *testing.T) {
	tok := NewJWTTokenizer([]byte("test-secret"), time.Hour)

	for _, in := range []string{"", "not.a.jwt", "a.b.c"} {
		_, err := tok.Validate(in)
		assert.ErrorIs(t, err, core.ErrInvalidToken, "input %q", in)
	}
}

func TestNewJWTTokenizer_DefaultExpiry(t *testing.T) {
	tok := NewJWTTokenizer([]byte("test-secret"), 0)

	// A zero window falls back to the default, so a fresh token validates.
	token, err := tok.Mint(testAddress, time.Now())
	require.NoError(t, err)
	_, err = tok.Validate(token)
	assert.NoError(t, err)
}
