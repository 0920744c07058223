package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumenworks/authkit/internal/token"
)

func TestRandomHex(t *testing.T) {
	first := token.RandomHex(20)
	require.Len(t, first, 40)

	second := token.RandomHex(20)
	require.NotEqual(t, first, second)

	// Non-positive lengths fall back to the default entropy.
	require.Len(t, token.RandomHex(0), token.DefaultBytes*2)
}

func TestSignerRoundTrip(t *testing.T) {
	signer := token.NewSigner([]byte("test-secret"), time.Hour)

	tok, err := signer.Sign(42)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	userID, err := signer.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, int64(42), userID)
}

func TestSignerRejectsExpired(t *testing.T) {
	signer := token.NewSigner([]byte("test-secret"), -time.Minute)

	tok, err := signer.Sign(42)
	require.NoError(t, err)

	_, err = signer.Verify(tok)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestSignerRejectsTampered(t *testing.T) {
	signer := token.NewSigner([]byte("test-secret"), time.Hour)

	tok, err := signer.Sign(42)
	require.NoError(t, err)

	_, err = signer.Verify(tok + "x")
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestSignerRejectsWrongSecret(t *testing.T) {
	signer := token.NewSigner([]byte("test-secret"), time.Hour)
	other := token.NewSigner([]byte("another-secret"), time.Hour)

	tok, err := signer.Sign(42)
	require.NoError(t, err)

	_, err = other.Verify(tok)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestSignerRejectsGarbage(t *testing.T) {
	signer := token.NewSigner([]byte("test-secret"), time.Hour)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := signer.Verify(tok)
		require.ErrorIs(t, err, token.ErrInvalidToken)
	}
}
