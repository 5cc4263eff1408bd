package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_RoundTrip(t *testing.T) {
	signer, err := NewSigner([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	sig, err := signer.Sign("sess-1", "deadbeef")
	require.NoError(t, err)
	assert.True(t, signer.Verify("sess-1", "deadbeef", sig))
}

func TestSigner_SessionsGetDistinctKeys(t *testing.T) {
	signer, err := NewSigner([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	sigA, err := signer.Sign("sess-a", "deadbeef")
	require.NoError(t, err)
	sigB, err := signer.Sign("sess-b", "deadbeef")
	require.NoError(t, err)

	assert.NotEqual(t, sigA, sigB)
	assert.False(t, signer.Verify("sess-b", "deadbeef", sigA))
}

func TestSigner_RejectsTamperedHash(t *testing.T) {
	signer, err := NewSigner([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	sig, err := signer.Sign("sess-1", "deadbeef")
	require.NoError(t, err)
	assert.False(t, signer.Verify("sess-1", "deadbeee", sig))
}

func TestNewSigner_RejectsShortSecret(t *testing.T) {
	_, err := NewSigner([]byte("short"))
	require.Error(t, err)
}
