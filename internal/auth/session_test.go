package auth

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	s, err := NewSigner()
	require.NoError(t, err)

	pid := uuid.New()
	tok, err := s.CreateSessionToken(pid, "QWERTY")
	require.NoError(t, err)

	claims, err := s.ParseSessionToken(tok)
	require.NoError(t, err)
	assert.Equal(t, pid, claims.PlayerID)
	assert.Equal(t, "QWERTY", claims.RoomCode)

	tok2, err := s.CreateSessionToken(pid, "QWERTY")
	require.NoError(t, err)
	assert.NotEqual(t, tok, tok2)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	a, err := NewSigner()
	require.NoError(t, err)
	b, err := NewSigner()
	require.NoError(t, err)

	tok, err := a.CreateSessionToken(uuid.New(), "ROOM01")
	require.NoError(t, err)

	_, err = b.ParseSessionToken(tok)
	assert.Error(t, err)
	_, err = a.ParseSessionToken("not-a-token")
	assert.Error(t, err)
}

func TestLoadSigner(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "session.key")
	require.NoError(t, os.WriteFile(path, priv, 0o600))

	s, err := LoadSigner(path)
	require.NoError(t, err)
	tok, err := s.CreateSessionToken(uuid.New(), "AAAAAA")
	require.NoError(t, err)
	_, err = s.ParseSessionToken(tok)
	assert.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("short"), 0o600))
	_, err = LoadSigner(path)
	assert.Error(t, err)
}
