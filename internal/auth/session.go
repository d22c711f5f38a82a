// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Signer issues and verifies session tokens. Tokens are EdDSA-signed JWTs and
// stay opaque to clients; expiry is owned by the session registry, not the token.
type Signer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// SessionClaims identify the seat a token was issued for.
type SessionClaims struct {
	PlayerID uuid.UUID
	RoomCode string
}

// NewSigner generates a fresh ed25519 key pair. Tokens do not survive a restart,
// which matches rooms not surviving one.
func NewSigner() (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &Signer{privateKey: priv, publicKey: pub}, nil
}

// LoadSigner reads a raw 64-byte ed25519 private key from path.
func LoadSigner(path string) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	if len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key file %s: want %d bytes, got %d", path, ed25519.PrivateKeySize, len(data))
	}
	priv := ed25519.PrivateKey(data)
	return &Signer{privateKey: priv, publicKey: priv.Public().(ed25519.PublicKey)}, nil
}

// CreateSessionToken signs a token for playerID in roomCode. Every call yields a distinct token.
func (s *Signer) CreateSessionToken(playerID uuid.UUID, roomCode string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  playerID.String(),
		"room": roomCode,
		"jti":  uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.privateKey)
}

// ParseSessionToken verifies the signature and returns the embedded claims.
func (s *Signer) ParseSessionToken(tokenString string) (SessionClaims, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.publicKey, nil
	})
	if err != nil {
		return SessionClaims{}, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return SessionClaims{}, fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return SessionClaims{}, fmt.Errorf("invalid jwt claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return SessionClaims{}, fmt.Errorf("missing sub in jwt")
	}
	playerID, err := uuid.Parse(sub)
	if err != nil {
		return SessionClaims{}, fmt.Errorf("malformed sub in jwt: %w", err)
	}
	room, _ := claims["room"].(string)
	return SessionClaims{PlayerID: playerID, RoomCode: room}, nil
}
