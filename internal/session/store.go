// internal/session/store.go
package session

import (
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// ErrSessionNotFound is returned for unknown or already evicted tokens.
var ErrSessionNotFound = errors.New("Session not found or expired")

// Session binds a reconnection token to a seat. A zero ExpiresAt means the
// player's connection is live; otherwise the seat is held until ExpiresAt.
type Session struct {
	Fingerprint string    `json:"fingerprint"`
	PlayerID    uuid.UUID `json:"playerId"`
	RoomCode    string    `json:"roomCode"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Active reports whether the session's connection is live.
func (s Session) Active() bool {
	return s.ExpiresAt.IsZero()
}

// Expired reports whether a session in its grace window has run out at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Registry is the process-wide session table.
type Registry interface {
	Put(token string, playerID uuid.UUID, roomCode string) Session
	Get(token string) (Session, bool)
	Remove(token string)
	RemovePlayer(playerID uuid.UUID)
	Disconnect(playerID uuid.UUID, expiresAt time.Time) bool
	Activate(token string) (Session, error)
	Sweep(now time.Time) []Session
}

// Fingerprint is the blake2b-256 digest of a token. The store never keeps raw
// tokens and logs only ever show fingerprints.
func Fingerprint(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Store is an in-memory Registry.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session  // fingerprint -> session
	byPlayer map[uuid.UUID]string // playerID -> fingerprint
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		byPlayer: make(map[uuid.UUID]string),
	}
}

// Put registers an active session. A player holds at most one session; an
// older one is replaced.
func (s *Store) Put(token string, playerID uuid.UUID, roomCode string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byPlayer[playerID]; ok {
		delete(s.sessions, old)
	}
	fp := Fingerprint(token)
	sess := &Session{Fingerprint: fp, PlayerID: playerID, RoomCode: roomCode}
	s.sessions[fp] = sess
	s.byPlayer[playerID] = fp
	return *sess
}

// Get looks a session up by token.
func (s *Store) Get(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[Fingerprint(token)]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Remove deletes the session for token, if any.
func (s *Store) Remove(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeUnsafe(Fingerprint(token))
}

// RemovePlayer deletes the session held by playerID, if any. Used on explicit leave.
func (s *Store) RemovePlayer(playerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fp, ok := s.byPlayer[playerID]; ok {
		s.removeUnsafe(fp)
	}
}

func (s *Store) removeUnsafe(fp string) {
	sess, ok := s.sessions[fp]
	if !ok {
		return
	}
	delete(s.sessions, fp)
	if s.byPlayer[sess.PlayerID] == fp {
		delete(s.byPlayer, sess.PlayerID)
	}
}

// Disconnect starts the grace window for playerID's session. It reports false
// when the player has no session.
func (s *Store) Disconnect(playerID uuid.UUID, expiresAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	fp, ok := s.byPlayer[playerID]
	if !ok {
		return false
	}
	s.sessions[fp].ExpiresAt = expiresAt
	return true
}

// Activate clears the grace window of token's session and returns it.
func (s *Store) Activate(token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[Fingerprint(token)]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	sess.ExpiresAt = time.Time{}
	return *sess, nil
}

// Sweep evicts and returns every session whose grace window has passed.
func (s *Store) Sweep(now time.Time) []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []Session
	for fp, sess := range s.sessions {
		if sess.Expired(now) {
			expired = append(expired, *sess)
			s.removeUnsafe(fp)
		}
	}
	return expired
}

// Len returns the number of live and grace sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
