// internal/room/room.go
package room

import (
	"crypto/rand"
	"errors"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xerekinha/pyramid/internal/game"
	"github.com/xerekinha/pyramid/internal/models"
)

const (
	CodeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxAttempts  = 32
)

var (
	ErrRoomNotFound  = errors.New("Room not found")
	ErrCodeExhausted = errors.New("could not allocate a unique room code")
)

// Room pairs a code with the game it hosts.
type Room struct {
	Code      string
	Game      *game.Game
	CreatedAt time.Time
}

// Registry is the process-wide room table plus the connection index.
type Registry interface {
	Create(newGame func(code string) *game.Game) (*Room, error)
	Get(code string) (*Room, error)
	Remove(code string)
	BindConn(connID uuid.UUID, code string)
	UnbindConn(connID uuid.UUID)
	CodeForConn(connID uuid.UUID) (string, bool)
	ConnsIn(code string) []uuid.UUID
	OpenLobbies() []models.LobbyInfo
	Rooms() []*Room
}

// Store is an in-memory Registry.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room
	conns map[uuid.UUID]string // connID -> room code
	now   func() time.Time
	code  func() (string, error)
}

var _ Registry = (*Store)(nil)

// NewStore returns an empty registry.
func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*Room),
		conns: make(map[uuid.UUID]string),
		now:   time.Now,
		code:  randomCode,
	}
}

// NormalizeCode upper-cases and trims a user-entered room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func randomCode() (string, error) {
	var sb strings.Builder
	limit := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// Create allocates a fresh code and stores the game built for it.
func (s *Store) Create(newGame func(code string) *game.Game) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < maxAttempts; i++ {
		code, err := s.code()
		if err != nil {
			return nil, err
		}
		if _, taken := s.rooms[code]; taken {
			continue
		}
		r := &Room{Code: code, Game: newGame(code), CreatedAt: s.now()}
		s.rooms[code] = r
		return r, nil
	}
	return nil, ErrCodeExhausted
}

// Get looks a room up by code, case-insensitively.
func (s *Store) Get(code string) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[NormalizeCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Remove deletes a room and every connection bound to it.
func (s *Store) Remove(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	for conn, c := range s.conns {
		if c == code {
			delete(s.conns, conn)
		}
	}
}

func (s *Store) BindConn(connID uuid.UUID, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[connID] = code
}

func (s *Store) UnbindConn(connID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, connID)
}

func (s *Store) CodeForConn(connID uuid.UUID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.conns[connID]
	return code, ok
}

// ConnsIn lists the connections joined to a room.
func (s *Store) ConnsIn(code string) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for conn, c := range s.conns {
		if c == code {
			out = append(out, conn)
		}
	}
	return out
}

// Rooms returns every room, oldest first.
func (s *Store) Rooms() []*Room {
	s.mu.Lock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code < out[j].Code
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// OpenLobbies lists the rooms that are still in the lobby and have a free seat.
func (s *Store) OpenLobbies() []models.LobbyInfo {
	out := []models.LobbyInfo{}
	for _, r := range s.Rooms() {
		if info, ok := r.Game.LobbyInfo(); ok {
			out = append(out, info)
		}
	}
	return out
}
