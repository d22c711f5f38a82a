package room

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xerekinha/pyramid/internal/game"
	"github.com/xerekinha/pyramid/internal/models"
)

func newGame(code string) *game.Game {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return game.NewGame(code, l)
}

func TestCreateAllocatesCode(t *testing.T) {
	s := NewStore()
	r, err := s.Create(newGame)
	require.NoError(t, err)

	assert.Len(t, r.Code, CodeLength)
	for _, ch := range r.Code {
		assert.Contains(t, codeAlphabet, string(ch))
	}
	assert.Equal(t, r.Code, r.Game.RoomCode)

	got, err := s.Get(" " + r.Code + " ")
	require.NoError(t, err)
	assert.Same(t, r, got)
}

func TestCreateRetriesCollisions(t *testing.T) {
	s := NewStore()
	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	s.code = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
	first, err := s.Create(newGame)
	require.NoError(t, err)
	second, err := s.Create(newGame)
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.Code)
	assert.Equal(t, "BBBBBB", second.Code)

	s.code = func() (string, error) { return "AAAAAA", nil }
	_, err = s.Create(newGame)
	assert.ErrorIs(t, err, ErrCodeExhausted)
}

func TestGetIsCaseInsensitive(t *testing.T) {
	s := NewStore()
	s.code = func() (string, error) { return "XY12AB", nil }
	_, err := s.Create(newGame)
	require.NoError(t, err)

	_, err = s.Get("xy12ab")
	assert.NoError(t, err)
	_, err = s.Get("nope00")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestConnIndex(t *testing.T) {
	s := NewStore()
	r, err := s.Create(newGame)
	require.NoError(t, err)

	a, b := uuid.New(), uuid.New()
	s.BindConn(a, r.Code)
	s.BindConn(b, r.Code)
	code, ok := s.CodeForConn(a)
	require.True(t, ok)
	assert.Equal(t, r.Code, code)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, s.ConnsIn(r.Code))

	s.UnbindConn(a)
	_, ok = s.CodeForConn(a)
	assert.False(t, ok)

	s.Remove(r.Code)
	_, ok = s.CodeForConn(b)
	assert.False(t, ok)
	_, err = s.Get(r.Code)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestOpenLobbies(t *testing.T) {
	s := NewStore()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	n := 0
	s.code = func() (string, error) {
		n++
		return fmt.Sprintf("ROOM0%d", n), nil
	}

	open, err := s.Create(newGame)
	require.NoError(t, err)
	host := models.NewPlayer(uuid.New(), "Host", false)
	require.NoError(t, open.Game.AddPlayer(host))

	full, err := s.Create(newGame)
	require.NoError(t, err)
	full.Game.MaxPlayers = 1
	require.NoError(t, full.Game.AddPlayer(models.NewPlayer(uuid.New(), "Solo", false)))

	started, err := s.Create(newGame)
	require.NoError(t, err)
	dealer := models.NewPlayer(uuid.New(), "D", false)
	guest := models.NewPlayer(uuid.New(), "G", false)
	require.NoError(t, started.Game.AddPlayer(dealer))
	require.NoError(t, started.Game.AddPlayer(guest))
	require.NoError(t, started.Game.SetReady(guest.ID, true))
	require.NoError(t, started.Game.Start(dealer.ID))

	lobbies := s.OpenLobbies()
	require.Len(t, lobbies, 1)
	assert.Equal(t, models.LobbyInfo{
		RoomCode:    open.Code,
		HostName:    "Host",
		PlayerCount: 1,
		MaxPlayers:  game.MaxPlayers,
		Difficulty:  "normal",
	}, lobbies[0])

	assert.Len(t, s.Rooms(), 3)
	assert.Equal(t, open.Code, s.Rooms()[0].Code)
}
