package game

import "errors"

// Rejected intents. None of these leave a trace in the game state.
var (
	ErrWrongPhase         = errors.New("action not allowed in this phase")
	ErrNotDealer          = errors.New("only the dealer can do that")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrTurnPlayerVoting   = errors.New("the answering player cannot vote on truco")
	ErrAwaitingTruco      = errors.New("waiting for truco decisions")
	ErrTrucoClosed        = errors.New("no truco vote is open")
	ErrAlreadyDecided     = errors.New("truco decision already made")
	ErrAlreadyRevealed    = errors.New("pyramid card already revealed")
	ErrNoReplayRequested  = errors.New("no replay vote in progress")
	ErrAlreadyVoted       = errors.New("replay vote already cast")
	ErrInvalidIndex       = errors.New("invalid seat index")
	ErrInvalidAmount      = errors.New("invalid drink amount")
	ErrInvalidTargets     = errors.New("invalid drink targets")
	ErrInsufficientDrinks = errors.New("not enough drinks to distribute")
)

// Capacity and validation failures shown to the player as-is.
var (
	ErrPlayerNotFound   = errors.New("Player no longer in room")
	ErrRoomFull         = errors.New("Room is full")
	ErrAlreadyStarted   = errors.New("Game has already started")
	ErrNotAllReady      = errors.New("Not all players are ready")
	ErrNotEnoughPlayers = errors.New("Need at least 2 players")
	ErrTooManyPlayers   = errors.New("Too many players")
	ErrRoomClosed       = errors.New("Room not found")
)

var userFacing = []error{
	ErrPlayerNotFound, ErrRoomFull, ErrAlreadyStarted,
	ErrNotAllReady, ErrNotEnoughPlayers, ErrTooManyPlayers,
	ErrRoomClosed,
}

// IsUserFacing reports whether err carries a message meant for the player.
func IsUserFacing(err error) bool {
	for _, target := range userFacing {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
