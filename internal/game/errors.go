package game

import "errors"

// Session errors. The text of each error is the exact message delivered to
// the originating connection, so the router can forward err.Error() as-is.
var (
	ErrInvalidName     = errors.New("Player name is required")
	ErrSessionNotFound = errors.New("Game not found")
	ErrSessionFull     = errors.New("Game is full")
	ErrNameTaken       = errors.New("Name already taken in this game")
	ErrPlayerNotFound  = errors.New("Player not found in this game")
	ErrNotReady        = errors.New("Game not ready")
	ErrNotYourTurn     = errors.New("Not your turn")
	ErrCardNotInHand   = errors.New("Card not in hand")
)
