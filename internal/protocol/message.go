package protocol

import (
	"encoding/json"

	"briscola-server/internal/shared"
)

// Message represents a generic WebSocket message structure.
type Message struct {
	Type    string          `json:"type"`              // Type of the message (e.g., "join-lobby", "play-card")
	Payload json.RawMessage `json:"payload,omitempty"` // Raw JSON payload, allows flexible structures
}

// --- Client -> Server Payload Structs ---

type CreateLobbyPayload struct {
	PlayerName string `json:"playerName"`
}

type JoinLobbyPayload struct {
	LobbyID    int    `json:"lobbyId"`
	PlayerName string `json:"playerName"`
}

// JoinGamePayload is the resync intent: a connection (re)attaching to a
// session it already belongs to, e.g. after a page reload.
type JoinGamePayload struct {
	GameID     int    `json:"gameId"`
	PlayerName string `json:"playerName"`
}

type PlayCardPayload struct {
	GameID     int         `json:"gameId"`
	PlayerName string      `json:"playerName"`
	Card       shared.Card `json:"card"`
}

// --- Server -> Client Payload Structs ---

type LobbyCreatedPayload struct {
	LobbyID int `json:"lobbyId"`
}

type PlayerJoinedPayload struct {
	PlayersCount int  `json:"playersCount"`
	GameStarted  bool `json:"gameStarted"`
}

type LobbyJoinedPayload struct {
	Success      bool `json:"success"`
	PlayersCount int  `json:"playersCount"`
	GameStarted  bool `json:"gameStarted"`
}

// GameStatePayload is the full per-player snapshot sent on resync. It carries
// only the receiving player's own hand, never the opponent's.
type GameStatePayload struct {
	PlayerHand        []shared.Card       `json:"playerHand"`
	Briscola          shared.Card         `json:"briscola"`
	GameStarted       bool                `json:"gameStarted"`
	PlayersCount      int                 `json:"playersCount"`
	CurrentTurn       int                 `json:"currentTurn"`
	CurrentPlayerName string              `json:"currentPlayerName"`
	RoundInProgress   bool                `json:"roundInProgress"`
	PlayedCards       []shared.PlayedCard `json:"playedCards"`
}

type GameStateUpdatePayload struct {
	PlayedCards       []shared.PlayedCard `json:"playedCards"`
	RoundInProgress   bool                `json:"roundInProgress"`
	CurrentTurn       int                 `json:"currentTurn"`
	CurrentPlayerName string              `json:"currentPlayerName"`
}

type RoundCompletePayload struct {
	Winner            string              `json:"winner"`
	NewCardsDealt     bool                `json:"newCardsDealt"`
	PlayedCards       []shared.PlayedCard `json:"playedCards"`
	CurrentTurn       int                 `json:"currentTurn"`
	CurrentPlayerName string              `json:"currentPlayerName"`
	RoundInProgress   bool                `json:"roundInProgress"`
}

type HandUpdatePayload struct {
	Hand []shared.Card `json:"hand"`
}

// CardPlayedPayload acknowledges a play to the player who made it.
type CardPlayedPayload struct {
	Message       string              `json:"message"`
	PlayedCards   []shared.PlayedCard `json:"playedCards,omitempty"`
	Winner        string              `json:"winner,omitempty"`
	NewCardsDealt bool                `json:"newCardsDealt,omitempty"`
}

type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type GameOverPayload struct {
	Scores []ScoreEntry `json:"scores"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewMessage builds a JSON-encoded message of the given type.
func NewMessage(msgType string, payload interface{}) ([]byte, error) {
	if payload == nil {
		return json.Marshal(Message{Type: msgType})
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: msgType, Payload: payloadBytes})
}
