package server

import (
	"encoding/json"
	"testing"

	"briscola-server/internal/game"
	"briscola-server/internal/protocol"
)

// connect builds a client backed by a buffered channel instead of a real
// WebSocket connection and registers it with the hub.
func connect(h *Hub, id string) *Client {
	c := &Client{hub: h, ID: id, send: make(chan []byte, 64)}
	h.clientMu.Lock()
	h.clients[c] = true
	h.clientMu.Unlock()
	return c
}

func intend(t *testing.T, h *Hub, c *Client, msgType string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", msgType, err)
	}
	h.handleMessage(c, protocol.Message{Type: msgType, Payload: raw})
}

// drain reads every message currently queued for a client.
func drain(t *testing.T, c *Client) []protocol.Message {
	t.Helper()
	var out []protocol.Message
	for {
		select {
		case raw := <-c.send:
			var msg protocol.Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("unmarshal outbound message: %v", err)
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func findMessage(t *testing.T, msgs []protocol.Message, msgType string) protocol.Message {
	t.Helper()
	for _, m := range msgs {
		if m.Type == msgType {
			return m
		}
	}
	t.Fatalf("no %q message among %d messages", msgType, len(msgs))
	return protocol.Message{}
}

func countMessages(msgs []protocol.Message, msgType string) int {
	n := 0
	for _, m := range msgs {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func decodePayload(t *testing.T, msg protocol.Message, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		t.Fatalf("unmarshal %s payload: %v", msg.Type, err)
	}
}

func expectError(t *testing.T, c *Client, want string) {
	t.Helper()
	msgs := drain(t, c)
	var ep protocol.ErrorPayload
	decodePayload(t, findMessage(t, msgs, "error"), &ep)
	if ep.Message != want {
		t.Fatalf("error message = %q, want %q", ep.Message, want)
	}
}

// startGame creates a session with Alice on c1 and seats Bob on c2, with both
// connections resynced into the room. Returns the lobby id and the two hands.
func startGame(t *testing.T, h *Hub, c1, c2 *Client) (int, protocol.GameStatePayload, protocol.GameStatePayload) {
	t.Helper()

	intend(t, h, c1, "create-lobby", protocol.CreateLobbyPayload{PlayerName: "Alice"})
	var created protocol.LobbyCreatedPayload
	decodePayload(t, findMessage(t, drain(t, c1), "lobby-created"), &created)

	intend(t, h, c2, "join-lobby", protocol.JoinLobbyPayload{LobbyID: created.LobbyID, PlayerName: "Bob"})
	drain(t, c2)

	intend(t, h, c1, "join-game", protocol.JoinGamePayload{GameID: created.LobbyID, PlayerName: "Alice"})
	var aliceState protocol.GameStatePayload
	decodePayload(t, findMessage(t, drain(t, c1), "game-state"), &aliceState)

	intend(t, h, c2, "join-game", protocol.JoinGamePayload{GameID: created.LobbyID, PlayerName: "Bob"})
	var bobState protocol.GameStatePayload
	decodePayload(t, findMessage(t, drain(t, c2), "game-state"), &bobState)

	return created.LobbyID, aliceState, bobState
}

func TestHubCreateLobby(t *testing.T) {
	h := NewHub(game.NewRegistry(), nil)
	c := connect(h, "c1")

	intend(t, h, c, "create-lobby", protocol.CreateLobbyPayload{PlayerName: "Alice"})

	var created protocol.LobbyCreatedPayload
	decodePayload(t, findMessage(t, drain(t, c), "lobby-created"), &created)
	if created.LobbyID != 1 {
		t.Fatalf("lobbyId = %d, want 1", created.LobbyID)
	}
}

func TestHubCreateLobbyEmptyName(t *testing.T) {
	h := NewHub(game.NewRegistry(), nil)
	c := connect(h, "c1")

	intend(t, h, c, "create-lobby", protocol.CreateLobbyPayload{PlayerName: ""})
	expectError(t, c, "Player name is required")
}

func TestHubJoinBroadcastsToRoom(t *testing.T) {
	h := NewHub(game.NewRegistry(), nil)
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")

	intend(t, h, c1, "create-lobby", protocol.CreateLobbyPayload{PlayerName: "Alice"})
	var created protocol.LobbyCreatedPayload
	decodePayload(t, findMessage(t, drain(t, c1), "lobby-created"), &created)

	// Alice's connection enters the room via resync.
	intend(t, h, c1, "join-game", protocol.JoinGamePayload{GameID: created.LobbyID, PlayerName: "Alice"})
	drain(t, c1)

	intend(t, h, c2, "join-lobby", protocol.JoinLobbyPayload{LobbyID: created.LobbyID, PlayerName: "Bob"})

	// Both room members see the broadcast; only Bob gets the ack.
	var joined protocol.PlayerJoinedPayload
	decodePayload(t, findMessage(t, drain(t, c1), "player-joined"), &joined)
	if joined.PlayersCount != 2 || !joined.GameStarted {
		t.Fatalf("player-joined = %+v, want playersCount 2 gameStarted true", joined)
	}

	bobMsgs := drain(t, c2)
	findMessage(t, bobMsgs, "player-joined")
	var ack protocol.LobbyJoinedPayload
	decodePayload(t, findMessage(t, bobMsgs, "lobby-joined"), &ack)
	if !ack.Success || ack.PlayersCount != 2 || !ack.GameStarted {
		t.Fatalf("lobby-joined = %+v", ack)
	}
}

func TestHubJoinUnknownLobby(t *testing.T) {
	h := NewHub(game.NewRegistry(), nil)
	c := connect(h, "c1")

	intend(t, h, c, "join-lobby", protocol.JoinLobbyPayload{LobbyID: 42, PlayerName: "Bob"})
	expectError(t, c, "Game not found")
}

func TestHubResyncUnknownPlayer(t *testing.T) {
	h := NewHub(game.NewRegistry(), nil)
	c := connect(h, "c1")

	intend(t, h, c, "create-lobby", protocol.CreateLobbyPayload{PlayerName: "Alice"})
	var created protocol.LobbyCreatedPayload
	decodePayload(t, findMessage(t, drain(t, c), "lobby-created"), &created)

	intend(t, h, c, "join-game", protocol.JoinGamePayload{GameID: created.LobbyID, PlayerName: "Eve"})
	expectError(t, c, "Player not found in this game")
}

func TestHubPlayCardRouting(t *testing.T) {
	h := NewHub(game.NewRegistry(), nil)
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")
	gameID, aliceState, bobState := startGame(t, h, c1, c2)

	if len(aliceState.PlayerHand) != 3 || len(bobState.PlayerHand) != 3 {
		t.Fatalf("hand sizes = %d, %d, want 3, 3", len(aliceState.PlayerHand), len(bobState.PlayerHand))
	}
	if aliceState.CurrentPlayerName != "Alice" {
		t.Fatalf("current player = %s, want Alice (creator leads)", aliceState.CurrentPlayerName)
	}

	// Out-of-turn play is rejected on Bob's connection only.
	intend(t, h, c2, "play-card", protocol.PlayCardPayload{
		GameID: gameID, PlayerName: "Bob", Card: bobState.PlayerHand[0],
	})
	expectError(t, c2, "Not your turn")
	if msgs := drain(t, c1); len(msgs) != 0 {
		t.Fatalf("opponent received %d messages for a rejected intent", len(msgs))
	}

	// Alice leads. Everyone in the room sees the state updates; only Alice
	// gets the ack.
	intend(t, h, c1, "play-card", protocol.PlayCardPayload{
		GameID: gameID, PlayerName: "Alice", Card: aliceState.PlayerHand[0],
	})
	aliceMsgs := drain(t, c1)
	bobMsgs := drain(t, c2)
	if n := countMessages(aliceMsgs, "game-state-update"); n != 2 {
		t.Fatalf("Alice got %d game-state-update, want 2", n)
	}
	if n := countMessages(bobMsgs, "game-state-update"); n != 2 {
		t.Fatalf("Bob got %d game-state-update, want 2", n)
	}
	findMessage(t, aliceMsgs, "card-played")
	if countMessages(bobMsgs, "card-played") != 0 {
		t.Fatal("card-played ack leaked to the opponent")
	}

	var update protocol.GameStateUpdatePayload
	updates := 0
	for _, m := range bobMsgs {
		if m.Type == "game-state-update" {
			updates++
			if updates == 2 {
				decodePayload(t, m, &update)
			}
		}
	}
	if update.CurrentPlayerName != "Bob" || !update.RoundInProgress {
		t.Fatalf("final update = %+v, want Bob's turn with round in progress", update)
	}

	// Bob answers; the round resolves.
	intend(t, h, c2, "play-card", protocol.PlayCardPayload{
		GameID: gameID, PlayerName: "Bob", Card: bobState.PlayerHand[0],
	})
	aliceMsgs = drain(t, c1)
	bobMsgs = drain(t, c2)

	findMessage(t, aliceMsgs, "round-complete")
	findMessage(t, bobMsgs, "round-complete")

	// Each player receives exactly one hand-update, their own.
	if n := countMessages(aliceMsgs, "hand-update"); n != 1 {
		t.Fatalf("Alice got %d hand-update, want 1", n)
	}
	if n := countMessages(bobMsgs, "hand-update"); n != 1 {
		t.Fatalf("Bob got %d hand-update, want 1", n)
	}
	var hand protocol.HandUpdatePayload
	decodePayload(t, findMessage(t, bobMsgs, "hand-update"), &hand)
	if len(hand.Hand) != 3 {
		t.Fatalf("Bob's replenished hand size = %d, want 3", len(hand.Hand))
	}

	findMessage(t, bobMsgs, "card-played")
	if countMessages(aliceMsgs, "card-played") != 0 {
		t.Fatal("round-complete ack leaked to the opponent")
	}
}

func TestHubPlayCardUnknownGame(t *testing.T) {
	h := NewHub(game.NewRegistry(), nil)
	c := connect(h, "c1")

	intend(t, h, c, "play-card", protocol.PlayCardPayload{GameID: 42, PlayerName: "Alice"})
	expectError(t, c, "Game not found")
}

func TestHubReconnectRetargetsUnicast(t *testing.T) {
	h := NewHub(game.NewRegistry(), nil)
	c1 := connect(h, "c1")
	c2 := connect(h, "c2")
	gameID, aliceState, bobState := startGame(t, h, c1, c2)

	// Alice's connection drops; game state is untouched and it is still her
	// turn when she comes back on a new connection.
	h.removeClient(c1)
	c3 := connect(h, "c3")
	intend(t, h, c3, "join-game", protocol.JoinGamePayload{GameID: gameID, PlayerName: "Alice"})
	var resynced protocol.GameStatePayload
	decodePayload(t, findMessage(t, drain(t, c3), "game-state"), &resynced)
	if resynced.CurrentPlayerName != "Alice" || len(resynced.PlayerHand) != 3 {
		t.Fatalf("resynced state = %+v, want Alice's turn with 3 cards", resynced)
	}

	intend(t, h, c3, "play-card", protocol.PlayCardPayload{
		GameID: gameID, PlayerName: "Alice", Card: aliceState.PlayerHand[0],
	})
	drain(t, c3)
	drain(t, c2)
	intend(t, h, c2, "play-card", protocol.PlayCardPayload{
		GameID: gameID, PlayerName: "Bob", Card: bobState.PlayerHand[0],
	})

	// Alice's hand-update lands on the new connection.
	if n := countMessages(drain(t, c3), "hand-update"); n != 1 {
		t.Fatalf("reconnected client got %d hand-update, want 1", n)
	}
}

func TestHubUnknownMessageType(t *testing.T) {
	h := NewHub(game.NewRegistry(), nil)
	c := connect(h, "c1")

	h.handleMessage(c, protocol.Message{Type: "shuffle-deck"})
	expectError(t, c, "Unknown message type.")
}
