package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"briscola-server/internal/database"
	"briscola-server/internal/game"
	"briscola-server/internal/protocol"

	"github.com/google/uuid"
)

// clientMessage is a helper struct to pass messages along with the client reference.
type clientMessage struct {
	client  *Client
	message protocol.Message
}

// playerRef ties a connection to its seat in a session.
type playerRef struct {
	sessionID  int
	playerName string
}

// Hub routes intents from WebSocket connections to game sessions and fans the
// resulting events back out. It owns the connection <-> (session, player)
// association; game state lives in the registry and is never mutated here.
type Hub struct {
	registry *game.Registry
	db       *database.Service

	clients        map[*Client]bool
	rooms          map[int]map[*Client]bool // session id -> connections in the room
	refs           map[*Client]playerRef
	processMessage chan clientMessage
	register       chan *Client
	unregister     chan *Client
	clientMu       sync.RWMutex
}

// NewHub creates a new Hub instance. db may be nil, in which case finished
// games are not recorded.
func NewHub(registry *game.Registry, db *database.Service) *Hub {
	return &Hub{
		registry:       registry,
		db:             db,
		clients:        make(map[*Client]bool),
		rooms:          make(map[int]map[*Client]bool),
		refs:           make(map[*Client]playerRef),
		processMessage: make(chan clientMessage),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
	}
}

// Run starts the Hub's main loop. Intents are processed one at a time here;
// per-session mutexes in the game package guard against any other entry point.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			client.ID = uuid.NewString() // Assign a unique ID upon registration
			log.Printf("Client %s (%s) connected", client.ID, client.conn.RemoteAddr())
			h.clientMu.Lock()
			h.clients[client] = true
			h.clientMu.Unlock()

		case client := <-h.unregister:
			h.removeClient(client)

		case clientMsg := <-h.processMessage:
			h.handleMessage(clientMsg.client, clientMsg.message)
		}
	}
}

// removeClient drops a connection and its session association. Game state is
// left untouched: a disconnected player's turn is not forfeited, and the same
// player may resynchronize later on a new connection via join-game.
func (h *Hub) removeClient(client *Client) {
	h.clientMu.Lock()
	defer h.clientMu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if ref, ok := h.refs[client]; ok {
		delete(h.refs, client)
		if room, ok := h.rooms[ref.sessionID]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, ref.sessionID)
			}
		}
	}
	close(client.send)
	log.Printf("Client %s (%s) disconnected", client.ID, client.Name)
}

// associate maps a connection to a (session, player) seat, replacing any
// previous association this connection had.
func (h *Hub) associate(client *Client, sessionID int, playerName string) {
	h.clientMu.Lock()
	defer h.clientMu.Unlock()

	if old, ok := h.refs[client]; ok {
		if room, ok := h.rooms[old.sessionID]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, old.sessionID)
			}
		}
	}
	h.refs[client] = playerRef{sessionID: sessionID, playerName: playerName}
	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[sessionID] = room
	}
	room[client] = true
	client.Name = playerName
}

// handleMessage processes a message received from a client.
func (h *Hub) handleMessage(client *Client, msg protocol.Message) {
	switch msg.Type {
	case "create-lobby":
		h.handleCreateLobby(client, msg)
	case "join-lobby":
		h.handleJoinLobby(client, msg)
	case "join-game":
		h.handleJoinGame(client, msg)
	case "play-card":
		h.handlePlayCard(client, msg)
	case "ping":
		pongMsg, _ := protocol.NewMessage("pong", nil)
		h.sendToClient(client, pongMsg)
	default:
		log.Printf("Received unknown message type '%s' from client %s (%s)", msg.Type, client.ID, client.Name)
		h.sendError(client, "Unknown message type.")
	}
}

// handleCreateLobby creates a new session for the requesting player. The
// creator's connection is not put in the room here; the client follows up
// with a join-game intent once it is ready for real-time updates.
func (h *Hub) handleCreateLobby(client *Client, msg protocol.Message) {
	var payload protocol.CreateLobbyPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("Error unmarshalling create-lobby payload from client %s: %v", client.ID, err)
		h.sendError(client, "Invalid create-lobby message format.")
		return
	}

	session, err := h.registry.Create(payload.PlayerName)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}
	log.Printf("Client %s (%s) created lobby %d", client.ID, payload.PlayerName, session.ID)

	createdMsg, _ := protocol.NewMessage("lobby-created", protocol.LobbyCreatedPayload{LobbyID: session.ID})
	h.sendToClient(client, createdMsg)
}

// handleJoinLobby seats the second player in an existing session.
func (h *Hub) handleJoinLobby(client *Client, msg protocol.Message) {
	var payload protocol.JoinLobbyPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("Error unmarshalling join-lobby payload from client %s: %v", client.ID, err)
		h.sendError(client, "Invalid join-lobby message format.")
		return
	}

	session, ok := h.registry.Find(payload.LobbyID)
	if !ok {
		log.Printf("Client %s tried to join non-existent lobby %d", client.ID, payload.LobbyID)
		h.sendError(client, game.ErrSessionNotFound.Error())
		return
	}

	events, err := session.Join(payload.PlayerName)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}
	log.Printf("Client %s (%s) joined lobby %d", client.ID, payload.PlayerName, session.ID)

	// Join the room first so the player-joined broadcast reaches the joiner too.
	h.associate(client, session.ID, payload.PlayerName)
	h.dispatch(session.ID, client, events)
}

// handleJoinGame re-associates a connection with its session (e.g. after a
// page reload) and pushes a full state snapshot to that connection only.
func (h *Hub) handleJoinGame(client *Client, msg protocol.Message) {
	var payload protocol.JoinGamePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("Error unmarshalling join-game payload from client %s: %v", client.ID, err)
		h.sendError(client, "Invalid join-game message format.")
		return
	}

	session, ok := h.registry.Find(payload.GameID)
	if !ok {
		log.Printf("Client %s tried to resync with non-existent game %d", client.ID, payload.GameID)
		h.sendError(client, game.ErrSessionNotFound.Error())
		return
	}

	events, err := session.Snapshot(payload.PlayerName)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}
	log.Printf("Client %s (%s) resynced with game %d", client.ID, payload.PlayerName, session.ID)

	h.associate(client, session.ID, payload.PlayerName)
	h.dispatch(session.ID, client, events)
}

// handlePlayCard forwards a play to the session and fans out its events.
func (h *Hub) handlePlayCard(client *Client, msg protocol.Message) {
	var payload protocol.PlayCardPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("Error unmarshalling play-card payload from client %s: %v", client.ID, err)
		h.sendError(client, "Invalid play-card message format.")
		return
	}

	session, ok := h.registry.Find(payload.GameID)
	if !ok {
		h.sendError(client, game.ErrSessionNotFound.Error())
		return
	}

	events, err := session.PlayCard(payload.PlayerName, payload.Card.Suit, payload.Card.Rank)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}
	log.Printf("Game %d: %s played %d of %s", session.ID, payload.PlayerName, payload.Card.Rank, payload.Card.Suit)

	h.dispatch(session.ID, client, events)

	for _, ev := range events {
		if ev.Type == "game-over" {
			if scores, ok := ev.Payload.(protocol.GameOverPayload); ok {
				h.recordResult(session.ID, scores)
			}
		}
	}
}

// dispatch fans a session's event snapshot out to connections. The session
// lock was released before this is called; unicast targets are resolved
// freshly at send time since a player may have reconnected in the meantime.
func (h *Hub) dispatch(sessionID int, origin *Client, events []game.Event) {
	for _, ev := range events {
		msgBytes, err := protocol.NewMessage(ev.Type, ev.Payload)
		if err != nil {
			log.Printf("Error creating '%s' message for session %d: %v", ev.Type, sessionID, err)
			continue
		}
		switch ev.Scope {
		case game.Broadcast:
			h.broadcast(sessionID, msgBytes)
		case game.Unicast:
			h.unicast(sessionID, ev.Target, msgBytes)
		case game.Reply:
			h.sendToClient(origin, msgBytes)
		}
	}
}

// broadcast sends a message to every connection currently in a session room.
func (h *Hub) broadcast(sessionID int, message []byte) {
	h.clientMu.RLock()
	room := h.rooms[sessionID]
	clientsToSend := make([]*Client, 0, len(room))
	for client := range room {
		clientsToSend = append(clientsToSend, client)
	}
	h.clientMu.RUnlock()

	for _, client := range clientsToSend {
		h.sendToClient(client, message)
	}
}

// unicast sends a message to the connection(s) currently mapped to a
// (session, player) pair.
func (h *Hub) unicast(sessionID int, playerName string, message []byte) {
	h.clientMu.RLock()
	var targets []*Client
	for client := range h.rooms[sessionID] {
		if h.refs[client].playerName == playerName {
			targets = append(targets, client)
		}
	}
	h.clientMu.RUnlock()

	if len(targets) == 0 {
		log.Printf("No connection found for player %s in session %d (disconnected?)", playerName, sessionID)
		return
	}
	for _, client := range targets {
		h.sendToClient(client, message)
	}
}

// sendToClient delivers a message without blocking the hub. A full or closed
// send channel is treated as a dead connection and triggers cleanup.
func (h *Hub) sendToClient(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		log.Printf("Failed to send message to client %s (channel full or closed), initiating cleanup.", client.ID)
		go func() {
			h.clientMu.RLock()
			_, stillConnected := h.clients[client]
			h.clientMu.RUnlock()
			if stillConnected {
				h.unregister <- client
			}
		}()
	}
}

// sendError reports an error to the originating connection only. Errors are
// terminal responses to one intent and never reach other connections.
func (h *Hub) sendError(client *Client, errorMsg string) {
	msgBytes, err := protocol.NewMessage("error", protocol.ErrorPayload{Message: errorMsg})
	if err != nil {
		log.Printf("Error creating error message for client %s: %v", client.ID, err)
		return
	}
	h.sendToClient(client, msgBytes)
}

// recordResult stores a finished game in the results database.
func (h *Hub) recordResult(sessionID int, payload protocol.GameOverPayload) {
	if h.db == nil || len(payload.Scores) != 2 {
		return
	}

	winner := "draw"
	if payload.Scores[0].Score > payload.Scores[1].Score {
		winner = payload.Scores[0].Name
	} else if payload.Scores[1].Score > payload.Scores[0].Score {
		winner = payload.Scores[1].Name
	}

	result := database.GameResult{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		Player1:      payload.Scores[0].Name,
		Player2:      payload.Scores[1].Name,
		Player1Score: payload.Scores[0].Score,
		Player2Score: payload.Scores[1].Score,
		Winner:       winner,
	}
	if err := h.db.Insert(result); err != nil {
		log.Printf("Failed to record result for session %d: %v", sessionID, err)
		return
	}
	log.Printf("Recorded result for session %d: %s %d - %s %d",
		sessionID, result.Player1, result.Player1Score, result.Player2, result.Player2Score)
}
