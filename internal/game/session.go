package game

import (
	"sync"
	"time"

	"briscola-server/internal/protocol"
	"briscola-server/internal/shared"
)

// Phase is the explicit state of a session. Wire-level flags are derived from
// it: gameStarted = phase != PhaseLobby, roundInProgress = phase ==
// PhaseRoundOnePlayed.
type Phase string

const (
	PhaseLobby          Phase = "Lobby"          // Waiting for the second player
	PhaseRoundIdle      Phase = "RoundIdle"      // Active, no card on the table
	PhaseRoundOnePlayed Phase = "RoundOnePlayed" // Active, one card on the table
	PhaseFinished       Phase = "Finished"       // All cards played, scoring final
)

const (
	maxPlayers = 2
	handSize   = 3
)

// Session is the authoritative state of one briscola game. All mutating
// operations run under the session's own mutex and return the events to fan
// out, so the caller never sends on the network while the lock is held.
//
// Deck accounting: the trump card stays at the bottom of the draw pile
// (index 0; draws pop from the end), so it is the last card dealt. The sum of
// deck, hands and won cards is therefore always the full 40.
type Session struct {
	ID int

	mu         sync.Mutex
	players    []*shared.Player
	turn       int
	deck       []shared.Card
	trump      shared.Card
	phase      Phase
	played     []shared.PlayedCard
	lastActive time.Time
}

// NewSession creates a session with a freshly shuffled deck, picks the trump
// card and deals the creator's initial hand.
func NewSession(id int, creatorName string) (*Session, error) {
	if creatorName == "" {
		return nil, ErrInvalidName
	}

	deck := shared.NewShuffledDeck()
	s := &Session{
		ID:         id,
		players:    []*shared.Player{shared.NewPlayer(creatorName)},
		turn:       0,
		deck:       deck,
		trump:      deck[0],
		phase:      PhaseLobby,
		lastActive: time.Now(),
	}
	for i := 0; i < handSize; i++ {
		s.players[0].AddCard(s.draw())
	}
	return s, nil
}

// Join adds the second player. When the session becomes full the joiner is
// dealt their hand and play begins.
func (s *Session) Join(playerName string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	if len(s.players) >= maxPlayers {
		return nil, ErrSessionFull
	}
	if playerName == "" {
		return nil, ErrInvalidName
	}
	for _, p := range s.players {
		if p.Name == playerName {
			return nil, ErrNameTaken
		}
	}

	player := shared.NewPlayer(playerName)
	s.players = append(s.players, player)

	if len(s.players) == maxPlayers {
		for i := 0; i < handSize; i++ {
			player.AddCard(s.draw())
		}
		s.phase = PhaseRoundIdle
	}

	return []Event{
		broadcast("player-joined", protocol.PlayerJoinedPayload{
			PlayersCount: len(s.players),
			GameStarted:  s.started(),
		}),
		reply("lobby-joined", protocol.LobbyJoinedPayload{
			Success:      true,
			PlayersCount: len(s.players),
			GameStarted:  s.started(),
		}),
	}, nil
}

// PlayCard validates and applies one play. The card is matched by suit and
// rank only; whatever point value the client sent is ignored, so a forged or
// malformed card can at worst come back as "Card not in hand".
func (s *Session) PlayCard(playerName string, suit shared.Suit, rank int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	playerIndex := s.indexOf(playerName)
	if playerIndex == -1 {
		return nil, ErrPlayerNotFound
	}
	if s.phase == PhaseLobby || s.phase == PhaseFinished || len(s.players) < maxPlayers {
		return nil, ErrNotReady
	}
	if playerIndex != s.turn {
		return nil, ErrNotYourTurn
	}

	player := s.players[playerIndex]
	card, ok := player.RemoveCard(suit, rank)
	if !ok {
		return nil, ErrCardNotInHand
	}

	s.played = append(s.played, shared.PlayedCard{Player: playerName, Card: card})

	events := []Event{broadcast("game-state-update", s.stateUpdate())}

	if len(s.played) == 1 {
		// First card of the round: the other player is up next.
		s.turn = (s.turn + 1) % maxPlayers
		s.phase = PhaseRoundOnePlayed
		events = append(events,
			broadcast("game-state-update", s.stateUpdate()),
			reply("card-played", protocol.CardPlayedPayload{
				Message:     "Card played, waiting for other player",
				PlayedCards: s.playedSnapshot(),
			}),
		)
		return events, nil
	}

	return append(events, s.resolveRound()...), nil
}

// resolveRound settles a completed two-card round: awards the cards, deals
// replacements, hands the turn to the winner, or finishes the game when no
// cards remain. The buffer is cleared atomically with the resolution.
// Assumes the lock is held.
func (s *Session) resolveRound() []Event {
	winner := ResolveRound(s.trump.Suit, s.played[0], s.played[1])
	winnerIndex := s.indexOf(winner.Player)
	winningPlayer := s.players[winnerIndex]
	winningPlayer.WonCards = append(winningPlayer.WonCards, s.played[0].Card, s.played[1].Card)
	s.played = nil

	if s.handsEmpty() {
		s.phase = PhaseFinished
		scores := make([]protocol.ScoreEntry, len(s.players))
		for i, p := range s.players {
			scores[i] = protocol.ScoreEntry{Name: p.Name, Score: p.Score()}
		}
		return []Event{broadcast("game-over", protocol.GameOverPayload{Scores: scores})}
	}

	for _, p := range s.players {
		if len(s.deck) > 0 && len(p.Hand) < handSize {
			p.AddCard(s.draw())
		}
	}
	s.turn = winnerIndex
	s.phase = PhaseRoundIdle
	newCardsDealt := len(s.deck) > 0

	events := []Event{broadcast("round-complete", protocol.RoundCompletePayload{
		Winner:            winner.Player,
		NewCardsDealt:     newCardsDealt,
		PlayedCards:       []shared.PlayedCard{},
		CurrentTurn:       s.turn,
		CurrentPlayerName: winningPlayer.Name,
		RoundInProgress:   false,
	})}
	// Hands go to their owners only, never to the room.
	for _, p := range s.players {
		events = append(events, unicast(p.Name, "hand-update", protocol.HandUpdatePayload{
			Hand: copyCards(p.Hand),
		}))
	}
	return append(events, reply("card-played", protocol.CardPlayedPayload{
		Message:       "Round complete",
		Winner:        winner.Player,
		NewCardsDealt: newCardsDealt,
	}))
}

// Snapshot rebuilds one player's complete view of the session, used to
// resynchronize a (re)connecting client. It is derived purely from session
// state, never from connection history.
func (s *Session) Snapshot(playerName string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playerIndex := s.indexOf(playerName)
	if playerIndex == -1 {
		return nil, ErrPlayerNotFound
	}

	return []Event{reply("game-state", protocol.GameStatePayload{
		PlayerHand:        copyCards(s.players[playerIndex].Hand),
		Briscola:          s.trump,
		GameStarted:       s.started(),
		PlayersCount:      len(s.players),
		CurrentTurn:       s.turn,
		CurrentPlayerName: s.players[s.turn].Name,
		RoundInProgress:   s.phase == PhaseRoundOnePlayed,
		PlayedCards:       s.playedSnapshot(),
	})}, nil
}

// Finished reports whether the session has reached its terminal state.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseFinished
}

// IdleFor returns how long the session has gone without a mutating intent.
func (s *Session) IdleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActive)
}

// --- helpers, lock held ---

func (s *Session) started() bool {
	return s.phase != PhaseLobby
}

func (s *Session) draw() shared.Card {
	card := s.deck[len(s.deck)-1]
	s.deck = s.deck[:len(s.deck)-1]
	return card
}

func (s *Session) indexOf(playerName string) int {
	for i, p := range s.players {
		if p.Name == playerName {
			return i
		}
	}
	return -1
}

func (s *Session) handsEmpty() bool {
	for _, p := range s.players {
		if len(p.Hand) > 0 {
			return false
		}
	}
	return true
}

func (s *Session) stateUpdate() protocol.GameStateUpdatePayload {
	return protocol.GameStateUpdatePayload{
		PlayedCards:       s.playedSnapshot(),
		RoundInProgress:   s.phase == PhaseRoundOnePlayed,
		CurrentTurn:       s.turn,
		CurrentPlayerName: s.players[s.turn].Name,
	}
}

func (s *Session) playedSnapshot() []shared.PlayedCard {
	snapshot := make([]shared.PlayedCard, len(s.played))
	copy(snapshot, s.played)
	return snapshot
}

func copyCards(cards []shared.Card) []shared.Card {
	out := make([]shared.Card, len(cards))
	copy(out, cards)
	return out
}
