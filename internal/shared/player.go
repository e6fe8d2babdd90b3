package shared

// Player represents one of the two players in a briscola session.
type Player struct {
	Name     string // Player's chosen name, unique within the session
	Hand     []Card // Cards currently held (at most 3 during active play)
	WonCards []Card // Cards collected from won rounds
}

// NewPlayer creates a new player with an empty hand.
func NewPlayer(name string) *Player {
	return &Player{
		Name:     name,
		Hand:     []Card{},
		WonCards: []Card{},
	}
}

// AddCard adds a card to the player's hand.
func (p *Player) AddCard(card Card) {
	p.Hand = append(p.Hand, card)
}

// RemoveCard removes the first card matching suit and rank from the hand.
// Returns the removed card and whether it was found.
func (p *Player) RemoveCard(suit Suit, rank int) (Card, bool) {
	for i, c := range p.Hand {
		if c.Suit == suit && c.Rank == rank {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return c, true
		}
	}
	return Card{}, false
}

// HasCard reports whether the hand holds a card of the given suit and rank.
func (p *Player) HasCard(suit Suit, rank int) bool {
	for _, c := range p.Hand {
		if c.Suit == suit && c.Rank == rank {
			return true
		}
	}
	return false
}

// Score sums the point values of the player's won cards.
func (p *Player) Score() int {
	score := 0
	for _, c := range p.WonCards {
		score += c.Point
	}
	return score
}
