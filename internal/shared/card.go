package shared

// Suit represents the suit of a card (Bastoni, Coppe, Denari, Spade).
type Suit string

const (
	Bastoni Suit = "Bastoni"
	Coppe   Suit = "Coppe"
	Denari  Suit = "Denari"
	Spade   Suit = "Spade"
)

// Suits lists the four suits of the briscola deck.
var Suits = []Suit{Bastoni, Coppe, Denari, Spade}

// Card represents a single card in the briscola deck. Point is derived from
// Rank; always construct cards via NewCard so the two never disagree.
type Card struct {
	Suit  Suit `json:"suit"`
	Rank  int  `json:"rank"`
	Point int  `json:"point"`
}

// PointForRank returns the scoring value of a rank. The ace (1) is worth 11,
// the three 10; ranks 2 and 4-7 are worth nothing.
func PointForRank(rank int) int {
	switch rank {
	case 1:
		return 11
	case 3:
		return 10
	case 10:
		return 4
	case 9:
		return 3
	case 8:
		return 2
	default:
		return 0
	}
}

// NewCard builds a card with its point value derived from the rank.
func NewCard(suit Suit, rank int) Card {
	return Card{Suit: suit, Rank: rank, Point: PointForRank(rank)}
}

// PlayedCard stores a card along with the name of the player who played it.
type PlayedCard struct {
	Player string `json:"player"`
	Card   Card   `json:"card"`
}
