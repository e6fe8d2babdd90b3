package shared

import "math/rand/v2"

// DeckSize is the number of cards in a full briscola deck.
const DeckSize = 40

// NewShuffledDeck creates the standard 40-card briscola deck (4 suits, ranks
// 1-10) and returns it in a uniformly random order. Randomness does not need
// to be cryptographic; within one deck every card appears exactly once.
func NewShuffledDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for rank := 1; rank <= 10; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}

	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}
