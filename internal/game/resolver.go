package game

import "briscola-server/internal/shared"

// ResolveRound determines the winning play of a two-card round. It is a pure
// function of its inputs:
//   - if exactly one play is of the trump suit, it wins;
//   - if both plays share a suit, the higher point value wins, and on equal
//     points the first play wins (several ranks are worth zero, so equal
//     points within one suit are common);
//   - otherwise the second player neither followed suit nor trumped, and the
//     first play wins.
func ResolveRound(trump shared.Suit, first, second shared.PlayedCard) shared.PlayedCard {
	firstIsTrump := first.Card.Suit == trump
	secondIsTrump := second.Card.Suit == trump

	if firstIsTrump && !secondIsTrump {
		return first
	}
	if secondIsTrump && !firstIsTrump {
		return second
	}

	if first.Card.Suit == second.Card.Suit {
		if second.Card.Point > first.Card.Point {
			return second
		}
		return first
	}

	return first
}
