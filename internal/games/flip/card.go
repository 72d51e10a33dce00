package flip

import (
	"fmt"
	"math/rand/v2"
)

// Suit 花色
type Suit int

const (
	Spade Suit = iota
	Heart
	Club
	Diamond
)

var suitSymbols = [...]string{"♠", "♥", "♣", "♦"}

// Card 一张牌，Rank 2-14（14 为 A）
type Card struct {
	Suit Suit `json:"suit"`
	Rank int  `json:"rank"`
}

// String 返回牌面显示，如 ♠A
func (c Card) String() string {
	var rank string
	switch c.Rank {
	case 11:
		rank = "J"
	case 12:
		rank = "Q"
	case 13:
		rank = "K"
	case 14:
		rank = "A"
	default:
		rank = fmt.Sprintf("%d", c.Rank)
	}
	return suitSymbols[c.Suit] + rank
}

// newDeck 创建一副 52 张的牌
func newDeck() []Card {
	deck := make([]Card, 0, 52)
	for suit := Spade; suit <= Diamond; suit++ {
		for rank := 2; rank <= 14; rank++ {
			deck = append(deck, Card{Suit: suit, Rank: rank})
		}
	}
	return deck
}

// shuffle 洗牌
func shuffle(deck []Card, rng *rand.Rand) {
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
}
