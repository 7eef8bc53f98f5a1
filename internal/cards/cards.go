// Package cards defines the UNO card encoding shared by the state machine and
// the guest statement evaluators. Both sides must agree on these bytes
// exactly; any drift makes honestly generated proofs unverifiable.
package cards

import (
	"fmt"

	"zkuno/internal/unoerr"
)

// Colours. 0-3 are the four suits, 4 is wild.
const (
	Red    uint8 = 0
	Yellow uint8 = 1
	Green  uint8 = 2
	Blue   uint8 = 3
	Wild   uint8 = 4
)

// Values. 0-9 are numerals.
const (
	Skip      uint8 = 10
	Reverse   uint8 = 11
	DrawTwo   uint8 = 12
	WildCard  uint8 = 13
	WildDraw4 uint8 = 14
)

const (
	BytesPerCard    = 2
	InitialHandSize = 7
)

// Card is a single UNO card. The wire encoding is two bytes: colour, value.
type Card struct {
	Colour uint8
	Value  uint8
}

// Valid reports whether the card is syntactically well formed: wild cards
// carry value 13 or 14, coloured cards carry 0-12.
func (c Card) Valid() bool {
	if c.Colour > Wild {
		return false
	}
	if c.Colour == Wild {
		return c.Value == WildCard || c.Value == WildDraw4
	}
	return c.Value <= DrawTwo
}

func (c Card) String() string {
	colours := [...]string{"red", "yellow", "green", "blue", "wild"}
	if c.Colour > Wild {
		return fmt.Sprintf("card(%d,%d)", c.Colour, c.Value)
	}
	return fmt.Sprintf("%s/%d", colours[c.Colour], c.Value)
}

// EncodeHand flattens cards into the 2-bytes-per-card wire form.
func EncodeHand(hand []Card) []byte {
	out := make([]byte, 0, len(hand)*BytesPerCard)
	for _, c := range hand {
		out = append(out, c.Colour, c.Value)
	}
	return out
}

// DecodeHand parses wire-form hand bytes. The length must be even; card
// validity is not checked here (the guests assert it where required).
func DecodeHand(b []byte) ([]Card, error) {
	if len(b)%BytesPerCard != 0 {
		return nil, fmt.Errorf("hand bytes: odd length %d: %w", len(b), unoerr.InvalidHandSize)
	}
	hand := make([]Card, 0, len(b)/BytesPerCard)
	for i := 0; i+1 < len(b); i += BytesPerCard {
		hand = append(hand, Card{Colour: b[i], Value: b[i+1]})
	}
	return hand, nil
}

// InHand reports whether (colour, value) occurs anywhere in wire-form hand
// bytes.
func InHand(hand []byte, colour, value uint8) bool {
	for i := 0; i+1 < len(hand); i += BytesPerCard {
		if hand[i] == colour && hand[i+1] == value {
			return true
		}
	}
	return false
}

// HasMatchingColour reports whether any non-wild card in the hand matches
// colour. Wild cards never count as a colour match: this feeds the
// Wild Draw 4 legality rule, where holding a wild does not forbid playing +4.
func HasMatchingColour(hand []byte, colour uint8) bool {
	for i := 0; i+1 < len(hand); i += BytesPerCard {
		c, v := hand[i], hand[i+1]
		if c == colour && c != Wild && v != WildCard && v != WildDraw4 {
			return true
		}
	}
	return false
}

// RemoveFirst returns hand bytes with the first occurrence of (colour, value)
// removed.
func RemoveFirst(hand []byte, colour, value uint8) ([]byte, error) {
	out := make([]byte, 0, max(len(hand)-BytesPerCard, 0))
	removed := false
	for i := 0; i+1 < len(hand); i += BytesPerCard {
		if !removed && hand[i] == colour && hand[i+1] == value {
			removed = true
			continue
		}
		out = append(out, hand[i], hand[i+1])
	}
	if !removed {
		return nil, fmt.Errorf("remove card (%d,%d): %w", colour, value, unoerr.CardNotInHand)
	}
	return out, nil
}

// CanPlay is the table legality rule: wilds always play, colour matches play,
// and equal values play across colours for values <= DrawTwo. Matching a Skip
// on a Skip of another colour is deliberate; proofs are generated against
// this exact rule.
func CanPlay(cardColour, cardValue, activeColour, topValue uint8) bool {
	if cardColour == Wild {
		return true
	}
	if cardColour == activeColour {
		return true
	}
	return cardValue == topValue && cardValue <= DrawTwo
}
