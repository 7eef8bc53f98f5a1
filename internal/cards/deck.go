package cards

import (
	"encoding/binary"

	"zkuno/internal/unocrypto"
)

// OpeningCardIndex is the deck index the table's first discard is dealt from.
// Indices 0-13 are reserved for the two initial hands (7 cards each, dealt
// off-platform); draws start at index 15.
const (
	OpeningCardIndex uint32 = 14
	FirstDrawIndex   uint32 = 15
)

// DeriveCard maps (session_id, index) to a card deterministically:
//
//	seed   = keccak256(session_id_be32 || index_be32)
//	colour = be_u32(seed[0:4]) % 5
//	value  = colour==wild ? 13 + be_u32(seed[4:8])%2 : be_u32(seed[4:8])%13
//
// The state machine and the draw guest both call this single implementation;
// it has no state and no entropy, so a card at a given index never changes.
func DeriveCard(sessionID, index uint32) Card {
	var data [8]byte
	binary.BigEndian.PutUint32(data[0:4], sessionID)
	binary.BigEndian.PutUint32(data[4:8], index)
	seed := unocrypto.Keccak256(data[:])

	colourRaw := binary.BigEndian.Uint32(seed[0:4])
	valueRaw := binary.BigEndian.Uint32(seed[4:8])

	colour := uint8(colourRaw % 5)
	var value uint8
	if colour == Wild {
		value = WildCard + uint8(valueRaw%2)
	} else {
		value = uint8(valueRaw % 13)
	}
	return Card{Colour: colour, Value: value}
}

// OpeningCard derives the table's initial discard. A wild opener cannot start
// play, so it is forced to a red numeral by folding the value into 0-9.
func OpeningCard(sessionID uint32) Card {
	c := DeriveCard(sessionID, OpeningCardIndex)
	if c.Colour == Wild {
		return Card{Colour: Red, Value: c.Value % 10}
	}
	return c
}
