// Package guest contains the four proof statement bodies.
//
// Each evaluator consumes private inputs (hands, salts) and public inputs,
// asserts the statement holds, and returns the journal bytes the proof
// commits to. A returned error means no proof could be produced for those
// inputs; it is reported at proof-generation time and never reaches the
// state machine. Private inputs stay inside this package's callers — only
// the journal leaves.
package guest

import (
	"bytes"
	"fmt"

	"zkuno/internal/cards"
	"zkuno/internal/journal"
	"zkuno/internal/unoerr"
	"zkuno/internal/unocrypto"
)

// CommitInputs feeds the hand-commitment statement.
type CommitInputs struct {
	// Private.
	Hand []byte // 14 bytes, 7 cards
	Salt [unocrypto.SaltBytes]byte

	// Public.
	SessionID    uint32
	ExpectedHash [32]byte
}

// CommitHand proves: keccak256(hand || salt) == expected_hash, and the hand
// encodes exactly 7 syntactically valid cards.
func CommitHand(in CommitInputs) ([]byte, error) {
	if got := unocrypto.CommitHand(in.Hand, in.Salt); got != in.ExpectedHash {
		return nil, fmt.Errorf("commit guest: %w", unoerr.InvalidHandHash)
	}
	if len(in.Hand) != cards.InitialHandSize*cards.BytesPerCard {
		return nil, fmt.Errorf("commit guest: hand is %d bytes, want %d: %w",
			len(in.Hand), cards.InitialHandSize*cards.BytesPerCard, unoerr.InvalidHandSize)
	}
	hand, err := cards.DecodeHand(in.Hand)
	if err != nil {
		return nil, err
	}
	for i, c := range hand {
		if !c.Valid() {
			return nil, fmt.Errorf("commit guest: card %d = %v: %w", i, c, unoerr.InvalidCard)
		}
	}
	return journal.Commit{SessionID: in.SessionID, HandHash: in.ExpectedHash}.Bytes(), nil
}

// MoveInputs feeds the card-play statement.
type MoveInputs struct {
	// Private.
	OldHand []byte
	OldSalt [unocrypto.SaltBytes]byte
	NewHand []byte
	NewSalt [unocrypto.SaltBytes]byte

	// Public.
	SessionID    uint32
	PlayedColour uint8
	PlayedValue  uint8
	WildColour   uint8
	ActiveColour uint8
}

// Move proves a single card play without revealing the hand or its size:
// the played card was in the committed hand, Wild Draw 4 legality held, the
// new hand is the old hand minus exactly that card, and the is_winner/is_uno
// flags are honestly derived from the private new hand length.
func Move(in MoveInputs) ([]byte, error) {
	oldHash := unocrypto.CommitHand(in.OldHand, in.OldSalt)

	if !cards.InHand(in.OldHand, in.PlayedColour, in.PlayedValue) {
		return nil, fmt.Errorf("move guest: played %v: %w",
			cards.Card{Colour: in.PlayedColour, Value: in.PlayedValue}, unoerr.CardNotInHand)
	}

	// Wild Draw 4 is only legal with no card of the active colour in hand.
	// Unenforceable in physical UNO; here the proof guarantees it.
	if in.PlayedValue == cards.WildDraw4 && cards.HasMatchingColour(in.OldHand, in.ActiveColour) {
		return nil, fmt.Errorf("move guest: %w", unoerr.IllegalWildDraw4)
	}

	expectedNew, err := cards.RemoveFirst(in.OldHand, in.PlayedColour, in.PlayedValue)
	if err != nil {
		return nil, fmt.Errorf("move guest: %w", err)
	}
	if !bytes.Equal(expectedNew, in.NewHand) {
		return nil, fmt.Errorf("move guest: new hand is not old hand minus played card")
	}

	newHash := unocrypto.CommitHand(in.NewHand, in.NewSalt)
	newCount := len(in.NewHand) / cards.BytesPerCard

	return journal.Move{
		SessionID:    in.SessionID,
		OldHash:      oldHash,
		NewHash:      newHash,
		PlayedColour: in.PlayedColour,
		PlayedValue:  in.PlayedValue,
		WildColour:   in.WildColour,
		ActiveColour: in.ActiveColour,
		IsWinner:     newCount == 0,
		IsUno:        newCount == 1,
	}.Bytes(), nil
}

// DrawInputs feeds the card-draw statement.
type DrawInputs struct {
	// Private.
	OldHand []byte
	OldSalt [unocrypto.SaltBytes]byte
	NewHand []byte
	NewSalt [unocrypto.SaltBytes]byte

	// Public.
	SessionID uint32
	DrawCount uint32
}

// Draw proves the deterministically drawn card was appended to the hand:
// new_hand == old_hand ++ derive_card(session_id, draw_count). Without this
// a player could draw and silently keep their old commitment.
func Draw(in DrawInputs) ([]byte, error) {
	oldHash := unocrypto.CommitHand(in.OldHand, in.OldSalt)

	drawn := cards.DeriveCard(in.SessionID, in.DrawCount)
	expectedNew := make([]byte, 0, len(in.OldHand)+cards.BytesPerCard)
	expectedNew = append(expectedNew, in.OldHand...)
	expectedNew = append(expectedNew, drawn.Colour, drawn.Value)
	if !bytes.Equal(expectedNew, in.NewHand) {
		return nil, fmt.Errorf("draw guest: new hand is not old hand plus drawn card")
	}

	newHash := unocrypto.CommitHand(in.NewHand, in.NewSalt)

	return journal.Draw{
		SessionID: in.SessionID,
		OldHash:   oldHash,
		NewHash:   newHash,
		DrawCount: in.DrawCount,
	}.Bytes(), nil
}

// DeclareInputs feeds the declare-UNO statement.
type DeclareInputs struct {
	// Private.
	Hand []byte // exactly one card
	Salt [unocrypto.SaltBytes]byte

	// Public.
	SessionID    uint32
	ExpectedHash [32]byte
}

// DeclareUno proves the committed hand holds exactly one syntactically valid
// card, without revealing which.
func DeclareUno(in DeclareInputs) ([]byte, error) {
	if got := unocrypto.CommitHand(in.Hand, in.Salt); got != in.ExpectedHash {
		return nil, fmt.Errorf("declare guest: %w", unoerr.InvalidHandHash)
	}
	if len(in.Hand) != cards.BytesPerCard {
		return nil, fmt.Errorf("declare guest: hand is %d bytes, want %d: %w",
			len(in.Hand), cards.BytesPerCard, unoerr.InvalidHandSize)
	}
	c := cards.Card{Colour: in.Hand[0], Value: in.Hand[1]}
	if !c.Valid() {
		return nil, fmt.Errorf("declare guest: card %v: %w", c, unoerr.InvalidCard)
	}
	return journal.Declare{SessionID: in.SessionID, HandHash: in.ExpectedHash}.Bytes(), nil
}
