// Package unoerr defines the stable game error codes shared by the state
// machine and the guest statement evaluators.
//
// Codes are part of the protocol: clients and the prover host match on them,
// and they are carried verbatim in the ABCI tx result code. Renumbering is a
// breaking change.
package unoerr

import (
	"errors"
	"fmt"
)

type Error uint32

const (
	GameNotFound           Error = 1
	NotPlayer              Error = 2
	GameAlreadyEnded       Error = 3
	NotYourTurn            Error = 4
	HandNotCommitted       Error = 5
	InvalidHandHash        Error = 6
	CardNotInHand          Error = 7
	InvalidCard            Error = 8
	IllegalWildDraw4       Error = 9
	InvalidHandSize        Error = 10
	HandAlreadyCommitted   Error = 11
	ZkProofInvalid         Error = 12
	ZkVerifierNotSet       Error = 13
	ZkActiveColourMismatch Error = 14
	ZkDrawCountMismatch    Error = 15
)

func (e Error) Error() string {
	switch e {
	case GameNotFound:
		return "game not found"
	case NotPlayer:
		return "not a player in this game"
	case GameAlreadyEnded:
		return "game already ended"
	case NotYourTurn:
		return "not your turn"
	case HandNotCommitted:
		return "hand not committed"
	case InvalidHandHash:
		return "hand hash does not match commitment"
	case CardNotInHand:
		return "card not in hand"
	case InvalidCard:
		return "card is not playable"
	case IllegalWildDraw4:
		return "illegal wild draw 4: hand contains the active colour"
	case InvalidHandSize:
		return "invalid hand size"
	case HandAlreadyCommitted:
		return "hand already committed"
	case ZkProofInvalid:
		return "zk proof invalid"
	case ZkVerifierNotSet:
		return "zk verifier not set"
	case ZkActiveColourMismatch:
		return "active colour does not match game state"
	case ZkDrawCountMismatch:
		return "draw count does not match game state"
	default:
		return fmt.Sprintf("unoerr: unknown code %d", uint32(e))
	}
}

// Code returns the stable protocol code, or 0 when err is not a game error.
func Code(err error) uint32 {
	var e Error
	if errors.As(err, &e) {
		return uint32(e)
	}
	return 0
}
