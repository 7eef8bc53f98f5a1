package unoerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStable(t *testing.T) {
	// Wire contract: these numbers ride in tx result codes and must never
	// be renumbered.
	want := map[Error]uint32{
		GameNotFound:           1,
		NotPlayer:              2,
		GameAlreadyEnded:       3,
		NotYourTurn:            4,
		HandNotCommitted:       5,
		InvalidHandHash:        6,
		CardNotInHand:          7,
		InvalidCard:            8,
		IllegalWildDraw4:       9,
		InvalidHandSize:        10,
		HandAlreadyCommitted:   11,
		ZkProofInvalid:         12,
		ZkVerifierNotSet:       13,
		ZkActiveColourMismatch: 14,
		ZkDrawCountMismatch:    15,
	}
	for e, code := range want {
		if uint32(e) != code {
			t.Errorf("%v = %d, want %d", e, uint32(e), code)
		}
		if e.Error() == "" {
			t.Errorf("code %d has no message", code)
		}
	}
}

func TestCode_UnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", NotYourTurn))
	if got := Code(err); got != uint32(NotYourTurn) {
		t.Fatalf("Code = %d, want %d", got, NotYourTurn)
	}
	if got := Code(errors.New("plain")); got != 0 {
		t.Fatalf("Code(plain) = %d, want 0", got)
	}
	if got := Code(nil); got != 0 {
		t.Fatalf("Code(nil) = %d, want 0", got)
	}
}
