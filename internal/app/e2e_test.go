package app

import (
	"testing"

	"zkuno/internal/cards"
	"zkuno/internal/codec"
	"zkuno/internal/guest"
	"zkuno/internal/prover"
	"zkuno/internal/unocrypto"
	"zkuno/internal/unoerr"
	"zkuno/internal/zkverify"
)

// End-to-end flow with the real proving path: the Local host executes the
// guest statements and seals journals, and the chain runs the paired Attest
// verifier. Nothing here touches the mock.

func e2eChain(t *testing.T) (*testChain, *prover.Local) {
	t.Helper()
	key, err := unocrypto.AttestKeyFromSeed([]byte("e2e attest key"))
	if err != nil {
		t.Fatal(err)
	}
	host := prover.NewLocal(key)
	c := newTestChain(t, map[string]zkverify.Verifier{"attest": host.Verifier()})
	c.register("admin")
	c.register("alice")
	c.register("bob")
	c.setVerifier("attest")
	c.grant("alice", 100)
	c.grant("bob", 100)
	return c, host
}

// initialHand deals the deterministic 7-card hand for player index 0 or 1.
func initialHand(sessionID uint32, player int) []byte {
	out := make([]byte, 0, cards.InitialHandSize*cards.BytesPerCard)
	base := uint32(player * cards.InitialHandSize)
	for i := uint32(0); i < cards.InitialHandSize; i++ {
		c := cards.DeriveCard(sessionID, base+i)
		out = append(out, c.Colour, c.Value)
	}
	return out
}

func testSalt(fill byte) [unocrypto.SaltBytes]byte {
	var s [unocrypto.SaltBytes]byte
	for i := range s {
		s[i] = fill
	}
	return s
}

func (c *testChain) proveAndCommit(t *testing.T, host *prover.Local, sessionID uint32, player string, hand []byte, salt [unocrypto.SaltBytes]byte) [32]byte {
	t.Helper()
	hash := unocrypto.CommitHand(hand, salt)
	proof, err := host.Execute(zkverify.CommitProgramID, guest.CommitInputs{
		Hand:         hand,
		Salt:         salt,
		SessionID:    sessionID,
		ExpectedHash: hash,
	})
	if err != nil {
		t.Fatalf("prove commit for %s: %v", player, err)
	}
	mustOk(t, c.deliverOne(c.signedTx(player, "uno/commit_hand", codec.CommitHandTx{
		SessionID: sessionID,
		Player:    player,
		HandHash:  hash[:],
		Seal:      proof.Seal,
	})))
	return hash
}

// playableSession finds a session id where player2's dealt hand holds a card
// the move guest will actually prove against the opening discard.
func playableSession(t *testing.T) (sessionID uint32, card cards.Card) {
	t.Helper()
	for sid := uint32(1); sid < 500; sid++ {
		opening := cards.OpeningCard(sid)
		hand := initialHand(sid, 1)
		parsed, err := cards.DecodeHand(hand)
		if err != nil {
			t.Fatal(err)
		}
		for _, cd := range parsed {
			if !cards.CanPlay(cd.Colour, cd.Value, opening.Colour, opening.Value) {
				continue
			}
			if cd.Value == cards.WildDraw4 && cards.HasMatchingColour(hand, opening.Colour) {
				continue
			}
			return sid, cd
		}
	}
	t.Fatal("no session with a playable player2 hand in range")
	return 0, cards.Card{}
}

func TestEndToEnd_CommitDrawPlay(t *testing.T) {
	c, host := e2eChain(t)
	sid, playCard := playableSession(t)
	mustOk(t, c.startGame(sid, "alice", "bob", 10, 10))

	aliceHand := initialHand(sid, 0)
	bobHand := initialHand(sid, 1)
	aliceSalt, bobSalt := testSalt(1), testSalt(2)

	c.proveAndCommit(t, host, sid, "alice", aliceHand, aliceSalt)
	c.proveAndCommit(t, host, sid, "bob", bobHand, bobSalt)

	// Alice draws the next deck card.
	g := c.game(sid)
	drawn := cards.DeriveCard(sid, g.DrawCount)
	newAlice := append(append([]byte(nil), aliceHand...), drawn.Colour, drawn.Value)
	newAliceSalt := testSalt(3)
	proof, err := host.Execute(zkverify.DrawProgramID, guest.DrawInputs{
		OldHand:   aliceHand,
		OldSalt:   aliceSalt,
		NewHand:   newAlice,
		NewSalt:   newAliceSalt,
		SessionID: sid,
		DrawCount: g.DrawCount,
	})
	if err != nil {
		t.Fatalf("prove draw: %v", err)
	}
	newAliceHash := unocrypto.CommitHand(newAlice, newAliceSalt)
	mustOk(t, c.deliverOne(c.signedTx("alice", "uno/draw_card", codec.DrawCardTx{
		SessionID:   sid,
		Player:      "alice",
		DrawCount:   g.DrawCount,
		NewHandHash: newAliceHash[:],
		Seal:        proof.Seal,
	})))

	g = c.game(sid)
	if g.CurrentTurn != 1 {
		t.Fatalf("turn = %d after alice's draw, want 1", g.CurrentTurn)
	}

	// Bob plays his provable card.
	wildColour := uint8(0)
	if playCard.Colour == cards.Wild {
		wildColour = cards.Green
	}
	newBob, err := cards.RemoveFirst(bobHand, playCard.Colour, playCard.Value)
	if err != nil {
		t.Fatal(err)
	}
	newBobSalt := testSalt(4)
	proof, err = host.Execute(zkverify.MoveProgramID, guest.MoveInputs{
		OldHand:      bobHand,
		OldSalt:      bobSalt,
		NewHand:      newBob,
		NewSalt:      newBobSalt,
		SessionID:    sid,
		PlayedColour: playCard.Colour,
		PlayedValue:  playCard.Value,
		WildColour:   wildColour,
		ActiveColour: g.ActiveColour,
	})
	if err != nil {
		t.Fatalf("prove move: %v", err)
	}
	newBobHash := unocrypto.CommitHand(newBob, newBobSalt)
	mustOk(t, c.deliverOne(c.signedTx("bob", "uno/play_card", codec.PlayCardTx{
		SessionID:    sid,
		Player:       "bob",
		PlayedColour: playCard.Colour,
		PlayedValue:  playCard.Value,
		WildColour:   wildColour,
		ActiveColour: g.ActiveColour,
		NewHandHash:  newBobHash[:],
		Seal:         proof.Seal,
	})))

	g = c.game(sid)
	if g.TopColour != playCard.Colour || g.TopValue != playCard.Value {
		t.Errorf("top = (%d,%d), want %v", g.TopColour, g.TopValue, playCard)
	}
	wantActive := playCard.Colour
	if playCard.Colour == cards.Wild {
		wantActive = wildColour
	}
	if g.ActiveColour != wantActive {
		t.Errorf("activeColour = %d, want %d", g.ActiveColour, wantActive)
	}
	if string(g.HandHashP2) != string(newBobHash[:]) {
		t.Error("bob's commitment not replaced")
	}
}

func TestEndToEnd_ForgedSealRejected(t *testing.T) {
	c, host := e2eChain(t)
	const sid = 1
	mustOk(t, c.startGame(sid, "alice", "bob", 10, 10))

	aliceHand := initialHand(sid, 0)
	aliceSalt := testSalt(1)
	c.proveAndCommit(t, host, sid, "alice", aliceHand, aliceSalt)
	c.proveAndCommit(t, host, sid, "bob", initialHand(sid, 1), testSalt(2))

	// Honest draw journal, but the seal was minted by a different key.
	otherKey, err := unocrypto.AttestKeyFromSeed([]byte("not the chain's key"))
	if err != nil {
		t.Fatal(err)
	}
	forger := prover.NewLocal(otherKey)

	g := c.game(sid)
	drawn := cards.DeriveCard(sid, g.DrawCount)
	newHand := append(append([]byte(nil), aliceHand...), drawn.Colour, drawn.Value)
	newSalt := testSalt(3)
	proof, err := forger.Execute(zkverify.DrawProgramID, guest.DrawInputs{
		OldHand:   aliceHand,
		OldSalt:   aliceSalt,
		NewHand:   newHand,
		NewSalt:   newSalt,
		SessionID: sid,
		DrawCount: g.DrawCount,
	})
	if err != nil {
		t.Fatal(err)
	}
	newHash := unocrypto.CommitHand(newHand, newSalt)
	res := c.deliverOne(c.signedTx("alice", "uno/draw_card", codec.DrawCardTx{
		SessionID:   sid,
		Player:      "alice",
		DrawCount:   g.DrawCount,
		NewHandHash: newHash[:],
		Seal:        proof.Seal,
	}))
	wantCode(t, res, uint32(unoerr.ZkProofInvalid))

	if c.game(sid).DrawCount != g.DrawCount {
		t.Fatal("forged seal advanced the deck cursor")
	}
}

func TestEndToEnd_JournalBindsSubmittedFields(t *testing.T) {
	// A proof for one new-hand commitment must not authorize a different
	// submitted hash: the chain rebuilds the journal from the tx fields, so
	// the digest shifts and the honest seal stops verifying.
	c, host := e2eChain(t)
	const sid = 1
	mustOk(t, c.startGame(sid, "alice", "bob", 10, 10))

	aliceHand := initialHand(sid, 0)
	aliceSalt := testSalt(1)
	c.proveAndCommit(t, host, sid, "alice", aliceHand, aliceSalt)
	c.proveAndCommit(t, host, sid, "bob", initialHand(sid, 1), testSalt(2))

	g := c.game(sid)
	drawn := cards.DeriveCard(sid, g.DrawCount)
	newHand := append(append([]byte(nil), aliceHand...), drawn.Colour, drawn.Value)
	proof, err := host.Execute(zkverify.DrawProgramID, guest.DrawInputs{
		OldHand:   aliceHand,
		OldSalt:   aliceSalt,
		NewHand:   newHand,
		NewSalt:   testSalt(3),
		SessionID: sid,
		DrawCount: g.DrawCount,
	})
	if err != nil {
		t.Fatal(err)
	}

	res := c.deliverOne(c.signedTx("alice", "uno/draw_card", codec.DrawCardTx{
		SessionID:   sid,
		Player:      "alice",
		DrawCount:   g.DrawCount,
		NewHandHash: fakeHash(0x66), // not the hash the proof committed
		Seal:        proof.Seal,
	}))
	wantCode(t, res, uint32(unoerr.ZkProofInvalid))
}
