package app

import (
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"zkuno/internal/cards"
	"zkuno/internal/codec"
	"zkuno/internal/journal"
	"zkuno/internal/state"
	"zkuno/internal/unocrypto"
	"zkuno/internal/unoerr"
	"zkuno/internal/zkverify"
)

// gameTTLBlocks is roughly 30 days at one block per 5 seconds. An expired
// record answers as if it never existed and is pruned at the next block
// boundary, refunding any unspent escrow.
const gameTTLBlocks int64 = 518_400

const handHashBytes = 32

// getGame resolves a live session. Expired records are indistinguishable
// from missing ones.
func getGame(st *state.State, sessionID uint32, height int64) (*state.Game, error) {
	g := st.Games[sessionID]
	if g == nil || g.Expired(height) {
		return nil, fmt.Errorf("session %d: %w", sessionID, unoerr.GameNotFound)
	}
	return g, nil
}

// activeVerifier resolves the state's verifier reference against the node's
// registry. Both an unset reference and an unknown id fail the same way so a
// misconfigured node cannot be tricked into skipping verification.
func (a *UnoApp) activeVerifier(st *state.State) (zkverify.Verifier, error) {
	if st.VerifierID == "" {
		return nil, fmt.Errorf("no verifier configured: %w", unoerr.ZkVerifierNotSet)
	}
	v := a.verifiers[st.VerifierID]
	if v == nil {
		return nil, fmt.Errorf("verifier %q not in registry: %w", st.VerifierID, unoerr.ZkVerifierNotSet)
	}
	return v, nil
}

func touchGame(g *state.Game, height int64) {
	g.ExpiresAt = height + gameTTLBlocks
}

func (a *UnoApp) startGame(st *state.State, env codec.TxEnvelope, msg codec.StartGameTx, height int64) (*abci.ExecTxResult, error) {
	if msg.Player1 == "" || msg.Player2 == "" {
		return nil, fmt.Errorf("missing player1/player2")
	}
	if msg.Player1 == msg.Player2 {
		return nil, fmt.Errorf("player1 and player2 must differ")
	}
	if msg.P1Stake < 0 || msg.P2Stake < 0 {
		return nil, fmt.Errorf("negative stake")
	}
	if env.Signer != msg.Player1 && env.Signer != msg.Player2 {
		return nil, fmt.Errorf("tx signer %q is not a session player", env.Signer)
	}
	if err := requireAccountAuth(st, env, env.Signer); err != nil {
		return nil, err
	}
	// Both players authorize the session terms, not just the submitter.
	if err := requirePlayerAuth(st, msg, msg.Player1, msg.P1Stake, msg.Player1Auth); err != nil {
		return nil, err
	}
	if err := requirePlayerAuth(st, msg, msg.Player2, msg.P2Stake, msg.Player2Auth); err != nil {
		return nil, err
	}

	if g := st.Games[msg.SessionID]; g != nil {
		if !g.Expired(height) {
			return nil, fmt.Errorf("session %d already exists", msg.SessionID)
		}
		delete(st.Games, msg.SessionID)
	}

	if err := st.Hub.StartGame(msg.SessionID, msg.Player1, msg.Player2, msg.P1Stake, msg.P2Stake); err != nil {
		return nil, err
	}

	opening := cards.OpeningCard(msg.SessionID)
	g := &state.Game{
		Player1:      msg.Player1,
		Player2:      msg.Player2,
		P1Stake:      msg.P1Stake,
		P2Stake:      msg.P2Stake,
		TopColour:    opening.Colour,
		TopValue:     opening.Value,
		ActiveColour: opening.Colour,
		CurrentTurn:  0,
		DrawCount:    cards.FirstDrawIndex,
	}
	touchGame(g, height)
	st.Games[msg.SessionID] = g

	return okEvent("GameStarted", map[string]string{
		"sessionId": fmt.Sprintf("%d", msg.SessionID),
		"player1":   msg.Player1,
		"player2":   msg.Player2,
		"topColour": fmt.Sprintf("%d", opening.Colour),
		"topValue":  fmt.Sprintf("%d", opening.Value),
		"expiresAt": fmt.Sprintf("%d", g.ExpiresAt),
	}), nil
}

func (a *UnoApp) commitHand(st *state.State, env codec.TxEnvelope, msg codec.CommitHandTx, height int64) (*abci.ExecTxResult, error) {
	if err := requireAccountAuth(st, env, msg.Player); err != nil {
		return nil, err
	}
	verifier, err := a.activeVerifier(st)
	if err != nil {
		return nil, err
	}
	g, err := getGame(st, msg.SessionID, height)
	if err != nil {
		return nil, err
	}
	if g.Finished() {
		return nil, fmt.Errorf("session %d: %w", msg.SessionID, unoerr.GameAlreadyEnded)
	}
	idx := g.PlayerIndex(msg.Player)
	if idx < 0 {
		return nil, fmt.Errorf("%s in session %d: %w", msg.Player, msg.SessionID, unoerr.NotPlayer)
	}
	if g.HandHash(idx) != nil {
		return nil, fmt.Errorf("%s in session %d: %w", msg.Player, msg.SessionID, unoerr.HandAlreadyCommitted)
	}
	if len(msg.HandHash) != handHashBytes {
		return nil, fmt.Errorf("handHash must be %d bytes: %w", handHashBytes, unoerr.InvalidHandHash)
	}

	j := journal.Commit{SessionID: msg.SessionID, HandHash: [32]byte(msg.HandHash)}
	digest := unocrypto.JournalDigest(j.Bytes())
	if err := verifier.Verify(msg.Seal, zkverify.CommitProgramID, digest); err != nil {
		return nil, err
	}

	g.SetHandHash(idx, msg.HandHash)
	touchGame(g, height)

	return okEvent("HandCommitted", map[string]string{
		"sessionId": fmt.Sprintf("%d", msg.SessionID),
		"player":    msg.Player,
	}), nil
}

func (a *UnoApp) playCard(st *state.State, env codec.TxEnvelope, msg codec.PlayCardTx, height int64) (*abci.ExecTxResult, error) {
	if err := requireAccountAuth(st, env, msg.Player); err != nil {
		return nil, err
	}
	g, err := getGame(st, msg.SessionID, height)
	if err != nil {
		return nil, err
	}
	if g.Finished() {
		return nil, fmt.Errorf("session %d: %w", msg.SessionID, unoerr.GameAlreadyEnded)
	}
	idx := g.PlayerIndex(msg.Player)
	if idx < 0 {
		return nil, fmt.Errorf("%s in session %d: %w", msg.Player, msg.SessionID, unoerr.NotPlayer)
	}
	if uint8(idx) != g.CurrentTurn {
		return nil, fmt.Errorf("%s in session %d: %w", msg.Player, msg.SessionID, unoerr.NotYourTurn)
	}

	played := cards.Card{Colour: msg.PlayedColour, Value: msg.PlayedValue}
	if !played.Valid() {
		return nil, fmt.Errorf("played %v: %w", played, unoerr.InvalidCard)
	}
	if !cards.CanPlay(msg.PlayedColour, msg.PlayedValue, g.ActiveColour, g.TopValue) {
		return nil, fmt.Errorf("%v on active=%d top=%d: %w",
			played, g.ActiveColour, g.TopValue, unoerr.InvalidCard)
	}
	// The proof was generated against a snapshot of the active colour; a
	// stale snapshot must fail here, not verify against the wrong statement.
	if msg.ActiveColour != g.ActiveColour {
		return nil, fmt.Errorf("activeColour %d, state has %d: %w",
			msg.ActiveColour, g.ActiveColour, unoerr.ZkActiveColourMismatch)
	}
	oldHash := g.HandHash(idx)
	if oldHash == nil {
		return nil, fmt.Errorf("%s in session %d: %w", msg.Player, msg.SessionID, unoerr.HandNotCommitted)
	}
	if len(msg.NewHandHash) != handHashBytes {
		return nil, fmt.Errorf("newHandHash must be %d bytes: %w", handHashBytes, unoerr.InvalidHandHash)
	}

	verifier, err := a.activeVerifier(st)
	if err != nil {
		return nil, err
	}
	j := journal.Move{
		SessionID:    msg.SessionID,
		OldHash:      [32]byte(oldHash),
		NewHash:      [32]byte(msg.NewHandHash),
		PlayedColour: msg.PlayedColour,
		PlayedValue:  msg.PlayedValue,
		WildColour:   msg.WildColour,
		ActiveColour: msg.ActiveColour,
		IsWinner:     msg.IsWinner,
		IsUno:        msg.IsUno,
	}
	digest := unocrypto.JournalDigest(j.Bytes())
	if err := verifier.Verify(msg.Seal, zkverify.MoveProgramID, digest); err != nil {
		return nil, err
	}

	g.SetHandHash(idx, msg.NewHandHash)
	g.TopColour = msg.PlayedColour
	g.TopValue = msg.PlayedValue
	if played.Colour == cards.Wild {
		g.ActiveColour = msg.WildColour % 4
	} else {
		g.ActiveColour = msg.PlayedColour
	}

	attrs := map[string]string{
		"sessionId":    fmt.Sprintf("%d", msg.SessionID),
		"player":       msg.Player,
		"colour":       fmt.Sprintf("%d", msg.PlayedColour),
		"value":        fmt.Sprintf("%d", msg.PlayedValue),
		"activeColour": fmt.Sprintf("%d", g.ActiveColour),
		"isUno":        fmt.Sprintf("%t", msg.IsUno),
	}

	// A winning play ends the session before card effects: the terminal
	// record keeps the deck cursor and turn exactly as they stood.
	if msg.IsWinner {
		g.Winner = msg.Player
		if err := st.Hub.EndGame(msg.SessionID, idx == 0); err != nil {
			return nil, err
		}
		attrs["winner"] = msg.Player
		touchGame(g, height)
		return okEvent("CardPlayed", attrs), nil
	}

	applyCardEffects(g, msg.PlayedValue)
	touchGame(g, height)

	return okEvent("CardPlayed", attrs), nil
}

// applyCardEffects advances the deck cursor for draw penalties and decides
// whose turn is next. In two-player UNO every action card keeps the turn:
// Skip skips the opponent, Reverse comes straight back, and Draw Two / Wild
// Draw 4 cost the opponent their turn while drawing.
func applyCardEffects(g *state.Game, playedValue uint8) {
	switch playedValue {
	case cards.DrawTwo:
		g.DrawCount += 2
	case cards.WildDraw4:
		g.DrawCount += 4
	}
	switch playedValue {
	case cards.Skip, cards.Reverse, cards.DrawTwo, cards.WildDraw4:
		// Turn holds.
	default:
		g.CurrentTurn = 1 - g.CurrentTurn
	}
}

func (a *UnoApp) drawCard(st *state.State, env codec.TxEnvelope, msg codec.DrawCardTx, height int64) (*abci.ExecTxResult, error) {
	if err := requireAccountAuth(st, env, msg.Player); err != nil {
		return nil, err
	}
	g, err := getGame(st, msg.SessionID, height)
	if err != nil {
		return nil, err
	}
	if g.Finished() {
		return nil, fmt.Errorf("session %d: %w", msg.SessionID, unoerr.GameAlreadyEnded)
	}
	idx := g.PlayerIndex(msg.Player)
	if idx < 0 {
		return nil, fmt.Errorf("%s in session %d: %w", msg.Player, msg.SessionID, unoerr.NotPlayer)
	}
	if uint8(idx) != g.CurrentTurn {
		return nil, fmt.Errorf("%s in session %d: %w", msg.Player, msg.SessionID, unoerr.NotYourTurn)
	}
	// The proof fixes which deck index was drawn; it must be the next one.
	if msg.DrawCount != g.DrawCount {
		return nil, fmt.Errorf("drawCount %d, state has %d: %w",
			msg.DrawCount, g.DrawCount, unoerr.ZkDrawCountMismatch)
	}
	oldHash := g.HandHash(idx)
	if oldHash == nil {
		return nil, fmt.Errorf("%s in session %d: %w", msg.Player, msg.SessionID, unoerr.HandNotCommitted)
	}
	if len(msg.NewHandHash) != handHashBytes {
		return nil, fmt.Errorf("newHandHash must be %d bytes: %w", handHashBytes, unoerr.InvalidHandHash)
	}

	verifier, err := a.activeVerifier(st)
	if err != nil {
		return nil, err
	}
	j := journal.Draw{
		SessionID: msg.SessionID,
		OldHash:   [32]byte(oldHash),
		NewHash:   [32]byte(msg.NewHandHash),
		DrawCount: g.DrawCount,
	}
	digest := unocrypto.JournalDigest(j.Bytes())
	if err := verifier.Verify(msg.Seal, zkverify.DrawProgramID, digest); err != nil {
		return nil, err
	}

	g.SetHandHash(idx, msg.NewHandHash)
	g.DrawCount++
	g.CurrentTurn = 1 - g.CurrentTurn
	touchGame(g, height)

	return okEvent("CardDrawn", map[string]string{
		"sessionId": fmt.Sprintf("%d", msg.SessionID),
		"player":    msg.Player,
		"drawCount": fmt.Sprintf("%d", g.DrawCount),
	}), nil
}

func (a *UnoApp) declareUno(st *state.State, env codec.TxEnvelope, msg codec.DeclareUnoTx, height int64) (*abci.ExecTxResult, error) {
	if err := requireAccountAuth(st, env, msg.Player); err != nil {
		return nil, err
	}
	g, err := getGame(st, msg.SessionID, height)
	if err != nil {
		return nil, err
	}
	if g.Finished() {
		return nil, fmt.Errorf("session %d: %w", msg.SessionID, unoerr.GameAlreadyEnded)
	}
	idx := g.PlayerIndex(msg.Player)
	if idx < 0 {
		return nil, fmt.Errorf("%s in session %d: %w", msg.Player, msg.SessionID, unoerr.NotPlayer)
	}
	verifier, err := a.activeVerifier(st)
	if err != nil {
		return nil, err
	}
	handHash := g.HandHash(idx)
	if handHash == nil {
		return nil, fmt.Errorf("%s in session %d: %w", msg.Player, msg.SessionID, unoerr.HandNotCommitted)
	}

	j := journal.Declare{SessionID: msg.SessionID, HandHash: [32]byte(handHash)}
	digest := unocrypto.JournalDigest(j.Bytes())
	if err := verifier.Verify(msg.Seal, zkverify.DeclareProgramID, digest); err != nil {
		return nil, err
	}

	// Declaring mutates nothing: the event is the announcement.
	return okEvent("UnoDeclared", map[string]string{
		"sessionId": fmt.Sprintf("%d", msg.SessionID),
		"player":    msg.Player,
	}), nil
}

// pruneExpired removes games past their TTL and refunds unsettled escrow.
func pruneExpired(st *state.State, height int64) []uint32 {
	var pruned []uint32
	for id, g := range st.Games {
		if !g.Expired(height) {
			continue
		}
		if m := st.Hub.Matches[id]; m != nil && !m.Settled {
			// Abort cannot fail on an open match.
			_ = st.Hub.Abort(id)
		}
		delete(st.Games, id)
		pruned = append(pruned, id)
	}
	return pruned
}
