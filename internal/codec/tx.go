package codec

import (
	"encoding/json"
	"fmt"
)

// TxEnvelope is the transaction container.
//
// CometBFT transactions are opaque bytes; we route on a JSON envelope.
//
// Auth fields:
//   - Nonce: included in the signed message for replay protection (must
//     strictly increase per signer).
//   - Signer: the account submitting the tx.
//   - Sig: Ed25519 signature over (type, nonce, signer, sha256(value)).
type TxEnvelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	Nonce  uint64 `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// ---- Auth ----

// Account pubkey registration; prerequisite for every signed operation.
type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
}

// ---- Admin ----

// SetVerifierTx selects the active verifier from the node's registry.
// Admin-gated.
type AdminSetVerifierTx struct {
	VerifierID string `json:"verifierId"`
}

// ---- Hub ----

// HubGrantPointsTx mints hub points to an account. Admin-gated.
type HubGrantPointsTx struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

// ---- UNO ----

// StartGameTx opens a session. Both players must separately authorize the
// session id and their own stake: Player1Auth/Player2Auth are Ed25519
// signatures over the start-game sign bytes, so neither stake can be altered
// or replayed into another session.
type StartGameTx struct {
	SessionID uint32 `json:"sessionId"`
	Player1   string `json:"player1"`
	Player2   string `json:"player2"`
	P1Stake   int64  `json:"p1Stake"`
	P2Stake   int64  `json:"p2Stake"`

	Player1Auth []byte `json:"player1Auth"` // base64 (64 bytes)
	Player2Auth []byte `json:"player2Auth"` // base64 (64 bytes)
}

type CommitHandTx struct {
	SessionID uint32 `json:"sessionId"`
	Player    string `json:"player"`
	HandHash  []byte `json:"handHash"` // base64 (32 bytes)
	Seal      []byte `json:"seal"`     // base64, opaque
}

type PlayCardTx struct {
	SessionID    uint32 `json:"sessionId"`
	Player       string `json:"player"`
	PlayedColour uint8  `json:"playedColour"`
	PlayedValue  uint8  `json:"playedValue"`
	WildColour   uint8  `json:"wildColour"`
	// ActiveColour the proof was generated against; must match game state.
	ActiveColour uint8  `json:"activeColour"`
	NewHandHash  []byte `json:"newHandHash"` // base64 (32 bytes)
	Seal         []byte `json:"seal"`
	IsWinner     bool   `json:"isWinner"`
	IsUno        bool   `json:"isUno"`
}

type DrawCardTx struct {
	SessionID uint32 `json:"sessionId"`
	Player    string `json:"player"`
	// DrawCount the proof was generated against; must match game state.
	DrawCount   uint32 `json:"drawCount"`
	NewHandHash []byte `json:"newHandHash"` // base64 (32 bytes)
	Seal        []byte `json:"seal"`
}

type DeclareUnoTx struct {
	SessionID uint32 `json:"sessionId"`
	Player    string `json:"player"`
	Seal      []byte `json:"seal"`
}
