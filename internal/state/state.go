// Package state holds the persisted application state: the account key
// registry, nonce high-water marks, the hub ledger, and the per-session game
// records with their block-height TTLs.
package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"zkuno/internal/hub"
)

type State struct {
	Height int64 `json:"height"`

	// Admin may rotate the active verifier reference.
	Admin string `json:"admin,omitempty"`
	// VerifierID selects the active verifier from the node's registry.
	// Empty means no verifier is configured and every proof-checking call
	// fails with ZkVerifierNotSet.
	VerifierID string `json:"verifierId,omitempty"`

	AccountKeys map[string][]byte `json:"accountKeys,omitempty"` // account -> ed25519 pubkey (32 bytes)
	NonceMax    map[string]uint64 `json:"nonceMax,omitempty"`    // signer -> last accepted tx.nonce, for replay protection

	Games map[uint32]*Game `json:"games"`
	Hub   *hub.Ledger      `json:"hub"`
}

// Game is one UNO session. Hand contents never appear here: each player's
// hand exists only as its 32-byte keccak256 commitment.
type Game struct {
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
	P1Stake int64  `json:"p1Stake"`
	P2Stake int64  `json:"p2Stake"`

	// keccak256(hand_bytes || salt); nil until committed.
	HandHashP1 []byte `json:"handHashP1,omitempty"`
	HandHashP2 []byte `json:"handHashP2,omitempty"`

	TopColour uint8 `json:"topColour"`
	TopValue  uint8 `json:"topValue"`
	// ActiveColour may differ from TopColour after a wild.
	ActiveColour uint8 `json:"activeColour"`

	// 0 = player1's turn, 1 = player2's turn.
	CurrentTurn uint8 `json:"currentTurn"`
	// Index of the next card to deal from the deterministic deck.
	DrawCount uint32 `json:"drawCount"`

	// Set at most once; a set winner makes the session terminal.
	Winner string `json:"winner,omitempty"`

	// Block height after which the record is treated as absent. Extended on
	// every successful mutation.
	ExpiresAt int64 `json:"expiresAt"`
}

func (g *Game) Finished() bool {
	return g.Winner != ""
}

// Expired reports whether the record's TTL window has passed at height.
func (g *Game) Expired(height int64) bool {
	return g.ExpiresAt > 0 && height > g.ExpiresAt
}

// PlayerIndex returns 0 for player1, 1 for player2, -1 otherwise.
func (g *Game) PlayerIndex(account string) int {
	switch account {
	case g.Player1:
		return 0
	case g.Player2:
		return 1
	default:
		return -1
	}
}

// HandHash returns the stored commitment for player index 0 or 1.
func (g *Game) HandHash(idx int) []byte {
	if idx == 0 {
		return g.HandHashP1
	}
	return g.HandHashP2
}

// SetHandHash replaces the stored commitment for player index 0 or 1.
func (g *Game) SetHandHash(idx int, h []byte) {
	if idx == 0 {
		g.HandHashP1 = h
	} else {
		g.HandHashP2 = h
	}
}

func NewState() *State {
	return &State{
		Height:      0,
		AccountKeys: map[string][]byte{},
		NonceMax:    map[string]uint64{},
		Games:       map[uint32]*Game{},
		Hub:         hub.NewLedger(),
	}
}

func (s *State) normalize() {
	if s.AccountKeys == nil {
		s.AccountKeys = map[string][]byte{}
	}
	if s.NonceMax == nil {
		s.NonceMax = map[string]uint64{}
	}
	if s.Games == nil {
		s.Games = map[uint32]*Game{}
	}
	if s.Hub == nil {
		s.Hub = hub.NewLedger()
	}
	s.Hub.Normalize()
}

func Load(home string) (*State, error) {
	path := filepath.Join(home, "state.json")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	st.normalize()
	return &st, nil
}

func (s *State) Save(home string) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("mkdir home: %w", err)
	}
	path := filepath.Join(home, "state.json")
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Clone returns a deep copy suitable for staged tx execution: a tx is applied
// to the clone and the clone replaces the live state only on success.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state clone: %w", err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode state clone: %w", err)
	}
	out.normalize()
	return &out, nil
}

// AppHash hashes a normalized view of the state.
//
// encoding/json does not guarantee map key order, so maps are flattened into
// sorted slices before hashing.
func (s *State) AppHash() []byte {
	type accountKeyKV struct {
		Account string `json:"account"`
		PubKey  []byte `json:"pubKey"`
	}
	type nonceKV struct {
		Signer string `json:"signer"`
		Nonce  uint64 `json:"nonce"`
	}
	type gameKV struct {
		SessionID uint32 `json:"sessionId"`
		Game      *Game  `json:"game"`
	}
	type pointsKV struct {
		Account string `json:"account"`
		Points  int64  `json:"points"`
	}
	type matchKV struct {
		SessionID uint32     `json:"sessionId"`
		Match     *hub.Match `json:"match"`
	}

	accountKeys := make([]accountKeyKV, 0, len(s.AccountKeys))
	for k, v := range s.AccountKeys {
		accountKeys = append(accountKeys, accountKeyKV{Account: k, PubKey: v})
	}
	sort.Slice(accountKeys, func(i, j int) bool { return accountKeys[i].Account < accountKeys[j].Account })

	nonces := make([]nonceKV, 0, len(s.NonceMax))
	for k, v := range s.NonceMax {
		nonces = append(nonces, nonceKV{Signer: k, Nonce: v})
	}
	sort.Slice(nonces, func(i, j int) bool { return nonces[i].Signer < nonces[j].Signer })

	games := make([]gameKV, 0, len(s.Games))
	for id, g := range s.Games {
		games = append(games, gameKV{SessionID: id, Game: g})
	}
	sort.Slice(games, func(i, j int) bool { return games[i].SessionID < games[j].SessionID })

	points := make([]pointsKV, 0, len(s.Hub.Points))
	for k, v := range s.Hub.Points {
		points = append(points, pointsKV{Account: k, Points: v})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Account < points[j].Account })

	matches := make([]matchKV, 0, len(s.Hub.Matches))
	for id, m := range s.Hub.Matches {
		matches = append(matches, matchKV{SessionID: id, Match: m})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].SessionID < matches[j].SessionID })

	normalized := struct {
		Height      int64          `json:"height"`
		Admin       string         `json:"admin,omitempty"`
		VerifierID  string         `json:"verifierId,omitempty"`
		AccountKeys []accountKeyKV `json:"accountKeys,omitempty"`
		NonceMax    []nonceKV      `json:"nonceMax,omitempty"`
		Games       []gameKV       `json:"games"`
		Points      []pointsKV     `json:"points"`
		Matches     []matchKV      `json:"matches"`
	}{
		Height:      s.Height,
		Admin:       s.Admin,
		VerifierID:  s.VerifierID,
		AccountKeys: accountKeys,
		NonceMax:    nonces,
		Games:       games,
		Points:      points,
		Matches:     matches,
	}

	b, _ := json.Marshal(normalized)
	sum := sha256.Sum256(b)
	return sum[:]
}
