// Package hub is the Game Hub ledger: the companion service that tracks
// points and match results across games. The state machine consumes it
// through StartGame when a session opens, then exactly one of EndGame (a
// winner was decided) or Abort (the session expired unresolved).
package hub

import "fmt"

// Match is one tracked game session on the hub.
type Match struct {
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
	P1Stake int64  `json:"p1Stake"`
	P2Stake int64  `json:"p2Stake"`

	Settled    bool `json:"settled"`
	Player1Won bool `json:"player1Won,omitempty"`
}

// Ledger is the in-state hub implementation: a points balance per account
// plus the match log. It is persisted as part of application state, so hub
// bookkeeping commits atomically with the game mutation that caused it.
type Ledger struct {
	Points  map[string]int64  `json:"points"`
	Matches map[uint32]*Match `json:"matches"`
}

func NewLedger() *Ledger {
	return &Ledger{
		Points:  map[string]int64{},
		Matches: map[uint32]*Match{},
	}
}

// Normalize repairs nil maps after JSON decoding.
func (l *Ledger) Normalize() {
	if l.Points == nil {
		l.Points = map[string]int64{}
	}
	if l.Matches == nil {
		l.Matches = map[uint32]*Match{}
	}
}

func (l *Ledger) Balance(account string) int64 {
	return l.Points[account]
}

func (l *Ledger) Grant(account string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("hub: grant amount must be positive")
	}
	l.Points[account] += amount
	return nil
}

func (l *Ledger) debit(account string, amount int64) error {
	bal := l.Points[account]
	if bal < amount {
		return fmt.Errorf("hub: insufficient points: %s has %d, needs %d", account, bal, amount)
	}
	l.Points[account] = bal - amount
	return nil
}

// StartGame escrows both stakes and records the open match.
func (l *Ledger) StartGame(sessionID uint32, player1, player2 string, p1Stake, p2Stake int64) error {
	if p1Stake < 0 || p2Stake < 0 {
		return fmt.Errorf("hub: negative stake")
	}
	if m := l.Matches[sessionID]; m != nil && !m.Settled {
		return fmt.Errorf("hub: session %d already open", sessionID)
	}
	if err := l.debit(player1, p1Stake); err != nil {
		return err
	}
	if err := l.debit(player2, p2Stake); err != nil {
		// Roll back the first escrow so a failed open is a no-op.
		l.Points[player1] += p1Stake
		return err
	}
	l.Matches[sessionID] = &Match{
		Player1: player1,
		Player2: player2,
		P1Stake: p1Stake,
		P2Stake: p2Stake,
	}
	return nil
}

// Abort returns both escrowed stakes and closes the match without a result.
// Used when a session expires before a winner is decided.
func (l *Ledger) Abort(sessionID uint32) error {
	m := l.Matches[sessionID]
	if m == nil {
		return fmt.Errorf("hub: session %d not found", sessionID)
	}
	if m.Settled {
		return fmt.Errorf("hub: session %d already settled", sessionID)
	}
	l.Points[m.Player1] += m.P1Stake
	l.Points[m.Player2] += m.P2Stake
	m.Settled = true
	return nil
}

// EndGame settles the escrowed pot to the winner and closes the match.
func (l *Ledger) EndGame(sessionID uint32, player1Won bool) error {
	m := l.Matches[sessionID]
	if m == nil {
		return fmt.Errorf("hub: session %d not found", sessionID)
	}
	if m.Settled {
		return fmt.Errorf("hub: session %d already settled", sessionID)
	}
	pot := m.P1Stake + m.P2Stake
	winner := m.Player2
	if player1Won {
		winner = m.Player1
	}
	l.Points[winner] += pot
	m.Settled = true
	m.Player1Won = player1Won
	return nil
}
