// Package journal defines the four proof journal layouts.
//
// A journal is the public output a guest program commits to; the state
// machine rebuilds the expected journal from on-chain state and submitted
// arguments, hashes it, and hands the digest to the verifier. Offsets and
// endianness are a frozen binary contract between the guest evaluators and
// the state machine — both sides encode through this package, and the fixed
// vectors in journal_test.go guard against drift.
package journal

import (
	"encoding/binary"
	"fmt"
)

const (
	CommitLen  = 36 // session_id(4) || hand_hash(32)
	MoveLen    = 74 // session_id(4) || old(32) || new(32) || 6 flag bytes
	DrawLen    = 72 // session_id(4) || old(32) || new(32) || draw_count(4)
	DeclareLen = 36 // session_id(4) || hand_hash(32)
)

// Commit is the hand-commitment journal.
//
//	[0:4]  session_id (be32)
//	[4:36] hand_hash
type Commit struct {
	SessionID uint32
	HandHash  [32]byte
}

func (j Commit) Bytes() []byte {
	out := make([]byte, CommitLen)
	binary.BigEndian.PutUint32(out[0:4], j.SessionID)
	copy(out[4:36], j.HandHash[:])
	return out
}

func DecodeCommit(b []byte) (Commit, error) {
	if len(b) != CommitLen {
		return Commit{}, fmt.Errorf("commit journal: expected %d bytes, got %d", CommitLen, len(b))
	}
	var j Commit
	j.SessionID = binary.BigEndian.Uint32(b[0:4])
	copy(j.HandHash[:], b[4:36])
	return j, nil
}

// Move is the card-play journal.
//
//	[0:4]   session_id (be32)
//	[4:36]  old_hand_hash
//	[36:68] new_hand_hash
//	[68]    played_colour
//	[69]    played_value
//	[70]    wild_colour
//	[71]    active_colour
//	[72]    is_winner
//	[73]    is_uno
type Move struct {
	SessionID    uint32
	OldHash      [32]byte
	NewHash      [32]byte
	PlayedColour uint8
	PlayedValue  uint8
	WildColour   uint8
	ActiveColour uint8
	IsWinner     bool
	IsUno        bool
}

func (j Move) Bytes() []byte {
	out := make([]byte, MoveLen)
	binary.BigEndian.PutUint32(out[0:4], j.SessionID)
	copy(out[4:36], j.OldHash[:])
	copy(out[36:68], j.NewHash[:])
	out[68] = j.PlayedColour
	out[69] = j.PlayedValue
	out[70] = j.WildColour
	out[71] = j.ActiveColour
	out[72] = boolByte(j.IsWinner)
	out[73] = boolByte(j.IsUno)
	return out
}

func DecodeMove(b []byte) (Move, error) {
	if len(b) != MoveLen {
		return Move{}, fmt.Errorf("move journal: expected %d bytes, got %d", MoveLen, len(b))
	}
	var j Move
	j.SessionID = binary.BigEndian.Uint32(b[0:4])
	copy(j.OldHash[:], b[4:36])
	copy(j.NewHash[:], b[36:68])
	j.PlayedColour = b[68]
	j.PlayedValue = b[69]
	j.WildColour = b[70]
	j.ActiveColour = b[71]
	var err error
	if j.IsWinner, err = byteBool(b[72], "is_winner"); err != nil {
		return Move{}, err
	}
	if j.IsUno, err = byteBool(b[73], "is_uno"); err != nil {
		return Move{}, err
	}
	return j, nil
}

// Draw is the card-draw journal.
//
//	[0:4]   session_id (be32)
//	[4:36]  old_hand_hash
//	[36:68] new_hand_hash
//	[68:72] draw_count (be32)
type Draw struct {
	SessionID uint32
	OldHash   [32]byte
	NewHash   [32]byte
	DrawCount uint32
}

func (j Draw) Bytes() []byte {
	out := make([]byte, DrawLen)
	binary.BigEndian.PutUint32(out[0:4], j.SessionID)
	copy(out[4:36], j.OldHash[:])
	copy(out[36:68], j.NewHash[:])
	binary.BigEndian.PutUint32(out[68:72], j.DrawCount)
	return out
}

func DecodeDraw(b []byte) (Draw, error) {
	if len(b) != DrawLen {
		return Draw{}, fmt.Errorf("draw journal: expected %d bytes, got %d", DrawLen, len(b))
	}
	var j Draw
	j.SessionID = binary.BigEndian.Uint32(b[0:4])
	copy(j.OldHash[:], b[4:36])
	copy(j.NewHash[:], b[36:68])
	j.DrawCount = binary.BigEndian.Uint32(b[68:72])
	return j, nil
}

// Declare is the declare-UNO journal. It shares the commit layout but is a
// distinct contract: it binds to the declare program id and to the player's
// live stored hash, never to a submitted one.
//
//	[0:4]  session_id (be32)
//	[4:36] hand_hash
type Declare struct {
	SessionID uint32
	HandHash  [32]byte
}

func (j Declare) Bytes() []byte {
	out := make([]byte, DeclareLen)
	binary.BigEndian.PutUint32(out[0:4], j.SessionID)
	copy(out[4:36], j.HandHash[:])
	return out
}

func DecodeDeclare(b []byte) (Declare, error) {
	if len(b) != DeclareLen {
		return Declare{}, fmt.Errorf("declare journal: expected %d bytes, got %d", DeclareLen, len(b))
	}
	var j Declare
	j.SessionID = binary.BigEndian.Uint32(b[0:4])
	copy(j.HandHash[:], b[4:36])
	return j, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func byteBool(b byte, field string) (bool, error) {
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("journal: %s byte must be 0 or 1, got %d", field, b)
	}
}
