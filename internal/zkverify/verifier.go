// Package zkverify is the proof-verification seam.
//
// The state machine never inspects seals itself: it computes the expected
// journal digest and delegates to a Verifier bound to one of the four fixed
// program ids. A seal presented under the wrong program id must be rejected
// even if it is otherwise well formed.
package zkverify

import (
	"encoding/hex"

	"zkuno/internal/unoerr"
)

// ProgramID names one proof statement. The values are the image ids of the
// four guest program builds; they change only when a guest is rebuilt.
type ProgramID [32]byte

func (id ProgramID) String() string {
	return hex.EncodeToString(id[:])
}

// CommitProgramID is the hand-commitment statement (7 valid cards).
var CommitProgramID = ProgramID{
	0xb7, 0x21, 0x64, 0x47, 0x95, 0xbe, 0xce, 0x69,
	0xd9, 0x5e, 0x97, 0x52, 0x12, 0xf2, 0xd9, 0x6c,
	0xfb, 0x9d, 0xf1, 0x21, 0x27, 0xe8, 0xb3, 0x65,
	0x38, 0xab, 0xa6, 0x57, 0xb7, 0xcc, 0x3c, 0x08,
}

// MoveProgramID is the card-play statement.
var MoveProgramID = ProgramID{
	0x01, 0x84, 0xe7, 0x52, 0x61, 0x29, 0xc9, 0x3e,
	0x6a, 0x6c, 0xfa, 0x22, 0xe8, 0x26, 0x95, 0x4d,
	0xe3, 0xf5, 0x98, 0x57, 0x4d, 0xd5, 0xb9, 0x27,
	0x92, 0x93, 0xdb, 0x3a, 0x7f, 0x74, 0xc9, 0x62,
}

// DrawProgramID is the card-draw statement.
var DrawProgramID = ProgramID{
	0xca, 0xa5, 0xc9, 0x75, 0x2b, 0x08, 0x63, 0x13,
	0x2d, 0x41, 0xac, 0x6a, 0x21, 0xc5, 0xb3, 0x71,
	0x5e, 0x3a, 0xc3, 0x19, 0x49, 0x6d, 0x99, 0x36,
	0xfe, 0x24, 0xb7, 0x65, 0x92, 0xca, 0x70, 0x67,
}

// DeclareProgramID is the declare-UNO statement (exactly one valid card).
var DeclareProgramID = ProgramID{
	0xf3, 0x15, 0x81, 0x27, 0xcf, 0xb8, 0x13, 0x68,
	0x58, 0x4b, 0x80, 0x1e, 0xaa, 0x5c, 0x5e, 0x1b,
	0x88, 0x9b, 0x5b, 0x4c, 0x27, 0xed, 0x06, 0x0d,
	0xa6, 0xed, 0xfc, 0x3b, 0xcb, 0x02, 0xb3, 0x73,
}

// Verifier accepts or rejects a seal for (program id, journal digest).
// Any returned error is treated as proof-invalid by callers; there is no
// partially-accepted state.
type Verifier interface {
	Verify(seal []byte, programID ProgramID, journalDigest [32]byte) error
}

// ErrProofInvalid is the canonical rejection error.
var ErrProofInvalid = unoerr.ZkProofInvalid
