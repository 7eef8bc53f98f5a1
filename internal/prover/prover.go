// Package prover is the proof-generation host seam.
//
// A Host executes one of the four guest programs against private and public
// inputs and returns the proof artifacts: the journal the guest committed and
// an opaque seal for the on-chain verifier. Proving may be slow and runs
// entirely off the state-machine path; a failed execution means the inputs
// could never satisfy the statement, and the caller must rebuild them rather
// than retry.
package prover

import (
	"fmt"

	"zkuno/internal/guest"
	"zkuno/internal/unocrypto"
	"zkuno/internal/zkverify"
)

// Proof is the pair a host returns for a successful execution.
type Proof struct {
	Journal []byte
	Seal    []byte
}

// Host runs a guest program identified by programID. The input must be the
// guest.*Inputs type matching the program id; anything else is rejected
// before execution.
type Host interface {
	Execute(programID zkverify.ProgramID, inputs any) (Proof, error)
}

// Local executes guests in-process and seals journals with a Schnorr
// attestation key. Pairs with zkverify.Attest for dev and test deployments;
// a production deployment replaces it with a client for a real proving
// service behind the same Host interface.
type Local struct {
	key *unocrypto.AttestKey
}

func NewLocal(key *unocrypto.AttestKey) *Local {
	return &Local{key: key}
}

// Verifier returns the verifier that accepts this host's seals.
func (l *Local) Verifier() zkverify.Attest {
	return zkverify.NewAttest(l.key.Public())
}

func (l *Local) Execute(programID zkverify.ProgramID, inputs any) (Proof, error) {
	jb, err := run(programID, inputs)
	if err != nil {
		return Proof{}, err
	}
	seal, err := l.key.SignSeal(programID, unocrypto.JournalDigest(jb))
	if err != nil {
		return Proof{}, fmt.Errorf("prover: seal: %w", err)
	}
	return Proof{Journal: jb, Seal: seal}, nil
}

func run(programID zkverify.ProgramID, inputs any) ([]byte, error) {
	switch in := inputs.(type) {
	case guest.CommitInputs:
		if programID != zkverify.CommitProgramID {
			return nil, programMismatch(programID, "commit")
		}
		return guest.CommitHand(in)
	case guest.MoveInputs:
		if programID != zkverify.MoveProgramID {
			return nil, programMismatch(programID, "move")
		}
		return guest.Move(in)
	case guest.DrawInputs:
		if programID != zkverify.DrawProgramID {
			return nil, programMismatch(programID, "draw")
		}
		return guest.Draw(in)
	case guest.DeclareInputs:
		if programID != zkverify.DeclareProgramID {
			return nil, programMismatch(programID, "declare")
		}
		return guest.DeclareUno(in)
	default:
		return nil, fmt.Errorf("prover: unknown input type %T", inputs)
	}
}

func programMismatch(id zkverify.ProgramID, want string) error {
	return fmt.Errorf("prover: program id %s does not run %s inputs", id, want)
}
