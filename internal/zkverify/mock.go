package zkverify

import "fmt"

// Mock accepts every (seal, program id, digest) unconditionally.
//
// It exists so the state machine can be exercised without a proof backend.
// It provides no security whatsoever and must never be reachable from a
// production configuration; the node only registers it behind an explicit
// dev switch.
type Mock struct{}

func (Mock) Verify(_ []byte, _ ProgramID, _ [32]byte) error {
	return nil
}

// Reject refuses every seal. Test double for the rejection path.
type Reject struct{}

func (Reject) Verify(_ []byte, _ ProgramID, _ [32]byte) error {
	return fmt.Errorf("reject verifier: %w", ErrProofInvalid)
}
