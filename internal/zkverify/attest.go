package zkverify

import (
	"fmt"

	"zkuno/internal/unocrypto"
)

// Attest verifies dev seals: Schnorr attestations produced by a local prover
// host over (program id, journal digest). Sound only as far as the host that
// holds the attestation key is trusted; it is the dev-mode stand-in for the
// production proof router.
type Attest struct {
	Pub unocrypto.Point
}

func NewAttest(pub unocrypto.Point) Attest {
	return Attest{Pub: pub}
}

func (a Attest) Verify(seal []byte, programID ProgramID, journalDigest [32]byte) error {
	ok, err := unocrypto.VerifySeal(a.Pub, seal, programID, journalDigest)
	if err != nil {
		return fmt.Errorf("attest verifier: %v: %w", err, ErrProofInvalid)
	}
	if !ok {
		return fmt.Errorf("attest verifier: bad attestation: %w", ErrProofInvalid)
	}
	return nil
}
