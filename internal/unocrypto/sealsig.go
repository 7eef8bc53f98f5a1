package unocrypto

import (
	"crypto/rand"
	"fmt"
)

// Dev-seal attestation.
//
// The local prover host cannot produce real zkVM seals, so it attests each
// journal it executed with a Schnorr signature over (program_id, journal
// digest). The paired verifier accepts a seal only if it was produced by the
// holder of the attestation key for exactly that program id and digest. This
// preserves the verification seam of the production router (seal, program id,
// journal digest) while being honest about its trust model: soundness rests
// on the prover host, not on a proof system.

const SealBytes = 64 // R(32) || s(32)

const sealSigDomain = "zkuno/v1/seal-attest"

// AttestKey is a dev-seal signing key.
type AttestKey struct {
	x   Scalar
	pub Point
}

// GenerateAttestKey draws a fresh attestation keypair.
func GenerateAttestKey() (*AttestKey, error) {
	var uni [64]byte
	if _, err := rand.Read(uni[:]); err != nil {
		return nil, fmt.Errorf("attest key: %w", err)
	}
	x, err := ScalarFromUniformBytes(uni[:])
	if err != nil {
		return nil, err
	}
	if x.IsZero() {
		return nil, fmt.Errorf("attest key: zero scalar")
	}
	return &AttestKey{x: x, pub: MulBase(x)}, nil
}

// AttestKeyFromSeed derives a keypair deterministically from seed bytes.
// Used for fixed test identities.
func AttestKeyFromSeed(seed []byte) (*AttestKey, error) {
	x, err := HashToScalar(sealSigDomain+"/keygen", seed)
	if err != nil {
		return nil, err
	}
	if x.IsZero() {
		return nil, fmt.Errorf("attest key: zero scalar")
	}
	return &AttestKey{x: x, pub: MulBase(x)}, nil
}

func (k *AttestKey) Public() Point {
	return k.pub
}

func sealChallenge(pub Point, r Point, programID [32]byte, digest [32]byte) (Scalar, error) {
	tr := NewTranscript(sealSigDomain)
	_ = tr.AppendMessage("pub", pub.Bytes())
	_ = tr.AppendMessage("r", r.Bytes())
	_ = tr.AppendMessage("program_id", programID[:])
	_ = tr.AppendMessage("journal_digest", digest[:])
	return tr.ChallengeScalar("e")
}

// SignSeal produces a 64-byte seal R || s with s = k + e*x. The nonce is
// derived deterministically from the key and message, so signing never needs
// an entropy source and identical inputs yield identical seals.
func (k *AttestKey) SignSeal(programID [32]byte, journalDigest [32]byte) ([]byte, error) {
	nonce, err := HashToScalar(sealSigDomain+"/nonce", k.x.Bytes(), programID[:], journalDigest[:])
	if err != nil {
		return nil, err
	}
	if nonce.IsZero() {
		return nil, fmt.Errorf("seal sign: zero nonce")
	}
	r := MulBase(nonce)
	e, err := sealChallenge(k.pub, r, programID, journalDigest)
	if err != nil {
		return nil, err
	}
	s := ScalarAdd(nonce, ScalarMul(e, k.x))
	return concatBytes(r.Bytes(), s.Bytes()), nil
}

// VerifySeal checks a dev seal against the attestation public key.
// Check: s*G == R + e*pub.
func VerifySeal(pub Point, seal []byte, programID [32]byte, journalDigest [32]byte) (bool, error) {
	if len(seal) != SealBytes {
		return false, fmt.Errorf("seal: expected %d bytes, got %d", SealBytes, len(seal))
	}
	r, err := PointFromBytesCanonical(seal[0:32])
	if err != nil {
		return false, err
	}
	s, err := ScalarFromBytesCanonical(seal[32:64])
	if err != nil {
		return false, err
	}
	e, err := sealChallenge(pub, r, programID, journalDigest)
	if err != nil {
		return false, err
	}
	lhs := MulBase(s)
	rhs := PointAdd(r, MulPoint(pub, e))
	return PointEq(lhs, rhs), nil
}
