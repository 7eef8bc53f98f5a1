// Package unocrypto holds the hashing domains and the dev-seal attestation
// scheme for the ZK-UNO protocol.
//
// Two hash domains are kept strictly apart:
//
//   - commitment domain: keccak256(hand_bytes || salt), binding a hidden hand
//     to its 32-byte on-chain fingerprint;
//   - journal domain: sha256(journal_bytes), the digest the verifier is asked
//     to accept for a given program id.
package unocrypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"golang.org/x/crypto/sha3"
)

const SaltBytes = 32

// Keccak256 computes the legacy (pre-NIST) keccak256 digest of the
// concatenation of chunks. This is the commitment-domain hash; it must match
// the guest programs bit for bit.
func Keccak256(chunks ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, c := range chunks {
		h.Write(c)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// CommitHand computes the hand commitment keccak256(hand || salt).
func CommitHand(hand []byte, salt [SaltBytes]byte) [32]byte {
	return Keccak256(hand, salt[:])
}

// JournalDigest computes the journal-domain digest sha256(journal). The
// verifier interface consumes this digest, never the raw journal.
func JournalDigest(journal []byte) [32]byte {
	return sha256.Sum256(journal)
}

// NewSalt draws a fresh commitment salt. Salts must never be reused across
// commitments: a repeated salt lets an observer grind hands offline and link
// commitments.
func NewSalt() ([SaltBytes]byte, error) {
	var salt [SaltBytes]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return [SaltBytes]byte{}, fmt.Errorf("salt: %w", err)
	}
	return salt, nil
}

var hashToScalarPrefix = []byte("zkuno/v1|hash_to_scalar|")

func updateLenBytes(h hash.Hash, b []byte) {
	h.Write(u32le(uint32(len(b))))
	h.Write(b)
}

// HashToScalar maps domain-separated messages to a uniformly distributed
// ristretto255 scalar.
func HashToScalar(domainSep string, msgs ...[]byte) (Scalar, error) {
	h := sha512.New()
	h.Write(hashToScalarPrefix)
	updateLenBytes(h, []byte(domainSep))
	for _, m := range msgs {
		if m == nil {
			return Scalar{}, fmt.Errorf("hashToScalar: nil msg")
		}
		updateLenBytes(h, m)
	}
	digest := h.Sum(nil) // 64 bytes
	return ScalarFromUniformBytes(digest)
}
