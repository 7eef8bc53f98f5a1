package app

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"zkuno/internal/codec"
	"zkuno/internal/state"
)

const (
	txAuthDomain    = "zkuno/tx/v1"
	startGameDomain = "zkuno/start_game/v1"
)

// TxAuthSignBytes is the message an account signs to authorize a tx envelope.
//
//	signBytes = DOMAIN || 0x00 || type || 0x00 || nonce_be64 || 0x00 || signer || 0x00 || sha256(value)
func TxAuthSignBytes(typ string, value []byte, nonce uint64, signer string) []byte {
	sum := sha256.Sum256(value)
	var nb [8]byte
	binary.BigEndian.PutUint64(nb[:], nonce)
	out := make([]byte, 0, len(txAuthDomain)+1+len(typ)+1+len(nb)+1+len(signer)+1+sha256.Size)
	out = append(out, []byte(txAuthDomain)...)
	out = append(out, 0)
	out = append(out, []byte(typ)...)
	out = append(out, 0)
	out = append(out, nb[:]...)
	out = append(out, 0)
	out = append(out, []byte(signer)...)
	out = append(out, 0)
	out = append(out, sum[:]...)
	return out
}

// StartGameSignBytes is the per-player authorization for opening a session.
// It covers the session id, both identities and the signing player's stake,
// so a captured signature cannot be replayed into a different session or with
// altered stakes.
func StartGameSignBytes(sessionID uint32, player1, player2, signer string, stake int64) []byte {
	var sb [4]byte
	binary.BigEndian.PutUint32(sb[:], sessionID)
	var stakeB [8]byte
	binary.BigEndian.PutUint64(stakeB[:], uint64(stake))
	out := make([]byte, 0, len(startGameDomain)+1+len(sb)+len(player1)+1+len(player2)+1+len(signer)+1+len(stakeB))
	out = append(out, []byte(startGameDomain)...)
	out = append(out, 0)
	out = append(out, sb[:]...)
	out = append(out, []byte(player1)...)
	out = append(out, 0)
	out = append(out, []byte(player2)...)
	out = append(out, 0)
	out = append(out, []byte(signer)...)
	out = append(out, 0)
	out = append(out, stakeB[:]...)
	return out
}

func requireSignedEnvelope(env codec.TxEnvelope) error {
	if env.Nonce == 0 {
		return fmt.Errorf("missing tx.nonce")
	}
	if env.Signer == "" {
		return fmt.Errorf("missing tx.signer")
	}
	if len(env.Sig) != ed25519.SignatureSize {
		return fmt.Errorf("invalid tx.sig length: got %d want %d", len(env.Sig), ed25519.SignatureSize)
	}
	return nil
}

// requireRegisterAccountAuth authorizes auth/register_account with the key
// being registered (the account does not exist yet).
func requireRegisterAccountAuth(env codec.TxEnvelope, msg codec.AuthRegisterAccountTx) error {
	if msg.Account == "" {
		return fmt.Errorf("missing account")
	}
	if len(msg.PubKey) != ed25519.PublicKeySize {
		return fmt.Errorf("pubKey must be %d bytes", ed25519.PublicKeySize)
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != msg.Account {
		return fmt.Errorf("tx signer mismatch: signer=%q want=%q", env.Signer, msg.Account)
	}
	msgBytes := TxAuthSignBytes(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(ed25519.PublicKey(msg.PubKey), msgBytes, env.Sig) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

// requireAccountAuth authorizes the envelope as account, using its registered
// key, and enforces the strictly-increasing nonce.
func requireAccountAuth(st *state.State, env codec.TxEnvelope, account string) error {
	if st == nil {
		return fmt.Errorf("state is nil")
	}
	if account == "" {
		return fmt.Errorf("missing account")
	}
	if err := requireSignedEnvelope(env); err != nil {
		return err
	}
	if env.Signer != account {
		return fmt.Errorf("tx signer mismatch: signer=%q want=%q", env.Signer, account)
	}
	pub := st.AccountKeys[account]
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("account %q missing pubKey (auth/register_account required)", account)
	}
	msg := TxAuthSignBytes(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(ed25519.PublicKey(pub), msg, env.Sig) {
		return fmt.Errorf("invalid signature")
	}
	if env.Nonce <= st.NonceMax[env.Signer] {
		return fmt.Errorf("stale nonce %d (last accepted %d)", env.Nonce, st.NonceMax[env.Signer])
	}
	st.NonceMax[env.Signer] = env.Nonce
	return nil
}

// requirePlayerAuth checks one player's start-game authorization signature.
func requirePlayerAuth(st *state.State, msg codec.StartGameTx, player string, stake int64, sig []byte) error {
	pub := st.AccountKeys[player]
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("player %q missing pubKey (auth/register_account required)", player)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("player %q auth: expected %d-byte signature", player, ed25519.SignatureSize)
	}
	signBytes := StartGameSignBytes(msg.SessionID, msg.Player1, msg.Player2, player, stake)
	if !ed25519.Verify(ed25519.PublicKey(pub), signBytes, sig) {
		return fmt.Errorf("player %q auth: invalid signature", player)
	}
	return nil
}
