// Package app is the ABCI state machine for hidden-hand UNO. Hands never
// enter state: every mutation of a commitment is gated on a verified proof
// journal, and the machine stores only the 32-byte commitments plus the
// public discard / turn / deck-cursor fields.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/rs/zerolog"

	"zkuno/internal/cards"
	"zkuno/internal/codec"
	"zkuno/internal/state"
	"zkuno/internal/unoerr"
	"zkuno/internal/zkverify"
)

const (
	AppVersion uint64 = 1

	// codeTxInvalid covers structural failures (bad envelope, bad auth,
	// malformed values). It is outside the game error taxonomy so it can
	// never alias a game error code.
	codeTxInvalid uint32 = 100
)

// Options configures a node's app instance. The verifier registry is
// node-local; which entry is active is consensus state (set_verifier).
type Options struct {
	// Admin may rotate the verifier reference and grant hub points.
	Admin string
	// Verifiers maps verifier ids to implementations.
	Verifiers map[string]zkverify.Verifier
	Logger    zerolog.Logger
}

type UnoApp struct {
	*abci.BaseApplication

	home      string
	admin     string
	verifiers map[string]zkverify.Verifier
	log       zerolog.Logger

	mu       sync.Mutex
	st       *state.State
	lastHash []byte
}

func New(home string, opts Options) (*UnoApp, error) {
	appHome := filepath.Join(home, "app")
	st, err := state.Load(appHome)
	if err != nil {
		return nil, err
	}
	if st.Admin == "" {
		st.Admin = opts.Admin
	}
	verifiers := opts.Verifiers
	if verifiers == nil {
		verifiers = map[string]zkverify.Verifier{}
	}
	a := &UnoApp{
		BaseApplication: abci.NewBaseApplication(),
		home:            home,
		admin:           opts.Admin,
		verifiers:       verifiers,
		log:             opts.Logger,
		st:              st,
		lastHash:        st.AppHash(),
	}
	return a, nil
}

func (a *UnoApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "zkuno",
		Version:          "v1",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

func (a *UnoApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	env, err := codec.DecodeTxEnvelope(req.Tx)
	if err != nil {
		return &abci.CheckTxResponse{Code: codeTxInvalid, Log: err.Error()}, nil
	}
	// Mempool gate is structural only; signatures and nonces are checked at
	// delivery against committed state.
	if err := requireSignedEnvelope(env); err != nil {
		return &abci.CheckTxResponse{Code: codeTxInvalid, Log: err.Error()}, nil
	}
	return &abci.CheckTxResponse{Code: 0}, nil
}

func (a *UnoApp) InitChain(_ context.Context, _ *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	return &abci.InitChainResponse{}, nil
}

func (a *UnoApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		res := a.deliverTx(txBytes, req.Height)
		txResults = append(txResults, res)
	}

	if pruned := pruneExpired(a.st, req.Height); len(pruned) > 0 {
		a.log.Info().Int64("height", req.Height).Uints32("sessions", pruned).
			Msg("pruned expired games")
	}

	a.lastHash = a.st.AppHash()

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *UnoApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	appHome := filepath.Join(a.home, "app")
	if err := a.st.Save(appHome); err != nil {
		// Returning the error halts the node loudly instead of diverging.
		return nil, err
	}
	return &abci.CommitResponse{}, nil
}

func (a *UnoApp) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Paths:
	// - /game/<sessionId>
	// - /deck/<sessionId>/<index>
	// - /verifier
	// - /hub/points/<account>
	// - /hub/match/<sessionId>
	path := strings.TrimSpace(req.Path)
	switch {
	case path == "/verifier":
		b, _ := json.Marshal(map[string]any{"verifierId": a.st.VerifierID})
		return queryOK(b, a.st.Height), nil

	case strings.HasPrefix(path, "/game/"):
		id, err := parseU32(strings.TrimPrefix(path, "/game/"))
		if err != nil {
			return queryFail("invalid session id", a.st.Height), nil
		}
		g := a.st.Games[id]
		if g == nil || g.Expired(a.st.Height) {
			return queryFail("game not found", a.st.Height), nil
		}
		b, _ := json.Marshal(g)
		return queryOK(b, a.st.Height), nil

	case strings.HasPrefix(path, "/deck/"):
		parts := strings.Split(strings.TrimPrefix(path, "/deck/"), "/")
		if len(parts) != 2 {
			return queryFail("want /deck/<sessionId>/<index>", a.st.Height), nil
		}
		sid, err := parseU32(parts[0])
		if err != nil {
			return queryFail("invalid session id", a.st.Height), nil
		}
		index, err := parseU32(parts[1])
		if err != nil {
			return queryFail("invalid card index", a.st.Height), nil
		}
		c := cards.DeriveCard(sid, index)
		b, _ := json.Marshal(map[string]any{
			"sessionId": sid,
			"index":     index,
			"colour":    c.Colour,
			"value":     c.Value,
		})
		return queryOK(b, a.st.Height), nil

	case strings.HasPrefix(path, "/hub/points/"):
		account := strings.TrimPrefix(path, "/hub/points/")
		b, _ := json.Marshal(map[string]any{
			"account": account,
			"points":  a.st.Hub.Balance(account),
		})
		return queryOK(b, a.st.Height), nil

	case strings.HasPrefix(path, "/hub/match/"):
		id, err := parseU32(strings.TrimPrefix(path, "/hub/match/"))
		if err != nil {
			return queryFail("invalid session id", a.st.Height), nil
		}
		m := a.st.Hub.Matches[id]
		if m == nil {
			return queryFail("match not found", a.st.Height), nil
		}
		b, _ := json.Marshal(m)
		return queryOK(b, a.st.Height), nil

	default:
		return queryFail("unknown query path", a.st.Height), nil
	}
}

// deliverTx runs one tx against a staged copy of state and installs the copy
// only on success, so a failing tx can never leave a partial mutation.
func (a *UnoApp) deliverTx(txBytes []byte, height int64) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return &abci.ExecTxResult{Code: codeTxInvalid, Log: err.Error()}
	}

	staged, err := a.st.Clone()
	if err != nil {
		return &abci.ExecTxResult{Code: codeTxInvalid, Log: "state clone: " + err.Error()}
	}

	res, err := a.execTx(staged, env, height)
	if err != nil {
		a.log.Debug().Str("type", env.Type).Str("signer", env.Signer).
			Err(err).Msg("tx rejected")
		return errResult(err)
	}
	a.st = staged
	return res
}

func (a *UnoApp) execTx(st *state.State, env codec.TxEnvelope, height int64) (*abci.ExecTxResult, error) {
	switch env.Type {
	case "auth/register_account":
		var msg codec.AuthRegisterAccountTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad auth/register_account value: %w", err)
		}
		return a.registerAccount(st, env, msg)

	case "admin/set_verifier":
		var msg codec.AdminSetVerifierTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad admin/set_verifier value: %w", err)
		}
		return a.setVerifier(st, env, msg)

	case "hub/grant_points":
		var msg codec.HubGrantPointsTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad hub/grant_points value: %w", err)
		}
		return a.grantPoints(st, env, msg)

	case "uno/start_game":
		var msg codec.StartGameTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad uno/start_game value: %w", err)
		}
		return a.startGame(st, env, msg, height)

	case "uno/commit_hand":
		var msg codec.CommitHandTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad uno/commit_hand value: %w", err)
		}
		return a.commitHand(st, env, msg, height)

	case "uno/play_card":
		var msg codec.PlayCardTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad uno/play_card value: %w", err)
		}
		return a.playCard(st, env, msg, height)

	case "uno/draw_card":
		var msg codec.DrawCardTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad uno/draw_card value: %w", err)
		}
		return a.drawCard(st, env, msg, height)

	case "uno/declare_uno":
		var msg codec.DeclareUnoTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return nil, fmt.Errorf("bad uno/declare_uno value: %w", err)
		}
		return a.declareUno(st, env, msg, height)

	default:
		return nil, fmt.Errorf("unknown tx type: %s", env.Type)
	}
}

func (a *UnoApp) registerAccount(st *state.State, env codec.TxEnvelope, msg codec.AuthRegisterAccountTx) (*abci.ExecTxResult, error) {
	if err := requireRegisterAccountAuth(env, msg); err != nil {
		return nil, err
	}
	if existing := st.AccountKeys[msg.Account]; existing != nil {
		return nil, fmt.Errorf("account %q already registered", msg.Account)
	}
	if env.Nonce <= st.NonceMax[env.Signer] {
		return nil, fmt.Errorf("stale nonce %d (last accepted %d)", env.Nonce, st.NonceMax[env.Signer])
	}
	st.NonceMax[env.Signer] = env.Nonce
	st.AccountKeys[msg.Account] = msg.PubKey

	return okEvent("AccountRegistered", map[string]string{
		"account": msg.Account,
	}), nil
}

func (a *UnoApp) setVerifier(st *state.State, env codec.TxEnvelope, msg codec.AdminSetVerifierTx) (*abci.ExecTxResult, error) {
	if st.Admin == "" {
		return nil, fmt.Errorf("no admin configured")
	}
	if env.Signer != st.Admin {
		return nil, fmt.Errorf("admin/set_verifier requires admin signer %q", st.Admin)
	}
	if err := requireAccountAuth(st, env, st.Admin); err != nil {
		return nil, err
	}
	if msg.VerifierID == "" {
		return nil, fmt.Errorf("missing verifierId")
	}
	if a.verifiers[msg.VerifierID] == nil {
		return nil, fmt.Errorf("verifier %q not in this node's registry", msg.VerifierID)
	}
	st.VerifierID = msg.VerifierID

	return okEvent("VerifierSet", map[string]string{
		"verifierId": msg.VerifierID,
	}), nil
}

func (a *UnoApp) grantPoints(st *state.State, env codec.TxEnvelope, msg codec.HubGrantPointsTx) (*abci.ExecTxResult, error) {
	if st.Admin == "" {
		return nil, fmt.Errorf("no admin configured")
	}
	if env.Signer != st.Admin {
		return nil, fmt.Errorf("hub/grant_points requires admin signer %q", st.Admin)
	}
	if err := requireAccountAuth(st, env, st.Admin); err != nil {
		return nil, err
	}
	if msg.Account == "" {
		return nil, fmt.Errorf("missing account")
	}
	if err := st.Hub.Grant(msg.Account, msg.Amount); err != nil {
		return nil, err
	}

	return okEvent("PointsGranted", map[string]string{
		"account": msg.Account,
		"amount":  fmt.Sprintf("%d", msg.Amount),
	}), nil
}

// errResult maps a handler error to its tx result code: game taxonomy codes
// pass through, everything else is structural.
func errResult(err error) *abci.ExecTxResult {
	code := unoerr.Code(err)
	if code == 0 {
		code = codeTxInvalid
	}
	return &abci.ExecTxResult{Code: code, Log: err.Error()}
}

func okEvent(typ string, attrs map[string]string) *abci.ExecTxResult {
	ev := abci.Event{Type: typ}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	return &abci.ExecTxResult{
		Code:   0,
		Events: []abci.Event{ev},
	}
}

func queryOK(value []byte, height int64) *abci.QueryResponse {
	return &abci.QueryResponse{Code: 0, Value: value, Height: height}
}

func queryFail(log string, height int64) *abci.QueryResponse {
	return &abci.QueryResponse{Code: 1, Log: log, Height: height}
}

func parseU32(raw string) (uint32, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
