package main

import (
	"encoding/hex"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cometbft/cometbft/abci/server"
	"github.com/rs/zerolog"

	"zkuno/internal/app"
	"zkuno/internal/unocrypto"
	"zkuno/internal/zkverify"
)

func main() {
	var (
		home      = flag.String("home", ".zkuno", "app home directory (state will be stored under <home>/app)")
		addr      = flag.String("addr", "tcp://127.0.0.1:26658", "ABCI listen address")
		transport = flag.String("transport", "socket", "ABCI transport (socket|grpc)")
		admin     = flag.String("admin", "", "admin account (may set the verifier and grant hub points)")
		attestPub = flag.String("attest-pub", "", "hex attestation public key for the 'attest' verifier")
		dev       = flag.Bool("dev", false, "register the always-accepting 'mock' verifier (dev only)")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	verifiers := map[string]zkverify.Verifier{}
	if *attestPub != "" {
		raw, err := hex.DecodeString(*attestPub)
		if err != nil {
			log.Fatal().Err(err).Msg("bad -attest-pub hex")
		}
		pub, err := unocrypto.PointFromBytesCanonical(raw)
		if err != nil {
			log.Fatal().Err(err).Msg("bad -attest-pub point")
		}
		verifiers["attest"] = zkverify.NewAttest(pub)
	}
	if *dev {
		log.Warn().Msg("mock verifier registered: proofs are NOT checked when it is active")
		verifiers["mock"] = zkverify.Mock{}
	}

	a, err := app.New(*home, app.Options{
		Admin:     *admin,
		Verifiers: verifiers,
		Logger:    log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init app")
	}

	srv, err := server.NewServer(*addr, *transport, a)
	if err != nil {
		log.Fatal().Err(err).Msg("create abci server")
	}

	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("start abci server")
	}
	defer func() { _ = srv.Stop() }()

	log.Info().Str("addr", *addr).Str("home", *home).Msg("zkunod listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
