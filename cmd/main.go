package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"payday-service/internal/algorand"
	"payday-service/internal/config"
	"payday-service/internal/dashboard"
	"payday-service/internal/database"
	"payday-service/internal/handler"
	"payday-service/internal/logger"
	"payday-service/internal/payout"
	"payday-service/internal/repository"
	"payday-service/internal/session"
	"payday-service/internal/transfer"
	"payday-service/internal/vault"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		startupLog := zerolog.New(os.Stderr)
		startupLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err = run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("PayDay service stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		return err
	}

	kv, err := session.OpenBadger(cfg.BadgerDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close badger")
		}
	}()

	chain, err := algorand.NewClient(algorand.Options{
		AlgodServer:   cfg.AlgodServer,
		AlgodToken:    cfg.AlgodToken,
		IndexerServer: cfg.IndexerServer,
		IndexerToken:  cfg.IndexerToken,
		Network:       cfg.Network,
	}, log)
	if err != nil {
		return err
	}

	treasury, err := algorand.AccountFromMnemonic(cfg.TreasuryMnemonic)
	if err != nil {
		return err
	}
	log.Info().Str("treasury", treasury.Address().String()).Str("network", cfg.Network).Msg("Treasury account loaded")

	vaultAPI := vault.Load(vault.Options{
		Dir:        cfg.VaultContractsDir,
		ClientName: cfg.VaultClient,
		AppID:      cfg.VaultAppID,
	}, chain, treasury, log)

	sessions := session.NewManager(session.NewChallengeStore(kv, cfg.ChallengeTTL, log), cfg.JWTSecret, cfg.SessionTTL, log)
	payouts := payout.NewService(chain, vaultAPI, repository.NewPayoutRepository(db), treasury, cfg.FeeBps, log)

	walletHandler := handler.NewWalletHandler(
		sessions,
		dashboard.NewService(chain, log),
		transfer.NewService(chain, log),
		cfg.Network,
		log,
	)
	payoutHandler := handler.NewPayoutHandler(payouts, vaultAPI, chain, treasury.Address().String(), cfg.Network, log)

	router := handler.NewRouter(walletHandler, payoutHandler, sessions.Middleware, log)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           logger.Middleware(log)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
