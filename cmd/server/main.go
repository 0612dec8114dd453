// Package main is the entry point for the betting round engine server.
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
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/abhilipne0/agent-surath-backend/internal/broadcast"
	"github.com/abhilipne0/agent-surath-backend/internal/config"
	"github.com/abhilipne0/agent-surath-backend/internal/engine"
	"github.com/abhilipne0/agent-surath-backend/internal/game"
	"github.com/abhilipne0/agent-surath-backend/internal/game/andarbahar"
	"github.com/abhilipne0/agent-surath-backend/internal/game/dragontiger"
	"github.com/abhilipne0/agent-surath-backend/internal/game/surath"
	"github.com/abhilipne0/agent-surath-backend/internal/game/teenpatti"
	"github.com/abhilipne0/agent-surath-backend/internal/handler"
	"github.com/abhilipne0/agent-surath-backend/internal/pkg/db"
	"github.com/abhilipne0/agent-surath-backend/internal/pkg/lock"
	"github.com/abhilipne0/agent-surath-backend/internal/repository"
	"github.com/abhilipne0/agent-surath-backend/internal/service"
	"github.com/abhilipne0/agent-surath-backend/internal/wallet"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	roundRepo := repository.NewRoundRepository(dbPool.Pool)
	wagerRepo := repository.NewWagerRepository(dbPool.Pool)
	settingRepo := repository.NewSettingRepository(dbPool.Pool)
	statementRepo := repository.NewStatementRepository(dbPool.Pool)

	// Initialize wallet ledger with per-user locking
	userLock := lock.NewUserLock()
	ledger := wallet.NewLedger(userRepo, statementRepo, userLock, cfg.Wallet.BonusCap)

	// Initialize the round manager and the broadcast hub. The hub serves
	// joining subscribers the manager's round snapshot.
	var manager *engine.Manager
	hub := broadcast.NewHub(log.Logger, func(gameID string) (any, bool) {
		return manager.Snapshot(gameID)
	})
	manager = engine.NewManager(settingRepo, hub, log.Logger)

	// Register one round driver per variant
	variants := []struct {
		variant game.Variant
		cfg     config.VariantConfig
	}{
		{andarbahar.New(), cfg.Games.AndarBahar},
		{dragontiger.New(), cfg.Games.DragonTiger},
		{teenpatti.New(), cfg.Games.TeenPatti},
		{surath.New(), cfg.Games.Surath},
	}

	minBets := make(map[string]decimal.Decimal, len(variants))
	for _, v := range variants {
		driver := engine.NewDriver(engine.Options{
			Variant:     v.variant,
			Rounds:      roundRepo,
			Wagers:      wagerRepo,
			Modes:       settingRepo,
			Wallet:      ledger,
			Hub:         hub,
			Window:      v.cfg.Window,
			ResultDelay: v.cfg.ResultDelay,
			Logger:      log.Logger,
		})
		if err := manager.Register(driver); err != nil {
			log.Fatal().Err(err).Str("game", v.variant.ID()).Msg("Failed to register game driver")
		}
		minBets[v.variant.ID()] = decimal.NewFromFloat(v.cfg.MinBet)
	}

	log.Info().Strs("games", manager.Games()).Msg("Games registered")

	// Initialize services and the HTTP API
	betService := service.NewBetService(manager, wagerRepo, ledger, minBets)
	accountService := service.NewAccountService(userRepo, statementRepo)

	mux := http.NewServeMux()
	api := handler.New(manager, betService, accountService, hub, log.Logger)
	api.Routes(mux)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start the hub, the round drivers, and the HTTP server
	hub.Start()
	manager.Start(ctx)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Server is starting...")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown: stop taking requests, stop the drivers mid-cycle,
	// then drop the websocket clients.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	manager.Stop()
	hub.Stop()
	log.Info().Msg("Server stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			available_balance NUMERIC(14,2) NOT NULL DEFAULT 0,
			bonus_balance NUMERIC(14,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT users_balance_nonnegative CHECK (available_balance >= 0 AND bonus_balance >= 0)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: Create rounds table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rounds (
			id UUID PRIMARY KEY,
			game VARCHAR(50) NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			duration_seconds INT NOT NULL,
			ended BOOLEAN NOT NULL DEFAULT FALSE,
			outcome VARCHAR(50),
			detail JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_rounds_game_open ON rounds(game) WHERE ended = FALSE;
		CREATE INDEX IF NOT EXISTS idx_rounds_game_ended_time ON rounds(game, end_time DESC) WHERE ended = TRUE;
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: rounds table created")

	// Migration 3: Create wagers table. The unique key makes repeat bets on
	// the same choice within a round accumulate into one row.
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS wagers (
			id BIGSERIAL PRIMARY KEY,
			round_id UUID NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES users(id),
			choice VARCHAR(50) NOT NULL,
			amount NUMERIC(14,2) NOT NULL,
			settled BOOLEAN NOT NULL DEFAULT FALSE,
			is_winner BOOLEAN NOT NULL DEFAULT FALSE,
			amount_won NUMERIC(14,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT wagers_round_user_choice_key UNIQUE (round_id, user_id, choice)
		);
		CREATE INDEX IF NOT EXISTS idx_wagers_round ON wagers(round_id);
		CREATE INDEX IF NOT EXISTS idx_wagers_round_unsettled ON wagers(round_id) WHERE settled = FALSE;
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: wagers table created")

	// Migration 4: Create game settings table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_settings (
			game VARCHAR(50) PRIMARY KEY,
			mode VARCHAR(20) NOT NULL DEFAULT 'automatic',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: game_settings table created")

	// Migration 5: Create statements table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS statements (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			type VARCHAR(20) NOT NULL,
			amount NUMERIC(14,2) NOT NULL,
			wallet_before NUMERIC(14,2) NOT NULL,
			wallet_after NUMERIC(14,2) NOT NULL,
			game VARCHAR(50) NOT NULL,
			choice VARCHAR(50),
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_statements_user_time ON statements(user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_statements_type_time ON statements(type, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 5: statements table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
