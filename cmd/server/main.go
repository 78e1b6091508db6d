package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"scholarfund/internal/adapters/eventbus"
	"scholarfund/internal/adapters/identity"
	"scholarfund/internal/adapters/mail"
	"scholarfund/internal/adapters/memory"
	"scholarfund/internal/adapters/postgres"
	"scholarfund/internal/adapters/redisstore"
	"scholarfund/internal/adapters/security"
	"scholarfund/internal/core/ports"
	"scholarfund/internal/core/service"
	"scholarfund/internal/httpserver"
	"scholarfund/internal/shared/config"
	"scholarfund/internal/shared/ids"
	"scholarfund/internal/shared/logger"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	isDevMode := cfg.AppEnv == "dev"
	baseLogger := logger.New(isDevMode)
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Str("storage_driver", cfg.StorageDriver).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize the Security Service
	keyBytes, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to decode ENCRYPTION_KEY. It must be hex-encoded.")
	}
	secSvc, err := security.NewAESService(keyBytes, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize security service")
	}

	// 4. Initialize storage
	var (
		store     ports.VerificationStore
		campaigns ports.CampaignRepository
		payouts   ports.PayoutRepository
		directory ports.UserDirectory
	)
	switch cfg.StorageDriver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.DatabaseURL, &baseLogger)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer db.Close()
		store = postgres.NewVerificationRepository(db, secSvc, &baseLogger)
		campaigns = postgres.NewCampaignRepository(db, &baseLogger)
		payouts = postgres.NewPayoutRepository(db, &baseLogger)
		directory = postgres.NewUserDirectory(db, &baseLogger)
	case "memory":
		baseLogger.Warn().Msg("Using in-memory storage; nothing survives a restart")
		store = memory.NewVerificationStore(ids.New)
		campaigns = memory.NewCampaignRepository()
		payouts = memory.NewPayoutRepository()
		directory = memory.NewUserDirectory()
	}

	// 5. Cooldown windows: redis when configured, per-instance otherwise
	var cooldowns ports.CooldownStore
	if cfg.RedisAddr != "" {
		rc, err := redisstore.NewCooldownStore(ctx, cfg.RedisAddr, &baseLogger)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to initialize redis")
		}
		defer rc.Close()
		cooldowns = rc
	} else {
		baseLogger.Warn().Msg("REDIS_ADDR not set; cooldown windows are per-instance")
		cooldowns = memory.NewCooldownStore()
	}

	// 6. Mail collaborator
	var sender ports.MailSender
	if cfg.SMTPAddr != "" {
		sender = mail.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPFrom, &baseLogger)
	} else {
		sender = mail.NewLogSender(&baseLogger)
	}

	// 7. Event bus and the dead-letter sink
	bus := eventbus.NewInMemoryEventBus(&baseLogger)
	mail.SubscribeDeadLetters(bus, &baseLogger)

	// 8. Core services
	guard := service.NewGuard(store, &baseLogger)
	fate := service.NewFateOrchestrator(campaigns, payouts, &baseLogger)
	notifier := service.NewNotificationDispatcher(sender, directory, bus, &baseLogger)
	transitions := service.NewTransitionHandler(store, fate, notifier, bus, &baseLogger)

	// 9. Background sweeps (expiry, abandonment)
	sweeper := service.NewSweeper(store, transitions, cfg.ApprovalTTL, cfg.StalenessWindow, &baseLogger)
	sweeper.Start(ctx, cfg.SweepInterval)

	// 10. HTTP surface
	idp := identity.NewJWTProvider([]byte(cfg.JWTSecret), &baseLogger)
	handler := httpserver.New(httpserver.Deps{
		Guard:           guard,
		Store:           store,
		Transitions:     transitions,
		Fate:            fate,
		Cooldowns:       cooldowns,
		Identity:        idp,
		Bus:             bus,
		ReapplyCooldown: cfg.ReapplyCooldown,
	}, &baseLogger)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: handler}
	go func() {
		baseLogger.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			baseLogger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	baseLogger.Info().Msg("Shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		baseLogger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}
