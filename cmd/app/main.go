// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"act-companion/internal/config"
	"act-companion/internal/domain/model"
	"act-companion/internal/domain/ports/adapter"
	"act-companion/internal/domain/ports/repository"
	aiAdapters "act-companion/internal/infra/adapters/ai"
	"act-companion/internal/infra/api"
	apiv1 "act-companion/internal/infra/api/apiv1"
	pg "act-companion/internal/infra/db/postgres"
	"act-companion/internal/infra/i18n"
	"act-companion/internal/infra/logging"
	"act-companion/internal/infra/metrics"
	"act-companion/internal/infra/notify"
	red "act-companion/internal/infra/redis"
	"act-companion/internal/infra/sched"
	"act-companion/internal/infra/security"
	"act-companion/internal/infra/storage"
	"act-companion/internal/infra/supabase"
	"act-companion/internal/infra/worker"
	"act-companion/internal/usecase"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, insecure cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, model.CurrentSchemaVersion)

	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Server.Language)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Redis (optional) ----
	var redisClient *red.Client
	if cfg.Redis.URL != "" {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
	}

	// ---- Local session storage ----
	kv, closeKV, err := openStateStore(ctx, cfg, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("storage")
	}
	defer closeKV()
	stores := func(userID string) (repository.SessionRepository, repository.HistoryRepository) {
		scoped := storage.NewPrefixed(kv, userID)
		return storage.NewSessionStore(scoped, logger), storage.NewHistoryStore(scoped, logger)
	}

	// ---- AI (optional) ----
	questions := buildQuestionProvider(ctx, cfg, logger)
	var limiter usecase.RateLimiter
	if redisClient != nil {
		limiter = red.NewRateLimiter(redisClient)
	}
	guide := usecase.NewRitualGuide(questions, limiter, tr, usecase.RitualGuideConfig{
		MaxFailures: cfg.AI.MaxFailures,
		RateLimit:   cfg.AI.RateLimit,
		RateWindow:  cfg.AI.RateWindow,
		RateKey:     red.SessionAIKey,
	}, logger)

	// ---- Cloud sync (optional) ----
	pool := worker.NewPool(cfg.Sync.Workers, logger)
	pool.Start(ctx)

	syncSvc, closeSync := buildSync(ctx, cfg, pool, redisClient, logger)
	defer closeSync()
	defer pool.Stop()

	// ---- Controllers ----
	inbox := notify.NewInbox(logger)
	deps := usecase.FlowDeps{
		Telemetry:   metrics.NewTelemetry(logger),
		Notifier:    inbox,
		Translator:  tr,
		DefaultMode: model.PrivacyMode(cfg.Storage.DefaultPrivacyMode),
		Logger:      logger,
	}
	if syncSvc != nil {
		deps.Sync = syncSvc
	}
	reg := usecase.NewRegistry(stores, deps)

	// ---- Expiry worker ----
	expiry := sched.NewExpiryWorker(cfg.Storage.SweepInterval, cfg.Storage.IdleEviction, reg, logger)
	go func() { _ = expiry.Run(ctx) }()

	// ---- HTTP API ----
	auth := api.NewAuthManager(cfg.Server.JWTSecret, !cfg.Runtime.Dev, cfg.Server.TokenTTL)
	handler := apiv1.NewRouter(apiv1.NewServer(reg, guide, syncSvc, inbox, auth, logger), cfg.Server.RequestTimeout)
	server := api.NewServer(cfg.Server.Port, handler, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown requested")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	pool.Stop() // drain queued pushes before the backend closes
	cancel()
}

// openStateStore returns the key-value store every per-user store is scoped onto.
func openStateStore(ctx context.Context, cfg *config.Config, rc *red.Client) (repository.StateStore, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		return storage.NewMemoryKV(), func() {}, nil
	case "redis":
		if rc == nil {
			return nil, nil, errors.New("redis client not configured")
		}
		return red.NewKV(rc, "act", cfg.Redis.TTL), func() {}, nil
	default:
		kv, err := storage.OpenSQLiteKV(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil
	}
}

// buildQuestionProvider wires OpenAI and Gemini behind one router. Without
// a provider key every generation falls back to the static content.
func buildQuestionProvider(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) adapter.QuestionProvider {
	byProvider := map[string]adapter.ChatProvider{}
	defaultProvider := ""

	if cfg.AI.OpenAIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.OpenAIBaseURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		byProvider["openai"] = oa
		defaultProvider = "openai"
		logger.Info().Str("base", cfg.AI.OpenAIBaseURL).Str("model", cfg.AI.DefaultModel).Msg("AI adapter: OpenAI")
	}
	if cfg.AI.GeminiKey != "" {
		gm, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, "", cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		byProvider["gemini"] = gm
		if defaultProvider == "" {
			defaultProvider = "gemini"
		}
		logger.Info().Str("base", cfg.AI.GeminiURL).Msg("AI adapter: Gemini")
	}
	if defaultProvider == "" {
		logger.Info().Msg("no AI provider configured; rituals use guided questions only")
		return aiAdapters.NewQuestionService(aiAdapters.NewNoopAIAdapter(), "none", "", 0, logger)
	}

	modelName := cfg.AI.DefaultModel
	if byProvider["openai"] == nil && !strings.HasPrefix(strings.ToLower(modelName), "gemini") {
		modelName = "" // let the Gemini adapter pick its own default
	}
	router := aiAdapters.NewProviderRouter(defaultProvider, byProvider)
	limited := aiAdapters.NewLimitedAI(router, cfg.AI.ConcurrentLimit)
	return aiAdapters.NewQuestionService(limited, defaultProvider, modelName, cfg.AI.PromptTokenBudget, logger)
}

// buildSync returns nil when sync.backend is none.
func buildSync(ctx context.Context, cfg *config.Config, pool *worker.Pool, rc *red.Client, logger *zerolog.Logger) (*usecase.SyncService, func()) {
	var (
		repo    repository.SyncRepository
		closeFn = func() {}
	)
	switch strings.ToLower(cfg.Sync.Backend) {
	case "postgres":
		pgPool, err := pg.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		if err := pg.EnsureSchema(ctx, pgPool); err != nil {
			logger.Fatal().Err(err).Msg("postgres schema")
		}
		repo = pg.NewSyncRepo(pgPool)
		closeFn = pgPool.Close
	case "supabase":
		sb, err := supabase.New(cfg.Supabase)
		if err != nil {
			logger.Fatal().Err(err).Msg("supabase")
		}
		repo = sb
	default:
		return nil, closeFn
	}

	var locker usecase.Locker
	if rc != nil {
		locker = red.NewLocker(rc)
	}
	var cipher usecase.Cipher
	if cfg.Security.EncryptionKey != "" {
		enc, err := security.NewEncryptionService(cfg.Security.EncryptionKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("encryption")
		}
		cipher = enc
	} else {
		logger.Warn().Msg("security.encryption_key not set; synced sessions are stored in clear")
	}

	svc := usecase.NewSyncService(repo, pool, locker, cipher, usecase.SyncConfig{
		Backend: cfg.Sync.Backend,
		LockTTL: cfg.Sync.LockTTL,
		LockKey: red.SyncLockKey,
	}, logger)
	logger.Info().Str("backend", cfg.Sync.Backend).Msg("cloud sync enabled")
	return svc, closeFn
}
