package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/salarysms/salary-bot/internal/bot"
	"github.com/salarysms/salary-bot/internal/database"
	"github.com/salarysms/salary-bot/internal/health"
	"github.com/salarysms/salary-bot/internal/i18n"
	"github.com/salarysms/salary-bot/internal/idempotency"
	"github.com/salarysms/salary-bot/internal/ignorecache"
	"github.com/salarysms/salary-bot/internal/lifecycle"
	"github.com/salarysms/salary-bot/internal/middleware"
	"github.com/salarysms/salary-bot/internal/ratelimit"
	"github.com/salarysms/salary-bot/internal/repository"
	"github.com/salarysms/salary-bot/internal/tracker"
	"github.com/salarysms/salary-bot/pkg/config"
	"github.com/salarysms/salary-bot/pkg/graceful"
	"github.com/salarysms/salary-bot/pkg/logger"
	pkgredis "github.com/salarysms/salary-bot/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			slog.Error("failed to init sentry", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	log := logger.New(*cfg)
	log.Info("starting salary bot", slog.String("env", cfg.AppEnv), slog.String("mode", cfg.Bot.Mode))

	config.Watch(v, log, func(updated config.Config) {
		log.Info("configuration reloaded")
	})

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		os.Exit(1)
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, cfg.Database.MigrationsDir); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(ctx, cfg.Redis)
	if err != nil {
		// Redis powers caching, idempotency, and rate limiting; the core
		// record flow works without it.
		log.Warn("redis unavailable, running degraded", slog.Any("error", err))
		redisClient = nil
	}

	recordRepo := repository.NewRecordRepository(db, log)
	ignoreRepo := repository.NewIgnoreRepository(db, log)
	notifyRepo := repository.NewNotifyRepository(db, log)

	var cache *ignorecache.Cache
	var idempotencyManager idempotency.Manager
	if redisClient != nil {
		cache = ignorecache.NewCache(pkgredis.NewMetricsClient(redisClient))
		idempotencyManager = idempotency.NewManager(idempotency.NewRedisStore(redisClient.Client, log), log)
	}

	var rateLimitMw *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		var limiter ratelimit.Limiter
		if redisClient != nil {
			limiter = ratelimit.NewRedisLimiter(redisClient.Client, log)
		} else {
			limiter = ratelimit.NewMemoryLimiter(log)
		}
		rateLimitMw = middleware.NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg.RateLimit), log)
	}

	svc := tracker.NewService(recordRepo, ignoreRepo, notifyRepo, cache, log)

	i18nManager, err := i18n.LoadFromDir(cfg.I18n.Dir, cfg.I18n.DefaultLang)
	if err != nil {
		log.Error("failed to load translations", slog.Any("error", err))
		os.Exit(1)
	}
	translator := i18nManager.Translator(cfg.I18n.DefaultLang)

	tgBot, err := bot.New(*cfg, log, svc, idempotencyManager, rateLimitMw, translator)
	if err != nil {
		log.Error("failed to build telegram bot", slog.Any("error", err))
		os.Exit(1)
	}

	checker := health.NewChecker(log)
	checker.AddCheck("database", health.NewDBChecker(db))
	if redisClient != nil {
		checker.AddCheck("redis", health.NewRedisChecker(redisClient.Client))
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(tgBot.Telebot()))

	mux := http.NewServeMux()
	mux.Handle("/healthz", checker.Handler())
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := graceful.NewServer(log, &http.Server{
		Addr:    cfg.Server.Port,
		Handler: logger.Middleware(middleware.New(log)(mux)),
	}, cfg.Server.ShutdownTimeout)

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram bot", func(context.Context) error {
		tgBot.Stop()
		return nil
	})
	shutdown.Register("database", func(context.Context) error {
		return db.Close()
	})
	if redisClient != nil {
		shutdown.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	go tgBot.Start()
	log.Info("salary bot is running")

	if err := httpServer.ListenAndServe(ctx); err != nil {
		log.Error("http server stopped with error", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	log.Info("salary bot stopped")
}
