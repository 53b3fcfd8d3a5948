// Package main contains the entrypoint for the sales assistant Telegram bot.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/joho/godotenv"

	"salesbot/internal/analyzer"
	"salesbot/internal/bot"
	"salesbot/internal/bot/handlers"
	"salesbot/internal/bot/tasks"
	"salesbot/internal/cache"
	"salesbot/internal/config"
	"salesbot/internal/database"
	"salesbot/internal/export"
	"salesbot/internal/httpserver"
	"salesbot/internal/logger"
	"salesbot/internal/metrics"
	"salesbot/internal/offer"
	"salesbot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// ai client, cache, metrics, bot, scheduler), handles graceful shutdown, and
// returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	// A missing .env file is fine, the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	analyzerClient, err := analyzer.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize analyzer client", "error", err)
		return 1
	}

	var redisCache *cache.Redis
	if cfg.Cache.Addr != "" {
		redisCache, err = cache.New(ctx, cfg.Cache, log)
		if err != nil {
			log.Error("Failed to connect to Redis", "addr", cfg.Cache.Addr, "error", err)
			return 1
		}
		defer redisCache.Close()
		log.Info("Region analysis cache enabled", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL)
	} else {
		log.Info("Region analysis cache disabled")
	}

	mtr := metrics.Registry(cfg.Metrics.Namespace)
	offers := offer.NewGenerator(cfg.Offer.OutputDir, log)
	exporter := export.NewExporter(store, cfg.Export.Dir, log)

	hDeps := handlers.HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		Analyzer: analyzerClient,
		Offers:   offers,
		Exporter: exporter,
		Sessions: handlers.NewSessions(),
		Metrics:  mtr,
		Cache:    redisCache,
	}
	tDeps := tasks.TaskDeps{
		Logger:   log,
		Store:    store,
		Exporter: exporter,
		Metrics:  mtr,
		Config:   cfg,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(handlers.NewMessageHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	sched := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))

	var httpSrv *httpserver.Server
	if cfg.Metrics.Addr != "" {
		httpSrv = httpserver.New(cfg.Metrics.Addr, log, store)
	}

	app := bot.NewBot(log, cfg, db, store, analyzerClient, tg, sched, httpSrv)

	log.Info("Starting bot...")
	runErr := app.Run(ctx) // Run blocks until context is cancelled or an error occurs
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
