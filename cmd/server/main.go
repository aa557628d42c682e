package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vocabsrs/internal/api"
	"vocabsrs/internal/catalog"
	"vocabsrs/internal/config"
	"vocabsrs/internal/handler"
	"vocabsrs/internal/jobs"
	"vocabsrs/internal/middleware"
	"vocabsrs/internal/repository"
	badgerstore "vocabsrs/internal/repository/badger"
	"vocabsrs/internal/repository/postgres"
	"vocabsrs/internal/service"
	"vocabsrs/internal/srs"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// stores bundles the repositories of the selected backend
type stores struct {
	progress repository.ProgressRepository
	catalog  repository.VocabularyRepository
	learners repository.LearnerRepository
	gc       jobs.Collector
	close    func() error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting vocabsrs",
		zap.String("store_backend", cfg.StoreBackend),
		zap.Bool("bot_enabled", cfg.BotEnabled()),
	)

	items, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		logger.Fatal("Failed to load vocabulary catalog", zap.Error(err))
	}
	logger.Info("Vocabulary catalog loaded", zap.Int("items", items.Len()))

	st, err := openStores(cfg, items, logger)
	if err != nil {
		logger.Fatal("Failed to open progress store", zap.Error(err))
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("Failed to close store", zap.Error(err))
		}
	}()

	lapse, err := srs.ParseLapsePolicy(cfg.LapsePolicy)
	if err != nil {
		logger.Fatal("Invalid lapse policy", zap.Error(err))
	}

	// Initialize services
	reviewService := service.NewReviewService(st.progress, st.catalog, service.ReviewConfig{
		Scheduler:    srs.Scheduler{LapsePolicy: lapse},
		Location:     cfg.Location,
		DefaultLimit: cfg.DefaultDueLimit,
		MaxLimit:     service.DefaultReviewConfig().MaxLimit,
	}, logger)
	statsService := service.NewStatsService(st.progress, st.catalog, st.learners, srs.MasteryPolicy{
		MinRepetitions: cfg.Mastery.MinRepetitions,
		MinEaseFactor:  cfg.Mastery.MinEaseFactor,
	}, cfg.Location, logger)

	// HTTP API
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(api.NewHandler(reviewService, statsService, logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Background jobs
	scheduler := jobs.New(jobs.Config{
		Location:           cfg.Location,
		ReminderHour:       cfg.ReminderHour,
		SessionIdleTimeout: cfg.SessionIdleTimeout,
		SweepInterval:      jobs.DefaultConfig().SweepInterval,
		GCInterval:         jobs.DefaultConfig().GCInterval,
	}, logger)
	if st.gc != nil {
		scheduler.WithGC(st.gc)
	}

	// Optional Telegram bot
	var bot *tele.Bot
	if cfg.BotEnabled() {
		bot, err = tele.NewBot(tele.Settings{
			Token:  cfg.BotToken,
			Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		})
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}

		authService := service.NewAuthService(st.learners, cfg.BotPassword)
		h := handler.NewHandler(bot, authService, reviewService, statsService, cfg.DefaultDueLimit, logger)
		bot.Use(middleware.AuthMiddleware(authService, logger))
		h.RegisterHandlers()

		scheduler.WithReminders(statsService, h).WithSessionSweep(h)

		go func() {
			logger.Info("Bot started successfully")
			bot.Start()
		}()
	}

	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start jobs", zap.Error(err))
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping...")

	// Graceful shutdown
	scheduler.Stop()
	if bot != nil {
		bot.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("Stopped gracefully")
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStores opens the configured backend and seeds its catalog
func openStores(cfg *config.Config, items *catalog.Catalog, logger *zap.Logger) (*stores, error) {
	switch cfg.StoreBackend {
	case config.BackendBadger:
		db, err := badgerstore.Open(badgerstore.Config{Path: cfg.BadgerPath, SyncWrites: true, Logger: logger})
		if err != nil {
			return nil, err
		}
		logger.Info("Badger store opened", zap.String("path", cfg.BadgerPath))

		return &stores{
			progress: badgerstore.NewProgressRepo(db),
			catalog:  items,
			learners: badgerstore.NewLearnerRepo(db),
			gc:       db,
			close:    db.Close,
		}, nil
	}

	// Connect to database with retries
	db, err := connectDatabase(cfg.DSN(), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection established")

	// Run migrations
	if err := runMigrations(db, cfg.MigrationsURL, logger); err != nil {
		db.Close()
		return nil, err
	}

	vocabulary := postgres.NewVocabularyRepo(db)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := vocabulary.SaveItems(ctx, items.Items()); err != nil {
		db.Close()
		return nil, fmt.Errorf("sync catalog: %w", err)
	}
	logger.Info("Vocabulary catalog synced to database", zap.Int("items", items.Len()))

	return &stores{
		progress: postgres.NewProgressRepo(db),
		catalog:  vocabulary,
		learners: postgres.NewLearnerRepo(db),
		close:    db.Close,
	}, nil
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		// Test connection
		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, sourceURL string, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully")
	}
	return nil
}
