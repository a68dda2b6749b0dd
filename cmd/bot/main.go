package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	"montos-inversion-backend/internal/config"
	"montos-inversion-backend/internal/jobs"
	"montos-inversion-backend/internal/logger"
	"montos-inversion-backend/internal/repository"
	"montos-inversion-backend/internal/repository/postgres"
	"montos-inversion-backend/internal/repository/sheets"
	"montos-inversion-backend/internal/scheduler"
	"montos-inversion-backend/internal/service"
	"montos-inversion-backend/internal/telegram"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Montos Inversion Bot...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Store configuration", "type", cfg.Store.Type)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize record store
	records, closeStore := buildStore(ctx, cfg)
	defer closeStore()

	// Connect to Telegram
	api, err := telegram.Connect(cfg.Telegram.Token)
	if err != nil {
		logger.Error("Failed to connect to Telegram", "error", err)
		log.Fatalf("Failed to connect to Telegram: %v", err)
	}
	logger.Info("Telegram connection established", "username", api.Self.UserName)
	notifier := telegram.NewNotifier(api)

	// Initialize reminder scheduler
	reminderDelay := time.Duration(cfg.Reminder.DelaySeconds) * time.Second
	reminders := scheduler.NewReminderScheduler(records, notifier, reminderDelay)

	// Initialize Services
	referralSvc := service.NewReferralService(records)
	intakeSvc := service.NewIntakeService(records, referralSvc, notifier, reminders, cfg.Telegram.ReviewerIDs)
	reviewSvc := service.NewReviewService(records, referralSvc, notifier, reminders, cfg.Telegram.ReviewerIDs)
	broadcastSvc := service.NewBroadcastService(records)

	bot := telegram.NewBot(api, cfg.Media, intakeSvc, reviewSvc, broadcastSvc)

	// Re-arm reminders for proofs submitted before the last restart, then
	// keep sweeping on the configured schedule.
	jobRunner := jobs.NewJobRunner(records, reminders, reminderDelay)
	jobRunner.ReArmPendingReminders()

	cronScheduler := scheduler.NewScheduler()
	cronScheduler.AddJob(cfg.Reminder.SweepSchedule, "re-arm-reminders", jobRunner.ReArmPendingReminders)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// Wire interrupt handling before starting the update loop
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal", "signal", sig.String())
		cancel()
	}()

	switch cfg.Telegram.Mode {
	case "webhook":
		runWebhook(ctx, cfg, bot)
	default:
		if err := bot.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("Update loop terminated", "error", err)
		}
	}

	logger.Info("Shutdown complete")
}

// buildStore opens the configured record repository and returns it with its
// cleanup function.
func buildStore(ctx context.Context, cfg *config.Config) (repository.RecordRepository, func()) {
	switch cfg.Store.Type {
	case "postgres":
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.Ping(); err != nil {
			logger.Error("Failed to ping database", "error", err)
			log.Fatalf("Failed to ping database: %v", err)
		}
		logger.Info("Database connection established")
		return postgres.NewStore(db), func() { db.Close() }
	default:
		logger.Info("Connecting to Google Sheets...", "spreadsheet_id", cfg.Sheets.SpreadsheetID)
		store, err := sheets.NewStore(ctx, cfg.Sheets.SpreadsheetID, []byte(cfg.Sheets.CredentialsJSON))
		if err != nil {
			logger.Error("Failed to open spreadsheet", "error", err)
			log.Fatalf("Failed to open spreadsheet: %v", err)
		}
		logger.Info("Spreadsheet ready")
		return store, func() {}
	}
}

// runWebhook serves updates over HTTP instead of long polling.
func runWebhook(ctx context.Context, cfg *config.Config, bot *telegram.Bot) {
	if err := bot.EnableWebhook(cfg.Telegram.WebhookURL); err != nil {
		logger.Error("Failed to register webhook", "error", err)
		log.Fatalf("Failed to register webhook: %v", err)
	}

	router := mux.NewRouter()
	bot.RegisterRoutes(ctx, router)

	srv := &http.Server{
		Addr:    cfg.GetServerAddress(),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Webhook server listening", "address", cfg.GetServerAddress())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Webhook server terminated", "error", err)
		log.Fatalf("Webhook server terminated: %v", err)
	}
}
