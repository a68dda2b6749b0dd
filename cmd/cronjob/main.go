package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"montos-inversion-backend/internal/config"
	"montos-inversion-backend/internal/jobs"
	"montos-inversion-backend/internal/logger"
	"montos-inversion-backend/internal/repository"
	"montos-inversion-backend/internal/repository/postgres"
	"montos-inversion-backend/internal/repository/sheets"
	"montos-inversion-backend/internal/scheduler"
	"montos-inversion-backend/internal/telegram"
)

// Standalone reminder runner for deployments where the bot process serves
// webhooks without in-process sweeps. Runs the re-arm sweep on a schedule
// and delivers the resulting nudges itself.
func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.Bool("run-once", false, "Run the re-arm sweep once, wait for armed reminders to fire, then exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Montos Inversion Reminder Runner...", "log_level", cfg.Log.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize record store
	records, closeStore := buildStore(ctx, cfg)
	defer closeStore()

	// Connect to Telegram for outbound nudges
	api, err := telegram.Connect(cfg.Telegram.Token)
	if err != nil {
		logger.Error("Failed to connect to Telegram", "error", err)
		log.Fatalf("Failed to connect to Telegram: %v", err)
	}
	notifier := telegram.NewNotifier(api)

	reminderDelay := time.Duration(cfg.Reminder.DelaySeconds) * time.Second
	reminders := scheduler.NewReminderScheduler(records, notifier, reminderDelay)
	jobRunner := jobs.NewJobRunner(records, reminders, reminderDelay)

	if *runOnce {
		logger.Info("Running re-arm sweep once")
		jobRunner.ReArmPendingReminders()
		waitForDrain(reminders)
		logger.Info("Sweep completed")
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler()
	cronScheduler.AddJob(cfg.Reminder.SweepSchedule, "re-arm-reminders", jobRunner.ReArmPendingReminders)
	cronScheduler.Start()
	logger.Info("Reminder scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cronScheduler.Stop()
}

// waitForDrain blocks until every armed reminder has fired or been
// disarmed, so a one-shot run does not exit with nudges still pending.
func waitForDrain(reminders *scheduler.ReminderScheduler) {
	for reminders.ArmedCount() > 0 {
		time.Sleep(time.Second)
	}
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
