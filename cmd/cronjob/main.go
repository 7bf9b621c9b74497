package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vesta-waitlist-backend/internal/app"
	"vesta-waitlist-backend/internal/config"
	"vesta-waitlist-backend/internal/jobs"
	"vesta-waitlist-backend/internal/logger"
	"vesta-waitlist-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'send-wave-invitations')")
	limit := flag.Int("limit", 0, "Invitation batch size for send-wave-invitations (0 uses invitations.default_limit)")
	wave := flag.String("wave", "", "Wave name for send-wave-invitations (empty uses invitations.default_wave)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Vesta Waitlist Cronjob Runner...", "log_level", cfg.Log.Level)

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(application.Waitlist, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce, *limit, *wave) {
			logger.Error("Job execution failed", "job", *runOnce)
			application.Close()
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)
	if cronScheduler.JobCount() == 0 {
		logger.Warn("No jobs scheduled; set scheduler.send_wave_invitations or use -run-once")
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and reports whether it succeeded
func runJobOnce(jobRunner *jobs.JobRunner, jobName string, limit int, wave string) bool {
	switch jobName {
	case "send-wave-invitations":
		report, err := jobRunner.SendWaveInvitationsWith(limit, wave)
		if err != nil {
			fmt.Printf("send-wave-invitations failed: %v\n", err)
			return false
		}
		fmt.Printf("%s: processed %d, sent %d, failed %d\n", report.Wave, report.Count, report.Sent, report.Failed)
		for _, r := range report.Results {
			if r.Error != "" {
				fmt.Printf("  %s: %s (%s)\n", r.Email, r.Status, r.Error)
			}
		}
		return true
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - send-wave-invitations\n")
		return false
	}
}
