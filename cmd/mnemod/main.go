package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/felixgeelhaar/mnemo/internal/calibration"
	"github.com/felixgeelhaar/mnemo/internal/config"
	"github.com/felixgeelhaar/mnemo/internal/daemon"
	"github.com/felixgeelhaar/mnemo/internal/grading"
	"github.com/felixgeelhaar/mnemo/internal/mastery"
	"github.com/felixgeelhaar/mnemo/internal/mlclient"
	"github.com/felixgeelhaar/mnemo/internal/queue"
	"github.com/felixgeelhaar/mnemo/internal/repository"
	"github.com/felixgeelhaar/mnemo/internal/storage/sqlite"
)

const (
	pidFileName = "mnemod.pid"
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

// abilityStore is the full ability surface both storage backends provide:
// the grading path reads and writes estimates, the API also lists them.
type abilityStore interface {
	grading.AbilityStore
	daemon.AbilityStore
}

// itemStore combines the calibration batch surface with the API's item and
// response operations.
type itemStore interface {
	calibration.ItemStore
	daemon.ItemStore
}

// stores bundles the persistence backends the daemon wires up at startup.
// attempts stays nil on SQLite, which keeps no attempt archive.
type stores struct {
	abilities abilityStore
	masteries mastery.Store
	items     itemStore
	reviews   daemon.ReviewStore
	attempts  daemon.AttemptArchive
	close     func()
}

func run() error {
	// Ensure ~/.mnemo directory exists
	mnemoDir, err := config.EnsureMnemoDir()
	if err != nil {
		return fmt.Errorf("ensure mnemo dir: %w", err)
	}

	// Load configuration
	local, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load local config: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Setup logging
	logLevel := parseLogLevel(local.Daemon.LogLevel)
	logFile, err := setupLogging(mnemoDir, logLevel)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	// Write PID file
	pidPath := filepath.Join(mnemoDir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ctx := context.Background()

	// Open the persistence backend: Postgres when DATABASE_URL is set,
	// the embedded SQLite database otherwise.
	st, err := openStores(ctx, cfg, mnemoDir)
	if err != nil {
		return err
	}
	defer st.close()

	// Modeling services
	tracker := mastery.NewTracker(st.masteries, slog.Default())
	grader := grading.NewGrader(st.abilities, tracker, slog.Default())
	calibrator := calibration.NewService(st.items, slog.Default(), calibration.ServiceConfig{
		MinResponses: cfg.CalibrationMinResponses,
	})

	// Optional ML recommendation provider
	var recommender mlclient.Provider
	if cfg.MLServiceEnabled {
		httpProvider := mlclient.NewHTTPProvider(mlclient.HTTPConfig{
			BaseURL: cfg.MLServiceURL,
			Token:   cfg.MLServiceToken,
		})
		resilient := mlclient.NewResilient(httpProvider, mlclient.DefaultResilientConfig())
		defer resilient.Close()
		recommender = resilient
		slog.Info("ml provider enabled", "provider", resilient.Name(), "url", cfg.MLServiceURL)
	}

	// Queue consumer for graded attempts
	conn, err := queue.NewConnection(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("connect queue: %w", err)
	}
	defer conn.Close()

	consumer := queue.NewConsumer(conn, grader.Handler(), queue.ConsumerConfig{
		Workers: cfg.QueueWorkers,
	})
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	// Periodic batch recalibration
	scheduler := gocron.NewScheduler(time.UTC)
	interval := cfg.CalibrationIntervalHours
	if interval <= 0 {
		interval = 24
	}
	if _, err := scheduler.Every(interval).Hours().Do(func() {
		runCtx, cancel := context.WithTimeout(context.Background(), time.Hour)
		defer cancel()

		report, err := calibrator.CalibrateAll(runCtx)
		if err != nil {
			slog.Error("calibration run failed", "error", err)
			return
		}
		slog.Info("calibration run finished",
			"calibrated", report.Calibrated,
			"skipped", report.Skipped,
			"duration", report.Duration)
	}); err != nil {
		return fmt.Errorf("schedule calibration: %w", err)
	}
	scheduler.StartAsync()

	// HTTP API
	server := daemon.NewServer(daemon.ServerConfig{
		Config:      local,
		Tracker:     tracker,
		Masteries:   st.masteries,
		Abilities:   st.abilities,
		Items:       st.items,
		Reviews:     st.reviews,
		Producer:    queue.NewProducer(conn),
		Attempts:    st.attempts,
		Recommender: recommender,
		ReviewLimit: cfg.ReviewQueueLimit,
	})

	slog.Info("daemon started",
		"workers", cfg.QueueWorkers,
		"calibration_interval_hours", interval)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("received signal, shutting down", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		scheduler.Stop()
		consumer.Stop()
		close(done)
	}()

	if err := server.Start(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, mnemoDir string) (*stores, error) {
	if cfg.DatabaseURL != "" {
		pool, err := repository.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := repository.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		slog.Info("using postgres storage")
		return &stores{
			abilities: repository.NewAbilityRepository(pool),
			masteries: repository.NewMasteryRepository(pool),
			items:     repository.NewItemRepository(pool),
			reviews:   repository.NewReviewRepository(pool),
			attempts:  repository.NewAttemptRepository(pool),
			close:     pool.Close,
		}, nil
	}

	path := cfg.SQLitePath
	if path == "" {
		path = filepath.Join(mnemoDir, "data", "mnemo.db")
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	slog.Info("using sqlite storage", "path", path)
	return &stores{
		abilities: sqlite.NewAbilityStore(db),
		masteries: sqlite.NewMasteryStore(db),
		items:     sqlite.NewItemStore(db),
		reviews:   sqlite.NewReviewStore(db),
		close:     func() { db.Close() },
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupLogging(mnemoDir string, level slog.Level) (*os.File, error) {
	logPath := filepath.Join(mnemoDir, "logs", "mnemod.log")

	// Create log file
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: level,
	})

	// Also log to stderr for foreground mode
	multi := &multiHandler{
		handlers: []slog.Handler{
			handler,
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}),
		},
	}

	slog.SetDefault(slog.New(multi))

	return logFile, nil
}

func writePIDFile(path string) error {
	pid := os.Getpid()
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", pid)), 0644)
}

// multiHandler logs to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
