// Package main implements the entry point for the scry sync daemon, which
// owns the device-resident review store and replays pending review events to
// the sync server in the background.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-client/internal/config"
	"github.com/phrazzld/scry-client/internal/events"
	"github.com/phrazzld/scry-client/internal/platform/api"
	"github.com/phrazzld/scry-client/internal/platform/logger"
	"github.com/phrazzld/scry-client/internal/platform/sqlite"
	"github.com/phrazzld/scry-client/internal/service/syncqueue"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("syncd: %v", err)
	}
}

// run wires configuration, storage, and the sync pipeline, then drives the
// replay loop until the process receives an interrupt.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Client.LogLevel)
	appLogger.Info("configuration loaded",
		slog.String("store_path", cfg.Store.Path),
		slog.String("server_url", cfg.Sync.ServerURL),
		slog.Duration("sync_interval", cfg.Sync.Interval),
		slog.Int("batch_size", cfg.Sync.BatchSize))

	db, err := sqlite.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = db.Close() }()

	deviceID, err := resolveDeviceID(cfg)
	if err != nil {
		return err
	}
	appLogger.Info("device identity resolved", slog.String("device_id", deviceID.String()))

	queueStore := sqlite.NewReviewQueueStore(db, appLogger)
	journalStore := sqlite.NewSyncJournalStore(db, appLogger)
	cardStore := sqlite.NewCardStore(db, appLogger)

	emitter := events.NewEmitter(appLogger)
	coordinator := syncqueue.NewCoordinator(db, queueStore, journalStore, emitter, deviceID, appLogger)

	client := api.NewClient(cfg.Sync.ServerURL, cfg.Sync.Timeout, appLogger)
	driver := syncqueue.NewDriver(coordinator, cardStore, client,
		cfg.Sync.Interval, cfg.Sync.BatchSize, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Info("sync daemon started",
		slog.String("session_id", coordinator.SessionID().String()))

	if err := driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("sync driver stopped: %w", err)
	}

	appLogger.Info("sync daemon stopped")
	return nil
}

// resolveDeviceID returns the configured device ID, or a generated one
// persisted next to the store so the device keeps its identity across
// restarts. An in-memory store gets an ephemeral identity.
func resolveDeviceID(cfg *config.Config) (uuid.UUID, error) {
	if cfg.Client.DeviceID != "" {
		id, err := uuid.Parse(cfg.Client.DeviceID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid configured device ID: %w", err)
		}
		return id, nil
	}

	if cfg.Store.Path == ":memory:" {
		return uuid.New(), nil
	}

	idPath := cfg.Store.Path + ".device"
	if raw, err := os.ReadFile(idPath); err == nil {
		id, err := uuid.Parse(strings.TrimSpace(string(raw)))
		if err != nil {
			return uuid.Nil, fmt.Errorf("corrupt device ID file %s: %w", idPath, err)
		}
		return id, nil
	}

	id := uuid.New()
	if err := os.WriteFile(idPath, []byte(id.String()+"\n"), 0o600); err != nil {
		return uuid.Nil, fmt.Errorf("failed to persist device ID: %w", err)
	}
	return id, nil
}
