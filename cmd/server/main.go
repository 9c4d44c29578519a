package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sirdesai22/regdesk/internal/config"
	"github.com/sirdesai22/regdesk/internal/db"
	"github.com/sirdesai22/regdesk/internal/elastic"
	"github.com/sirdesai22/regdesk/internal/logging"
	"github.com/sirdesai22/regdesk/internal/metrics"
	"github.com/sirdesai22/regdesk/internal/models"
	"github.com/sirdesai22/regdesk/internal/notify"
	"github.com/sirdesai22/regdesk/internal/server"
	"github.com/sirdesai22/regdesk/internal/services"
	"github.com/sirdesai22/regdesk/internal/sheets"
	"github.com/sirdesai22/regdesk/internal/sink"
	"github.com/sirdesai22/regdesk/internal/workers"
)

const (
	defaultAdminPassword = "change-me"
	sheetsProbeAddr      = "sheets.googleapis.com:443"
	probeDialTimeout     = 5 * time.Second
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("regdesk stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	backend, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.AdminPassword == defaultAdminPassword {
		logger.Warn("⚠️ ADMIN_PASSWORD is the default, change it before going live")
	}
	initial, err := services.NewSystemSettings(cfg.AdminPassword)
	if err != nil {
		return err
	}
	if err := db.Seed(ctx, backend, logger, models.DefaultDataset(), initial); err != nil {
		return err
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		if secret, err = services.RandBytes(32); err != nil {
			return err
		}
		logger.Info("SESSION_SECRET unset, sessions will not survive a restart")
	}

	store, err := services.NewRecordStore(ctx, backend, logger)
	if err != nil {
		return err
	}
	queue, err := services.NewSyncQueue(ctx, backend, logger)
	if err != nil {
		return err
	}
	queue.Observe(store)
	backups, err := services.NewBackupManager(ctx, backend, store, logger)
	if err != nil {
		return err
	}
	auth, err := services.NewAuth(ctx, backend, secret, cfg.SessionTTL, logger)
	if err != nil {
		return err
	}

	target, probeAddr, err := openSink(ctx, cfg, auth, logger)
	if err != nil {
		return err
	}

	conn := workers.NewConnectivity(true)
	if cfg.ProbeInterval > 0 {
		go conn.Probe(ctx, cfg.ProbeInterval, func(ctx context.Context) error {
			addr := probeAddr()
			if addr == "" {
				return nil
			}
			return workers.DialCheck(addr, probeDialTimeout)(ctx)
		}, logger)
	}

	worker := &workers.SyncWorker{
		Queue:       queue,
		Store:       store,
		Sink:        target,
		Net:         conn,
		Log:         logger,
		Interval:    cfg.SyncInterval,
		MaxAttempts: cfg.SyncMaxAttempts,
		Source:      cfg.SyncSource,
	}
	go worker.Run(ctx)

	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, auth.NotificationsEnabled, logger)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		tg.Attach(store)
	}

	srv := server.New(cfg.HTTPAddr, server.Deps{
		Store:       store,
		Queue:       queue,
		Worker:      worker,
		Net:         conn,
		Backups:     backups,
		Auth:        auth,
		Log:         logger,
		CORSOrigins: cfg.CORSOrigins,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🧭 API running", zap.String("addr", cfg.HTTPAddr), zap.String("sink", target.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openBackend(cfg config.Config, logger *zap.Logger) (db.Backend, error) {
	switch cfg.StorageDriver {
	case "file":
		logger.Info("📂 file storage", zap.String("dir", cfg.DataDir))
		return db.OpenFile(cfg.DataDir)
	case "postgres":
		pg, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(pg); err != nil {
			return nil, err
		}
		logger.Info("🐘 postgres storage ready")
		return db.NewPostgres(pg), nil
	case "memory":
		logger.Warn("memory storage, nothing survives a restart")
		return db.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

// openSink builds the configured delivery target and a function naming the
// host the connectivity probe should dial.
func openSink(ctx context.Context, cfg config.Config, auth *services.Auth, logger *zap.Logger) (sink.Sink, func() string, error) {
	switch cfg.SyncSink {
	case "webhook":
		url := func() string {
			if u := auth.SyncEndpoint(); u != "" {
				return u
			}
			return cfg.SyncWebhookURL
		}
		wh := sink.NewWebhook(url, sink.WithTimeout(cfg.SyncTimeout), sink.WithLogger(logger))
		return wh, func() string { return workers.ProbeAddr(url()) }, nil
	case "elastic":
		c, err := elastic.Connect(cfg.ElasticURL, nil)
		if err != nil {
			return nil, nil, err
		}
		if err := elastic.EnsureIndexes(ctx, c); err != nil {
			return nil, nil, err
		}
		logger.Info("🔎 elasticsearch sink ready", zap.String("url", cfg.ElasticURL))
		addr := workers.ProbeAddr(cfg.ElasticURL)
		return sink.NewElastic(c), func() string { return addr }, nil
	case "sheets":
		c, err := sheets.New(ctx, cfg.GoogleCredsFile, cfg.SpreadsheetID, cfg.SheetsTab)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("📄 google sheets sink ready", zap.String("spreadsheet", c.SpreadsheetID()))
		return sink.NewSheets(c), func() string { return sheetsProbeAddr }, nil
	default:
		return nil, nil, fmt.Errorf("unknown SYNC_SINK %q", cfg.SyncSink)
	}
}
