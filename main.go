package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"airbnb-dashboard/charts"
	"airbnb-dashboard/config"
	"airbnb-dashboard/crossfilter"
	"airbnb-dashboard/models"
	"airbnb-dashboard/server"
	"airbnb-dashboard/services"
	"airbnb-dashboard/snapshot"
	"airbnb-dashboard/storage"
	"airbnb-dashboard/utils"
)

func main() {
	os.Exit(run())
}

func run() int {
	summaryOnly := flag.Bool("summary", false, "print the dataset summary and exit")
	snapshotDir := flag.String("snapshot", "", "capture the dashboard as PNGs into this directory and exit")
	importPath := flag.String("import", "", "copy a CSV/XLSX listings file into the postgres table and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger().Error("%v", err)
		return 1
	}
	logger := utils.NewLoggerWithLevel(utils.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *importPath != "" {
		if err := runImport(ctx, cfg, *importPath, logger); err != nil {
			logger.Error("Import failed: %v", err)
			return 1
		}
		return 0
	}

	logger.Info("=== Airbnb Listings Dashboard starting ===")
	logger.Info("Config: source %s | port %d | session ttl %s",
		cfg.SourceKind(), cfg.Server.Port, cfg.Session.TTL)

	table, err := loadTable(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to load listings: %v", err)
		return 1
	}

	insightSvc := services.NewInsightService(logger)
	report := insightSvc.Generate(table)

	if *summaryOnly {
		insightSvc.Print(os.Stdout, report)
		return 0
	}

	sessions := crossfilter.NewRegistry(cfg.Session.TTL, logger)
	sessions.Start(ctx, cfg.Session.PruneInterval)

	srv := server.New(cfg.Server, table, report, sessions, logger)
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	if *snapshotDir != "" {
		if err := runSnapshot(ctx, cfg, *snapshotDir, logger); err != nil {
			logger.Error("Snapshot failed: %v", err)
			exitCode = 1
		}
	} else {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received")
		case err := <-serveErr:
			if err != nil {
				logger.Error("Server error: %v", err)
				exitCode = 1
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
		exitCode = 1
	}
	logger.Info("Dashboard stopped")
	return exitCode
}

// loadTable reads the configured source once and cleans it.
func loadTable(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*models.Table, error) {
	src, closeSrc, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer closeSrc()

	raw, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	logger.Info("Read %d rows from %s", len(raw), src.Name())

	table := services.NewCleaner(logger).Clean(src.Name(), raw)
	if table.Len() == 0 {
		logger.Warn("All listings were dropped during cleaning; charts will be empty")
	}
	return table, nil
}

// runImport copies the raw rows of a listings file into postgres so the
// dashboard can later be pointed at DASHBOARD_DATA_SOURCE=postgres.
func runImport(ctx context.Context, cfg *config.Config, path string, logger *utils.Logger) error {
	var src storage.Source = storage.NewCSVSource(path)
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		src = storage.NewXLSXSource(path, "")
	}
	raw, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", src.Name(), err)
	}

	retry := &utils.RetryConfig{MaxAttempts: cfg.Postgres.MaxRetries, BaseDelay: time.Second, Logger: logger}
	store, err := storage.NewPostgresStore(ctx, cfg.DSN(), cfg.Postgres.Table, retry)
	if err != nil {
		logger.Error("Check the %s_POSTGRES_* settings and that the server is reachable", config.EnvPrefix)
		return err
	}
	defer store.Close()

	var w storage.RawListingWriter = store
	if err := w.WriteRaw(ctx, raw); err != nil {
		return err
	}
	logger.Info("Imported %d rows from %s into postgres table %s", len(raw), src.Name(), cfg.Postgres.Table)
	return nil
}

// runSnapshot captures the dashboard served by this process.
func runSnapshot(ctx context.Context, cfg *config.Config, dir string, logger *utils.Logger) error {
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	base := fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)

	if err := waitHealthy(ctx, base+"/api/health", 10*time.Second); err != nil {
		return err
	}

	results, err := snapshot.New(cfg.Snapshot, logger).Capture(ctx, base, dir, charts.Measures)
	for _, r := range results {
		if r.Err == nil {
			fmt.Printf("  %s → %s\n", r.Measure, r.Path)
		}
	}
	return err
}

func waitHealthy(ctx context.Context, url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if res, err := http.DefaultClient.Do(req); err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("server at %s not healthy after %s", url, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}
