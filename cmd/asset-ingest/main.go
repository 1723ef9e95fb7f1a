package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asset-ingest/internal/database"
	"asset-ingest/internal/filesystem"
	"asset-ingest/internal/history"
	"asset-ingest/internal/ingest"
	"asset-ingest/internal/janitor"
	"asset-ingest/internal/logging"
	"asset-ingest/internal/media"
	"asset-ingest/internal/memory"
	"asset-ingest/internal/metrics"
	"asset-ingest/internal/opsserver"
	"asset-ingest/internal/startup"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		scanOnly   bool
	)

	cmd := &cobra.Command{
		Use:          "asset-ingest",
		Short:        "Catalog an upload tree and keep the catalog current",
		Long:         "asset-ingest scans the upload directory, derives thumbnails for images, writes the catalog and then watches the tree for changes.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, scanOnly)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (yaml, toml or json)")
	cmd.Flags().BoolVar(&scanOnly, "scan-only", false, "run the initial scan, write the catalog and exit")
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := sonic.ConfigStd.MarshalIndent(startup.GetBuildInfo(), "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}

func retryConfig(cfg *startup.Config, log logging.Logger) filesystem.RetryConfig {
	retry := filesystem.DefaultRetryConfig()
	retry.Logger = log
	retry.VolumeResolver = filesystem.NewVolumeResolver(map[string]string{
		"uploads":    cfg.UploadDir,
		"thumbnails": cfg.ThumbnailDir,
	})
	return retry
}

func run(parent context.Context, configPath string, scanOnly bool) error {
	startTime := time.Now()

	cfg, err := startup.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	log := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})

	startup.LogBanner(log)
	memory.ConfigureFromEnv(log)
	startup.LogConfig(cfg, log)
	if err := startup.PrepareDirectories(cfg, log); err != nil {
		return err
	}

	metrics.InitializeMetrics()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	stopSignals := handleSignals(ctx, cancel, log)
	defer stopSignals()

	dbStart := time.Now()
	db, err := database.New(ctx, cfg.DatabasePath, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	startup.LogPhase(log, "DATABASE INITIALIZATION", "[OK] Database initialized in %v", time.Since(dbStart))

	useVips := false
	if cfg.Thumbnails.UseVips {
		if err := media.InitVips(log); err != nil {
			log.Warn("libvips unavailable, decoding with imaging: %v", err)
		} else {
			useVips = true
		}
	}

	// The recorder outlives the pipeline so events from in-flight handlers
	// still reach the history table during shutdown.
	bus := history.NewBus(log)
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	recorder := history.NewRecorder(bus, db, log)
	if err := recorder.Start(recorderCtx); err != nil {
		stopRecorder()
		_ = db.Close()
		return fmt.Errorf("failed to start history recorder: %w", err)
	}
	publisher := history.NewPublisher(bus, log)

	monitor := memory.NewMonitor(memory.DefaultConfig(), log)
	monitor.Start()

	retry := retryConfig(cfg, log)
	thumbs := media.NewThumbnailDeriver(media.ThumbnailConfig{
		Size:    cfg.Thumbnails.Size,
		UseVips: useVips,
	}, log)

	processor := ingest.NewProcessor(ingest.ProcessorConfig{
		UploadDir:    cfg.UploadDir,
		ThumbnailDir: cfg.ThumbnailDir,
		Retry:        retry,
		Gate:         monitor,
	}, thumbs, log)

	scanner := ingest.NewScanner(ingest.ScannerConfig{
		UploadDir:    cfg.UploadDir,
		ThumbnailDir: cfg.ThumbnailDir,
		MaxWorkers:   cfg.Scan.MaxWorkers,
		Retry:        retry,
	}, processor, db, log)

	sd := &shutdown{
		log:          log,
		db:           db,
		bus:          bus,
		recorder:     recorder,
		stopRecorder: stopRecorder,
		monitor:      monitor,
		vips:         useVips,
	}

	if scanOnly {
		startup.LogPhase(log, "SCAN ONLY", "Scanning %s", cfg.UploadDir)
		result, scanErr := scanner.Scan(ctx)
		log.Info("Scan finished: %d folders, %d files, %d skipped, %d failed in %v",
			result.Folders, result.Files, result.Skipped, result.Failed, result.Duration)
		sd.run()
		return scanErr
	}

	watcher := ingest.NewWatcher(ingest.WatcherConfig{
		UploadDir:          cfg.UploadDir,
		ThumbnailDir:       cfg.ThumbnailDir,
		StabilityThreshold: cfg.Watch.StabilityThreshold,
		PollInterval:       cfg.Watch.PollInterval,
		MaxConcurrent:      cfg.Watch.MaxConcurrent,
		Retry:              retry,
	}, processor, db, publisher, log)
	pipeline := ingest.NewPipeline(scanner, watcher, log)

	sd.collector = metrics.NewCollector(db, cfg.Ops.StatsInterval, log)
	sd.collector.Start()

	if cfg.Thumbnails.ReclaimOrphans {
		jan, err := janitor.New(janitor.Config{
			ThumbnailDir: cfg.ThumbnailDir,
			Interval:     cfg.Thumbnails.ReclaimInterval,
			MinAge:       cfg.Thumbnails.ReclaimMinAge,
		}, db, log)
		if err == nil {
			err = jan.Start(ctx)
		}
		if err != nil {
			sd.run()
			return fmt.Errorf("failed to start thumbnail janitor: %w", err)
		}
		sd.janitor = jan
	}

	if cfg.Ops.Enabled {
		sd.ops = opsserver.New(opsserver.Config{
			Addr:            cfg.Ops.Addr,
			Version:         startup.Version,
			LogHealthChecks: cfg.Ops.LogHealthChecks,
		}, pipeline, log)

		go func() {
			if err := sd.ops.ListenAndServe(); err != nil {
				log.Error("%v", err)
				cancel()
			}
		}()
	}

	startup.LogPhase(log, "PIPELINE STARTED", "Startup time: %v", time.Since(startTime))

	runErr := pipeline.Run(ctx)
	if runErr != nil && cfg.Ops.Enabled && ctx.Err() == nil {
		// Keep serving /healthz so the failure is visible to health checks.
		log.Error("Pipeline stopped: %v; serving health endpoints until shutdown", runErr)
		<-ctx.Done()
	}

	sd.run()
	return runErr
}

// handleSignals cancels ctx on SIGINT or SIGTERM.
func handleSignals(ctx context.Context, cancel context.CancelFunc, log logging.Logger) func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			startup.LogShutdownInitiated(log, sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return func() { signal.Stop(sigCh) }
}

// shutdown releases components in dependency order: producers before the
// history bus, the bus before the recorder, the recorder before the
// database.
type shutdown struct {
	log          logging.Logger
	ops          *opsserver.Server
	janitor      *janitor.Janitor
	collector    *metrics.Collector
	monitor      *memory.Monitor
	bus          interface{ Close() error }
	recorder     *history.Recorder
	stopRecorder context.CancelFunc
	db           *database.Database
	vips         bool
}

func (s *shutdown) run() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.ops != nil {
		startup.LogShutdownStep(s.log, "Shutting down ops server")
		if err := s.ops.Shutdown(ctx); err != nil {
			s.log.Warn("Ops server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete(s.log, "Ops server stopped")
		}
	}

	if s.janitor != nil {
		startup.LogShutdownStep(s.log, "Stopping thumbnail janitor")
		if err := s.janitor.Stop(); err != nil {
			s.log.Warn("Janitor shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete(s.log, "Thumbnail janitor stopped")
		}
	}

	if s.collector != nil {
		s.collector.Stop()
	}
	s.monitor.Stop()

	startup.LogShutdownStep(s.log, "Draining history events")
	if err := s.bus.Close(); err != nil {
		s.log.Warn("History bus close error: %v", err)
	}
	s.recorder.Wait()
	s.stopRecorder()
	startup.LogShutdownStepComplete(s.log, "History recorder stopped")

	startup.LogShutdownStep(s.log, "Closing database")
	if err := s.db.Close(); err != nil {
		s.log.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete(s.log, "Database closed")
	}

	if s.vips {
		media.ShutdownVips()
	}

	startup.LogShutdownComplete(s.log)
}
