package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"asset-ingest/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// LogBanner logs the version banner and system information.
func LogBanner(log logging.Logger) {
	logSection(log, "ASSET INGEST")
	log.Info("  Version:    %s", Version)
	log.Info("  Commit:     %s", Commit)
	log.Info("  Build Time: %s", BuildTime)
	log.Info("  Started:    %s", time.Now().Format(time.RFC1123))

	logSection(log, "SYSTEM INFORMATION")
	log.Info("  Go version:      %s", runtime.Version())
	log.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	log.Info("  CPUs available:  %d", runtime.NumCPU())
	log.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		log.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled(log) {
		if wd, err := os.Getwd(); err == nil {
			log.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			log.Debug("  Hostname:        %s", hostname)
		}
	}
}

// LogConfig logs the effective configuration.
func LogConfig(cfg *Config, log logging.Logger) {
	logSection(log, "CONFIGURATION")
	if cfg.ConfigFile != "" {
		log.Info("  Config file:          %s", cfg.ConfigFile)
	} else {
		log.Info("  Config file:          (none, defaults and %s_* environment)", EnvPrefix)
	}
	log.Info("  upload_dir:           %s", cfg.UploadDir)
	log.Info("  thumbnail_dir:        %s", cfg.ThumbnailDir)
	log.Info("  database_path:        %s", cfg.DatabasePath)
	log.Info("  log.level:            %s", log.Level())
	log.Info("  scan.max_workers:     %d", cfg.Scan.MaxWorkers)
	log.Info("  watch.stability:      %v (poll %v)", cfg.Watch.StabilityThreshold, cfg.Watch.PollInterval)
	log.Info("  watch.max_concurrent: %d", cfg.Watch.MaxConcurrent)
	log.Info("  thumbnails.size:      %d", cfg.Thumbnails.Size)
	log.Info("  thumbnails.use_vips:  %v", cfg.Thumbnails.UseVips)
	if cfg.Thumbnails.ReclaimOrphans {
		log.Info("  orphan reclamation:   every %v", cfg.Thumbnails.ReclaimInterval)
	} else {
		log.Info("  orphan reclamation:   DISABLED")
	}
	if cfg.Ops.Enabled {
		log.Info("  ops endpoint:         %s", cfg.Ops.Addr)
	} else {
		log.Info("  ops endpoint:         DISABLED")
	}
}

// PrepareDirectories creates the upload, thumbnail and database directories
// and checks that the latter two are writable.
func PrepareDirectories(cfg *Config, log logging.Logger) error {
	logSection(log, "DIRECTORY SETUP")

	if err := ensureDirectory(cfg.UploadDir, "upload", log); err != nil {
		return fmt.Errorf("upload directory error: %w", err)
	}

	for _, d := range []struct {
		path, name string
	}{
		{cfg.ThumbnailDir, "thumbnail"},
		{filepath.Dir(cfg.DatabasePath), "database"},
	} {
		if err := ensureDirectory(d.path, d.name, log); err != nil {
			return fmt.Errorf("%s directory error: %w", d.name, err)
		}
		if err := testWriteAccess(d.path, log); err != nil {
			return fmt.Errorf("%s directory is not writable: %w", d.name, err)
		}
		log.Info("  [OK] %s directory is writable: %s", d.name, d.path)
	}

	return nil
}

// LogPhase logs a section header followed by a single line.
func LogPhase(log logging.Logger, title, format string, args ...interface{}) {
	logSection(log, title)
	log.Info("  "+format, args...)
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(log logging.Logger, signal string) {
	logSection(log, fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(log logging.Logger, step string) {
	log.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(log logging.Logger, step string) {
	log.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete(log logging.Logger) {
	log.Info("  [OK] Shutdown complete")
}

func logSection(log logging.Logger, title string) {
	log.Info("------------------------------------------------------------")
	log.Info("%s", title)
	log.Info("------------------------------------------------------------")
}

func ensureDirectory(path, name string, log logging.Logger) error {
	log.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		log.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		log.Info("  [OK] Created %s directory: %s", name, path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
	}

	log.Debug("    [OK] Directory exists")

	if name == "upload" && logging.IsDebugEnabled(log) {
		if entries, err := os.ReadDir(path); err == nil {
			files, dirs := 0, 0
			for _, e := range entries {
				if e.IsDir() {
					dirs++
				} else {
					files++
				}
			}
			log.Debug("    Contents: %d files, %d directories (top level)", files, dirs)
		}
	}

	return nil
}

func testWriteAccess(dir string, log logging.Logger) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		log.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
