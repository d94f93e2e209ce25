package workerrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"vitae/internal/config"
	"vitae/internal/deps"
	"vitae/internal/extract"
	"vitae/internal/ingest"
	"vitae/internal/ledger"
	"vitae/internal/logging"
	"vitae/internal/records"
)

// Options configures one worker process run.
type Options struct {
	// SessionID identifies the session to drive. Empty allocates a fresh one.
	SessionID string
	// SourceDir is the root folder holding one subfolder per candidate.
	SourceDir string
	// MaxWorkers overrides the configured pool size when positive.
	MaxWorkers int
	// LogLevel overrides the configured log level when set.
	LogLevel string
}

// Run executes one batch ingestion inside the worker process. It owns the
// per-session log file, the session lock, and the wiring of the ledger,
// records store, extractors, and supervisor. All progress flows through the
// ledger; nothing is shared in memory with the launching process.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if opts.SourceDir == "" {
		return fmt.Errorf("source directory is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	runID := time.Now().UTC().Format("20060102T150405")
	logPath := filepath.Join(cfg.Paths.LogDir,
		fmt.Sprintf("ingest-%s-%s.log", shortSessionID(sessionID), runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "worker").
		With(logging.String(logging.FieldSessionID, sessionID))

	lockPath := filepath.Join(cfg.Paths.LogDir,
		fmt.Sprintf("ingest-%s.lock", shortSessionID(sessionID)))
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another worker already owns session %s", sessionID)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release session lock", logging.Error(err))
		}
		_ = os.Remove(lockPath)
	}()

	ledgerStore, err := ledger.Open(cfg)
	if err != nil {
		logger.Error("open ledger store", logging.Error(err))
		return err
	}
	defer ledgerStore.Close()

	recordStore, err := records.Open(cfg)
	if err != nil {
		logger.Error("open records store", logging.Error(err))
		return err
	}
	defer recordStore.Close()

	maxWorkers := opts.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = cfg.Ingest.MaxWorkers
	}

	started := time.Now()
	logger.Info("worker started",
		logging.String("source_dir", opts.SourceDir),
		logging.Int("max_workers", maxWorkers),
		logging.String("log_file", logPath))

	// Missing binaries surface as per-item phase failures later; warn up
	// front so the cause is visible at the top of the log.
	for _, status := range deps.MissingRequired(deps.CheckBinaries(deps.ForConfig(cfg))) {
		logger.Warn("required binary unavailable",
			logging.String("dependency", status.Name),
			logging.String("detail", status.Detail))
	}

	client := extract.NewClient(cfg.LLM)
	service := extract.NewService(cfg, recordStore, client,
		logging.NewComponentLogger(logger, "extract"))
	processor := ingest.NewProcessor(cfg, service, service,
		logging.NewComponentLogger(logger, "processor"))

	cleanup := func(ctx context.Context, candidateKey string) error {
		counts, err := recordStore.DeleteCandidate(ctx, candidateKey)
		if err != nil {
			return err
		}
		logger.Info("purged partial candidate records",
			logging.String(logging.FieldCandidate, candidateKey),
			logging.Int64("removed_rows", counts.Total()))
		return nil
	}

	supervisor := ingest.NewSupervisor(ledgerStore, processor, ingest.SupervisorOptions{
		MaxWorkers:  maxWorkers,
		LogFilePath: logPath,
		Cleanup:     cleanup,
		Logger:      logger,
	})

	result, err := supervisor.Run(signalCtx, sessionID, opts.SourceDir)
	if err != nil {
		logger.Error("worker run failed", logging.Error(err))
		return err
	}

	for _, line := range result.SummaryLogs {
		logger.Info("summary", logging.String("line", line))
	}
	logger.Info("worker finished",
		logging.String("status", string(result.FinalStatus)),
		logging.Bool("stopped", result.Stopped),
		logging.Duration("elapsed", time.Since(started)))
	return nil
}

// shortSessionID keeps file names readable while staying unique enough for
// one log directory.
func shortSessionID(sessionID string) string {
	if len(sessionID) > 8 {
		return sessionID[:8]
	}
	return sessionID
}
