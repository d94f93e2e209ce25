package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"vitae/internal/ledger"
	"vitae/internal/logging"
)

// Ledger is the slice of the durable session store the supervisor drives.
// *ledger.Store satisfies it; tests substitute flaky implementations.
type Ledger interface {
	Create(ctx context.Context, sessionID string, totalItems int, meta ledger.Metadata) (*ledger.Session, error)
	Update(ctx context.Context, sessionID string, processedItems int, currentItem, errMsg string) error
	Finalize(ctx context.Context, sessionID string, status ledger.Status) (bool, error)
	Get(ctx context.Context, sessionID string) (*ledger.Session, error)
	SetSummary(ctx context.Context, sessionID string, summaryLogs []string, logFilePath string) error
}

// ProgressFunc is an optional external progress observer. It runs after the
// ledger update for each terminal outcome; panics are swallowed.
type ProgressFunc func(completed, total int, candidateKey string)

// SupervisorOptions configures one batch run.
type SupervisorOptions struct {
	MaxWorkers int
	// LogFilePath is recorded in the session metadata so observers can find
	// the detailed worker log.
	LogFilePath string
	Progress    ProgressFunc
	Cleanup     CleanupFunc
	Logger      *slog.Logger
}

// Supervisor orchestrates one batch: it creates the session, runs the
// scheduler, and finalizes the session exactly once. A cancellation state
// written by an external observer is never overwritten at finalize time.
type Supervisor struct {
	store     Ledger
	processor ItemProcessor
	opts      SupervisorOptions
	logger    *slog.Logger
}

// NewSupervisor builds a supervisor around the ledger and processor.
func NewSupervisor(store Ledger, processor ItemProcessor, opts SupervisorOptions) *Supervisor {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Supervisor{store: store, processor: processor, opts: opts, logger: logger}
}

// Result reports one finished batch run.
type Result struct {
	SessionID   string
	FinalStatus ledger.Status
	Stopped     bool
	SummaryLogs []string
	Outcomes    []Outcome
}

// Run executes the batch rooted at sourceDir. An empty sessionID allocates a
// fresh one. The error return covers scheduler-fatal faults only; per-item
// failures are data inside the session record and the result.
func (s *Supervisor) Run(ctx context.Context, sessionID, sourceDir string) (*Result, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger := s.logger.With(logging.String(logging.FieldSessionID, sessionID))

	meta := ledger.Metadata{
		SourceDir:   sourceDir,
		MaxWorkers:  s.opts.MaxWorkers,
		LogFilePath: s.opts.LogFilePath,
	}

	items, discoverErr := DiscoverItems(sourceDir)
	if discoverErr != nil {
		if _, err := s.store.Create(ctx, sessionID, 0, meta); err != nil {
			logger.Error("session create failed", logging.Error(err))
		}
		if err := s.store.Update(ctx, sessionID, 0, "", discoverErr.Error()); err != nil {
			logger.Warn("session error record failed", logging.Error(err))
		}
		s.finalize(ctx, logger, sessionID, ledger.StatusFailed)
		return &Result{SessionID: sessionID, FinalStatus: s.currentStatus(ctx, sessionID, ledger.StatusFailed)}, discoverErr
	}

	if _, err := s.store.Create(ctx, sessionID, len(items), meta); err != nil {
		// Without a session row there is nothing to supervise.
		return nil, fmt.Errorf("create session: %w", err)
	}
	logger.Info("session started",
		logging.Int("total_items", len(items)),
		logging.Int("max_workers", s.opts.MaxWorkers),
		logging.String("source_dir", sourceDir))

	if len(items) == 0 {
		summary := []string{fmt.Sprintf("no candidate folders found under %s", sourceDir)}
		s.setSummary(ctx, logger, sessionID, summary)
		s.finalize(ctx, logger, sessionID, ledger.StatusCompleted)
		return &Result{
			SessionID:   sessionID,
			FinalStatus: s.currentStatus(ctx, sessionID, ledger.StatusCompleted),
			SummaryLogs: summary,
		}, nil
	}

	stop := NewStopChecker(s.store, sessionID, logger)
	scheduler := NewScheduler(s.processor, SchedulerOptions{
		MaxWorkers: s.opts.MaxWorkers,
		ShouldStop: stop.ShouldStop,
		OnItemDone: s.recordOutcome(ctx, sessionID, logger),
		Cleanup:    s.opts.Cleanup,
		Logger:     logger,
	})

	runResult, err := scheduler.Run(ctx, items)
	if err != nil {
		if updateErr := s.store.Update(ctx, sessionID, 0, "", err.Error()); updateErr != nil {
			logger.Warn("session error record failed", logging.Error(updateErr))
		}
		s.finalize(ctx, logger, sessionID, ledger.StatusFailed)
		return &Result{
			SessionID:   sessionID,
			FinalStatus: s.currentStatus(ctx, sessionID, ledger.StatusFailed),
		}, err
	}

	stopped := runResult.Stopped || stop.ShouldStop(ctx)
	summary := runResult.SummaryLines()
	if stopped {
		summary = append(summary, fmt.Sprintf("stopped with %d of %d candidate(s) processed",
			len(runResult.Outcomes), len(items)))
	}
	s.setSummary(ctx, logger, sessionID, summary)

	// A fully drained batch is COMPLETED even when individual candidates
	// failed; batch failure is reserved for scheduler-level faults.
	s.finalize(ctx, logger, sessionID, ledger.StatusCompleted)

	result := &Result{
		SessionID:   sessionID,
		FinalStatus: s.currentStatus(ctx, sessionID, ledger.StatusCompleted),
		Stopped:     stopped,
		SummaryLogs: summary,
		Outcomes:    runResult.Outcomes,
	}
	logger.Info("session finished",
		logging.String("status", string(result.FinalStatus)),
		logging.Int("processed", len(runResult.Outcomes)),
		logging.Int("failures", len(runResult.Failures())),
		logging.Bool("stopped", stopped))
	return result, nil
}

// recordOutcome translates each terminal outcome into a ledger update and
// forwards it to the external observer. Ledger write failures degrade
// visibility only and never interrupt the batch.
func (s *Supervisor) recordOutcome(ctx context.Context, sessionID string, logger *slog.Logger) DoneFunc {
	return func(completed, total int, outcome Outcome) {
		errMsg := ""
		if outcome.Kind == OutcomeFailure {
			errMsg = fmt.Sprintf("%s: %s", outcome.Item, outcome.Err)
		}
		if err := s.store.Update(ctx, sessionID, completed, outcome.Item, errMsg); err != nil {
			logger.Warn("progress update failed",
				logging.String(logging.FieldCandidate, outcome.Item),
				logging.Error(err))
		}
		logger.Info("candidate finished",
			logging.String(logging.FieldCandidate, outcome.Item),
			logging.String("outcome", outcome.Kind.String()),
			logging.Int("completed", completed),
			logging.Int("total", total))
		if s.opts.Progress != nil {
			s.opts.Progress(completed, total, outcome.Item)
		}
	}
}

func (s *Supervisor) setSummary(ctx context.Context, logger *slog.Logger, sessionID string, summary []string) {
	if err := s.store.SetSummary(ctx, sessionID, summary, s.opts.LogFilePath); err != nil {
		logger.Warn("summary persist failed", logging.Error(err))
	}
}

// finalize moves the session to the terminal status unless it already left
// RUNNING, which preserves externally requested cancellation states.
func (s *Supervisor) finalize(ctx context.Context, logger *slog.Logger, sessionID string, status ledger.Status) {
	applied, err := s.store.Finalize(ctx, sessionID, status)
	if err != nil {
		logger.Error("session finalize failed", logging.Error(err))
		return
	}
	if !applied {
		logger.Info("session already terminal, finalize skipped",
			logging.String("requested_status", string(status)))
	}
}

func (s *Supervisor) currentStatus(ctx context.Context, sessionID string, fallback ledger.Status) ledger.Status {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil || session == nil {
		return fallback
	}
	return session.Status
}
