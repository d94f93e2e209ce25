package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"vitae/internal/logging"
)

// ItemProcessor produces the terminal outcome for one candidate.
type ItemProcessor interface {
	Process(ctx context.Context, item Item) Outcome
}

// DoneFunc receives each terminal outcome together with the cumulative
// completed count. Calls are serialized and the count grows by exactly one
// per call; completion order across candidates is not guaranteed.
type DoneFunc func(completed, total int, outcome Outcome)

// CleanupFunc removes the partial durable records of one candidate. Invoked
// best-effort when cancellation lands after a failed candidate.
type CleanupFunc func(ctx context.Context, candidateKey string) error

// Scheduler dispatches candidates to a fixed-size pool of workers. A single
// candidate's failure never cancels its siblings, and a stop signal observed
// between dispatches abandons all unstarted candidates while in-flight ones
// run to completion.
type Scheduler struct {
	processor  ItemProcessor
	maxWorkers int
	shouldStop func(ctx context.Context) bool
	onItemDone DoneFunc
	cleanup    CleanupFunc
	logger     *slog.Logger
}

// SchedulerOptions configures a scheduler run.
type SchedulerOptions struct {
	MaxWorkers int
	// ShouldStop is polled with a worker slot held, immediately before each
	// dispatch, and after each failed candidate. Nil means the run cannot be
	// stopped.
	ShouldStop func(ctx context.Context) bool
	// OnItemDone observes each terminal outcome. Panics are swallowed so a
	// broken observer never affects ingestion.
	OnItemDone DoneFunc
	// Cleanup purges a candidate's partial records after a post-cancellation
	// failure. Errors are logged, never escalated.
	Cleanup CleanupFunc
	Logger  *slog.Logger
}

// NewScheduler builds a scheduler around the given processor.
func NewScheduler(processor ItemProcessor, opts SchedulerOptions) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		processor:  processor,
		maxWorkers: opts.MaxWorkers,
		shouldStop: opts.ShouldStop,
		onItemDone: opts.OnItemDone,
		cleanup:    opts.Cleanup,
		logger:     logger,
	}
}

// RunResult aggregates a scheduler run. Outcomes appear in completion order.
type RunResult struct {
	Outcomes   []Outcome
	Dispatched int
	Stopped    bool
}

// SummaryLines flattens every outcome into summary lines, in completion
// order.
func (r *RunResult) SummaryLines() []string {
	var lines []string
	for _, outcome := range r.Outcomes {
		lines = append(lines, outcome.SummaryLines()...)
	}
	return lines
}

// Failures returns the failed outcomes.
func (r *RunResult) Failures() []Outcome {
	var failures []Outcome
	for _, outcome := range r.Outcomes {
		if outcome.Kind == OutcomeFailure {
			failures = append(failures, outcome)
		}
	}
	return failures
}

// Run processes the items with at most MaxWorkers in flight and drains the
// pool before returning. The error return covers scheduler-level faults only;
// per-candidate errors are data inside the outcomes.
func (s *Scheduler) Run(ctx context.Context, items []Item) (*RunResult, error) {
	if s.maxWorkers <= 0 {
		return nil, fmt.Errorf("scheduler: max workers must be positive, got %d", s.maxWorkers)
	}
	if s.processor == nil {
		return nil, fmt.Errorf("scheduler: processor is required")
	}

	total := len(items)
	result := &RunResult{}
	var mu sync.Mutex

	group := new(errgroup.Group)
	slots := make(chan struct{}, s.maxWorkers)

	for _, item := range items {
		item := item
		// Waiting for a worker slot can outlast a cancellation request, so
		// the stop signal is polled after the slot is held. An item that
		// passed an earlier check but had not started must not start now.
		slots <- struct{}{}
		if s.shouldStop != nil && s.shouldStop(ctx) {
			<-slots
			result.Stopped = true
			break
		}
		result.Dispatched++
		group.Go(func() error {
			defer func() { <-slots }()
			outcome := s.processItem(ctx, item)

			mu.Lock()
			result.Outcomes = append(result.Outcomes, outcome)
			completed := len(result.Outcomes)
			s.notifyDone(completed, total, outcome)
			mu.Unlock()

			if outcome.Kind == OutcomeFailure && s.shouldStop != nil && s.shouldStop(ctx) {
				s.cleanupPartial(ctx, outcome.Item)
			}
			return nil
		})
	}

	// Workers never return errors; Wait only drains the pool.
	_ = group.Wait()
	return result, nil
}

// processItem guards the pool against a panicking processor so one candidate
// cannot take down its siblings.
func (s *Scheduler) processItem(ctx context.Context, item Item) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("candidate processing panicked",
				logging.String(logging.FieldCandidate, item.Key),
				logging.Any("panic", r))
			outcome = FailureOutcome(item.Key, fmt.Sprintf("panic: %v", r))
		}
	}()
	return s.processor.Process(ctx, item)
}

// notifyDone delivers one terminal outcome to the observer. Caller holds the
// completion lock, so counts arrive monotonically.
func (s *Scheduler) notifyDone(completed, total int, outcome Outcome) {
	if s.onItemDone == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("progress observer panicked",
				logging.String(logging.FieldCandidate, outcome.Item),
				logging.Any("panic", r))
		}
	}()
	s.onItemDone(completed, total, outcome)
}

func (s *Scheduler) cleanupPartial(ctx context.Context, candidateKey string) {
	if s.cleanup == nil {
		return
	}
	if err := s.cleanup(ctx, candidateKey); err != nil {
		s.logger.Warn("partial record cleanup failed",
			logging.String(logging.FieldCandidate, candidateKey),
			logging.Error(err))
	}
}
