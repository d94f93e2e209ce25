package ingest_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vitae/internal/ingest"
)

func TestSchedulerProcessesEverythingWithinWorkerBound(t *testing.T) {
	processor := &stubProcessor{delay: 5 * time.Millisecond}
	var counts []int
	var mu sync.Mutex

	scheduler := ingest.NewScheduler(processor, ingest.SchedulerOptions{
		MaxWorkers: 3,
		OnItemDone: func(completed, total int, _ ingest.Outcome) {
			mu.Lock()
			counts = append(counts, completed)
			mu.Unlock()
			if total != 10 {
				t.Errorf("unexpected total %d", total)
			}
		},
	})

	result, err := scheduler.Run(context.Background(), makeItems(10))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Outcomes) != 10 {
		t.Fatalf("expected 10 outcomes, got %d", len(result.Outcomes))
	}
	if result.Stopped {
		t.Error("unexpected stop")
	}
	if processor.maxInFlight > 3 {
		t.Errorf("worker bound exceeded: %d in flight", processor.maxInFlight)
	}
	for i, count := range counts {
		if count != i+1 {
			t.Fatalf("completed counts not monotonic: %v", counts)
		}
	}
}

func TestSchedulerIsolatesSingleFailure(t *testing.T) {
	processor := &stubProcessor{failKeys: map[string]bool{"candidate-02": true}}
	scheduler := ingest.NewScheduler(processor, ingest.SchedulerOptions{MaxWorkers: 2})

	result, err := scheduler.Run(context.Background(), makeItems(5))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Outcomes) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(result.Outcomes))
	}
	failures := result.Failures()
	if len(failures) != 1 || failures[0].Item != "candidate-02" {
		t.Fatalf("unexpected failures %v", failures)
	}
	lines := result.SummaryLines()
	if len(lines) != 5 {
		t.Errorf("expected 5 summary lines, got %v", lines)
	}
}

func TestSchedulerConvertsProcessorPanicToFailure(t *testing.T) {
	processor := &stubProcessor{panicKeys: map[string]bool{"candidate-01": true}}
	scheduler := ingest.NewScheduler(processor, ingest.SchedulerOptions{MaxWorkers: 1})

	result, err := scheduler.Run(context.Background(), makeItems(2))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	failures := result.Failures()
	if len(failures) != 1 || !strings.Contains(failures[0].Err, "panic") {
		t.Fatalf("expected panic converted to failure, got %v", failures)
	}
	if len(result.Outcomes) != 2 {
		t.Errorf("sibling item should still run, got %d outcomes", len(result.Outcomes))
	}
}

func TestSchedulerSwallowsObserverPanics(t *testing.T) {
	processor := &stubProcessor{}
	scheduler := ingest.NewScheduler(processor, ingest.SchedulerOptions{
		MaxWorkers: 2,
		OnItemDone: func(int, int, ingest.Outcome) {
			panic("observer exploded")
		},
	})

	result, err := scheduler.Run(context.Background(), makeItems(4))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Outcomes) != 4 {
		t.Errorf("expected 4 outcomes despite observer panics, got %d", len(result.Outcomes))
	}
}

func TestSchedulerStopsDispatchingAfterStopSignal(t *testing.T) {
	const total = 10
	const workers = 2

	processor := &stubProcessor{delay: 5 * time.Millisecond}
	var completed atomic.Int32
	scheduler := ingest.NewScheduler(processor, ingest.SchedulerOptions{
		MaxWorkers: workers,
		ShouldStop: func(context.Context) bool {
			return completed.Load() >= 4
		},
		OnItemDone: func(int, int, ingest.Outcome) {
			completed.Add(1)
		},
	})

	result, err := scheduler.Run(context.Background(), makeItems(total))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Stopped {
		t.Fatal("expected scheduler to report a stop")
	}
	got := len(result.Outcomes)
	if got < 4 || got > 4+workers {
		t.Fatalf("processed count %d outside cancellation window", got)
	}
	if got != result.Dispatched {
		t.Errorf("every dispatched item must complete: dispatched %d, outcomes %d",
			result.Dispatched, got)
	}
	if ran := processor.processedKeys(); len(ran) != got {
		t.Errorf("items beyond the in-flight set were attempted: %v", ran)
	}
}

// processorFunc adapts a function to the ItemProcessor interface.
type processorFunc func(context.Context, ingest.Item) ingest.Outcome

func (f processorFunc) Process(ctx context.Context, item ingest.Item) ingest.Outcome {
	return f(ctx, item)
}

func TestSchedulerHonorsStopWhileWaitingForSlot(t *testing.T) {
	started := make(chan string, 3)
	release := make(chan struct{})
	processor := processorFunc(func(_ context.Context, item ingest.Item) ingest.Outcome {
		started <- item.Key
		<-release
		return ingest.SuccessOutcome(item.Key, nil)
	})

	var stop atomic.Bool
	scheduler := ingest.NewScheduler(processor, ingest.SchedulerOptions{
		MaxWorkers: 1,
		ShouldStop: func(context.Context) bool { return stop.Load() },
	})

	done := make(chan *ingest.RunResult, 1)
	go func() {
		result, err := scheduler.Run(context.Background(), makeItems(3))
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
		done <- result
	}()

	select {
	case key := <-started:
		if key != "candidate-01" {
			t.Fatalf("unexpected first candidate %s", key)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first candidate never started")
	}

	// The stop lands while candidate-01 holds the only slot and nothing has
	// completed. The dispatcher is already waiting for that slot, but the
	// queued candidate must not start once it frees.
	stop.Store(true)
	close(release)

	var result *ingest.RunResult
	select {
	case result = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not drain")
	}

	if !result.Stopped {
		t.Fatal("expected scheduler to report a stop")
	}
	if len(result.Outcomes) != 1 {
		t.Fatalf("expected only the in-flight candidate to finish, got %d outcomes", len(result.Outcomes))
	}
	if result.Dispatched != 1 {
		t.Fatalf("expected a single dispatch, got %d", result.Dispatched)
	}
	select {
	case key := <-started:
		t.Fatalf("candidate %s started after the stop", key)
	default:
	}
}

func TestSchedulerCleansUpFailureAfterCancellation(t *testing.T) {
	processor := &stubProcessor{failKeys: map[string]bool{"candidate-01": true}}
	var stop atomic.Bool
	var cleaned []string
	scheduler := ingest.NewScheduler(processor, ingest.SchedulerOptions{
		MaxWorkers: 1,
		ShouldStop: func(context.Context) bool { return stop.Load() },
		OnItemDone: func(int, int, ingest.Outcome) { stop.Store(true) },
		Cleanup: func(_ context.Context, candidateKey string) error {
			cleaned = append(cleaned, candidateKey)
			return nil
		},
	})

	result, err := scheduler.Run(context.Background(), makeItems(3))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Outcomes) != 1 {
		t.Fatalf("expected a single outcome before the stop, got %d", len(result.Outcomes))
	}
	if len(cleaned) != 1 || cleaned[0] != "candidate-01" {
		t.Errorf("expected cleanup for the failed candidate, got %v", cleaned)
	}
}

func TestSchedulerRejectsNonPositiveWorkerCount(t *testing.T) {
	scheduler := ingest.NewScheduler(&stubProcessor{}, ingest.SchedulerOptions{MaxWorkers: 0})
	if _, err := scheduler.Run(context.Background(), makeItems(1)); err == nil {
		t.Fatal("expected error for zero workers")
	}
}
