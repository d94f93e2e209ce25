package ingest_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vitae/internal/ingest"
)

// stubProcessor is a controllable ItemProcessor that tracks which candidates
// ran and how many ran at once.
type stubProcessor struct {
	mu          sync.Mutex
	delay       time.Duration
	failKeys    map[string]bool
	panicKeys   map[string]bool
	processed   []string
	inFlight    int
	maxInFlight int
}

func (p *stubProcessor) Process(_ context.Context, item ingest.Item) ingest.Outcome {
	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.maxInFlight {
		p.maxInFlight = p.inFlight
	}
	p.mu.Unlock()

	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	p.mu.Lock()
	p.inFlight--
	p.processed = append(p.processed, item.Key)
	p.mu.Unlock()

	if p.panicKeys[item.Key] {
		panic("boom: " + item.Key)
	}
	if p.failKeys[item.Key] {
		return ingest.FailureOutcome(item.Key, "extraction blew up")
	}
	return ingest.SuccessOutcome(item.Key, []string{item.Key + ": processed"})
}

func (p *stubProcessor) processedKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.processed...)
}

func makeItems(n int) []ingest.Item {
	items := make([]ingest.Item, 0, n)
	for i := 1; i <= n; i++ {
		key := fmt.Sprintf("candidate-%02d", i)
		items = append(items, ingest.Item{Key: key, DisplayName: key, Dir: "/nonexistent/" + key})
	}
	return items
}
