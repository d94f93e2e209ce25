package ledger

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an ingestion session. Values are stored
// uppercase so external observers can match on the persisted strings.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusAbandoned Status = "ABANDONED"
	StatusArchived  Status = "ARCHIVED"
)

// StoppingMessage is the advisory current_item value set when a stop is requested.
const StoppingMessage = "stopping after in-flight candidates finish"

var allStatuses = []Status{
	StatusRunning,
	StatusCompleted,
	StatusFailed,
	StatusAbandoned,
	StatusArchived,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// cancelStatuses are the terminal states an external observer may request.
var cancelStatuses = map[Status]struct{}{
	StatusAbandoned: {},
	StatusArchived:  {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToUpper(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status will never transition again.
func (s Status) IsTerminal() bool {
	return s != StatusRunning && s != ""
}

// IsCancel reports whether a status is one of the cancellation terminals.
func (s Status) IsCancel() bool {
	_, ok := cancelStatuses[s]
	return ok
}

// Metadata carries the free-form session metadata persisted as JSON.
type Metadata struct {
	SummaryLogs []string `json:"summary_logs,omitempty"`
	LogFilePath string   `json:"log_file_path,omitempty"`
	SourceDir   string   `json:"source_dir,omitempty"`
	MaxWorkers  int      `json:"max_workers,omitempty"`
}

// Session is the durable progress record for one batch-ingestion run. It is
// the only channel between the worker process and external observers.
type Session struct {
	SessionID      string
	Status         Status
	TotalItems     int
	ProcessedItems int
	CurrentItem    string
	StartedAt      time.Time
	UpdatedAt      time.Time
	Metadata       Metadata
	Errors         []string
}

// Fraction returns processed/total clamped to [0,1] for display purposes.
func (s *Session) Fraction() float64 {
	if s == nil || s.TotalItems <= 0 {
		return 0
	}
	f := float64(s.ProcessedItems) / float64(s.TotalItems)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
