package ingest

// OutcomeKind tags the terminal result of one candidate.
type OutcomeKind int

const (
	// OutcomeSuccess means at least one extraction phase produced a usable
	// result. Individual phase warnings and failures ride along as log lines.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeFailure means every attempted phase failed and the candidate
	// produced nothing usable.
	OutcomeFailure
	// OutcomeSkipped means the candidate had no processable input.
	OutcomeSkipped
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of one candidate. It travels up the call
// stack only; durable state is limited to the flattened lines recorded in the
// session summary and error list.
type Outcome struct {
	Item   string
	Kind   OutcomeKind
	Logs   []string
	Err    string
	Reason string
}

// SuccessOutcome builds a success result carrying per-phase log lines.
func SuccessOutcome(item string, logs []string) Outcome {
	return Outcome{Item: item, Kind: OutcomeSuccess, Logs: logs}
}

// FailureOutcome builds a failure result carrying the error message.
func FailureOutcome(item string, errMsg string) Outcome {
	return Outcome{Item: item, Kind: OutcomeFailure, Err: errMsg}
}

// SkippedOutcome builds a skip result carrying the reason.
func SkippedOutcome(item string, reason string) Outcome {
	return Outcome{Item: item, Kind: OutcomeSkipped, Reason: reason}
}

// SummaryLines flattens the outcome into the lines recorded in the session
// summary.
func (o Outcome) SummaryLines() []string {
	switch o.Kind {
	case OutcomeSuccess:
		if len(o.Logs) == 0 {
			return []string{o.Item + ": processed"}
		}
		return o.Logs
	case OutcomeFailure:
		return []string{o.Item + ": failed: " + o.Err}
	case OutcomeSkipped:
		return []string{o.Item + ": skipped: " + o.Reason}
	default:
		return nil
	}
}
