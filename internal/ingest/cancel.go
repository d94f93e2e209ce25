package ingest

import (
	"context"
	"log/slog"

	"vitae/internal/ledger"
	"vitae/internal/logging"
)

// sessionReader is the slice of the ledger the stop checker needs.
type sessionReader interface {
	Get(ctx context.Context, sessionID string) (*ledger.Session, error)
}

// StopChecker derives the cooperative stop signal for one session by polling
// the ledger status. It never preempts in-flight work.
type StopChecker struct {
	reader    sessionReader
	sessionID string
	logger    *slog.Logger
}

// NewStopChecker builds a checker for one session.
func NewStopChecker(reader sessionReader, sessionID string, logger *slog.Logger) *StopChecker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StopChecker{reader: reader, sessionID: sessionID, logger: logger}
}

// ShouldStop reports whether the session has been moved to a cancellation
// state. Read failures degrade to false so that a flaky ledger never stops a
// healthy batch.
func (s *StopChecker) ShouldStop(ctx context.Context) bool {
	session, err := s.reader.Get(ctx, s.sessionID)
	if err != nil {
		s.logger.Warn("stop check failed",
			logging.String(logging.FieldSessionID, s.sessionID),
			logging.Error(err))
		return false
	}
	if session == nil {
		return false
	}
	if session.Status.IsCancel() {
		s.logger.Info("stop signal detected",
			logging.String(logging.FieldSessionID, s.sessionID),
			logging.String("status", string(session.Status)))
		return true
	}
	return false
}
