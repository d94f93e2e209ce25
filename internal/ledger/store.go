package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vitae/internal/config"
)

// Store manages session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "sessions.db"))
}

// OpenPath opens the ledger database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the ledger database location.
func (s *Store) Path() string {
	return s.path
}

// Create registers a session as RUNNING. It has upsert semantics: calling it
// again with the same session id resets the existing row instead of creating
// a duplicate.
func (s *Store) Create(ctx context.Context, sessionID string, totalItems int, meta Metadata) (*Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	if totalItems < 0 {
		return nil, fmt.Errorf("total items must not be negative, got %d", totalItems)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (
            session_id, status, total_items, processed_items, current_item,
            started_at, updated_at, metadata_json, errors_json
        ) VALUES (?, ?, ?, 0, NULL, ?, ?, ?, '[]')
        ON CONFLICT(session_id) DO UPDATE SET
            status = excluded.status,
            total_items = excluded.total_items,
            processed_items = excluded.processed_items,
            current_item = excluded.current_item,
            started_at = excluded.started_at,
            updated_at = excluded.updated_at,
            metadata_json = excluded.metadata_json,
            errors_json = excluded.errors_json`,
		sessionID,
		StatusRunning,
		totalItems,
		now,
		now,
		string(metaJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s.Get(ctx, sessionID)
}

// Update records progress for a session. The processed count is an absolute
// value computed by the caller, never an in-place increment, so concurrent
// writers cannot lose updates. A non-empty errMsg is appended to the
// session's error list in the same statement.
func (s *Store) Update(ctx context.Context, sessionID string, processedItems int, currentItem, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	var err error
	if strings.TrimSpace(errMsg) != "" {
		_, err = s.db.ExecContext(
			ctx,
			`UPDATE sessions
             SET processed_items = ?, current_item = ?, updated_at = ?,
                 errors_json = json_insert(errors_json, '$[#]', ?)
             WHERE session_id = ?`,
			processedItems,
			nullableString(currentItem),
			now,
			errMsg,
			sessionID,
		)
	} else {
		_, err = s.db.ExecContext(
			ctx,
			`UPDATE sessions
             SET processed_items = ?, current_item = ?, updated_at = ?
             WHERE session_id = ?`,
			processedItems,
			nullableString(currentItem),
			now,
			sessionID,
		)
	}
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Finalize moves a RUNNING session to a terminal status. It reports whether
// the transition was applied; a session already in a terminal state (for
// example cancelled by an observer) is left untouched.
func (s *Store) Finalize(ctx context.Context, sessionID string, status Status) (bool, error) {
	if !status.IsTerminal() {
		return false, fmt.Errorf("status %q is not terminal", status)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions SET status = ?, current_item = NULL, updated_at = ?
         WHERE session_id = ? AND status = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		sessionID,
		StatusRunning,
	)
	if err != nil {
		return false, fmt.Errorf("finalize session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Cancel requests a cooperative stop by moving a RUNNING session to a
// cancellation terminal. The worker observes the flip between dispatches;
// in-flight candidates finish.
func (s *Store) Cancel(ctx context.Context, sessionID string, status Status) (bool, error) {
	if !status.IsCancel() {
		return false, fmt.Errorf("status %q is not a cancellation state", status)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions SET status = ?, current_item = ?, updated_at = ?
         WHERE session_id = ? AND status = ?`,
		status,
		StoppingMessage,
		time.Now().UTC().Format(time.RFC3339Nano),
		sessionID,
		StatusRunning,
	)
	if err != nil {
		return false, fmt.Errorf("cancel session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Archive force-moves a session to ARCHIVED regardless of its current status.
// This is the recovery path for sessions left RUNNING by a crashed worker.
func (s *Store) Archive(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions SET status = ?, updated_at = ?
         WHERE session_id = ? AND status != ?`,
		StatusArchived,
		time.Now().UTC().Format(time.RFC3339Nano),
		sessionID,
		StatusArchived,
	)
	if err != nil {
		return false, fmt.Errorf("archive session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetSummary stores the flattened run summary and the detailed log artifact
// path in the session metadata.
func (s *Store) SetSummary(ctx context.Context, sessionID string, summaryLogs []string, logFilePath string) error {
	logsJSON, err := json.Marshal(summaryLogs)
	if err != nil {
		return fmt.Errorf("marshal summary logs: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE sessions
         SET metadata_json = json_set(json_set(metadata_json, '$.summary_logs', json(?)), '$.log_file_path', ?),
             updated_at = ?
         WHERE session_id = ?`,
		string(logsJSON),
		logFilePath,
		time.Now().UTC().Format(time.RFC3339Nano),
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("set session summary: %w", err)
	}
	return nil
}

// Get fetches a session by identifier. A missing session yields (nil, nil).
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, sessionID)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListActive returns RUNNING sessions, newest first.
func (s *Store) ListActive(ctx context.Context) ([]*Session, error) {
	return s.List(ctx, StatusRunning)
}

// List returns sessions filtered by status set (or all sessions when no
// status is provided), newest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Session, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + sessionColumns + ` FROM sessions`
	orderClause := ` ORDER BY started_at DESC`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

const sessionColumns = "session_id, status, total_items, processed_items, current_item, started_at, updated_at, metadata_json, errors_json"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		sessionID   string
		statusStr   string
		totalItems  int
		processed   int
		currentItem sql.NullString
		startedRaw  string
		updatedRaw  string
		metaRaw     sql.NullString
		errorsRaw   sql.NullString
	)

	if err := scanner.Scan(
		&sessionID,
		&statusStr,
		&totalItems,
		&processed,
		&currentItem,
		&startedRaw,
		&updatedRaw,
		&metaRaw,
		&errorsRaw,
	); err != nil {
		return nil, err
	}

	session := &Session{
		SessionID:      sessionID,
		Status:         Status(statusStr),
		TotalItems:     totalItems,
		ProcessedItems: processed,
		CurrentItem:    currentItem.String,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		session.StartedAt = started
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		session.UpdatedAt = updated
	}
	if metaRaw.Valid && metaRaw.String != "" {
		if err := json.Unmarshal([]byte(metaRaw.String), &session.Metadata); err != nil {
			return nil, fmt.Errorf("decode session metadata: %w", err)
		}
	}
	if errorsRaw.Valid && errorsRaw.String != "" {
		if err := json.Unmarshal([]byte(errorsRaw.String), &session.Errors); err != nil {
			return nil, fmt.Errorf("decode session errors: %w", err)
		}
	}
	return session, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
