package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vitae/internal/config"
)

// Store persists extracted candidate content. It backs the two extraction
// phases and the best-effort cleanup performed when a cancellation leaves a
// candidate partially ingested.
type Store struct {
	db   *sql.DB
	path string
}

// DeletedCounts reports how many rows a candidate purge removed per table.
type DeletedCounts struct {
	Profiles int64
	Skills   int64
}

// Total returns the combined number of removed rows.
func (d DeletedCounts) Total() int64 {
	return d.Profiles + d.Skills
}

// Open initializes or connects to the records database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	dbPath := filepath.Join(cfg.Paths.DataDir, "records.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
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

// ReplaceProfile upserts the metadata fields extracted for a candidate.
func (s *Store) ReplaceProfile(ctx context.Context, candidateKey string, fields map[string]string) error {
	candidateKey = strings.TrimSpace(candidateKey)
	if candidateKey == "" {
		return errors.New("candidate key is required")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin profile tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM candidate_profiles WHERE candidate_key = ?`, candidateKey); err != nil {
		return fmt.Errorf("clear profile: %w", err)
	}
	for field, value := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO candidate_profiles (candidate_key, field, value, updated_at) VALUES (?, ?, ?, ?)`,
			candidateKey, field, value, now,
		); err != nil {
			return fmt.Errorf("insert profile field %q: %w", field, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile: %w", err)
	}
	return nil
}

// ReplaceSkills upserts the skill list extracted for a candidate.
func (s *Store) ReplaceSkills(ctx context.Context, candidateKey string, skills []string) error {
	candidateKey = strings.TrimSpace(candidateKey)
	if candidateKey == "" {
		return errors.New("candidate key is required")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin skills tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM candidate_skills WHERE candidate_key = ?`, candidateKey); err != nil {
		return fmt.Errorf("clear skills: %w", err)
	}
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(skill)]; ok {
			continue
		}
		seen[strings.ToLower(skill)] = struct{}{}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO candidate_skills (candidate_key, skill, updated_at) VALUES (?, ?, ?)`,
			candidateKey, skill, now,
		); err != nil {
			return fmt.Errorf("insert skill %q: %w", skill, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit skills: %w", err)
	}
	return nil
}

// DeleteCandidate removes every persisted record for a candidate and reports
// the per-table counts. It is the cleanup path used when cancellation leaves
// a candidate partially ingested.
func (s *Store) DeleteCandidate(ctx context.Context, candidateKey string) (DeletedCounts, error) {
	var counts DeletedCounts

	res, err := s.db.ExecContext(ctx, `DELETE FROM candidate_profiles WHERE candidate_key = ?`, candidateKey)
	if err != nil {
		return counts, fmt.Errorf("delete profile records: %w", err)
	}
	counts.Profiles, _ = res.RowsAffected()

	res, err = s.db.ExecContext(ctx, `DELETE FROM candidate_skills WHERE candidate_key = ?`, candidateKey)
	if err != nil {
		return counts, fmt.Errorf("delete skill records: %w", err)
	}
	counts.Skills, _ = res.RowsAffected()

	return counts, nil
}

// ProfileFields returns the stored metadata fields for a candidate.
func (s *Store) ProfileFields(ctx context.Context, candidateKey string) (map[string]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT field, value FROM candidate_profiles WHERE candidate_key = ? ORDER BY field`,
		candidateKey,
	)
	if err != nil {
		return nil, fmt.Errorf("query profile fields: %w", err)
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, err
		}
		fields[field] = value
	}
	return fields, rows.Err()
}

// Skills returns the stored skill list for a candidate, sorted.
func (s *Store) Skills(ctx context.Context, candidateKey string) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT skill FROM candidate_skills WHERE candidate_key = ?`,
		candidateKey,
	)
	if err != nil {
		return nil, fmt.Errorf("query skills: %w", err)
	}
	defer rows.Close()

	var skills []string
	for rows.Next() {
		var skill string
		if err := rows.Scan(&skill); err != nil {
			return nil, err
		}
		skills = append(skills, skill)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(skills)
	return skills, nil
}
