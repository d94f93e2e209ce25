package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"vitae/internal/ingest"
	"vitae/internal/testsupport"
)

// stubExtractors implements both phase interfaces with controllable errors.
type stubExtractors struct {
	mu           sync.Mutex
	profileErr   error
	skillsErr    error
	profileCalls []string
	skillsCalls  []string
}

func (s *stubExtractors) IngestProfile(_ context.Context, candidateKey string, files []string) (string, error) {
	s.mu.Lock()
	s.profileCalls = append(s.profileCalls, candidateKey)
	s.mu.Unlock()
	if s.profileErr != nil {
		return "", s.profileErr
	}
	return candidateKey + ": profile stored", nil
}

func (s *stubExtractors) IngestSkills(_ context.Context, candidateKey string, files []string) (string, error) {
	s.mu.Lock()
	s.skillsCalls = append(s.skillsCalls, candidateKey)
	s.mu.Unlock()
	if s.skillsErr != nil {
		return "", s.skillsErr
	}
	return candidateKey + ": skills stored", nil
}

func newProcessorFixture(t *testing.T, extractors *stubExtractors) (*ingest.Processor, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	root := t.TempDir()
	return ingest.NewProcessor(cfg, extractors, extractors, nil), root
}

func TestProcessorRunsBothPhases(t *testing.T) {
	extractors := &stubExtractors{}
	processor, root := newProcessorFixture(t, extractors)
	dir := testsupport.WriteCandidateFolder(t, root, "jane_doe", "profile_form.pdf", "resume.pdf")

	outcome := processor.Process(context.Background(), ingest.Item{Key: "jane_doe", Dir: dir})
	if outcome.Kind != ingest.OutcomeSuccess {
		t.Fatalf("expected success, got %v (%s %s)", outcome.Kind, outcome.Err, outcome.Reason)
	}
	if len(outcome.Logs) != 2 {
		t.Errorf("expected one line per phase, got %v", outcome.Logs)
	}
	if len(extractors.profileCalls) != 1 || len(extractors.skillsCalls) != 1 {
		t.Errorf("expected both phases to run: profile=%v skills=%v",
			extractors.profileCalls, extractors.skillsCalls)
	}
}

func TestProcessorSkipsCandidateWithoutDocuments(t *testing.T) {
	extractors := &stubExtractors{}
	processor, root := newProcessorFixture(t, extractors)
	dir := testsupport.WriteCandidateFolder(t, root, "empty_folder")

	outcome := processor.Process(context.Background(), ingest.Item{Key: "empty_folder", Dir: dir})
	if outcome.Kind != ingest.OutcomeSkipped {
		t.Fatalf("expected skip, got %v", outcome.Kind)
	}
	if len(extractors.profileCalls)+len(extractors.skillsCalls) != 0 {
		t.Error("expected no extraction calls for an empty folder")
	}
}

func TestProcessorFailsUnreadableCandidateFolder(t *testing.T) {
	extractors := &stubExtractors{}
	processor, root := newProcessorFixture(t, extractors)
	// A plain file where the folder should be makes ReadDir fail regardless
	// of permissions.
	notADir := filepath.Join(root, "broken_candidate")
	if err := os.WriteFile(notADir, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	outcome := processor.Process(context.Background(), ingest.Item{Key: "broken_candidate", Dir: notADir})
	if outcome.Kind != ingest.OutcomeFailure {
		t.Fatalf("expected failure for unreadable folder, got %v (%s)", outcome.Kind, outcome.Reason)
	}
	if !strings.Contains(outcome.Err, "unreadable candidate folder") {
		t.Errorf("unexpected failure message %q", outcome.Err)
	}
	if len(extractors.profileCalls)+len(extractors.skillsCalls) != 0 {
		t.Error("expected no extraction calls for an unreadable folder")
	}
}

func TestProcessorIgnoresUnknownExtensions(t *testing.T) {
	extractors := &stubExtractors{}
	processor, root := newProcessorFixture(t, extractors)
	dir := testsupport.WriteCandidateFolder(t, root, "notes_only", "notes.txt", "photo.jpg")

	outcome := processor.Process(context.Background(), ingest.Item{Key: "notes_only", Dir: dir})
	if outcome.Kind != ingest.OutcomeSkipped {
		t.Fatalf("expected skip, got %v", outcome.Kind)
	}
}

func TestProcessorWarnsWhenMarkerDocumentMissing(t *testing.T) {
	extractors := &stubExtractors{}
	processor, root := newProcessorFixture(t, extractors)
	dir := testsupport.WriteCandidateFolder(t, root, "jane_doe", "resume.pdf")

	outcome := processor.Process(context.Background(), ingest.Item{Key: "jane_doe", Dir: dir})
	if outcome.Kind != ingest.OutcomeSuccess {
		t.Fatalf("missing marker document must not fail the candidate, got %v", outcome.Kind)
	}
	joined := strings.Join(outcome.Logs, "\n")
	if !strings.Contains(joined, "warning") {
		t.Errorf("expected a warning line, got %v", outcome.Logs)
	}
	if len(extractors.profileCalls) != 0 {
		t.Error("profile phase should not run without marker documents")
	}
}

func TestProcessorIsolatesSinglePhaseFailure(t *testing.T) {
	extractors := &stubExtractors{profileErr: errors.New("model unwell")}
	processor, root := newProcessorFixture(t, extractors)
	dir := testsupport.WriteCandidateFolder(t, root, "jane_doe", "profile_form.pdf", "resume.pdf")

	outcome := processor.Process(context.Background(), ingest.Item{Key: "jane_doe", Dir: dir})
	if outcome.Kind != ingest.OutcomeSuccess {
		t.Fatalf("one healthy phase should keep the candidate successful, got %v", outcome.Kind)
	}
	joined := strings.Join(outcome.Logs, "\n")
	if !strings.Contains(joined, "profile phase failed") {
		t.Errorf("expected failure line for the profile phase, got %v", outcome.Logs)
	}
	if len(extractors.skillsCalls) != 1 {
		t.Error("skills phase must still run after a profile failure")
	}
}

func TestProcessorFailsWhenEveryPhaseFails(t *testing.T) {
	extractors := &stubExtractors{
		profileErr: errors.New("model unwell"),
		skillsErr:  errors.New("also unwell"),
	}
	processor, root := newProcessorFixture(t, extractors)
	dir := testsupport.WriteCandidateFolder(t, root, "jane_doe", "profile_form.pdf", "resume.pdf")

	outcome := processor.Process(context.Background(), ingest.Item{Key: "jane_doe", Dir: dir})
	if outcome.Kind != ingest.OutcomeFailure {
		t.Fatalf("expected failure when every phase fails, got %v", outcome.Kind)
	}
	if !strings.Contains(outcome.Err, "extraction phase(s) failed") {
		t.Errorf("unexpected failure message %q", outcome.Err)
	}
}
