package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vitae/internal/config"
	"vitae/internal/logging"
)

// MetadataIngestor runs the first extraction phase over the marker-matched
// documents of one candidate and returns a summary line.
type MetadataIngestor interface {
	IngestProfile(ctx context.Context, candidateKey string, files []string) (string, error)
}

// SkillIngestor runs the second extraction phase over the remaining documents
// of one candidate and returns a summary line.
type SkillIngestor interface {
	IngestSkills(ctx context.Context, candidateKey string, files []string) (string, error)
}

// Processor runs both extraction phases for one candidate. Phase failures are
// isolated from each other; the outcome is a failure only when every
// attempted phase failed.
type Processor struct {
	metadata MetadataIngestor
	skills   SkillIngestor

	marker     string
	extensions []string
	logger     *slog.Logger
}

// NewProcessor wires a processor from the ingest config section.
func NewProcessor(cfg *config.Config, metadata MetadataIngestor, skills SkillIngestor, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{
		metadata:   metadata,
		skills:     skills,
		marker:     cfg.Ingest.MetadataMarker,
		extensions: append([]string(nil), cfg.Ingest.Extensions...),
		logger:     logger,
	}
}

// Process runs both phases for one candidate and reduces the results into a
// single outcome.
func (p *Processor) Process(ctx context.Context, item Item) Outcome {
	files, err := p.candidateFiles(item.Dir)
	if err != nil {
		// An I/O fault is a real failure, unlike a folder that is merely
		// empty; it must land in the session error list.
		p.logger.Error("candidate folder unreadable",
			logging.String(logging.FieldCandidate, item.Key),
			logging.Error(err))
		return FailureOutcome(item.Key, err.Error())
	}
	if len(files) == 0 {
		p.logger.Info("no resume documents found",
			logging.String(logging.FieldCandidate, item.Key))
		return SkippedOutcome(item.Key, "no resume documents found")
	}

	marked, normal := p.splitByMarker(files)

	var logs []string
	failures := 0
	attempted := 0

	if len(marked) > 0 {
		attempted++
		summary, err := p.metadata.IngestProfile(ctx, item.Key, marked)
		if err != nil {
			failures++
			logs = append(logs, fmt.Sprintf("%s: profile phase failed: %v", item.Key, err))
			p.logger.Error("profile phase failed",
				logging.String(logging.FieldCandidate, item.Key),
				logging.Error(err))
		} else {
			logs = append(logs, summary)
		}
	} else {
		logs = append(logs, fmt.Sprintf("%s: warning: no %q document found", item.Key, p.marker))
		p.logger.Warn("no marker document found",
			logging.String(logging.FieldCandidate, item.Key),
			logging.String("marker", p.marker))
	}

	if len(normal) > 0 {
		attempted++
		summary, err := p.skills.IngestSkills(ctx, item.Key, normal)
		if err != nil {
			failures++
			logs = append(logs, fmt.Sprintf("%s: skills phase failed: %v", item.Key, err))
			p.logger.Error("skills phase failed",
				logging.String(logging.FieldCandidate, item.Key),
				logging.Error(err))
		} else {
			logs = append(logs, summary)
		}
	} else {
		logs = append(logs, fmt.Sprintf("%s: warning: no regular resume found", item.Key))
		p.logger.Warn("no regular resume found",
			logging.String(logging.FieldCandidate, item.Key))
	}

	if attempted > 0 && failures == attempted {
		return FailureOutcome(item.Key,
			fmt.Sprintf("all %d extraction phase(s) failed: %s", attempted, strings.Join(logs, "; ")))
	}
	return SuccessOutcome(item.Key, logs)
}

// candidateFiles gathers the candidate's documents with a configured
// extension, sorted by name.
func (p *Processor) candidateFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unreadable candidate folder: %v", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, allowed := range p.extensions {
			if ext == allowed {
				files = append(files, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func (p *Processor) splitByMarker(files []string) (marked, normal []string) {
	for _, file := range files {
		base := strings.ToLower(filepath.Base(file))
		if p.marker != "" && strings.Contains(base, p.marker) {
			marked = append(marked, file)
		} else {
			normal = append(normal, file)
		}
	}
	return marked, normal
}
