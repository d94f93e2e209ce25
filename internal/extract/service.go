package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vitae/internal/config"
	"vitae/internal/logging"
	"vitae/internal/records"
)

// completer is the slice of Client the extraction phases need. Tests install
// a fake to avoid real HTTP traffic.
type completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service runs both extraction phases against candidate documents and
// persists the results. It satisfies the processor's collaborator interfaces.
type Service struct {
	client    completer
	store     *records.Store
	pdftotext string
	logger    *slog.Logger
}

// NewService wires a service from the application config.
func NewService(cfg *config.Config, store *records.Store, client *Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		client:    client,
		store:     store,
		pdftotext: cfg.PdftotextBinary(),
		logger:    logger,
	}
}

// IngestProfile extracts application form fields from the marker-matched
// documents and stores them as the candidate's profile. Fields from earlier
// documents win when several documents carry the same field.
func (s *Service) IngestProfile(ctx context.Context, candidateKey string, files []string) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("profile %s: no documents supplied", candidateKey)
	}

	fields := make(map[string]string)
	var lastErr error
	succeeded := 0
	for _, file := range files {
		extracted, err := s.profileFromDocument(ctx, file)
		if err != nil {
			lastErr = err
			s.logger.Warn("profile document failed",
				logging.String(logging.FieldCandidate, candidateKey),
				logging.String("file", file),
				logging.Error(err))
			continue
		}
		succeeded++
		for field, value := range extracted {
			if _, ok := fields[field]; !ok {
				fields[field] = value
			}
		}
	}
	if succeeded == 0 {
		return "", fmt.Errorf("profile %s: all %d document(s) failed: %w", candidateKey, len(files), lastErr)
	}

	if err := s.store.ReplaceProfile(ctx, candidateKey, fields); err != nil {
		return "", fmt.Errorf("profile %s: persist: %w", candidateKey, err)
	}
	return fmt.Sprintf("%s: stored %d profile field(s) from %d document(s)",
		candidateKey, len(fields), succeeded), nil
}

func (s *Service) profileFromDocument(ctx context.Context, file string) (map[string]string, error) {
	text, err := DocumentText(ctx, s.pdftotext, file)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("document %s: no extractable text", file)
	}
	reply, err := s.client.CompleteJSON(ctx, profileSystemPrompt, text)
	if err != nil {
		return nil, err
	}

	// Values arrive as strings or JSON null; nulls mean the field was absent.
	var raw map[string]any
	if err := DecodeJSON(reply, &raw); err != nil {
		return nil, fmt.Errorf("document %s: parse reply: %w", file, err)
	}
	fields := make(map[string]string, len(raw))
	for field, value := range raw {
		str, ok := value.(string)
		if !ok {
			continue
		}
		if str = strings.TrimSpace(str); str != "" {
			fields[field] = str
		}
	}
	return fields, nil
}

// IngestSkills extracts the deduplicated skill list from the candidate's
// remaining documents and stores it.
func (s *Service) IngestSkills(ctx context.Context, candidateKey string, files []string) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("skills %s: no documents supplied", candidateKey)
	}

	var skills []string
	var lastErr error
	succeeded := 0
	for _, file := range files {
		extracted, err := s.skillsFromDocument(ctx, file)
		if err != nil {
			lastErr = err
			s.logger.Warn("skills document failed",
				logging.String(logging.FieldCandidate, candidateKey),
				logging.String("file", file),
				logging.Error(err))
			continue
		}
		succeeded++
		skills = append(skills, extracted...)
	}
	if succeeded == 0 {
		return "", fmt.Errorf("skills %s: all %d document(s) failed: %w", candidateKey, len(files), lastErr)
	}

	if err := s.store.ReplaceSkills(ctx, candidateKey, skills); err != nil {
		return "", fmt.Errorf("skills %s: persist: %w", candidateKey, err)
	}
	stored, err := s.store.Skills(ctx, candidateKey)
	if err != nil {
		return "", fmt.Errorf("skills %s: read back: %w", candidateKey, err)
	}
	return fmt.Sprintf("%s: stored %d skill(s) from %d document(s)",
		candidateKey, len(stored), succeeded), nil
}

func (s *Service) skillsFromDocument(ctx context.Context, file string) ([]string, error) {
	text, err := DocumentText(ctx, s.pdftotext, file)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("document %s: no extractable text", file)
	}
	reply, err := s.client.CompleteJSON(ctx, skillsSystemPrompt, text)
	if err != nil {
		return nil, err
	}

	var skills []string
	if err := DecodeJSON(reply, &skills); err == nil {
		return skills, nil
	}
	// Some models wrap the array in an object such as {"skills": [...]}.
	var wrapped map[string][]string
	if err := DecodeJSON(reply, &wrapped); err == nil {
		for _, values := range wrapped {
			skills = append(skills, values...)
		}
		return skills, nil
	}
	// Last resort when the reply is plain prose.
	for _, part := range strings.Split(reply, ",") {
		if part = strings.TrimSpace(part); part != "" {
			skills = append(skills, part)
		}
	}
	return skills, nil
}
