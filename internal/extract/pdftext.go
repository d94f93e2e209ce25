package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// maxDocumentRunes bounds how much extracted text is sent to the model per
// document. Resumes run a few pages at most, so the cap only trims
// pathological inputs.
const maxDocumentRunes = 24000

var commandContext = exec.CommandContext

// DocumentText converts a candidate document to plain text using the
// configured pdftotext binary. Layout mode keeps form-style labels next to
// their values, which the field prompt relies on.
func DocumentText(ctx context.Context, pdftotextBinary, path string) (string, error) {
	cmd := commandContext(ctx, pdftotextBinary, "-layout", "-nopgbrk", path, "-") //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	text := strings.TrimSpace(stdout.String())
	runes := []rune(text)
	if len(runes) > maxDocumentRunes {
		text = string(runes[:maxDocumentRunes])
	}
	return text, nil
}
