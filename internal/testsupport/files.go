package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteCandidateFolder creates a candidate folder under root containing the
// named document files, returning the folder path.
func WriteCandidateFolder(t testing.TB, root, candidate string, files ...string) string {
	t.Helper()

	dir := filepath.Join(root, candidate)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create candidate folder: %v", err)
	}
	for _, name := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("stub document"), 0o644); err != nil {
			t.Fatalf("write candidate file: %v", err)
		}
	}
	return dir
}
