package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteSizedFile writes size bytes of a repeating non-uniform pattern to
// path, creating parent directories. A size of zero leaves an empty file.
func WriteSizedFile(t testing.TB, path string, size int) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data := make([]byte, max(size, 0))
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
