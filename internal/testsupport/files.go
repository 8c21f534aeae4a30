package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// Bytes returns size bytes of a simple repeating pattern. A size <= 0 yields
// a single byte.
func Bytes(size int) []byte {
	if size <= 0 {
		size = 1
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	return buf
}

// WriteFile fills the target path with the requested number of bytes.
func WriteFile(t testing.TB, path string, size int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, Bytes(size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
