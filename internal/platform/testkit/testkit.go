// Package testkit holds assertions and seam helpers shared by package tests
package testkit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// MustPanic fails t unless fn panics
func MustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic, got none")
		}
	}()
	fn()
}

// MustContain fails t unless out contains want. Long log output is dumped
// to a file under t.TempDir instead of the failure message
func MustContain(t *testing.T, out, want string) {
	t.Helper()
	if strings.Contains(out, want) {
		return
	}
	if len(out) <= 512 {
		t.Fatalf("expected output to contain %q, got:\n%s", want, out)
	}
	dump := filepath.Join(t.TempDir(), sanitize(t.Name())+".log")
	_ = os.WriteFile(dump, []byte(out), 0o600)
	t.Fatalf("expected output to contain %q\n\nfull output (%d bytes) written to %s", want, len(out), dump)
}

func sanitize(name string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(name)
}
