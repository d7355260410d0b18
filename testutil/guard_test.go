package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordingTB struct {
	failed string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Fatalf(format string, args ...any) {
	r.failed = fmt.Sprintf(format, args...)
}

func TestStorageDriverForbidden(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"github.com/jackc/pgx/v5/stdlib", true},
		{"modernc.org/sqlite", true},
		{"github.com/dgraph-io/badger/v4", true},
		{"github.com/aws/aws-sdk-go-v2/service/s3", true},
		{"initiative/internal/infra/persistence/memory", true},
		{"initiative/internal/core", false},
		{"github.com/google/uuid", false},
		{"database/sql", false},
	}
	for _, c := range cases {
		if got := StorageDriverForbidden(c.in); got != c.want {
			t.Fatalf("StorageDriverForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestInternalImportForbidden(t *testing.T) {
	if !InternalImportForbidden("initiative/internal/core") {
		t.Fatalf("expected internal path to be forbidden")
	}
	for _, allowed := range []string{"initiative/pkg/domain", "crypto/internal/fips140/drbg", "initiative/internalize"} {
		if InternalImportForbidden(allowed) {
			t.Fatalf("expected %q to be allowed", allowed)
		}
	}
}

func writeFile(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestAssertNoDirectImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package tmp\nimport \"modernc.org/sqlite\"\nvar _ = sqlite.Error{}\n")
	writeFile(t, dir, "a_test.go", "package tmp\nimport \"github.com/jackc/pgx/v5\"\n")
	writeFile(t, dir, "b.go", "package tmp\nimport \"fmt\"\nvar _ = fmt.Sprint\n")
	if err := os.Mkdir(filepath.Join(dir, "sub.go"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	rec := &recordingTB{}
	AssertNoDirectImports(rec, dir, StorageDriverForbidden, "no drivers")
	if !strings.Contains(rec.failed, "modernc.org/sqlite (in a.go)") {
		t.Fatalf("expected sqlite violation, got %q", rec.failed)
	}
	if strings.Contains(rec.failed, "pgx") {
		t.Fatalf("test files must be ignored: %q", rec.failed)
	}

	rec = &recordingTB{}
	AssertNoDirectImports(rec, dir, func(string) bool { return false }, "none")
	if rec.failed != "" {
		t.Fatalf("unexpected failure %q", rec.failed)
	}
}

func TestAssertNoDirectImportsReportsBadDir(t *testing.T) {
	rec := &recordingTB{}
	AssertNoDirectImports(rec, filepath.Join(t.TempDir(), "missing"), StorageDriverForbidden, "none")
	if !strings.HasPrefix(rec.failed, "scan ") {
		t.Fatalf("expected scan failure, got %q", rec.failed)
	}
}

func TestAssertNoTransitiveDependency(t *testing.T) {
	AssertNoTransitiveDependency(t, "initiative/pkg/domain", StorageDriverForbidden, "domain stays storage-free")

	rec := &recordingTB{}
	AssertNoTransitiveDependency(rec, "initiative/internal/core", StorageDriverForbidden, "core links every backend")
	if !strings.Contains(rec.failed, "initiative/internal/infra/persistence/memory") {
		t.Fatalf("expected core to reach the memory backend, got %q", rec.failed)
	}
}
