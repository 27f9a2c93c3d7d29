package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recorder struct {
	testing.TB
	failed string
}

func (r *recorder) Helper() {}

func (r *recorder) Fatalf(format string, args ...any) { r.failed = fmt.Sprintf(format, args...) }

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		pred Predicate
		in   string
		want bool
	}{
		{DomainImportForbidden, "labtrack/pkg/domain", true},
		{DomainImportForbidden, "example.com/mod/pkg/domain@v1", true},
		{DomainImportForbidden, "labtrack/pkg/domainx", false},
		{InternalImportForbidden, "labtrack/internal/core", true},
		{InternalImportForbidden, "labtrack/pkg/domain", false},
		{InfraImportForbidden, "labtrack/internal/infra/blob/s3", true},
		{InfraImportForbidden, "labtrack/internal/blob", false},
		{AnyOf(DomainImportForbidden, InfraImportForbidden), "labtrack/internal/infra/persistence/sqlite", true},
		{AnyOf(), "anything", false},
	}
	for _, c := range cases {
		if got := c.pred(c.in); got != c.want {
			t.Fatalf("predicate(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestAssertNoDirectImports(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package tmp\nimport \"labtrack/internal/core\"\nvar _ = core.Keys{}\n")
	writeGo(t, dir, "a_test.go", "package tmp\nimport \"labtrack/internal/infra/blob/s3\"\n")
	if err := os.Mkdir(filepath.Join(dir, "sub.go"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	AssertNoDirectImports(t, dir, InfraImportForbidden, "test files and directories are skipped")

	rec := &recorder{TB: t}
	AssertNoDirectImports(rec, dir, InternalImportForbidden, "domain purity")
	if !strings.Contains(rec.failed, "labtrack/internal/core (in a.go)") {
		t.Fatalf("expected violation, got %q", rec.failed)
	}

	rec = &recorder{TB: t}
	AssertNoDirectImports(rec, filepath.Join(dir, "missing"), InternalImportForbidden, "missing dir")
	if !strings.Contains(rec.failed, "scan") {
		t.Fatalf("expected scan failure, got %q", rec.failed)
	}
}

func TestAssertNoTransitiveDependency(t *testing.T) {
	orig := goListDeps
	t.Cleanup(func() { goListDeps = orig })

	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\nlabtrack/pkg/domain\nlabtrack/internal/infra/persistence/redis\n"), nil
	}
	AssertNoTransitiveDependency(t, "./...", func(string) bool { return false }, "sanity")

	rec := &recorder{TB: t}
	AssertNoTransitiveDependency(rec, "./...", InfraImportForbidden, "infra")
	if !strings.Contains(rec.failed, "persistence/redis") {
		t.Fatalf("expected infra violation, got %q", rec.failed)
	}

	goListDeps = func(string) ([]byte, error) { return []byte("boom"), errors.New("exit 1") }
	rec = &recorder{TB: t}
	AssertNoTransitiveDependency(rec, "./...", InfraImportForbidden, "infra")
	if !strings.Contains(rec.failed, "go list failed") {
		t.Fatalf("expected go list failure, got %q", rec.failed)
	}
}
