// Package testutil provides test helpers that enforce the layering between
// the domain, the repository core, and the storage backends.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// TB is the subset of testing.TB the assertions need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// storageModules are the driver and SDK modules that only the persistence
// backends may link.
var storageModules = []string{
	"github.com/jackc/pgx/",
	"modernc.org/sqlite",
	"github.com/dgraph-io/badger/",
	"github.com/aws/aws-sdk-go-v2/",
}

// StorageDriverForbidden matches imports of database drivers, object-store
// SDKs, and the infra packages that wrap them.
func StorageDriverForbidden(path string) bool {
	if strings.Contains(path, "/internal/infra/") {
		return true
	}
	for _, prefix := range storageModules {
		if strings.HasPrefix(path, prefix) || path == strings.TrimSuffix(prefix, "/") {
			return true
		}
	}
	return false
}

// InternalImportForbidden matches this module's internal packages. Standard
// library internals such as crypto/internal/... are not matched.
func InternalImportForbidden(path string) bool {
	return path == "initiative/internal" || strings.HasPrefix(path, "initiative/internal/")
}

// AssertNoDirectImports parses the non-test .go files in dir and fails if
// any import satisfies forbidden. Build tags are not evaluated.
func AssertNoDirectImports(t TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	if len(viols) > 0 {
		t.Fatalf("forbidden direct imports detected (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}

// AssertNoTransitiveDependency loads pattern with its dependency graph and
// fails if any reachable package satisfies forbidden.
func AssertNoTransitiveDependency(t TB, pattern string, forbidden func(path string) bool, reason string) {
	t.Helper()
	viols, err := transitiveDependencyViolations(pattern, forbidden)
	if err != nil {
		t.Fatalf("load %s: %v", pattern, err)
	}
	if len(viols) > 0 {
		t.Fatalf("forbidden transitive dependency detected (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}

func transitiveDependencyViolations(pattern string, forbidden func(path string) bool) ([]string, error) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports | packages.NeedDeps}
	roots, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	packages.Visit(roots, func(pkg *packages.Package) bool {
		if seen[pkg.PkgPath] {
			return false
		}
		seen[pkg.PkgPath] = true
		return true
	}, nil)
	var viols []string
	for path := range seen {
		if forbidden(path) {
			viols = append(viols, path)
		}
	}
	sort.Strings(viols)
	return viols, nil
}

func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range file.Imports {
			ip := strings.Trim(imp.Path.Value, `"`)
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	return viols, nil
}
