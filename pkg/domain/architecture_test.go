package domain

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"

	"initiative/testutil"
)

// allowedThirdParty lists the only non-standard-library imports the domain
// layer may take.
var allowedThirdParty = map[string]bool{
	"github.com/google/uuid": true,
}

// TestDomainImportsOnlyStdlibAndUUID keeps the domain layer free of storage,
// transport and internal implementation packages.
func TestDomainImportsOnlyStdlibAndUUID(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, "initiative/pkg/domain")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if len(pkgs) != 1 {
		t.Fatalf("expected one package, got %d", len(pkgs))
	}

	var violations []string
	for importPath := range pkgs[0].Imports {
		if isStdlib(importPath) || allowedThirdParty[importPath] {
			continue
		}
		violations = append(violations, importPath)
	}
	sort.Strings(violations)
	for _, v := range violations {
		t.Errorf("domain package must not import %s", v)
	}
	if len(violations) > 0 {
		t.Fatalf("found %d forbidden imports in domain package", len(violations))
	}
}

func isStdlib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".") && first != "initiative"
}

func TestDomainDoesNotLinkStorage(t *testing.T) {
	testutil.AssertNoTransitiveDependency(t, "initiative/pkg/domain", testutil.StorageDriverForbidden, "domain stays storage-free")
}

func TestDomainImportsNoInternalPackages(t *testing.T) {
	testutil.AssertNoTransitiveDependency(t, "initiative/pkg/domain", testutil.InternalImportForbidden, "domain imports no internal packages")
}
