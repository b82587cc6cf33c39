// Package codestyle_test holds repository-wide layout checks for docfang.
package codestyle_test

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modulePath = "github.com/Sumatoshi-tech/docfang"

// maxInterfaceMethods bounds how broad a declared interface may be.
const maxInterfaceMethods = 5

// bannedFilenames maps grab-bag file names to the fix a reviewer would ask for.
var bannedFilenames = map[string]string{
	"types.go":     "move each type next to the code that uses it",
	"utils.go":     "move each function into the file that owns its domain",
	"helpers.go":   "move each function into the file that owns its domain",
	"common.go":    "move each symbol into the file that owns its concept",
	"constants.go": "declare constants where they are used",
	"errors.go":    "declare sentinel errors next to the functions returning them",
}

// bannedPackages lists package names that say nothing about what they hold.
var bannedPackages = map[string]bool{
	"util": true, "utils": true, "misc": true, "shared": true, "base": true, "generic": true,
}

// sourceFile is one parsed non-test Go file.
type sourceFile struct {
	Rel  string
	File *ast.File
}

func projectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, statErr := os.Stat(filepath.Join(dir, "go.mod")); statErr == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		require.NotEqual(t, dir, parent, "no go.mod above %s", dir)

		dir = parent
	}
}

// skipDir mirrors what the go tool ignores, plus fixtures.
func skipDir(name string) bool {
	if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
		return true
	}

	return name == "vendor" || name == "testdata"
}

func sources(t *testing.T, root string) []sourceFile {
	t.Helper()

	var out []sourceFile

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if path != root && skipDir(entry.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		parsed, parseErr := parser.ParseFile(token.NewFileSet(), path, nil, 0)
		if parseErr != nil {
			return fmt.Errorf("parse %s: %w", path, parseErr)
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		out = append(out, sourceFile{Rel: filepath.ToSlash(rel), File: parsed})

		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, out)

	return out
}

func TestNoBannedFilenames(t *testing.T) {
	t.Parallel()

	var violations []string

	for _, src := range sources(t, projectRoot(t)) {
		if fix, banned := bannedFilenames[filepath.Base(src.Rel)]; banned {
			violations = append(violations, src.Rel+": "+fix)
		}
	}

	assert.Empty(t, violations)
}

func TestNoGrabBagPackages(t *testing.T) {
	t.Parallel()

	var violations []string

	for _, src := range sources(t, projectRoot(t)) {
		if bannedPackages[src.File.Name.Name] {
			violations = append(violations, fmt.Sprintf("%s: package %s", src.Rel, src.File.Name.Name))
		}
	}

	assert.Empty(t, violations)
}

func TestNoFatInterfaces(t *testing.T) {
	t.Parallel()

	var violations []string

	for _, src := range sources(t, projectRoot(t)) {
		ast.Inspect(src.File, func(node ast.Node) bool {
			spec, ok := node.(*ast.TypeSpec)
			if !ok {
				return true
			}

			iface, ok := spec.Type.(*ast.InterfaceType)
			if !ok {
				return true
			}

			methods := 0

			for _, field := range iface.Methods.List {
				if _, isFunc := field.Type.(*ast.FuncType); isFunc {
					methods++
				}
			}

			if methods > maxInterfaceMethods {
				violations = append(violations, fmt.Sprintf("%s: %s has %d methods", src.Rel, spec.Name.Name, methods))
			}

			return true
		})
	}

	assert.Empty(t, violations)
}

// stutters reports whether an exported name repeats its package name at a
// CamelCase word boundary, e.g. report.ReportWriter.
func stutters(pkgName, exported string) bool {
	titled := strings.ToUpper(pkgName[:1]) + pkgName[1:]

	rest, ok := strings.CutPrefix(exported, titled)
	if !ok || rest == "" {
		return false
	}

	first := rune(rest[0])

	return unicode.IsUpper(first) || unicode.IsDigit(first)
}

func TestStutters(t *testing.T) {
	t.Parallel()

	assert.True(t, stutters("report", "ReportWriter"))
	assert.False(t, stutters("report", "Report"))
	assert.False(t, stutters("scan", "Scanner"))
	assert.False(t, stutters("cache", "Stats"))
}

func TestNoStutteringExports(t *testing.T) {
	t.Parallel()

	var violations []string

	for _, src := range sources(t, projectRoot(t)) {
		pkgName := src.File.Name.Name
		if pkgName == "main" {
			continue
		}

		for _, decl := range src.File.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}

			for _, spec := range gen.Specs {
				name := spec.(*ast.TypeSpec).Name.Name //nolint:forcetypeassert // TYPE decls only hold TypeSpecs
				if ast.IsExported(name) && stutters(pkgName, name) {
					violations = append(violations, fmt.Sprintf("%s: %s.%s", src.Rel, pkgName, name))
				}
			}
		}
	}

	assert.Empty(t, violations)
}

// TestLibrariesDoNotImportCommands keeps pkg/ usable without the CLI.
func TestLibrariesDoNotImportCommands(t *testing.T) {
	t.Parallel()

	var violations []string

	for _, src := range sources(t, projectRoot(t)) {
		if !strings.HasPrefix(src.Rel, "pkg/") {
			continue
		}

		for _, imp := range src.File.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			require.NoError(t, err)

			if strings.HasPrefix(path, modulePath+"/cmd/") {
				violations = append(violations, src.Rel+" imports "+path)
			}
		}
	}

	assert.Empty(t, violations)
}
