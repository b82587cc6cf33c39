// Package scan discovers package directories in a Java/Kotlin source tree.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/docfang/pkg/javasrc"
)

// Well-known file names.
const (
	PackageHTML = "package.html"
	PackageInfo = "package-info.java"
)

// Sentinel errors for tree scanning.
var (
	// ErrBadPattern indicates an include or exclude glob is malformed.
	ErrBadPattern = errors.New("invalid glob pattern")
	// ErrNotDirectory indicates the scan root is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// Options controls which files a walk considers.
type Options struct {
	// Include globs, matched against slash-separated paths relative to the
	// root. Empty means every file.
	Include []string
	// Exclude globs, matched against files and directories.
	Exclude []string
	// MaxFileSize skips sources larger than this when deriving package
	// names. Zero disables the limit.
	MaxFileSize int64
	// Changed, when non-nil, keeps only directories whose package.html is
	// listed. Paths are relative to the root.
	Changed []string
}

// PackageDir is one source directory and the files docfang cares about.
type PackageDir struct {
	Dir         string
	Rel         string
	Package     string
	PackageHTML string
	PackageInfo string
	JavaFiles   []string
	KotlinFiles []string
}

// HasPackageHTML reports whether the directory carries a package.html.
func (d *PackageDir) HasPackageHTML() bool {
	return d.PackageHTML != ""
}

// Validate checks every glob in the options.
func (o Options) Validate() error {
	for _, pattern := range slices.Concat(o.Include, o.Exclude) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: %q", ErrBadPattern, pattern)
		}
	}

	return nil
}

// Walk scans root and returns its package directories sorted by path.
func Walk(ctx context.Context, root string, opts Options) ([]PackageDir, error) {
	validateErr := opts.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	info, statErr := os.Stat(root)
	if statErr != nil {
		return nil, fmt.Errorf("stat %s: %w", root, statErr)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	dirs := make(map[string]*PackageDir)

	walkErr := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}

		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if rel != "." && skipDir(rel, opts.Exclude) {
				return filepath.SkipDir
			}

			return nil
		}

		if !entry.Type().IsRegular() || !included(rel, opts) {
			return nil
		}

		addFile(dirs, rel, p)

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	return collect(dirs, opts), nil
}

func skipDir(rel string, exclude []string) bool {
	if enry.IsVendor(rel+"/") || enry.IsDotFile(rel) {
		return true
	}

	return matchAny(exclude, rel)
}

func included(rel string, opts Options) bool {
	if matchAny(opts.Exclude, rel) {
		return false
	}

	return len(opts.Include) == 0 || matchAny(opts.Include, rel)
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}

	return false
}

func addFile(dirs map[string]*PackageDir, rel, full string) {
	dirRel := path.Dir(rel)

	dir, ok := dirs[dirRel]
	if !ok {
		dir = &PackageDir{Dir: filepath.Dir(full), Rel: dirRel}
		dirs[dirRel] = dir
	}

	base := path.Base(rel)

	switch {
	case base == PackageHTML:
		dir.PackageHTML = full
	case base == PackageInfo:
		dir.PackageInfo = full
	default:
		switch enry.GetLanguage(base, nil) {
		case "Java":
			dir.JavaFiles = append(dir.JavaFiles, full)
		case "Kotlin":
			dir.KotlinFiles = append(dir.KotlinFiles, full)
		}
	}
}

func collect(dirs map[string]*PackageDir, opts Options) []PackageDir {
	var changed map[string]bool

	if opts.Changed != nil {
		changed = make(map[string]bool, len(opts.Changed))
		for _, p := range opts.Changed {
			changed[filepath.ToSlash(p)] = true
		}
	}

	out := make([]PackageDir, 0, len(dirs))

	for rel, dir := range dirs {
		if dir.PackageHTML == "" && dir.PackageInfo == "" && len(dir.JavaFiles) == 0 && len(dir.KotlinFiles) == 0 {
			continue
		}

		if changed != nil && !changed[path.Join(rel, PackageHTML)] {
			continue
		}

		slices.Sort(dir.JavaFiles)
		slices.Sort(dir.KotlinFiles)

		dir.Package = packageName(dir, opts.MaxFileSize)
		out = append(out, *dir)
	}

	slices.SortFunc(out, func(a, b PackageDir) int {
		return strings.Compare(a.Rel, b.Rel)
	})

	return out
}

// packageName derives the package from the first parseable source, falling
// back to the directory path.
func packageName(dir *PackageDir, maxSize int64) string {
	sources := slices.Concat(optional(dir.PackageInfo), dir.JavaFiles)

	for _, src := range sources {
		content, ok := readLimited(src, maxSize)
		if !ok {
			continue
		}

		file, err := javasrc.ParseJava(content)
		if err == nil && file.Package != "" {
			return file.Package
		}
	}

	for _, src := range dir.KotlinFiles {
		content, ok := readLimited(src, maxSize)
		if !ok {
			continue
		}

		pkg, err := javasrc.KotlinPackage(content)
		if err == nil && pkg != "" {
			return pkg
		}
	}

	if dir.Rel == "." {
		return ""
	}

	return strings.ReplaceAll(dir.Rel, "/", ".")
}

func optional(p string) []string {
	if p == "" {
		return nil
	}

	return []string{p}
}

func readLimited(p string, maxSize int64) ([]byte, bool) {
	if maxSize > 0 {
		info, err := os.Stat(p)
		if err != nil || info.Size() > maxSize {
			return nil, false
		}
	}

	content, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}

	return content, true
}
