package gitlib

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	git2go "github.com/libgit2/git2go/v34"
)

// ChangedFiles returns the paths added or modified between revision since
// and HEAD, relative to the working tree root and sorted.
func (r *Repository) ChangedFiles(since string) ([]string, error) {
	oldTree, err := r.resolveTree(since)
	if err != nil {
		return nil, err
	}
	defer oldTree.Free()

	newTree, err := r.resolveTree("HEAD")
	if err != nil {
		return nil, err
	}
	defer newTree.Free()

	if oldTree.Id().Equal(newTree.Id()) {
		return []string{}, nil
	}

	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}

	diff, err := r.repo.DiffTreeToTree(oldTree, newTree, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}
	defer diff.Free()

	numDeltas, numErr := diff.NumDeltas()
	if numErr != nil {
		return nil, fmt.Errorf("get num deltas: %w", numErr)
	}

	paths := make([]string, 0, numDeltas)

	for i := range numDeltas {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			return nil, fmt.Errorf("get delta %d: %w", i, deltaErr)
		}

		switch delta.Status {
		case git2go.DeltaAdded, git2go.DeltaModified, git2go.DeltaRenamed, git2go.DeltaCopied:
			paths = append(paths, delta.NewFile.Path)
		case git2go.DeltaDeleted, git2go.DeltaUnmodified, git2go.DeltaIgnored, git2go.DeltaUntracked,
			git2go.DeltaTypeChange, git2go.DeltaUnreadable, git2go.DeltaConflicted:
			// Nothing to convert.
		}
	}

	slices.Sort(paths)

	return paths, nil
}

// ChangedFiles opens the repository containing repoPath and lists paths
// changed since the given revision. Paths are relative to repoPath when it
// lies inside the working tree; files outside it are dropped.
func ChangedFiles(repoPath, since string) ([]string, error) {
	repo, err := OpenRepository(repoPath)
	if err != nil {
		return nil, err
	}
	defer repo.Free()

	workdir := repo.Workdir()
	if workdir == "" {
		return nil, ErrBareRepository
	}

	paths, err := repo.ChangedFiles(since)
	if err != nil {
		return nil, err
	}

	absRoot, absErr := filepath.Abs(repoPath)
	if absErr != nil {
		return nil, fmt.Errorf("resolve %s: %w", repoPath, absErr)
	}

	absRoot = canonical(absRoot)
	workdir = canonical(workdir)

	out := make([]string, 0, len(paths))

	for _, p := range paths {
		rel, relErr := filepath.Rel(absRoot, filepath.Join(workdir, filepath.FromSlash(p)))
		if relErr != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}

		out = append(out, filepath.ToSlash(rel))
	}

	return out, nil
}

func canonical(p string) string {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return p
	}

	return resolved
}
