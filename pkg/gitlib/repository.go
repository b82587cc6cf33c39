// Package gitlib is a thin libgit2 wrapper used to restrict conversions to
// files that changed since a revision.
package gitlib

import (
	"errors"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrBareRepository is returned when a change query needs a working tree.
var ErrBareRepository = errors.New("repository has no working tree")

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
}

// OpenRepository opens the repository containing path, searching parent
// directories the way git does.
func OpenRepository(path string) (*Repository, error) {
	root, discoverErr := git2go.Discover(path, false, nil)
	if discoverErr != nil {
		return nil, fmt.Errorf("discover repository: %w", discoverErr)
	}

	repo, err := git2go.OpenRepository(root)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo}, nil
}

// Workdir returns the working tree root, or "" for bare repositories.
func (r *Repository) Workdir() string {
	return r.repo.Workdir()
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// resolveTree peels a revision expression to its tree.
func (r *Repository) resolveTree(rev string) (*git2go.Tree, error) {
	obj, err := r.repo.RevparseSingle(rev)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	defer obj.Free()

	peeled, peelErr := obj.Peel(git2go.ObjectTree)
	if peelErr != nil {
		return nil, fmt.Errorf("peel %s: %w", rev, peelErr)
	}
	defer peeled.Free()

	tree, treeErr := peeled.AsTree()
	if treeErr != nil {
		return nil, fmt.Errorf("tree of %s: %w", rev, treeErr)
	}

	return tree, nil
}
