// Package gitlib wraps libgit2 with just enough surface to resolve two
// tree states of a repository and enumerate their source files.
package gitlib

import (
	"errors"
	"fmt"
	"os"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrStateUnavailable is returned when a branch or commit cannot be
// resolved to a tree state.
var ErrStateUnavailable = errors.New("tree state unavailable")

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
	path string
}

// OpenRepository opens an existing git repository at the given path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// OpenOrClone opens the repository at localPath, cloning it from url
// first when the path does not exist yet.
func OpenOrClone(url, localPath string) (*Repository, error) {
	_, statErr := os.Stat(localPath)
	if statErr == nil {
		return OpenRepository(localPath)
	}

	if url == "" {
		return nil, fmt.Errorf("%w: %s does not exist and no clone URL given", ErrStateUnavailable, localPath)
	}

	repo, err := git2go.Clone(url, localPath, &git2go.CloneOptions{})
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", url, err)
	}

	return &Repository{repo: repo, path: localPath}, nil
}

// Path returns the repository path.
func (r *Repository) Path() string {
	return r.path
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// ResolveTree resolves any commit-ish revision (branch name, tag, or
// commit hash) to the tree of the commit it points at.
func (r *Repository) ResolveTree(revision string) (*Tree, error) {
	obj, err := r.repo.RevparseSingle(revision)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %q: %v", ErrStateUnavailable, revision, err)
	}
	defer obj.Free()

	peeled, peelErr := obj.Peel(git2go.ObjectCommit)
	if peelErr != nil {
		return nil, fmt.Errorf("%w: %q does not point at a commit: %v", ErrStateUnavailable, revision, peelErr)
	}
	defer peeled.Free()

	commit, commitErr := peeled.AsCommit()
	if commitErr != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrStateUnavailable, revision, commitErr)
	}
	defer commit.Free()

	tree, treeErr := commit.Tree()
	if treeErr != nil {
		return nil, fmt.Errorf("%w: tree of %q: %v", ErrStateUnavailable, revision, treeErr)
	}

	return &Tree{
		tree:     tree,
		repo:     r,
		commitID: commit.Id().String(),
	}, nil
}
