package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ChangedPaths lists the file paths touched between two tree states,
// bucketed the way a name-only diff reports them.
type ChangedPaths struct {
	Added    []string
	Deleted  []string
	Modified []string
}

// All returns every touched path across the three buckets.
func (c *ChangedPaths) All() []string {
	out := make([]string, 0, len(c.Added)+len(c.Deleted)+len(c.Modified))
	out = append(out, c.Added...)
	out = append(out, c.Deleted...)
	out = append(out, c.Modified...)

	return out
}

// Len returns the total number of touched paths.
func (c *ChangedPaths) Len() int {
	return len(c.Added) + len(c.Deleted) + len(c.Modified)
}

// ChangedPaths diffs two tree states and returns the touched paths.
// Equal tree hashes short-circuit to an empty result.
func (r *Repository) ChangedPaths(oldTree, newTree *Tree) (*ChangedPaths, error) {
	changed := &ChangedPaths{}

	if oldTree.Hash() == newTree.Hash() {
		return changed, nil
	}

	diff, err := r.repo.DiffTreeToTree(oldTree.tree, newTree.tree, nil)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}
	defer diff.Free()

	numDeltas, numErr := diff.NumDeltas()
	if numErr != nil {
		return nil, fmt.Errorf("get num deltas: %w", numErr)
	}

	for i := range numDeltas {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			continue
		}

		switch delta.Status {
		case git2go.DeltaAdded:
			changed.Added = append(changed.Added, delta.NewFile.Path)
		case git2go.DeltaDeleted:
			changed.Deleted = append(changed.Deleted, delta.OldFile.Path)
		case git2go.DeltaModified, git2go.DeltaRenamed, git2go.DeltaCopied:
			// Renames surface as a modified pair; entity matching is
			// key based, so a renamed file needs both sides parsed.
			if delta.OldFile.Path != delta.NewFile.Path {
				changed.Deleted = append(changed.Deleted, delta.OldFile.Path)
				changed.Added = append(changed.Added, delta.NewFile.Path)
			} else {
				changed.Modified = append(changed.Modified, delta.NewFile.Path)
			}
		case git2go.DeltaUnmodified, git2go.DeltaIgnored, git2go.DeltaUntracked,
			git2go.DeltaTypeChange, git2go.DeltaUnreadable, git2go.DeltaConflicted:
			// Not meaningful for source comparison.
			continue
		}
	}

	return changed, nil
}
