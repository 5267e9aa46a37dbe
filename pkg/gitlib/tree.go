package gitlib

import (
	"fmt"
	"path"

	git2go "github.com/libgit2/git2go/v34"
)

// Tree is one resolved tree state: the full file tree of a single commit.
type Tree struct {
	tree     *git2go.Tree
	repo     *Repository
	commitID string
}

// CommitID returns the hex hash of the commit this tree belongs to.
func (t *Tree) CommitID() string {
	return t.commitID
}

// Hash returns the hex hash of the tree itself. Two commits with
// identical content share a tree hash, which makes it a usable snapshot
// cache key.
func (t *Tree) Hash() string {
	return t.tree.Id().String()
}

// Free releases the tree resources.
func (t *Tree) Free() {
	if t.tree != nil {
		t.tree.Free()
		t.tree = nil
	}
}

// File is one file of a tree state with its full contents loaded.
type File struct {
	Path    string
	Content []byte
}

// Files walks the tree recursively and returns every blob whose path
// satisfies the filter, contents loaded. Filter nil means all files.
// Paths are returned in tree walk order, which is stable for a given
// tree hash.
func (t *Tree) Files(filter func(path string) bool) ([]File, error) {
	var files []File

	walkErr := t.walk(t.tree, "", func(filePath string, entry *git2go.TreeEntry) error {
		if filter != nil && !filter(filePath) {
			return nil
		}

		blob, err := t.repo.repo.LookupBlob(entry.Id)
		if err != nil {
			return fmt.Errorf("lookup blob %s: %w", filePath, err)
		}
		defer blob.Free()

		content := make([]byte, len(blob.Contents()))
		copy(content, blob.Contents())

		files = append(files, File{Path: filePath, Content: content})

		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return files, nil
}

// walk visits every blob entry under tree, depth first.
func (t *Tree) walk(tree *git2go.Tree, prefix string, visit func(string, *git2go.TreeEntry) error) error {
	for i := uint64(0); i < tree.EntryCount(); i++ {
		entry := tree.EntryByIndex(i)
		if entry == nil {
			continue
		}

		entryPath := path.Join(prefix, entry.Name)

		switch entry.Type {
		case git2go.ObjectBlob:
			err := visit(entryPath, entry)
			if err != nil {
				return err
			}
		case git2go.ObjectTree:
			subTree, err := t.repo.repo.LookupTree(entry.Id)
			if err != nil {
				return fmt.Errorf("lookup subtree %s: %w", entryPath, err)
			}

			walkErr := t.walk(subTree, entryPath, visit)
			subTree.Free()

			if walkErr != nil {
				return walkErr
			}
		default:
			// Submodules and other entry types carry no source.
		}
	}

	return nil
}
