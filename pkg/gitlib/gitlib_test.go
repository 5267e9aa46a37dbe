package gitlib_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/oxidiff/pkg/gitlib"
)

// testRepo wraps a test repository for integration testing.
type testRepo struct {
	t      *testing.T
	path   string
	native *git2go.Repository
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &testRepo{t: t, path: dir, native: repo}
}

func (tr *testRepo) createFile(name, content string) {
	tr.t.Helper()

	path := filepath.Join(tr.path, name)
	dir := filepath.Dir(path)

	if dir != tr.path {
		require.NoError(tr.t, os.MkdirAll(dir, 0o755))
	}

	require.NoError(tr.t, os.WriteFile(path, []byte(content), 0o644))
}

func (tr *testRepo) deleteFile(name string) {
	tr.t.Helper()

	require.NoError(tr.t, os.Remove(filepath.Join(tr.path, name)))
}

// commit stages all files and creates a commit, returning its hash.
func (tr *testRepo) commit(message string) string {
	tr.t.Helper()

	index, err := tr.native.Index()
	require.NoError(tr.t, err)

	defer index.Free()

	require.NoError(tr.t, index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil))
	require.NoError(tr.t, index.Write())

	treeID, err := index.WriteTree()
	require.NoError(tr.t, err)

	tree, err := tr.native.LookupTree(treeID)
	require.NoError(tr.t, err)

	defer tree.Free()

	sig := &git2go.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  time.Now(),
	}

	var parents []*git2go.Commit

	head, err := tr.native.Head()
	if err == nil {
		headCommit, lookupErr := tr.native.LookupCommit(head.Target())
		require.NoError(tr.t, lookupErr)

		parents = append(parents, headCommit)

		head.Free()
	}

	oid, err := tr.native.CreateCommit("HEAD", sig, sig, message, tree, parents...)
	require.NoError(tr.t, err)

	for _, parent := range parents {
		parent.Free()
	}

	return oid.String()
}

func (tr *testRepo) open() *gitlib.Repository {
	tr.t.Helper()

	repo, err := gitlib.OpenRepository(tr.path)
	require.NoError(tr.t, err)

	tr.t.Cleanup(repo.Free)

	return repo
}

func TestOpenRepositoryNotFound(t *testing.T) {
	_, err := gitlib.OpenRepository(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}

func TestResolveTree(t *testing.T) {
	tr := newTestRepo(t)
	tr.createFile("src/lib.rs", "fn a() {}\n")
	commitID := tr.commit("initial")

	repo := tr.open()

	byHead, err := repo.ResolveTree("HEAD")
	require.NoError(t, err)

	defer byHead.Free()

	require.Equal(t, commitID, byHead.CommitID())

	byOid, err := repo.ResolveTree(commitID)
	require.NoError(t, err)

	defer byOid.Free()

	require.Equal(t, byHead.Hash(), byOid.Hash())
}

func TestResolveTreeUnknownRevision(t *testing.T) {
	tr := newTestRepo(t)
	tr.createFile("src/lib.rs", "fn a() {}\n")
	tr.commit("initial")

	repo := tr.open()

	_, err := repo.ResolveTree("no-such-branch")
	require.Error(t, err)
}

func TestTreeFilesWithFilter(t *testing.T) {
	tr := newTestRepo(t)
	tr.createFile("src/lib.rs", "fn a() {}\n")
	tr.createFile("src/nested/deep.rs", "fn b() {}\n")
	tr.createFile("README.md", "docs\n")
	tr.commit("initial")

	repo := tr.open()

	tree, err := repo.ResolveTree("HEAD")
	require.NoError(t, err)

	defer tree.Free()

	files, err := tree.Files(func(path string) bool {
		return filepath.Ext(path) == ".rs"
	})
	require.NoError(t, err)
	require.Len(t, files, 2)

	paths := []string{files[0].Path, files[1].Path}
	require.ElementsMatch(t, []string{"src/lib.rs", "src/nested/deep.rs"}, paths)
	require.Equal(t, "fn a() {}\n", string(files[0].Content))
}

func TestChangedPaths(t *testing.T) {
	tr := newTestRepo(t)
	tr.createFile("src/keep.rs", "fn keep() {}\n")
	tr.createFile("src/edit.rs", "fn edit() -> u32 { 1 }\n")
	tr.createFile("src/drop.rs", "fn drop_me() {}\n")
	first := tr.commit("first")

	tr.createFile("src/edit.rs", "fn edit() -> u32 { 2 }\n")
	tr.createFile("src/new.rs", "fn fresh() {}\n")
	tr.deleteFile("src/drop.rs")
	second := tr.commit("second")

	repo := tr.open()

	oldTree, err := repo.ResolveTree(first)
	require.NoError(t, err)

	defer oldTree.Free()

	newTree, err := repo.ResolveTree(second)
	require.NoError(t, err)

	defer newTree.Free()

	changed, err := repo.ChangedPaths(oldTree, newTree)
	require.NoError(t, err)

	require.Equal(t, []string{"src/new.rs"}, changed.Added)
	require.Equal(t, []string{"src/drop.rs"}, changed.Deleted)
	require.Equal(t, []string{"src/edit.rs"}, changed.Modified)
	require.ElementsMatch(t, []string{"src/new.rs", "src/drop.rs", "src/edit.rs"}, changed.All())
}

func TestChangedPathsIdenticalTrees(t *testing.T) {
	tr := newTestRepo(t)
	tr.createFile("src/lib.rs", "fn a() {}\n")
	tr.commit("only")

	repo := tr.open()

	tree, err := repo.ResolveTree("HEAD")
	require.NoError(t, err)

	defer tree.Free()

	changed, err := repo.ChangedPaths(tree, tree)
	require.NoError(t, err)
	require.Zero(t, changed.Len())
}
