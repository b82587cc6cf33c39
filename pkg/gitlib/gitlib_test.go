package gitlib_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/docfang/pkg/gitlib"
)

// testRepo wraps a scratch repository for integration tests.
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

func (tr *testRepo) writeFile(name, content string) {
	tr.t.Helper()

	path := filepath.Join(tr.path, filepath.FromSlash(name))
	require.NoError(tr.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(tr.t, os.WriteFile(path, []byte(content), 0o644))
}

func (tr *testRepo) deleteFile(name string) {
	tr.t.Helper()

	require.NoError(tr.t, os.Remove(filepath.Join(tr.path, filepath.FromSlash(name))))
}

// commit stages the whole working tree, removals included, and commits it.
func (tr *testRepo) commit(message string) string {
	tr.t.Helper()

	index, err := tr.native.Index()
	require.NoError(tr.t, err)

	defer index.Free()

	require.NoError(tr.t, index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil))
	require.NoError(tr.t, index.UpdateAll([]string{"*"}, nil))
	require.NoError(tr.t, index.Write())

	treeID, err := index.WriteTree()
	require.NoError(tr.t, err)

	tree, err := tr.native.LookupTree(treeID)
	require.NoError(tr.t, err)

	defer tree.Free()

	sig := &git2go.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()}

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

func TestRepository_ChangedFiles(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)

	tr.writeFile("src/a/package.html", "<body>a</body>")
	tr.writeFile("src/b/package.html", "<body>b</body>")
	tr.writeFile("src/c/Gone.java", "class Gone {}")
	base := tr.commit("initial")

	tr.writeFile("src/a/package.html", "<body>a2</body>")
	tr.writeFile("src/d/package.html", "<body>d</body>")
	tr.deleteFile("src/c/Gone.java")
	tr.commit("second")

	repo, err := gitlib.OpenRepository(tr.path)
	require.NoError(t, err)

	defer repo.Free()

	assert.NotEmpty(t, repo.Workdir())

	changed, err := repo.ChangedFiles(base)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a/package.html", "src/d/package.html"}, changed)

	same, err := repo.ChangedFiles("HEAD")
	require.NoError(t, err)
	assert.Empty(t, same)

	_, err = repo.ChangedFiles("no-such-rev")
	assert.Error(t, err)
}

func TestChangedFiles_RelativeToSubdirectory(t *testing.T) {
	t.Parallel()

	tr := newTestRepo(t)

	tr.writeFile("src/a/package.html", "<body>a</body>")
	tr.writeFile("docs/package.html", "<body>docs</body>")
	base := tr.commit("initial")

	tr.writeFile("src/a/package.html", "<body>changed</body>")
	tr.writeFile("docs/package.html", "<body>changed</body>")
	tr.commit("second")

	changed, err := gitlib.ChangedFiles(filepath.Join(tr.path, "src"), base)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/package.html"}, changed)

	all, err := gitlib.ChangedFiles(tr.path, base+"~0")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/package.html", "src/a/package.html"}, all)
}

func TestOpenRepository_NotARepository(t *testing.T) {
	t.Parallel()

	_, err := gitlib.OpenRepository(t.TempDir())
	assert.Error(t, err)
}
