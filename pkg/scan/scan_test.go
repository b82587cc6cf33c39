package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()

	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}

	return root
}

func sampleTree(t *testing.T) string {
	t.Helper()

	return writeTree(t, map[string]string{
		"src/com/example/ui/package.html":        "<html><body>UI.</body></html>",
		"src/com/example/ui/Widget.java":         "package com.example.ui;\nclass Widget {}\n",
		"src/com/example/ui/Panel.java":          "package com.example.ui;\nclass Panel {}\n",
		"src/com/example/kt/package.html":        "<body>Kotlin.</body>",
		"src/com/example/kt/Gadget.kt":           "package com.example.kt\nclass Gadget\n",
		"src/com/example/bare/package.html":      "<body>No sources.</body>",
		"src/com/example/info/package-info.java": "/** Info. */\npackage com.example.info;\n",
		"src/com/example/notes/README.md":        "# nothing",
		"vendor/lib/package.html":                "<body>vendored</body>",
		".hidden/package.html":                   "<body>hidden</body>",
	})
}

func TestWalk(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)

	dirs, err := Walk(context.Background(), root, Options{})
	require.NoError(t, err)

	rels := make([]string, 0, len(dirs))
	for _, d := range dirs {
		rels = append(rels, d.Rel)
	}

	assert.Equal(t, []string{
		"src/com/example/bare",
		"src/com/example/info",
		"src/com/example/kt",
		"src/com/example/ui",
	}, rels)

	bare := dirs[0]
	assert.True(t, bare.HasPackageHTML())
	assert.Equal(t, "src.com.example.bare", bare.Package)

	info := dirs[1]
	assert.False(t, info.HasPackageHTML())
	assert.Equal(t, filepath.Join(root, "src/com/example/info/package-info.java"), info.PackageInfo)
	assert.Equal(t, "com.example.info", info.Package)

	kt := dirs[2]
	assert.Equal(t, "com.example.kt", kt.Package)
	assert.Len(t, kt.KotlinFiles, 1)
	assert.Empty(t, kt.JavaFiles)

	ui := dirs[3]
	assert.Equal(t, "com.example.ui", ui.Package)
	assert.Equal(t, filepath.Join(root, "src/com/example/ui"), ui.Dir)
	assert.Equal(t, []string{
		filepath.Join(root, "src/com/example/ui/Panel.java"),
		filepath.Join(root, "src/com/example/ui/Widget.java"),
	}, ui.JavaFiles)
}

func TestWalk_Filters(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)

	dirs, err := Walk(context.Background(), root, Options{
		Include: []string{"**/package.html", "**/*.java"},
		Exclude: []string{"src/com/example/bare/**", "**/Panel.java"},
	})
	require.NoError(t, err)

	require.Len(t, dirs, 3)
	assert.Equal(t, "src/com/example/info", dirs[0].Rel)
	assert.Equal(t, "src/com/example/kt", dirs[1].Rel)
	assert.Empty(t, dirs[1].KotlinFiles)
	assert.Equal(t, "src/com/example/ui", dirs[2].Rel)
	assert.Len(t, dirs[2].JavaFiles, 1)
}

func TestWalk_Changed(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)

	dirs, err := Walk(context.Background(), root, Options{
		Changed: []string{"src/com/example/kt/package.html", "src/com/example/ui/Widget.java"},
	})
	require.NoError(t, err)

	require.Len(t, dirs, 1)
	assert.Equal(t, "src/com/example/kt", dirs[0].Rel)

	none, err := Walk(context.Background(), root, Options{Changed: []string{}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestWalk_MaxFileSizeFallsBackToPath(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a/b/package.html": "<body>x</body>",
		"a/b/Big.java":     "package real.name;\nclass Big {}\n",
	})

	dirs, err := Walk(context.Background(), root, Options{MaxFileSize: 4})
	require.NoError(t, err)

	require.Len(t, dirs, 1)
	assert.Equal(t, "a.b", dirs[0].Package)
}

func TestWalk_Errors(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)

	_, err := Walk(context.Background(), root, Options{Include: []string{"[unclosed"}})
	require.ErrorIs(t, err, ErrBadPattern)

	_, err = Walk(context.Background(), filepath.Join(root, "src/com/example/ui/Widget.java"), Options{})
	require.ErrorIs(t, err, ErrNotDirectory)

	_, err = Walk(context.Background(), filepath.Join(root, "missing"), Options{})
	require.ErrorIs(t, err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Walk(ctx, root, Options{})
	require.ErrorIs(t, err, context.Canceled)
}
