package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/docfang/pkg/cache"
	"github.com/Sumatoshi-tech/docfang/pkg/javadoc"
	"github.com/Sumatoshi-tech/docfang/pkg/observability"
	"github.com/Sumatoshi-tech/docfang/pkg/report"
	"github.com/Sumatoshi-tech/docfang/pkg/scan"
)

const (
	uiHTML     = "<html><head><title>x</title></head><body>Widgets for the UI.</body></html>"
	uiComment  = "/**\n * Widgets for the UI.\n */\n"
	uiExpected = uiComment + "package com.example.ui;\n"
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

func scanTree(t *testing.T, root string) []scan.PackageDir {
	t.Helper()

	dirs, err := scan.Walk(context.Background(), root, scan.Options{})
	require.NoError(t, err)

	return dirs
}

func runOnce(t *testing.T, root string, opts Options) *report.Report {
	t.Helper()

	opts.Root = root

	rep, err := New(opts, Deps{}).Run(context.Background(), scanTree(t, root))
	require.NoError(t, err)

	return rep
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestRun_CreatesThenUnchanged(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"com/example/ui/package.html": uiHTML,
		"com/example/ui/Widget.java":  "package com.example.ui;\nclass Widget {}\n",
		"com/example/none/Only.java":  "package com.example.none;\nclass Only {}\n",
	})

	rep := runOnce(t, root, Options{})

	require.Len(t, rep.Results, 1)

	res := rep.Results[0]
	assert.Equal(t, report.ActionCreated, res.Action)
	assert.Equal(t, "com.example.ui", res.Package)
	assert.Equal(t, "body", res.Kind)
	assert.True(t, res.Written)
	assert.Equal(t, uiExpected, readFile(t, filepath.Join(root, "com/example/ui/package-info.java")))

	rep = runOnce(t, root, Options{})
	assert.Equal(t, report.ActionUnchanged, rep.Results[0].Action)
	assert.False(t, rep.Results[0].Written)
}

func TestRun_HeaderAndWrap(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a/package.html": "<body>one two three four</body>",
	})

	runOnce(t, root, Options{Header: "// Licensed.\n", Javadoc: javadoc.Options{WrapWidth: 9}})

	assert.Equal(t,
		"// Licensed.\n\n/**\n * one two\n * three\n * four\n */\npackage a;\n",
		readFile(t, filepath.Join(root, "a/package-info.java")))
}

func TestRun_ConflictPolicies(t *testing.T) {
	t.Parallel()

	const existing = "/**\n * Old text.\n */\npackage com.example.ui;\n"

	tests := []struct {
		name   string
		policy ConflictPolicy
		action report.Action
		want   string
	}{
		{name: "error", policy: PolicyError, action: report.ActionConflict, want: existing},
		{name: "overwrite", policy: PolicyOverwrite, action: report.ActionOverwritten, want: uiExpected},
		{
			name:   "merge",
			policy: PolicyMerge,
			action: report.ActionMerged,
			want:   "/**\n * Old text.\n *\n * Widgets for the UI.\n */\npackage com.example.ui;\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := writeTree(t, map[string]string{
				"com/example/ui/package.html":      uiHTML,
				"com/example/ui/package-info.java": existing,
			})

			rep := runOnce(t, root, Options{Policy: tt.policy})

			require.Len(t, rep.Results, 1)
			assert.Equal(t, tt.action, rep.Results[0].Action)
			assert.Equal(t, tt.want, readFile(t, filepath.Join(root, "com/example/ui/package-info.java")))

			if tt.action == report.ActionConflict {
				assert.NotEmpty(t, rep.Results[0].Message)
				assert.True(t, rep.HasConflicts())
			}
		})
	}
}

func TestRun_MergeIsIdempotent(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"com/example/ui/package.html":      uiHTML,
		"com/example/ui/package-info.java": "/**\n * Old text.\n */\npackage com.example.ui;\n",
	})

	rep := runOnce(t, root, Options{Policy: PolicyMerge})
	assert.Equal(t, report.ActionMerged, rep.Results[0].Action)

	first := readFile(t, filepath.Join(root, "com/example/ui/package-info.java"))

	rep = runOnce(t, root, Options{Policy: PolicyMerge})
	assert.Equal(t, report.ActionUnchanged, rep.Results[0].Action)
	assert.Equal(t, first, readFile(t, filepath.Join(root, "com/example/ui/package-info.java")))
}

func TestRun_EmptyBody(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a/package.html": "<html><body>   </body></html>",
	})

	rep := runOnce(t, root, Options{})

	assert.Equal(t, report.ActionEmpty, rep.Results[0].Action)
	assert.NoFileExists(t, filepath.Join(root, "a/package-info.java"))
}

func TestRun_NoBodyTagsUsesWholeInput(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a/package.html": "Just text.",
	})

	rep := runOnce(t, root, Options{})

	assert.Equal(t, "none", rep.Results[0].Kind)
	assert.Equal(t, "/**\n * Just text.\n */\npackage a;\n", readFile(t, filepath.Join(root, "a/package-info.java")))
}

func TestRun_DryRun(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"com/example/ui/package.html": uiHTML,
	})

	rep := runOnce(t, root, Options{DryRun: true})

	res := rep.Results[0]
	assert.True(t, rep.DryRun)
	assert.Equal(t, report.ActionCreated, res.Action)
	assert.False(t, res.Written)
	assert.Contains(t, res.Diff, "+package com.example.ui;\n")
	assert.Contains(t, res.Diff, "+ * Widgets for the UI.\n")
	assert.NoFileExists(t, res.Target)
}

func TestRun_OutDir(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"src/ui/package.html": uiHTML,
		"src/ui/Widget.java":  "package com.example.ui;\nclass Widget {}\n",
	})
	out := t.TempDir()

	rep := runOnce(t, root, Options{OutDir: out})

	want := filepath.Join(out, "com", "example", "ui", "package-info.java")
	assert.Equal(t, want, rep.Results[0].Target)
	assert.Equal(t, uiExpected, readFile(t, want))
	assert.NoFileExists(t, filepath.Join(root, "src/ui/package-info.java"))
}

func TestRun_SizeLimit(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a/package.html": uiHTML,
	})

	rep := runOnce(t, root, Options{MaxFileSize: 10})

	assert.Equal(t, report.ActionSkipped, rep.Results[0].Action)
	assert.NotEmpty(t, rep.Results[0].Message)
	assert.Zero(t, rep.Results[0].Bytes)
	assert.Zero(t, rep.Summary.BytesRead)
}

func TestRun_CountsBytesRead(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a/package.html":   uiHTML,
		"big/package.html": uiHTML + strings.Repeat(" ", 100),
	})

	rep := runOnce(t, root, Options{MaxFileSize: int64(len(uiHTML) + 10), DryRun: true})
	require.Len(t, rep.Results, 2)

	assert.Equal(t, int64(len(uiHTML)), rep.Summary.BytesRead)
}

func TestRun_RecordsDiskLookups(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	metrics, err := observability.NewConversionMetrics(mp.Meter("test"))
	require.NoError(t, err)

	root := writeTree(t, map[string]string{
		"a/package.html": uiHTML,
	})
	cacheDir := t.TempDir()

	for range 2 {
		store, storeErr := cache.New(0, cacheDir)
		require.NoError(t, storeErr)

		_, runErr := New(Options{Root: root, Cache: store, DryRun: true}, Deps{Metrics: metrics}).
			Run(context.Background(), scanTree(t, root))
		require.NoError(t, runErr)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	got := map[string]int64{}

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "docfang.convert.cache.disk.lookups.total" {
				continue
			}

			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)

			for _, dp := range sum.DataPoints {
				result, _ := dp.Attributes.Value("result")
				got[result.AsString()] += dp.Value
			}
		}
	}

	assert.Equal(t, map[string]int64{"hit": 1, "miss": 1}, got)
}

func TestRun_UsesCache(t *testing.T) {
	t.Parallel()

	store, err := cache.New(0, t.TempDir())
	require.NoError(t, err)

	root := writeTree(t, map[string]string{
		"a/package.html": uiHTML,
		"b/package.html": uiHTML,
	})

	rep := runOnce(t, root, Options{Cache: store, Workers: 1, DryRun: true})
	require.Len(t, rep.Results, 2)

	cached := 0

	for _, res := range rep.Results {
		if res.Cached {
			cached++
		}
	}

	assert.Equal(t, 1, cached)
	assert.Equal(t, int64(1), store.Stats().Hits)
}

func TestRun_IOErrorAborts(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a/package.html": uiHTML,
	})
	require.NoError(t, os.Mkdir(filepath.Join(root, "a", "package-info.java"), 0o750))

	rep, err := New(Options{Root: root}, Deps{}).Run(context.Background(), []scan.PackageDir{{
		Dir:         filepath.Join(root, "a"),
		Rel:         "a",
		Package:     "a",
		PackageHTML: filepath.Join(root, "a", "package.html"),
	}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "a: read package-info.java")
	require.NotNil(t, rep)
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a/package.html": uiHTML,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := New(Options{Root: root}, Deps{}).Run(ctx, scanTree(t, root))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rep.Results)
	assert.NoFileExists(t, filepath.Join(root, "a/package-info.java"))
}

func TestParseConflictPolicy(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]ConflictPolicy{
		"":           PolicyError,
		"error":      PolicyError,
		"Merge":      PolicyMerge,
		" overwrite": PolicyOverwrite,
	} {
		got, err := ParseConflictPolicy(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseConflictPolicy("ask")
	require.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestMergeInto_InsertsAboveAnnotations(t *testing.T) {
	t.Parallel()

	existing := "// header\n@Deprecated\npackage a;\n"

	got, changed := MergeInto(existing, uiComment)

	assert.True(t, changed)
	assert.Equal(t, "// header\n"+uiComment+"@Deprecated\npackage a;\n", got)

	again, changed := MergeInto(got, uiComment)
	assert.False(t, changed)
	assert.Equal(t, got, again)
}

func TestMergeInto_NoPackageLine(t *testing.T) {
	t.Parallel()

	got, changed := MergeInto("// nothing here", uiComment)

	assert.True(t, changed)
	assert.Equal(t, "// nothing here\n"+uiComment, got)
}

func TestLineDiff(t *testing.T) {
	t.Parallel()

	assert.Empty(t, LineDiff("same\n", "same\n"))
	assert.Equal(t, "+a\n+b\n", LineDiff("", "a\nb\n"))
	assert.Equal(t, " keep\n-old\n+new\n", LineDiff("keep\nold\n", "keep\nnew\n"))
}
