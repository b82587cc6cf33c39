// Package convert turns package.html files into package-info.java stubs
// across a scanned source tree.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/docfang/pkg/cache"
	"github.com/Sumatoshi-tech/docfang/pkg/htmlbody"
	"github.com/Sumatoshi-tech/docfang/pkg/javadoc"
	"github.com/Sumatoshi-tech/docfang/pkg/observability"
	"github.com/Sumatoshi-tech/docfang/pkg/report"
	"github.com/Sumatoshi-tech/docfang/pkg/scan"
	"github.com/Sumatoshi-tech/docfang/pkg/stubs"
	"github.com/Sumatoshi-tech/docfang/pkg/textutil"
)

// ConflictPolicy decides what happens when a package-info.java already
// exists with different content.
type ConflictPolicy string

// Conflict policies.
const (
	PolicyError     ConflictPolicy = "error"
	PolicyMerge     ConflictPolicy = "merge"
	PolicyOverwrite ConflictPolicy = "overwrite"
)

// ErrUnknownPolicy is returned for an unsupported conflict policy.
var ErrUnknownPolicy = errors.New("unknown conflict policy")

// ParseConflictPolicy validates a policy name.
func ParseConflictPolicy(name string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(name))); p {
	case PolicyError, PolicyMerge, PolicyOverwrite:
		return p, nil
	case "":
		return PolicyError, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Options configures a conversion run.
type Options struct {
	// Root is the scanned tree, recorded in the report.
	Root    string
	Javadoc javadoc.Options
	Policy  ConflictPolicy
	// Header is placed above the doc comment of created stubs.
	Header string
	// OutDir mirrors stubs into a separate tree by package name. Empty
	// writes next to each package.html.
	OutDir      string
	DryRun      bool
	Workers     int
	MaxFileSize int64
	Cache       *cache.Cache
}

// Deps carries the ambient services a Converter reports through.
type Deps struct {
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.ConversionMetrics
}

// Converter runs conversions. It is safe for concurrent use.
type Converter struct {
	opts    Options
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.ConversionMetrics
}

// New creates a Converter. Nil dependencies fall back to discarding ones.
func New(opts Options, deps Deps) *Converter {
	if opts.Policy == "" {
		opts.Policy = PolicyError
	}

	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("docfang")
	}

	return &Converter{opts: opts, logger: logger, tracer: tracer, metrics: deps.Metrics}
}

// Run converts every directory that carries a package.html. The first I/O
// error cancels the remaining work and is returned with the partial report.
func (c *Converter) Run(ctx context.Context, dirs []scan.PackageDir) (*report.Report, error) {
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "docfang.convert.run", trace.WithAttributes(
		attribute.Int("convert.directories", len(dirs)),
		attribute.Bool("convert.dry_run", c.opts.DryRun),
	))
	defer span.End()

	var before cache.Stats
	if c.opts.Cache != nil {
		before = c.opts.Cache.Stats()
	}

	p := pool.NewWithResults[report.Result]().
		WithContext(ctx).
		WithMaxGoroutines(c.opts.Workers).
		WithCancelOnError().
		WithFirstError()

	for _, dir := range dirs {
		if !dir.HasPackageHTML() {
			continue
		}

		p.Go(func(ctx context.Context) (report.Result, error) {
			return c.convertDir(ctx, dir)
		})
	}

	results, err := p.Wait()

	if c.opts.Cache != nil {
		after := c.opts.Cache.Stats()
		c.metrics.RecordDiskLookups(ctx, after.DiskHits-before.DiskHits, after.DiskMisses-before.DiskMisses)
	}

	rep := report.New(c.opts.Root, c.opts.DryRun)
	rep.Results = append(rep.Results, results...)
	rep.Finalize(time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return rep, err
	}

	c.logger.InfoContext(ctx, "conversion finished",
		"directories", rep.Summary.Directories,
		"created", rep.Count(report.ActionCreated),
		"conflicts", rep.Count(report.ActionConflict),
		"duration", time.Since(start))

	return rep, nil
}

func (c *Converter) convertDir(ctx context.Context, dir scan.PackageDir) (report.Result, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return report.Result{}, ctxErr
	}

	start := time.Now()

	ctx, span := c.tracer.Start(ctx, observability.SpanConvertPackage, trace.WithAttributes(
		attribute.String("package.name", dir.Package),
	))
	defer span.End()

	res, err := c.process(dir)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return res, fmt.Errorf("%s: %w", dir.Rel, err)
	}

	span.SetAttributes(
		attribute.String("convert.action", string(res.Action)),
		attribute.String("extract.kind", res.Kind),
	)

	c.metrics.RecordPackage(ctx, string(res.Action), res.Kind, res.Bytes, res.Cached, time.Since(start))
	c.logger.DebugContext(ctx, "package converted", "dir", dir.Rel, "package", dir.Package, "action", res.Action)

	return res, nil
}

func (c *Converter) process(dir scan.PackageDir) (report.Result, error) {
	res := report.Result{
		Dir:     dir.Rel,
		Package: dir.Package,
		Source:  dir.PackageHTML,
		Target:  c.target(dir),
		Kind:    htmlbody.KindNone.String(),
	}

	info, statErr := os.Stat(dir.PackageHTML)
	if statErr != nil {
		return res, fmt.Errorf("stat package.html: %w", statErr)
	}

	if c.opts.MaxFileSize > 0 && info.Size() > c.opts.MaxFileSize {
		res.Action = report.ActionSkipped
		res.Message = "package.html exceeds the size limit"

		return res, nil
	}

	data, readErr := os.ReadFile(dir.PackageHTML)
	if readErr != nil {
		return res, fmt.Errorf("read package.html: %w", readErr)
	}

	res.Bytes = int64(len(data))

	if textutil.IsBinary(data) {
		res.Action = report.ActionSkipped
		res.Message = "package.html is binary"

		return res, nil
	}

	html := string(data)
	res.Kind = htmlbody.Find(html).Kind.String()

	comment, cached, cacheErr := c.comment(data)
	if cacheErr != nil {
		return res, cacheErr
	}

	res.Cached = cached

	if comment == "" {
		res.Action = report.ActionEmpty

		return res, nil
	}

	existing, found, existErr := readExisting(res.Target)
	if existErr != nil {
		return res, existErr
	}

	content, action := c.decide(dir.Package, comment, existing, found)
	res.Action = action

	switch action {
	case report.ActionUnchanged, report.ActionEmpty, report.ActionSkipped:
		return res, nil
	case report.ActionConflict:
		res.Message = "package-info.java exists with different content"

		return res, nil
	case report.ActionCreated, report.ActionMerged, report.ActionOverwritten:
	}

	if c.opts.DryRun {
		res.Diff = LineDiff(existing, content)

		return res, nil
	}

	writeErr := stubs.Write(res.Target, content)
	if writeErr != nil {
		return res, writeErr
	}

	res.Written = true

	return res, nil
}

// comment renders the doc comment for a package.html, consulting the cache.
func (c *Converter) comment(data []byte) (string, bool, error) {
	if c.opts.Cache == nil {
		return javadoc.PackageHTMLToJavadoc(string(data), c.opts.Javadoc), false, nil
	}

	key := cache.Key(fmt.Sprintf("wrap=%d", c.opts.Javadoc.WrapWidth), data)

	if comment, ok := c.opts.Cache.Get(key); ok {
		return comment, true, nil
	}

	comment := javadoc.PackageHTMLToJavadoc(string(data), c.opts.Javadoc)

	putErr := c.opts.Cache.Put(key, comment)
	if putErr != nil {
		return "", false, fmt.Errorf("cache comment: %w", putErr)
	}

	return comment, false, nil
}

// decide picks the action and the content to write for one package.
func (c *Converter) decide(pkg, comment, existing string, found bool) (string, report.Action) {
	desired := stubs.PackageInfo(pkg, comment, c.opts.Header)

	if !found {
		return desired, report.ActionCreated
	}

	if existing == desired {
		return existing, report.ActionUnchanged
	}

	switch c.opts.Policy {
	case PolicyOverwrite:
		return desired, report.ActionOverwritten
	case PolicyMerge:
		merged, changed := MergeInto(existing, comment)
		if !changed {
			return existing, report.ActionUnchanged
		}

		return merged, report.ActionMerged
	case PolicyError:
	}

	return existing, report.ActionConflict
}

func (c *Converter) target(dir scan.PackageDir) string {
	if c.opts.OutDir == "" {
		return filepath.Join(dir.Dir, scan.PackageInfo)
	}

	return stubs.Path(c.opts.OutDir, dir.Package)
}

func readExisting(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("read package-info.java: %w", err)
	}

	return string(data), true, nil
}
