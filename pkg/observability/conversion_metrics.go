package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricPackagesTotal    = "docfang.convert.packages.total"
	metricBytesRead        = "docfang.convert.bytes.read"
	metricPackageDuration  = "docfang.convert.package.duration.seconds"
	metricCacheHitsTotal   = "docfang.convert.cache.hits.total"
	metricCacheMissesTotal = "docfang.convert.cache.misses.total"
	metricDiskLookupsTotal = "docfang.convert.cache.disk.lookups.total"

	attrAction = "action"
	attrKind   = "kind"
	attrResult = "result"
)

// ConversionMetrics holds per-package conversion instruments.
type ConversionMetrics struct {
	packages    metric.Int64Counter
	bytesRead   metric.Int64Counter
	duration    metric.Float64Histogram
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
	diskLookups metric.Int64Counter
}

// NewConversionMetrics creates conversion instruments from the given meter.
func NewConversionMetrics(mt metric.Meter) (*ConversionMetrics, error) {
	packages, err := mt.Int64Counter(metricPackagesTotal,
		metric.WithDescription("Package directories processed by action and extraction kind"),
		metric.WithUnit("{package}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPackagesTotal, err)
	}

	bytesRead, err := mt.Int64Counter(metricBytesRead,
		metric.WithDescription("Bytes of package.html read"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricBytesRead, err)
	}

	duration, err := mt.Float64Histogram(metricPackageDuration,
		metric.WithDescription("Per-package conversion duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPackageDuration, err)
	}

	hits, err := mt.Int64Counter(metricCacheHitsTotal,
		metric.WithDescription("Comment cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheHitsTotal, err)
	}

	misses, err := mt.Int64Counter(metricCacheMissesTotal,
		metric.WithDescription("Comment cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheMissesTotal, err)
	}

	diskLookups, err := mt.Int64Counter(metricDiskLookupsTotal,
		metric.WithDescription("Disk-tier cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricDiskLookupsTotal, err)
	}

	return &ConversionMetrics{
		packages:    packages,
		bytesRead:   bytesRead,
		duration:    duration,
		cacheHits:   hits,
		cacheMisses: misses,
		diskLookups: diskLookups,
	}, nil
}

// RecordPackage records one processed directory. Safe on a nil receiver.
func (cm *ConversionMetrics) RecordPackage(ctx context.Context, action, kind string, size int64, cached bool, elapsed time.Duration) {
	if cm == nil {
		return
	}

	cm.packages.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrAction, action),
		attribute.String(attrKind, kind),
	))
	cm.bytesRead.Add(ctx, size)
	cm.duration.Record(ctx, elapsed.Seconds())

	if cached {
		cm.cacheHits.Add(ctx, 1)
	} else {
		cm.cacheMisses.Add(ctx, 1)
	}
}

// RecordDiskLookups records disk-tier cache hits and misses of one run.
// Safe on a nil receiver.
func (cm *ConversionMetrics) RecordDiskLookups(ctx context.Context, hits, misses int64) {
	if cm == nil {
		return
	}

	if hits > 0 {
		cm.diskLookups.Add(ctx, hits, metric.WithAttributes(attribute.String(attrResult, "hit")))
	}

	if misses > 0 {
		cm.diskLookups.Add(ctx, misses, metric.WithAttributes(attribute.String(attrResult, "miss")))
	}
}
