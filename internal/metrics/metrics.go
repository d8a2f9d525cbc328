// Package metrics provides Prometheus metrics for crawling, hashing and
// archive mounting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Crawl metrics
	CrawlDirectories = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filecrawl_crawl_directories_total",
			Help: "Total number of directories listed by crawlers",
		},
	)

	CrawlMatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filecrawl_crawl_matches_total",
			Help: "Total number of paths published by crawlers",
		},
	)

	CrawlErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filecrawl_crawl_errors_total",
			Help: "Directories skipped because they could not be listed",
		},
	)

	CrawlersRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filecrawl_crawlers_running",
			Help: "Number of crawlers currently walking a root",
		},
	)

	// Checksum metrics
	ChecksumsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filecrawl_checksums_computed_total",
			Help: "Digests computed from file content",
		},
		[]string{"algorithm"},
	)

	ChecksumCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filecrawl_checksum_cache_hits_total",
			Help: "Digests served from the cache",
		},
		[]string{"algorithm"},
	)

	ChecksumFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filecrawl_checksum_failures_total",
			Help: "Digest computations that failed",
		},
		[]string{"algorithm"},
	)

	ChecksumBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filecrawl_checksum_bytes_total",
			Help: "Bytes read while computing digests",
		},
	)

	// Archive metrics
	ArchiveMountsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filecrawl_archive_mounts_open",
			Help: "Number of archives currently mounted",
		},
	)

	ArchiveMountFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filecrawl_archive_mount_failures_total",
			Help: "Archives that could not be opened",
		},
	)
)
