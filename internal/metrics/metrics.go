package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Walker metrics
var (
	WalkerDirectoriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_scanner_walker_directories_total",
			Help: "Total number of directories visited by the walker",
		},
	)

	WalkerCacheOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_scanner_walker_cache_outcomes_total",
			Help: "Directory cache lookups by outcome tier",
		},
		[]string{"outcome"}, // "full", "partial", "miss", "corrupt"
	)

	WalkerFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_scanner_walker_files_total",
			Help: "Files considered during the walk by disposition",
		},
		[]string{"disposition"}, // "reused", "probed", "ignored"
	)

	WalkerDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_scanner_walker_last_run_duration_seconds",
			Help: "Duration of the last tree walk in seconds",
		},
	)
)

// Media probing metrics
var (
	HashesComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_scanner_hashes_computed_total",
			Help: "Total number of content hashes computed",
		},
	)

	HashDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_scanner_hash_duration_seconds",
			Help:    "Content hash computation duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)
)

// Metadata extractor metrics
var (
	ExtractorBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_scanner_extractor_batches_total",
			Help: "Total number of command batches sent to the metadata extractor",
		},
	)

	ExtractorFiles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_scanner_extractor_files_total",
			Help: "Total number of files submitted for metadata extraction",
		},
	)

	ExtractorTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_scanner_extractor_timeouts_total",
			Help: "Total number of metadata extraction timeouts",
		},
	)

	ExtractorDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_scanner_extractor_duration_seconds",
			Help:    "Metadata extraction batch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_scanner_thumbnails_generated_total",
			Help: "Thumbnail renditions written, by media kind",
		},
		[]string{"kind"},
	)

	ThumbnailErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_scanner_thumbnail_errors_total",
			Help: "Total number of failed thumbnail generations",
		},
	)

	ThumbnailDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_scanner_thumbnail_duration_seconds",
			Help:    "Per-object thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
		[]string{"kind"},
	)

	ThumbnailWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_scanner_thumbnail_workers",
			Help: "Size of the thumbnail worker pool",
		},
	)

	ThumbnailDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_scanner_thumbnails_deduplicated_total",
			Help: "Media objects skipped because another object shares their content hash",
		},
	)
)

// Stale collector metrics
var (
	StaleEntriesFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_scanner_stale_entries_found_total",
			Help: "Stale cache entries discovered during cleanup",
		},
	)

	StaleEntriesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_scanner_stale_entries_removed_total",
			Help: "Stale cache entries deleted during cleanup",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_scanner_fs_stale_errors_total",
			Help: "NFS stale file handle errors by operation",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_scanner_fs_retry_success_total",
			Help: "Filesystem operations that succeeded after retrying",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_scanner_fs_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation"},
	)
)
