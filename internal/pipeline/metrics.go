package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docfix_pages_processed_total",
		Help: "Pages run through the fixer pipeline.",
	})
	pagesChanged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docfix_pages_changed_total",
		Help: "Pages a fixer actually modified.",
	})
	pageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docfix_page_failures_total",
		Help: "Pages that failed processing, by error category.",
	}, []string{"category"})
	pageDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docfix_page_duration_seconds",
		Help:    "Wall time spent processing a single page.",
		Buckets: prometheus.DefBuckets,
	})
)
