/*
Package metrics exposes prometheus instrumentation for barn's four
operations: insert, get, search, and bulk load. It follows the same
package-level-vars-plus-init-registration shape the rest of this
module's ambient stack uses.
*/
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	InsertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barn_inserts_total",
			Help: "Total number of insert calls by resource and outcome",
		},
		[]string{"resource", "outcome"},
	)

	InsertDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "barn_insert_duration_seconds",
			Help:    "Insert transaction duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	GetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barn_gets_total",
			Help: "Total number of get calls by resource and outcome",
		},
		[]string{"resource", "outcome"},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barn_searches_total",
			Help: "Total number of search calls by resource",
		},
		[]string{"resource"},
	)

	SearchMatchedDocuments = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "barn_search_matched_documents",
			Help:    "Number of documents matched per search call",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"resource"},
	)

	BulkLoadRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barn_bulk_load_records_total",
			Help: "Total number of bulk-load records by resource and outcome",
		},
		[]string{"resource", "outcome"},
	)

	BulkLoadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "barn_bulk_load_duration_seconds",
			Help:    "Bulk load duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource"},
	)
)

func init() {
	prometheus.MustRegister(InsertsTotal)
	prometheus.MustRegister(InsertDuration)
	prometheus.MustRegister(GetsTotal)
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchMatchedDocuments)
	prometheus.MustRegister(BulkLoadRecordsTotal)
	prometheus.MustRegister(BulkLoadDuration)
}
