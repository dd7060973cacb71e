package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_searches_total",
			Help: "Total number of search API calls issued",
		},
		[]string{"provider", "status"},
	)

	SearchResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prospect_search_results_total",
			Help: "Total number of organic results returned by search calls",
		},
	)

	PagesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_pages_fetched_total",
			Help: "Total number of pages fetched during lead scraping",
		},
		[]string{"status"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prospect_fetch_duration_seconds",
			Help:    "Duration of page fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	CompaniesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_companies_total",
			Help: "Total number of company records produced",
		},
		[]string{"source"},
	)

	ExtractHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_extract_hits_total",
			Help: "Total number of contact details extracted from pages",
		},
		[]string{"kind"},
	)

	SummariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_summaries_total",
			Help: "Total number of company summaries generated",
		},
		[]string{"mode", "status"},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prospect_proxy_failures_total",
			Help: "Total number of proxy failures during fetches",
		},
		[]string{"proxy_url"},
	)
)

// RecordSearch updates the search metrics for one provider call.
func RecordSearch(provider, status string, results int) {
	SearchesTotal.WithLabelValues(provider, status).Inc()
	if results > 0 {
		SearchResultsTotal.Add(float64(results))
	}
}

// RecordFetch updates the page fetch metrics. The status label is the numeric
// HTTP status, "blocked" when bot protection intervened, or "error" for
// transport failures.
func RecordFetch(statusCode int, fetchErr string, blocked bool, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	if blocked {
		status = "blocked"
	}
	if fetchErr != "" {
		status = "error"
	}

	PagesFetchedTotal.WithLabelValues(status).Inc()
	FetchDuration.Observe(duration.Seconds())
}

// RecordCompany counts one produced company record by its source operation.
func RecordCompany(source string) {
	CompaniesTotal.WithLabelValues(source).Inc()
}

// RecordExtract counts extracted contact details of the given kind.
func RecordExtract(kind string, hits int) {
	if hits > 0 {
		ExtractHitsTotal.WithLabelValues(kind).Add(float64(hits))
	}
}

// RecordSummary counts one summary attempt by mode and outcome.
func RecordSummary(mode, status string) {
	SummariesTotal.WithLabelValues(mode, status).Inc()
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified address and exposes /metrics plus
// a /healthz probe.
func Start(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
