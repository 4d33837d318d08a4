package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of handled HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	StorageRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storage_request_duration_seconds",
		Help:    "Duration of storage operations",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"operation", "table", "status"})

	StorageRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_request_total",
		Help: "Number of storage operations",
	}, []string{"operation", "table", "status"})

	ScoreBatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "score_batches_total",
		Help: "Number of accepted score ingestion batches",
	})

	ScoresIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scores_ingested_total",
		Help: "Number of score rows written by ingestion",
	})

	MissingReferenceRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "missing_reference_rejections_total",
		Help: "Writes rejected because referenced rows were absent",
	})
)

// MustRegister registers all collectors.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		HTTPRequestDuration,
		StorageRequestDuration,
		StorageRequestTotal,
		ScoreBatchesTotal,
		ScoresIngestedTotal,
		MissingReferenceRejections,
	)
}

// StartServer runs an HTTP server exposing /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveStorageRequest records the duration and status of one storage
// operation.
func ObserveStorageRequest(operation, table string, start time.Time, err error) {
	if operation == "" {
		operation = "unknown"
	}
	if table == "" {
		table = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	StorageRequestDuration.WithLabelValues(operation, table, status).Observe(duration)
	StorageRequestTotal.WithLabelValues(operation, table, status).Inc()
}
