package logic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics
var (
	predictionsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "footy_predictions_total",
		Help: "Total number of predictions served, by most likely outcome",
	}, []string{"outcome"})

	predictionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "footy_predictions_failed_total",
		Help: "Total number of predictions that failed, by error kind",
	}, []string{"kind"})

	predictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "footy_prediction_duration_seconds",
		Help:    "Duration of a single prediction including feature fetches",
		Buckets: prometheus.DefBuckets,
	})

	modelFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "footy_model_failures_total",
		Help: "Total number of model evaluations excluded from the ensemble",
	}, []string{"model"})

	dataQuality = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "footy_prediction_data_quality",
		Help:    "Data quality score of served predictions",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	})

	featureCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "footy_feature_cache_hits_total",
		Help: "Team feature cache hits",
	})

	featureCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "footy_feature_cache_misses_total",
		Help: "Team feature cache misses",
	})
)
