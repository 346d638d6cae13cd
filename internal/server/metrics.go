package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fisopt_jobs_started_total",
		Help: "Number of optimization jobs started, by back-end.",
	}, []string{"method"})

	jobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fisopt_jobs_completed_total",
		Help: "Number of optimization jobs finished, by outcome.",
	}, []string{"status"})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fisopt_job_duration_seconds",
		Help:    "Wall-clock duration of optimization jobs.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	})
)
