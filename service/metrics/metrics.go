// Package metrics exposes run outcomes as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/elC0mpa/ami-rotator/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ami_rotator"

// Recorder owns a registry so several recorders can coexist in tests.
type Recorder struct {
	registry *prometheus.Registry

	imagesCreated      *prometheus.CounterVec
	imagesDeregistered *prometheus.CounterVec
	snapshotsDeleted   *prometheus.CounterVec
	errorsTotal        *prometheus.CounterVec
	regionsNotEnabled  *prometheus.GaugeVec
	runsTotal          *prometheus.CounterVec
	lastRunTimestamp   prometheus.Gauge
	runDuration        prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		imagesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "images_created_total",
				Help:      "Total number of images created by region",
			},
			[]string{"region"},
		),
		imagesDeregistered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "images_deregistered_total",
				Help:      "Total number of expired images deregistered by region",
			},
			[]string{"region"},
		),
		snapshotsDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshots_deleted_total",
				Help:      "Total number of snapshots deleted by region",
			},
			[]string{"region"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors by region and kind (item or fatal)",
			},
			[]string{"region", "kind"},
		),
		regionsNotEnabled: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "region_not_enabled",
				Help:      "Whether the region is not opted in for the account (1) or not (0)",
			},
			[]string{"region"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of runs by result",
			},
			[]string{"result"},
		),
		lastRunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run finished",
			},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of a full run in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
			},
		),
	}

	r.registry.MustRegister(
		r.imagesCreated,
		r.imagesDeregistered,
		r.snapshotsDeleted,
		r.errorsTotal,
		r.regionsNotEnabled,
		r.runsTotal,
		r.lastRunTimestamp,
		r.runDuration,
	)

	return r
}

// Record folds a run report into the metrics. runErr is the error returned
// alongside the report, if any.
func (r *Recorder) Record(report *model.RunReport, runErr error) {
	if report == nil {
		r.runsTotal.WithLabelValues("error").Inc()
		return
	}

	for _, region := range report.Regions {
		r.imagesCreated.WithLabelValues(region.Region).Add(float64(region.ImagesCreated))
		r.imagesDeregistered.WithLabelValues(region.Region).Add(float64(region.ImagesDeregistered))
		r.snapshotsDeleted.WithLabelValues(region.Region).Add(float64(region.SnapshotsDeleted))
		r.errorsTotal.WithLabelValues(region.Region, "item").Add(float64(len(region.Errors)))
		if region.Fatal != nil {
			r.errorsTotal.WithLabelValues(region.Region, "fatal").Inc()
		}
		if region.NotEnabled {
			r.regionsNotEnabled.WithLabelValues(region.Region).Set(1)
		} else {
			r.regionsNotEnabled.WithLabelValues(region.Region).Set(0)
		}
	}

	result := "success"
	if runErr != nil {
		result = "error"
	}
	r.runsTotal.WithLabelValues(result).Inc()

	if !report.EndedAt.IsZero() {
		r.lastRunTimestamp.Set(float64(report.EndedAt.Unix()))
		r.runDuration.Observe(report.EndedAt.Sub(report.StartedAt).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
