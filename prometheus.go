package osmextract

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/osmextract/merge"
	"github.com/hupe1980/osmextract/model"
)

// PrometheusCollector exports run metrics to a Prometheus registry.
type PrometheusCollector struct {
	leaves     *prometheus.CounterVec
	batches    *prometheus.CounterVec
	entities   *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	runs       *prometheus.CounterVec
	lastRun    prometheus.Gauge
}

// NewPrometheusCollector creates the collectors and registers them with reg.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	p := &PrometheusCollector{
		leaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osmextract_leaves_total",
			Help: "Leaves intersecting the query region by outcome",
		}, []string{"outcome"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osmextract_batches_total",
			Help: "Relation batches by category and outcome",
		}, []string{"category", "outcome"}),
		entities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osmextract_entities_written_total",
			Help: "Entities written to the output by category",
		}, []string{"category"}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osmextract_merge_duplicates_total",
			Help: "Duplicate copies collapsed during merge by category",
		}, []string{"category"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "osmextract_step_duration_seconds",
			Help:    "Duration of pipeline steps",
			Buckets: prometheus.DefBuckets,
		}, []string{"step", "status"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osmextract_runs_total",
			Help: "Extraction runs by final state",
		}, []string{"state", "status"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "osmextract_last_run_timestamp_seconds",
			Help: "Completion time of the last run",
		}),
	}
	for _, c := range []prometheus.Collector{p.leaves, p.batches, p.entities, p.duplicates, p.latency, p.runs, p.lastRun} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (p *PrometheusCollector) RecordLeaf(outcome string, _ model.Tally, d time.Duration, err error) {
	if err == nil {
		p.leaves.WithLabelValues(outcome).Inc()
	}
	p.latency.WithLabelValues("leaf", status(err)).Observe(d.Seconds())
}

func (p *PrometheusCollector) RecordBatch(c model.Category, outcome string, _ model.Tally, d time.Duration, err error) {
	if err == nil {
		p.batches.WithLabelValues(c.String(), outcome).Inc()
	}
	p.latency.WithLabelValues("batch", status(err)).Observe(d.Seconds())
}

func (p *PrometheusCollector) RecordMerge(c model.Category, stats merge.Stats, d time.Duration, err error) {
	p.entities.WithLabelValues(c.String()).Add(float64(stats.Written))
	p.duplicates.WithLabelValues(c.String()).Add(float64(stats.Duplicates))
	p.latency.WithLabelValues("merge", status(err)).Observe(d.Seconds())
}

func (p *PrometheusCollector) RecordRun(s State, _ model.Tally, d time.Duration, err error) {
	p.runs.WithLabelValues(s.String(), status(err)).Inc()
	p.latency.WithLabelValues("run", status(err)).Observe(d.Seconds())
	p.lastRun.SetToCurrentTime()
}
