// Package metrics records run figures in a private prometheus registry.
//
// The tool is a batch job, so nothing is served over HTTP. Figures are written
// once per run in the node exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sales-analytics-service/internal/analytics"
	"sales-analytics-service/internal/parsers"
)

// Run status label values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics bundles the salesreport metrics.
type Metrics struct {
	registry *prometheus.Registry

	RecordsLoaded  prometheus.Counter
	RecordsSkipped prometheus.Counter
	BlankLines     prometheus.Counter
	MonthsReported prometheus.Gauge
	TotalSales     prometheus.Gauge
	InputMissing   prometheus.Gauge
	RunDuration    prometheus.Histogram
	RunsTotal      *prometheus.CounterVec
}

// New constructs the metrics and registers them in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "salesreport_records_loaded_total",
			Help: "Sales records parsed successfully",
		}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "salesreport_records_skipped_total",
			Help: "Sales lines skipped because they could not be parsed",
		}),
		BlankLines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "salesreport_blank_lines_total",
			Help: "Blank lines ignored in the sales file",
		}),
		MonthsReported: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "salesreport_months_reported",
			Help: "Distinct months present in the last report",
		}),
		TotalSales: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "salesreport_total_sales",
			Help: "Total sales of the last report",
		}),
		InputMissing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "salesreport_input_missing",
			Help: "1 when the sales file was not found",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "salesreport_run_duration_seconds",
			Help:    "Duration of a salesreport run in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesreport_runs_total",
				Help: "Total salesreport runs by status",
			},
			[]string{"status"},
		),
	}
	m.registry.MustRegister(
		m.RecordsLoaded,
		m.RecordsSkipped,
		m.BlankLines,
		m.MonthsReported,
		m.TotalSales,
		m.InputMissing,
		m.RunDuration,
		m.RunsTotal,
	)
	return m
}

// Registry exposes the underlying registry as a gatherer
func (m *Metrics) Registry() prometheus.Gatherer {
	return m.registry
}

// ObserveLoad records the outcome of loading the sales file
func (m *Metrics) ObserveLoad(result *parsers.LoadResult) {
	if result == nil {
		return
	}

	m.RecordsLoaded.Add(float64(len(result.Records)))
	m.RecordsSkipped.Add(float64(len(result.Diagnostics)))
	if result.Stats != nil {
		m.BlankLines.Add(float64(result.Stats.BlankLines))
	}

	if result.Missing() {
		m.InputMissing.Set(1)
	} else {
		m.InputMissing.Set(0)
	}
}

// ObserveReport records the headline figures of a report
func (m *Metrics) ObserveReport(report *analytics.Report) {
	if report == nil {
		return
	}

	m.MonthsReported.Set(float64(report.MonthlySales.Len()))
	m.TotalSales.Set(report.TotalSales.InexactFloat64())
}

// ObserveDuration records the duration of a run
func (m *Metrics) ObserveDuration(d time.Duration) {
	m.RunDuration.Observe(d.Seconds())
}

// ObserveRun counts a finished run by status
func (m *Metrics) ObserveRun(status string) {
	m.RunsTotal.WithLabelValues(status).Inc()
}

// WriteTextfile writes every metric to path in the textfile collector format
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
