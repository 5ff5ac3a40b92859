package adapters

import (
	"github.com/prometheus/client_golang/prometheus"
)

var caseLabels = []string{"benchmark", "scenario", "case"}

// PrometheusLogger records case results as gauges and writes them in the
// node-exporter textfile format when closed.
type PrometheusLogger struct {
	path     string
	registry *prometheus.Registry

	mean      *prometheus.GaugeVec
	median    *prometheus.GaugeVec
	p95       *prometheus.GaugeVec
	stddev    *prometheus.GaugeVec
	opsPerSec *prometheus.GaugeVec
	cv        *prometheus.GaugeVec
	peakMem   *prometheus.GaugeVec
}

func NewPrometheusLogger(path string) *PrometheusLogger {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "benchkit",
			Subsystem: "case",
			Name:      name,
			Help:      help,
		}, caseLabels)
	}

	p := &PrometheusLogger{
		path:      path,
		registry:  prometheus.NewRegistry(),
		mean:      gauge("mean_seconds", "Mean duration per call."),
		median:    gauge("median_seconds", "Median duration per call."),
		p95:       gauge("p95_seconds", "95th percentile duration per call."),
		stddev:    gauge("stddev_seconds", "Sample standard deviation of call duration."),
		opsPerSec: gauge("ops_per_second", "Calls completed per second of elapsed time."),
		cv:        gauge("cv", "Coefficient of variation of call duration."),
		peakMem:   gauge("peak_memory_bytes", "Peak resident memory observed while measuring."),
	}
	p.registry.MustRegister(p.mean, p.median, p.p95, p.stddev, p.opsPerSec, p.cv, p.peakMem)
	return p
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (p *PrometheusLogger) Registry() *prometheus.Registry { return p.registry }

func (p *PrometheusLogger) LogCaseResults(r CaseReport) error {
	labels := prometheus.Labels{"benchmark": r.Benchmark, "scenario": r.Scenario, "case": r.Result.Name}
	res := r.Result

	p.mean.With(labels).Set(res.Mean.Seconds())
	p.median.With(labels).Set(res.Median.Seconds())
	p.p95.With(labels).Set(res.P95.Seconds())
	p.stddev.With(labels).Set(res.StdDev.Seconds())
	p.opsPerSec.With(labels).Set(res.OpsPerSec)
	p.cv.With(labels).Set(res.CV)
	if r.Measurement != nil {
		p.peakMem.With(labels).Set(float64(r.Measurement.Resources.PeakMem))
	}
	return nil
}

// Close writes the textfile. It is a no-op without a path.
func (p *PrometheusLogger) Close() error {
	if p.path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(p.path, p.registry)
}
