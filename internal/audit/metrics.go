package audit

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics counts detections and audit delivery outcomes on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Detections    *prometheus.CounterVec
	Written       prometheus.Counter
	WriteFailures *prometheus.CounterVec
	Dropped       prometheus.Counter
	Retries       prometheus.Counter
}

// NewMetrics creates the audit metrics with their own Prometheus registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifeline",
			Name:      "detections_total",
			Help:      "Detections submitted for audit, by tier",
		}, []string{"tier"}),
		Written: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lifeline",
			Name:      "audit_written_total",
			Help:      "Audit events written to the sink",
		}),
		WriteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifeline",
			Name:      "audit_write_failures_total",
			Help:      "Audit events that could not be written, by tier",
		}, []string{"tier"}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lifeline",
			Name:      "audit_dropped_total",
			Help:      "Non-crisis audit events dropped after a failed write or a full queue",
		}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lifeline",
			Name:      "audit_retries_total",
			Help:      "Retried audit writes for high and critical events",
		}),
	}
	reg.MustRegister(m.Detections, m.Written, m.WriteFailures, m.Dropped, m.Retries)
	return m
}

// Registry exposes the private registry for scraping or inspection.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Snapshot flattens current counter values into "name{label=value}" keys.
func (m *Metrics) Snapshot() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			out[seriesName(mf.GetName(), metric)] = metric.GetCounter().GetValue()
		}
	}
	return out, nil
}

// Delivery summarizes audit delivery outcomes. Failed counts every event that
// was not written; Dropped is its best-effort share.
type Delivery struct {
	Submitted int `json:"submitted" yaml:"submitted"`
	Written   int `json:"written" yaml:"written"`
	Retried   int `json:"retried" yaml:"retried"`
	Dropped   int `json:"dropped" yaml:"dropped"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Delivery totals the counters across tiers.
func (m *Metrics) Delivery() (Delivery, error) {
	snap, err := m.Snapshot()
	if err != nil {
		return Delivery{}, err
	}
	var d Delivery
	for name, v := range snap {
		n := int(v)
		switch {
		case strings.HasPrefix(name, "lifeline_detections_total"):
			d.Submitted += n
		case name == "lifeline_audit_written_total":
			d.Written += n
		case name == "lifeline_audit_retries_total":
			d.Retried += n
		case name == "lifeline_audit_dropped_total":
			d.Dropped += n
		case strings.HasPrefix(name, "lifeline_audit_write_failures_total"):
			d.Failed += n
		}
	}
	return d, nil
}

func seriesName(name string, metric *dto.Metric) string {
	labels := metric.GetLabel()
	if len(labels) == 0 {
		return name
	}
	s := name + "{"
	for i, l := range labels {
		if i > 0 {
			s += ","
		}
		s += l.GetName() + "=" + l.GetValue()
	}
	return s + "}"
}
