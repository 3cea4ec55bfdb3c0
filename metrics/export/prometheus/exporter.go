package prometheus

import (
	"net/http"

	"github.com/polkassembly/govauth"
	"github.com/polkassembly/govauth/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsSource interface {
	MetricsSnapshot() govauth.MetricsSnapshot
	NotificationsDropped() uint64
}

type histogramDesc struct {
	id   govauth.MetricID
	desc *prometheus.Desc
}

// Collector implements prometheus.Collector over an engine snapshot.
type Collector struct {
	source     metricsSource
	counters   map[govauth.MetricID]*prometheus.Desc
	histograms []histogramDesc
	dropped    *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(source metricsSource) *Collector {
	c := &Collector{
		source:   source,
		counters: make(map[govauth.MetricID]*prometheus.Desc, len(internaldefs.CounterDefs)),
		dropped:  prometheus.NewDesc(internaldefs.DroppedNotificationsName, internaldefs.DroppedNotificationsHelp, nil, nil),
	}
	for _, def := range internaldefs.CounterDefs {
		c.counters[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	for _, def := range internaldefs.HistogramDefs {
		c.histograms = append(c.histograms, histogramDesc{
			id:   def.ID,
			desc: prometheus.NewDesc(def.Name, def.Help, nil, nil),
		})
	}
	return c
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, def := range internaldefs.CounterDefs {
		ch <- c.counters[def.ID]
	}
	for _, h := range c.histograms {
		ch <- h.desc
	}
	ch <- c.dropped
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.source == nil {
		return
	}
	snapshot := c.source.MetricsSnapshot()

	for _, def := range internaldefs.CounterDefs {
		value, ok := snapshot.Counters[def.ID]
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.counters[def.ID], prometheus.CounterValue, float64(value))
	}

	for _, h := range c.histograms {
		raw, ok := snapshot.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramBounds))
		for i, le := range internaldefs.HistogramBounds {
			buckets[le] = cumulative[i]
		}
		// sum is not tracked by the engine
		ch <- prometheus.MustNewConstHistogram(h.desc, cumulative[len(cumulative)-1], 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(c.source.NotificationsDropped()))
}

// Handler serves the collector from a private registry.
func (c *Collector) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
