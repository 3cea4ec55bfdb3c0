// Package prometheus exposes engine counters as a Prometheus collector.
//
// [NewCollector] reads Engine.MetricsSnapshot on every scrape, so nothing is
// registered globally; callers register the collector on their own registry or
// mount [Collector.Handler].
package prometheus
