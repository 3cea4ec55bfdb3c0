// Package internaldefs holds the metric names, help strings and bucket bounds
// shared by the Prometheus and OTel exporters.
package internaldefs
