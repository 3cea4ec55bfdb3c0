// Package otel reports engine counters as OpenTelemetry observable
// instruments, one counter per auth flow with attributes telling the
// outcomes apart (for example govauth.logins{method="tfa",outcome="failure"}).
// Confirm latency is published as a cumulative bucket gauge keyed by le.
//
// Callers supply the Meter. One callback reads Engine.MetricsSnapshot per
// collection cycle.
package otel
