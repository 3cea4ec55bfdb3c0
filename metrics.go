package govauth

import (
	"time"

	"github.com/polkassembly/govauth/internal/metrics"
)

// MetricID identifies an engine counter.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginRateLimited
	MetricAddressLoginSuccess
	MetricSignupSuccess
	MetricAddressSignupSuccess
	MetricChallengeIssued
	MetricChallengeConsumed
	MetricChallengeExpired
	MetricSignatureInvalid
	MetricMultisigLinked
	MetricProxyLinked
	MetricAddressLinked
	MetricAddressUnlinked
	MetricDefaultAddressChanged
	MetricCredentialsSet
	MetricContentAttested
	MetricTokenIssued
	MetricTokenAddressLookupFailed
	MetricTFARequired
	MetricTFASuccess
	MetricTFAFailure
	MetricUsernameChanged
	MetricUsernameBlacklisted
	MetricEmailChanged
	MetricEmailChangeCooldown
	MetricEmailChangeUndone
	MetricEmailVerified
	MetricPasswordChangeSuccess
	MetricPasswordChangeInvalidOld
	MetricPasswordResetRequest
	MetricPasswordResetConfirmSuccess
	MetricPasswordResetConfirmFailure
	MetricNotificationEmitted
	MetricConfirmLatency
	metricIDCount
)

// Metrics wraps the engine's counter set.
type Metrics struct {
	set *metrics.Set
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{set: metrics.New(int(metricIDCount), cfg.Enabled, cfg.EnableLatencyHistograms)}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.set.Enabled()
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil {
		return
	}
	m.set.Inc(int(id))
}

// Observe records a latency sample. Only MetricConfirmLatency carries a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || id != MetricConfirmLatency {
		return
	}
	m.set.Observe(int(id), d)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil {
		return 0
	}
	return m.set.Value(int(id))
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if !m.Enabled() {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricConfirmLatency {
			continue
		}
		s.Counters[id] = m.set.Value(int(id))
	}
	if m.set.LatencyEnabled() {
		s.Histograms[MetricConfirmLatency] = m.set.Buckets(int(MetricConfirmLatency))
	}
	return s
}
