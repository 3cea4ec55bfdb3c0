package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/polkassembly/govauth"
	"github.com/polkassembly/govauth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() govauth.MetricsSnapshot
	NotificationsDropped() uint64
}

// series is one engine counter reported as a data point of a flow instrument.
type series struct {
	id    govauth.MetricID
	attrs []attribute.KeyValue
}

// flow groups the counters of one auth flow under a single instrument.
type flow struct {
	name   string
	help   string
	series []series
}

func point(id govauth.MetricID, kv ...attribute.KeyValue) series {
	return series{id: id, attrs: kv}
}

var (
	outcome = attribute.Key("outcome")
	method  = attribute.Key("method")
	event   = attribute.Key("event")
	change  = attribute.Key("change")
	le      = attribute.Key("le")
)

var flows = []flow{
	{
		name: "govauth.challenges",
		help: "Wallet challenges by outcome.",
		series: []series{
			point(govauth.MetricChallengeIssued, outcome.String("issued")),
			point(govauth.MetricChallengeConsumed, outcome.String("consumed")),
			point(govauth.MetricChallengeExpired, outcome.String("expired")),
			point(govauth.MetricSignatureInvalid, outcome.String("invalid_signature")),
		},
	},
	{
		name: "govauth.logins",
		help: "Login attempts by method and outcome.",
		series: []series{
			point(govauth.MetricLoginSuccess, method.String("password"), outcome.String("success")),
			point(govauth.MetricLoginFailure, method.String("password"), outcome.String("failure")),
			point(govauth.MetricLoginRateLimited, method.String("password"), outcome.String("rate_limited")),
			point(govauth.MetricAddressLoginSuccess, method.String("address"), outcome.String("success")),
			point(govauth.MetricTFARequired, method.String("tfa"), outcome.String("required")),
			point(govauth.MetricTFASuccess, method.String("tfa"), outcome.String("success")),
			point(govauth.MetricTFAFailure, method.String("tfa"), outcome.String("failure")),
		},
	},
	{
		name: "govauth.signups",
		help: "Created accounts by signup method.",
		series: []series{
			point(govauth.MetricSignupSuccess, method.String("password")),
			point(govauth.MetricAddressSignupSuccess, method.String("address")),
		},
	},
	{
		name: "govauth.addresses",
		help: "Address link changes.",
		series: []series{
			point(govauth.MetricAddressLinked, event.String("linked")),
			point(govauth.MetricAddressUnlinked, event.String("unlinked")),
			point(govauth.MetricDefaultAddressChanged, event.String("default_changed")),
			point(govauth.MetricMultisigLinked, event.String("multisig_linked")),
			point(govauth.MetricProxyLinked, event.String("proxy_linked")),
		},
	},
	{
		name: "govauth.account.changes",
		help: "Account mutations, accepted and refused.",
		series: []series{
			point(govauth.MetricUsernameChanged, change.String("username")),
			point(govauth.MetricUsernameBlacklisted, change.String("username_blacklisted")),
			point(govauth.MetricEmailChanged, change.String("email")),
			point(govauth.MetricEmailChangeCooldown, change.String("email_cooldown")),
			point(govauth.MetricEmailChangeUndone, change.String("email_undone")),
			point(govauth.MetricEmailVerified, change.String("email_verified")),
			point(govauth.MetricCredentialsSet, change.String("credentials_set")),
			point(govauth.MetricPasswordChangeSuccess, change.String("password")),
			point(govauth.MetricPasswordChangeInvalidOld, change.String("password_invalid_old")),
		},
	},
	{
		name: "govauth.password.resets",
		help: "Password reset requests and confirmations.",
		series: []series{
			point(govauth.MetricPasswordResetRequest, outcome.String("requested")),
			point(govauth.MetricPasswordResetConfirmSuccess, outcome.String("success")),
			point(govauth.MetricPasswordResetConfirmFailure, outcome.String("failure")),
		},
	},
	{
		name: "govauth.tokens",
		help: "Issued session tokens.",
		series: []series{
			point(govauth.MetricTokenIssued, outcome.String("issued")),
			point(govauth.MetricTokenAddressLookupFailed, outcome.String("address_lookup_failed")),
		},
	},
	{
		name: "govauth.content.attested",
		help: "Posts created or edited with a wallet signature.",
		series: []series{
			point(govauth.MetricContentAttested),
		},
	},
}

type observedFlow struct {
	flow
	instrument metric.Int64ObservableCounter
	options    []metric.ObserveOption
}

// Exporter keeps the callback registration alive until Close.
type Exporter struct {
	source       metricsSource
	registration metric.Registration

	flows         []observedFlow
	notifications metric.Int64ObservableCounter
	latency       metric.Int64ObservableGauge
	latencyCount  metric.Int64ObservableGauge
	bucketOptions []metric.ObserveOption
}

func NewExporter(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	observables := make([]metric.Observable, 0, len(flows)+3)

	for _, f := range flows {
		ins, err := meter.Int64ObservableCounter(f.name, metric.WithDescription(f.help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", f.name, err)
		}
		of := observedFlow{flow: f, instrument: ins, options: make([]metric.ObserveOption, len(f.series))}
		for i, s := range f.series {
			of.options[i] = metric.WithAttributes(s.attrs...)
		}
		e.flows = append(e.flows, of)
		observables = append(observables, ins)
	}

	var err error
	e.notifications, err = meter.Int64ObservableCounter("govauth.notifications",
		metric.WithDescription("Outbound notifications by delivery state."))
	if err != nil {
		return nil, fmt.Errorf("create notifications counter: %w", err)
	}
	e.latency, err = meter.Int64ObservableGauge("govauth.confirm.latency.bucket",
		metric.WithDescription("Cumulative count of challenge confirmations at or under le seconds."))
	if err != nil {
		return nil, fmt.Errorf("create latency gauge: %w", err)
	}
	e.latencyCount, err = meter.Int64ObservableGauge("govauth.confirm.latency.count",
		metric.WithDescription("Challenge confirmations timed."))
	if err != nil {
		return nil, fmt.Errorf("create latency count: %w", err)
	}
	observables = append(observables, e.notifications, e.latency, e.latencyCount)

	for _, bound := range internaldefs.HistogramBounds {
		e.bucketOptions = append(e.bucketOptions,
			metric.WithAttributes(le.String(strconv.FormatFloat(bound, 'g', -1, 64))))
	}
	e.bucketOptions = append(e.bucketOptions, metric.WithAttributes(le.String("+Inf")))

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for _, f := range e.flows {
		for i, s := range f.series {
			o.ObserveInt64(f.instrument, int64(snapshot.Counters[s.id]), f.options[i])
		}
	}

	o.ObserveInt64(e.notifications, int64(snapshot.Counters[govauth.MetricNotificationEmitted]),
		metric.WithAttributes(outcome.String("emitted")))
	o.ObserveInt64(e.notifications, int64(e.source.NotificationsDropped()),
		metric.WithAttributes(outcome.String("dropped")))

	raw, ok := snapshot.Histograms[govauth.MetricConfirmLatency]
	if !ok {
		return nil
	}
	cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
	for i, opt := range e.bucketOptions {
		o.ObserveInt64(e.latency, int64(cumulative[i]), opt)
	}
	o.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]))
	return nil
}

func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
