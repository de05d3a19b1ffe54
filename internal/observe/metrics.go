// Package observe holds the service's observability plumbing: slog setup,
// OpenTelemetry metrics exported to Prometheus, tracing helpers and the HTTP
// middleware that ties them together.
//
// Tests should build their own Metrics with NewMetrics and a ManualReader
// rather than use the global provider.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "voice-agent"

// Metrics holds the instruments recorded by the API and the interview engine.
// Every Record method is a no-op on a nil *Metrics.
type Metrics struct {
	// HTTPRequestDuration is recorded by Middleware with method and path.
	HTTPRequestDuration metric.Float64Histogram

	// InterviewRuns counts finished runs by outcome: done, save_failed, cancelled, error.
	InterviewRuns metric.Int64Counter

	// InterviewTurns counts answers processed by question field.
	InterviewTurns metric.Int64Counter

	// ActiveInterviews is the number of runs in flight.
	ActiveInterviews metric.Int64UpDownCounter

	// SpeechErrors counts recognition and synthesis failures by kind and reason.
	SpeechErrors metric.Int64Counter

	// PersistenceFailures counts failed writes of the save step by step.
	PersistenceFailures metric.Int64Counter

	// JobImports counts background document extractions by status.
	JobImports metric.Int64Counter
}

// NewMetrics creates every instrument from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.HTTPRequestDuration, err = m.Float64Histogram("voice_agent.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if met.InterviewRuns, err = m.Int64Counter("voice_agent.interview.runs",
		metric.WithDescription("Finished interview runs by outcome."),
	); err != nil {
		return nil, err
	}
	if met.InterviewTurns, err = m.Int64Counter("voice_agent.interview.turns",
		metric.WithDescription("Processed interview answers by question field."),
	); err != nil {
		return nil, err
	}
	if met.ActiveInterviews, err = m.Int64UpDownCounter("voice_agent.interview.active",
		metric.WithDescription("Interview runs in flight."),
	); err != nil {
		return nil, err
	}
	if met.SpeechErrors, err = m.Int64Counter("voice_agent.speech.errors",
		metric.WithDescription("Speech platform failures by kind and reason."),
	); err != nil {
		return nil, err
	}
	if met.PersistenceFailures, err = m.Int64Counter("voice_agent.interview.persistence_failures",
		metric.WithDescription("Failed interview result writes by step."),
	); err != nil {
		return nil, err
	}
	if met.JobImports, err = m.Int64Counter("voice_agent.job_imports",
		metric.WithDescription("Job document extractions by status."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a process-wide Metrics built on the global MeterProvider.
// Call it after InitProvider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordInterviewRun counts one finished run.
func (m *Metrics) RecordInterviewRun(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.InterviewRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordTurn counts one processed answer.
func (m *Metrics) RecordTurn(ctx context.Context, field string) {
	if m == nil {
		return
	}
	m.InterviewTurns.Add(ctx, 1, metric.WithAttributes(attribute.String("field", field)))
}

// AddActiveInterviews moves the in-flight gauge by delta.
func (m *Metrics) AddActiveInterviews(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.ActiveInterviews.Add(ctx, delta)
}

// RecordSpeechError counts one speech failure. kind is "recognition" or "synthesis".
func (m *Metrics) RecordSpeechError(ctx context.Context, kind, reason string) {
	if m == nil {
		return
	}
	m.SpeechErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("reason", reason),
	))
}

// RecordPersistenceFailure counts one failed save step.
func (m *Metrics) RecordPersistenceFailure(ctx context.Context, step string) {
	if m == nil {
		return
	}
	m.PersistenceFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
}

// RecordJobImport counts one document extraction.
func (m *Metrics) RecordJobImport(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.JobImports.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
