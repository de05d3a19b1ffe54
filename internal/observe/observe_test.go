package observe

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)
	return m, reader
}

func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumByAttr(t *testing.T, met *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	require.NotNil(t, met)
	sum, ok := met.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", met.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestRecordHelpers(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordInterviewRun(ctx, "done")
	m.RecordInterviewRun(ctx, "done")
	m.RecordInterviewRun(ctx, "cancelled")
	m.RecordTurn(ctx, "ctc")
	m.RecordSpeechError(ctx, "recognition", "network")
	m.RecordPersistenceFailure(ctx, "appointment")
	m.RecordJobImport(ctx, "ok")

	assert.Equal(t, int64(2), sumByAttr(t, findMetric(t, reader, "voice_agent.interview.runs"), "outcome", "done"))
	assert.Equal(t, int64(1), sumByAttr(t, findMetric(t, reader, "voice_agent.interview.runs"), "outcome", "cancelled"))
	assert.Equal(t, int64(1), sumByAttr(t, findMetric(t, reader, "voice_agent.interview.turns"), "field", "ctc"))
	assert.Equal(t, int64(1), sumByAttr(t, findMetric(t, reader, "voice_agent.speech.errors"), "reason", "network"))
	assert.Equal(t, int64(1), sumByAttr(t, findMetric(t, reader, "voice_agent.interview.persistence_failures"), "step", "appointment"))
	assert.Equal(t, int64(1), sumByAttr(t, findMetric(t, reader, "voice_agent.job_imports"), "status", "ok"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordInterviewRun(ctx, "done")
		m.RecordTurn(ctx, "interest")
		m.AddActiveInterviews(ctx, 1)
		m.RecordSpeechError(ctx, "synthesis", "interrupted")
		m.RecordPersistenceFailure(ctx, "candidate")
		m.RecordJobImport(ctx, "failed")
	})
}

func TestMiddleware(t *testing.T) {
	m, reader := newTestMetrics(t)

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(orig) })

	var cid string
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid = CorrelationID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.Len(t, cid, 32)
	assert.Equal(t, cid, rec.Header().Get("X-Correlation-ID"))

	spans := exp.GetSpans()
	require.NotEmpty(t, spans)
	assert.Equal(t, "HTTP GET /api/jobs", spans[0].Name)

	met := findMetric(t, reader, "voice_agent.http.request.duration")
	require.NotNil(t, met)
	hist, ok := met.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(slog.LevelWarn, "json", &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "component", "test")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"component":"test"`)

	_, err = NewLogger(slog.LevelInfo, "xml", &buf)
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
