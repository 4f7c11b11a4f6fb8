package tracing_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/gxo-labs/scopelog/internal/logger"
	"github.com/gxo-labs/scopelog/internal/tracing"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/level"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func attrMap(kvs []attribute.KeyValue) map[string]string {
	m := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value.Emit()
	}
	return m
}

func TestRecordStatement_AddsSpanEvent(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := tracing.NewSDKProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	ctx, span := provider.GetTracer("test").Start(context.Background(), "request")

	stmt := tracing.Statement{
		Logger:  "app.db",
		Level:   level.Warning,
		Message: "slow query",
		Tags:    tags.NewBuilder().AddString("user", "alice").AddString("token", "s3cr3t").Build(),
		Skipped: 4,
		Cause:   errors.New("password=hunter2"),
	}
	tracing.RecordStatement(ctx, stmt, map[string]struct{}{"token": {}, "password": {}})
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	evts := spans[0].Events()
	require.Len(t, evts, 2)

	logged := attrMap(evts[0].Attributes)
	assert.Equal(t, tracing.EventName, evts[0].Name)
	assert.Equal(t, "WARNING", logged["log.severity"])
	assert.Equal(t, "slow query", logged["log.message"])
	assert.Equal(t, "app.db", logged["log.logger"])
	assert.Equal(t, "4", logged["log.skipped"])
	assert.Equal(t, "alice", logged["user"])
	assert.Equal(t, "[REDACTED]", logged["token"])

	assert.Equal(t, "exception", evts[1].Name)
	assert.Equal(t, "password=[REDACTED]", attrMap(evts[1].Attributes)["exception.message"])
	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestRecordStatement_NoRecordingSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		tracing.RecordStatement(context.Background(), tracing.Statement{Message: "x", Tags: tags.Empty()}, nil)
	})
}

func TestRedactSecretsInString(t *testing.T) {
	keywords := map[string]struct{}{"apikey": {}}

	assert.Equal(t, "ApiKey: [REDACTED]\nplain", tracing.RedactSecretsInString("ApiKey: abc\nplain", keywords))
	assert.Equal(t, "nothing here", tracing.RedactSecretsInString("nothing here", keywords))
	assert.Equal(t, "apikey=x", tracing.RedactSecretsInString("apikey=x", nil))
}

func TestNoOpProvider(t *testing.T) {
	p := tracing.NewNoOpProvider()

	assert.True(t, p.IsEffectivelyNoOp())
	_, span := p.GetTracer("x").Start(context.Background(), "op")
	assert.False(t, span.IsRecording())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderFromEnv_Disabled(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")

	p := tracing.NewProviderFromEnv(context.Background(), logger.NewLogger("info", "text", &bytes.Buffer{}))
	assert.True(t, p.IsEffectivelyNoOp())
}

func TestNewProviderFromEnv_UnsupportedProtocolFallsBack(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "carrier-pigeon")

	p := tracing.NewProviderFromEnv(context.Background(), logger.NewLogger("info", "text", &bytes.Buffer{}))
	assert.True(t, p.IsEffectivelyNoOp())
}
