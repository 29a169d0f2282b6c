package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext_DefaultsToNop(t *testing.T) {
	log := FromContext(context.Background())
	require.NotNil(t, log)
	assert.False(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestWithRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	ctx, log := WithRequest(context.Background(), zap.New(core), "req-42")
	log.Info("direct")
	FromContext(ctx).Info("from context")

	assert.Equal(t, "req-42", RequestID(ctx))
	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "req-42", entry.ContextMap()["request_id"])
		assert.NotContains(t, entry.ContextMap(), "trace_id")
	}
}

func TestWithRequest_EmptyIDIsNotStored(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	ctx, log := WithRequest(context.Background(), zap.New(core), "")
	log.Info("x")

	assert.Empty(t, RequestID(ctx))
	assert.NotContains(t, logs.All()[0].ContextMap(), "request_id")
}

func TestWithRequest_TraceCorrelation(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	core, logs := observer.New(zapcore.InfoLevel)

	_, log := WithRequest(ctx, zap.New(core), "req-1")
	log.Info("traced")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
}

func TestWithIdentity(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, _ := WithRequest(context.Background(), zap.New(core), "req-7")

	ctx = WithIdentity(ctx, "tenant-a", "user-b")
	FromContext(ctx).Info("approved")

	assert.Equal(t, "tenant-a", TenantID(ctx))
	assert.Equal(t, "user-b", UserID(ctx))
	assert.Equal(t, "req-7", RequestID(ctx))
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "tenant-a", fields["tenant_id"])
	assert.Equal(t, "user-b", fields["user_id"])
	assert.Equal(t, "req-7", fields["request_id"])
}

func TestIdentityAccessors_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, TenantID(ctx))
	assert.Empty(t, UserID(ctx))
}
