package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[string(a.Key)] = a.Value.Emit()
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	recorder := installSpanRecorder(t)
	id := uuid.New()

	ctx, span := StartServiceSpan(context.Background(), "requisition", "convert",
		SpanAttrRequisitionID, id,
		SpanAttrQuantity, 4,
		42, "ignored",
	)
	assert.NotEmpty(t, GetTraceID(ctx))
	SetAttributes(span, SpanAttrStatus, "Converted")
	AddEvent(span, "order_created", SpanAttrOrderNumber, "PO-2025-00001")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "requisition.convert", s.Name())
	assert.Equal(t, TracerName, s.InstrumentationScope().Name)

	attrs := attrMap(s.Attributes())
	assert.Equal(t, id.String(), attrs[SpanAttrRequisitionID])
	assert.Equal(t, "4", attrs[SpanAttrQuantity])
	assert.Equal(t, "Converted", attrs[SpanAttrStatus])
	assert.Len(t, attrs, 3)

	require.Len(t, s.Events(), 1)
	assert.Equal(t, "order_created", s.Events()[0].Name)
}

func TestRecordError(t *testing.T) {
	recorder := installSpanRecorder(t)

	_, span := StartServiceSpan(context.Background(), "purchase_order", "receive")
	RecordError(span, nil)
	RecordError(span, errors.New("quantity exceeded"))
	span.End()

	s := recorder.Ended()[0]
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "quantity exceeded", s.Status().Description)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}
