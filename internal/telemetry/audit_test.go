package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"teamchat-service/internal/mocks"
)

func TestEmitStampsTraceID(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.chat", "teamchat-service", "test")

	traceID := trace.TraceID{0x01, 0x02, 0x03, 0x04}
	spanID := trace.SpanID{0x0a, 0x0b}
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	publisher.On("Publish", mock.Anything, "audit.chat", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(AuditEnvelope)
		return ok && envelope.TraceID == traceID.String() && envelope.Payload.Text == "hello"
	})).Return(nil).Once()

	emitter.Emit(ctx, "INFO", "hello", "req-1", nil)

	publisher.AssertExpectations(t)
}

func TestEmitWithoutSpanLeavesTraceIDEmpty(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.chat", "teamchat-service", "test")

	publisher.On("Publish", mock.Anything, "audit.chat", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(AuditEnvelope)
		return ok && envelope.TraceID == ""
	})).Return(nil).Once()

	emitter.Emit(context.Background(), "INFO", "hello", "req-1", nil)

	publisher.AssertExpectations(t)
}

func TestEmitNilEmitterIsSafe(t *testing.T) {
	var emitter *AuditEmitter
	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "hello", "req-1", nil)
	})
	assert.Nil(t, emitter)
}
