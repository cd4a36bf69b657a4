package grpcx

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })
	return &buf
}

func traceCtx(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("0af7651916cd43dd8448eb211c80319c")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("b7ad6b7169203331")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestUnaryInterceptor_LogsTraceAttrs(t *testing.T) {
	buf := captureLogs(t)
	inter := UnaryServerInterceptor()

	resp, err := inter(traceCtx(t), "req",
		&grpc.UnaryServerInfo{FullMethod: "/demo.Svc/Do"},
		func(ctx context.Context, req any) (any, error) { return "ok", nil })

	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	out := buf.String()
	assert.Contains(t, out, "grpc unary")
	assert.Contains(t, out, "method=/demo.Svc/Do")
	assert.Contains(t, out, "trace_id=0af7651916cd43dd8448eb211c80319c")
	assert.Contains(t, out, "span_id=b7ad6b7169203331")
}

func TestUnaryInterceptor_NoSpanNoTraceAttrs(t *testing.T) {
	buf := captureLogs(t)
	inter := UnaryServerInterceptor()

	_, err := inter(context.Background(), "req",
		&grpc.UnaryServerInfo{FullMethod: "/demo.Svc/Do"},
		func(ctx context.Context, req any) (any, error) { return nil, nil })

	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestUnaryInterceptor_RecoversPanic(t *testing.T) {
	captureLogs(t)
	inter := UnaryServerInterceptor()

	_, err := inter(context.Background(), "req",
		&grpc.UnaryServerInfo{FullMethod: "/demo.Svc/Boom"},
		func(ctx context.Context, req any) (any, error) { panic("boom") })

	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
}
