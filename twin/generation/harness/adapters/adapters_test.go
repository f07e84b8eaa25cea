package adapters

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestZerologTracer_NestedSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewZerologTracer(zerolog.New(&buf).Level(zerolog.InfoLevel))

	ctx, finishOuter := tracer.StartSpan(context.Background(), "outer", map[string]any{"conversation_id": "c1"})
	innerCtx, finishInner := tracer.StartSpan(ctx, "inner", nil)
	tracer.Event(innerCtx, "tool_called", map[string]any{"tool": "record_user_details"})
	finishInner(errors.New("boom"))
	finishOuter(nil)

	out := buf.String()
	assert.Contains(t, out, `"event":"tool_called"`)
	assert.Contains(t, out, `"tool":"record_user_details"`)
	assert.Contains(t, out, `"error":"boom"`)
	// Inner span inherits the outer span's fields
	assert.Contains(t, out, `"conversation_id":"c1","span":"inner"`)
	// Span start is debug level
	assert.NotContains(t, out, "span_start")
}

func TestZerologTracer_EventWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewZerologTracer(zerolog.New(&buf).With().Str("component", "harness").Logger())

	tracer.Event(context.Background(), "tool_called", map[string]any{"tool": "record_unknown_question"})

	out := buf.String()
	assert.Contains(t, out, `"component":"harness"`)
	assert.Contains(t, out, `"event":"tool_called"`)
	assert.Contains(t, out, `"tool":"record_unknown_question"`)
	assert.NotContains(t, out, `"span"`)
}

func TestOTelTracer_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	var buf bytes.Buffer
	tp := NewLoggingTracerProvider(zerolog.New(&buf), recorder)
	defer tp.Shutdown(context.Background())

	tracer := NewOTelTracer(tp)

	ctx, finishTrace := tracer.StartSpan(context.Background(), "Telling a joke", map[string]any{"iteration": 1, "ok": true})
	childCtx, finishChild := tracer.StartSpan(ctx, "provider_call", nil)
	tracer.Event(childCtx, "tool_called", map[string]any{"tool": "x"})
	finishChild(errors.New("rate limited"))
	finishTrace(nil)

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	child, root := ended[0], ended[1]
	assert.Equal(t, "provider_call", child.Name())
	assert.Equal(t, codes.Error, child.Status().Code)
	assert.Equal(t, root.SpanContext().SpanID(), child.Parent().SpanID())
	require.Len(t, child.Events(), 2) // tool_called + recorded error
	assert.Equal(t, "tool_called", child.Events()[0].Name)

	assert.Equal(t, "Telling a joke", root.Name())
	assert.Equal(t, codes.Unset, root.Status().Code)

	out := buf.String()
	assert.Contains(t, out, `"span":"provider_call"`)
	assert.Contains(t, out, `"span":"Telling a joke"`)
	assert.Contains(t, out, `"iteration":"1"`)
	assert.Contains(t, out, `"status":"rate limited"`)
}

func TestLogSpanProcessor_Interface(t *testing.T) {
	var _ sdktrace.SpanProcessor = NewLogSpanProcessor(zerolog.Nop())
	p := NewLogSpanProcessor(zerolog.Nop())
	assert.NoError(t, p.ForceFlush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestPushoverNotifier_Notify(t *testing.T) {
	var (
		gotMethod  string
		gotType    string
		gotToken   string
		gotUser    string
		gotMessage string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotToken = r.PostForm.Get("token")
		gotUser = r.PostForm.Get("user")
		gotMessage = r.PostForm.Get("message")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":1}`))
	}))
	defer server.Close()

	notifier := NewPushoverNotifier(server.URL, "app-token", "user-key", server.Client())
	err := notifier.Notify(context.Background(), "Recording Ada with email ada@example.com and notes not provided")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/x-www-form-urlencoded", gotType)
	assert.Equal(t, "app-token", gotToken)
	assert.Equal(t, "user-key", gotUser)
	assert.Equal(t, "Recording Ada with email ada@example.com and notes not provided", gotMessage)
}

func TestPushoverNotifier_Failures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewPushoverNotifier(server.URL, "t", "u", nil).Notify(context.Background(), "hi")
	assert.Error(t, err)

	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closed.Close()
	err = NewPushoverNotifier(closed.URL, "t", "u", nil).Notify(context.Background(), "hi")
	assert.Error(t, err)
}
