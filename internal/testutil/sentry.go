package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
)

// SentryRecorder collects the events a hub would have sent to Sentry.
type SentryRecorder struct {
	mu           sync.Mutex
	errors       []*sentry.Event
	transactions []*sentry.Event
}

// NewSentryContext returns a context carrying a tracing hub whose events are
// recorded and dropped instead of being sent.
func NewSentryContext(t *testing.T) (context.Context, *SentryRecorder) {
	t.Helper()

	rec := &SentryRecorder{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              "https://public@sentry.example.com/1",
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			rec.mu.Lock()
			rec.errors = append(rec.errors, event)
			rec.mu.Unlock()
			return nil
		},
		BeforeSendTransaction: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			rec.mu.Lock()
			rec.transactions = append(rec.transactions, event)
			rec.mu.Unlock()
			return nil
		},
	})
	if err != nil {
		t.Fatalf("failed to create sentry client: %v", err)
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	return sentry.SetHubOnContext(context.Background(), hub), rec
}

// ErrorMessages returns the exception values of every captured error event.
func (r *SentryRecorder) ErrorMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, event := range r.errors {
		for _, exc := range event.Exception {
			out = append(out, exc.Value)
		}
	}
	return out
}

// ErrorCount returns the number of captured error events.
func (r *SentryRecorder) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

// Spans returns the child spans of every finished transaction.
func (r *SentryRecorder) Spans() []*sentry.Span {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*sentry.Span
	for _, event := range r.transactions {
		out = append(out, event.Spans...)
	}
	return out
}

// SpanWithTag returns the first recorded child span whose tag key equals
// value, or nil.
func (r *SentryRecorder) SpanWithTag(key, value string) *sentry.Span {
	for _, span := range r.Spans() {
		if span.Tags[key] == value {
			return span
		}
	}
	return nil
}
