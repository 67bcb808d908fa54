package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/genai"
)

type scriptedModel struct {
	replies []string
	errs    []error
	calls   int
	last    []*genai.Content
}

func (m *scriptedModel) generate(_ context.Context, contents []*genai.Content) (string, error) {
	i := m.calls
	m.calls++
	m.last = contents
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(m.replies) {
		return m.replies[i], nil
	}
	return "", nil
}

func newTestGemini(m *scriptedModel, retries int) (*Gemini, *[]time.Duration) {
	g := newGemini(m.generate, Config{MaxRetries: retries, RetryStep: 5 * time.Second})
	var waits []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return g, &waits
}

func TestCompleteReturnsTrimmedText(t *testing.T) {
	m := &scriptedModel{replies: []string{"  {\"intent\":\"OTHER\"}\n"}}
	g, waits := newTestGemini(m, 3)

	if got := g.Complete(context.Background(), "hola"); got != `{"intent":"OTHER"}` {
		t.Fatalf("Complete() = %q", got)
	}
	if m.calls != 1 || len(*waits) != 0 {
		t.Fatalf("calls=%d waits=%v", m.calls, *waits)
	}
}

func TestCompleteRetriesRateLimitWithLinearBackoff(t *testing.T) {
	rateLimited := errors.New("Error 429, Message: quota, Status: RESOURCE_EXHAUSTED")
	m := &scriptedModel{
		errs:    []error{rateLimited, rateLimited, nil},
		replies: []string{"", "", "ok"},
	}
	g, waits := newTestGemini(m, 3)

	if got := g.Complete(context.Background(), "p"); got != "ok" {
		t.Fatalf("Complete() = %q, want ok", got)
	}
	want := []time.Duration{5 * time.Second, 10 * time.Second}
	if len(*waits) != len(want) || (*waits)[0] != want[0] || (*waits)[1] != want[1] {
		t.Fatalf("waits = %v, want %v", *waits, want)
	}
}

func TestCompleteFailsClosed(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
	}{
		{"rate limit exhausted", []error{
			genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"},
			genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"},
			genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"},
		}, 3},
		{"other error is not retried", []error{errors.New("permission denied")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &scriptedModel{errs: tt.errs}
			g, _ := newTestGemini(m, 3)
			if got := g.Complete(context.Background(), "p"); got != "" {
				t.Fatalf("Complete() = %q, want empty", got)
			}
			if m.calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", m.calls, tt.wantCalls)
			}
		})
	}
}

func TestCompleteStopsWhenContextCancelledDuringBackoff(t *testing.T) {
	m := &scriptedModel{errs: []error{errors.New("429 Too Many Requests"), nil}, replies: []string{"", "late"}}
	g, _ := newTestGemini(m, 3)
	g.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	if got := g.Complete(context.Background(), "p"); got != "" {
		t.Fatalf("Complete() = %q, want empty", got)
	}
	if m.calls != 1 {
		t.Fatalf("calls = %d, want 1", m.calls)
	}
}

func TestTranscribeSendsInlineAudio(t *testing.T) {
	m := &scriptedModel{replies: []string{"gasté 500 en comida"}}
	g, _ := newTestGemini(m, 1)

	text, err := g.Transcribe(context.Background(), []byte{1, 2, 3}, "")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "gasté 500 en comida" {
		t.Fatalf("Transcribe() = %q", text)
	}
	parts := m.last[0].Parts
	if len(parts) != 2 || parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "audio/ogg" {
		t.Fatalf("unexpected parts: %+v", parts)
	}

	if _, err := g.Transcribe(context.Background(), nil, "audio/ogg"); err == nil {
		t.Fatal("expected error for empty audio")
	}
}
