package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const transcribePrompt = "Transcribe el siguiente audio en español tal como fue dicho. " +
	"Devuelve solo el texto transcrito, sin comentarios ni formato."

// ErrRateLimited is returned once every retry of a rate-limited call failed.
var ErrRateLimited = errors.New("model rate limit exceeded")

// Config configures the Gemini collaborator.
type Config struct {
	APIKey            string
	Model             string
	MaxRetries        int
	RetryStep         time.Duration
	RequestsPerMinute int
}

type generateFunc func(ctx context.Context, contents []*genai.Content) (string, error)

// Gemini implements Completer and Transcriber over the Gemini API.
type Gemini struct {
	generate   generateFunc
	maxRetries int
	retryStep  time.Duration
	limiter    *rate.Limiter
	sleep      func(ctx context.Context, d time.Duration) error
}

var (
	_ Completer   = (*Gemini)(nil)
	_ Transcriber = (*Gemini)(nil)
)

// NewGemini creates a genai client bound to cfg.Model.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.Model
	generate := func(ctx context.Context, contents []*genai.Content) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, contents, nil)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return newGemini(generate, cfg), nil
}

func newGemini(generate generateFunc, cfg Config) *Gemini {
	g := &Gemini{
		generate:   generate,
		maxRetries: cfg.MaxRetries,
		retryStep:  cfg.RetryStep,
		sleep:      sleepContext,
	}
	if g.maxRetries < 1 {
		g.maxRetries = 1
	}
	if cfg.RequestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return g
}

// Complete sends prompt as a single user turn. Rate-limited calls are retried
// with a linearly growing wait; any other failure returns "" immediately.
func (g *Gemini) Complete(ctx context.Context, prompt string) string {
	text, err := g.call(ctx, genai.Text(prompt))
	if err != nil {
		slog.WarnContext(ctx, "Model call failed", "error", err)
		return ""
	}
	return text
}

// Transcribe sends the audio inline together with a transcription prompt.
func (g *Gemini) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("transcribe: empty audio")
	}
	if mimeType == "" {
		mimeType = "audio/ogg"
	}
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: transcribePrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     audio,
					},
				},
			},
		},
	}
	text, err := g.call(ctx, contents)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return text, nil
}

func (g *Gemini) call(ctx context.Context, contents []*genai.Content) (string, error) {
	for attempt := 1; ; attempt++ {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("wait for rate limiter: %w", err)
			}
		}

		text, err := g.generate(ctx, contents)
		if err == nil {
			return strings.TrimSpace(text), nil
		}
		if !isRateLimited(err) {
			return "", fmt.Errorf("generate content: %w", err)
		}
		if attempt >= g.maxRetries {
			return "", fmt.Errorf("%w after %d attempts: %v", ErrRateLimited, attempt, err)
		}

		wait := g.retryStep * time.Duration(attempt)
		slog.InfoContext(ctx, "Model rate limited, retrying",
			"attempt", attempt,
			"max_retries", g.maxRetries,
			"wait", wait)
		if err := g.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
}

// isRateLimited matches the 429 / RESOURCE_EXHAUSTED status reported by the API.
func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
