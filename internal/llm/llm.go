// Package llm is the language-model collaborator. Completions fail closed:
// any error surfaces to callers as an empty string.
package llm

import (
	"context"
	"strings"
)

// Completer turns a prompt into raw model text, or "" on failure.
type Completer interface {
	Complete(ctx context.Context, prompt string) string
}

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) string

func (f CompleterFunc) Complete(ctx context.Context, prompt string) string { return f(ctx, prompt) }

// CleanJSON strips Markdown code fences and surrounding chatter from model
// output so it can be handed to encoding/json. It keeps the outermost object
// or array, whichever opens first.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return strings.Trim(s, "`")
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return s
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	if end := strings.LastIndexByte(s, closer); end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
