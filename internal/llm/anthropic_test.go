package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicStub serves one canned Messages API reply per call and keeps
// the decoded request bodies.
type anthropicStub struct {
	status   int
	header   http.Header
	reply    map[string]any
	requests []map[string]any
}

func (s *anthropicStub) provider(t *testing.T, model string) Provider {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.requests = append(s.requests, body)
		for k, v := range s.header {
			w.Header()[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		if s.status != 0 {
			w.WriteHeader(s.status)
		}
		json.NewEncoder(w).Encode(s.reply)
	}))
	t.Cleanup(server.Close)

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", Model: model}, option.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewAnthropicProvider: %v", err)
	}
	return p
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func anthropicError(kind, msg string) map[string]any {
	return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": msg}}
}

func TestAnthropicProvider_Explanation(t *testing.T) {
	stub := &anthropicStub{reply: anthropicMessage("A fraction names equal parts of a whole.\n\"Half\" is 1/2.", "end_turn")}
	p := stub.provider(t, "claude-haiku")

	req := SingleTurn("Explain fractions using the pages below.", 0, 0.7)
	req.System = "You are a patient maths teacher."
	resp, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resp.Text(); got != "A fraction names equal parts of a whole.\n\"Half\" is 1/2." {
		t.Fatalf("Text() = %q", got)
	}
	if resp.Content[0] != '"' {
		t.Errorf("text content should be a JSON string, got %s", resp.Content)
	}
	if resp.Usage.InputTokens != 50 || resp.Usage.TotalTokens != 80 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if resp.StopReason != StopEnd || resp.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("stop = %q model = %q", resp.StopReason, resp.Model)
	}

	sent := stub.requests[0]
	if sent["model"] != "claude-haiku-4-5-20251001" {
		t.Errorf("alias not resolved: model = %v", sent["model"])
	}
	if sent["max_tokens"] != float64(DefaultMaxTokens) {
		t.Errorf("max_tokens = %v, want default %d", sent["max_tokens"], DefaultMaxTokens)
	}
	if _, ok := sent["output_config"]; ok {
		t.Error("free-text request should not ask for structured output")
	}
}

func TestAnthropicProvider_TruncatedTextIsKept(t *testing.T) {
	stub := &anthropicStub{reply: anthropicMessage("Decimals are fractions whose denominators are powers of", "max_tokens")}
	resp, err := stub.provider(t, "claude-haiku").Generate(context.Background(), SingleTurn("Explain decimals.", 12, 0.7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StopReason != StopMaxTokens || resp.Text() == "" {
		t.Errorf("stop = %q text = %q", resp.StopReason, resp.Text())
	}
}

func TestAnthropicProvider_StructuredItem(t *testing.T) {
	stub := &anthropicStub{reply: anthropicMessage(fractionItem, "end_turn")}
	req := SingleTurn("Write one question on fractions.", 256, 0)
	req.Schema = mcqItemSchema

	resp, err := stub.provider(t, "claude-sonnet").Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != fractionItem {
		t.Errorf("content = %s", resp.Content)
	}
	if _, ok := stub.requests[0]["output_config"]; !ok {
		t.Error("schema request should ask for structured output")
	}
}

func TestAnthropicProvider_Failures(t *testing.T) {
	tests := []struct {
		name       string
		stub       *anthropicStub
		kind       FailureKind
		retryAfter time.Duration
	}{
		{
			name: "rate limited",
			stub: &anthropicStub{
				status: http.StatusTooManyRequests,
				header: http.Header{"Retry-After": {"7"}},
				reply:  anthropicError("rate_limit_error", "Rate limit exceeded"),
			},
			kind:       FailRateLimited,
			retryAfter: 7 * time.Second,
		},
		{
			name: "server error",
			stub: &anthropicStub{status: http.StatusInternalServerError, reply: anthropicError("api_error", "Internal server error")},
			kind: FailUnavailable,
		},
		{
			name: "bad key",
			stub: &anthropicStub{status: http.StatusUnauthorized, reply: anthropicError("authentication_error", "invalid x-api-key")},
			kind: FailUnavailable,
		},
		{
			name: "no text block",
			stub: &anthropicStub{reply: map[string]any{
				"id": "msg_test", "type": "message", "role": "assistant",
				"content": []map[string]any{}, "model": "claude-haiku-4-5-20251001",
				"stop_reason": "end_turn", "usage": map[string]any{"input_tokens": 5, "output_tokens": 0},
			}},
			kind: FailMalformed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.stub.provider(t, "claude-haiku").Generate(context.Background(), SingleTurn("Explain roots.", 100, 0))
			f, ok := FailureOf(err)
			if !ok {
				t.Fatalf("expected a Failure, got: %T (%v)", err, err)
			}
			if f.Kind != tt.kind || f.Backend != "anthropic" {
				t.Errorf("failure = %s/%s, want anthropic/%s", f.Backend, f.Kind, tt.kind)
			}
			if f.RetryAfter != tt.retryAfter {
				t.Errorf("retry after = %s, want %s", f.RetryAfter, tt.retryAfter)
			}
			if len(tt.stub.requests) != 1 {
				t.Errorf("requests = %d, want 1 (the SDK must not retry)", len(tt.stub.requests))
			}
		})
	}
}

func TestNewAnthropicProvider_RequiresKey(t *testing.T) {
	if _, err := NewAnthropicProvider(AnthropicConfig{Model: "claude-haiku"}); err == nil {
		t.Fatal("expected error for empty API key")
	}
}
