package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMockProvider_ScriptedExplanations(t *testing.T) {
	mock := NewMockProvider(MockText("Fractions are parts of a whole."), MockText("A root undoes a power."))
	mock.Queue(MockResponse{Err: &Failure{Kind: FailRateLimited, Backend: "mock"}})

	ctx := context.Background()
	first, err := mock.Generate(ctx, SingleTurn("explain fractions", 0, 0.7))
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first.Text() != "Fractions are parts of a whole." || first.StopReason != StopEnd || first.Model != "mock" {
		t.Errorf("first = %+v", first)
	}
	second, err := mock.Generate(ctx, SingleTurn("explain roots", 0, 0.7))
	if err != nil || second.Text() != "A root undoes a power." {
		t.Fatalf("second = %v, %v", second, err)
	}
	if _, err := mock.Generate(ctx, SingleTurn("explain decimals", 0, 0.7)); !IsFailure(err, FailRateLimited) {
		t.Errorf("third: error = %v, want the scripted rate limit", err)
	}
	if _, err := mock.Generate(ctx, Request{}); !IsFailure(err, FailUnavailable) {
		t.Errorf("exhausted: error = %v, want unavailable", err)
	}

	if got := len(mock.Requests()); got != 4 {
		t.Fatalf("requests = %d, want 4", got)
	}
	if mock.Prompt(1) != "explain roots" {
		t.Errorf("Prompt(1) = %q", mock.Prompt(1))
	}
	if mock.Prompt(3) != "" || mock.Prompt(9) != "" {
		t.Error("Prompt should be empty for a request without messages or out of range")
	}
}

func TestMockProvider_ValidatesStructuredReplies(t *testing.T) {
	req := SingleTurn("Write one question on fractions.", 256, 0)
	req.Schema = mcqItemSchema

	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(fractionItem), Usage: Usage{InputTokens: 10, OutputTokens: 5}},
		MockResponse{Content: json.RawMessage(`{"question":"no options"}`)},
	)
	resp, err := mock.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("valid item: %v", err)
	}
	if string(resp.Content) != fractionItem || resp.Usage.InputTokens != 10 {
		t.Errorf("resp = %+v", resp)
	}
	if _, err := mock.Generate(context.Background(), req); !IsFailure(err, FailMalformed) {
		t.Errorf("off-schema item: error = %v, want malformed", err)
	}
}

func TestFailure(t *testing.T) {
	cause := errors.New("429 Too Many Requests")
	var err error = &Failure{Kind: FailRateLimited, Backend: "openai", Err: cause}
	wrapped := errors.Join(errors.New("explain fractions"), err)

	if got := err.Error(); got != "openai: rate-limited: 429 Too Many Requests" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("Failure should unwrap to its cause")
	}
	if !IsFailure(wrapped, FailRateLimited) || IsFailure(wrapped, FailMalformed) {
		t.Error("IsFailure should match the kind through wrapping")
	}
	if _, ok := FailureOf(cause); ok {
		t.Error("a plain error is not a Failure")
	}
	if got := (&Failure{Kind: FailTruncated}).Error(); got != "truncated" {
		t.Errorf("bare Error() = %q", got)
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	for _, purpose := range []string{PurposeExplanation, PurposeAdaptiveQuiz, PurposeMixedQuiz, PurposeBankGen, PurposeClassAdvice} {
		if got := PurposeFrom(WithPurpose(ctx, purpose)); got != purpose {
			t.Errorf("PurposeFrom = %q, want %q", got, purpose)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"gemini with key", Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "g-test"}}, false},
		{"openrouter without key", Config{Provider: "openrouter"}, true},
		{"mock needs no key", Config{Provider: "mock"}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResponse_Text(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"raw text", "Fractions are parts of a whole.", "Fractions are parts of a whole."},
		{"json string", `"line one\nline two"`, "line one\nline two"},
		{"json object", `{"a":1}`, `{"a":1}`},
		{"broken quote", `"unterminated`, `"unterminated`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Response{Content: json.RawMessage(tt.content)}
			if got := r.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}

	var nilResp *Response
	if got := nilResp.Text(); got != "" {
		t.Errorf("nil Text() = %q, want empty", got)
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}

	if _, ok := DiscoverConfig(DefaultConfig()); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "sk-oai")
	cfg, ok := DiscoverConfig(DefaultConfig())
	if !ok {
		t.Fatal("expected a provider")
	}
	if cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-oai" {
		t.Errorf("provider = %q key = %q, want openai sk-oai", cfg.Provider, cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want defaults kept", cfg.OpenAI.Model)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Enabled() {
		t.Error("generation should be off until a provider is chosen")
	}
	if cfg.Timeout != 0 {
		t.Errorf("timeout = %s, want none by default", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts != 1 {
		t.Errorf("max attempts = %d, want single-shot", cfg.Retry.MaxAttempts)
	}
}
