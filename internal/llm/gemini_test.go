package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// geminiStub serves one canned generateContent reply per call.
func geminiStub(t *testing.T, status int, reply any) Provider {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != 0 {
			w.WriteHeader(status)
		}
		json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(server.Close)

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{APIKey: "test-key", Model: "gemini-flash", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}
	return p
}

func geminiReply(text, finish string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
			"finishReason": finish,
		}},
		"usageMetadata": map[string]any{"promptTokenCount": 30, "candidatesTokenCount": 12, "totalTokenCount": 42},
		"modelVersion":  "gemini-2.0-flash",
	}
}

func TestGeminiProvider_Explanation(t *testing.T) {
	p := geminiStub(t, 0, geminiReply("الكسر جزء من الكل.", "STOP"))
	if p.ModelID() != "gemini-2.0-flash" {
		t.Errorf("ModelID() = %q, alias not resolved", p.ModelID())
	}

	resp, err := p.Generate(context.Background(), SingleTurn("اشرح الكسور", 0, 0.7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "الكسر جزء من الكل." {
		t.Errorf("Text() = %q", resp.Text())
	}
	if resp.Usage.TotalTokens != 42 || resp.Model != "gemini-2.0-flash" {
		t.Errorf("usage = %+v model = %q", resp.Usage, resp.Model)
	}
}

func TestGeminiProvider_StructuredItem(t *testing.T) {
	req := SingleTurn("Write one question on fractions.", 256, 0)
	req.Schema = mcqItemSchema

	resp, err := geminiStub(t, 0, geminiReply(fractionItem, "STOP")).Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != fractionItem {
		t.Errorf("content = %s", resp.Content)
	}

	_, err = geminiStub(t, 0, geminiReply(`{"question":"1/2 + 1/4`, "MAX_TOKENS")).Generate(context.Background(), req)
	if !IsFailure(err, FailTruncated) {
		t.Errorf("cut item: error = %v, want truncated", err)
	}
}

func TestGeminiProvider_RateLimited(t *testing.T) {
	p := geminiStub(t, http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{"code": 429, "message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED"},
	})
	_, err := p.Generate(context.Background(), SingleTurn("Explain roots.", 100, 0))
	f, ok := FailureOf(err)
	if !ok || f.Kind != FailRateLimited || f.Backend != "gemini" {
		t.Fatalf("error = %v, want gemini rate-limited failure", err)
	}
}

func TestGeminiProvider_NoCandidates(t *testing.T) {
	p := geminiStub(t, 0, map[string]any{"candidates": []any{}})
	if _, err := p.Generate(context.Background(), SingleTurn("Explain roots.", 100, 0)); !IsFailure(err, FailMalformed) {
		t.Fatalf("error = %v, want malformed", err)
	}
}

func TestGeminiJSONSchema_DropsUnsupportedKeywords(t *testing.T) {
	def := map[string]any{
		"type":     "array",
		"minItems": 1,
		"items":    mcqItemSchema.Definition,
		"$comment": "not sent",
	}

	got := geminiJSONSchema(def)
	if _, ok := got["$comment"]; ok {
		t.Error("$comment should be dropped")
	}
	if got["minItems"] != 1 {
		t.Errorf("minItems = %v, want kept", got["minItems"])
	}
	item := got["items"].(map[string]any)
	props := item["properties"].(map[string]any)
	question := props["question"].(map[string]any)
	if _, ok := question["minLength"]; ok {
		t.Error("minLength should be dropped from nested properties")
	}
	if question["type"] != "string" {
		t.Errorf("question type = %v", question["type"])
	}
	if len(item["required"].([]any)) != 6 {
		t.Errorf("required = %v", item["required"])
	}

	// The shared definition must not be modified.
	orig := mcqItemSchema.Definition["properties"].(map[string]any)["question"].(map[string]any)
	if _, ok := orig["minLength"]; !ok {
		t.Error("source schema lost minLength")
	}
}
