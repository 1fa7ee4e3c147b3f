package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// geminiSDK completes requests with the Gemini generateContent API.
type geminiSDK struct {
	client *genai.Client
}

// NewGeminiProvider returns a Provider backed by the Gemini API.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &backendProvider{
		name:  "gemini",
		model: resolveModel("gemini", cfg.Model),
		sdk:   &geminiSDK{client: client},
	}, nil
}

func (g *geminiSDK) complete(ctx context.Context, model string, req Request) (completion, error) {
	conf := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.Temperature > 0 {
		conf.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.System != "" {
		conf.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		conf.ResponseMIMEType = "application/json"
		conf.ResponseJsonSchema = geminiJSONSchema(req.Schema.Definition)
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	result, err := g.client.Models.GenerateContent(ctx, model, contents, conf)
	if err != nil {
		// The SDK returns APIError by value.
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return completion{}, statusFailure("gemini", apiErr.Code, nil, err)
		}
		return completion{}, &Failure{Kind: FailUnavailable, Backend: "gemini", Err: err}
	}
	if len(result.Candidates) == 0 {
		return completion{}, &Failure{Kind: FailMalformed, Backend: "gemini", Err: errEmptyReply}
	}

	out := completion{Text: result.Text(), Stop: StopEnd, Model: result.ModelVersion}
	if result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		out.Stop = StopMaxTokens
	}
	if u := result.UsageMetadata; u != nil {
		out.Usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// geminiKeywords are the JSON Schema keywords responseJsonSchema accepts.
var geminiKeywords = map[string]bool{
	"$id": true, "$defs": true, "$ref": true, "$anchor": true,
	"type": true, "format": true, "title": true, "description": true,
	"enum": true, "items": true, "prefixItems": true, "minItems": true,
	"maxItems": true, "minimum": true, "maximum": true, "anyOf": true,
	"oneOf": true, "properties": true, "additionalProperties": true,
	"required": true, "propertyOrdering": true,
}

// geminiJSONSchema copies def without the keywords Gemini rejects, such as
// minLength. Replies are still validated against the full schema.
func geminiJSONSchema(def map[string]any) map[string]any {
	out := make(map[string]any, len(def))
	for k, v := range def {
		if !geminiKeywords[k] {
			continue
		}
		switch k {
		case "properties", "$defs":
			if props, ok := v.(map[string]any); ok {
				sub := make(map[string]any, len(props))
				for name, p := range props {
					if pm, ok := p.(map[string]any); ok {
						sub[name] = geminiJSONSchema(pm)
					}
				}
				v = sub
			}
		case "items", "additionalProperties":
			if m, ok := v.(map[string]any); ok {
				v = geminiJSONSchema(m)
			}
		case "anyOf", "oneOf", "prefixItems":
			if list, ok := v.([]any); ok {
				sub := make([]any, 0, len(list))
				for _, item := range list {
					if m, ok := item.(map[string]any); ok {
						sub = append(sub, geminiJSONSchema(m))
					}
				}
				v = sub
			}
		}
		out[k] = v
	}
	return out
}
