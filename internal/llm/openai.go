package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// openaiSDK completes requests with the chat completions API. It also
// serves OpenRouter and any other OpenAI-compatible endpoint.
type openaiSDK struct {
	backend string
	client  *openai.Client
}

// NewOpenAIProvider returns a Provider backed by OpenAI, or by the
// OpenAI-compatible endpoint at cfg.BaseURL.
func NewOpenAIProvider(cfg OpenAIConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}
	return newChatProvider("openai", cfg.APIKey, cfg.BaseURL, resolveModel("openai", cfg.Model)), nil
}

func newChatProvider(backend, apiKey, baseURL, model string) *backendProvider {
	conf := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		conf.BaseURL = baseURL
	}
	return &backendProvider{
		name:  backend,
		model: model,
		sdk:   &openaiSDK{backend: backend, client: openai.NewClientWithConfig(conf)},
	}
}

func (o *openaiSDK) complete(ctx context.Context, model string, req Request) (completion, error) {
	chat := openai.ChatCompletionRequest{
		Model:               model,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	}
	if req.System != "" {
		chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	if req.Schema != nil {
		def, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return completion{}, &Failure{Kind: FailMalformed, Backend: o.backend, Err: fmt.Errorf("marshal schema %s: %w", req.Schema.Name, err)}
		}
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: json.RawMessage(def),
				Strict: true,
			},
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		return completion{}, o.failure(err)
	}
	if len(resp.Choices) == 0 {
		return completion{}, &Failure{Kind: FailMalformed, Backend: o.backend, Err: errEmptyReply}
	}

	choice := resp.Choices[0]
	out := completion{
		Text:  choice.Message.Content,
		Stop:  StopEnd,
		Model: resp.Model,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}
	if choice.FinishReason == openai.FinishReasonLength {
		out.Stop = StopMaxTokens
	}
	return out, nil
}

// failure classifies both error shapes the SDK returns: APIError for JSON
// error bodies and RequestError for anything else.
func (o *openaiSDK) failure(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusFailure(o.backend, apiErr.HTTPStatusCode, nil, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusFailure(o.backend, reqErr.HTTPStatusCode, nil, err)
	}
	return &Failure{Kind: FailUnavailable, Backend: o.backend, Err: err}
}
