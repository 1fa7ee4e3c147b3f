package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultMaxTokens is used when a request leaves MaxTokens unset.
const DefaultMaxTokens = 1024

// completion is one raw backend reply, before it is checked against the
// request.
type completion struct {
	Text  string
	Stop  StopReason
	Model string
	Usage Usage
}

// completer is the SDK-specific half of a provider. Errors it returns
// must already be Failures.
type completer interface {
	complete(ctx context.Context, model string, req Request) (completion, error)
}

// backendProvider turns a completer into a Provider. It owns the parts every
// SDK shares: token defaults, text encoding and schema validation.
type backendProvider struct {
	name  string
	model string
	sdk   completer
}

func (p *backendProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	out, err := p.sdk.complete(ctx, p.model, req)
	if err != nil {
		return nil, err
	}
	content, err := finishContent(p.name, req, out.Text, out.Stop)
	if err != nil {
		return nil, err
	}
	model := out.Model
	if model == "" {
		model = p.model
	}
	return &Response{Content: content, Usage: out.Usage, Model: model, StopReason: out.Stop}, nil
}

func (p *backendProvider) ModelID() string {
	return p.model
}

var errEmptyReply = errors.New("reply has no text")

// finishContent turns reply text into Response content. Free text is kept
// even when cut short, since explanations and advice are still usable.
// Structured replies must be complete and valid.
func finishContent(backend string, req Request, text string, stop StopReason) (json.RawMessage, error) {
	if req.Schema == nil {
		b, err := json.Marshal(text)
		if err != nil {
			return nil, &Failure{Kind: FailMalformed, Backend: backend, Err: fmt.Errorf("encode text: %w", err)}
		}
		return b, nil
	}

	raw := json.RawMessage(text)
	if stop == StopMaxTokens {
		return nil, &Failure{Kind: FailTruncated, Backend: backend, Output: raw}
	}
	if err := validateResponse(req.Schema, raw); err != nil {
		if f, ok := FailureOf(err); ok {
			f.Backend = backend
		}
		return nil, err
	}
	return raw, nil
}
