package adaptive

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/edurag/internal/llm"
)

const systemPrompt = "You write multiple-choice questions. Output a JSON array only, with no prose."

// DraftRequest asks for Count items described by Prompt.
type DraftRequest struct {
	Purpose     string
	Prompt      string
	Count       int
	Temperature float64
}

// Drafter produces question drafts. Implementations return only drafts that
// passed validation.
type Drafter interface {
	Draft(ctx context.Context, req DraftRequest) ([]QuestionDraft, error)
}

// LLMDrafter implements Drafter with an llm.Provider.
type LLMDrafter struct {
	provider  llm.Provider
	logger    *zap.Logger
	maxTokens int
}

// NewLLMDrafter returns a Drafter backed by p.
func NewLLMDrafter(p llm.Provider, logger *zap.Logger) *LLMDrafter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMDrafter{provider: p, logger: logger, maxTokens: 4096}
}

// Draft sends one request and keeps the items that validate. Output with no
// parseable array is ErrMalformedOutput.
func (d *LLMDrafter) Draft(ctx context.Context, req DraftRequest) ([]QuestionDraft, error) {
	ctx = llm.WithPurpose(ctx, req.Purpose)

	r := llm.SingleTurn(req.Prompt, d.maxTokens, req.Temperature)
	r.System = systemPrompt

	resp, err := d.provider.Generate(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	items, err := splitItems(resp.Text())
	if err != nil {
		return nil, err
	}

	drafts := make([]QuestionDraft, 0, len(items))
	for i, raw := range items {
		draft, err := parseDraft(raw)
		if err != nil {
			d.logger.Warn("dropping generated item",
				zap.String("purpose", req.Purpose),
				zap.Int("item", i),
				zap.Error(err))
			continue
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

var _ Drafter = (*LLMDrafter)(nil)
