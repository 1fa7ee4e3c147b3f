package report

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/edurag/internal/llm"
)

// AdviceUnavailable is shown when no generation provider is configured.
const AdviceUnavailable = "Class advice is unavailable: no generation provider is configured."

const (
	adviceTemperature = 0.7
	adviceMaxTokens   = 500
)

// Advisor asks the generation provider for teaching tips based on the
// class KPIs.
type Advisor struct {
	provider llm.Provider
	logger   *zap.Logger
}

// NewAdvisor returns an Advisor; p may be nil.
func NewAdvisor(p llm.Provider, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{provider: p, logger: logger}
}

// Advise returns three tips for the teacher. It never fails: a missing
// provider or a generation error produce a fixed notice.
func (a *Advisor) Advise(ctx context.Context, k KPIs) string {
	if a.provider == nil {
		return AdviceUnavailable
	}

	prompt := fmt.Sprintf(
		"Analyse the class performance: mean score %.1f%%, %d of %d students at risk, mean improvement %+.1f points. Give the teacher 3 practical tips.",
		k.MeanLastAccuracy, k.AtRisk, k.Students, k.MeanImprovement)

	ctx = llm.WithPurpose(ctx, llm.PurposeClassAdvice)
	resp, err := a.provider.Generate(ctx, llm.SingleTurn(prompt, adviceMaxTokens, adviceTemperature))
	if err != nil {
		a.logger.Warn("class advice generation failed", zap.Error(err))
		return fmt.Sprintf("Class advice unavailable (generation error: %v)", err)
	}
	return strings.TrimSpace(resp.Text())
}
