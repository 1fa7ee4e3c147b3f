package llm

import "context"

type contextKey string

const purposeKey contextKey = "llm_purpose"

// Purpose labels recorded with every request.
const (
	PurposeExplanation  = "explanation"
	PurposeAdaptiveQuiz = "adaptive-quiz"
	PurposeMixedQuiz    = "mixed-quiz"
	PurposeBankGen      = "bank-gen"
	PurposeClassAdvice  = "class-advice"
)

// Purposes lists every purpose label in the order reports show them.
var Purposes = []string{
	PurposeExplanation,
	PurposeAdaptiveQuiz,
	PurposeMixedQuiz,
	PurposeBankGen,
	PurposeClassAdvice,
}

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}
