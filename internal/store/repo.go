package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/edurag/internal/analytics"
)

// ErrInvalidAttempt is returned by RecordAttempt for structurally
// impossible attempts.
var ErrInvalidAttempt = errors.New("store: invalid attempt")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match when set
}

// AttemptFilter narrows attempt and concept event queries.
type AttemptFilter struct {
	Student  string // exact match when set
	Chapters []int  // any of these chapters when set
}

// AnalyticsRepo is the analytics store: append-only attempts and concept
// events plus the derived student summaries.
type AnalyticsRepo interface {
	// RecordAttempt appends an attempt with its concept events and
	// recomputes the student's summary, all in one transaction. It returns
	// the new summary.
	RecordAttempt(ctx context.Context, a analytics.Attempt, events []analytics.ConceptEvent) (analytics.StudentSummary, error)

	// Attempts returns matching attempts in recording order.
	Attempts(ctx context.Context, f AttemptFilter) ([]analytics.Attempt, error)

	// ConceptEvents returns matching concept events in recording order.
	ConceptEvents(ctx context.Context, f AttemptFilter) ([]analytics.ConceptEvent, error)

	// Summaries returns every student summary ordered by student.
	Summaries(ctx context.Context) ([]analytics.StudentSummary, error)

	// Summary returns one student's summary, or nil if the student has no
	// attempts.
	Summary(ctx context.Context, student string) (*analytics.StudentSummary, error)

	// NextAttemptNumber returns one more than the highest attempt number
	// recorded for student on chapter.
	NextAttemptNumber(ctx context.Context, student string, chapter int) (int, error)

	// Reset deletes all analytics data.
	Reset(ctx context.Context) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model under one purpose.
type ModelUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// LLMUsageByModel aggregates usage per purpose and model, ordered by
	// purpose then model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
