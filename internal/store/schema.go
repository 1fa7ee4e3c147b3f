package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// AttemptsColumns holds the columns for the "attempts" table.
	AttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "recorded_at", Type: field.TypeTime},
		{Name: "student", Type: field.TypeString},
		{Name: "chapter", Type: field.TypeInt},
		{Name: "attempt_number", Type: field.TypeInt},
		{Name: "total", Type: field.TypeInt},
		{Name: "correct", Type: field.TypeInt},
		{Name: "accuracy", Type: field.TypeFloat64},
		{Name: "weak_concepts", Type: field.TypeString, Default: ""},
		{Name: "time_seconds", Type: field.TypeFloat64, Default: 0},
	}
	// AttemptsTable holds the schema information for the "attempts" table.
	AttemptsTable = &schema.Table{
		Name:       "attempts",
		Columns:    AttemptsColumns,
		PrimaryKey: []*schema.Column{AttemptsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "attempt_student_chapter", Columns: []*schema.Column{AttemptsColumns[3], AttemptsColumns[4]}},
		},
	}

	// ConceptEventsColumns holds the columns for the "concept_events" table.
	ConceptEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "student", Type: field.TypeString},
		{Name: "chapter", Type: field.TypeInt},
		{Name: "attempt_number", Type: field.TypeInt},
		{Name: "concept", Type: field.TypeString},
		{Name: "correct", Type: field.TypeBool},
	}
	// ConceptEventsTable holds the schema information for the "concept_events" table.
	ConceptEventsTable = &schema.Table{
		Name:       "concept_events",
		Columns:    ConceptEventsColumns,
		PrimaryKey: []*schema.Column{ConceptEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "conceptevent_concept", Columns: []*schema.Column{ConceptEventsColumns[5]}},
			{Name: "conceptevent_chapter", Columns: []*schema.Column{ConceptEventsColumns[3]}},
		},
	}

	// StudentSummariesColumns holds the columns for the "student_summaries" table.
	StudentSummariesColumns = []*schema.Column{
		{Name: "student", Type: field.TypeString},
		{Name: "best_accuracy", Type: field.TypeFloat64},
		{Name: "last_accuracy", Type: field.TypeFloat64},
		{Name: "improvement_pct", Type: field.TypeFloat64},
		{Name: "avg_time_seconds", Type: field.TypeFloat64},
		{Name: "attempts", Type: field.TypeInt},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// StudentSummariesTable holds the schema information for the "student_summaries" table.
	StudentSummariesTable = &schema.Table{
		Name:       "student_summaries",
		Columns:    StudentSummariesColumns,
		PrimaryKey: []*schema.Column{StudentSummariesColumns[0]},
	}

	// LlmRequestEventsColumns holds the columns for the "llm_request_events" table.
	LlmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Default: ""},
		{Name: "response_body", Type: field.TypeString, Default: ""},
	}
	// LlmRequestEventsTable holds the schema information for the "llm_request_events" table.
	LlmRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    LlmRequestEventsColumns,
		PrimaryKey: []*schema.Column{LlmRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{LlmRequestEventsColumns[5]}},
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{LlmRequestEventsColumns[2]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		AttemptsTable,
		ConceptEventsTable,
		StudentSummariesTable,
		LlmRequestEventsTable,
	}
)
