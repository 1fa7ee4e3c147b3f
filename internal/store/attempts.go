package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/edurag/internal/analytics"
)

var sqlite = entsql.Dialect(dialect.SQLite)

const weakConceptSep = ";"

var attemptColumns = []string{
	"sequence", "recorded_at", "student", "chapter", "attempt_number",
	"total", "correct", "accuracy", "weak_concepts", "time_seconds",
}

var conceptEventColumns = []string{
	"sequence", "student", "chapter", "attempt_number", "concept", "correct",
}

var summaryColumns = []string{
	"student", "best_accuracy", "last_accuracy", "improvement_pct",
	"avg_time_seconds", "attempts", "updated_at",
}

// analyticsRepo implements AnalyticsRepo.
type analyticsRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func validateAttempt(a analytics.Attempt, events []analytics.ConceptEvent) error {
	switch {
	case a.Student == "":
		return fmt.Errorf("%w: empty student", ErrInvalidAttempt)
	case a.AttemptNumber < 1:
		return fmt.Errorf("%w: attempt number %d", ErrInvalidAttempt, a.AttemptNumber)
	case a.Total == 0:
		return fmt.Errorf("%w: no questions", ErrInvalidAttempt)
	case a.Total < 0 || a.Correct < 0 || a.Correct > a.Total:
		return fmt.Errorf("%w: %d correct of %d", ErrInvalidAttempt, a.Correct, a.Total)
	case a.Accuracy < 0 || a.Accuracy > 100:
		return fmt.Errorf("%w: accuracy %f", ErrInvalidAttempt, a.Accuracy)
	case a.TimeSeconds < 0:
		return fmt.Errorf("%w: negative time", ErrInvalidAttempt)
	case len(events) != a.Total:
		return fmt.Errorf("%w: %d concept events for %d questions", ErrInvalidAttempt, len(events), a.Total)
	}
	return nil
}

func (r *analyticsRepo) RecordAttempt(ctx context.Context, a analytics.Attempt, events []analytics.ConceptEvent) (analytics.StudentSummary, error) {
	if err := validateAttempt(a, events); err != nil {
		return analytics.StudentSummary{}, err
	}
	if a.RecordedAt.IsZero() {
		a.RecordedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return analytics.StudentSummary{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// The first statement writes, so the database lock is held from here
	// to commit and the summary below sees every committed attempt.
	seq, err := r.seq.Next(ctx, tx)
	if err != nil {
		return analytics.StudentSummary{}, err
	}

	query, args := sqlite.Insert(AttemptsTable.Name).
		Columns(attemptColumns...).
		Values(seq, a.RecordedAt, a.Student, a.Chapter, a.AttemptNumber,
			a.Total, a.Correct, a.Accuracy, strings.Join(a.WeakConcepts, weakConceptSep), a.TimeSeconds).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return analytics.StudentSummary{}, fmt.Errorf("insert attempt: %w", err)
	}

	if len(events) > 0 {
		ins := sqlite.Insert(ConceptEventsTable.Name).Columns(conceptEventColumns...)
		for _, e := range events {
			// Events always belong to the attempt they are recorded with.
			ins.Values(seq, a.Student, a.Chapter, a.AttemptNumber, e.Concept, e.Correct)
		}
		query, args := ins.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return analytics.StudentSummary{}, fmt.Errorf("insert concept events: %w", err)
		}
	}

	history, err := queryAttempts(ctx, tx, AttemptFilter{Student: a.Student})
	if err != nil {
		return analytics.StudentSummary{}, err
	}
	summary, _ := analytics.Summarize(a.Student, history)

	query, args = sqlite.Insert(StudentSummariesTable.Name).
		Columns(summaryColumns...).
		Values(summary.Student, summary.BestAccuracy, summary.LastAccuracy, summary.ImprovementPct,
			summary.AvgTimeSeconds, summary.Attempts, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("student"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return analytics.StudentSummary{}, fmt.Errorf("upsert summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return analytics.StudentSummary{}, fmt.Errorf("commit: %w", err)
	}
	return summary, nil
}

func (r *analyticsRepo) Attempts(ctx context.Context, f AttemptFilter) ([]analytics.Attempt, error) {
	return queryAttempts(ctx, r.db, f)
}

func applyFilter(sel *entsql.Selector, f AttemptFilter) {
	if f.Student != "" {
		sel.Where(entsql.EQ("student", f.Student))
	}
	if len(f.Chapters) > 0 {
		chapters := make([]any, len(f.Chapters))
		for i, c := range f.Chapters {
			chapters[i] = c
		}
		sel.Where(entsql.In("chapter", chapters...))
	}
}

func queryAttempts(ctx context.Context, q queryer, f AttemptFilter) ([]analytics.Attempt, error) {
	sel := sqlite.Select(attemptColumns[1:]...).From(sqlite.Table(AttemptsTable.Name))
	applyFilter(sel, f)
	sel.OrderBy("sequence")

	query, args := sel.Query()
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []analytics.Attempt
	for rows.Next() {
		var a analytics.Attempt
		var weak string
		if err := rows.Scan(&a.RecordedAt, &a.Student, &a.Chapter, &a.AttemptNumber,
			&a.Total, &a.Correct, &a.Accuracy, &weak, &a.TimeSeconds); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if weak != "" {
			a.WeakConcepts = strings.Split(weak, weakConceptSep)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *analyticsRepo) ConceptEvents(ctx context.Context, f AttemptFilter) ([]analytics.ConceptEvent, error) {
	sel := sqlite.Select(conceptEventColumns[1:]...).From(sqlite.Table(ConceptEventsTable.Name))
	applyFilter(sel, f)
	sel.OrderBy("sequence", "id")

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query concept events: %w", err)
	}
	defer rows.Close()

	var out []analytics.ConceptEvent
	for rows.Next() {
		var e analytics.ConceptEvent
		if err := rows.Scan(&e.Student, &e.Chapter, &e.AttemptNumber, &e.Concept, &e.Correct); err != nil {
			return nil, fmt.Errorf("scan concept event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *analyticsRepo) Summaries(ctx context.Context) ([]analytics.StudentSummary, error) {
	return r.querySummaries(ctx, "")
}

func (r *analyticsRepo) Summary(ctx context.Context, student string) (*analytics.StudentSummary, error) {
	out, err := r.querySummaries(ctx, student)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (r *analyticsRepo) querySummaries(ctx context.Context, student string) ([]analytics.StudentSummary, error) {
	sel := sqlite.Select(summaryColumns[:6]...).From(sqlite.Table(StudentSummariesTable.Name))
	if student != "" {
		sel.Where(entsql.EQ("student", student))
	}
	sel.OrderBy("student")

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []analytics.StudentSummary
	for rows.Next() {
		var s analytics.StudentSummary
		if err := rows.Scan(&s.Student, &s.BestAccuracy, &s.LastAccuracy, &s.ImprovementPct,
			&s.AvgTimeSeconds, &s.Attempts); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *analyticsRepo) NextAttemptNumber(ctx context.Context, student string, chapter int) (int, error) {
	query, args := sqlite.Select(entsql.Max("attempt_number")).
		From(sqlite.Table(AttemptsTable.Name)).
		Where(entsql.And(entsql.EQ("student", student), entsql.EQ("chapter", chapter))).
		Query()

	var last sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&last); err != nil {
		return 0, fmt.Errorf("query last attempt number: %w", err)
	}
	return int(last.Int64) + 1, nil
}

func (r *analyticsRepo) Reset(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, t := range []string{ConceptEventsTable.Name, AttemptsTable.Name, StudentSummariesTable.Name} {
		query, args := sqlite.Delete(t).Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
	}
	return tx.Commit()
}
