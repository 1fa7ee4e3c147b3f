// Package analytics derives per-student and per-concept mastery statistics
// from graded quiz attempts.
package analytics

import (
	"time"

	"github.com/abhisek/edurag/internal/quiz"
)

// Attempt is one graded quiz submission. Attempts are append-only.
type Attempt struct {
	Student       string `json:"student"`
	Chapter       int    `json:"chapter"`
	AttemptNumber int    `json:"attempt_number"`
	Total         int    `json:"total"`
	Correct       int    `json:"correct"`

	// Accuracy is 100*Correct/Total, stored unrounded.
	Accuracy     float64   `json:"accuracy"`
	WeakConcepts []string  `json:"weak_concepts"`
	TimeSeconds  float64   `json:"time_seconds"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// ConceptEvent records whether one question of an attempt was answered
// correctly.
type ConceptEvent struct {
	Student       string `json:"student"`
	Chapter       int    `json:"chapter"`
	AttemptNumber int    `json:"attempt_number"`
	Concept       string `json:"concept"`
	Correct       bool   `json:"correct"`
}

// NewAttempt turns a grade summary into the attempt record and its concept
// events, one per graded question.
func NewAttempt(student string, chapter, number int, g quiz.GradeSummary, timeSeconds float64) (Attempt, []ConceptEvent) {
	if timeSeconds < 0 {
		timeSeconds = 0
	}
	a := Attempt{
		Student:       student,
		Chapter:       chapter,
		AttemptNumber: number,
		Total:         g.Total,
		Correct:       g.Correct,
		Accuracy:      g.Accuracy,
		WeakConcepts:  append([]string(nil), g.WeakConcepts...),
		TimeSeconds:   timeSeconds,
	}

	events := make([]ConceptEvent, 0, len(g.Details))
	for _, d := range g.Details {
		events = append(events, ConceptEvent{
			Student:       student,
			Chapter:       chapter,
			AttemptNumber: number,
			Concept:       d.Concept,
			Correct:       d.Correct,
		})
	}
	return a, events
}

// StudentSummary is the derived longitudinal view of one student.
type StudentSummary struct {
	Student      string  `json:"student"`
	BestAccuracy float64 `json:"best_accuracy"`
	LastAccuracy float64 `json:"last_accuracy"`

	// ImprovementPct is the last accuracy minus the first.
	ImprovementPct float64 `json:"improvement_pct"`
	AvgTimeSeconds float64 `json:"avg_time_seconds"`
	Attempts       int     `json:"attempts"`
}

// Summarize derives the summary of student from that student's attempts in
// recording order. It returns false when there are no attempts.
func Summarize(student string, attempts []Attempt) (StudentSummary, bool) {
	if len(attempts) == 0 {
		return StudentSummary{}, false
	}

	first, last := attempts[0], attempts[len(attempts)-1]
	s := StudentSummary{
		Student:        student,
		BestAccuracy:   first.Accuracy,
		LastAccuracy:   last.Accuracy,
		ImprovementPct: last.Accuracy - first.Accuracy,
		Attempts:       len(attempts),
	}

	var totalTime float64
	for _, a := range attempts {
		if a.Accuracy > s.BestAccuracy {
			s.BestAccuracy = a.Accuracy
		}
		totalTime += a.TimeSeconds
	}
	s.AvgTimeSeconds = totalTime / float64(len(attempts))
	return s, true
}
