package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/edurag/internal/analytics"
	"github.com/abhisek/edurag/internal/explain"
	"github.com/abhisek/edurag/internal/index"
	"github.com/abhisek/edurag/internal/quiz"
	"github.com/abhisek/edurag/internal/report"
	"github.com/abhisek/edurag/internal/store"
)

const (
	kindBank     = "bank"
	kindAdaptive = "adaptive"
	kindMixed    = "mixed"
)

// QuizView is a served quiz without its answer key.
type QuizView struct {
	QuizID    string          `json:"quiz_id"`
	Kind      string          `json:"kind"`
	Chapter   int             `json:"chapter"`
	Questions []quiz.Question `json:"questions"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"index":      s.retriever != nil && s.retriever.Available(),
		"generation": s.generator != nil && s.generator.Available(),
	})
}

func (s *Server) search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		badRequest(c, "query parameter q is required", nil)
		return
	}
	k, err := intQuery(c, "k", s.cfg.TopK)
	if err != nil {
		badRequest(c, "invalid k", err)
		return
	}

	matches := []index.Match{}
	if s.retriever != nil {
		if m := s.retriever.SearchScored(q, k); m != nil {
			matches = m
		}
	}
	successResponse(c, gin.H{"query": q, "results": matches})
}

func (s *Server) explain(c *gin.Context) {
	concept := strings.TrimSpace(c.Query("concept"))
	if concept == "" {
		badRequest(c, "query parameter concept is required", nil)
		return
	}
	successResponse(c, s.explainer.Explain(c.Request.Context(), concept))
}

func (s *Server) chapterQuiz(c *gin.Context) {
	chapter, err := strconv.Atoi(c.Param("chapter"))
	if err != nil || chapter < 1 {
		badRequest(c, "invalid chapter", err)
		return
	}
	n, err := intQuery(c, "n", s.cfg.QuizSize)
	if err != nil {
		badRequest(c, "invalid n", err)
		return
	}

	questions, err := s.bank.Load(chapter)
	if err != nil {
		if errors.Is(err, quiz.ErrBankNotFound) {
			notFound(c, fmt.Sprintf("no question bank for chapter %d", chapter))
			return
		}
		internalError(c, "failed to load question bank", err)
		return
	}

	successResponse(c, s.serve(kindBank, chapter, quiz.Sample(questions, n, nil)))
}

type adaptiveRequest struct {
	Chapter      int      `json:"chapter" binding:"required,min=1"`
	WeakConcepts []string `json:"weak_concepts"`
	Count        int      `json:"count"`
}

func (s *Server) adaptiveQuiz(c *gin.Context) {
	var req adaptiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format", err)
		return
	}
	if req.Count <= 0 {
		req.Count = s.cfg.AdaptiveSize
	}

	questions := s.generator.AdaptiveQuiz(c.Request.Context(), req.Chapter, req.WeakConcepts, req.Count)
	successResponse(c, s.serve(kindAdaptive, req.Chapter, questions))
}

type mixedRequest struct {
	Chapters []int `json:"chapters" binding:"required,min=1,dive,min=1"`
	Count    int   `json:"count"`
}

func (s *Server) mixedQuiz(c *gin.Context) {
	var req mixedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format", err)
		return
	}
	if req.Count <= 0 {
		req.Count = s.cfg.QuizSize
	}

	questions := s.generator.MixedQuiz(c.Request.Context(), req.Chapters, req.Count)
	// Mixed quizzes span chapters; their attempts are recorded under chapter 0.
	successResponse(c, s.serve(kindMixed, 0, questions))
}

// serve registers a non-empty quiz and returns its public view. An empty
// quiz gets no ID.
func (s *Server) serve(kind string, chapter int, questions []quiz.Question) QuizView {
	view := QuizView{Kind: kind, Chapter: chapter, Questions: quiz.PublicAll(questions)}
	if len(questions) == 0 {
		return view
	}
	view.QuizID = s.quizzes.put(kind, chapter, questions).ID
	return view
}

type attemptRequest struct {
	QuizID        string            `json:"quiz_id" binding:"required"`
	Student       string            `json:"student" binding:"required"`
	AttemptNumber int               `json:"attempt_number"`
	Answers       map[string]string `json:"answers"`
	TimeSeconds   float64           `json:"time_seconds"`
}

// AttemptResult is the response to a submitted attempt.
type AttemptResult struct {
	AttemptNumber int                      `json:"attempt_number"`
	Grade         quiz.GradeSummary        `json:"grade"`
	Passed        bool                     `json:"passed"`
	Summary       analytics.StudentSummary `json:"summary"`
	Risk          *analytics.RiskFinding   `json:"risk,omitempty"`
	Explanations  []explain.Explanation    `json:"explanations"`
}

func (s *Server) submitAttempt(c *gin.Context) {
	var req attemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format", err)
		return
	}
	req.Student = strings.TrimSpace(req.Student)
	if req.Student == "" {
		badRequest(c, "student is required", nil)
		return
	}

	served, ok := s.quizzes.get(req.QuizID)
	if !ok {
		notFound(c, "quiz not found or expired")
		return
	}

	grade := quiz.Grade(served.Questions, req.Answers)
	if !grade.Gradeable {
		errorResponse(c, http.StatusUnprocessableEntity, "quiz has no answer key", nil)
		return
	}

	ctx := c.Request.Context()
	number := req.AttemptNumber
	if number <= 0 {
		n, err := s.analytics.NextAttemptNumber(ctx, req.Student, served.Chapter)
		if err != nil {
			internalError(c, "failed to number attempt", err)
			return
		}
		number = n
	}

	attempt, events := analytics.NewAttempt(req.Student, served.Chapter, number, grade, req.TimeSeconds)
	summary, err := s.analytics.RecordAttempt(ctx, attempt, events)
	if err != nil {
		if errors.Is(err, store.ErrInvalidAttempt) {
			badRequest(c, "invalid attempt", err)
			return
		}
		internalError(c, "failed to record attempt", err)
		return
	}

	passed := grade.Passed(s.cfg.PassMark)
	if s.metrics != nil {
		s.metrics.ObserveAttempt(passed)
	}
	s.logger.Info("attempt recorded",
		zap.String("student", req.Student),
		zap.Int("chapter", served.Chapter),
		zap.Int("attempt", number),
		zap.Float64("accuracy", grade.Accuracy))

	successResponse(c, AttemptResult{
		AttemptNumber: number,
		Grade:         grade,
		Passed:        passed,
		Summary:       summary,
		Risk:          analytics.Classify(summary),
		Explanations:  s.explainer.ExplainAll(ctx, grade.WeakConcepts),
	})
}

func (s *Server) studentSummary(c *gin.Context) {
	student := c.Param("student")
	summary, err := s.analytics.Summary(c.Request.Context(), student)
	if err != nil {
		internalError(c, "failed to load summary", err)
		return
	}
	if summary == nil {
		notFound(c, fmt.Sprintf("no attempts recorded for %q", student))
		return
	}
	successResponse(c, gin.H{"summary": summary, "risk": analytics.Classify(*summary)})
}

func (s *Server) classReport(c *gin.Context) {
	chapters, err := intListQuery(c, "chapters")
	if err != nil {
		badRequest(c, "invalid chapters", err)
		return
	}
	threshold := s.cfg.Threshold
	if v := c.Query("threshold"); v != "" {
		threshold, err = strconv.ParseFloat(v, 64)
		if err != nil {
			badRequest(c, "invalid threshold", err)
			return
		}
	}

	r, err := report.Load(c.Request.Context(), s.analytics, report.Options{Chapters: chapters, Threshold: threshold})
	if err != nil {
		internalError(c, "failed to build report", err)
		return
	}
	successResponse(c, r)
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return n, nil
}

func intListQuery(c *gin.Context, key string) ([]int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
