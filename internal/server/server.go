// Package server exposes retrieval, explanations, quizzes and analytics over
// a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/edurag/internal/explain"
	"github.com/abhisek/edurag/internal/index"
	"github.com/abhisek/edurag/internal/metrics"
	"github.com/abhisek/edurag/internal/quiz"
	"github.com/abhisek/edurag/internal/store"
)

// Searcher is the retrieval surface the API needs. *index.Retriever
// implements it.
type Searcher interface {
	SearchScored(query string, topK int) []index.Match
	Available() bool
}

// Explainer produces concept explanations. *explain.Service implements it.
type Explainer interface {
	Explain(ctx context.Context, concept string) explain.Explanation
	ExplainAll(ctx context.Context, concepts []string) []explain.Explanation
}

// QuizGenerator drafts new quizzes. *adaptive.Service implements it.
type QuizGenerator interface {
	AdaptiveQuiz(ctx context.Context, chapter int, weak []string, n int) []quiz.Question
	MixedQuiz(ctx context.Context, chapters []int, n int) []quiz.Question
	Available() bool
}

// Config tunes the API.
type Config struct {
	Addr         string
	CORSOrigins  []string
	QuizTTL      time.Duration
	TopK         int
	QuizSize     int
	AdaptiveSize int
	PassMark     float64
	Threshold    float64
}

// Deps are the collaborators behind the handlers. Metrics and Logger are
// optional.
type Deps struct {
	Retriever Searcher
	Explainer Explainer
	Generator QuizGenerator
	Bank      quiz.Bank
	Analytics store.AnalyticsRepo
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg       Config
	engine    *gin.Engine
	retriever Searcher
	explainer Explainer
	generator QuizGenerator
	bank      quiz.Bank
	analytics store.AnalyticsRepo
	metrics   *metrics.Metrics
	logger    *zap.Logger
	quizzes   *registry
}

// New builds the router.
func New(cfg Config, deps Deps) *Server {
	if cfg.QuizTTL <= 0 {
		cfg.QuizTTL = 2 * time.Hour
	}
	if cfg.TopK <= 0 {
		cfg.TopK = explain.DefaultTopK
	}
	if cfg.QuizSize <= 0 {
		cfg.QuizSize = 5
	}
	if cfg.AdaptiveSize <= 0 {
		cfg.AdaptiveSize = 5
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:       cfg,
		retriever: deps.Retriever,
		explainer: deps.Explainer,
		generator: deps.Generator,
		bank:      deps.Bank,
		analytics: deps.Analytics,
		metrics:   deps.Metrics,
		logger:    logger,
		quizzes:   newRegistry(cfg.QuizTTL),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	corsCfg := cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Content-Length", "Accept", "Origin"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 || (len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", s.health)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api/v1")
	{
		api.GET("/search", s.search)
		api.GET("/explain", s.explain)
		api.GET("/chapters/:chapter/quiz", s.chapterQuiz)
		api.POST("/quizzes/adaptive", s.adaptiveQuiz)
		api.POST("/quizzes/mixed", s.mixedQuiz)
		api.POST("/attempts", s.submitAttempt)
		api.GET("/students/:student/summary", s.studentSummary)
		api.GET("/report", s.classReport)
	}

	s.engine = r
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
