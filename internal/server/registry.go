package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/edurag/internal/quiz"
)

// servedQuiz is a quiz handed to a client. The answer key stays here.
type servedQuiz struct {
	ID        string
	Kind      string
	Chapter   int
	Questions []quiz.Question
	CreatedAt time.Time
}

// registry holds served quizzes until they expire.
type registry struct {
	mu      sync.Mutex
	quizzes map[string]servedQuiz
	ttl     time.Duration
	now     func() time.Time
}

func newRegistry(ttl time.Duration) *registry {
	return &registry{quizzes: make(map[string]servedQuiz), ttl: ttl, now: time.Now}
}

// put stores questions and returns the new quiz ID. Expired quizzes are
// dropped on the way.
func (r *registry) put(kind string, chapter int, questions []quiz.Question) servedQuiz {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, q := range r.quizzes {
		if now.Sub(q.CreatedAt) > r.ttl {
			delete(r.quizzes, id)
		}
	}

	sq := servedQuiz{
		ID:        uuid.NewString(),
		Kind:      kind,
		Chapter:   chapter,
		Questions: questions,
		CreatedAt: now,
	}
	r.quizzes[sq.ID] = sq
	return sq
}

func (r *registry) get(id string) (servedQuiz, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.quizzes[id]
	if !ok || r.now().Sub(q.CreatedAt) > r.ttl {
		return servedQuiz{}, false
	}
	return q, true
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.quizzes)
}
