package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prepwise/interview-agent/internal/domain"
)

// Store is an in-memory SessionStore for tests and local development.
// Sessions are deep-copied on the way in and out so callers never share
// mutable state with the store.
type Store struct {
	mu        sync.RWMutex
	sessions  map[domain.SessionID]*domain.Session
	questions map[domain.SessionID][]*domain.QuestionRecord
	answers   map[domain.QuestionID]*domain.AnswerRecord
}

func NewStore() *Store {
	return &Store{
		sessions:  make(map[domain.SessionID]*domain.Session),
		questions: make(map[domain.SessionID][]*domain.QuestionRecord),
		answers:   make(map[domain.QuestionID]*domain.AnswerRecord),
	}
}

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return errors.New("session already exists")
	}

	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; !exists {
		return domain.ErrSessionNotFound
	}

	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Store) CompleteSession(ctx context.Context, session *domain.Session) error {
	return s.UpdateSession(ctx, session)
}

func (s *Store) ListSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) AppendQuestion(ctx context.Context, sessionID domain.SessionID, content string) (domain.QuestionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; !exists {
		return domain.QuestionRecord{}, domain.ErrSessionNotFound
	}

	rec := &domain.QuestionRecord{
		ID:        domain.QuestionID(uuid.NewString()),
		SessionID: sessionID,
		Content:   content,
		Order:     len(s.questions[sessionID]) + 1,
		CreatedAt: time.Now(),
	}
	s.questions[sessionID] = append(s.questions[sessionID], rec)
	return *rec, nil
}

func (s *Store) AppendAnswer(ctx context.Context, sessionID domain.SessionID, content string, score *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions := s.questions[sessionID]
	if len(questions) == 0 {
		return errors.New("no question to answer")
	}

	// Only the latest question may receive an answer. Re-answering it
	// overwrites the previous answer so a retried turn converges.
	latest := questions[len(questions)-1]

	var scoreCopy *int
	if score != nil {
		v := *score
		scoreCopy = &v
	}
	s.answers[latest.ID] = &domain.AnswerRecord{
		QuestionID: latest.ID,
		Content:    content,
		Score:      scoreCopy,
		CreatedAt:  time.Now(),
	}
	return nil
}

func (s *Store) MeanScore(ctx context.Context, sessionID domain.SessionID) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum, n int
	for _, q := range s.questions[sessionID] {
		a, ok := s.answers[q.ID]
		if !ok || a.Score == nil {
			continue
		}
		sum += *a.Score
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}
