package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/google/uuid"

	"github.com/prepwise/interview-agent/internal/domain"
)

// Store is the Firestore-backed SessionStore used in GCP mode.
type Store struct {
	client *firestore.Client
}

func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) interviewsCol() *firestore.CollectionRef {
	return s.client.Collection("interviews")
}

func (s *Store) interviewDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.interviewsCol().Doc(string(id))
}

func (s *Store) questionsCol(sessionID domain.SessionID) *firestore.CollectionRef {
	return s.interviewDoc(sessionID).Collection("questions")
}

type interviewDoc struct {
	Role         string     `firestore:"role"`
	Difficulty   string     `firestore:"difficulty"`
	Topic        string     `firestore:"topic"`
	Status       string     `firestore:"status"`
	CurrentState string     `firestore:"current_state"`
	StartTime    time.Time  `firestore:"start_time"`
	EndTime      *time.Time `firestore:"end_time"`
	Feedback     string     `firestore:"overall_feedback"`
}

type questionDoc struct {
	Content       string    `firestore:"content"`
	Order         int       `firestore:"order"`
	CreatedAt     time.Time `firestore:"created_at"`
	AnswerContent string    `firestore:"answer_content"`
	AnswerScore   *int      `firestore:"answer_score"`
	Answered      bool      `firestore:"answered"`
}

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	doc, err := toInterviewDoc(session)
	if err != nil {
		return err
	}
	if _, err := s.interviewDoc(session.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateSession: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	snap, err := s.interviewDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("firestore GetSession: %w", err)
	}

	var doc interviewDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetSession decode: %w", err)
	}
	return fromInterviewDoc(id, doc), nil
}

func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	doc, err := toInterviewDoc(session)
	if err != nil {
		return err
	}
	if _, err := s.interviewDoc(session.ID).Set(ctx, doc); err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("firestore UpdateSession: %w", err)
	}
	return nil
}

func (s *Store) CompleteSession(ctx context.Context, session *domain.Session) error {
	return s.UpdateSession(ctx, session)
}

func (s *Store) ListSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	q := s.interviewsCol().OrderBy("start_time", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Session
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListSessions: %w", err)
		}

		var doc interviewDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode interviewDoc: %w", err)
		}
		out = append(out, fromInterviewDoc(domain.SessionID(snap.Ref.ID), doc))
	}
	return out, nil
}

func (s *Store) AppendQuestion(ctx context.Context, sessionID domain.SessionID, content string) (domain.QuestionRecord, error) {
	latest, err := s.latestQuestion(ctx, sessionID)
	if err != nil {
		return domain.QuestionRecord{}, err
	}

	next := 1
	if latest != nil {
		next = latest.doc.Order + 1
	}

	rec := domain.QuestionRecord{
		ID:        domain.QuestionID(uuid.NewString()),
		SessionID: sessionID,
		Content:   content,
		Order:     next,
		CreatedAt: time.Now().UTC(),
	}

	doc := questionDoc{
		Content:   content,
		Order:     next,
		CreatedAt: rec.CreatedAt,
	}
	if _, err := s.questionsCol(sessionID).Doc(string(rec.ID)).Create(ctx, doc); err != nil {
		return domain.QuestionRecord{}, fmt.Errorf("firestore AppendQuestion: %w", err)
	}
	return rec, nil
}

func (s *Store) AppendAnswer(ctx context.Context, sessionID domain.SessionID, content string, score *int) error {
	latest, err := s.latestQuestion(ctx, sessionID)
	if err != nil {
		return err
	}
	if latest == nil {
		return fmt.Errorf("no question to answer")
	}

	// Re-answering the latest question overwrites the previous answer
	// so a retried turn converges instead of wedging.
	updates := []firestore.Update{
		{Path: "answer_content", Value: content},
		{Path: "answered", Value: true},
	}
	if score != nil {
		updates = append(updates, firestore.Update{Path: "answer_score", Value: *score})
	}
	if _, err := latest.ref.Update(ctx, updates); err != nil {
		return fmt.Errorf("firestore AppendAnswer: %w", err)
	}
	return nil
}

func (s *Store) MeanScore(ctx context.Context, sessionID domain.SessionID) (float64, error) {
	iter := s.questionsCol(sessionID).Documents(ctx)
	defer iter.Stop()

	var sum, n int
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return 0, fmt.Errorf("firestore MeanScore: %w", err)
		}

		var doc questionDoc
		if err := snap.DataTo(&doc); err != nil {
			return 0, fmt.Errorf("decode questionDoc: %w", err)
		}
		if doc.AnswerScore == nil {
			continue
		}
		sum += *doc.AnswerScore
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

type questionRef struct {
	ref *firestore.DocumentRef
	doc questionDoc
}

func (s *Store) latestQuestion(ctx context.Context, sessionID domain.SessionID) (*questionRef, error) {
	iter := s.questionsCol(sessionID).OrderBy("order", firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, nil
		}
		return nil, fmt.Errorf("firestore latest question: %w", err)
	}

	var doc questionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode questionDoc: %w", err)
	}
	return &questionRef{ref: snap.Ref, doc: doc}, nil
}

func toInterviewDoc(session *domain.Session) (interviewDoc, error) {
	state, err := json.Marshal(struct {
		InitialDifficulty domain.Difficulty         `json:"initial_difficulty"`
		DynamicDifficulty domain.Difficulty         `json:"dynamic_difficulty"`
		DifficultyHistory []domain.Difficulty       `json:"difficulty_history"`
		Stage             domain.Stage              `json:"stage"`
		QuestionCount     int                       `json:"question_count"`
		Profile           domain.PerformanceProfile `json:"profile"`
		NextFocus         string                    `json:"next_focus"`
		Log               []domain.Turn             `json:"log"`
	}{
		InitialDifficulty: session.InitialDifficulty,
		DynamicDifficulty: session.DynamicDifficulty,
		DifficultyHistory: session.DifficultyHistory,
		Stage:             session.Stage,
		QuestionCount:     session.QuestionCount,
		Profile:           session.Profile,
		NextFocus:         session.NextFocus,
		Log:               session.Log,
	})
	if err != nil {
		return interviewDoc{}, fmt.Errorf("marshal session state: %w", err)
	}

	doc := interviewDoc{
		Role:         session.Role,
		Difficulty:   string(session.InitialDifficulty),
		Topic:        session.Topic,
		Status:       string(session.Status),
		CurrentState: string(state),
		StartTime:    session.CreatedAt,
		EndTime:      session.CompletedAt,
	}
	if session.FinalFeedback != nil {
		raw, err := json.Marshal(session.FinalFeedback)
		if err != nil {
			return interviewDoc{}, fmt.Errorf("marshal final feedback: %w", err)
		}
		doc.Feedback = string(raw)
	}
	return doc, nil
}

func fromInterviewDoc(id domain.SessionID, doc interviewDoc) *domain.Session {
	session := domain.NewSession(id, doc.Role, domain.ParseDifficulty(doc.Difficulty), doc.Topic, doc.StartTime)
	session.Status = domain.Status(doc.Status)
	session.CompletedAt = doc.EndTime

	var state struct {
		InitialDifficulty domain.Difficulty         `json:"initial_difficulty"`
		DynamicDifficulty domain.Difficulty         `json:"dynamic_difficulty"`
		DifficultyHistory []domain.Difficulty       `json:"difficulty_history"`
		Stage             domain.Stage              `json:"stage"`
		QuestionCount     int                       `json:"question_count"`
		Profile           domain.PerformanceProfile `json:"profile"`
		NextFocus         string                    `json:"next_focus"`
		Log               []domain.Turn             `json:"log"`
	}
	if err := json.Unmarshal([]byte(doc.CurrentState), &state); err == nil {
		session.InitialDifficulty = state.InitialDifficulty
		session.DynamicDifficulty = state.DynamicDifficulty
		session.DifficultyHistory = state.DifficultyHistory
		session.Stage = state.Stage
		session.QuestionCount = state.QuestionCount
		session.Profile = state.Profile
		session.NextFocus = state.NextFocus
		session.Log = state.Log
	}

	if doc.Feedback != "" {
		var fb domain.FinalFeedback
		if err := json.Unmarshal([]byte(doc.Feedback), &fb); err == nil {
			session.FinalFeedback = &fb
		}
	}
	return session
}
