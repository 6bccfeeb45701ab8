package domain

import (
	"context"
	"time"
)

// OracleClient defines how the engine talks to the external text
// oracle. All four operations may return syntactically malformed
// output; adapters are expected to resolve that into typed results or
// the named fallbacks rather than crash the interview.
type OracleClient interface {
	GenerateQuestion(ctx context.Context, role string, difficulty Difficulty, topic string, asked []string) (string, error)
	EvaluateAnswer(ctx context.Context, req EvaluationRequest) (AnswerEvaluation, error)
	GenerateNextQuestion(ctx context.Context, req NextQuestionRequest) (string, error)
	GenerateFinalFeedback(ctx context.Context, req FinalFeedbackRequest) (FinalFeedback, error)
}

// Transcriber converts a recorded answer into text. The audio file is a
// transient resource owned by the caller.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// QuestionRecord is a persisted question. Order is 1-based and unique
// within a session.
type QuestionRecord struct {
	ID        QuestionID
	SessionID SessionID
	Content   string
	Order     int
	CreatedAt time.Time
}

// AnswerRecord is a persisted answer. Score is nil for unscored
// answers.
type AnswerRecord struct {
	QuestionID QuestionID
	Content    string
	Score      *int
	AudioURL   string
	CreatedAt  time.Time
}

// SessionStore defines durable persistence for session state and the
// question/answer history.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id SessionID) (*Session, error)
	UpdateSession(ctx context.Context, session *Session) error

	// CompleteSession persists the terminal state: status, final
	// feedback and completion timestamp.
	CompleteSession(ctx context.Context, session *Session) error

	// ListSessions returns sessions ordered by creation time
	// descending.
	ListSessions(ctx context.Context, limit int) ([]*Session, error)

	// AppendQuestion assigns the next order number within the session.
	AppendQuestion(ctx context.Context, sessionID SessionID, content string) (QuestionRecord, error)

	// AppendAnswer attaches an answer to the latest question of the
	// session. Re-answering the latest question overwrites the previous
	// answer, so a turn whose persistence failed partway can be retried.
	AppendAnswer(ctx context.Context, sessionID SessionID, content string, score *int) error

	// MeanScore averages the scored answers of a session; it is 0 when
	// no answer carries a score.
	MeanScore(ctx context.Context, sessionID SessionID) (float64, error)
}
