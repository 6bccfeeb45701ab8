package interview

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prepwise/interview-agent/internal/domain"
	"github.com/prepwise/interview-agent/internal/observability"
)

// missingQuestionPlaceholder stands in for the question under
// evaluation when the interaction log has no AI turn. Evaluation still
// proceeds so a malformed history cannot wedge a session.
const missingQuestionPlaceholder = "Question not found"

const (
	defaultQuestionCap   = 10
	defaultOracleTimeout = 30 * time.Second
	defaultListLimit     = 20
)

// Options tunes the orchestrator. Zero values fall back to defaults.
type Options struct {
	QuestionCap   int
	OracleTimeout time.Duration
	Now           func() time.Time
}

// Service is the adaptive interview orchestrator: it drives one
// question/answer turn at a time, keeps the per-session state machine
// moving and decides when the interview ends.
type Service struct {
	oracle domain.OracleClient
	store  domain.SessionStore
	locks  *sessionLocks

	questionCap   int
	oracleTimeout time.Duration
	now           func() time.Time
}

func NewService(oracle domain.OracleClient, store domain.SessionStore, opts Options) *Service {
	if opts.QuestionCap <= 0 {
		opts.QuestionCap = defaultQuestionCap
	}
	if opts.OracleTimeout <= 0 {
		opts.OracleTimeout = defaultOracleTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		oracle:        oracle,
		store:         store,
		locks:         newSessionLocks(),
		questionCap:   opts.QuestionCap,
		oracleTimeout: opts.OracleTimeout,
		now:           opts.Now,
	}
}

type StartInterviewInput struct {
	Role       string
	Difficulty string
	Topic      string
}

type StartInterviewOutput struct {
	Session  *domain.Session
	Question string
}

// StartInterview creates session state and emits the opening question.
func (s *Service) StartInterview(ctx context.Context, in StartInterviewInput) (*StartInterviewOutput, error) {
	topic := in.Topic
	if topic == "" {
		topic = "General"
	}
	difficulty := domain.ParseDifficulty(in.Difficulty)
	now := s.now()

	log := observability.LoggerFromContext(ctx).With(
		"role", in.Role,
		"difficulty", difficulty,
		"topic", topic,
	)
	log.Info("starting interview")

	session := domain.NewSession(domain.SessionID(uuid.NewString()), in.Role, difficulty, topic, now)

	octx, cancel := context.WithTimeout(ctx, s.oracleTimeout)
	defer cancel()

	question, err := s.oracle.GenerateQuestion(octx, in.Role, difficulty, topic, nil)
	if err != nil {
		log.Error("opening question generation failed", "error", err)
		return nil, fmt.Errorf("generate opening question: %w", err)
	}

	session.AppendTurn(domain.AuthorAI, question, nil, now)

	if err := s.store.CreateSession(ctx, session); err != nil {
		log.Error("failed to create session", "error", err)
		return nil, err
	}
	if _, err := s.store.AppendQuestion(ctx, session.ID, question); err != nil {
		log.Error("failed to persist opening question", "error", err)
		return nil, err
	}

	log.Info("interview started", "session_id", session.ID)

	return &StartInterviewOutput{
		Session:  session,
		Question: question,
	}, nil
}

type ProcessAnswerInput struct {
	SessionID  domain.SessionID
	AnswerText string
	Metrics    *domain.NonVerbalMetrics
}

type ProcessAnswerOutput struct {
	Evaluation   domain.AnswerEvaluation
	NextQuestion string
	Completed    bool
	Feedback     *domain.FinalFeedback
}

// ProcessAnswer runs one turn of the interview: evaluate the answer,
// fold the evaluation into session state, then either ask the next
// question or finalize. Turns on the same session are serialized.
func (s *Service) ProcessAnswer(ctx context.Context, in ProcessAnswerInput) (*ProcessAnswerOutput, error) {
	unlock := s.locks.lock(in.SessionID)
	defer unlock()

	session, err := s.store.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed() {
		return nil, domain.ErrSessionCompleted
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", session.ID,
		"stage", session.Stage,
		"question_count", session.QuestionCount,
	)
	log.Info("processing answer")

	now := s.now()

	question, ok := session.LastQuestion()
	if !ok {
		log.Warn("no question found in interaction log, using placeholder")
		question = missingQuestionPlaceholder
	}

	session.AppendTurn(domain.AuthorUser, in.AnswerText, in.Metrics, now)

	eval := s.evaluateAnswer(ctx, session, question, in.AnswerText)
	applyEvaluation(session, eval)

	completed := eval.EndInterview || session.QuestionCount >= s.questionCap
	if completed {
		log.Info("interview terminating",
			"oracle_end", eval.EndInterview,
			"question_count", session.QuestionCount,
		)

		if err := s.store.AppendAnswer(ctx, session.ID, in.AnswerText, eval.Score); err != nil {
			log.Error("failed to persist answer", "error", err)
			return nil, err
		}
		fb, err := s.finalizeLocked(ctx, session)
		if err != nil {
			return nil, err
		}
		return &ProcessAnswerOutput{
			Evaluation: eval,
			Completed:  true,
			Feedback:   &fb,
		}, nil
	}

	// Request the next question before any store write so a generation
	// failure leaves the session untouched.
	directive := session.NextFocus
	if directive == "" {
		directive = "Move to new topic"
	}

	octx, cancel := context.WithTimeout(ctx, s.oracleTimeout)
	defer cancel()

	nextQuestion, err := s.oracle.GenerateNextQuestion(octx, domain.NextQuestionRequest{
		Role:        session.Role,
		Difficulty:  session.DynamicDifficulty,
		Stage:       session.Stage,
		WeakAreas:   session.Profile.WeakAreas,
		StrongAreas: session.Profile.StrongAreas,
		Directive:   directive,
	})
	if err != nil {
		log.Error("next question generation failed", "error", err)
		return nil, fmt.Errorf("generate next question: %w", err)
	}

	session.AppendTurn(domain.AuthorAI, nextQuestion, nil, s.now())

	if err := s.store.AppendAnswer(ctx, session.ID, in.AnswerText, eval.Score); err != nil {
		log.Error("failed to persist answer", "error", err)
		return nil, err
	}
	if _, err := s.store.AppendQuestion(ctx, session.ID, nextQuestion); err != nil {
		log.Error("failed to persist next question", "error", err)
		return nil, err
	}
	if err := s.store.UpdateSession(ctx, session); err != nil {
		log.Error("failed to update session", "error", err)
		return nil, err
	}

	log.Info("turn completed",
		"score", eval.Score,
		"classification", eval.Classification,
		"difficulty", session.DynamicDifficulty,
		"fallback", eval.Fallback,
	)

	return &ProcessAnswerOutput{
		Evaluation:   eval,
		NextQuestion: nextQuestion,
	}, nil
}

// EndInterview finalizes a session on an explicit end request. Ending
// an already-completed session returns the stored feedback unchanged.
func (s *Service) EndInterview(ctx context.Context, id domain.SessionID) (domain.FinalFeedback, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return domain.FinalFeedback{}, err
	}
	if session.Completed() {
		if session.FinalFeedback != nil {
			return *session.FinalFeedback, nil
		}
		return domain.FinalFeedback{}, domain.ErrSessionCompleted
	}

	return s.finalizeLocked(ctx, session)
}

// GetSession returns the session with its resolved state and log.
func (s *Service) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	return s.store.GetSession(ctx, id)
}

// ListSessions returns recent sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.store.ListSessions(ctx, limit)
}

// evaluateAnswer calls the oracle and resolves any failure into the
// fixed fallback evaluation so a bad oracle response never stalls the
// interview.
func (s *Service) evaluateAnswer(ctx context.Context, session *domain.Session, question, answer string) domain.AnswerEvaluation {
	octx, cancel := context.WithTimeout(ctx, s.oracleTimeout)
	defer cancel()

	eval, err := s.oracle.EvaluateAnswer(octx, domain.EvaluationRequest{
		Role:          session.Role,
		Difficulty:    session.DynamicDifficulty,
		Stage:         session.Stage,
		QuestionCount: session.QuestionCount,
		WeakAreas:     session.Profile.WeakAreas,
		StrongAreas:   session.Profile.StrongAreas,
		Question:      question,
		Answer:        answer,
	})
	if err != nil {
		observability.OracleFallback(ctx, "evaluate_answer", err.Error())
		return domain.FallbackEvaluation()
	}
	if eval.Fallback {
		observability.OracleFallback(ctx, "evaluate_answer", "malformed oracle output")
	}
	return eval
}

// finalizeLocked aggregates session statistics, requests final feedback
// and seals the session. Callers must hold the session lock.
func (s *Service) finalizeLocked(ctx context.Context, session *domain.Session) (domain.FinalFeedback, error) {
	log := observability.LoggerFromContext(ctx).With("session_id", session.ID)

	mean, err := s.store.MeanScore(ctx, session.ID)
	if err != nil {
		log.Error("failed to compute mean score", "error", err)
		return domain.FinalFeedback{}, err
	}

	octx, cancel := context.WithTimeout(ctx, s.oracleTimeout)
	defer cancel()

	fb, err := s.oracle.GenerateFinalFeedback(octx, domain.FinalFeedbackRequest{
		Role:              session.Role,
		DifficultySummary: session.DifficultySummary(),
		QuestionCount:     session.QuestionCount,
		StrongAreas:       session.Profile.StrongAreas,
		WeakAreas:         session.Profile.WeakAreas,
		CriticalMistakes:  session.Profile.CriticalMistakes,
		MeanScore:         mean,
		NonVerbal:         session.NonVerbalSummary(),
	})
	if err != nil {
		observability.OracleFallback(ctx, "generate_final_feedback", err.Error())
		fb = domain.FallbackFeedback(mean, session.Profile)
	} else if fb.Fallback {
		observability.OracleFallback(ctx, "generate_final_feedback", "malformed oracle output")
	}

	completedAt := s.now()
	session.Status = domain.StatusCompleted
	session.FinalFeedback = &fb
	session.CompletedAt = &completedAt

	if err := s.store.CompleteSession(ctx, session); err != nil {
		log.Error("failed to complete session", "error", err)
		return domain.FinalFeedback{}, err
	}

	log.Info("interview completed",
		"mean_score", mean,
		"question_count", session.QuestionCount,
		"fallback_feedback", fb.Fallback,
	)

	return fb, nil
}
