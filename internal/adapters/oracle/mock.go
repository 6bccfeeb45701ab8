package oracle

import (
	"context"
	"fmt"
	"sync"

	"github.com/prepwise/interview-agent/internal/domain"
)

// Mock is a scripted oracle for tests and local development. Scripted
// questions and evaluations are consumed in order; once exhausted it
// keeps returning canned values so an interview can always proceed.
type Mock struct {
	mu sync.Mutex

	Questions   []string
	Evaluations []domain.AnswerEvaluation
	Feedback    *domain.FinalFeedback
	Err         error

	LastNextQuestionReq  domain.NextQuestionRequest
	LastEvaluationReq    domain.EvaluationRequest
	LastFinalFeedbackReq domain.FinalFeedbackRequest
	QuestionCalls        int
	EvaluationCalls      int
	FinalFeedbackCalls   int

	questionIdx int
	evalIdx     int
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) GenerateQuestion(ctx context.Context, role string, difficulty domain.Difficulty, topic string, asked []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.QuestionCalls++
	return m.nextQuestionLocked(), nil
}

func (m *Mock) EvaluateAnswer(ctx context.Context, req domain.EvaluationRequest) (domain.AnswerEvaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return domain.AnswerEvaluation{}, m.Err
	}
	m.EvaluationCalls++
	m.LastEvaluationReq = req

	if m.evalIdx < len(m.Evaluations) {
		eval := m.Evaluations[m.evalIdx]
		m.evalIdx++
		return eval, nil
	}

	score := 6
	return domain.AnswerEvaluation{
		Score:           &score,
		Classification:  domain.ClassificationStrong,
		DifficultyTrend: domain.TrendStable,
		NextFocus:       "Move to new topic",
	}, nil
}

func (m *Mock) GenerateNextQuestion(ctx context.Context, req domain.NextQuestionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.QuestionCalls++
	m.LastNextQuestionReq = req
	return m.nextQuestionLocked(), nil
}

func (m *Mock) GenerateFinalFeedback(ctx context.Context, req domain.FinalFeedbackRequest) (domain.FinalFeedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return domain.FinalFeedback{}, m.Err
	}
	m.FinalFeedbackCalls++
	m.LastFinalFeedbackReq = req

	if m.Feedback != nil {
		return m.Feedback.Clone(), nil
	}
	return domain.FinalFeedback{
		OverallScore:    req.MeanScore,
		Strengths:       req.StrongAreas,
		Weaknesses:      req.WeakAreas,
		DifficultyTrend: "stable",
		FinalVerdict:    "Mock verdict.",
	}, nil
}

func (m *Mock) nextQuestionLocked() string {
	if m.questionIdx < len(m.Questions) {
		q := m.Questions[m.questionIdx]
		m.questionIdx++
		return q
	}
	m.questionIdx++
	return fmt.Sprintf("Mock question %d", m.questionIdx)
}
