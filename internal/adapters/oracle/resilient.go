package oracle

import (
	"context"

	"github.com/prepwise/interview-agent/internal/domain"
	"github.com/prepwise/interview-agent/internal/observability"
)

// Resilient falls back to a secondary oracle when the primary fails to
// produce a question. Evaluation and feedback pass through untouched:
// the engine already substitutes deterministic fallbacks for those.
type Resilient struct {
	primary  domain.OracleClient
	fallback domain.OracleClient
}

func NewResilient(primary, fallback domain.OracleClient) *Resilient {
	return &Resilient{
		primary:  primary,
		fallback: fallback,
	}
}

func (r *Resilient) GenerateQuestion(ctx context.Context, role string, difficulty domain.Difficulty, topic string, asked []string) (string, error) {
	q, err := r.primary.GenerateQuestion(ctx, role, difficulty, topic, asked)
	if err == nil {
		return q, nil
	}
	observability.OracleFallback(ctx, "generate_question", err.Error())
	return r.fallback.GenerateQuestion(ctx, role, difficulty, topic, asked)
}

func (r *Resilient) EvaluateAnswer(ctx context.Context, req domain.EvaluationRequest) (domain.AnswerEvaluation, error) {
	return r.primary.EvaluateAnswer(ctx, req)
}

func (r *Resilient) GenerateNextQuestion(ctx context.Context, req domain.NextQuestionRequest) (string, error) {
	q, err := r.primary.GenerateNextQuestion(ctx, req)
	if err == nil {
		return q, nil
	}
	observability.OracleFallback(ctx, "generate_next_question", err.Error())
	return r.fallback.GenerateNextQuestion(ctx, req)
}

func (r *Resilient) GenerateFinalFeedback(ctx context.Context, req domain.FinalFeedbackRequest) (domain.FinalFeedback, error) {
	return r.primary.GenerateFinalFeedback(ctx, req)
}
