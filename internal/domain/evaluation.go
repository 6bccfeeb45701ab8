package domain

// AnswerEvaluation is the structured result of the oracle's
// answer-evaluation operation, after the validation boundary has run.
// Fallback marks values that were substituted for malformed oracle
// output; it is surfaced in logs so oracle reliability can be audited.
type AnswerEvaluation struct {
	Score           *int
	Classification  Classification
	CriticalMistake string
	DifficultyTrend DifficultyTrend
	NextFocus       string
	StageChange     *Stage
	EndInterview    bool
	Fallback        bool
}

// FallbackEvaluation is the fixed evaluation used when the oracle's
// output cannot be parsed. The interview keeps moving on a neutral
// score and a topic change.
func FallbackEvaluation() AnswerEvaluation {
	score := 5
	return AnswerEvaluation{
		Score:           &score,
		Classification:  ClassificationWeak,
		DifficultyTrend: TrendStable,
		NextFocus:       "Move to new topic",
		Fallback:        true,
	}
}

// FinalFeedback is the structured result of the oracle's final-feedback
// operation.
type FinalFeedback struct {
	OverallScore    float64  `json:"overall_score"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	DifficultyTrend string   `json:"difficulty_trend"`
	ImprovementTips []string `json:"improvement_tips"`
	FinalVerdict    string   `json:"final_verdict"`
	Fallback        bool     `json:"fallback,omitempty"`
}

// Clone returns a deep copy of the feedback.
func (f FinalFeedback) Clone() FinalFeedback {
	cp := f
	cp.Strengths = append([]string(nil), f.Strengths...)
	cp.Weaknesses = append([]string(nil), f.Weaknesses...)
	cp.ImprovementTips = append([]string(nil), f.ImprovementTips...)
	return cp
}

// FallbackFeedback builds a final feedback from the session's own
// aggregates when the oracle's output cannot be parsed.
func FallbackFeedback(meanScore float64, profile PerformanceProfile) FinalFeedback {
	return FinalFeedback{
		OverallScore:    meanScore,
		Strengths:       append([]string(nil), profile.StrongAreas...),
		Weaknesses:      append([]string(nil), profile.WeakAreas...),
		DifficultyTrend: "stable",
		FinalVerdict:    "Could not generate detailed feedback.",
		Fallback:        true,
	}
}

// EvaluationRequest is the engine's input to the answer-evaluation
// operation.
type EvaluationRequest struct {
	Role          string
	Difficulty    Difficulty
	Stage         Stage
	QuestionCount int
	WeakAreas     []string
	StrongAreas   []string
	Question      string
	Answer        string
}

// NextQuestionRequest steers the next question. Directive semantics:
// "drill down" asks a follow-up on the same topic, anything else moves
// to a new topic. The engine does not verify the oracle honored it.
type NextQuestionRequest struct {
	Role        string
	Difficulty  Difficulty
	Stage       Stage
	WeakAreas   []string
	StrongAreas []string
	Directive   string
}

// FinalFeedbackRequest is the engine's input to the final-feedback
// operation. NonVerbal is nil when no turn carried metrics.
type FinalFeedbackRequest struct {
	Role              string
	DifficultySummary string
	QuestionCount     int
	StrongAreas       []string
	WeakAreas         []string
	CriticalMistakes  []string
	MeanScore         float64
	NonVerbal         *NonVerbalAggregate
}
