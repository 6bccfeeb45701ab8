package oracle

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/prepwise/interview-agent/internal/domain"
)

// Validation boundary for oracle output. Each oracle operation gets one
// function that turns untrusted text into a fully-typed result or a
// named fallback; none of the "guess the JSON" logic leaks past this
// file.

type evaluationWire struct {
	Score           *float64 `json:"score"`
	Classification  string   `json:"classification"`
	CriticalMistake *string  `json:"critical_mistake"`
	DifficultyTrend string   `json:"difficulty_trend"`
	NextFocus       string   `json:"next_focus"`
	StageChange     *string  `json:"stage_change"`
	EndInterview    bool     `json:"end_interview"`
}

type feedbackWire struct {
	OverallScore    *float64 `json:"overall_score"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	DifficultyTrend string   `json:"difficulty_trend"`
	ImprovementTips []string `json:"improvement_tips"`
	FinalVerdict    string   `json:"final_verdict"`
}

// parseEvaluation validates the answer-evaluation response. Unparseable
// input yields the fixed fallback evaluation.
func parseEvaluation(raw string) domain.AnswerEvaluation {
	var wire evaluationWire
	if !decodeJSON(raw, &wire) {
		return domain.FallbackEvaluation()
	}

	eval := domain.AnswerEvaluation{
		Classification:  domain.ParseClassification(strings.ToLower(strings.TrimSpace(wire.Classification))),
		DifficultyTrend: domain.ParseTrend(strings.ToLower(strings.TrimSpace(wire.DifficultyTrend))),
		NextFocus:       strings.TrimSpace(wire.NextFocus),
		EndInterview:    wire.EndInterview,
	}

	if wire.Score != nil {
		score := clampScore(*wire.Score)
		eval.Score = &score
	}
	if wire.CriticalMistake != nil {
		mistake := strings.TrimSpace(*wire.CriticalMistake)
		if mistake != "" && !strings.EqualFold(mistake, "null") && !strings.EqualFold(mistake, "none") {
			eval.CriticalMistake = mistake
		}
	}
	if wire.StageChange != nil {
		if stage, ok := domain.ParseStage(strings.TrimSpace(*wire.StageChange)); ok {
			eval.StageChange = &stage
		}
	}
	if eval.NextFocus == "" {
		eval.NextFocus = "Move to new topic"
	}

	return eval
}

// parseFinalFeedback validates the final-feedback response. Unparseable
// input yields a feedback built from the request's own aggregates.
func parseFinalFeedback(raw string, req domain.FinalFeedbackRequest) domain.FinalFeedback {
	var wire feedbackWire
	if !decodeJSON(raw, &wire) {
		return fallbackFeedback(req)
	}

	fb := domain.FinalFeedback{
		OverallScore:    req.MeanScore,
		Strengths:       wire.Strengths,
		Weaknesses:      wire.Weaknesses,
		DifficultyTrend: normalizeFeedbackTrend(wire.DifficultyTrend),
		ImprovementTips: wire.ImprovementTips,
		FinalVerdict:    strings.TrimSpace(wire.FinalVerdict),
	}
	if wire.OverallScore != nil {
		fb.OverallScore = float64(clampScore(*wire.OverallScore))
	}
	if fb.FinalVerdict == "" {
		return fallbackFeedback(req)
	}
	return fb
}

func fallbackFeedback(req domain.FinalFeedbackRequest) domain.FinalFeedback {
	return domain.FinalFeedback{
		OverallScore:    req.MeanScore,
		Strengths:       append([]string(nil), req.StrongAreas...),
		Weaknesses:      append([]string(nil), req.WeakAreas...),
		DifficultyTrend: "stable",
		FinalVerdict:    "Could not generate detailed feedback.",
		Fallback:        true,
	}
}

// decodeJSON extracts the outermost JSON object from free text and
// decodes it, repairing the payload when a straight decode fails.
func decodeJSON(raw string, v any) bool {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return false
	}
	payload := raw[start : end+1]

	if err := json.Unmarshal([]byte(payload), v); err == nil {
		return true
	}

	repaired, err := jsonrepair.JSONRepair(payload)
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(repaired), v) == nil
}

func clampScore(v float64) int {
	score := int(math.Round(v))
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score
}

func normalizeFeedbackTrend(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "improved":
		return "improved"
	case "declined":
		return "declined"
	default:
		return "stable"
	}
}
