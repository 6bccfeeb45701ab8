package oracle

import (
	"testing"

	"github.com/prepwise/interview-agent/internal/domain"
)

func TestParseEvaluationValid(t *testing.T) {
	raw := `Here is my assessment:
{"score": 8, "classification": "strong", "critical_mistake": null, "difficulty_trend": "upgrade", "next_focus": "Drill down", "stage_change": "soft_skills", "end_interview": false}
Hope that helps!`

	eval := parseEvaluation(raw)

	if eval.Fallback {
		t.Fatalf("valid payload must not fall back")
	}
	if eval.Score == nil || *eval.Score != 8 {
		t.Fatalf("expected score 8, got %v", eval.Score)
	}
	if eval.Classification != domain.ClassificationStrong {
		t.Fatalf("expected strong, got %s", eval.Classification)
	}
	if eval.DifficultyTrend != domain.TrendUpgrade {
		t.Fatalf("expected upgrade, got %s", eval.DifficultyTrend)
	}
	if eval.StageChange == nil || *eval.StageChange != domain.StageSoftSkills {
		t.Fatalf("expected stage change to soft_skills, got %v", eval.StageChange)
	}
	if eval.CriticalMistake != "" {
		t.Fatalf("null critical mistake must be dropped, got %q", eval.CriticalMistake)
	}
}

func TestParseEvaluationMalformedFallsBack(t *testing.T) {
	for _, raw := range []string{
		"",
		"I cannot answer in JSON, sorry.",
		"{{{{",
	} {
		eval := parseEvaluation(raw)
		if !eval.Fallback {
			t.Fatalf("expected fallback for %q", raw)
		}
		if eval.Score == nil || *eval.Score != 5 {
			t.Fatalf("expected fallback score 5 for %q, got %v", raw, eval.Score)
		}
		if eval.NextFocus != "Move to new topic" {
			t.Fatalf("expected topic-change directive for %q, got %q", raw, eval.NextFocus)
		}
	}
}

func TestParseEvaluationRepairsSloppyJSON(t *testing.T) {
	// trailing comma and single quotes, typical model sloppiness
	raw := `{'score': 7, 'classification': 'strong', 'difficulty_trend': 'stable', 'next_focus': 'Drill down',}`

	eval := parseEvaluation(raw)

	if eval.Fallback {
		t.Fatalf("repairable payload must not fall back")
	}
	if eval.Score == nil || *eval.Score != 7 {
		t.Fatalf("expected score 7, got %v", eval.Score)
	}
}

func TestParseEvaluationUnknownEnumsDefault(t *testing.T) {
	raw := `{"score": 4.6, "classification": "meh", "difficulty_trend": "sideways", "next_focus": ""}`

	eval := parseEvaluation(raw)

	if eval.Classification != domain.ClassificationWeak {
		t.Fatalf("unknown classification should default weak, got %s", eval.Classification)
	}
	if eval.DifficultyTrend != domain.TrendStable {
		t.Fatalf("unknown trend should default stable, got %s", eval.DifficultyTrend)
	}
	if eval.Score == nil || *eval.Score != 5 {
		t.Fatalf("expected 4.6 rounded to 5, got %v", eval.Score)
	}
	if eval.NextFocus != "Move to new topic" {
		t.Fatalf("empty next focus should default, got %q", eval.NextFocus)
	}
}

func TestParseEvaluationClampsScore(t *testing.T) {
	eval := parseEvaluation(`{"score": 42, "classification": "strong", "difficulty_trend": "stable", "next_focus": "x"}`)
	if eval.Score == nil || *eval.Score != 10 {
		t.Fatalf("expected clamp to 10, got %v", eval.Score)
	}

	eval = parseEvaluation(`{"score": -3, "classification": "weak", "difficulty_trend": "stable", "next_focus": "x"}`)
	if eval.Score == nil || *eval.Score != 1 {
		t.Fatalf("expected clamp to 1, got %v", eval.Score)
	}
}

func TestParseFinalFeedbackValid(t *testing.T) {
	req := domain.FinalFeedbackRequest{MeanScore: 6.5}
	raw := `{"overall_score": 7, "strengths": ["SQL"], "weaknesses": ["Networking"], "difficulty_trend": "improved", "improvement_tips": ["Practice systems design"], "final_verdict": "Promising."}`

	fb := parseFinalFeedback(raw, req)

	if fb.Fallback {
		t.Fatalf("valid payload must not fall back")
	}
	if fb.OverallScore != 7 {
		t.Fatalf("expected overall score 7, got %v", fb.OverallScore)
	}
	if fb.DifficultyTrend != "improved" {
		t.Fatalf("expected improved, got %s", fb.DifficultyTrend)
	}
	if fb.FinalVerdict != "Promising." {
		t.Fatalf("unexpected verdict %q", fb.FinalVerdict)
	}
}

func TestParseFinalFeedbackMissingVerdictFallsBack(t *testing.T) {
	req := domain.FinalFeedbackRequest{
		MeanScore:   5.5,
		StrongAreas: []string{"Go"},
		WeakAreas:   []string{"SQL"},
	}

	fb := parseFinalFeedback(`{"overall_score": 9}`, req)

	if !fb.Fallback {
		t.Fatalf("feedback without a verdict must fall back")
	}
	if fb.OverallScore != 5.5 {
		t.Fatalf("fallback must use the session mean, got %v", fb.OverallScore)
	}
	if len(fb.Strengths) != 1 || fb.Strengths[0] != "Go" {
		t.Fatalf("fallback must carry the profile strengths, got %v", fb.Strengths)
	}
}
