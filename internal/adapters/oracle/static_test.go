package oracle_test

import (
	"context"
	"testing"

	"github.com/prepwise/interview-agent/internal/adapters/oracle"
	"github.com/prepwise/interview-agent/internal/domain"
)

func TestStaticSkipsAskedQuestions(t *testing.T) {
	ctx := context.Background()
	s, err := oracle.NewStatic()
	if err != nil {
		t.Fatalf("NewStatic failed: %v", err)
	}

	first, err := s.GenerateQuestion(ctx, "Backend Engineer", domain.DifficultyMedium, "General", nil)
	if err != nil {
		t.Fatalf("GenerateQuestion failed: %v", err)
	}

	second, err := s.GenerateQuestion(ctx, "Backend Engineer", domain.DifficultyMedium, "General", []string{first})
	if err != nil {
		t.Fatalf("GenerateQuestion failed: %v", err)
	}
	if second == first {
		t.Fatalf("asked question repeated: %q", second)
	}
}

func TestStaticNextQuestionCycles(t *testing.T) {
	ctx := context.Background()
	s, err := oracle.NewStatic()
	if err != nil {
		t.Fatalf("NewStatic failed: %v", err)
	}

	// The opening question and the follow-ups share the same cursor, so
	// a next question at the same difficulty must not repeat the opening.
	opening, err := s.GenerateQuestion(ctx, "Backend Engineer", domain.DifficultyHard, "General", nil)
	if err != nil {
		t.Fatalf("GenerateQuestion failed: %v", err)
	}

	seen := map[string]bool{opening: true}
	req := domain.NextQuestionRequest{Difficulty: domain.DifficultyHard}
	for i := 0; i < 3; i++ {
		q, err := s.GenerateNextQuestion(ctx, req)
		if err != nil {
			t.Fatalf("GenerateNextQuestion failed: %v", err)
		}
		if q == "" {
			t.Fatalf("empty question from bank")
		}
		if seen[q] {
			t.Fatalf("question repeated before the bank was exhausted: %q", q)
		}
		seen[q] = true
	}
}

func TestStaticEvaluationHeuristic(t *testing.T) {
	ctx := context.Background()
	s, err := oracle.NewStatic()
	if err != nil {
		t.Fatalf("NewStatic failed: %v", err)
	}

	short, err := s.EvaluateAnswer(ctx, domain.EvaluationRequest{Answer: "I do not know."})
	if err != nil {
		t.Fatalf("EvaluateAnswer failed: %v", err)
	}
	if short.Classification != domain.ClassificationWeak {
		t.Fatalf("expected short answer weak, got %s", short.Classification)
	}

	long, err := s.EvaluateAnswer(ctx, domain.EvaluationRequest{
		Answer: "An index is a secondary structure that lets the database locate rows without scanning the whole table, trading extra write work and storage for much faster reads on the indexed columns.",
	})
	if err != nil {
		t.Fatalf("EvaluateAnswer failed: %v", err)
	}
	if long.Classification != domain.ClassificationStrong {
		t.Fatalf("expected substantial answer strong, got %s", long.Classification)
	}
	if long.NextFocus != "Drill down" {
		t.Fatalf("strong answers should drill down, got %q", long.NextFocus)
	}
}

func TestStaticUnknownDifficultyFallsBackToMedium(t *testing.T) {
	ctx := context.Background()
	s, err := oracle.NewStatic()
	if err != nil {
		t.Fatalf("NewStatic failed: %v", err)
	}

	q, err := s.GenerateQuestion(ctx, "Backend Engineer", domain.Difficulty("brutal"), "General", nil)
	if err != nil {
		t.Fatalf("GenerateQuestion failed: %v", err)
	}
	if q == "" {
		t.Fatalf("expected a medium-bank question for unknown difficulty")
	}
}
