package interview

import (
	"strings"

	"github.com/prepwise/interview-agent/internal/domain"
)

// applyEvaluation folds one answer evaluation into the session state.
// This is the only place session state moves during a turn.
func applyEvaluation(s *domain.Session, eval domain.AnswerEvaluation) {
	s.QuestionCount++

	next := s.DynamicDifficulty
	switch eval.DifficultyTrend {
	case domain.TrendUpgrade:
		next = s.DynamicDifficulty.Upgrade()
	case domain.TrendDowngrade:
		next = s.DynamicDifficulty.Downgrade()
	case domain.TrendStable:
		// unchanged
	}
	if next != s.DynamicDifficulty {
		s.DynamicDifficulty = next
		s.DifficultyHistory = append(s.DifficultyHistory, next)
	}

	// The oracle's topical directive is the only per-turn label
	// available, so it doubles as the area signal. Appends only; the
	// profile is a history of signals, not a deduplicated assessment.
	area := strings.TrimSpace(eval.NextFocus)
	if area == "" {
		area = string(s.Stage)
	}
	switch eval.Classification {
	case domain.ClassificationStrong:
		s.Profile.StrongAreas = append(s.Profile.StrongAreas, area)
	case domain.ClassificationWeak:
		s.Profile.WeakAreas = append(s.Profile.WeakAreas, area)
	}

	if eval.CriticalMistake != "" {
		s.Profile.CriticalMistakes = append(s.Profile.CriticalMistakes, eval.CriticalMistake)
	}

	// Stages only move forward; anything else is held.
	if eval.StageChange != nil && s.Stage.Before(*eval.StageChange) {
		s.Stage = *eval.StageChange
	}

	s.NextFocus = eval.NextFocus
}
