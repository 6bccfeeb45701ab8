package domain

type SessionID string
type QuestionID string

// Author identifies who produced a turn in the interaction log.
type Author string

const (
	AuthorAI   Author = "ai"
	AuthorUser Author = "user"
)

// Stage is the coarse phase of an interview. Stages only ever advance
// in the declared order; an unknown or backward value is held.
type Stage string

const (
	StageTechnicalDeepDive Stage = "technical_deep_dive"
	StageSoftSkills        Stage = "soft_skills"
	StageClosing           Stage = "closing"
)

func (s Stage) rank() int {
	switch s {
	case StageTechnicalDeepDive:
		return 0
	case StageSoftSkills:
		return 1
	case StageClosing:
		return 2
	default:
		return -1
	}
}

// Before reports whether s comes strictly earlier than other in the
// interview progression. Unknown stages are never Before anything.
func (s Stage) Before(other Stage) bool {
	sr, or := s.rank(), other.rank()
	return sr >= 0 && or >= 0 && sr < or
}

// ParseStage maps free text from the oracle onto a known stage.
func ParseStage(v string) (Stage, bool) {
	switch Stage(v) {
	case StageTechnicalDeepDive, StageSoftSkills, StageClosing:
		return Stage(v), true
	default:
		return "", false
	}
}

// Difficulty is an ordered level; the dynamic difficulty moves at most
// one step per turn.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Upgrade returns the next harder level, clamped at hard.
func (d Difficulty) Upgrade() Difficulty {
	switch d {
	case DifficultyEasy:
		return DifficultyMedium
	case DifficultyMedium:
		return DifficultyHard
	default:
		return d
	}
}

// Downgrade returns the next easier level, clamped at easy.
func (d Difficulty) Downgrade() Difficulty {
	switch d {
	case DifficultyHard:
		return DifficultyMedium
	case DifficultyMedium:
		return DifficultyEasy
	default:
		return d
	}
}

// ParseDifficulty defaults to medium for unknown input.
func ParseDifficulty(v string) Difficulty {
	switch Difficulty(v) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(v)
	default:
		return DifficultyMedium
	}
}

// DifficultyTrend is the oracle's per-turn verdict on where the
// difficulty should move.
type DifficultyTrend string

const (
	TrendUpgrade   DifficultyTrend = "upgrade"
	TrendDowngrade DifficultyTrend = "downgrade"
	TrendStable    DifficultyTrend = "stable"
)

// ParseTrend defaults to stable for unknown input, which keeps the
// difficulty unchanged.
func ParseTrend(v string) DifficultyTrend {
	switch DifficultyTrend(v) {
	case TrendUpgrade, TrendDowngrade, TrendStable:
		return DifficultyTrend(v)
	default:
		return TrendStable
	}
}

// Classification is the oracle's strong/weak call on a single answer.
type Classification string

const (
	ClassificationStrong Classification = "strong"
	ClassificationWeak   Classification = "weak"
)

// ParseClassification defaults to weak for unknown input.
func ParseClassification(v string) Classification {
	switch Classification(v) {
	case ClassificationStrong, ClassificationWeak:
		return Classification(v)
	default:
		return ClassificationWeak
	}
}

// Status of a session. The transition in_progress -> completed happens
// exactly once; completed is terminal.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)
