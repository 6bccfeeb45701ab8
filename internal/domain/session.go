package domain

import "time"

// NonVerbalMetrics carries the webcam-derived signal attached to a
// single user turn. Scores are normalized to [0,1].
type NonVerbalMetrics struct {
	EyeContactScore    float64 `json:"eye_contact_score"`
	HeadStabilityScore float64 `json:"head_stability_score"`
}

// NonVerbalAggregate averages metrics over the turns that carried them.
type NonVerbalAggregate struct {
	AvgEyeContact    float64 `json:"avg_eye_contact"`
	AvgHeadStability float64 `json:"avg_head_stability"`
	Samples          int     `json:"samples"`
}

// Turn is one entry in the interaction log. Metrics is only ever set on
// user turns.
type Turn struct {
	Author    Author            `json:"author"`
	Content   string            `json:"content"`
	Metrics   *NonVerbalMetrics `json:"metrics,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// PerformanceProfile accumulates the oracle's per-answer signals over a
// session. Area lists are a history of signals: appends only, repeats
// allowed.
type PerformanceProfile struct {
	StrongAreas      []string `json:"strong_areas"`
	WeakAreas        []string `json:"weak_areas"`
	CriticalMistakes []string `json:"critical_mistakes"`
}

// Session is the per-interview mutable record. Role, Topic and
// InitialDifficulty are fixed at creation; everything else is driven by
// the evaluation reducer.
type Session struct {
	ID    SessionID
	Role  string
	Topic string

	InitialDifficulty Difficulty
	DynamicDifficulty Difficulty
	DifficultyHistory []Difficulty

	Stage         Stage
	QuestionCount int
	Profile       PerformanceProfile
	NextFocus     string
	Log           []Turn

	Status        Status
	FinalFeedback *FinalFeedback

	CreatedAt   time.Time
	CompletedAt *time.Time
}

// NewSession is the single constructor for fresh session state; callers
// that find a session without a state blob rebuild it through here.
func NewSession(id SessionID, role string, difficulty Difficulty, topic string, now time.Time) *Session {
	return &Session{
		ID:                id,
		Role:              role,
		Topic:             topic,
		InitialDifficulty: difficulty,
		DynamicDifficulty: difficulty,
		DifficultyHistory: []Difficulty{difficulty},
		Stage:             StageTechnicalDeepDive,
		Status:            StatusInProgress,
		CreatedAt:         now,
	}
}

// Completed reports whether the session is sealed.
func (s *Session) Completed() bool {
	return s.Status == StatusCompleted
}

// LastQuestion returns the content of the most recent AI turn, which is
// the question under evaluation for an incoming answer.
func (s *Session) LastQuestion() (string, bool) {
	for i := len(s.Log) - 1; i >= 0; i-- {
		if s.Log[i].Author == AuthorAI {
			return s.Log[i].Content, true
		}
	}
	return "", false
}

// AppendTurn adds an entry to the interaction log.
func (s *Session) AppendTurn(author Author, content string, metrics *NonVerbalMetrics, at time.Time) {
	s.Log = append(s.Log, Turn{
		Author:    author,
		Content:   content,
		Metrics:   metrics,
		CreatedAt: at,
	})
}

// NonVerbalSummary averages metrics across log entries that carry them.
// Entries without metrics are skipped entirely; with zero carriers the
// result is nil, not zero.
func (s *Session) NonVerbalSummary() *NonVerbalAggregate {
	var sumEye, sumStab float64
	var n int
	for _, t := range s.Log {
		if t.Metrics == nil {
			continue
		}
		sumEye += t.Metrics.EyeContactScore
		sumStab += t.Metrics.HeadStabilityScore
		n++
	}
	if n == 0 {
		return nil
	}
	return &NonVerbalAggregate{
		AvgEyeContact:    sumEye / float64(n),
		AvgHeadStability: sumStab / float64(n),
		Samples:          n,
	}
}

// DifficultySummary renders the difficulty trajectory for the final
// feedback prompt, e.g. "medium -> hard".
func (s *Session) DifficultySummary() string {
	if len(s.DifficultyHistory) == 0 {
		return string(s.DynamicDifficulty)
	}
	out := string(s.DifficultyHistory[0])
	for _, d := range s.DifficultyHistory[1:] {
		out += " -> " + string(d)
	}
	return out
}

// Clone returns a deep copy so stores can hand out sessions without
// sharing mutable slices with callers.
func (s *Session) Clone() *Session {
	cp := *s

	cp.DifficultyHistory = append([]Difficulty(nil), s.DifficultyHistory...)
	cp.Profile.StrongAreas = append([]string(nil), s.Profile.StrongAreas...)
	cp.Profile.WeakAreas = append([]string(nil), s.Profile.WeakAreas...)
	cp.Profile.CriticalMistakes = append([]string(nil), s.Profile.CriticalMistakes...)

	cp.Log = make([]Turn, len(s.Log))
	for i, t := range s.Log {
		cp.Log[i] = t
		if t.Metrics != nil {
			m := *t.Metrics
			cp.Log[i].Metrics = &m
		}
	}

	if s.FinalFeedback != nil {
		fb := s.FinalFeedback.Clone()
		cp.FinalFeedback = &fb
	}
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}
