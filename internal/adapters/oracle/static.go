package oracle

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/prepwise/interview-agent/internal/domain"
)

//go:embed questions.yaml
var questionBankYAML []byte

type bankQuestion struct {
	Question string `yaml:"question"`
	Category string `yaml:"category"`
}

type questionBank struct {
	Easy   []bankQuestion `yaml:"easy"`
	Medium []bankQuestion `yaml:"medium"`
	Hard   []bankQuestion `yaml:"hard"`
}

// Static is an offline oracle backed by the embedded question bank. It
// keeps interviews running when no model is reachable: questions come
// from the bank, evaluation is a coarse length heuristic, and final
// feedback is assembled from the session's own aggregates.
type Static struct {
	mu     sync.Mutex
	bank   map[domain.Difficulty][]bankQuestion
	cursor map[domain.Difficulty]int
}

func NewStatic() (*Static, error) {
	var parsed questionBank
	if err := yaml.Unmarshal(questionBankYAML, &parsed); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	bank := map[domain.Difficulty][]bankQuestion{
		domain.DifficultyEasy:   parsed.Easy,
		domain.DifficultyMedium: parsed.Medium,
		domain.DifficultyHard:   parsed.Hard,
	}
	for d, qs := range bank {
		if len(qs) == 0 {
			return nil, fmt.Errorf("question bank has no %s questions", d)
		}
	}

	return &Static{
		bank:   bank,
		cursor: make(map[domain.Difficulty]int),
	}, nil
}

// GenerateQuestion picks the first bank question of the requested
// difficulty that has not been asked yet, and moves the cursor past it
// so follow-up questions never repeat the opening.
func (s *Static) GenerateQuestion(ctx context.Context, role string, difficulty domain.Difficulty, topic string, asked []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := difficulty
	if _, ok := s.bank[d]; !ok {
		d = domain.DifficultyMedium
	}
	for i, q := range s.bank[d] {
		if contains(asked, q.Question) {
			continue
		}
		if s.cursor[d] <= i {
			s.cursor[d] = i + 1
		}
		return q.Question, nil
	}
	return s.nextLocked(d), nil
}

// EvaluateAnswer applies a coarse length heuristic: very short answers
// are weak, substantial ones strong. It never ends the interview.
func (s *Static) EvaluateAnswer(ctx context.Context, req domain.EvaluationRequest) (domain.AnswerEvaluation, error) {
	words := len(strings.Fields(req.Answer))

	score := 4
	classification := domain.ClassificationWeak
	focus := "Move to new topic"
	if words >= 20 {
		score = 7
		classification = domain.ClassificationStrong
		focus = "Drill down"
	}

	return domain.AnswerEvaluation{
		Score:           &score,
		Classification:  classification,
		DifficultyTrend: domain.TrendStable,
		NextFocus:       focus,
	}, nil
}

// GenerateNextQuestion cycles through the bank at the requested
// difficulty; the directive cannot be honored without a model.
func (s *Static) GenerateNextQuestion(ctx context.Context, req domain.NextQuestionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLocked(req.Difficulty), nil
}

// GenerateFinalFeedback assembles feedback from the request aggregates.
func (s *Static) GenerateFinalFeedback(ctx context.Context, req domain.FinalFeedbackRequest) (domain.FinalFeedback, error) {
	verdict := "Keep practicing and focus on the weak areas listed above."
	if req.MeanScore >= 7 {
		verdict = "Solid performance; you are close to ready for this role."
	}

	return domain.FinalFeedback{
		OverallScore:    req.MeanScore,
		Strengths:       append([]string(nil), req.StrongAreas...),
		Weaknesses:      append([]string(nil), req.WeakAreas...),
		DifficultyTrend: "stable",
		ImprovementTips: []string{
			"Structure answers around concrete examples.",
			"State trade-offs explicitly when comparing approaches.",
		},
		FinalVerdict: verdict,
	}, nil
}

func (s *Static) questions(d domain.Difficulty) []bankQuestion {
	if qs, ok := s.bank[d]; ok {
		return qs
	}
	return s.bank[domain.DifficultyMedium]
}

func (s *Static) nextLocked(d domain.Difficulty) string {
	qs := s.questions(d)
	if _, ok := s.bank[d]; !ok {
		d = domain.DifficultyMedium
	}
	q := qs[s.cursor[d]%len(qs)]
	s.cursor[d]++
	return q.Question
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
