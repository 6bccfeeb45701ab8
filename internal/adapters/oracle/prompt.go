package oracle

import (
	"fmt"
	"strings"

	"github.com/prepwise/interview-agent/internal/domain"
)

// Prompt builders for the four oracle operations. The oracle receives
// plain text and is asked for plain text or JSON-only output; anything
// it returns is still treated as untrusted and goes through parse.go.

func buildOpeningQuestionPrompt(role string, difficulty domain.Difficulty, topic string, asked []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional technical interviewer looking to hire a %s.\n", role)
	fmt.Fprintf(&b, "Generate a single %s difficulty interview question about %s.\n", difficulty, topic)
	b.WriteString("Rules:\n")
	b.WriteString("1. Ask ONLY the question. No greetings.\n")
	b.WriteString("2. Keep it concise.\n")
	if len(asked) > 0 {
		fmt.Fprintf(&b, "3. Do not repeat: %s\n", strings.Join(asked, "; "))
	}
	return b.String()
}

func buildEvaluationPrompt(req domain.EvaluationRequest) string {
	var b strings.Builder
	b.WriteString("You are evaluating a user's interview answer.\n\n")
	b.WriteString("INPUT:\n")
	fmt.Fprintf(&b, "- Role: %s\n", req.Role)
	fmt.Fprintf(&b, "- Current Difficulty: %s\n", req.Difficulty)
	fmt.Fprintf(&b, "- Current Stage: %s\n", req.Stage)
	fmt.Fprintf(&b, "- Question Count: %d\n", req.QuestionCount)
	fmt.Fprintf(&b, "- Weak Areas: %s\n", strings.Join(req.WeakAreas, ", "))
	fmt.Fprintf(&b, "- Strong Areas: %s\n", strings.Join(req.StrongAreas, ", "))
	fmt.Fprintf(&b, "- Question: %s\n", req.Question)
	fmt.Fprintf(&b, "- User Answer: %s\n\n", req.Answer)
	b.WriteString("TASK:\n")
	b.WriteString("1. Score the answer from 1 to 10.\n")
	b.WriteString("2. Mark the answer as Strong or Weak.\n")
	b.WriteString("3. Identify ONE critical mistake if any.\n")
	b.WriteString("4. Decide difficulty trend: upgrade | downgrade | stable.\n")
	b.WriteString("5. Decide next action: Drill down on same topic | Move to new topic.\n")
	b.WriteString("6. Decide if the interview stage should change.\n")
	b.WriteString("7. Decide if the interview should end.\n\n")
	b.WriteString("OUTPUT (JSON ONLY):\n")
	b.WriteString(`{
  "score": number,
  "classification": "strong | weak",
  "critical_mistake": "string | null",
  "difficulty_trend": "upgrade | downgrade | stable",
  "next_focus": "string",
  "stage_change": "technical_deep_dive | soft_skills | closing | null",
  "end_interview": true | false
}`)
	return b.String()
}

func buildNextQuestionPrompt(req domain.NextQuestionRequest) string {
	var b strings.Builder
	b.WriteString("You are a human-like technical interviewer.\n\n")
	b.WriteString("INPUT:\n")
	fmt.Fprintf(&b, "- Role: %s\n", req.Role)
	fmt.Fprintf(&b, "- Difficulty: %s\n", req.Difficulty)
	fmt.Fprintf(&b, "- Stage: %s\n", req.Stage)
	fmt.Fprintf(&b, "- Weak Areas: %s\n", strings.Join(req.WeakAreas, ", "))
	fmt.Fprintf(&b, "- Strong Areas: %s\n", strings.Join(req.StrongAreas, ", "))
	fmt.Fprintf(&b, "- Directive: %s\n\n", req.Directive)
	b.WriteString("RULES:\n")
	b.WriteString("- Ask ONE question only.\n")
	b.WriteString("- If the directive says \"Drill down\", ask a follow-up on the same topic.\n")
	b.WriteString("- Otherwise, ask a question on a new topic.\n")
	b.WriteString("- Match depth to difficulty and stage.\n\n")
	b.WriteString("OUTPUT:\nNext interview question (plain text only).")
	return b.String()
}

func buildFinalFeedbackPrompt(req domain.FinalFeedbackRequest) string {
	nonVerbal := "No webcam data available."
	if req.NonVerbal != nil {
		nonVerbal = fmt.Sprintf(
			"Average eye contact: %.2f, average head stability: %.2f (over %d samples).",
			req.NonVerbal.AvgEyeContact, req.NonVerbal.AvgHeadStability, req.NonVerbal.Samples,
		)
	}

	var b strings.Builder
	b.WriteString("You are a senior technical interviewer giving final feedback.\n\n")
	b.WriteString("INPUT DATA:\n")
	fmt.Fprintf(&b, "- Role: %s\n", req.Role)
	fmt.Fprintf(&b, "- Interview Difficulty Range: %s\n", req.DifficultySummary)
	fmt.Fprintf(&b, "- Total Questions Asked: %d\n\n", req.QuestionCount)
	b.WriteString("PERFORMANCE SUMMARY:\n")
	fmt.Fprintf(&b, "- Strong Areas: %s\n", strings.Join(req.StrongAreas, ", "))
	fmt.Fprintf(&b, "- Weak Areas: %s\n", strings.Join(req.WeakAreas, ", "))
	fmt.Fprintf(&b, "- Critical Mistakes: %s\n", strings.Join(req.CriticalMistakes, "; "))
	fmt.Fprintf(&b, "- Average Score: %.1f\n\n", req.MeanScore)
	b.WriteString("NON-VERBAL BEHAVIOR:\n")
	b.WriteString(nonVerbal)
	b.WriteString("\n\nTASK:\n")
	b.WriteString("1. Give an overall interview score (1-10).\n")
	b.WriteString("2. List top 2-3 strengths.\n")
	b.WriteString("3. List top 2-3 weaknesses. If non-verbal behavior suggested nervousness (low eye contact, high movement), mention it gently.\n")
	b.WriteString("4. Comment on difficulty trend (improved / stable / declined).\n")
	b.WriteString("5. Give 2-3 actionable improvement tips.\n")
	b.WriteString("6. Give a final verdict about readiness for the role.\n\n")
	b.WriteString("OUTPUT (JSON ONLY):\n")
	b.WriteString(`{
  "overall_score": number,
  "strengths": ["..."],
  "weaknesses": ["..."],
  "difficulty_trend": "improved | stable | declined",
  "improvement_tips": ["...", "..."],
  "final_verdict": "string"
}`)
	return b.String()
}
