package oracle

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/prepwise/interview-agent/internal/domain"
)

// GeminiClient implements domain.OracleClient on Vertex AI (Gemini).
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates the Vertex AI oracle.
func NewGeminiClient(ctx context.Context, projectID, location, modelName string) (*GeminiClient, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("projectID and location are required for the Gemini oracle")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// GenerateQuestion asks for the opening question of an interview.
func (g *GeminiClient) GenerateQuestion(ctx context.Context, role string, difficulty domain.Difficulty, topic string, asked []string) (string, error) {
	text, err := g.generate(ctx, buildOpeningQuestionPrompt(role, difficulty, topic, asked), "Generate the question.")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// EvaluateAnswer scores an answer. Malformed output resolves to the
// fixed fallback evaluation instead of an error.
func (g *GeminiClient) EvaluateAnswer(ctx context.Context, req domain.EvaluationRequest) (domain.AnswerEvaluation, error) {
	text, err := g.generate(ctx, buildEvaluationPrompt(req), "Generate the JSON evaluation.")
	if err != nil {
		return domain.AnswerEvaluation{}, err
	}
	return parseEvaluation(text), nil
}

// GenerateNextQuestion asks for the next question, steered by the
// directive.
func (g *GeminiClient) GenerateNextQuestion(ctx context.Context, req domain.NextQuestionRequest) (string, error) {
	text, err := g.generate(ctx, buildNextQuestionPrompt(req), "Ask the question.")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// GenerateFinalFeedback asks for the closing verdict. Malformed output
// resolves to a feedback built from the request's aggregates.
func (g *GeminiClient) GenerateFinalFeedback(ctx context.Context, req domain.FinalFeedbackRequest) (domain.FinalFeedback, error) {
	text, err := g.generate(ctx, buildFinalFeedbackPrompt(req), "Generate the final feedback JSON.")
	if err != nil {
		return domain.FinalFeedback{}, err
	}
	return parseFinalFeedback(text, req), nil
}

func (g *GeminiClient) generate(ctx context.Context, system, user string) (string, error) {
	temp := float32(0.7)
	topP := float32(0.9)
	outputTokens := int32(2048)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   outputTokens,
	}

	contents := []*genai.Content{
		genai.NewContentFromText(user, genai.RoleUser),
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}
