package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

type geminiGenerator struct {
	client *genai.GenerativeModel
}

func newGeminiGenerator(apiKey, modelName string) (*geminiGenerator, error) {
	if apiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Question generation will be unavailable.")
		return &geminiGenerator{client: nil}, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	return &geminiGenerator{client: model}, nil
}

func (g *geminiGenerator) Name() string { return "gemini" }

func (g *geminiGenerator) Generate(ctx context.Context, req GenerationRequest) (*rawBatch, error) {
	if g.client == nil {
		return nil, apperror.UpstreamUnavailable(nil, "question generator is not configured")
	}

	resp, err := g.client.GenerateContent(ctx, genai.Text(buildGenerationPrompt(req)))
	if err != nil {
		if ctx.Err() != nil {
			return nil, upstreamError(ctx, err, "question generator")
		}
		return nil, apperror.UpstreamFailure(err, "question generator request failed")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, apperror.UpstreamFailure(nil, "question generator returned no content")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	var batch rawBatch
	if err := json.Unmarshal([]byte(stripCodeFence(sb.String())), &batch); err != nil {
		log.Warn().Err(err).Str("raw", sb.String()).Msg("Failed to parse Gemini question payload")
		return nil, apperror.UpstreamFailure(err, "question generator returned malformed JSON")
	}
	return &batch, nil
}

func buildGenerationPrompt(req GenerationRequest) string {
	var b strings.Builder
	b.WriteString("You are an assessment author writing multiple-choice questions for a skills test.\n")
	b.WriteString(fmt.Sprintf("Write %d %s-difficulty questions about the following material:\n---\n", req.NumQuestions, req.Difficulty))
	b.WriteString(req.Text)
	b.WriteString("\n---\n\n")
	b.WriteString("Each question must have exactly four options and exactly one correct answer.\n")
	b.WriteString(`Respond with JSON only, in this shape:
{"questions":[{"question":"...","options":["...","...","...","..."],"answer":1,"explanation":"..."}]}
where "answer" is the 1-based index of the correct option.`)
	return b.String()
}

// stripCodeFence removes a ```json ... ``` wrapper if the model added one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
