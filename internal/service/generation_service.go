package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lshigami/Assessa/config"
	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/rs/zerolog/log"
)

const (
	defaultNumQuestions = 5
	defaultDifficulty   = "medium"
	questionTypeMCQ     = "MCQ"
)

// GenerationRequest is what a QuestionGenerator receives after defaults are applied.
type GenerationRequest struct {
	Text         string
	NumQuestions int
	Difficulty   string
}

// rawBatch is the loosely typed payload produced by generators. Field shapes
// vary between providers, so options and answers stay raw until normalized.
type rawBatch struct {
	Questions      []rawQuestion `json:"questions"`
	GenerationTime float64       `json:"generation_time"`
	Cached         bool          `json:"cached"`
	Message        string        `json:"message"`
	Error          string        `json:"error"`
}

type rawQuestion struct {
	Question    string          `json:"question"`
	Text        string          `json:"text"`
	Options     json.RawMessage `json:"options"`
	Choices     json.RawMessage `json:"choices"`
	Answer      json.RawMessage `json:"answer"`
	Explanation string          `json:"explanation"`
}

type rawOption struct {
	Text       string `json:"text"`
	IsCorrect  bool   `json:"isCorrect"`
	IsCorrect2 bool   `json:"is_correct"`
}

type QuestionGenerator interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (*rawBatch, error)
}

type GenerationService interface {
	GenerateQuestions(ctx context.Context, req dto.GenerateQuestionsRequest) (*dto.GenerateQuestionsResponse, error)
}

type generationService struct {
	generator QuestionGenerator
	timeout   time.Duration
}

// NewGenerationService picks the generator named by AI_PROVIDER.
func NewGenerationService(cfg *config.Config) (GenerationService, error) {
	var gen QuestionGenerator
	switch cfg.AI.Provider {
	case "", "http":
		gen = newHTTPGenerator(cfg.AI.ServiceURL, cfg.AI.Timeout)
	case "gemini":
		g, err := newGeminiGenerator(cfg.AI.GeminiApiKey, cfg.AI.GeminiModel)
		if err != nil {
			return nil, err
		}
		gen = g
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.AI.Provider)
	}
	log.Info().Str("provider", gen.Name()).Dur("timeout", cfg.AI.Timeout).Msg("Question generator configured")
	return newGenerationService(gen, cfg.AI.Timeout), nil
}

func newGenerationService(gen QuestionGenerator, timeout time.Duration) *generationService {
	return &generationService{generator: gen, timeout: timeout}
}

func (s *generationService) GenerateQuestions(ctx context.Context, req dto.GenerateQuestionsRequest) (*dto.GenerateQuestionsResponse, error) {
	genReq := GenerationRequest{
		Text:         strings.TrimSpace(req.Text),
		NumQuestions: req.NumQuestions,
		Difficulty:   strings.ToLower(strings.TrimSpace(req.Difficulty)),
	}
	if genReq.Text == "" {
		return nil, apperror.Validation("text is required")
	}
	if genReq.NumQuestions <= 0 {
		genReq.NumQuestions = defaultNumQuestions
	}
	if genReq.Difficulty == "" {
		genReq.Difficulty = defaultDifficulty
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	batch, err := s.generator.Generate(ctx, genReq)
	if err != nil {
		log.Error().Err(err).Str("provider", s.generator.Name()).Dur("elapsed", time.Since(started)).Msg("Question generation failed")
		return nil, err
	}

	questions := normalizeQuestions(batch.Questions)
	if len(questions) == 0 {
		msg := batch.Error
		if msg == "" {
			msg = batch.Message
		}
		return nil, apperror.UpstreamFailure(nil, "question generator returned no usable questions").WithDetails(nonEmpty(msg)...)
	}
	if len(questions) < len(batch.Questions) {
		log.Warn().Int("received", len(batch.Questions)).Int("kept", len(questions)).Msg("Dropped malformed generated questions")
	}

	genTime := batch.GenerationTime
	if genTime == 0 {
		genTime = roundTo1(time.Since(started).Seconds())
	}
	return &dto.GenerateQuestionsResponse{
		Questions:      questions,
		Count:          len(questions),
		GenerationTime: genTime,
		Cached:         batch.Cached,
		Provider:       s.generator.Name(),
	}, nil
}

func normalizeQuestions(raw []rawQuestion) []dto.QuestionInput {
	out := make([]dto.QuestionInput, 0, len(raw))
	for _, rq := range raw {
		if q, ok := normalizeQuestion(rq); ok {
			out = append(out, q)
		}
	}
	return out
}

func normalizeQuestion(rq rawQuestion) (dto.QuestionInput, bool) {
	text := strings.TrimSpace(rq.Question)
	if text == "" {
		text = strings.TrimSpace(rq.Text)
	}
	rawOpts := rq.Options
	if len(rawOpts) == 0 || string(rawOpts) == "null" {
		rawOpts = rq.Choices
	}
	opts := parseOptions(rawOpts)
	if text == "" || len(opts) < 2 {
		return dto.QuestionInput{}, false
	}

	flagged := false
	for _, o := range opts {
		if o.IsCorrect {
			flagged = true
			break
		}
	}
	if !flagged {
		idx, ok := answerIndex(rq.Answer, opts)
		if !ok {
			return dto.QuestionInput{}, false
		}
		opts[idx].IsCorrect = true
	}
	return dto.QuestionInput{Text: text, Options: opts}, true
}

func parseOptions(raw json.RawMessage) []dto.OptionInput {
	if len(raw) == 0 {
		return nil
	}
	var out []dto.OptionInput

	var plain []string
	if err := json.Unmarshal(raw, &plain); err == nil {
		for _, p := range plain {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, dto.OptionInput{Text: p})
			}
		}
		return out
	}

	var structured []rawOption
	if err := json.Unmarshal(raw, &structured); err != nil {
		return nil
	}
	for _, o := range structured {
		if t := strings.TrimSpace(o.Text); t != "" {
			out = append(out, dto.OptionInput{Text: t, IsCorrect: o.IsCorrect || o.IsCorrect2})
		}
	}
	return out
}

// answerIndex resolves the answer to a zero-based option index. It accepts a
// 1-based number, a letter (A, B, ...) or the option text itself.
func answerIndex(raw json.RawMessage, opts []dto.OptionInput) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return oneBased(int(num), len(opts))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return oneBased(n, len(opts))
	}
	if len(s) == 1 {
		c := strings.ToUpper(s)[0]
		if c >= 'A' && c <= 'Z' {
			return oneBased(int(c-'A')+1, len(opts))
		}
	}
	for i, o := range opts {
		if strings.EqualFold(o.Text, s) {
			return i, true
		}
	}
	return 0, false
}

func oneBased(n, count int) (int, bool) {
	if n < 1 || n > count {
		return 0, false
	}
	return n - 1, true
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// upstreamError turns a transport failure into a typed error.
func upstreamError(ctx context.Context, err error, service string) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return apperror.UpstreamTimeout(err, "%s timed out", service)
	}
	return apperror.UpstreamUnavailable(err, "%s is unavailable", service)
}

type httpGenerator struct {
	client *resty.Client
}

func newHTTPGenerator(baseURL string, timeout time.Duration) *httpGenerator {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &httpGenerator{client: client}
}

func (g *httpGenerator) Name() string { return "http" }

func (g *httpGenerator) Generate(ctx context.Context, req GenerationRequest) (*rawBatch, error) {
	var batch rawBatch
	var failure rawBatch
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"text":          req.Text,
			"type":          questionTypeMCQ,
			"difficulty":    req.Difficulty,
			"num_questions": req.NumQuestions,
		}).
		SetResult(&batch).
		SetError(&failure).
		Post("/api/generate")
	if err != nil {
		return nil, upstreamError(ctx, err, "question generator")
	}
	if resp.IsError() {
		return nil, apperror.UpstreamFailure(
			fmt.Errorf("status %d", resp.StatusCode()),
			"question generator returned status %d", resp.StatusCode(),
		).WithDetails(nonEmpty(failure.Error, failure.Message)...)
	}
	return &batch, nil
}
