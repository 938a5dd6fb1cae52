// Package genai wraps the hosted generative-AI service behind narrow,
// JSON-contract operations. Callers treat every operation as an opaque
// collaborator: a failure or malformed reply is returned as an error and
// must never corrupt caller state.
package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/waraqati/waraqa-backend/internal/config"
	"github.com/waraqati/waraqa-backend/internal/genai/prompts"
	"github.com/waraqati/waraqa-backend/internal/model"
)

// WorksheetDraft is the parsed reply of a worksheet-generation request.
type WorksheetDraft struct {
	Meta   model.WorksheetMeta    `json:"meta"`
	Below  []model.Question       `json:"below"`
	Within []model.Question       `json:"within"`
	Above  []model.Question       `json:"above"`
	Rubric []model.RubricCategory `json:"rubric,omitempty"`
}

// Evaluation is the parsed reply of an answer-evaluation request.
// Score is clamped to {0, 1, 2}.
type Evaluation struct {
	Feedback string `json:"feedback"`
	Score    int    `json:"score"`
}

// Client calls an OpenAI-compatible gateway for all generative operations.
type Client struct {
	api        *openai.Client
	model      string
	imageModel string
	ttsModel   string
	ttsVoice   string
}

// NewClient builds a Client from configuration.
func NewClient(cfg *config.Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.GenAIKey)
	if cfg.GenAIBaseURL != "" {
		apiCfg.BaseURL = cfg.GenAIBaseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.GenAITimeout}
	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		model:      cfg.GenAIModel,
		imageModel: cfg.GenAIImageModel,
		ttsModel:   cfg.GenAITTSModel,
		ttsVoice:   cfg.GenAITTSVoice,
	}
}

// GenerateWorksheet produces the tiered question set for a passage.
func (c *Client) GenerateWorksheet(ctx context.Context, req model.GenerateWorksheetRequest) (*WorksheetDraft, error) {
	raw, err := c.completeJSON(ctx, prompts.Worksheet(req), 0.7)
	if err != nil {
		return nil, fmt.Errorf("generate worksheet: %w", err)
	}

	var draft WorksheetDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("parse worksheet reply: %w", err)
	}
	if len(draft.Below)+len(draft.Within)+len(draft.Above) == 0 {
		return nil, fmt.Errorf("worksheet reply contained no questions")
	}
	return &draft, nil
}

// EvaluateAnswer grades one open-ended student answer against the model
// answer and success criteria.
func (c *Client) EvaluateAnswer(ctx context.Context, question, modelAnswer, studentAnswer, criteria string) (*Evaluation, error) {
	raw, err := c.completeJSON(ctx, prompts.Evaluation(question, modelAnswer, studentAnswer, criteria), 0.2)
	if err != nil {
		return nil, fmt.Errorf("evaluate answer: %w", err)
	}

	var ev Evaluation
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return nil, fmt.Errorf("parse evaluation reply: %w", err)
	}
	ev.Score = clampScore(ev.Score)
	return &ev, nil
}

// ExtractVisualIdeas asks for 5–8 short visual scene descriptions.
func (c *Client) ExtractVisualIdeas(ctx context.Context, passage string) ([]string, error) {
	raw, err := c.completeJSON(ctx, prompts.VisualIdeas(passage), 0.7)
	if err != nil {
		return nil, fmt.Errorf("extract visual ideas: %w", err)
	}

	ideas, err := parseIdeas(raw)
	if err != nil {
		return nil, fmt.Errorf("parse visual ideas reply: %w", err)
	}
	return ideas, nil
}

// GenerateImage renders one idea as an illustration and returns it as a
// data URI. An empty return with nil error means the model produced nothing
// usable; callers skip that image.
func (c *Client) GenerateImage(ctx context.Context, idea string) (string, error) {
	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Model:          c.imageModel,
		Prompt:         prompts.Image(idea),
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", nil
	}
	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

// GenerateBonusQuestions produces extra questions for one Bloom level. Each
// returned record is tagged with the requested level regardless of what the
// model put in the type field.
func (c *Client) GenerateBonusQuestions(ctx context.Context, passage, level, grade string, count int) ([]model.Question, error) {
	raw, err := c.completeJSON(ctx, prompts.Bonus(passage, level, grade, count), 0.7)
	if err != nil {
		return nil, fmt.Errorf("generate bonus questions: %w", err)
	}

	questions, err := parseBonusQuestions(raw)
	if err != nil {
		return nil, fmt.Errorf("parse bonus questions reply: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("bonus reply contained no questions")
	}
	for i := range questions {
		questions[i].Type = level
	}
	return questions, nil
}

// Synthesize converts the passage into spoken audio, returned base64-encoded.
func (c *Client) Synthesize(ctx context.Context, passage string) (string, error) {
	resp, err := c.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.SpeechModel(c.ttsModel),
		Voice: openai.SpeechVoice(c.ttsVoice),
		Input: prompts.ReadAloud(passage),
	})
	if err != nil {
		return "", fmt.Errorf("synthesize speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return "", fmt.Errorf("read speech payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(audio), nil
}

// completeJSON runs one chat completion in JSON mode and returns the raw
// reply text with any markdown fencing removed.
func (c *Client) completeJSON(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return stripFence(resp.Choices[0].Message.Content), nil
}

// parseIdeas decodes a visual-ideas reply. JSON mode forces an object at
// the top level, so the contract wraps the list as {"ideas": [...]}; a bare
// array from a laxer gateway is accepted too.
func parseIdeas(raw string) ([]string, error) {
	var wrapped struct {
		Ideas []string `json:"ideas"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.Ideas != nil {
		return wrapped.Ideas, nil
	}

	var ideas []string
	if err := json.Unmarshal([]byte(raw), &ideas); err != nil {
		return nil, err
	}
	return ideas, nil
}

// parseBonusQuestions decodes a bonus reply, object-wrapped as
// {"questions": [...]} with a bare-array fallback.
func parseBonusQuestions(raw string) ([]model.Question, error) {
	var wrapped struct {
		Questions []model.Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil && wrapped.Questions != nil {
		return wrapped.Questions, nil
	}

	var questions []model.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// stripFence removes a surrounding markdown code fence, which some gateways
// add even in JSON mode.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 2 {
		return 2
	}
	return score
}
