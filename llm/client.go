// Package llm provides the AI judgment layer for risk analysis. It talks
// to OpenRouter through the OpenAI-compatible chat completion API and
// normalizes model output into a structured Judgment.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"supplyguard/shared/types"
)

// ErrDisabled is returned when no API key is configured. Callers fall
// back to heuristic-only analysis.
var ErrDisabled = errors.New("llm: no API key configured")

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "openai/gpt-3.5-turbo"

	requestTimeout = 30 * time.Second
	temperature    = 0.7
	maxTokens      = 1000
)

// Judgment is the normalized output of one AI analysis call.
type Judgment struct {
	RiskLevel       types.RiskLevel `json:"risk_level"`
	RiskScore       float64         `json:"risk_score"`
	Summary         string          `json:"summary"`
	KeyFindings     []string        `json:"key_findings"`
	Recommendations []string        `json:"recommendations"`
	AffectedAreas   []string        `json:"affected_areas"`
	Confidence      int             `json:"confidence"`
	Model           string          `json:"model_used"`
}

// Client produces AI judgments for agent analyses.
type Client interface {
	// Judge runs one analysis call. analysisType selects the system
	// prompt; contextData is serialized into the user prompt.
	Judge(ctx context.Context, analysisType, query string, contextData map[string]any) (*Judgment, error)
	// Ping verifies the upstream model responds.
	Ping(ctx context.Context) error
}

var systemPrompts = map[string]string{
	"scheduler":     `You are a supply chain scheduling risk analyst. Analyze equipment delivery schedules and identify potential risks, delays, and bottlenecks. Provide risk scores (0-100) and actionable recommendations.`,
	"political":     `You are a geopolitical risk analyst specializing in supply chain impacts. Analyze political events, policy changes, and their potential effects on supply chain operations. Provide risk assessments and mitigation strategies.`,
	"logistics":     `You are a logistics and transportation risk analyst. Evaluate shipping routes, port conditions, transportation disruptions, and logistics infrastructure risks. Provide route-specific risk assessments.`,
	"tariff":        `You are a trade policy and tariff analyst. Analyze trade wars, tariff changes, customs regulations, and their impact on supply chain costs and operations. Provide cost impact assessments.`,
	"comprehensive": `You are a comprehensive supply chain risk analyst. Provide holistic risk assessment covering scheduling, political, logistics, and tariff factors. Synthesize multiple risk dimensions into actionable insights.`,
}

// Config holds OpenRouter client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenRouter implements Client against the OpenRouter chat API.
type OpenRouter struct {
	api   *openai.Client
	model string
}

// New creates an OpenRouter client. Returns ErrDisabled when the API key
// is empty so callers can wire the fallback path explicitly.
func New(cfg Config) (*OpenRouter, error) {
	if cfg.APIKey == "" {
		return nil, ErrDisabled
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	return &OpenRouter{
		api:   openai.NewClientWithConfig(clientCfg),
		model: cfg.Model,
	}, nil
}

func (c *OpenRouter) Judge(ctx context.Context, analysisType, query string, contextData map[string]any) (*Judgment, error) {
	system, ok := systemPrompts[analysisType]
	if !ok {
		system = systemPrompts["comprehensive"]
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(query, contextData)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion: empty response")
	}

	judgment := ParseResponse(resp.Choices[0].Message.Content)
	judgment.Model = c.model
	return judgment, nil
}

func (c *OpenRouter) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	_, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Hello, this is a health check. Please respond with 'OK'."},
		},
		MaxTokens: 10,
	})
	if err != nil {
		return fmt.Errorf("llm ping: %w", err)
	}
	return nil
}

// buildUserPrompt assembles the user message: the query, serialized
// context, and the JSON response format instruction.
func buildUserPrompt(query string, contextData map[string]any) string {
	return fmt.Sprintf(`
%s

Context Information:
%s

Please provide your analysis in the following JSON format:
{
    "risk_level": "low|medium|high|critical",
    "risk_score": 0-100,
    "summary": "Brief summary of the analysis",
    "key_findings": ["finding1", "finding2", "finding3"],
    "recommendations": ["recommendation1", "recommendation2", "recommendation3"],
    "affected_areas": ["area1", "area2"],
    "confidence": 0-100
}
`, query, formatContext(contextData))
}

// formatContext renders known context keys as labeled JSON lines, in a
// fixed order so prompts are reproducible.
func formatContext(contextData map[string]any) string {
	if len(contextData) == 0 {
		return ""
	}

	labels := map[string]string{
		"equipment_data": "Equipment Data",
		"schedule_data":  "Schedule Data",
		"news_events":    "Recent Events",
		"country":        "Country Focus",
		"trade_routes":   "Trade Routes",
	}
	order := []string{"equipment_data", "schedule_data", "news_events", "country", "trade_routes"}

	var lines []string
	seen := make(map[string]bool)
	for _, key := range order {
		if v, ok := contextData[key]; ok {
			lines = append(lines, labels[key]+": "+renderValue(v))
			seen[key] = true
		}
	}

	// Unknown keys still reach the model, appended alphabetically.
	var extra []string
	for key := range contextData {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		lines = append(lines, key+": "+renderValue(contextData[key]))
	}

	out := ""
	for i, line := range lines {
		if i > 0 {
			out += "\n"
		}
		out += line
	}
	return out
}

func renderValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
