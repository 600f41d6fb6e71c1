package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sales-reports/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
	"github.com/shopspring/decimal"
)

// MaxSummaryWords caps the generated narrative. Longer replies are rejected.
const MaxSummaryWords = 120

const systemInstruction = "You are an analyst who writes brief, clear summaries for corporate emails."

// SummaryFacts are the aggregation figures a narrative is written from.
type SummaryFacts struct {
	TotalUnits   int64
	TotalRevenue decimal.Decimal
	TopSKU       string
	TopBranch    string
}

// FactsFrom extracts the narrative inputs from an aggregation result.
func FactsFrom(res *core.AggregationResult) SummaryFacts {
	return SummaryFacts{
		TotalUnits:   res.TotalUnits,
		TotalRevenue: res.TotalRevenue,
		TopSKU:       res.TopSKU,
		TopBranch:    res.TopBranch,
	}
}

// TextGenerator produces narrative text from aggregation facts.
type TextGenerator interface {
	GenerateSummary(ctx context.Context, facts SummaryFacts) (string, error)
}

// SummaryOutput is the structured payload the model must return.
type SummaryOutput struct {
	Summary string `json:"summary" jsonschema:"description=Plain-prose sales summary of at most 120 words"`
}

// AgentConfig configures the OpenAI-backed generator.
type AgentConfig struct {
	APIKey  string
	BaseURL string // optional, for OpenAI-compatible endpoints
	Model   string
}

// Agent calls the OpenAI Responses API to write report narratives.
type Agent struct {
	client *openai.Client
	model  string
}

// NewAgent builds an Agent from cfg. SDK retries are disabled: each summary
// is exactly one call, and failures go to the fallback.
func NewAgent(cfg AgentConfig) *Agent {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = string(shared.ChatModelGPT4oMini)
	}
	client := openai.NewClient(opts...)
	return &Agent{client: &client, model: model}
}

// GenerateSummary issues a single Responses call and returns the narrative.
// Transport errors, non-2xx replies, empty output, unparseable JSON and
// over-long text are all returned as errors.
func (a *Agent) GenerateSummary(ctx context.Context, facts SummaryFacts) (string, error) {
	prompt := fmt.Sprintf(
		"With these figures: totalUnits=%d, totalRevenue=%s, topSku=%s, topBranch=%s. "+
			"Return a summary of at most %d words to be sent by email.",
		facts.TotalUnits, facts.TotalRevenue.StringFixed(2), facts.TopSKU, facts.TopBranch, MaxSummaryWords,
	)

	schemaMap, err := summarySchema()
	if err != nil {
		return "", err
	}

	params := responses.ResponseNewParams{
		Model:           shared.ResponsesModel(a.model),
		Instructions:    param.NewOpt(systemInstruction),
		MaxOutputTokens: param.NewOpt(int64(200)),
		Temperature:     param.NewOpt(0.7),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "sales_summary",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A short narrative of a sales report"),
				},
			},
		},
	}

	start := time.Now()
	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai responses error after %s: %w", time.Since(start).Round(time.Millisecond), err)
	}

	content := resp.OutputText()
	if content == "" {
		return "", fmt.Errorf("empty response content")
	}

	var out SummaryOutput
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return "", fmt.Errorf("failed to parse completion: %w", err)
	}
	summary := strings.TrimSpace(out.Summary)
	if summary == "" {
		return "", fmt.Errorf("empty summary in response")
	}
	if n := len(strings.Fields(summary)); n > MaxSummaryWords {
		return "", fmt.Errorf("summary too long: %d words", n)
	}
	return summary, nil
}

func summarySchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaJSON, err := json.Marshal(reflector.Reflect(SummaryOutput{}))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return schemaMap, nil
}
