// Package analyzer implements AI-driven market analysis of sales regions
// using Google's Gemini API.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"salesbot/internal/config"
)

// Report is the structured result of a region market analysis.
type Report struct {
	Channels         []string `json:"channels"`
	Groups           []string `json:"groups"`
	Potential        string   `json:"potential"`
	EstimatedClients int      `json:"estimated_clients"`
	Recommendations  string   `json:"recommendations"`
}

// Client defines the interface for region analysis operations.
type Client interface {
	// Analyze produces a market analysis report for the named region.
	// A malformed or unparseable model response is an error; no retry is
	// attempted beyond the transport-level retry for transient API failures.
	Analyze(ctx context.Context, region string) (*Report, error)
}

var reportSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"channels":          {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "Popular Telegram channels on car topics in the region."},
		"groups":            {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "Car sales groups and communities in the region."},
		"potential":         {Type: genai.TypeString, Description: "Market potential: low, medium or high."},
		"estimated_clients": {Type: genai.TypeInteger, Description: "Estimated number of potential clients."},
		"recommendations":   {Type: genai.TypeString, Description: "Marketing recommendations for the region."},
	},
	Required: []string{"channels", "groups", "potential", "estimated_clients", "recommendations"},
}

type sdkClient struct {
	genaiClient *genai.Client
	log         *slog.Logger
	model       string
	temperature float32
	maxTokens   int32
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a new Gemini-backed analysis client with the provided configuration.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	logger := log.With("component", "analyzer")
	logger.Info("Gemini analysis client initialized", "model", cfg.Model)
	return &sdkClient{
		genaiClient: gi,
		log:         logger,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

func (c *sdkClient) Analyze(ctx context.Context, region string) (*Report, error) {
	if region == "" {
		return nil, fmt.Errorf("region name is required")
	}

	c.log.DebugContext(ctx, "Analyzing region", "region", region)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(fmt.Sprintf(regionAnalysisPrompt, region), genai.RoleUser),
	}
	genCfg := &genai.GenerateContentConfig{
		Temperature:      &c.temperature,
		MaxOutputTokens:  c.maxTokens,
		ResponseMIMEType: "application/json",
		ResponseSchema:   reportSchema,
	}

	resp, err := c.generateContentWithRetries(callCtx, contents, genCfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Region analysis API call failed", "region", region, "error", err)
		return nil, fmt.Errorf("region analysis failed: %w", err)
	}

	jsonText, err := extractText(resp)
	if err != nil {
		c.log.ErrorContext(ctx, "Region analysis returned unusable response", "region", region, "error", err)
		return nil, fmt.Errorf("region analysis returned no content: %w", err)
	}

	var report Report
	if err := json.Unmarshal([]byte(jsonText), &report); err != nil {
		c.log.ErrorContext(ctx, "Failed to parse analysis JSON", "region", region, "error", err, "response_text", jsonText)
		return nil, fmt.Errorf("invalid analysis JSON received: %w", err)
	}

	c.log.DebugContext(ctx, "Region analysis parsed",
		"region", region, "channels", len(report.Channels), "groups", len(report.Groups), "potential", report.Potential)
	return &report, nil
}

// generateContentWithRetries retries the API call for retriable server-side
// failures (HTTP 500/503). All other errors return immediately.
func (c *sdkClient) generateContentWithRetries(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.model, contents, cfg)
		if err == nil {
			return resp, nil
		}

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < c.maxRetries {
				c.log.WarnContext(ctx, "Retrying Gemini API call after retriable error",
					"attempt", i+1, "code", apiErr.Code, "delay", c.retryDelay)
				time.Sleep(c.retryDelay)
				continue
			}
			return nil, fmt.Errorf("gemini API call failed after %d retries (code %d): %w", c.maxRetries, apiErr.Code, err)
		}

		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return nil, err
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		return "", fmt.Errorf("request blocked by safety filter: %s", reason)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("response contains no candidates")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("response text is empty")
	}
	return text, nil
}
