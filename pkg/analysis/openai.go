package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/osv-scan-agent/pkg/osv"
)

const (
	DefaultModel = "gpt-4o-mini"
	maxTokens    = 2048
)

// OpenAIClassifier implements Summarizer against the OpenAI chat-completion
// API. One completion per query's raw result set; empty result sets never
// reach the model.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

func NewOpenAIClassifier(apiKey, model string) *OpenAIClassifier {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIClassifier{client: openai.NewClient(apiKey), model: model}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, subject Subject, raw []osv.Vulnerability) ([]VulnerabilityInfo, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(subject, raw)},
		},
	}
	// Reasoning models (o1/o3/o4/gpt-5*) take MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(c.model, "o1") || strings.HasPrefix(c.model, "o3") ||
		strings.HasPrefix(c.model, "o4") || strings.HasPrefix(c.model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("model completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	return parseModelResponse(subject, raw, resp.Choices[0].Message.Content)
}
