package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bhargavn/se-synth/internal/domain/reasoning"
	"github.com/bhargavn/se-synth/internal/infra/ai/prompt"
)

const maxTokens = 4096

// Client adapts the OpenAI chat-completion API to the reasoning.Client port.
type Client struct {
	*openai.Client
	Model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{Client: openai.NewClient(apiKey), Model: model}
}

// Ask sends the composed prompt and blocks for at most timeout. Transport
// failures and timeouts surface as reasoning.ErrUnavailable so the
// orchestrator can apply its single-retry policy.
func (c *Client) Ask(ctx context.Context, composed string, timeout time.Duration) (string, error) {
	model := c.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: composed},
		},
	}
	// Reasoning models (o1/o3/o4/gpt-5*) take MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	ctx2, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.CreateChatCompletion(ctx2, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timeout after %s", reasoning.ErrUnavailable, timeout)
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return "", fmt.Errorf("%w: quota exceeded", reasoning.ErrUnavailable)
		}
		return "", fmt.Errorf("%w: %v", reasoning.ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", reasoning.ErrUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}
