package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docassist/internal/domain"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer calls the /chat/completions endpoint.
type Completer struct {
	client *Client
}

// NewCompleter creates a completer using client.
func NewCompleter(client *Client) *Completer {
	return &Completer{client: client}
}

// Complete sends the prompt as a single user message, preceded by the system message if any.
// Every failure wraps domain.ErrCompletionService.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})
	body := struct {
		Model       string        `json:"model"`
		Messages    []chatMessage `json:"messages"`
		Temperature float64       `json:"temperature"`
	}{Model: req.Model, Messages: messages, Temperature: req.Temperature}

	var out struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := c.client.postJSON(ctx, "/chat/completions", body, &out); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrCompletionService, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", domain.ErrCompletionService, errors.New("no choices returned"))
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
