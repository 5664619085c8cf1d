package claude

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/nutriscan/internal/chat"
	"github.com/vbonduro/nutriscan/internal/domain"
)

type Completer struct {
	client *anthropic.Client
	model  string
}

// NewCompleter returns a Claude completer. An empty baseURL uses the public
// API.
func NewCompleter(apiKey, model, baseURL string, timeout time.Duration) *Completer {
	opts := []anthropic.ClientOption{anthropic.WithHTTPClient(&http.Client{Timeout: timeout})}
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &Completer{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (c *Completer) Complete(ctx context.Context, history []chat.Turn) (string, error) {
	messages := make([]anthropic.Message, 0, len(history))
	for _, turn := range history {
		if turn.Role == domain.RoleBot {
			messages = append(messages, anthropic.NewAssistantTextMessage(turn.Text))
		} else {
			messages = append(messages, anthropic.NewUserTextMessage(turn.Text))
		}
	}

	// Current Claude models reject top_p alongside temperature.
	temperature := float32(chat.Temperature)

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		System:      chat.SystemInstruction,
		Messages:    messages,
		MaxTokens:   chat.MaxOutputTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create message: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			sb.WriteString(*block.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", chat.ErrEmptyReply
	}
	return text, nil
}
