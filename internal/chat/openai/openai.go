package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/vbonduro/nutriscan/internal/chat"
	"github.com/vbonduro/nutriscan/internal/domain"
)

type Completer struct {
	client openai.Client
	model  string
}

// NewCompleter returns an OpenAI chat-completions completer. An empty
// baseURL uses the public API.
func NewCompleter(apiKey, model, baseURL string, timeout time.Duration) *Completer {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Completer{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *Completer) Complete(ctx context.Context, history []chat.Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	messages = append(messages, openai.SystemMessage(chat.SystemInstruction))
	for _, turn := range history {
		if turn.Role == domain.RoleBot {
			messages = append(messages, openai.AssistantMessage(turn.Text))
		} else {
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(chat.MaxOutputTokens),
		Temperature:         openai.Float(chat.Temperature),
		TopP:                openai.Float(chat.TopP),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", chat.ErrEmptyReply
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", chat.ErrEmptyReply
	}
	return text, nil
}
