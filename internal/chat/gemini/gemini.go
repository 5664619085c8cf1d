package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/vbonduro/nutriscan/internal/chat"
	"github.com/vbonduro/nutriscan/internal/domain"
)

type Completer struct {
	client *genai.Client
	model  string
}

// NewCompleter returns a Gemini completer. An empty baseURL uses the public
// Gemini API.
func NewCompleter(ctx context.Context, apiKey, model, baseURL string, timeout time.Duration) (*Completer, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Completer{client: client, model: model}, nil
}

func (c *Completer) Complete(ctx context.Context, history []chat.Turn) (string, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		contents = append(contents, genai.NewContentFromText(turn.Text, role(turn.Role)))
	}

	res, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(chat.SystemInstruction, genai.RoleUser),
		MaxOutputTokens:   chat.MaxOutputTokens,
		Temperature:       genai.Ptr[float32](chat.Temperature),
		TopP:              genai.Ptr[float32](chat.TopP),
		TopK:              genai.Ptr[float32](chat.TopK),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", chat.ErrEmptyReply
	}
	return text, nil
}

func role(r domain.Role) genai.Role {
	if r == domain.RoleBot {
		return genai.RoleModel
	}
	return genai.RoleUser
}
