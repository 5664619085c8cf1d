package claude

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/nutriscan/internal/domain"
	"github.com/vbonduro/nutriscan/internal/vision"
)

// Detector labels a photo by sending it to Claude with vision.LabelPrompt.
type Detector struct {
	client *anthropic.Client
	model  string
}

// NewDetector returns a Claude-backed detector. An empty baseURL uses the
// public API.
func NewDetector(apiKey, model, baseURL string, timeout time.Duration) *Detector {
	opts := []anthropic.ClientOption{anthropic.WithHTTPClient(&http.Client{Timeout: timeout})}
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &Detector{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (d *Detector) DetectLabels(ctx context.Context, img vision.Image) ([]domain.Label, error) {
	if len(img.Data) == 0 {
		return nil, errors.New("claude requires image bytes")
	}

	source := anthropic.NewMessageContentSource(
		anthropic.MessagesContentSourceTypeBase64,
		normaliseMIME(http.DetectContentType(img.Data)),
		base64.StdEncoding.EncodeToString(img.Data),
	)

	resp, err := d.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(d.model),
		// Five short label lines fit comfortably.
		MaxTokens: 256,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(source),
				anthropic.NewTextMessageContent(vision.LabelPrompt),
			},
		}},
	})
	if err != nil {
		return nil, toAPIError(err)
	}

	return vision.ParseLabels(resp.GetFirstContentText()), nil
}

func toAPIError(err error) error {
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return &vision.APIError{StatusCode: reqErr.StatusCode, Message: reqErr.Error()}
	}
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		return &vision.APIError{Message: apiErr.Message}
	}
	return fmt.Errorf("failed to call claude: %w", err)
}

// normaliseMIME maps sniffed MIME types to the values the Anthropic API
// accepts. Anything else is sent as jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
