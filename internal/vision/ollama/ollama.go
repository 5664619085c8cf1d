package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/nutriscan/internal/domain"
	"github.com/vbonduro/nutriscan/internal/vision"
)

// Detector asks a local Ollama vision model to label a photo.
type Detector struct {
	host   string
	model  string
	client *http.Client
}

func NewDetector(host, model string, timeout time.Duration) *Detector {
	return &Detector{
		host:   host,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

func (d *Detector) DetectLabels(ctx context.Context, img vision.Image) ([]domain.Label, error) {
	if len(img.Data) == 0 {
		return nil, fmt.Errorf("ollama requires image bytes")
	}

	reqBody := map[string]interface{}{
		"model":  d.model,
		"prompt": vision.LabelPrompt,
		"images": []string{base64.StdEncoding.EncodeToString(img.Data)},
		"stream": false,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close ollama response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, &vision.APIError{StatusCode: resp.StatusCode, Message: string(errBody)}
	}

	var respBody struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return vision.ParseLabels(respBody.Response), nil
}
