package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	visionapi "google.golang.org/api/vision/v1"

	"github.com/vbonduro/nutriscan/internal/domain"
	"github.com/vbonduro/nutriscan/internal/vision"
)

// Detector calls the Cloud Vision images:annotate endpoint with
// LABEL_DETECTION. A label's confidence is its topicality.
type Detector struct {
	svc *visionapi.Service
}

// NewDetector builds a detector that authenticates with an API key. An
// empty baseURL uses the public endpoint.
func NewDetector(ctx context.Context, apiKey, baseURL string, timeout time.Duration) (*Detector, error) {
	opts := []option.ClientOption{
		option.WithHTTPClient(&http.Client{
			Timeout:   timeout,
			Transport: &transport.APIKey{Key: apiKey},
		}),
	}
	if baseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(baseURL, "/")+"/"))
	}

	svc, err := visionapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision service: %w", err)
	}
	return &Detector{svc: svc}, nil
}

func (d *Detector) DetectLabels(ctx context.Context, img vision.Image) ([]domain.Label, error) {
	image := &visionapi.Image{}
	if img.URL != "" {
		image.Source = &visionapi.ImageSource{ImageUri: img.URL}
	} else {
		image.Content = base64.StdEncoding.EncodeToString(img.Data)
	}

	req := &visionapi.BatchAnnotateImagesRequest{
		Requests: []*visionapi.AnnotateImageRequest{{
			Image: image,
			Features: []*visionapi.Feature{{
				Type:       "LABEL_DETECTION",
				MaxResults: vision.MaxLabels,
			}},
		}},
	}

	resp, err := d.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, &vision.APIError{StatusCode: gerr.Code, Message: gerr.Message}
		}
		return nil, fmt.Errorf("failed to call vision api: %w", err)
	}

	if len(resp.Responses) == 0 {
		return []domain.Label{}, nil
	}
	first := resp.Responses[0]
	if first.Error != nil && first.Error.Code != 0 {
		return nil, &vision.APIError{StatusCode: http.StatusBadRequest, Message: first.Error.Message}
	}

	labels := make([]domain.Label, 0, len(first.LabelAnnotations))
	for _, a := range first.LabelAnnotations {
		labels = append(labels, domain.Label{Description: a.Description, Confidence: a.Topicality})
	}
	return labels, nil
}
