package rekognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/vbonduro/nutriscan/internal/domain"
	"github.com/vbonduro/nutriscan/internal/vision"
)

type labelDetector interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Detector sends photo bytes to Amazon Rekognition. Rekognition reports
// confidence as a percentage, which is scaled to [0,1].
type Detector struct {
	client labelDetector
}

func NewClient(ctx context.Context, region string) (*rekognition.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return rekognition.NewFromConfig(cfg), nil
}

func NewDetector(client *rekognition.Client) *Detector {
	return &Detector{client: client}
}

func (d *Detector) DetectLabels(ctx context.Context, img vision.Image) ([]domain.Label, error) {
	if len(img.Data) == 0 {
		return nil, errors.New("rekognition requires image bytes")
	}

	out, err := d.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:     &types.Image{Bytes: img.Data},
		MaxLabels: aws.Int32(vision.MaxLabels),
	})
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			msg := respErr.Error()
			var apiErr smithy.APIError
			if errors.As(err, &apiErr) {
				msg = apiErr.ErrorMessage()
			}
			return nil, &vision.APIError{StatusCode: respErr.HTTPStatusCode(), Message: msg}
		}
		return nil, fmt.Errorf("failed to call rekognition: %w", err)
	}

	labels := make([]domain.Label, 0, len(out.Labels))
	for _, l := range out.Labels {
		label := domain.Label{Description: aws.ToString(l.Name)}
		if l.Confidence != nil {
			label.Confidence = float64(*l.Confidence) / 100
		}
		labels = append(labels, label)
	}
	return labels, nil
}
