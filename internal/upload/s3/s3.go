package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/vbonduro/nutriscan/internal/upload"
)

const keyPrefix = "nutriscan/"

type putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader stores photos in an S3 bucket. Objects are served from
// publicBaseURL (a CDN or website endpoint) when set, otherwise from the
// bucket's virtual-hosted URL.
type Uploader struct {
	client        putter
	bucket        string
	region        string
	publicBaseURL string
	now           func() time.Time
}

// NewClient builds an S3 client from the default AWS credential chain.
func NewClient(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

func NewUploader(client *s3.Client, bucket, region, publicBaseURL string) *Uploader {
	return &Uploader{
		client:        client,
		bucket:        bucket,
		region:        region,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

func (u *Uploader) Upload(ctx context.Context, photo upload.Photo) (*upload.Image, error) {
	contentType := photo.MIMEType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	key := fmt.Sprintf("%snutriscan_%d%s", keyPrefix, u.now().UnixMilli(), upload.ExtFromMIME(contentType))

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(photo.Data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(photo.Data))),
	})
	if err != nil {
		return nil, toUploadError(err)
	}

	width, height, format := upload.Describe(photo.Data, contentType)
	return &upload.Image{
		SecureURL: u.objectURL(key),
		PublicID:  key,
		Width:     width,
		Height:    height,
		Format:    format,
		Bytes:     int64(len(photo.Data)),
	}, nil
}

func (u *Uploader) objectURL(key string) string {
	if u.publicBaseURL != "" {
		return u.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}

// toUploadError turns S3 service rejections into *upload.UploadError and
// leaves transport failures wrapped as-is.
func toUploadError(err error) error {
	var respErr *awshttp.ResponseError
	if !errors.As(err, &respErr) {
		return fmt.Errorf("failed to call s3: %w", err)
	}

	msg := upload.UnknownErrorMessage
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorMessage() != "" {
		msg = apiErr.ErrorMessage()
	}
	return &upload.UploadError{StatusCode: respErr.HTTPStatusCode(), Message: msg}
}
