package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/vbonduro/nutriscan/internal/upload"
)

const defaultBaseURL = "https://api.cloudinary.com"

type response struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Uploader posts photos to an unsigned Cloudinary upload preset.
type Uploader struct {
	cloudName    string
	uploadPreset string
	client       *http.Client
	baseURL      string
	now          func() time.Time
}

func NewUploader(cloudName, uploadPreset string, timeout time.Duration) *Uploader {
	return &Uploader{
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		client:       &http.Client{Timeout: timeout},
		baseURL:      defaultBaseURL,
		now:          time.Now,
	}
}

// WithBaseURL points the uploader at a different API host.
func (u *Uploader) WithBaseURL(baseURL string) *Uploader {
	if baseURL != "" {
		u.baseURL = baseURL
	}
	return u
}

func (u *Uploader) Upload(ctx context.Context, photo upload.Photo) (*upload.Image, error) {
	body, contentType, err := u.buildForm(photo)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", u.baseURL, u.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call cloudinary: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close cloudinary response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &upload.UploadError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &upload.Image{
		SecureURL: out.SecureURL,
		PublicID:  out.PublicID,
		Width:     out.Width,
		Height:    out.Height,
		Format:    out.Format,
		Bytes:     out.Bytes,
	}, nil
}

func (u *Uploader) buildForm(photo upload.Photo) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="nutriscan_%d.jpg"`, u.now().UnixMilli()))
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(photo.Data); err != nil {
		return nil, "", err
	}

	if err := w.WriteField("upload_preset", u.uploadPreset); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// errorMessage extracts error.message from a Cloudinary error body.
func errorMessage(r io.Reader) string {
	var er errorResponse
	if err := json.NewDecoder(r).Decode(&er); err != nil || er.Error.Message == "" {
		return upload.UnknownErrorMessage
	}
	return er.Error.Message
}
