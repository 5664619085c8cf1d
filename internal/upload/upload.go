package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Uploader hosts a photo remotely and returns where it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, photo Photo) (*Image, error)
}

type Photo struct {
	Name     string
	Data     []byte
	MIMEType string
}

// Image describes a hosted photo. PublicID is the backend's handle for it.
type Image struct {
	SecureURL string `json:"secureUrl"`
	PublicID  string `json:"publicId"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
}

// UploadError is returned when the hosting service rejects an upload.
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed (status %d): %s", e.StatusCode, e.Message)
}

const UnknownErrorMessage = "Unknown error"

var ErrUnsupportedImage = errors.New("unsupported image format")

// photoTypes are the formats every label detector accepts.
var photoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// SniffImageMIME detects the photo format from its leading bytes and reports
// whether it is one nutriscan accepts. http.DetectContentType has no WebP
// signature, so a RIFF container tagged WEBP is recognised here.
func SniffImageMIME(data []byte) (string, bool) {
	mimeType := http.DetectContentType(data)
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		mimeType = "image/webp"
	}
	return mimeType, photoTypes[mimeType]
}

// ReadPhoto loads a photo from disk, sniffing its MIME type from content.
// Files in other formats fail with ErrUnsupportedImage.
func ReadPhoto(path string) (Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Photo{}, fmt.Errorf("failed to read photo: %w", err)
	}
	mimeType, ok := SniffImageMIME(data)
	if !ok {
		return Photo{}, fmt.Errorf("%s (%s): %w", path, mimeType, ErrUnsupportedImage)
	}
	return Photo{
		Name:     filepath.Base(path),
		Data:     data,
		MIMEType: mimeType,
	}, nil
}

// Describe fills in the dimensions and format of data for backends that do
// not report them. Undecodable data leaves them zero.
func Describe(data []byte, mimeType string) (width, height int, format string) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, FormatFromMIME(mimeType)
	}
	return cfg.Width, cfg.Height, format
}

func FormatFromMIME(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "jpeg"
	}
}

func ExtFromMIME(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func MIMEFromExt(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
