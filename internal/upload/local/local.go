package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vbonduro/nutriscan/internal/upload"
)

var ErrPhotoNotFound = errors.New("photo not found")

// Uploader keeps photos on local disk and serves them under
// {publicBaseURL}/photos/{key}.
type Uploader struct {
	basePath      string
	publicBaseURL string
	now           func() time.Time
}

func NewUploader(basePath, publicBaseURL string) (*Uploader, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &Uploader{
		basePath:      basePath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}, nil
}

func (u *Uploader) Upload(ctx context.Context, photo upload.Photo) (*upload.Image, error) {
	key := fmt.Sprintf("nutriscan_%d%s", u.now().UnixNano(), upload.ExtFromMIME(photo.MIMEType))
	filePath := filepath.Join(u.basePath, key)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(photo.Data)); err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after write error", "error", rerr)
		}
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after close error", "error", rerr)
		}
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	width, height, format := upload.Describe(photo.Data, photo.MIMEType)
	return &upload.Image{
		SecureURL: u.publicBaseURL + "/photos/" + key,
		PublicID:  key,
		Width:     width,
		Height:    height,
		Format:    format,
		Bytes:     int64(len(photo.Data)),
	}, nil
}

// Open returns the stored photo and its MIME type.
func (u *Uploader) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	filePath, err := u.safeJoin(key)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrPhotoNotFound
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return f, upload.MIMEFromExt(filePath), nil
}

// safeJoin resolves key relative to basePath and rejects directory traversal.
func (u *Uploader) safeJoin(key string) (string, error) {
	absBase, err := filepath.Abs(u.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(u.basePath, key))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}
