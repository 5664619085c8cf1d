package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vbonduro/nutriscan/internal/chat"
	claudechat "github.com/vbonduro/nutriscan/internal/chat/claude"
	geminichat "github.com/vbonduro/nutriscan/internal/chat/gemini"
	openaichat "github.com/vbonduro/nutriscan/internal/chat/openai"
	"github.com/vbonduro/nutriscan/internal/config"
	"github.com/vbonduro/nutriscan/internal/upload"
	"github.com/vbonduro/nutriscan/internal/upload/cloudinary"
	"github.com/vbonduro/nutriscan/internal/upload/local"
	s3upload "github.com/vbonduro/nutriscan/internal/upload/s3"
	"github.com/vbonduro/nutriscan/internal/vision"
	claudevision "github.com/vbonduro/nutriscan/internal/vision/claude"
	googlevision "github.com/vbonduro/nutriscan/internal/vision/google"
	ollamavision "github.com/vbonduro/nutriscan/internal/vision/ollama"
	"github.com/vbonduro/nutriscan/internal/vision/rekognition"
)

func newUploader(ctx context.Context, cfg *config.Config) (upload.Uploader, *local.Uploader, error) {
	switch cfg.UploadBackend {
	case "cloudinary":
		return cloudinary.NewUploader(cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset, cfg.HTTPTimeout).
			WithBaseURL(cfg.CloudinaryBaseURL), nil, nil
	case "s3":
		client, err := s3upload.NewClient(ctx, cfg.S3Region)
		if err != nil {
			return nil, nil, err
		}
		return s3upload.NewUploader(client, cfg.S3Bucket, cfg.S3Region, cfg.S3PublicBaseURL), nil, nil
	case "local":
		photos, err := local.NewUploader(cfg.PhotoPath, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize photo store: %w", err)
		}
		return photos, photos, nil
	default:
		return nil, nil, fmt.Errorf("unknown UPLOAD_BACKEND %q", cfg.UploadBackend)
	}
}

func newDetector(ctx context.Context, cfg *config.Config, logger *slog.Logger) (vision.LabelDetector, error) {
	switch cfg.VisionBackend {
	case "google":
		logger.Info("using Google Cloud Vision backend")
		return googlevision.NewDetector(ctx, cfg.GoogleVisionAPIKey, cfg.GoogleVisionURL, cfg.HTTPTimeout)
	case "rekognition":
		logger.Info("using Amazon Rekognition backend", "region", cfg.AWSRegion)
		client, err := rekognition.NewClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		return rekognition.NewDetector(client), nil
	case "ollama":
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewDetector(cfg.OllamaHost, cfg.OllamaModel, cfg.HTTPTimeout), nil
	case "claude":
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewDetector(cfg.ClaudeAPIKey, cfg.ClaudeModel, "", cfg.HTTPTimeout), nil
	default:
		return nil, fmt.Errorf("unknown VISION_BACKEND %q", cfg.VisionBackend)
	}
}

func newCompleter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (chat.Completer, error) {
	switch cfg.ChatBackend {
	case "gemini":
		logger.Info("using Gemini chat backend", "model", cfg.GeminiModel)
		return geminichat.NewCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, "", cfg.HTTPTimeout)
	case "claude":
		logger.Info("using Claude chat backend", "model", cfg.ClaudeModel)
		return claudechat.NewCompleter(cfg.ClaudeAPIKey, cfg.ClaudeModel, "", cfg.HTTPTimeout), nil
	case "openai":
		logger.Info("using OpenAI chat backend", "model", cfg.OpenAIModel)
		return openaichat.NewCompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel, "", cfg.HTTPTimeout), nil
	default:
		return nil, fmt.Errorf("unknown CHAT_BACKEND %q", cfg.ChatBackend)
	}
}
