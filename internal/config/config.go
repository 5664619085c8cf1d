package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr    string
	DBPath        string
	LogLevel      string
	LogFile       string
	HTTPTimeout   time.Duration
	PublicBaseURL string

	UploadBackend          string
	CloudinaryCloudName    string
	CloudinaryUploadPreset string
	CloudinaryBaseURL      string
	S3Bucket               string
	S3Region               string
	S3PublicBaseURL        string
	PhotoPath              string

	VisionBackend      string
	GoogleVisionAPIKey string
	GoogleVisionURL    string
	AWSRegion          string
	OllamaHost         string
	OllamaModel        string

	FDCAPIKey  string
	FDCBaseURL string

	ChatBackend  string
	GeminiAPIKey string
	GeminiModel  string
	ClaudeAPIKey string
	ClaudeModel  string
	OpenAIAPIKey string
	OpenAIModel  string
}

// LoadDotEnv loads variables from path into the process environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func Load() *Config {
	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		DBPath:        getEnv("DB_PATH", "/data/nutriscan.db"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		HTTPTimeout:   getDuration("HTTP_TIMEOUT", 60*time.Second),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		UploadBackend:          getEnv("UPLOAD_BACKEND", "cloudinary"),
		CloudinaryCloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryUploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", ""),
		CloudinaryBaseURL:      getEnv("CLOUDINARY_BASE_URL", "https://api.cloudinary.com"),
		S3Bucket:               getEnv("S3_BUCKET", ""),
		S3Region:               getEnv("S3_REGION", getEnv("AWS_REGION", "us-east-1")),
		S3PublicBaseURL:        getEnv("S3_PUBLIC_BASE_URL", ""),
		PhotoPath:              getEnv("PHOTO_LOCAL_PATH", "/data/photos"),

		VisionBackend:      getEnv("VISION_BACKEND", "google"),
		GoogleVisionAPIKey: getEnv("GOOGLE_VISION_API_KEY", ""),
		GoogleVisionURL:    getEnv("GOOGLE_VISION_URL", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		OllamaHost:         getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:        getEnv("OLLAMA_MODEL", "llava"),

		FDCAPIKey:  getEnv("FDC_API_KEY", ""),
		FDCBaseURL: getEnv("FDC_BASE_URL", "https://api.nal.usda.gov"),

		ChatBackend:  getEnv("CHAT_BACKEND", "gemini"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		ClaudeAPIKey: getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:  getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
	}
}

// Validate reports the credentials missing for the selected backends.
func (c *Config) Validate() error {
	var errs []error
	require := func(val, name, why string) {
		if val == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s", name, why))
		}
	}

	switch c.UploadBackend {
	case "cloudinary":
		require(c.CloudinaryCloudName, "CLOUDINARY_CLOUD_NAME", "UPLOAD_BACKEND=cloudinary")
		require(c.CloudinaryUploadPreset, "CLOUDINARY_UPLOAD_PRESET", "UPLOAD_BACKEND=cloudinary")
	case "s3":
		require(c.S3Bucket, "S3_BUCKET", "UPLOAD_BACKEND=s3")
		require(c.S3PublicBaseURL, "S3_PUBLIC_BASE_URL", "UPLOAD_BACKEND=s3")
	case "local":
	default:
		errs = append(errs, fmt.Errorf("unknown UPLOAD_BACKEND %q", c.UploadBackend))
	}

	switch c.VisionBackend {
	case "google":
		require(c.GoogleVisionAPIKey, "GOOGLE_VISION_API_KEY", "VISION_BACKEND=google")
	case "claude":
		require(c.ClaudeAPIKey, "CLAUDE_API_KEY", "VISION_BACKEND=claude")
	case "rekognition", "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown VISION_BACKEND %q", c.VisionBackend))
	}

	require(c.FDCAPIKey, "FDC_API_KEY", "looking up nutrition data")

	switch c.ChatBackend {
	case "gemini":
		require(c.GeminiAPIKey, "GEMINI_API_KEY", "CHAT_BACKEND=gemini")
	case "claude":
		require(c.ClaudeAPIKey, "CLAUDE_API_KEY", "CHAT_BACKEND=claude")
	case "openai":
		require(c.OpenAIAPIKey, "OPENAI_API_KEY", "CHAT_BACKEND=openai")
	default:
		errs = append(errs, fmt.Errorf("unknown CHAT_BACKEND %q", c.ChatBackend))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
