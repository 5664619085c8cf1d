package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vbonduro/nutriscan/internal/analysis"
	"github.com/vbonduro/nutriscan/internal/domain"
	"github.com/vbonduro/nutriscan/internal/nutrition"
	"github.com/vbonduro/nutriscan/internal/upload"
	"github.com/vbonduro/nutriscan/internal/vision"
)

// nutritionLookup is the subset of nutrition.Client that FoodService requires.
type nutritionLookup interface {
	Lookup(ctx context.Context, label string) (*nutrition.Food, error)
}

// historyRepository is the subset of store.HistoryStore that FoodService requires.
type historyRepository interface {
	Save(ctx context.Context, label string, nutrients []domain.Nutrient, imageURL string) (*domain.NutritionEntry, error)
	List(ctx context.Context) ([]*domain.NutritionEntry, error)
	Get(ctx context.Context, id string) (*domain.NutritionEntry, error)
	Delete(ctx context.Context, id string) error
}

// Analysis is the result of a successful photo analysis. Description is the
// best vision label, which is also what nutrition was looked up for.
type Analysis struct {
	Description   string            `json:"description"`
	Nutrients     []domain.Nutrient `json:"nutrients"`
	Confidence    float64           `json:"confidence"`
	ImageURL      string            `json:"imageUrl"`
	ImagePublicID string            `json:"imagePublicId"`
	AllLabels     []domain.Label    `json:"allLabels"`
}

type FoodService struct {
	uploader     upload.Uploader
	detector     vision.LabelDetector
	lookup       nutritionLookup
	history      historyRepository
	inlineImages bool
	logger       *slog.Logger
}

func NewFoodService(
	uploader upload.Uploader,
	detector vision.LabelDetector,
	lookup nutritionLookup,
	history historyRepository,
	logger *slog.Logger,
) *FoodService {
	return &FoodService{
		uploader: uploader,
		detector: detector,
		lookup:   lookup,
		history:  history,
		logger:   logger,
	}
}

// WithInlineImages makes the detector receive the photo bytes instead of the
// hosted URL, for uploaders whose URLs are not publicly reachable.
func (s *FoodService) WithInlineImages() *FoodService {
	s.inlineImages = true
	return s
}

// AnalyzeFile reads a photo from disk and analyzes it.
func (s *FoodService) AnalyzeFile(ctx context.Context, path string) (*Analysis, error) {
	photo, err := upload.ReadPhoto(path)
	if err != nil {
		return nil, &analysis.Failure{Kind: analysis.KindAnalysisFailed, Message: analysis.MsgAnalysisFailed, Cause: err}
	}
	return s.Analyze(ctx, photo)
}

// Analyze uploads the photo, detects labels, and looks up nutrition for the
// best label. Every error it returns is an *analysis.Failure.
func (s *FoodService) Analyze(ctx context.Context, photo upload.Photo) (result *Analysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("food analysis panicked", "panic", r)
			result, err = nil, &analysis.Failure{
				Kind:    analysis.KindAnalysisFailed,
				Message: analysis.MsgAnalysisFailed,
				Cause:   fmt.Errorf("panic: %v", r),
			}
		}
	}()

	s.logger.Info("food analysis started", "name", photo.Name, "mime_type", photo.MIMEType, "bytes", len(photo.Data))

	img, err := s.uploader.Upload(ctx, photo)
	if err != nil {
		s.logger.Error("photo upload failed", "error", err)
		return nil, &analysis.Failure{Kind: analysis.KindUploadFailed, Message: analysis.MsgUploadFailed, Cause: err}
	}
	s.logger.Debug("photo uploaded", "url", img.SecureURL, "public_id", img.PublicID)

	// hosted attaches the image location to a failure raised after upload.
	hosted := func(f *analysis.Failure) *analysis.Failure {
		f.ImageURL = img.SecureURL
		f.ImagePublicID = img.PublicID
		return f
	}

	target := vision.Image{Data: photo.Data}
	if !s.inlineImages {
		target.URL = img.SecureURL
	}

	labels, err := s.detector.DetectLabels(ctx, target)
	if err != nil {
		s.logger.Error("label detection failed", "error", err)
		var apiErr *vision.APIError
		if errors.As(err, &apiErr) {
			return nil, hosted(&analysis.Failure{Kind: analysis.KindVisionAPIError, Message: analysis.MsgVisionAPIError, Cause: err})
		}
		return nil, hosted(&analysis.Failure{Kind: analysis.KindAnalysisFailed, Message: analysis.MsgAnalysisFailed, Cause: err})
	}
	if len(labels) == 0 {
		s.logger.Info("no labels detected", "url", img.SecureURL)
		return nil, hosted(analysis.Fail(analysis.KindNoLabels, analysis.MsgNoLabels))
	}

	best, err := vision.BestLabel(labels)
	if err != nil {
		return nil, hosted(&analysis.Failure{Kind: analysis.KindAnalysisFailed, Message: analysis.MsgAnalysisFailed, Cause: err})
	}
	vision.SortLabels(labels)
	s.logger.Info("labels detected", "count", len(labels), "best", best.Description, "confidence", best.Confidence)

	food, err := s.lookup.Lookup(ctx, best.Description)
	if err != nil {
		s.logger.Error("nutrition lookup failed", "label", best.Description, "error", err)
		var f *analysis.Failure
		if errors.As(err, &f) {
			return nil, hosted(&analysis.Failure{Kind: f.Kind, Message: f.Message, Cause: f.Cause})
		}
		return nil, hosted(&analysis.Failure{Kind: analysis.KindAnalysisFailed, Message: analysis.MsgAnalysisFailed, Cause: err})
	}

	s.logger.Info("food analysis complete", "label", best.Description, "fdc_id", food.FDCID, "nutrients", len(food.Nutrients))
	return &Analysis{
		Description:   best.Description,
		Nutrients:     food.Nutrients,
		Confidence:    best.Confidence,
		ImageURL:      img.SecureURL,
		ImagePublicID: img.PublicID,
		AllLabels:     labels,
	}, nil
}

// AnalyzeAndSave runs Analyze and records a successful result in the
// nutrition history. A save failure is returned alongside the analysis.
func (s *FoodService) AnalyzeAndSave(ctx context.Context, photo upload.Photo) (*Analysis, *domain.NutritionEntry, error) {
	result, err := s.Analyze(ctx, photo)
	if err != nil {
		s.logger.Info("analysis failed, nothing saved", "kind", analysis.KindOf(err))
		return nil, nil, err
	}

	entry, err := s.history.Save(ctx, result.Description, result.Nutrients, result.ImageURL)
	if err != nil {
		s.logger.Error("failed to save nutrition entry", "label", result.Description, "error", err)
		return result, nil, fmt.Errorf("failed to save nutrition entry: %w", err)
	}
	s.logger.Info("nutrition entry saved", "id", entry.ID, "label", entry.FoodLabel)
	return result, entry, nil
}

func (s *FoodService) History(ctx context.Context) ([]*domain.NutritionEntry, error) {
	return s.history.List(ctx)
}

func (s *FoodService) Entry(ctx context.Context, id string) (*domain.NutritionEntry, error) {
	return s.history.Get(ctx, id)
}

func (s *FoodService) DeleteEntry(ctx context.Context, id string) error {
	return s.history.Delete(ctx, id)
}
