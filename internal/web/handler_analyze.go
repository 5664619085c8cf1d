package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/vbonduro/nutriscan/internal/analysis"
	"github.com/vbonduro/nutriscan/internal/domain"
	"github.com/vbonduro/nutriscan/internal/nutrition"
	"github.com/vbonduro/nutriscan/internal/service"
	"github.com/vbonduro/nutriscan/internal/upload"
)

const maxPhotoSize = 50 * 1024 * 1024 // 50 MB

// analyzeResponse is the body of POST /api/analyze once the analysis itself
// succeeded. SaveError is set, and EntryID empty, when recording it failed.
type analyzeResponse struct {
	Success bool `json:"success"`
	*service.Analysis
	EssentialNutrients []domain.Nutrient `json:"essentialNutrients"`
	EntryID            string            `json:"entryId,omitempty"`
	SaveError          string            `json:"saveError,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		httpError(w, http.StatusBadRequest, s.logger, "failed to parse form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		httpError(w, http.StatusBadRequest, s.logger, "image file required")
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	imageData, err := io.ReadAll(file)
	if err != nil {
		httpError(w, http.StatusInternalServerError, s.logger, "failed to read file")
		s.logger.Error("read upload failed", "error", err)
		return
	}

	mimeType, ok := upload.SniffImageMIME(imageData)
	if !ok {
		httpError(w, http.StatusBadRequest, s.logger, "%s: %s", upload.ErrUnsupportedImage, mimeType)
		return
	}

	photo := upload.Photo{Name: header.Filename, Data: imageData, MIMEType: mimeType}
	result, entry, err := s.food.AnalyzeAndSave(r.Context(), photo)
	if err != nil {
		var f *analysis.Failure
		if errors.As(err, &f) || result == nil {
			writeJSON(w, http.StatusUnprocessableEntity, analysis.OutcomeOf(err), s.logger)
			return
		}
		s.logger.Error("analysis not saved", "label", result.Description, "image_url", result.ImageURL, "error", err)
		writeJSON(w, http.StatusInternalServerError, analyzeResponse{
			Success:            true,
			Analysis:           result,
			EssentialNutrients: nutrition.Essential(result.Nutrients),
			SaveError:          "failed to save nutrition entry",
		}, s.logger)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Success:            true,
		Analysis:           result,
		EssentialNutrients: nutrition.Essential(result.Nutrients),
		EntryID:            entry.ID,
	}, s.logger)
}
