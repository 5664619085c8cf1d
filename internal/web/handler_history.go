package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/nutriscan/internal/domain"
	"github.com/vbonduro/nutriscan/internal/nutrition"
)

// entryView is a history entry with its display-time essential nutrients.
type entryView struct {
	*domain.NutritionEntry
	EssentialNutrients []domain.Nutrient `json:"essentialNutrients"`
}

func newEntryView(e *domain.NutritionEntry) entryView {
	return entryView{NutritionEntry: e, EssentialNutrients: nutrition.Essential(e.Nutrients)}
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.food.History(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, s.logger, "failed to list history")
		s.logger.Error("list history failed", "error", err)
		return
	}

	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newEntryView(e))
	}
	writeJSON(w, http.StatusOK, views, s.logger)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := s.food.Entry(r.Context(), id)
	if err != nil {
		httpError(w, http.StatusInternalServerError, s.logger, "failed to get entry")
		s.logger.Error("get entry failed", "id", id, "error", err)
		return
	}
	if entry == nil {
		httpError(w, http.StatusNotFound, s.logger, "entry not found")
		return
	}
	writeJSON(w, http.StatusOK, newEntryView(entry), s.logger)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.food.DeleteEntry(r.Context(), id); err != nil {
		httpError(w, http.StatusInternalServerError, s.logger, "failed to delete entry")
		s.logger.Error("delete entry failed", "id", id, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
