package vision

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vbonduro/nutriscan/internal/domain"
)

// MaxLabels is how many labels a detector asks the remote service for.
const MaxLabels = 5

// ErrEmptyLabel is returned when the top-ranked label has no description.
var ErrEmptyLabel = errors.New("no valid label detected")

// LabelDetector tags a hosted photo with what it depicts.
type LabelDetector interface {
	DetectLabels(ctx context.Context, img Image) ([]domain.Label, error)
}

// Image identifies the photo to analyse. Backends that can fetch by URL use
// URL when it is set; otherwise Data carries the raw bytes.
type Image struct {
	URL  string
	Data []byte
}

// APIError is returned when the vision service answers with a non-success
// status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vision api returned status %d: %s", e.StatusCode, e.Message)
}

// SortLabels orders labels by descending confidence in place. Labels with
// equal confidence keep the order the service returned them in.
func SortLabels(labels []domain.Label) {
	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].Confidence > labels[j].Confidence
	})
}

// BestLabel returns the highest-confidence label. It does not modify labels.
func BestLabel(labels []domain.Label) (domain.Label, error) {
	if len(labels) == 0 {
		return domain.Label{}, errors.New("no labels")
	}
	ranked := make([]domain.Label, len(labels))
	copy(ranked, labels)
	SortLabels(ranked)
	if ranked[0].Description == "" {
		return domain.Label{}, ErrEmptyLabel
	}
	return ranked[0], nil
}
