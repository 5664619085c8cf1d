package analysis

import (
	"errors"
	"fmt"
)

// Kind names a failure in the food analysis pipeline. The set is closed;
// callers switch on it to decide what to show the user.
type Kind string

const (
	KindUploadFailed     Kind = "UPLOAD_FAILED"
	KindVisionAPIError   Kind = "VISION_API_ERROR"
	KindNoLabels         Kind = "NO_LABELS_DETECTED"
	KindSearchAPIError   Kind = "SEARCH_API_ERROR"
	KindFoodNotFound     Kind = "FOOD_NOT_FOUND"
	KindNutrientAPIError Kind = "NUTRIENT_API_ERROR"
	KindNoNutritionData  Kind = "NO_NUTRITION_DATA"
	KindNetworkError     Kind = "NETWORK_ERROR"
	KindAnalysisFailed   Kind = "ANALYSIS_FAILED"
)

// Failure is the single error type returned by the analysis pipeline and the
// nutrition lookup. ImageURL and ImagePublicID are set once the photo has
// been hosted, so the caller can still show or clean up the image.
type Failure struct {
	Kind          Kind
	Message       string
	ImageURL      string
	ImagePublicID string
	Cause         error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Fail builds a Failure with no cause.
func Fail(kind Kind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// KindOf returns the Kind of the first Failure in err's chain, or
// KindAnalysisFailed when err is not a Failure.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindAnalysisFailed
}

// Outcome is the uniform wire shape for an analysis attempt.
type Outcome struct {
	Success       bool   `json:"success"`
	Error         Kind   `json:"error,omitempty"`
	Message       string `json:"message,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	ImagePublicID string `json:"imagePublicId,omitempty"`
	OriginalError string `json:"originalError,omitempty"`
}

// OutcomeOf renders err as a failed Outcome.
func OutcomeOf(err error) Outcome {
	var f *Failure
	if !errors.As(err, &f) {
		return Outcome{
			Error:         KindAnalysisFailed,
			Message:       MsgAnalysisFailed,
			OriginalError: err.Error(),
		}
	}
	out := Outcome{
		Error:         f.Kind,
		Message:       f.Message,
		ImageURL:      f.ImageURL,
		ImagePublicID: f.ImagePublicID,
	}
	if f.Kind == KindAnalysisFailed && f.Cause != nil {
		out.OriginalError = f.Cause.Error()
	}
	return out
}

// User-facing messages.
const (
	MsgUploadFailed     = "Unable to upload the image. Please try again."
	MsgVisionAPIError   = "Unable to analyze the image. Please try again."
	MsgNoLabels         = "No food items detected in the image. Please try taking another photo."
	MsgSearchAPIError   = "Unable to search for nutrition data. Please try again."
	MsgNutrientAPIError = "Unable to get nutrition details. Please try again."
	MsgNetworkError     = "Network error while fetching nutrition data. Please check your connection."
	MsgAnalysisFailed   = "Failed to analyze the image. Please try again."
)

func MsgFoodNotFound(label string) string {
	return fmt.Sprintf(`Does not seem like food!, No nutrition data found for "%s". Try taking a new photo.`, label)
}

func MsgNoNutritionData(label string) string {
	return fmt.Sprintf(`No nutrition information available for "%s".`, label)
}
