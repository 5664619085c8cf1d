package vision

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vbonduro/nutriscan/internal/domain"
)

// LabelPrompt is the shared prompt used by the language-model detectors.
const LabelPrompt = `Identify the food in this photo. List up to 5 labels, most specific first.
Respond in plain text, one label per line, format: label | confidence
where confidence is a number between 0 and 1.`

// listMarker matches a bullet or "1." / "1)" numbering at the start of a line.
var listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)

// ParseLabels parses a model response in the format: label | confidence.
// One label per line. A missing or unreadable confidence is 0; percentages
// are scaled to [0,1]. At most MaxLabels labels are returned.
func ParseLabels(raw string) []domain.Label {
	lines := strings.Split(raw, "\n")
	labels := make([]domain.Label, 0)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Skip common headers or non-label lines
		if strings.HasPrefix(line, "Here") || strings.HasPrefix(line, "I see") || strings.HasPrefix(line, "Based on") {
			continue
		}

		parts := strings.Split(line, "|")
		label := domain.Label{
			Description: strings.TrimSpace(listMarker.ReplaceAllString(parts[0], "")),
		}
		if len(parts) >= 2 {
			label.Confidence = parseConfidence(parts[1])
		}

		if label.Description != "" {
			labels = append(labels, label)
		}
		if len(labels) == MaxLabels {
			break
		}
	}

	return labels
}

func parseConfidence(s string) float64 {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil || v < 0 {
		return 0
	}
	if percent || v > 1 {
		v /= 100
	}
	if v > 1 {
		return 1
	}
	return v
}
