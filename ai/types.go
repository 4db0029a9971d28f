package ai

import (
	"slices"
	"strings"
)

// ImageLabels defines the valid classification labels.
var ImageLabels = []string{
	"chart",
	"diagram",
	"document_scan",
	"handwriting",
	"illustration",
	"logo",
	"map",
	"other",
	"photograph",
	"receipt",
	"screenshot",
	"table",
}

// NormalizeLabel lowercases name and joins words with underscores.
// Unknown labels map to "other".
func NormalizeLabel(name string) string {
	name = strings.Join(strings.Fields(strings.ToLower(name)), "_")
	name = strings.ReplaceAll(name, "-", "_")
	if slices.Contains(ImageLabels, name) {
		return name
	}
	return "other"
}

// ClampConfidence limits c to [0,1]. Values above 1 are read as percentages.
func ClampConfidence(c float64) float64 {
	if c > 1 && c <= 100 {
		c /= 100
	}
	return min(max(c, 0), 1)
}
