//go:build !tesseract

package tesseract

import (
	"fmt"

	"github.com/poiesic/sluice/ai"
)

// New reports that this binary was built without Tesseract support.
func New(config *ai.Config) (ai.TextRecognizer, error) {
	return nil, fmt.Errorf("%w: tesseract support requires building with -tags tesseract", ai.ErrBackendUnavailable)
}
