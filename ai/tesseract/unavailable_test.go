//go:build !tesseract

package tesseract

import (
	"testing"

	"github.com/poiesic/sluice/ai"
	"github.com/stretchr/testify/assert"
)

func TestNew_WithoutBuildTag(t *testing.T) {
	r, err := New(ai.DefaultConfig())
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ai.ErrBackendUnavailable)
}
