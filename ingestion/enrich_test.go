package ingestion

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/poiesic/sluice/ai"
	"github.com/poiesic/sluice/ai/mock"
	"github.com/poiesic/sluice/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(w, h, color.NRGBA{R: 10, G: 120, B: 200, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestEnricher_Enrich(t *testing.T) {
	classifier := mock.NewMockClassifier()
	recognizer := mock.NewMockTextRecognizer()
	enricher := NewEnricher(classifier, recognizer)

	artifact := &core.ImageArtifact{Bytes: pngBytes(t, 4, 4), Format: "png"}
	enricher.Enrich(context.Background(), artifact)

	require.NotNil(t, artifact.Classification)
	assert.Equal(t, "photograph", artifact.Classification.Label)
	assert.InDelta(t, 0.9, artifact.Classification.Confidence, 1e-9)
	require.NotNil(t, artifact.OCR)
	assert.Equal(t, "mock text", artifact.OCR.Text)
	assert.Equal(t, 1, classifier.CallCount())
	assert.Equal(t, 1, recognizer.CallCount())
}

func TestEnricher_ErrorsYieldAbsent(t *testing.T) {
	classifier := mock.NewMockClassifier()
	classifier.ClassifyFunc = func(ctx context.Context, image []byte, format string) (*ai.Label, error) {
		return nil, errors.New("backend down")
	}
	recognizer := mock.NewMockTextRecognizer()
	recognizer.RecognizeTextFunc = func(ctx context.Context, image []byte, format string) (*ai.RecognizedText, error) {
		panic("backend exploded")
	}
	enricher := NewEnricher(classifier, recognizer)

	c, ok := enricher.Classify(context.Background(), pngBytes(t, 2, 2), "png")
	assert.False(t, ok)
	assert.Nil(t, c)

	text, ok := enricher.ExtractText(context.Background(), pngBytes(t, 2, 2), "png")
	assert.False(t, ok)
	assert.Nil(t, text)
}

func TestEnricher_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	classifier := mock.NewMockClassifier()
	classifier.ClassifyFunc = func(ctx context.Context, image []byte, format string) (*ai.Label, error) {
		<-release // ignores ctx
		return &ai.Label{Name: "chart", Confidence: 1}, nil
	}
	enricher := NewEnricher(classifier, nil, WithEnrichTimeout(20*time.Millisecond))

	start := time.Now()
	_, ok := enricher.Classify(context.Background(), pngBytes(t, 2, 2), "png")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestEnricher_MinConfidence(t *testing.T) {
	classifier := mock.NewMockClassifier()
	classifier.ClassifyFunc = func(ctx context.Context, image []byte, format string) (*ai.Label, error) {
		return &ai.Label{Name: "Screenshot", Confidence: 40}, nil
	}
	recognizer := mock.NewMockTextRecognizer()
	recognizer.RecognizeTextFunc = func(ctx context.Context, image []byte, format string) (*ai.RecognizedText, error) {
		return &ai.RecognizedText{Text: "faint", Confidence: 0.2}, nil
	}

	loose := NewEnricher(classifier, recognizer)
	c, ok := loose.Classify(context.Background(), pngBytes(t, 2, 2), "png")
	require.True(t, ok)
	assert.Equal(t, "screenshot", c.Label)
	assert.InDelta(t, 0.4, c.Confidence, 1e-9)

	strict := NewEnricher(classifier, recognizer, WithMinConfidence(0.5))
	_, ok = strict.Classify(context.Background(), pngBytes(t, 2, 2), "png")
	assert.False(t, ok)
	_, ok = strict.ExtractText(context.Background(), pngBytes(t, 2, 2), "png")
	assert.False(t, ok)
}

func TestEnricher_EmptyTextIsAbsent(t *testing.T) {
	recognizer := mock.NewMockTextRecognizer()
	recognizer.RecognizeTextFunc = func(ctx context.Context, image []byte, format string) (*ai.RecognizedText, error) {
		return &ai.RecognizedText{Text: "  \n", Confidence: 0.99}, nil
	}
	_, ok := NewEnricher(nil, recognizer).ExtractText(context.Background(), pngBytes(t, 2, 2), "png")
	assert.False(t, ok)
}

func TestEnricher_Downscales(t *testing.T) {
	var gotW, gotH int
	var gotFormat string
	classifier := mock.NewMockClassifier()
	classifier.ClassifyFunc = func(ctx context.Context, image []byte, format string) (*ai.Label, error) {
		img, err := imaging.Decode(bytes.NewReader(image))
		if err != nil {
			return nil, err
		}
		gotW, gotH, gotFormat = img.Bounds().Dx(), img.Bounds().Dy(), format
		return &ai.Label{Name: "diagram", Confidence: 0.8}, nil
	}

	enricher := NewEnricher(classifier, nil, WithMaxEnrichDimension(50))
	_, ok := enricher.Classify(context.Background(), pngBytes(t, 200, 100), "png")
	require.True(t, ok)
	assert.Equal(t, 50, gotW)
	assert.Equal(t, 25, gotH)
	assert.Equal(t, "png", gotFormat)
}

func TestEnricher_ReencodesUncommonFormats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(3, 3, color.White), imaging.GIF))

	var gotFormat string
	classifier := mock.NewMockClassifier()
	classifier.ClassifyFunc = func(ctx context.Context, image []byte, format string) (*ai.Label, error) {
		gotFormat = format
		return &ai.Label{Name: "logo", Confidence: 0.7}, nil
	}
	_, ok := NewEnricher(classifier, nil).Classify(context.Background(), buf.Bytes(), "gif")
	require.True(t, ok)
	assert.Equal(t, "png", gotFormat)
}

func TestEnricher_Disabled(t *testing.T) {
	var nilEnricher *Enricher
	assert.False(t, nilEnricher.Enabled())

	enricher := NewEnricherFromProvider(mock.NewMockProviderWithServices(nil, nil))
	assert.False(t, enricher.Enabled())

	artifact := &core.ImageArtifact{Bytes: pngBytes(t, 2, 2), Format: "png"}
	enricher.Enrich(context.Background(), artifact)
	assert.Nil(t, artifact.Classification)
	assert.Nil(t, artifact.OCR)

	_, ok := enricher.Classify(context.Background(), artifact.Bytes, "png")
	assert.False(t, ok)
}
