package openai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/poiesic/sluice/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedModel replies with the next canned response on each call.
type scriptedModel struct {
	replies  []string
	err      error
	calls    int
	messages []llms.MessageContent
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	if m.err != nil {
		return nil, m.err
	}
	reply := m.replies[min(m.calls, len(m.replies)-1)]
	m.calls++
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func testClassifier(model llms.Model) *Classifier {
	return &Classifier{client: model, logger: slog.Default()}
}

func testRecognizer(model llms.Model) *TextRecognizer {
	return &TextRecognizer{client: model, logger: slog.Default()}
}

func TestClassifier_Classify(t *testing.T) {
	model := &scriptedModel{replies: []string{"```json\n{\"label\":\"Document Scan\",\"confidence\":0.8}\n```"}}

	label, err := testClassifier(model).Classify(context.Background(), []byte("img"), "png")
	require.NoError(t, err)
	assert.Equal(t, "document_scan", label.Name)
	assert.Equal(t, 0.8, label.Confidence)

	require.Len(t, model.messages, 2)
	human := model.messages[1]
	require.Len(t, human.Parts, 2)
	imagePart, ok := human.Parts[1].(llms.ImageURLContent)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(imagePart.URL, "data:image/png;base64,"))
}

func TestClassifier_RetriesMalformedJSON(t *testing.T) {
	model := &scriptedModel{replies: []string{
		"not json at all",
		`{label":"chart","confidence":0.7}`,
	}}

	label, err := testClassifier(model).Classify(context.Background(), []byte("img"), "jpeg")
	require.NoError(t, err)
	assert.Equal(t, "chart", label.Name)
	assert.Equal(t, 2, model.calls)
}

func TestClassifier_GivesUpAfterRetries(t *testing.T) {
	model := &scriptedModel{replies: []string{"nope"}}

	_, err := testClassifier(model).Classify(context.Background(), []byte("img"), "png")
	assert.ErrorIs(t, err, ai.ErrInvalidResponse)
	assert.Equal(t, maxParseAttempts, model.calls)
}

func TestClassifier_TransportError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := testClassifier(&scriptedModel{err: boom}).Classify(context.Background(), []byte("img"), "png")
	assert.ErrorIs(t, err, boom)
}

func TestClassifier_EmptyImage(t *testing.T) {
	_, err := testClassifier(&scriptedModel{}).Classify(context.Background(), nil, "png")
	assert.ErrorIs(t, err, ai.ErrEmptyImage)
}

func TestTextRecognizer_RecognizeText(t *testing.T) {
	model := &scriptedModel{replies: []string{`{"text":"  TOTAL 12.50\nThank you  ","confidence":92}`}}

	text, err := testRecognizer(model).RecognizeText(context.Background(), []byte("img"), "png")
	require.NoError(t, err)
	assert.Equal(t, "TOTAL 12.50\nThank you", text.Text)
	assert.InDelta(t, 0.92, text.Confidence, 1e-9)
}

func TestTextRecognizer_NoText(t *testing.T) {
	model := &scriptedModel{replies: []string{`{"text":"","confidence":0.99}`}}

	text, err := testRecognizer(model).RecognizeText(context.Background(), []byte("img"), "png")
	require.NoError(t, err)
	assert.Empty(t, text.Text)
	assert.Zero(t, text.Confidence)
}

func TestRepairJSON(t *testing.T) {
	assert.Equal(t, `{"label":"map"}`, repairJSON(`{label":"map"}`))
	assert.Equal(t, `{"a":1, "b":2}`, repairJSON(`{"a":1, b":2}`))
	assert.Equal(t, `{"text":"x"}`, repairJSON(`{"text":"x"}`))
}

func TestNewProvider_ServicesFollowConfig(t *testing.T) {
	p, err := NewProvider(ai.NewConfig(ai.WithOCRBackend(ai.OCRBackendNone)))
	require.NoError(t, err)
	assert.NotNil(t, p.Classifier())
	assert.Nil(t, p.TextRecognizer())

	p, err = NewProvider(ai.NewConfig(ai.WithClassifierModel("")))
	require.NoError(t, err)
	assert.Nil(t, p.Classifier())
	assert.NotNil(t, p.TextRecognizer())
	require.NoError(t, p.Close())
}

func TestRepairJSON_ModelNoise(t *testing.T) {
	assert.Equal(t, `{"label":"chart","confidence":0.8}`,
		repairJSON(`Here is the result: {"label":"chart","confidence":0.8,} Hope it helps`))
	assert.Equal(t, `{"text":"a, b: c"}`, repairJSON(`{"text":"a, b: c"}`))
	assert.Equal(t, "no object", repairJSON("no object"))
}
