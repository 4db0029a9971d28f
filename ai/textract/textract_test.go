package textract

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/poiesic/sluice/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTextract struct {
	out *textract.DetectDocumentTextOutput
	err error
	got *textract.DetectDocumentTextInput
}

func (f *fakeTextract) DetectDocumentText(ctx context.Context, in *textract.DetectDocumentTextInput, _ ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error) {
	f.got = in
	return f.out, f.err
}

func TestRecognizeText_JoinsLines(t *testing.T) {
	fake := &fakeTextract{out: &textract.DetectDocumentTextOutput{Blocks: []types.Block{
		{BlockType: types.BlockTypePage},
		{BlockType: types.BlockTypeLine, Text: aws.String("INVOICE 42"), Confidence: aws.Float32(98)},
		{BlockType: types.BlockTypeWord, Text: aws.String("INVOICE"), Confidence: aws.Float32(99)},
		{BlockType: types.BlockTypeLine, Text: aws.String("Total: 10.00"), Confidence: aws.Float32(90)},
	}}}

	text, err := NewWithClient(fake).RecognizeText(context.Background(), []byte("png"), "png")
	require.NoError(t, err)
	assert.Equal(t, "INVOICE 42\nTotal: 10.00", text.Text)
	assert.InDelta(t, 0.94, text.Confidence, 1e-6)
	assert.Equal(t, []byte("png"), fake.got.Document.Bytes)
}

func TestRecognizeText_NoLines(t *testing.T) {
	fake := &fakeTextract{out: &textract.DetectDocumentTextOutput{}}
	text, err := NewWithClient(fake).RecognizeText(context.Background(), []byte("png"), "png")
	require.NoError(t, err)
	assert.Empty(t, text.Text)
	assert.Zero(t, text.Confidence)
}

func TestRecognizeText_Errors(t *testing.T) {
	boom := errors.New("throttled")
	r := NewWithClient(&fakeTextract{err: boom})

	_, err := r.RecognizeText(context.Background(), []byte("png"), "png")
	assert.ErrorIs(t, err, boom)

	_, err = r.RecognizeText(context.Background(), nil, "png")
	assert.ErrorIs(t, err, ai.ErrEmptyImage)

	_, err = r.RecognizeText(context.Background(), make([]byte, MaxImageBytes+1), "png")
	assert.Error(t, err)
}
