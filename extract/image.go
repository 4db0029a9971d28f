package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/poiesic/sluice/core"
)

// ImageExtractor validates standalone images and reads their local metadata.
type ImageExtractor struct {
	opts options
}

var _ Extractor = (*ImageExtractor)(nil)

// NewImageExtractor creates an image extractor.
func NewImageExtractor(opts ...Option) *ImageExtractor {
	return &ImageExtractor{opts: newOptions("image-extractor", opts)}
}

// Extract sniffs and fully decodes the image at path. Content that is not an
// image, or that fails to decode, is an extraction failure.
func (e *ImageExtractor) Extract(ctx context.Context, path string) (*core.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := e.opts.readFile(path)
	if err != nil {
		return nil, err
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: %s content is %s", core.ErrExtractionFailed, path, mtype.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", core.ErrExtractionFailed, path, err)
	}
	bounds := img.Bounds()

	result := &core.ExtractionResult{
		Kind: core.KindImage,
		Image: &core.ImageData{
			Bytes:  data,
			Format: FormatFromMIME(mtype.String()),
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
			Exif:   ReadExif(data),
		},
	}

	e.opts.logger.Debug("extracted image",
		"path", path,
		"format", result.Image.Format,
		"width", result.Image.Width,
		"height", result.Image.Height,
		"exif", result.Image.Exif != nil)
	return result, nil
}

// FormatFromMIME maps an image MIME type to the short format name used in
// artifacts and object keys.
func FormatFromMIME(mime string) string {
	format := strings.TrimPrefix(mime, "image/")
	switch format {
	case "x-ms-bmp", "x-bmp":
		return "bmp"
	case "jpg":
		return "jpeg"
	}
	return format
}
