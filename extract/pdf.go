package extract

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ledongthuc/pdf"
	"github.com/poiesic/sluice/core"
)

var errUnsupportedImage = errors.New("unsupported image encoding")

// extractPDF returns per-page plain text joined by blank lines, the page
// count and decodable image XObjects re-encoded as PNG.
// The parser panics on some malformed input; that is reported as an
// extraction failure.
func (e *DocumentExtractor) extractPDF(data []byte) (result *core.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: pdf parser: %v", core.ErrExtractionFailed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrExtractionFailed, err)
	}

	numPages := reader.NumPage()
	var (
		text   strings.Builder
		images []core.EmbeddedImage
	)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", core.ErrExtractionFailed, i, err)
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			if text.Len() > 0 {
				text.WriteString("\n\n")
			}
			text.WriteString(pageText)
		}

		images = append(images, e.pageImages(page, i)...)
	}

	return &core.ExtractionResult{
		Text:      text.String(),
		PageCount: numPages,
		Images:    images,
	}, nil
}

// pageImages collects the image XObjects of one page. Ordinals count every
// image XObject in name order, including skipped ones, so IDs stay stable.
func (e *DocumentExtractor) pageImages(page pdf.Page, pageNum int) []core.EmbeddedImage {
	xobjects := page.Resources().Key("XObject")
	if xobjects.Kind() != pdf.Dict {
		return nil
	}
	names := xobjects.Keys()
	slices.Sort(names)

	var images []core.EmbeddedImage
	ordinal := 0
	for _, name := range names {
		x := xobjects.Key(name)
		if x.Key("Subtype").Name() != "Image" {
			continue
		}
		encoded, err := encodeXObjectImage(x)
		if err != nil {
			e.opts.logger.Debug("skipping pdf image", "page", pageNum, "name", name, "err", err)
		} else {
			images = append(images, core.EmbeddedImage{
				Bytes:   encoded,
				Format:  "png",
				Page:    pageNum,
				Ordinal: ordinal,
			})
		}
		ordinal++
	}
	return images
}

// encodeXObjectImage decodes an 8-bit gray or RGB Flate image and re-encodes it as PNG.
func encodeXObjectImage(x pdf.Value) (encoded []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errUnsupportedImage, r)
		}
	}()

	if f := filterName(x.Key("Filter")); f != "" && f != "FlateDecode" {
		return nil, fmt.Errorf("%w: filter %s", errUnsupportedImage, f)
	}
	if x.Key("DecodeParms").Key("Predictor").Int64() > 1 {
		return nil, fmt.Errorf("%w: predictor", errUnsupportedImage)
	}
	if bpc := x.Key("BitsPerComponent").Int64(); bpc != 8 {
		return nil, fmt.Errorf("%w: %d bits per component", errUnsupportedImage, bpc)
	}

	w, h := int(x.Key("Width").Int64()), int(x.Key("Height").Int64())
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", errUnsupportedImage, w, h)
	}

	var components int
	switch cs := x.Key("ColorSpace").Name(); cs {
	case "DeviceGray":
		components = 1
	case "DeviceRGB":
		components = 3
	default:
		return nil, fmt.Errorf("%w: color space %q", errUnsupportedImage, cs)
	}

	rd := x.Reader()
	defer rd.Close()
	raw, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	if len(raw) < w*h*components {
		return nil, fmt.Errorf("%w: short sample data", errUnsupportedImage)
	}

	var img image.Image
	if components == 1 {
		img = &image.Gray{Pix: raw[:w*h], Stride: w, Rect: image.Rect(0, 0, w, h)}
	} else {
		rgba := image.NewNRGBA(image.Rect(0, 0, w, h))
		for i := 0; i < w*h; i++ {
			rgba.Pix[i*4] = raw[i*3]
			rgba.Pix[i*4+1] = raw[i*3+1]
			rgba.Pix[i*4+2] = raw[i*3+2]
			rgba.Pix[i*4+3] = 0xff
		}
		img = rgba
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func filterName(v pdf.Value) string {
	switch v.Kind() {
	case pdf.Name:
		return v.Name()
	case pdf.Array:
		if v.Len() == 1 {
			return v.Index(0).Name()
		}
		if v.Len() > 1 {
			return "chained"
		}
	}
	return ""
}
