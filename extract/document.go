package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"github.com/poiesic/sluice/core"
)

// DocumentExtractor handles every core.KindDocument extension.
type DocumentExtractor struct {
	opts options
}

var _ Extractor = (*DocumentExtractor)(nil)

// NewDocumentExtractor creates a document extractor.
func NewDocumentExtractor(opts ...Option) *DocumentExtractor {
	return &DocumentExtractor{opts: newOptions("document-extractor", opts)}
}

// Extract reads path and returns its text, page and table counts and any
// embedded images.
func (e *DocumentExtractor) Extract(ctx context.Context, path string) (*core.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := e.opts.readFile(path)
	if err != nil {
		return nil, err
	}

	var result *core.ExtractionResult
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		result, err = e.extractPDF(data)
	case ".docx", ".odt":
		result, err = e.extractOffice(data, ext)
	case ".doc", ".rtf", ".html", ".htm":
		result, err = convert(data, docconv.MimeTypeByExtension(path))
	case ".txt", ".md":
		result, err = plainText(data)
	default:
		return nil, fmt.Errorf("%w: %s is not a document", core.ErrUnsupportedContent, ext)
	}
	if err != nil {
		return nil, err
	}

	result.Kind = core.KindDocument
	if result.PageCount == 0 {
		result.PageCount = 1
	}
	for i := range result.Images {
		result.Images[i].SourcePath = path
	}
	if err := e.opts.checkEmbedded(result.Images); err != nil {
		return nil, err
	}

	e.opts.logger.Debug("extracted document",
		"path", path,
		"chars", utf8.RuneCountInString(result.Text),
		"pages", result.PageCount,
		"tables", result.TableCount,
		"images", len(result.Images))
	return result, nil
}

// convert runs docconv on data of the given MIME type.
func convert(data []byte, mimeType string) (*core.ExtractionResult, error) {
	res, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrExtractionFailed, mimeType, err)
	}
	return &core.ExtractionResult{Text: res.Body}, nil
}

func plainText(data []byte) (*core.ExtractionResult, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", core.ErrExtractionFailed)
	}
	return &core.ExtractionResult{Text: string(data)}, nil
}
