package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/poiesic/sluice/core"
)

// officeLayout describes where a zipped office format keeps its body and media.
type officeLayout struct {
	mimeType    string
	body        string
	mediaPrefix string
	tableTag    string
}

var officeLayouts = map[string]officeLayout{
	".docx": {
		mimeType:    "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		body:        "word/document.xml",
		mediaPrefix: "word/media/",
		tableTag:    "<w:tbl>",
	},
	".odt": {
		mimeType:    "application/vnd.oasis.opendocument.text",
		body:        "content.xml",
		mediaPrefix: "Pictures/",
		tableTag:    "<table:table ",
	},
}

func (e *DocumentExtractor) extractOffice(data []byte, ext string) (*core.ExtractionResult, error) {
	layout := officeLayouts[ext]

	result, err := convert(data, layout.mimeType)
	if err != nil {
		return nil, err
	}

	tables, images, err := readOfficeArchive(data, layout)
	if err != nil {
		return nil, err
	}
	result.TableCount = tables
	result.Images = images
	return result, nil
}

// readOfficeArchive counts tables in the document body and collects media
// files that look like raster images. Media ordinals follow archive name order.
func readOfficeArchive(data []byte, layout officeLayout) (int, []core.EmbeddedImage, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: not a zip archive: %w", core.ErrExtractionFailed, err)
	}

	var (
		tables int
		media  []*zip.File
	)
	for _, f := range zr.File {
		switch {
		case f.Name == layout.body:
			body, err := readZipFile(f)
			if err != nil {
				return 0, nil, err
			}
			tables = strings.Count(string(body), layout.tableTag)
		case strings.HasPrefix(f.Name, layout.mediaPrefix) && mediaFormat(f.Name) != "":
			media = append(media, f)
		}
	}
	slices.SortFunc(media, func(a, b *zip.File) int { return strings.Compare(a.Name, b.Name) })

	images := make([]core.EmbeddedImage, 0, len(media))
	for i, f := range media {
		body, err := readZipFile(f)
		if err != nil {
			return 0, nil, err
		}
		images = append(images, core.EmbeddedImage{
			Bytes:   body,
			Format:  mediaFormat(f.Name),
			Ordinal: i,
		})
	}
	return tables, images, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrExtractionFailed, f.Name, err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrExtractionFailed, f.Name, err)
	}
	return body, nil
}

// mediaFormat maps a media file name to an image format, or "" for
// non-raster media such as EMF or WMF.
func mediaFormat(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".tif", ".tiff":
		return "tiff"
	case ".bmp":
		return "bmp"
	default:
		return ""
	}
}
