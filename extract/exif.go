package extract

import (
	"bytes"
	"strings"

	"github.com/poiesic/sluice/core"
	"github.com/rwcarlsen/goexif/exif"
)

// ReadExif parses EXIF metadata from image bytes.
// Returns nil when the image carries no EXIF block or it cannot be read.
func ReadExif(data []byte) *core.ExifData {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	var out core.ExifData
	if tag, err := x.Get(exif.Make); err == nil {
		if s, err := tag.StringVal(); err == nil {
			out.CameraMake = strings.TrimSpace(s)
		}
	}
	if tag, err := x.Get(exif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			out.CameraModel = strings.TrimSpace(s)
		}
	}
	if t, err := x.DateTime(); err == nil {
		out.TakenAt = &t
	}
	if lat, long, err := x.LatLong(); err == nil {
		out.Latitude = &lat
		out.Longitude = &long
	}

	if out == (core.ExifData{}) {
		return nil
	}
	return &out
}
