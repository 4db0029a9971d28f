package storage

import (
	"testing"
	"time"

	"github.com/poiesic/sluice/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkRoundTrip(t *testing.T) {
	chunk := &core.Chunk{
		ID:         core.ChunkID("/docs/a.txt", 3),
		SourcePath: "/docs/a.txt",
		Index:      3,
		Text:       "Ünïcode survives.",
		Start:      120,
		End:        139,
	}
	decoded, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)
	assert.Equal(t, chunk, decoded)
}

func TestImageArtifactRoundTrip(t *testing.T) {
	takenAt := time.Date(2024, 6, 1, 9, 30, 15, 0, time.UTC)
	lat, lon := 51.5, -0.12
	artifact := &core.ImageArtifact{
		ID:             core.ImageID("/docs/a.pdf", 2, 1),
		Bytes:          []byte{0x89, 0x50, 0x4e, 0x47},
		Format:         "png",
		SourcePath:     "/docs/a.pdf",
		ParentDocument: "/docs/a.pdf",
		Page:           2,
		Ordinal:        1,
		Classification: &core.Classification{Label: "diagram", Confidence: 0.8},
		Exif: &core.ExifData{
			CameraMake: "Canon",
			TakenAt:    &takenAt,
			Latitude:   &lat,
			Longitude:  &lon,
		},
	}

	decoded, err := UnmarshalImageArtifact(MarshalImageArtifact(artifact))
	require.NoError(t, err)
	assert.Equal(t, artifact.Bytes, decoded.Bytes)
	assert.Equal(t, artifact.ID, decoded.ID)
	assert.Equal(t, 2, decoded.Page)
	assert.Equal(t, 1, decoded.Ordinal)
	require.NotNil(t, decoded.Classification)
	assert.Equal(t, *artifact.Classification, *decoded.Classification)
	assert.Nil(t, decoded.OCR)
	require.NotNil(t, decoded.Exif)
	assert.Equal(t, "Canon", decoded.Exif.CameraMake)
	assert.Empty(t, decoded.Exif.CameraModel)
	require.NotNil(t, decoded.Exif.TakenAt)
	assert.True(t, takenAt.Equal(*decoded.Exif.TakenAt))
	require.NotNil(t, decoded.Exif.Latitude)
	assert.InDelta(t, lat, *decoded.Exif.Latitude, 1e-9)
	assert.InDelta(t, lon, *decoded.Exif.Longitude, 1e-9)
}

func TestRunRecordRoundTrip(t *testing.T) {
	started := time.Date(2025, 3, 1, 12, 0, 0, 123456000, time.UTC)
	record := &core.RunRecord{
		Dir:        "/docs",
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Total:      5,
		Succeeded:  3,
		Failed:     1,
		Pending:    1,
		Chunks:     12,
		Images:     2,
		Cancelled:  true,
		ReportPath: "/docs/sluice-report.csv",
	}

	decoded, err := UnmarshalRunRecord(MarshalRunRecord(record))
	require.NoError(t, err)
	assert.True(t, started.Equal(decoded.StartedAt), "microseconds are kept")
	assert.True(t, record.FinishedAt.Equal(decoded.FinishedAt))
	assert.Equal(t, 3, decoded.Succeeded)
	assert.Equal(t, 1, decoded.Pending)
	assert.True(t, decoded.Cancelled)
	assert.Equal(t, record.ReportPath, decoded.ReportPath)
}

func TestImageMetadataLeavesBytesOut(t *testing.T) {
	artifact := &core.ImageArtifact{
		ID:             core.ImageID("/docs/a.pdf", 2, 0),
		Bytes:          []byte{0x89, 0x50, 0x4e, 0x47},
		Format:         "png",
		SourcePath:     "/docs/a.pdf",
		ParentDocument: "/docs/a.pdf",
		OCR:            &core.OCRText{Text: "EXIT", Confidence: 0.9},
	}
	data, err := MarshalImageMetadata(artifact)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"parent_document":"/docs/a.pdf"`)

	decoded, err := UnmarshalImageMetadata(data)
	require.NoError(t, err)
	assert.Empty(t, decoded.Bytes)
	require.NotNil(t, decoded.OCR)
	assert.Equal(t, "EXIT", decoded.OCR.Text)
}

func TestMarkerEncodingIsReadable(t *testing.T) {
	marker := &core.Marker{
		Path:        "/docs/a.txt",
		Fingerprint: "stat:10:99",
		ProcessedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Chunks:      2,
	}
	data, err := MarshalMarker(marker)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fingerprint":"stat:10:99"`)

	decoded, err := UnmarshalMarker(data)
	require.NoError(t, err)
	assert.True(t, decoded.ProcessedAt.Equal(marker.ProcessedAt))
	assert.Equal(t, 2, decoded.Chunks)
}

func TestUnmarshalErrors(t *testing.T) {
	_, err := UnmarshalChunk(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)

	image := MarshalImageArtifact(&core.ImageArtifact{ID: "abc", Format: "png", SourcePath: "/a.png"})
	_, err = UnmarshalImageArtifact(image[:len(image)/2])
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalChunkJSON(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalLockInfo([]byte("{not json"))
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
