package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   &Chunk{SourcePath: "/a.txt", Index: 0, Text: "hello", Start: 0, End: 5},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "empty source",
			chunk:   &Chunk{Text: "hello", End: 5},
			wantErr: ErrEmptyPath,
		},
		{
			name:    "empty text",
			chunk:   &Chunk{SourcePath: "/a.txt"},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "negative index",
			chunk:   &Chunk{SourcePath: "/a.txt", Index: -1, Text: "x", End: 1},
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "inverted range",
			chunk:   &Chunk{SourcePath: "/a.txt", Text: "x", Start: 4, End: 2},
			wantErr: ErrInvalidChunk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunkSequence(t *testing.T) {
	good := []*Chunk{
		{SourcePath: "/a.txt", Index: 0, Text: "one", End: 3},
		{SourcePath: "/a.txt", Index: 1, Text: "two", Start: 4, End: 7},
	}
	if err := ValidateChunkSequence("/a.txt", good); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	gap := []*Chunk{
		{SourcePath: "/a.txt", Index: 0, Text: "one", End: 3},
		{SourcePath: "/a.txt", Index: 2, Text: "two", Start: 4, End: 7},
	}
	if err := ValidateChunkSequence("/a.txt", gap); !errors.Is(err, ErrInvalidChunk) {
		t.Errorf("expected index gap error, got %v", err)
	}

	if err := ValidateChunkSequence("/b.txt", good); !errors.Is(err, ErrInvalidChunk) {
		t.Errorf("expected foreign source error, got %v", err)
	}
}

func TestValidateImageArtifact(t *testing.T) {
	tests := []struct {
		name     string
		artifact *ImageArtifact
		wantErr  error
	}{
		{
			name:     "valid standalone image",
			artifact: &ImageArtifact{ID: "x", SourcePath: "/a.png", Bytes: []byte{1}},
		},
		{
			name:     "valid embedded image without enrichment",
			artifact: &ImageArtifact{ID: "x", SourcePath: "/a.pdf", ParentDocument: "/a.pdf", Page: 3, Bytes: []byte{1}},
		},
		{
			name:    "nil artifact",
			wantErr: ErrInvalidImageArtifact,
		},
		{
			name:     "missing id",
			artifact: &ImageArtifact{SourcePath: "/a.png", Bytes: []byte{1}},
			wantErr:  ErrInvalidImageArtifact,
		},
		{
			name:     "missing bytes",
			artifact: &ImageArtifact{ID: "x", SourcePath: "/a.png"},
			wantErr:  ErrEmptyContent,
		},
		{
			name:     "missing source",
			artifact: &ImageArtifact{ID: "x", Bytes: []byte{1}},
			wantErr:  ErrEmptyPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageArtifact(tt.artifact)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateImageArtifact() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateImageArtifact() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMarker(t *testing.T) {
	valid := &Marker{Path: "/a.txt", Fingerprint: "stat:1:1", ProcessedAt: time.Now()}
	if err := ValidateMarker(valid); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateMarker(nil); !errors.Is(err, ErrInvalidMarker) {
		t.Errorf("nil marker: got %v", err)
	}
	if err := ValidateMarker(&Marker{Fingerprint: "f", ProcessedAt: time.Now()}); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("missing path: got %v", err)
	}
	if err := ValidateMarker(&Marker{Path: "/a", ProcessedAt: time.Now()}); !errors.Is(err, ErrInvalidMarker) {
		t.Errorf("missing fingerprint: got %v", err)
	}
	if err := ValidateMarker(&Marker{Path: "/a", Fingerprint: "f"}); !errors.Is(err, ErrInvalidMarker) {
		t.Errorf("missing timestamp: got %v", err)
	}
}
