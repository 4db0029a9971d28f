package core

//go:generate go run ../cmd/musgen

import (
	"path/filepath"
	"strings"
	"time"
)

// FileKind identifies which extractor handles a source file.
// The set is closed: every supported file is either a document or an image.
type FileKind int

const (
	// KindDocument is a text-bearing document (PDF, office, HTML, plain text).
	KindDocument FileKind = iota + 1
	// KindImage is a standalone raster image.
	KindImage
)

// String returns the kind name used in reports.
func (k FileKind) String() string {
	switch k {
	case KindDocument:
		return "text-document"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

var documentExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".doc":  {},
	".odt":  {},
	".rtf":  {},
	".html": {},
	".htm":  {},
	".txt":  {},
	".md":   {},
}

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".tif":  {},
	".tiff": {},
	".bmp":  {},
}

// KindFromPath classifies a path by its extension.
// Returns false when the extension is not supported.
func KindFromPath(path string) (FileKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := documentExtensions[ext]; ok {
		return KindDocument, true
	}
	if _, ok := imageExtensions[ext]; ok {
		return KindImage, true
	}
	return 0, false
}

// TaskStatus is the lifecycle state of a FileTask.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusSucceeded  TaskStatus = "succeeded"
	StatusFailed     TaskStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s TaskStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// ExtractionResult is the output of an extractor for one file.
// Document results carry Text and friends; image results carry Image.
type ExtractionResult struct {
	Kind       FileKind
	Text       string
	PageCount  int
	TableCount int
	Images     []EmbeddedImage // images found inside a document
	Image      *ImageData      // set for KindImage results
}

// EmbeddedImage is an image pulled out of a document.
type EmbeddedImage struct {
	Bytes      []byte
	Format     string // lowercase format name, e.g. "png", "jpeg"
	Page       int    // 1-based page number, 0 when the format has no pages
	Ordinal    int    // 0-based position within the page
	SourcePath string
}

// ImageData holds a standalone image and its local metadata.
type ImageData struct {
	Bytes  []byte
	Format string
	Width  int
	Height int
	Exif   *ExifData // nil when absent or unreadable
}

// ExifData is the subset of EXIF metadata the pipeline keeps.
type ExifData struct {
	CameraMake  string     `json:"camera_make,omitempty"`
	CameraModel string     `json:"camera_model,omitempty"`
	TakenAt     *time.Time `json:"taken_at,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
}

// Chunk is a bounded slice of a document's text.
// Start and End are byte offsets into the original text.
type Chunk struct {
	ID         string `json:"id"`
	SourcePath string `json:"source_path"`
	Index      int    `json:"index"`
	Text       string `json:"text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// Classification is a best-guess label for an image.
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// OCRText is text recognized in an image.
type OCRText struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ImageArtifact is an image plus derived metadata, ready for storage.
type ImageArtifact struct {
	ID             string          `json:"id"`
	Bytes          []byte          `json:"-"`
	Format         string          `json:"format"`
	SourcePath     string          `json:"source_path"`
	ParentDocument string          `json:"parent_document,omitempty"`
	Page           int             `json:"page"`
	Ordinal        int             `json:"ordinal"`
	Classification *Classification `json:"classification,omitempty"`
	OCR            *OCRText        `json:"ocr,omitempty"`
	Exif           *ExifData       `json:"exif,omitempty"`
}

// ProcessingOutcome is the terminal record for one FileTask.
type ProcessingOutcome struct {
	Path          string
	Kind          FileKind
	Status        TaskStatus
	Attempts      int
	ErrorKind     ErrorKind // empty on success
	Error         string
	ChunksWritten int
	ImagesWritten int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Duration returns how long the task ran.
func (o *ProcessingOutcome) Duration() time.Duration {
	if o.StartedAt.IsZero() || o.FinishedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}

// Marker records that a file was ingested successfully.
type Marker struct {
	Path        string    `json:"path"`
	Fingerprint string    `json:"fingerprint"`
	ProcessedAt time.Time `json:"processed_at"`
	Chunks      int       `json:"chunks"`
	Images      int       `json:"images"`
}

// Matches reports whether the marker still describes the file with the given fingerprint.
func (m *Marker) Matches(fingerprint string) bool {
	return m != nil && fingerprint != "" && m.Fingerprint == fingerprint
}

// LockInfo describes the holder of a directory run lock.
type LockInfo struct {
	Owner       string    `json:"owner"`
	PID         int       `json:"pid"`
	Host        string    `json:"host"`
	StartedAt   time.Time `json:"started_at"`
	HeartbeatAt time.Time `json:"heartbeat_at"`
}

// Stale reports whether the heartbeat is older than maxAge at time now.
func (l *LockInfo) Stale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(l.HeartbeatAt) > maxAge
}

// RunRecord summarizes a finished pipeline run over one directory.
type RunRecord struct {
	Dir        string    `json:"dir"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Pending    int       `json:"pending"`
	Chunks     int       `json:"chunks"`
	Images     int       `json:"images"`
	Cancelled  bool      `json:"cancelled"`
	ReportPath string    `json:"report_path,omitempty"`
}
