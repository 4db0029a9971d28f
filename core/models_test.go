package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestKindFromPath(t *testing.T) {
	tests := []struct {
		path   string
		want   FileKind
		wantOK bool
	}{
		{"/data/report.pdf", KindDocument, true},
		{"/data/REPORT.PDF", KindDocument, true},
		{"/data/notes.md", KindDocument, true},
		{"/data/letter.docx", KindDocument, true},
		{"/data/page.htm", KindDocument, true},
		{"/data/photo.JPG", KindImage, true},
		{"/data/scan.tiff", KindImage, true},
		{"/data/archive.zip", 0, false},
		{"/data/noext", 0, false},
		{"/data/.report.pdf.sluice", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := KindFromPath(tt.path)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("KindFromPath(%q) = (%v, %v), want (%v, %v)", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFileKindString(t *testing.T) {
	if KindDocument.String() != "text-document" {
		t.Errorf("unexpected document kind name %q", KindDocument.String())
	}
	if KindImage.String() != "image" {
		t.Errorf("unexpected image kind name %q", KindImage.String())
	}
	if FileKind(42).String() != "unknown" {
		t.Errorf("unexpected unknown kind name %q", FileKind(42).String())
	}
}

func TestChunkID(t *testing.T) {
	id1 := ChunkID("/data/a.txt", 0)
	id2 := ChunkID("/data/a.txt", 0)
	if id1 != id2 {
		t.Errorf("ChunkID() not deterministic: %s vs %s", id1, id2)
	}

	if ChunkID("/data/a.txt", 1) == id1 {
		t.Errorf("ChunkID() ignores index")
	}
	if ChunkID("/data/b.txt", 0) == id1 {
		t.Errorf("ChunkID() ignores source")
	}
}

func TestImageID(t *testing.T) {
	id := ImageID("/data/a.pdf", 2, 1)
	if id != ImageID("/data/a.pdf", 2, 1) {
		t.Errorf("ImageID() not deterministic")
	}

	seen := map[string]bool{id: true}
	for _, other := range []string{
		ImageID("/data/a.pdf", 1, 2),
		ImageID("/data/a.pdf", 2, 0),
		ImageID("/data/b.pdf", 2, 1),
		ChunkID("/data/a.pdf", 2),
	} {
		if seen[other] {
			t.Errorf("ImageID() collision: %s", other)
		}
		seen[other] = true
	}
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("stat mode uses size and mtime", func(t *testing.T) {
		fp, err := Fingerprint(path, info, FingerprintStat)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(fp, "stat:5:") {
			t.Errorf("unexpected stat fingerprint %q", fp)
		}
	})

	t.Run("content mode changes with content", func(t *testing.T) {
		fp1, err := Fingerprint(path, info, FingerprintContent)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(fp1, "blake2b:") {
			t.Errorf("unexpected content fingerprint %q", fp1)
		}

		if err := os.WriteFile(path, []byte("hellp"), 0o644); err != nil {
			t.Fatal(err)
		}
		fp2, err := Fingerprint(path, info, FingerprintContent)
		if err != nil {
			t.Fatal(err)
		}
		if fp1 == fp2 {
			t.Errorf("content fingerprint did not change")
		}
	})
}

func TestParseFingerprintMode(t *testing.T) {
	for _, in := range []string{"", "stat"} {
		mode, err := ParseFingerprintMode(in)
		if err != nil || mode != FingerprintStat {
			t.Errorf("ParseFingerprintMode(%q) = %v, %v", in, mode, err)
		}
	}
	mode, err := ParseFingerprintMode("content")
	if err != nil || mode != FingerprintContent {
		t.Errorf("ParseFingerprintMode(content) = %v, %v", mode, err)
	}
	if _, err := ParseFingerprintMode("md5"); err == nil {
		t.Errorf("expected error for unknown mode")
	}
}

func TestMarkerMatches(t *testing.T) {
	m := &Marker{Path: "/a", Fingerprint: "stat:1:2"}
	if !m.Matches("stat:1:2") {
		t.Errorf("expected match")
	}
	if m.Matches("stat:1:3") {
		t.Errorf("expected mismatch")
	}
	if m.Matches("") {
		t.Errorf("empty fingerprint must never match")
	}
	var nilMarker *Marker
	if nilMarker.Matches("stat:1:2") {
		t.Errorf("nil marker must never match")
	}
}

func TestLockInfoStale(t *testing.T) {
	now := time.Now()
	info := &LockInfo{HeartbeatAt: now.Add(-5 * time.Minute)}
	if info.Stale(now, 10*time.Minute) {
		t.Errorf("lock should be live")
	}
	if !info.Stale(now, time.Minute) {
		t.Errorf("lock should be stale")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{ErrExtractionFailed, KindExtractionFailed},
		{wrap(ErrSinkWriteFailed), KindSinkWriteFailed},
		{wrap(ErrUnsupportedContent), KindUnsupportedContent},
		{wrap(ErrMarkerWriteFailed), KindMarkerWriteFailed},
		{ErrDirectoryLocked, KindDirectoryLocked},
		{ErrDirectoryUnreadable, KindDirectoryUnreadable},
		{os.ErrClosed, KindUnknown},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}

	if !IsTerminal(wrap(ErrUnsupportedContent)) {
		t.Errorf("unsupported content must be terminal")
	}
	if IsTerminal(wrap(ErrExtractionFailed)) {
		t.Errorf("extraction failure must be retryable")
	}
}

type wrapped struct{ err error }

func (w wrapped) Error() string { return "outer: " + w.err.Error() }
func (w wrapped) Unwrap() error { return w.err }

func wrap(err error) error { return wrapped{err} }
