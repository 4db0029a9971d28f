// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package chunk splits document text into bounded, boundary-aware chunks.
//
// Text is first cut into units at sentence ends and paragraph breaks. A unit
// longer than the limit is cut again at line breaks and, if still too long,
// between words. Units are then packed greedily: a chunk grows by whole units
// while its trimmed length, counted in runes, stays within the limit. A single
// word longer than the limit becomes its own chunk and is never truncated.
package chunk

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/sluice/core"
)

// ErrInvalidMaxSize is returned when the chunk size limit is not positive.
var ErrInvalidMaxSize = errors.New("max chunk size must be positive")

// Segment is a trimmed span of the source text.
// Text == source[Start:End].
type Segment struct {
	Text  string
	Start int
	End   int
}

// Split packs text into segments of at most maxSize runes where unit
// boundaries allow. Empty or whitespace-only text yields no segments.
func Split(text string, maxSize int) []Segment {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxSize <= 0 {
		return []Segment{trimmed(text, 0, len(text))}
	}

	var (
		segments []Segment
		start    = 0 // start of the pending chunk
		end      = 0 // end of the pending chunk; start == end means empty
	)
	for _, u := range fit(text, units(text), maxSize) {
		if start == end {
			start, end = u[0], u[1]
			continue
		}
		if trimmedLen(text[start:u[1]]) <= maxSize {
			end = u[1]
			continue
		}
		if seg := trimmed(text, start, end); seg.Text != "" {
			segments = append(segments, seg)
		}
		start, end = u[0], u[1]
	}
	if seg := trimmed(text, start, end); seg.Text != "" {
		segments = append(segments, seg)
	}
	return segments
}

// units returns contiguous [start,end) spans covering text, cut after
// sentence terminators and before paragraph breaks.
func units(text string) [][2]int {
	var spans [][2]int
	last := 0
	cut := func(at int) {
		if at > last {
			spans = append(spans, [2]int{last, at})
			last = at
		}
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case r == '.' || r == '!' || r == '?':
			j := i + size
			for j < len(text) {
				next, n := utf8.DecodeRuneInString(text[j:])
				if !isCloser(next) {
					break
				}
				j += n
			}
			if j == len(text) {
				cut(j)
			} else if next, _ := utf8.DecodeRuneInString(text[j:]); unicode.IsSpace(next) {
				cut(j)
			}
			i = j
			continue
		case r == '\n' && paragraphBreakAt(text, i):
			cut(i)
		}
		i += size
	}
	cut(len(text))
	return spans
}

// fit cuts every span longer than maxSize at line starts, then at word
// starts. Spans stay contiguous.
func fit(text string, spans [][2]int, maxSize int) [][2]int {
	out := make([][2]int, 0, len(spans))
	for _, span := range spans {
		if trimmedLen(text[span[0]:span[1]]) <= maxSize {
			out = append(out, span)
			continue
		}
		for _, line := range cutSpan(text, span, lineStart) {
			if trimmedLen(text[line[0]:line[1]]) <= maxSize {
				out = append(out, line)
				continue
			}
			out = append(out, cutSpan(text, line, wordStart)...)
		}
	}
	return out
}

// cutSpan splits span before every rune where boundary(prev, r) holds.
func cutSpan(text string, span [2]int, boundary func(prev, r rune) bool) [][2]int {
	var spans [][2]int
	last := span[0]
	prev := rune(-1)
	for i := span[0]; i < span[1]; {
		r, size := utf8.DecodeRuneInString(text[i:])
		if i > last && boundary(prev, r) {
			spans = append(spans, [2]int{last, i})
			last = i
		}
		prev = r
		i += size
	}
	return append(spans, [2]int{last, span[1]})
}

func lineStart(prev, _ rune) bool {
	return prev == '\n'
}

func wordStart(prev, r rune) bool {
	return unicode.IsSpace(prev) && !unicode.IsSpace(r)
}

// paragraphBreakAt reports whether the newline at i is followed by a blank line.
func paragraphBreakAt(text string, i int) bool {
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\n':
			return true
		case ' ', '\t', '\r':
			continue
		default:
			return false
		}
	}
	return false
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '}', '”', '’', '»':
		return true
	}
	return false
}

func trimmedLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// trimmed returns text[start:end] without surrounding whitespace, keeping
// offsets into text.
func trimmed(text string, start, end int) Segment {
	span := text[start:end]
	lead := len(span) - len(strings.TrimLeftFunc(span, unicode.IsSpace))
	trail := len(span) - len(strings.TrimRightFunc(span, unicode.IsSpace))
	if lead == len(span) {
		return Segment{Start: start, End: start}
	}
	return Segment{
		Text:  span[lead : len(span)-trail],
		Start: start + lead,
		End:   end - trail,
	}
}

// Chunker turns document text into identified chunks.
type Chunker struct {
	maxSize int
}

// New creates a Chunker with the given limit in runes.
func New(maxSize int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxSize, maxSize)
	}
	return &Chunker{maxSize: maxSize}, nil
}

// MaxSize returns the configured limit.
func (c *Chunker) MaxSize() int {
	return c.maxSize
}

// Chunk splits text and assigns deterministic IDs derived from sourcePath
// and the chunk index.
func (c *Chunker) Chunk(sourcePath, text string) []*core.Chunk {
	segments := Split(text, c.maxSize)
	chunks := make([]*core.Chunk, len(segments))
	for i, seg := range segments {
		chunks[i] = &core.Chunk{
			ID:         core.ChunkID(sourcePath, i),
			SourcePath: sourcePath,
			Index:      i,
			Text:       seg.Text,
			Start:      seg.Start,
			End:        seg.End,
		}
	}
	return chunks
}
