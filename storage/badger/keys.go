package badger

import "encoding/binary"

// Key prefixes for different data types
const (
	chunkPrefix       = "chunk:"
	chunkSourcePrefix = "chunksrc:"
	imagePrefix       = "image:"
	imageSourcePrefix = "imagesrc:"
	runPrefix         = "run:"
)

// makeChunkKey generates the primary key for a chunk by ID.
func makeChunkKey(id string) []byte {
	return []byte(chunkPrefix + id)
}

// makePartialChunkSourceKey generates the prefix of all index entries for a source.
// Format: prefix:source\x00
func makePartialChunkSourceKey(source string) []byte {
	buf := make([]byte, 0, len(chunkSourcePrefix)+len(source)+1)
	buf = append(buf, chunkSourcePrefix...)
	buf = append(buf, source...)
	return append(buf, 0)
}

// makeChunkSourceKey generates a composite key for the source index.
// Format: prefix:source\x00index
func makeChunkSourceKey(source string, index int) []byte {
	prefix := makePartialChunkSourceKey(source)
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort matches index order
	binary.BigEndian.PutUint32(buf[offset:], uint32(index))
	return buf
}

// indexFromChunkSourceKey extracts the chunk index from a source index key.
func indexFromChunkSourceKey(key []byte) int {
	if len(key) < 4 {
		return -1
	}
	return int(binary.BigEndian.Uint32(key[len(key)-4:]))
}

// makeImageKey generates the primary key for an image by ID.
func makeImageKey(id string) []byte {
	return []byte(imagePrefix + id)
}

// makePartialImageSourceKey generates the prefix of the image index entries
// of a parent document.
// Format: prefix:parent\x00
func makePartialImageSourceKey(parent string) []byte {
	buf := make([]byte, 0, len(imageSourcePrefix)+len(parent)+1)
	buf = append(buf, imageSourcePrefix...)
	buf = append(buf, parent...)
	return append(buf, 0)
}

// makeImageSourceKey generates the index key of one embedded image.
// Format: prefix:parent\x00id
func makeImageSourceKey(parent, id string) []byte {
	return append(makePartialImageSourceKey(parent), id...)
}

// makeRunKey generates the key holding the last run record of a directory.
func makeRunKey(dir string) []byte {
	return []byte(runPrefix + dir)
}
