package core

import (
	"strconv"

	"github.com/google/uuid"
)

// namespace scopes every deterministic identifier produced by the pipeline.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://poiesic.com/sluice"))

// ChunkID returns the stable identifier of the chunk at index within source.
// Retried writes of the same chunk therefore address the same stored entry.
func ChunkID(source string, index int) string {
	return uuid.NewSHA1(namespace, []byte("chunk\x00"+source+"\x00"+strconv.Itoa(index))).String()
}

// ImageID returns the stable identifier of an image at (source, page, ordinal).
// Standalone images use page 0, ordinal 0.
func ImageID(source string, page, ordinal int) string {
	key := "image\x00" + source + "\x00" + strconv.Itoa(page) + "\x00" + strconv.Itoa(ordinal)
	return uuid.NewSHA1(namespace, []byte(key)).String()
}
