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

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/sluice/core"
)

// Records in the embedded store use the generated MUS codecs in core.
// Objects that other tools read (S3 objects, PostgreSQL JSONB metadata,
// marker and lock sidecars) are JSON.

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk: %w", ErrSerializationFailed, err)
	}
	return &chunk, nil
}

// MarshalImageArtifact serializes an ImageArtifact, bytes included.
func MarshalImageArtifact(artifact *core.ImageArtifact) []byte {
	buf := make([]byte, core.ImageArtifactMUS.Size(*artifact))
	core.ImageArtifactMUS.Marshal(*artifact, buf)
	return buf
}

// UnmarshalImageArtifact deserializes an ImageArtifact from bytes.
func UnmarshalImageArtifact(data []byte) (*core.ImageArtifact, error) {
	artifact, _, err := core.ImageArtifactMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: image: %w", ErrSerializationFailed, err)
	}
	return &artifact, nil
}

// MarshalRunRecord serializes a RunRecord to bytes.
func MarshalRunRecord(record *core.RunRecord) []byte {
	buf := make([]byte, core.RunRecordMUS.Size(*record))
	core.RunRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalRunRecord deserializes a RunRecord from bytes.
func UnmarshalRunRecord(data []byte) (*core.RunRecord, error) {
	record, _, err := core.RunRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: run record: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalChunkJSON encodes a chunk as JSON.
func MarshalChunkJSON(chunk *core.Chunk) ([]byte, error) {
	return marshal(chunk)
}

// UnmarshalChunkJSON decodes a JSON chunk.
func UnmarshalChunkJSON(data []byte) (*core.Chunk, error) {
	var chunk core.Chunk
	if err := unmarshal(data, &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalImageMetadata encodes the metadata of an image artifact as JSON.
// The bytes are left out.
func MarshalImageMetadata(artifact *core.ImageArtifact) ([]byte, error) {
	return marshal(artifact)
}

// UnmarshalImageMetadata decodes JSON image metadata. Bytes is left empty.
func UnmarshalImageMetadata(data []byte) (*core.ImageArtifact, error) {
	var artifact core.ImageArtifact
	if err := unmarshal(data, &artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// MarshalMarker encodes a marker.
func MarshalMarker(marker *core.Marker) ([]byte, error) {
	return marshal(marker)
}

// UnmarshalMarker decodes a marker.
func UnmarshalMarker(data []byte) (*core.Marker, error) {
	var marker core.Marker
	if err := unmarshal(data, &marker); err != nil {
		return nil, err
	}
	return &marker, nil
}

// MarshalLockInfo encodes lock holder details.
func MarshalLockInfo(info *core.LockInfo) ([]byte, error) {
	return marshal(info)
}

// UnmarshalLockInfo decodes lock holder details.
func UnmarshalLockInfo(data []byte) (*core.LockInfo, error) {
	var info core.LockInfo
	if err := unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

func unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty data", ErrSerializationFailed)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return nil
}
