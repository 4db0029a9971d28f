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

// Package storage provides the storage abstraction layer for sluice.
//
// This package defines the repository interfaces the ingestion pipeline
// depends on. Implementations live in sub-packages and are injected into the
// pipeline, so tests can swap in the in-memory fakes from storage/memory.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return these interfaces:
//
//	store, err := badger.NewTextStore(backend)  // returns storage.TextStore
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Architecture
//
//   - MarkerStore: per-file idempotence markers
//   - LockStore / Lock: per-directory run lock with heartbeat
//   - TextStore: chunk persistence keyed by deterministic chunk IDs
//   - ImageStore: image artifact persistence keyed by deterministic image IDs
//
// Backends:
//
//   - storage/fsstore: sidecar marker files and lock files next to the sources
//   - storage/badger: local text and image stores (default)
//   - storage/postgres: text and image tables in PostgreSQL
//   - storage/s3: objects in an S3-compatible bucket
//   - storage/memory: in-memory implementations of every interface
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
//
// # Idempotence
//
// PutChunks and PutImage are upserts. Calling them again with the same
// deterministic IDs overwrites the previous entries instead of adding new ones.
package storage
