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

package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sluice/core"
	"github.com/poiesic/sluice/storage"
)

// RunHistory implements storage.RunHistory for BadgerDB.
type RunHistory struct {
	backend *Backend
}

var _ storage.RunHistory = (*RunHistory)(nil)

// NewRunHistory creates a new RunHistory.
func NewRunHistory(backend *Backend) *RunHistory {
	return &RunHistory{
		backend: backend,
	}
}

// SaveRun persists record as the latest run of its directory.
func (r *RunHistory) SaveRun(ctx context.Context, record *core.RunRecord) error {
	value := storage.MarshalRunRecord(record)
	return r.backend.update(ctx, func(tx *badger.Txn) error {
		return tx.Set(makeRunKey(record.Dir), value)
	})
}

// LastRun retrieves the latest run of dir.
func (r *RunHistory) LastRun(ctx context.Context, dir string) (*core.RunRecord, error) {
	var record *core.RunRecord
	err := r.backend.view(ctx, func(tx *badger.Txn) error {
		item, err := tx.Get(makeRunKey(dir))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			record, unmarshalErr = storage.UnmarshalRunRecord(val)
			return unmarshalErr
		})
	})

	return record, err
}
