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

package core

import (
	"fmt"
	"time"
)

// FileTask is one source file's unit of ingestion work.
//
// State machine:
//
//	pending --Claim--> in-progress --Succeed--> succeeded
//	                        |
//	                        +------Fail-------> failed
//
// BeginAttempt may be called any number of times while in-progress.
// A FileTask is not safe for concurrent use; the scheduler hands each
// task to exactly one worker.
type FileTask struct {
	Path        string
	Kind        FileKind
	Status      TaskStatus
	Attempts    int
	Fingerprint string
	Size        int64
	ModTime     time.Time
}

// NewFileTask creates a pending task.
func NewFileTask(path string, kind FileKind) *FileTask {
	return &FileTask{
		Path:   path,
		Kind:   kind,
		Status: StatusPending,
	}
}

// Claim moves the task from pending to in-progress.
func (t *FileTask) Claim() error {
	return t.transition(StatusPending, StatusInProgress)
}

// BeginAttempt records the start of another attempt.
func (t *FileTask) BeginAttempt() error {
	if t.Status != StatusInProgress {
		return fmt.Errorf("%w: attempt on %s task %s", ErrInvalidTransition, t.Status, t.Path)
	}
	t.Attempts++
	return nil
}

// Succeed moves the task to succeeded.
func (t *FileTask) Succeed() error {
	return t.transition(StatusInProgress, StatusSucceeded)
}

// Fail moves the task to failed.
func (t *FileTask) Fail() error {
	return t.transition(StatusInProgress, StatusFailed)
}

func (t *FileTask) transition(from, to TaskStatus) error {
	if t.Status != from {
		return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, t.Status, to, t.Path)
	}
	t.Status = to
	return nil
}
