// Copyright 2026 Arcentra Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package retry

import (
	"context"
	"errors"

	"github.com/arcentrix/arcentra-retry/internal/engine/model"
)

// ErrRunNotFound is returned by a ProgressStore for an unknown run id.
var ErrRunNotFound = errors.New("retry run not found")

// MutateFunc edits a run in place. Returning an error aborts the update.
type MutateFunc func(run *model.RetryRun) error

// ProgressStore is the only writer of RetryRun records. Mutate applies fn
// atomically per run id, re-derives remaining counts and the overall
// percentage, persists the result and returns the stored snapshot.
type ProgressStore interface {
	Create(ctx context.Context, run *model.RetryRun) error
	Get(ctx context.Context, runId string) (*model.RetryRun, error)
	Mutate(ctx context.Context, runId string, fn MutateFunc) (*model.RetryRun, error)
}
