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
	"fmt"

	"github.com/arcentrix/arcentra-retry/pkg/bpm"
)

// Submitter hands failed jobs to the engine's bulk retry operation.
type Submitter struct {
	client bpm.Client
}

func NewSubmitter(client bpm.Client) *Submitter {
	return &Submitter{client: client}
}

// Submit asks the engine to retry every job once and returns the batch id.
func (s *Submitter) Submit(ctx context.Context, jobIds []string) (string, error) {
	if len(jobIds) == 0 {
		return "", errors.New("no job ids to submit")
	}
	batch, err := s.client.SubmitJobRetryBatch(ctx, jobIds, jobRetries)
	if err != nil {
		return "", fmt.Errorf("submit job retry batch: %w", err)
	}
	if batch == nil || batch.Id == "" {
		return "", errors.New("submit job retry batch: engine returned no batch id")
	}
	return batch.Id, nil
}
