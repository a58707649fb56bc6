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
	"sync/atomic"

	"github.com/arcentrix/arcentra-retry/internal/engine/model"
	"github.com/arcentrix/arcentra-retry/pkg/bpm"
	"github.com/arcentrix/arcentra-retry/pkg/logger"
	"github.com/arcentrix/arcentra-retry/pkg/safe"
	"golang.org/x/sync/errgroup"
)

// RetryResult is the running outcome of an external task retry.
type RetryResult struct {
	Completed int64
	Failed    int64
}

// Retryer retries external tasks one call per task in fixed size waves.
type Retryer struct {
	client      bpm.Client
	store       ProgressStore
	concurrency int
}

func NewRetryer(client bpm.Client, store ProgressStore, concurrency int) *Retryer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Retryer{client: client, store: store, concurrency: concurrency}
}

// RetryAll processes taskIds in consecutive chunks of r.concurrency. Every
// call of a chunk runs concurrently and the whole chunk settles before the
// next one starts. After each chunk the running totals are written to the
// run's external task counts. Failed calls are counted, never re-attempted.
//
// An error is returned only when progress cannot be stored or ctx ends; the
// result then reflects the chunks settled so far.
func (r *Retryer) RetryAll(ctx context.Context, runId string, taskIds []string) (RetryResult, error) {
	var res RetryResult
	total := int64(len(taskIds))
	for start := 0; start < len(taskIds); start += r.concurrency {
		end := min(start+r.concurrency, len(taskIds))
		completed, failed := r.wave(ctx, taskIds[start:end])
		res.Completed += completed
		res.Failed += failed

		// a settled wave is recorded even when ctx already ended
		snapshot := res
		if _, err := r.store.Mutate(context.WithoutCancel(ctx), runId, func(run *model.RetryRun) error {
			run.Counts.ExternalTasks.Total = total
			run.Counts.ExternalTasks.Completed = snapshot.Completed
			run.Counts.ExternalTasks.Failed = snapshot.Failed
			return nil
		}); err != nil {
			return res, err
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (r *Retryer) wave(ctx context.Context, ids []string) (int64, int64) {
	var completed, failed atomic.Int64
	var g errgroup.Group
	for _, id := range ids {
		g.Go(func() error {
			err := safe.Try(func() error {
				return r.client.RetryExternalTask(ctx, id, externalTaskRetries)
			})
			if err != nil {
				failed.Add(1)
				itemsTotal.WithLabelValues(kindExternalTask, outcomeFailed).Inc()
				logger.WarnContext(ctx, "external task retry failed", "externalTaskId", id, "error", err)
				return nil
			}
			completed.Add(1)
			itemsTotal.WithLabelValues(kindExternalTask, outcomeCompleted).Inc()
			return nil
		})
	}
	_ = g.Wait()
	return completed.Load(), failed.Load()
}
