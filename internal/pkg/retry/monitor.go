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
	"time"

	"github.com/arcentrix/arcentra-retry/internal/engine/model"
	"github.com/arcentrix/arcentra-retry/pkg/bpm"
	"github.com/arcentrix/arcentra-retry/pkg/logger"
)

// ErrMonitorTimeout is returned when a batch still has work after the
// configured poll bounds.
var ErrMonitorTimeout = errors.New("batch monitor timed out")

// Monitor polls a remote job retry batch until it reports no remaining work.
type Monitor struct {
	client   bpm.Client
	store    ProgressStore
	interval time.Duration
	maxWait  time.Duration
	maxPolls int
}

func NewMonitor(client bpm.Client, store ProgressStore, cfg Config) *Monitor {
	cfg.SetDefaults()
	return &Monitor{
		client:   client,
		store:    store,
		interval: cfg.PollInterval(),
		maxWait:  cfg.MaxPollWait(),
		maxPolls: cfg.MaxPolls,
	}
}

// Monitor sleeps one interval, polls the batch statistics and overwrites the
// run's job counts with them, until the engine reports zero remaining jobs.
// A statistics payload without data is taken as a finished batch. Jobs the
// engine no longer accounts for once the batch is finished are counted as
// completed.
//
// Poll errors are returned as is. ErrMonitorTimeout is returned once
// maxPolls polls were issued or maxWait elapsed without completion.
func (m *Monitor) Monitor(ctx context.Context, runId, batchId string) error {
	started := time.Now()
	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for polls := 1; ; polls++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		batchPolls.Inc()
		raw, err := m.client.GetBatchStatistics(ctx, batchId)
		if err != nil {
			return fmt.Errorf("poll batch %s: %w", batchId, err)
		}
		stats := raw.Normalize()
		done := stats.Empty() || stats.RemainingOrZero() == 0

		run, err := m.store.Mutate(context.WithoutCancel(ctx), runId, func(run *model.RetryRun) error {
			jobs := &run.Counts.Jobs
			if !stats.Empty() {
				jobs.Completed = stats.CompletedOrZero()
				jobs.Failed = stats.FailedOrZero()
			}
			if done {
				jobs.Completed = max(jobs.Completed, jobs.Total-jobs.Failed)
			}
			return nil
		})
		if err != nil {
			return err
		}
		logger.DebugContext(ctx, "batch polled", "runId", runId, "batchId", batchId, "poll", polls,
			"completed", run.Counts.Jobs.Completed, "failed", run.Counts.Jobs.Failed, "remaining", run.Counts.Jobs.Remaining)

		if done {
			itemsTotal.WithLabelValues(kindJob, outcomeCompleted).Add(float64(run.Counts.Jobs.Completed))
			itemsTotal.WithLabelValues(kindJob, outcomeFailed).Add(float64(run.Counts.Jobs.Failed))
			return nil
		}
		if m.maxPolls > 0 && polls >= m.maxPolls {
			return fmt.Errorf("batch %s: %w after %d polls", batchId, ErrMonitorTimeout, polls)
		}
		if m.maxWait > 0 && time.Since(started) >= m.maxWait {
			return fmt.Errorf("batch %s: %w after %s", batchId, ErrMonitorTimeout, m.maxWait)
		}
		timer.Reset(m.interval)
	}
}
