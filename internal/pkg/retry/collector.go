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

	"github.com/arcentrix/arcentra-retry/pkg/bpm"
	"github.com/arcentrix/arcentra-retry/pkg/logger"
	"github.com/arcentrix/arcentra-retry/pkg/safe"
	"golang.org/x/sync/errgroup"
)

// FailureSet is the work found by discovery.
type FailureSet struct {
	JobIds          []string
	ExternalTaskIds []string
	// SkippedInstances lists instances whose discovery failed and were left out.
	SkippedInstances []string
}

// Empty reports whether there is nothing to retry.
func (f FailureSet) Empty() bool {
	return len(f.JobIds) == 0 && len(f.ExternalTaskIds) == 0
}

// Collector discovers failed jobs and external tasks across process instances.
type Collector struct {
	client bpm.Client
	limit  int
}

// NewCollector returns a collector querying at most limit instances at once;
// limit <= 0 queries every instance concurrently.
func NewCollector(client bpm.Client, limit int) *Collector {
	return &Collector{client: client, limit: limit}
}

type instanceFailures struct {
	jobIds  []string
	taskIds []string
	skipped bool
}

// Collect queries every instance independently. A failing instance is recorded
// in SkippedInstances and never aborts the others. The only error returned is
// the context's, when it ends before discovery completes.
func (c *Collector) Collect(ctx context.Context, instanceIds []string) (FailureSet, error) {
	results := make([]instanceFailures, len(instanceIds))

	var g errgroup.Group
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}
	for i, pi := range instanceIds {
		g.Go(func() error {
			results[i] = c.collectInstance(ctx, pi)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return FailureSet{}, err
	}

	set := FailureSet{}
	seenJobs := make(map[string]struct{})
	seenTasks := make(map[string]struct{})
	for i, r := range results {
		if r.skipped {
			set.SkippedInstances = append(set.SkippedInstances, instanceIds[i])
			continue
		}
		set.JobIds = appendUnique(set.JobIds, seenJobs, r.jobIds)
		set.ExternalTaskIds = appendUnique(set.ExternalTaskIds, seenTasks, r.taskIds)
	}
	if n := len(set.SkippedInstances); n > 0 {
		skippedInstances.Add(float64(n))
	}
	return set, nil
}

// collectInstance fetches incidents, failed jobs and failed external tasks of
// one instance. Jobs and tasks are kept only when an open incident of the
// matching type exists.
func (c *Collector) collectInstance(ctx context.Context, pi string) instanceFailures {
	var (
		incidents []bpm.Incident
		jobs      []bpm.Job
		tasks     []bpm.ExternalTask
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return safe.Try(func() (err error) {
			incidents, err = c.client.ListIncidents(gctx, pi)
			return err
		})
	})
	g.Go(func() error {
		return safe.Try(func() (err error) {
			jobs, err = c.client.ListFailedJobs(gctx, pi)
			return err
		})
	})
	g.Go(func() error {
		return safe.Try(func() (err error) {
			tasks, err = c.client.ListFailedExternalTasks(gctx, pi)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		logger.WarnContext(ctx, "discovery failed, instance skipped", "processInstanceId", pi, "error", err)
		return instanceFailures{skipped: true}
	}

	var hasJobIncident, hasTaskIncident bool
	for _, inc := range incidents {
		hasJobIncident = hasJobIncident || inc.IsJobFailure()
		hasTaskIncident = hasTaskIncident || inc.IsExternalTaskFailure()
	}

	var out instanceFailures
	if hasJobIncident {
		for _, j := range jobs {
			if j.Id != "" {
				out.jobIds = append(out.jobIds, j.Id)
			}
		}
	}
	if hasTaskIncident {
		for _, t := range tasks {
			if t.Id != "" {
				out.taskIds = append(out.taskIds, t.Id)
			}
		}
	}
	return out
}

func appendUnique(dst []string, seen map[string]struct{}, ids []string) []string {
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		dst = append(dst, id)
	}
	return dst
}
