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
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/arcentrix/arcentra-retry/internal/engine/model"
	"github.com/arcentrix/arcentra-retry/pkg/bpm"
	"github.com/stretchr/testify/assert"
)

// memStore is an in-memory ProgressStore that keeps every written snapshot.
type memStore struct {
	mu      sync.Mutex
	runs    map[string]*model.RetryRun
	history []model.RetryRun
}

func newMemStore() *memStore {
	return &memStore{runs: make(map[string]*model.RetryRun)}
}

func cloneRun(r *model.RetryRun) *model.RetryRun {
	c := *r
	c.InstanceIds = append([]string(nil), r.InstanceIds...)
	c.SkippedInstances = append([]string(nil), r.SkippedInstances...)
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func (s *memStore) Create(_ context.Context, run *model.RetryRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.RunId]; ok {
		return fmt.Errorf("duplicate run %s", run.RunId)
	}
	run.Recompute()
	s.runs[run.RunId] = cloneRun(run)
	s.history = append(s.history, *cloneRun(run))
	return nil
}

func (s *memStore) Get(_ context.Context, runId string) (*model.RetryRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runId]
	if !ok {
		return nil, ErrRunNotFound
	}
	return cloneRun(r), nil
}

func (s *memStore) Mutate(_ context.Context, runId string, fn MutateFunc) (*model.RetryRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runId]
	if !ok {
		return nil, ErrRunNotFound
	}
	next := cloneRun(r)
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Recompute()
	s.runs[runId] = next
	s.history = append(s.history, *cloneRun(next))
	return cloneRun(next), nil
}

func (s *memStore) snapshots() []model.RetryRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.RetryRun(nil), s.history...)
}

func (s *memStore) seed(t *testing.T, runId string) {
	t.Helper()
	if err := s.Create(context.Background(), &model.RetryRun{RunId: runId, Status: model.RunStatusRunning}); err != nil {
		t.Fatal(err)
	}
}

// assertCountInvariant checks total = completed + failed + remaining in every snapshot.
func assertCountInvariant(t *testing.T, s *memStore) {
	t.Helper()
	for i, snap := range s.snapshots() {
		for name, c := range map[string]model.ItemCounts{"jobs": snap.Counts.Jobs, "externalTasks": snap.Counts.ExternalTasks} {
			assert.Equal(t, c.Total, c.Completed+c.Failed+c.Remaining, "snapshot %d %s %+v", i, name, c)
		}
	}
}

// instanceData is what the fake engine knows about one process instance.
type instanceData struct {
	incidents []bpm.Incident
	jobs      []bpm.Job
	tasks     []bpm.ExternalTask
	err       error
}

// fakeClient is a scriptable bpm.Client.
type fakeClient struct {
	mu        sync.Mutex
	instances map[string]instanceData

	submitErr  error
	submitted  [][]string
	retried    []string
	retryFn    func(ctx context.Context, id string) error
	statsFn    func(poll int) (bpm.BatchStatistics, error)
	polls      atomic.Int32
	submitHook func()
}

func newFakeClient() *fakeClient {
	return &fakeClient{instances: make(map[string]instanceData)}
}

func (f *fakeClient) instance(pi string) (instanceData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.instances[pi]
	if !ok {
		return instanceData{}, fmt.Errorf("process instance %s: %w", pi, bpm.ErrNotFound)
	}
	return d, d.err
}

func (f *fakeClient) ListIncidents(_ context.Context, pi string) ([]bpm.Incident, error) {
	d, err := f.instance(pi)
	return d.incidents, err
}

func (f *fakeClient) ListFailedJobs(_ context.Context, pi string) ([]bpm.Job, error) {
	d, err := f.instance(pi)
	return d.jobs, err
}

func (f *fakeClient) ListFailedExternalTasks(_ context.Context, pi string) ([]bpm.ExternalTask, error) {
	d, err := f.instance(pi)
	return d.tasks, err
}

func (f *fakeClient) SubmitJobRetryBatch(_ context.Context, jobIds []string, retries int) (*bpm.Batch, error) {
	f.mu.Lock()
	f.submitted = append(f.submitted, append([]string(nil), jobIds...))
	hook := f.submitHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if retries != 1 {
		return nil, fmt.Errorf("unexpected retries %d", retries)
	}
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &bpm.Batch{Id: "batch-1", TotalJobs: len(jobIds)}, nil
}

func (f *fakeClient) GetBatchStatistics(_ context.Context, _ string) (bpm.BatchStatistics, error) {
	poll := int(f.polls.Add(1))
	if f.statsFn == nil {
		return stats(0, 0, 0), nil
	}
	return f.statsFn(poll)
}

func (f *fakeClient) RetryExternalTask(ctx context.Context, id string, _ int) error {
	f.mu.Lock()
	f.retried = append(f.retried, id)
	fn := f.retryFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, id)
	}
	return nil
}

func stats(completed, failed, remaining int) bpm.BatchStatistics {
	return bpm.StatisticsFromValue(map[string]any{
		"completedJobs": float64(completed),
		"failedJobs":    float64(failed),
		"remainingJobs": float64(remaining),
	})
}

func jobIncident(pi, jobId string) bpm.Incident {
	return bpm.Incident{Id: "inc-" + jobId, ProcessInstanceId: pi, IncidentType: bpm.IncidentTypeFailedJob, Configuration: jobId}
}

func taskIncident(pi, taskId string) bpm.Incident {
	return bpm.Incident{Id: "inc-" + taskId, ProcessInstanceId: pi, IncidentType: bpm.IncidentTypeFailedExternalTask, Configuration: taskId}
}

func testConfig() Config {
	return Config{Concurrency: 10, PollIntervalMs: 1, MaxPollWaitSeconds: 0, MaxPolls: 0}
}
