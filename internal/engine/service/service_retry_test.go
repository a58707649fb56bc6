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

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arcentrix/arcentra-retry/internal/engine/model"
	"github.com/arcentrix/arcentra-retry/internal/engine/repo"
	"github.com/arcentrix/arcentra-retry/internal/pkg/retry"
	"github.com/arcentrix/arcentra-retry/pkg/bpm"
	"github.com/arcentrix/arcentra-retry/pkg/cache"
	"github.com/arcentrix/arcentra-retry/pkg/database"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memCache) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memCache) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := value.([]byte); ok {
		m.data[key] = string(b)
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *memCache) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *memCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// engine knows a single instance "pi-1" with one failed job and one failed task.
type engine struct{}

func (engine) ListIncidents(_ context.Context, pi string) ([]bpm.Incident, error) {
	if pi != "pi-1" {
		return nil, fmt.Errorf("instance %s: %w", pi, bpm.ErrNotFound)
	}
	return []bpm.Incident{
		{Id: "i1", ProcessInstanceId: pi, IncidentType: bpm.IncidentTypeFailedJob},
		{Id: "i2", ProcessInstanceId: pi, IncidentType: bpm.IncidentTypeFailedExternalTask},
	}, nil
}

func (engine) ListFailedJobs(_ context.Context, pi string) ([]bpm.Job, error) {
	if pi != "pi-1" {
		return nil, bpm.ErrNotFound
	}
	return []bpm.Job{{Id: "j1", ProcessInstanceId: pi}}, nil
}

func (engine) ListFailedExternalTasks(_ context.Context, pi string) ([]bpm.ExternalTask, error) {
	if pi != "pi-1" {
		return nil, bpm.ErrNotFound
	}
	return []bpm.ExternalTask{{Id: "t1", ProcessInstanceId: pi, ErrorMessage: "boom"}}, nil
}

func (engine) SubmitJobRetryBatch(_ context.Context, jobIds []string, _ int) (*bpm.Batch, error) {
	return &bpm.Batch{Id: "batch-1", TotalJobs: len(jobIds)}, nil
}

func (engine) GetBatchStatistics(context.Context, string) (bpm.BatchStatistics, error) {
	return bpm.BatchStatistics{}, nil
}

func (engine) RetryExternalTask(context.Context, string, int) error { return nil }

func newTestService(t *testing.T, c cache.ICache) (*RetryService, repo.IRetryRunRepository) {
	t.Helper()
	m, err := database.NewManager(database.Database{
		Driver: database.DriverSqlite,
		Sqlite: database.SqliteConfig{Path: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	repos, err := repo.ProvideRepositories(database.NewDatabaseAdapter(m))
	require.NoError(t, err)

	conf := retry.DefaultConfig()
	conf.PollIntervalMs = 1
	svc := NewRetryService(repos.RetryRun, c, engine{}, conf)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })
	return svc, repos.RetryRun
}

func waitTerminal(t *testing.T, svc *RetryService, runId string) *model.RetryRun {
	t.Helper()
	var run *model.RetryRun
	require.Eventually(t, func() bool {
		r, err := svc.GetRunProgress(context.Background(), runId)
		if err != nil {
			return false
		}
		run = r
		return r.Status.IsTerminal()
	}, 5*time.Second, 5*time.Millisecond)
	return run
}

func TestStartRetryRunCompletes(t *testing.T) {
	c := &memCache{data: map[string]string{}}
	svc, runs := newTestService(t, c)

	runId, err := svc.StartRetryRun(context.Background(), []string{"pi-1", " pi-1 ", "pi-404"})
	require.NoError(t, err)
	require.NotEmpty(t, runId)

	run := waitTerminal(t, svc, runId)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Equal(t, 100, run.OverallProgress)
	assert.Equal(t, []string{"pi-404"}, []string(run.SkippedInstances))
	assert.Equal(t, model.ItemCounts{Total: 1, Completed: 1}, run.Counts.Jobs)
	assert.Equal(t, model.ItemCounts{Total: 1, Completed: 1}, run.Counts.ExternalTasks)
	assert.True(t, c.has(progressKeyPrefix+runId))

	stored, err := runs.Get(context.Background(), runId)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, stored.Status)
	assert.Equal(t, "batch-1", stored.RemoteBatchId)
}

func TestGetRunProgressWithoutCache(t *testing.T) {
	svc, _ := newTestService(t, nil)
	runId, err := svc.StartRetryRun(context.Background(), nil)
	require.NoError(t, err)

	run := waitTerminal(t, svc, runId)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Equal(t, 0, run.OverallProgress)

	_, err = svc.GetRunProgress(context.Background(), "missing")
	assert.True(t, errors.Is(err, retry.ErrRunNotFound))
	_, err = svc.GetRunProgress(context.Background(), "  ")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestGetRunProgressServesCache(t *testing.T) {
	c := &memCache{data: map[string]string{}}
	svc, runs := newTestService(t, c)
	ctx := context.Background()
	require.NoError(t, runs.Create(ctx, &model.RetryRun{RunId: "run-1", Status: model.RunStatusRunning}))

	// a miss loads the record and caches it
	first, err := svc.GetRunProgress(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, first.Status)
	require.True(t, c.has(progressKeyPrefix+"run-1"))

	// writes through the service store refresh the snapshot
	store := &cachedProgressStore{runs: runs, progress: svc.progress}
	_, err = store.Mutate(ctx, "run-1", func(r *model.RetryRun) error {
		r.Counts.Jobs = model.ItemCounts{Total: 4, Completed: 3}
		return nil
	})
	require.NoError(t, err)
	got, err := svc.GetRunProgress(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Counts.Jobs.Completed)
	assert.Equal(t, 75, got.OverallProgress)
}

func TestRecoverInterruptedDropsCachedSnapshot(t *testing.T) {
	c := &memCache{data: map[string]string{}}
	svc, runs := newTestService(t, c)
	ctx := context.Background()
	require.NoError(t, runs.Create(ctx, &model.RetryRun{RunId: "run-1", Status: model.RunStatusRunning}))
	cached, err := svc.GetRunProgress(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, model.RunStatusRunning, cached.Status)

	n, err := svc.RecoverInterrupted(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := svc.GetRunProgress(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, model.ErrorKindInterrupted, got.ErrorKind)
	assert.NotNil(t, got.CompletedAt)
}

// slowCache delays the first snapshot write so a later writer could overtake it.
type slowCache struct {
	*memCache
	calls   atomic.Int32
	entered chan struct{}
}

func (s *slowCache) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if s.calls.Add(1) == 1 {
		close(s.entered)
		time.Sleep(100 * time.Millisecond)
	}
	return s.memCache.Set(ctx, key, value, ttl)
}

func TestCachedSnapshotsFollowCommitOrder(t *testing.T) {
	c := &slowCache{memCache: &memCache{data: map[string]string{}}, entered: make(chan struct{})}
	_, runs := newTestService(t, nil)
	ctx := context.Background()
	require.NoError(t, runs.Create(ctx, &model.RetryRun{RunId: "run-1", Status: model.RunStatusRunning}))

	progress := cache.NewCachedQuery[*model.RetryRun](c, progressKey, nil)
	store := &cachedProgressStore{runs: runs, progress: progress}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := store.Mutate(ctx, "run-1", func(r *model.RetryRun) error {
			r.Counts.Jobs = model.ItemCounts{Total: 4}
			return nil
		})
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		<-c.entered
		_, err := store.Mutate(ctx, "run-1", func(r *model.RetryRun) error {
			r.Counts.Jobs = model.ItemCounts{Total: 4, Completed: 3}
			return nil
		})
		assert.NoError(t, err)
	}()
	wg.Wait()

	stored, err := runs.Get(ctx, "run-1")
	require.NoError(t, err)
	served, err := progress.Peek(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, stored.Counts.Jobs, served.Counts.Jobs)
	assert.Equal(t, 75, served.OverallProgress)
}

func TestListRunsValidatesStatus(t *testing.T) {
	svc, runs := newTestService(t, nil)
	ctx := context.Background()
	require.NoError(t, runs.Create(ctx, &model.RetryRun{RunId: "run-1", Status: model.RunStatusRunning}))
	require.NoError(t, runs.Create(ctx, &model.RetryRun{RunId: "run-2", Status: model.RunStatusCompleted}))

	list, total, err := svc.ListRuns(ctx, "RUNNING", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "run-1", list[0].RunId)

	_, _, err = svc.ListRuns(ctx, "bogus", 1, 10)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestRecoverInterrupted(t *testing.T) {
	svc, runs := newTestService(t, nil)
	ctx := context.Background()
	require.NoError(t, runs.Create(ctx, &model.RetryRun{RunId: "run-1", Status: model.RunStatusRunning}))
	require.NoError(t, runs.Create(ctx, &model.RetryRun{RunId: "run-2", Status: model.RunStatusCompleted}))

	n, err := svc.RecoverInterrupted(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	run, err := runs.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, model.ErrorKindInterrupted, run.ErrorKind)
}

func TestStartAfterShutdown(t *testing.T) {
	svc, _ := newTestService(t, nil)
	require.NoError(t, svc.Shutdown(context.Background()))
	_, err := svc.StartRetryRun(context.Background(), []string{"pi-1"})
	assert.True(t, errors.Is(err, retry.ErrShuttingDown))
}
