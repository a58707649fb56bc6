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
	"strings"

	"github.com/arcentrix/arcentra-retry/internal/engine/model"
	"github.com/arcentrix/arcentra-retry/internal/engine/repo"
	"github.com/arcentrix/arcentra-retry/internal/pkg/retry"
	"github.com/arcentrix/arcentra-retry/pkg/bpm"
	"github.com/arcentrix/arcentra-retry/pkg/cache"
	"github.com/arcentrix/arcentra-retry/pkg/logger"
)

// ErrInvalidArgument marks caller errors the route layer reports as 400.
var ErrInvalidArgument = errors.New("invalid argument")

const progressKeyPrefix = "retry:run:"

func progressKey(params ...any) string {
	return progressKeyPrefix + params[0].(string)
}

// RetryService is the facade over retry runs used by the routes.
type RetryService struct {
	runs         repo.IRetryRunRepository
	progress     *cache.CachedQuery[*model.RetryRun]
	orchestrator *retry.Orchestrator
}

func NewRetryService(runs repo.IRetryRunRepository, c cache.ICache, client bpm.Client, conf retry.Config) *RetryService {
	progress := cache.NewCachedQuery[*model.RetryRun](c, progressKey, nil, cache.WithLogPrefix[*model.RetryRun]("[RetryService]"))
	store := &cachedProgressStore{runs: runs, progress: progress}
	return &RetryService{
		runs:         runs,
		progress:     progress,
		orchestrator: retry.NewOrchestrator(client, store, conf),
	}
}

// StartRetryRun records a pending run and returns its id; the run proceeds
// in the background.
func (s *RetryService) StartRetryRun(ctx context.Context, instanceIds []string) (string, error) {
	runId, err := s.orchestrator.Start(ctx, instanceIds)
	if err != nil {
		return "", err
	}
	logger.InfoContext(ctx, "retry run accepted", "runId", runId, "instances", len(instanceIds))
	return runId, nil
}

// GetRunProgress serves the cached snapshot when present and falls back to
// the database.
func (s *RetryService) GetRunProgress(ctx context.Context, runId string) (*model.RetryRun, error) {
	runId = strings.TrimSpace(runId)
	if runId == "" {
		return nil, fmt.Errorf("%w: run id is required", ErrInvalidArgument)
	}
	if run, err := s.progress.Peek(ctx, runId); err == nil {
		return run, nil
	}
	run, err := s.runs.Get(ctx, runId)
	if err != nil {
		return nil, err
	}
	s.progress.Set(ctx, run, runId)
	return run, nil
}

// ListRuns pages through runs, optionally filtered by status.
func (s *RetryService) ListRuns(ctx context.Context, status string, page, pageSize int) ([]*model.RetryRun, int64, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && !model.RunStatus(status).Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}
	return s.runs.List(ctx, &repo.RetryRunQuery{Status: status, Page: page, PageSize: pageSize})
}

// RecoverInterrupted fails runs left unfinished by a previous process and
// drops their cached snapshots, which outlive the process in Redis.
func (s *RetryService) RecoverInterrupted(ctx context.Context) (int64, error) {
	runIds, err := s.runs.MarkInterrupted(ctx, "run interrupted: control plane restarted before the run finished")
	if err != nil {
		return 0, fmt.Errorf("recover interrupted runs: %w", err)
	}
	for _, runId := range runIds {
		if err := s.progress.Invalidate(ctx, runId); err != nil {
			logger.Warnw("failed to drop cached retry run snapshot", "runId", runId, "error", err)
		}
	}
	if len(runIds) > 0 {
		logger.Warnw("marked interrupted retry runs as failed", "count", len(runIds))
	}
	return int64(len(runIds)), nil
}

// Shutdown interrupts running runs and waits for their terminal write.
func (s *RetryService) Shutdown(ctx context.Context) error {
	return s.orchestrator.Shutdown(ctx)
}

// cachedProgressStore refreshes the progress cache after every write. The
// cache write happens while the run is still locked, so snapshots land in
// commit order.
type cachedProgressStore struct {
	runs     repo.IRetryRunRepository
	progress *cache.CachedQuery[*model.RetryRun]
}

func (s *cachedProgressStore) Create(ctx context.Context, run *model.RetryRun) error {
	if err := s.runs.Create(ctx, run); err != nil {
		return err
	}
	s.progress.Set(ctx, run, run.RunId)
	return nil
}

func (s *cachedProgressStore) Get(ctx context.Context, runId string) (*model.RetryRun, error) {
	return s.runs.Get(ctx, runId)
}

func (s *cachedProgressStore) Mutate(ctx context.Context, runId string, fn retry.MutateFunc) (*model.RetryRun, error) {
	return s.runs.MutateThen(ctx, runId, fn, func(run *model.RetryRun) {
		s.progress.Set(context.WithoutCancel(ctx), run, runId)
	})
}
