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
	"strings"
	"sync"
	"time"

	"github.com/arcentrix/arcentra-retry/internal/engine/model"
	"github.com/arcentrix/arcentra-retry/pkg/bpm"
	"github.com/arcentrix/arcentra-retry/pkg/id"
	"github.com/arcentrix/arcentra-retry/pkg/logger"
	"github.com/arcentrix/arcentra-retry/pkg/safe"
	tracectx "github.com/arcentrix/arcentra-retry/pkg/trace/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ErrShuttingDown rejects new runs once Shutdown was called.
var ErrShuttingDown = errors.New("retry orchestrator is shutting down")

const tracerName = "github.com/arcentrix/arcentra-retry/internal/pkg/retry"

// Orchestrator drives retry runs: discovery, then the bulk job path and the
// external task path side by side, then the terminal status.
type Orchestrator struct {
	store     ProgressStore
	collector *Collector
	submitter *Submitter
	retryer   *Retryer
	monitor   *Monitor
	tracer    trace.Tracer

	// mu orders the shutdown check and wg.Add in Start against Shutdown
	mu      sync.Mutex
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	now     func() time.Time
}

func NewOrchestrator(client bpm.Client, store ProgressStore, cfg Config) *Orchestrator {
	cfg.SetDefaults()
	base, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:     store,
		collector: NewCollector(client, cfg.DiscoveryConcurrency),
		submitter: NewSubmitter(client),
		retryer:   NewRetryer(client, store, cfg.Concurrency),
		monitor:   NewMonitor(client, store, cfg),
		tracer:    otel.Tracer(tracerName),
		baseCtx:   base,
		cancel:    cancel,
		now:       time.Now,
	}
}

// Start records a pending run and executes it in the background. It returns
// as soon as the record exists.
func (o *Orchestrator) Start(ctx context.Context, instanceIds []string) (string, error) {
	o.mu.Lock()
	if o.baseCtx.Err() != nil {
		o.mu.Unlock()
		return "", ErrShuttingDown
	}
	o.wg.Add(1)
	o.mu.Unlock()

	ids := NormalizeInstanceIds(instanceIds)
	run := &model.RetryRun{
		RunId:            id.ULID(),
		Status:           model.RunStatusPending,
		InstanceIds:      ids,
		SkippedInstances: []string{},
	}
	if err := o.store.Create(ctx, run); err != nil {
		o.wg.Done()
		return "", fmt.Errorf("create retry run: %w", err)
	}

	link := trace.LinkFromContext(ctx)
	safe.Go(func() {
		defer o.wg.Done()
		o.Run(o.baseCtx, run.RunId, ids, trace.WithLinks(link))
	})
	return run.RunId, nil
}

// Run executes an already created run to its terminal status. Failures are
// recorded on the run and never returned.
func (o *Orchestrator) Run(ctx context.Context, runId string, instanceIds []string, opts ...trace.SpanStartOption) {
	opts = append(opts, trace.WithAttributes(
		attribute.String("retry.run_id", runId),
		attribute.Int("retry.instances", len(instanceIds)),
	))
	ctx, span := o.tracer.Start(ctx, "retry.run", opts...)
	defer span.End()

	runsInFlight.Inc()
	defer runsInFlight.Dec()

	tracectx.RunWithContext(ctx, func(ctx context.Context) {
		logger.InfoContext(ctx, "retry run started", "runId", runId, "instances", len(instanceIds))
		err := safe.Try(func() error { return o.execute(ctx, runId, instanceIds) })
		status, kind, msg := o.resolve(ctx, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, msg)
		}

		final, ferr := o.store.Mutate(context.WithoutCancel(ctx), runId, func(run *model.RetryRun) error {
			run.Finish(status, kind, msg, o.now())
			return nil
		})
		if ferr != nil {
			logger.ErrorContext(ctx, "failed to record terminal status", "runId", runId, "status", status, "error", ferr)
			return
		}
		runsTotal.WithLabelValues(string(final.Status)).Inc()
		logger.InfoContext(ctx, "retry run finished",
			"runId", runId,
			"status", final.Status,
			"errorKind", final.ErrorKind,
			"jobs", final.Counts.Jobs,
			"externalTasks", final.Counts.ExternalTasks,
			"skippedInstances", final.SkippedInstanceCount,
			"progress", final.OverallProgress)
	})
}

// resolve maps the outcome of execute onto the terminal status. Item level
// failures never reach here, so a nil error always means completed.
func (o *Orchestrator) resolve(ctx context.Context, err error) (model.RunStatus, model.ErrorKind, string) {
	switch {
	case err == nil:
		return model.RunStatusCompleted, model.ErrorKindNone, ""
	case ctx.Err() != nil:
		return model.RunStatusFailed, model.ErrorKindInterrupted, "run interrupted: " + err.Error()
	case errors.Is(err, ErrMonitorTimeout):
		return model.RunStatusFailed, model.ErrorKindTimeout, err.Error()
	default:
		var pe *safe.PanicError
		if errors.As(err, &pe) {
			logger.ErrorContext(ctx, "retry run panicked", "panic", fmt.Sprint(pe.Value), "stack", string(pe.Stack))
		}
		return model.RunStatusFailed, model.ErrorKindFault, err.Error()
	}
}

func (o *Orchestrator) execute(ctx context.Context, runId string, instanceIds []string) error {
	if _, err := o.store.Mutate(ctx, runId, func(run *model.RetryRun) error {
		run.Status = model.RunStatusRunning
		run.LastError = ""
		run.ErrorKind = model.ErrorKindNone
		return nil
	}); err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}

	set, err := o.discover(ctx, runId, instanceIds)
	if err != nil {
		return err
	}
	if set.Empty() {
		return nil
	}

	// both paths always run to their end; a failing one does not cancel the other
	var (
		g                 errgroup.Group
		jobsErr, tasksErr error
	)
	if len(set.JobIds) > 0 {
		g.Go(func() error {
			jobsErr = safe.Try(func() error { return o.retryJobs(ctx, runId, set.JobIds) })
			return jobsErr
		})
	}
	if len(set.ExternalTaskIds) > 0 {
		g.Go(func() error {
			tasksErr = safe.Try(func() error { return o.retryExternalTasks(ctx, runId, set.ExternalTaskIds) })
			return tasksErr
		})
	}
	_ = g.Wait()
	return errors.Join(jobsErr, tasksErr)
}

func (o *Orchestrator) discover(ctx context.Context, runId string, instanceIds []string) (FailureSet, error) {
	ctx, span := o.tracer.Start(ctx, "retry.discovery")
	defer span.End()

	set, err := o.collector.Collect(ctx, instanceIds)
	if err != nil {
		return FailureSet{}, fmt.Errorf("discovery: %w", err)
	}
	span.SetAttributes(
		attribute.Int("retry.jobs", len(set.JobIds)),
		attribute.Int("retry.external_tasks", len(set.ExternalTaskIds)),
		attribute.Int("retry.skipped_instances", len(set.SkippedInstances)),
	)

	if _, err := o.store.Mutate(ctx, runId, func(run *model.RetryRun) error {
		run.Counts.Jobs = model.ItemCounts{Total: int64(len(set.JobIds))}
		run.Counts.ExternalTasks = model.ItemCounts{Total: int64(len(set.ExternalTaskIds))}
		run.SkippedInstances = append([]string{}, set.SkippedInstances...)
		run.SkippedInstanceCount = len(set.SkippedInstances)
		return nil
	}); err != nil {
		return FailureSet{}, fmt.Errorf("record discovery: %w", err)
	}
	logger.InfoContext(ctx, "discovery finished", "runId", runId,
		"jobs", len(set.JobIds), "externalTasks", len(set.ExternalTaskIds), "skippedInstances", len(set.SkippedInstances))
	return set, nil
}

// retryJobs submits the bulk batch and monitors it. When submission fails
// every job is counted failed, since none of them will be retried.
func (o *Orchestrator) retryJobs(ctx context.Context, runId string, jobIds []string) error {
	subCtx, span := o.tracer.Start(ctx, "retry.submit", trace.WithAttributes(attribute.Int("retry.jobs", len(jobIds))))
	batchId, err := o.submitter.Submit(subCtx, jobIds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		itemsTotal.WithLabelValues(kindJob, outcomeFailed).Add(float64(len(jobIds)))
		if _, merr := o.store.Mutate(context.WithoutCancel(ctx), runId, func(run *model.RetryRun) error {
			run.Counts.Jobs.Completed = 0
			run.Counts.Jobs.Failed = run.Counts.Jobs.Total
			return nil
		}); merr != nil {
			return errors.Join(err, merr)
		}
		return err
	}
	span.SetAttributes(attribute.String("retry.batch_id", batchId))
	span.End()

	if _, err := o.store.Mutate(ctx, runId, func(run *model.RetryRun) error {
		run.RemoteBatchId = batchId
		return nil
	}); err != nil {
		return fmt.Errorf("record batch id: %w", err)
	}
	logger.InfoContext(ctx, "job retry batch submitted", "runId", runId, "batchId", batchId, "jobs", len(jobIds))

	monCtx, span := o.tracer.Start(ctx, "retry.monitor", trace.WithAttributes(attribute.String("retry.batch_id", batchId)))
	defer span.End()
	if err := o.monitor.Monitor(monCtx, runId, batchId); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (o *Orchestrator) retryExternalTasks(ctx context.Context, runId string, taskIds []string) error {
	ctx, span := o.tracer.Start(ctx, "retry.external_tasks", trace.WithAttributes(attribute.Int("retry.external_tasks", len(taskIds))))
	defer span.End()

	res, err := o.retryer.RetryAll(ctx, runId, taskIds)
	span.SetAttributes(
		attribute.Int64("retry.completed", res.Completed),
		attribute.Int64("retry.failed", res.Failed),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("retry external tasks: %w", err)
	}
	return nil
}

// Wait blocks until every started run has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Shutdown stops accepting runs, interrupts the running ones and waits for
// them to record their terminal status or for ctx to end.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.cancel()
	o.mu.Unlock()
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NormalizeInstanceIds trims ids, drops blanks and duplicates, keeping order.
func NormalizeInstanceIds(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
