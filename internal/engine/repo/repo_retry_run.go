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

package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arcentrix/arcentra-retry/internal/engine/model"
	"github.com/arcentrix/arcentra-retry/internal/pkg/retry"
	"github.com/arcentrix/arcentra-retry/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RetryRunQuery defines query parameters for listing retry runs.
type RetryRunQuery struct {
	Status   string
	Page     int
	PageSize int
}

// IRetryRunRepository is the durable ProgressStore plus the listing and
// recovery queries used by the service layer.
type IRetryRunRepository interface {
	retry.ProgressStore
	// MutateThen is Mutate with committed called on the saved run while the
	// run is still locked, so its side effects keep the commit order.
	MutateThen(ctx context.Context, runId string, fn retry.MutateFunc, committed func(*model.RetryRun)) (*model.RetryRun, error)
	List(ctx context.Context, query *RetryRunQuery) ([]*model.RetryRun, int64, error)
	MarkInterrupted(ctx context.Context, reason string) ([]string, error)
}

type RetryRunRepo struct {
	database.IDatabase
	locks keyedMutex
}

var _ retry.ProgressStore = (*RetryRunRepo)(nil)

func NewRetryRunRepo(db database.IDatabase) IRetryRunRepository {
	return &RetryRunRepo{IDatabase: db}
}

func (r *RetryRunRepo) Create(ctx context.Context, run *model.RetryRun) error {
	run.Recompute()
	return r.Database().WithContext(ctx).Create(run).Error
}

func (r *RetryRunRepo) Get(ctx context.Context, runId string) (*model.RetryRun, error) {
	var one model.RetryRun
	if err := r.Database().WithContext(ctx).
		Where("run_id = ?", runId).
		First(&one).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, retry.ErrRunNotFound
		}
		return nil, err
	}
	return &one, nil
}

// Mutate serializes updates of one run inside this process with a keyed lock
// and across processes with a row lock where the driver supports it.
func (r *RetryRunRepo) Mutate(ctx context.Context, runId string, fn retry.MutateFunc) (*model.RetryRun, error) {
	return r.MutateThen(ctx, runId, fn, nil)
}

func (r *RetryRunRepo) MutateThen(ctx context.Context, runId string, fn retry.MutateFunc, committed func(*model.RetryRun)) (*model.RetryRun, error) {
	unlock := r.locks.lock(runId)
	defer unlock()

	var out model.RetryRun
	err := r.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("run_id = ?", runId)
		if tx.Dialector.Name() == database.DriverMySQL {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var run model.RetryRun
		if err := q.First(&run).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return retry.ErrRunNotFound
			}
			return err
		}
		if err := fn(&run); err != nil {
			return err
		}
		run.Recompute()
		if err := tx.Save(&run).Error; err != nil {
			return fmt.Errorf("save retry run %s: %w", runId, err)
		}
		out = run
		return nil
	})
	if err != nil {
		return nil, err
	}
	if committed != nil {
		committed(&out)
	}
	return &out, nil
}

// List returns retry runs and total by query, newest first.
func (r *RetryRunRepo) List(ctx context.Context, query *RetryRunQuery) ([]*model.RetryRun, int64, error) {
	if query == nil {
		query = &RetryRunQuery{}
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}
	if query.PageSize > 100 {
		query.PageSize = 100
	}

	tx := r.Database().WithContext(ctx).Model(&model.RetryRun{})
	if s := strings.TrimSpace(query.Status); s != "" {
		tx = tx.Where("status = ?", strings.ToLower(s))
	}

	total, err := Count(tx)
	if err != nil {
		return nil, 0, err
	}

	var list []*model.RetryRun
	err = tx.Order("created_at DESC").
		Order("id DESC").
		Offset((query.Page - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// MarkInterrupted fails every run that is still pending or running and
// returns their run ids. It is called at startup, before any new run is
// accepted.
func (r *RetryRunRepo) MarkInterrupted(ctx context.Context, reason string) ([]string, error) {
	var runIds []string
	err := r.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.RetryRun{}).
			Where("status IN ?", []model.RunStatus{model.RunStatusPending, model.RunStatusRunning}).
			Order("id ASC").
			Pluck("run_id", &runIds).Error; err != nil {
			return err
		}
		if len(runIds) == 0 {
			return nil
		}
		now := time.Now()
		return tx.Model(&model.RetryRun{}).
			Where("run_id IN ?", runIds).
			Updates(map[string]any{
				"status":       model.RunStatusFailed,
				"error_kind":   model.ErrorKindInterrupted,
				"last_error":   reason,
				"completed_at": now,
				"updated_at":   now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return runIds, nil
}

// keyedMutex hands out one mutex per key and forgets it when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
