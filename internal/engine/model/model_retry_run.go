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

package model

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// RunStatus is the state of a retry run: pending -> running -> completed | failed.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return true
	}
	return false
}

// ErrorKind classifies why a run failed.
type ErrorKind string

const (
	ErrorKindNone        ErrorKind = ""
	ErrorKindFault       ErrorKind = "fault"
	ErrorKindTimeout     ErrorKind = "timeout"
	ErrorKindInterrupted ErrorKind = "interrupted"
)

// ItemCounts tracks one work category. Total = Completed + Failed + Remaining
// after every Recompute.
type ItemCounts struct {
	Total     int64 `gorm:"column:total;type:BIGINT;not null;default:0" json:"total"`
	Completed int64 `gorm:"column:completed;type:BIGINT;not null;default:0" json:"completed"`
	Failed    int64 `gorm:"column:failed;type:BIGINT;not null;default:0" json:"failed"`
	Remaining int64 `gorm:"column:remaining;type:BIGINT;not null;default:0" json:"remaining"`
}

// recompute clamps the settled counters into [0, Total] and derives Remaining.
func (c *ItemCounts) recompute() {
	if c.Total < 0 {
		c.Total = 0
	}
	c.Completed = clamp(c.Completed, 0, c.Total)
	c.Failed = clamp(c.Failed, 0, c.Total-c.Completed)
	c.Remaining = c.Total - c.Completed - c.Failed
}

type RunCounts struct {
	Jobs          ItemCounts `gorm:"embedded;embeddedPrefix:jobs_" json:"jobs"`
	ExternalTasks ItemCounts `gorm:"embedded;embeddedPrefix:external_tasks_" json:"externalTasks"`
}

// RetryRun is one orchestration run over a set of process instances.
type RetryRun struct {
	BaseModel
	RunId                string                      `gorm:"column:run_id;type:VARCHAR(64);uniqueIndex" json:"runId"`
	Status               RunStatus                   `gorm:"column:status;type:VARCHAR(16);index" json:"status"`
	RemoteBatchId        string                      `gorm:"column:remote_batch_id;type:VARCHAR(64)" json:"remoteBatchId,omitempty"`
	InstanceIds          datatypes.JSONSlice[string] `gorm:"column:instance_ids" json:"instanceIds"`
	SkippedInstances     datatypes.JSONSlice[string] `gorm:"column:skipped_instances" json:"skippedInstances"`
	SkippedInstanceCount int                         `gorm:"column:skipped_instance_count" json:"skippedInstanceCount"`
	Counts               RunCounts                   `gorm:"embedded" json:"counts"`
	OverallProgress      int                         `gorm:"column:overall_progress" json:"overallProgressPercent"`
	LastError            string                      `gorm:"column:last_error;type:TEXT" json:"lastError,omitempty"`
	ErrorKind            ErrorKind                   `gorm:"column:error_kind;type:VARCHAR(16)" json:"errorKind,omitempty"`
	CompletedAt          *time.Time                  `gorm:"column:completed_at" json:"completedAt,omitempty"`
}

func (RetryRun) TableName() string {
	return "t_retry_run"
}

// Recompute re-derives remaining per category and the overall percentage.
func (r *RetryRun) Recompute() {
	r.Counts.Jobs.recompute()
	r.Counts.ExternalTasks.recompute()
	total := r.Counts.Jobs.Total + r.Counts.ExternalTasks.Total
	if total == 0 {
		r.OverallProgress = 0
		return
	}
	done := r.Counts.Jobs.Completed + r.Counts.ExternalTasks.Completed
	r.OverallProgress = int(math.Round(100 * float64(done) / float64(total)))
}

// Finish moves the run to a terminal status. CompletedAt is stamped once.
func (r *RetryRun) Finish(status RunStatus, kind ErrorKind, lastError string, now time.Time) {
	if r.Status.IsTerminal() {
		return
	}
	r.Status = status
	if lastError != "" {
		r.LastError = lastError
		r.ErrorKind = kind
	}
	if r.CompletedAt == nil {
		r.CompletedAt = &now
	}
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
