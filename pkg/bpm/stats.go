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

package bpm

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// StatsShape tells which variant a BatchStatistics payload decoded to.
type StatsShape int

const (
	// StatsEmpty is a null, absent or malformed payload.
	StatsEmpty StatsShape = iota
	// StatsSingle is one statistics object.
	StatsSingle
	// StatsPartitioned is an array of per-partition statistics objects.
	StatsPartitioned
)

// PartitionStats holds the counters of one statistics object. A nil field was
// absent or not numeric on the wire.
type PartitionStats struct {
	CompletedJobs *float64
	FailedJobs    *float64
	RemainingJobs *float64
}

func (p PartitionStats) empty() bool {
	return p.CompletedJobs == nil && p.FailedJobs == nil && p.RemainingJobs == nil
}

// BatchStatistics is the decoded statistics payload of a remote batch:
// exactly one of Single or Partitions is meaningful, selected by Shape.
type BatchStatistics struct {
	Shape      StatsShape
	Single     PartitionStats
	Partitions []PartitionStats
}

// UnmarshalJSON never fails: the engine is not trusted to return well-formed
// statistics, so anything that is neither an object nor an array decodes to
// StatsEmpty.
func (s *BatchStatistics) UnmarshalJSON(data []byte) error {
	*s = BatchStatistics{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	var raw any
	if err := sonic.Unmarshal(trimmed, &raw); err != nil {
		return nil
	}
	*s = StatisticsFromValue(raw)
	return nil
}

// StatisticsFromValue classifies an already decoded JSON value.
func StatisticsFromValue(raw any) BatchStatistics {
	switch v := raw.(type) {
	case map[string]any:
		return BatchStatistics{Shape: StatsSingle, Single: partitionFromMap(v)}
	case []any:
		parts := make([]PartitionStats, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				parts = append(parts, partitionFromMap(m))
			}
		}
		return BatchStatistics{Shape: StatsPartitioned, Partitions: parts}
	case []map[string]any:
		parts := make([]PartitionStats, 0, len(v))
		for _, m := range v {
			parts = append(parts, partitionFromMap(m))
		}
		return BatchStatistics{Shape: StatsPartitioned, Partitions: parts}
	default:
		return BatchStatistics{Shape: StatsEmpty}
	}
}

func partitionFromMap(m map[string]any) PartitionStats {
	return PartitionStats{
		CompletedJobs: number(m["completedJobs"]),
		FailedJobs:    number(m["failedJobs"]),
		RemainingJobs: number(m["remainingJobs"]),
	}
}

// number coerces native numbers and numeric strings; everything else is nil.
func number(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// NormalizedStats is the canonical counts structure of a remote batch. A nil
// field means the engine reported no data for it; callers treat that as 0.
type NormalizedStats struct {
	Completed *int64 `json:"completed,omitempty"`
	Failed    *int64 `json:"failed,omitempty"`
	Remaining *int64 `json:"remaining,omitempty"`
}

// Empty reports whether no field carries data.
func (n NormalizedStats) Empty() bool {
	return n.Completed == nil && n.Failed == nil && n.Remaining == nil
}

func (n NormalizedStats) CompletedOrZero() int64 { return orZero(n.Completed) }
func (n NormalizedStats) FailedOrZero() int64    { return orZero(n.Failed) }
func (n NormalizedStats) RemainingOrZero() int64 { return orZero(n.Remaining) }

func orZero(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// Normalize folds the statistics into one NormalizedStats.
//
// A single object with at least one counter yields all three counters, the
// missing ones as 0. Partitions are summed field by field and a field absent
// from every partition stays nil, so "no data" remains distinguishable from
// "zero work".
func (s BatchStatistics) Normalize() NormalizedStats {
	switch s.Shape {
	case StatsSingle:
		if s.Single.empty() {
			return NormalizedStats{}
		}
		return NormalizedStats{
			Completed: toCount(zeroIfNil(s.Single.CompletedJobs)),
			Failed:    toCount(zeroIfNil(s.Single.FailedJobs)),
			Remaining: toCount(zeroIfNil(s.Single.RemainingJobs)),
		}
	case StatsPartitioned:
		var completed, failed, remaining *float64
		for _, p := range s.Partitions {
			completed = add(completed, p.CompletedJobs)
			failed = add(failed, p.FailedJobs)
			remaining = add(remaining, p.RemainingJobs)
		}
		return NormalizedStats{
			Completed: toCount(completed),
			Failed:    toCount(failed),
			Remaining: toCount(remaining),
		}
	default:
		return NormalizedStats{}
	}
}

// Normalize decodes and normalizes a raw statistics value (nil, an object or
// an array of objects as produced by a JSON decoder).
func Normalize(raw any) NormalizedStats {
	return StatisticsFromValue(raw).Normalize()
}

func add(acc, v *float64) *float64 {
	if v == nil {
		return acc
	}
	sum := *v
	if acc != nil {
		sum += *acc
	}
	return &sum
}

func zeroIfNil(v *float64) *float64 {
	if v == nil {
		zero := 0.0
		return &zero
	}
	return v
}

func toCount(v *float64) *int64 {
	if v == nil {
		return nil
	}
	// counts are never negative; huge values saturate instead of overflowing
	f := math.Round(*v)
	var n int64
	switch {
	case math.IsNaN(f) || f <= 0:
		n = 0
	case f >= math.MaxInt64:
		n = math.MaxInt64
	default:
		n = int64(f)
	}
	return &n
}
