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
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	kindJob          = "job"
	kindExternalTask = "external_task"

	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_runs_total",
			Help: "Retry runs that reached a terminal status",
		},
		[]string{"status"},
	)

	runsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "retry_runs_in_flight",
			Help: "Retry runs currently executing",
		},
	)

	itemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_items_total",
			Help: "Retried jobs and external tasks by outcome",
		},
		[]string{"kind", "outcome"},
	)

	batchPolls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "retry_batch_polls_total",
			Help: "Batch statistics polls issued",
		},
	)

	skippedInstances = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "retry_discovery_skipped_instances_total",
			Help: "Process instances skipped because discovery failed",
		},
	)
)

// RegisterMetrics registers the retry collectors. Registering twice on the
// same registry is not an error.
func RegisterMetrics(registry prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{runsTotal, runsInFlight, itemsTotal, batchPolls, skippedInstances} {
		if err := registry.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
