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
	"testing"

	"github.com/arcentrix/arcentra-retry/pkg/bpm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCollectIsolatesFailingInstance(t *testing.T) {
	c := newFakeClient()
	c.instances["pi-1"] = instanceData{
		incidents: []bpm.Incident{jobIncident("pi-1", "j1")},
		jobs:      []bpm.Job{{Id: "j1", ProcessInstanceId: "pi-1"}},
	}
	c.instances["pi-2"] = instanceData{
		incidents: []bpm.Incident{jobIncident("pi-2", "j2")},
		jobs:      []bpm.Job{{Id: "j2", ProcessInstanceId: "pi-2"}},
		err:       errors.New("connection reset"),
	}
	c.instances["pi-3"] = instanceData{
		incidents: []bpm.Incident{taskIncident("pi-3", "x3")},
		tasks:     []bpm.ExternalTask{{Id: "x3", ProcessInstanceId: "pi-3", ErrorMessage: "boom"}},
	}

	set, err := NewCollector(c, 0).Collect(context.Background(), []string{"pi-1", "pi-2", "pi-3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"j1"}, set.JobIds)
	assert.Equal(t, []string{"x3"}, set.ExternalTaskIds)
	assert.Equal(t, []string{"pi-2"}, set.SkippedInstances)
}

func TestCollectSkipsUnknownInstance(t *testing.T) {
	c := newFakeClient()
	set, err := NewCollector(c, 2).Collect(context.Background(), []string{"gone"})
	require.NoError(t, err)
	assert.True(t, set.Empty())
	assert.Equal(t, []string{"gone"}, set.SkippedInstances)
}

func TestCollectRequiresMatchingIncident(t *testing.T) {
	c := newFakeClient()
	// failed job and task recorded, but only a task incident is open
	c.instances["pi-1"] = instanceData{
		incidents: []bpm.Incident{taskIncident("pi-1", "x1"), {Id: "i9", IncidentType: "custom"}},
		jobs:      []bpm.Job{{Id: "j1"}},
		tasks:     []bpm.ExternalTask{{Id: "x1", Retries: intPtr(0)}},
	}
	// exceptions without any open incident
	c.instances["pi-2"] = instanceData{
		jobs:  []bpm.Job{{Id: "j2"}},
		tasks: []bpm.ExternalTask{{Id: "x2", ErrorMessage: "resolved"}},
	}

	set, err := NewCollector(c, 0).Collect(context.Background(), []string{"pi-1", "pi-2"})
	require.NoError(t, err)
	assert.Empty(t, set.JobIds)
	assert.Equal(t, []string{"x1"}, set.ExternalTaskIds)
	assert.Empty(t, set.SkippedInstances)
}

func TestCollectDeduplicates(t *testing.T) {
	c := newFakeClient()
	c.instances["pi-1"] = instanceData{
		incidents: []bpm.Incident{jobIncident("pi-1", "j1"), jobIncident("pi-1", "j1")},
		jobs:      []bpm.Job{{Id: "j1"}, {Id: "j1"}, {Id: ""}},
	}
	set, err := NewCollector(c, 0).Collect(context.Background(), []string{"pi-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"j1"}, set.JobIds)
}

func TestCollectReturnsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCollector(newFakeClient(), 0).Collect(ctx, []string{"pi-1"})
	assert.ErrorIs(t, err, context.Canceled)
}
