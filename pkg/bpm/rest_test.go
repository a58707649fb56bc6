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
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *RestClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewRestClient(Config{BaseUrl: srv.URL + "/engine-rest/", Headers: map[string]string{"X-Tenant": "t1"}})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestListIncidents(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/engine-rest/incident", r.URL.Path)
		assert.Equal(t, "pi-1", r.URL.Query().Get("processInstanceId"))
		assert.Equal(t, "t1", r.Header.Get("X-Tenant"))
		writeJSON(w, http.StatusOK, `[
			{"id":"inc-1","processInstanceId":"pi-1","incidentType":"failedJob","configuration":"j1","incidentTimestamp":"2026-03-01T10:00:00.000+0000"},
			{"id":"inc-2","processInstanceId":"pi-1","incidentType":"failedExternalTask","configuration":"x1"}
		]`)
	})
	incidents, err := c.ListIncidents(context.Background(), "pi-1")
	require.NoError(t, err)
	require.Len(t, incidents, 2)
	assert.True(t, incidents[0].IsJobFailure())
	assert.True(t, incidents[1].IsExternalTaskFailure())
	require.NotNil(t, incidents[0].IncidentTimestamp)
	assert.Equal(t, 2026, incidents[0].IncidentTimestamp.Year())
}

func TestListFailedJobsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/engine-rest/job", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("withException"))
		writeJSON(w, http.StatusOK, `[{"id":"j1","processInstanceId":"pi-1","exceptionMessage":"boom","retries":0}]`)
	})
	jobs, err := c.ListFailedJobs(context.Background(), "pi-1")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "j1", jobs[0].Id)
	assert.Equal(t, "boom", jobs[0].ExceptionMessage)
}

func TestListFailedExternalTasksFilters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[
			{"id":"x1","errorMessage":"worker crashed","retries":2},
			{"id":"x2","retries":3},
			{"id":"x3","retries":0},
			{"id":"x4"}
		]`)
	})
	tasks, err := c.ListFailedExternalTasks(context.Background(), "pi-2")
	require.NoError(t, err)
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.Id)
	}
	assert.Equal(t, []string{"x1", "x3"}, ids)
}

func TestNotFoundIsDistinguishable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"type":"InvalidRequestException","message":"process instance gone"}`)
	})
	_, err := c.ListIncidents(context.Background(), "pi-9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "InvalidRequestException", apiErr.Type)
	assert.Contains(t, err.Error(), "process instance gone")
}

func TestServerErrorWithPlainBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "upstream exploded")
	})
	err := c.RetryExternalTask(context.Background(), "x1", 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestSubmitJobRetryBatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/engine-rest/job/retries", r.URL.Path)
		var body struct {
			JobIds  []string `json:"jobIds"`
			Retries int      `json:"retries"`
		}
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, sonic.Unmarshal(raw, &body))
		assert.Equal(t, []string{"j1", "j2"}, body.JobIds)
		assert.Equal(t, 1, body.Retries)
		writeJSON(w, http.StatusOK, `{"id":"batch-1","type":"set-job-retries","totalJobs":2}`)
	})
	batch, err := c.SubmitJobRetryBatch(context.Background(), []string{"j1", "j2"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "batch-1", batch.Id)
	assert.Equal(t, 2, batch.TotalJobs)

	_, err = c.SubmitJobRetryBatch(context.Background(), nil, 1)
	assert.Error(t, err)
}

func TestGetBatchStatisticsShapes(t *testing.T) {
	payload := `[{"id":"batch-1","completedJobs":3,"failedJobs":1,"remainingJobs":"2"},{"id":"batch-1","remainingJobs":1}]`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "batch-1", r.URL.Query().Get("batchId"))
		writeJSON(w, http.StatusOK, payload)
	})
	stats, err := c.GetBatchStatistics(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, StatsPartitioned, stats.Shape)
	n := stats.Normalize()
	assert.Equal(t, int64(3), n.CompletedOrZero())
	assert.Equal(t, int64(1), n.FailedOrZero())
	assert.Equal(t, int64(3), n.RemainingOrZero())

	payload = `[]`
	stats, err = c.GetBatchStatistics(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.True(t, stats.Normalize().Empty())
}

func TestRetryExternalTask(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/engine-rest/external-task/x%201/retries", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.RetryExternalTask(context.Background(), "x 1", 1))
}

func TestTransportErrorIsWrapped(t *testing.T) {
	c, err := NewRestClient(Config{BaseUrl: "http://127.0.0.1:1", TimeoutSeconds: 1})
	require.NoError(t, err)
	_, err = c.ListIncidents(context.Background(), "pi-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list incidents")
	assert.False(t, errors.Is(err, ErrNotFound))
}
