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

package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestStartRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/retry-runs", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"processInstanceIds":["pi-1","pi-2"]}`, string(body))
		reply(w, 200, `{"code":200,"msg":"success","detail":{"runId":"run-1"}}`)
	}))
	defer srv.Close()

	runId, err := newAPIClient(srv.URL+"/", time.Second).startRun([]string{"pi-1", "pi-2"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", runId)
}

func TestGetRunErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/retry-runs/gone" {
			reply(w, 404, `{"code":404,"msg":"retry run not found","path":"/api/v1/retry-runs/gone"}`)
			return
		}
		w.WriteHeader(502)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}))
	defer srv.Close()
	client := newAPIClient(srv.URL, time.Second)

	_, err := client.getRun("gone")
	var ae *apiError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 404, ae.StatusCode)
	assert.Equal(t, "retry run not found", ae.Msg)

	_, err = client.getRun("other")
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 502, ae.StatusCode)
	assert.Contains(t, ae.Msg, "bad gateway")
}

func TestListRuns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "failed", r.URL.Query().Get("status"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		reply(w, 200, `{"code":200,"msg":"success","detail":{"list":[{"runId":"run-9","status":"failed","overallProgressPercent":50,"instanceIds":["pi-1"],"createdAt":"2026-01-02T03:04:05Z"}],"total":11,"page":2,"pageSize":10}}`)
	}))
	defer srv.Close()

	page, err := newAPIClient(srv.URL, time.Second).listRuns("failed", 2, 10)
	require.NoError(t, err)
	require.Len(t, page.List, 1)
	assert.Equal(t, int64(11), page.Total)

	var out bytes.Buffer
	printRuns(&out, page)
	assert.Contains(t, out.String(), "run-9")
	assert.Contains(t, out.String(), "50%")
	assert.Contains(t, out.String(), "page 2, 1 of 11 runs")
}

func TestWatchRunUntilTerminal(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if polls.Add(1) < 3 {
			reply(w, 200, `{"code":200,"detail":{"runId":"run-1","status":"running","overallProgressPercent":40,"counts":{"jobs":{"total":5,"completed":2}}}}`)
			return
		}
		reply(w, 200, `{"code":200,"detail":{"runId":"run-1","status":"failed","overallProgressPercent":100,"lastError":"submit job retry batch: boom","errorKind":"fault"}}`)
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := watchRun(&out, newAPIClient(srv.URL, time.Second), "run-1", time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, int32(3), polls.Load())
	assert.Contains(t, out.String(), "running  40% jobs 2/0/5")
	assert.Contains(t, out.String(), "[fault] submit job retry batch: boom")
}
