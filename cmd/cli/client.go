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
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/arcentrix/arcentra-retry/internal/engine/model"
	"github.com/arcentrix/arcentra-retry/pkg/request"
	"github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"
)

// envelope is the daemon's unified response.
type envelope struct {
	Code   int             `json:"code"`
	Msg    string          `json:"msg"`
	Detail json.RawMessage `json:"detail"`
	Path   string          `json:"path"`
}

type apiError struct {
	StatusCode int
	Msg        string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server replied %d: %s", e.StatusCode, e.Msg)
}

type runPage struct {
	List     []*model.RetryRun `json:"list"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

type apiClient struct {
	baseURL string
	timeout time.Duration
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"), timeout: timeout}
}

func (c *apiClient) call(req *request.Request, out any) error {
	var env envelope
	resp, err := req.WithTimeout(c.timeout).WithResult(&env).Do()
	if err != nil {
		if resp != nil {
			return &apiError{StatusCode: resp.StatusCode, Msg: string(resp.Body)}
		}
		return err
	}
	if resp.StatusCode >= fasthttp.StatusBadRequest {
		msg := env.Msg
		if msg == "" {
			msg = string(resp.Body)
		}
		return &apiError{StatusCode: resp.StatusCode, Msg: msg}
	}
	if out == nil || len(env.Detail) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(env.Detail, out); err != nil {
		return fmt.Errorf("decode response detail: %w", err)
	}
	return nil
}

func (c *apiClient) startRun(instanceIds []string) (string, error) {
	var out struct {
		RunId string `json:"runId"`
	}
	req := request.NewRequest(c.baseURL+"/api/v1/retry-runs", fasthttp.MethodPost).
		WithBodyJSON(map[string]any{"processInstanceIds": instanceIds})
	if err := c.call(req, &out); err != nil {
		return "", err
	}
	return out.RunId, nil
}

func (c *apiClient) getRun(runId string) (*model.RetryRun, error) {
	var run model.RetryRun
	req := request.NewRequest(c.baseURL+"/api/v1/retry-runs/"+url.PathEscape(runId), fasthttp.MethodGet)
	if err := c.call(req, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *apiClient) listRuns(status string, page, pageSize int) (*runPage, error) {
	var out runPage
	req := request.NewRequest(c.baseURL+"/api/v1/retry-runs", fasthttp.MethodGet).
		WithQueryParams(map[string]string{
			"status":   status,
			"page":     strconv.Itoa(page),
			"pageSize": strconv.Itoa(pageSize),
		})
	if err := c.call(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
