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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arcentrix/arcentra-retry/pkg/logger"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
)

// RestClient talks to a Camunda 7 style engine-rest API.
type RestClient struct {
	client *resty.Client
	log    *logger.Logger
}

var _ Client = (*RestClient)(nil)

func NewRestClient(cfg Config) (*RestClient, error) {
	cfg.SetDefaults()
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseUrl), "/")
	if base == "" {
		return nil, fmt.Errorf("bpm baseUrl is required")
	}
	c := resty.New().
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second).
		SetBaseURL(base).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	for k, v := range cfg.Headers {
		c.SetHeader(k, v)
	}
	return &RestClient{client: c, log: logger.Channel("engine")}, nil
}

func (c *RestClient) ListIncidents(ctx context.Context, processInstanceId string) ([]Incident, error) {
	var incidents []Incident
	r, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("processInstanceId", processInstanceId).
		SetResult(&incidents).
		Get("/incident")
	if err := check(r, err, "list incidents"); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (c *RestClient) ListFailedJobs(ctx context.Context, processInstanceId string) ([]Job, error) {
	var jobs []Job
	r, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"processInstanceId": processInstanceId,
			"withException":     "true",
		}).
		SetResult(&jobs).
		Get("/job")
	if err := check(r, err, "list jobs"); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (c *RestClient) ListFailedExternalTasks(ctx context.Context, processInstanceId string) ([]ExternalTask, error) {
	var tasks []ExternalTask
	r, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("processInstanceId", processInstanceId).
		SetResult(&tasks).
		Get("/external-task")
	if err := check(r, err, "list external tasks"); err != nil {
		return nil, err
	}
	failed := tasks[:0]
	for _, t := range tasks {
		if t.Failed() {
			failed = append(failed, t)
		}
	}
	return failed, nil
}

func (c *RestClient) SubmitJobRetryBatch(ctx context.Context, jobIds []string, retries int) (*Batch, error) {
	if len(jobIds) == 0 {
		return nil, fmt.Errorf("submit job retries: no job ids")
	}
	var batch Batch
	r, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"jobIds":  jobIds,
			"retries": retries,
		}).
		SetResult(&batch).
		Post("/job/retries")
	if err := check(r, err, "submit job retries"); err != nil {
		return nil, err
	}
	if batch.Id == "" {
		return nil, fmt.Errorf("submit job retries: engine returned no batch id")
	}
	c.log.Debugw("job retry batch submitted", "batchId", batch.Id, "jobs", len(jobIds))
	return &batch, nil
}

// GetBatchStatistics decodes the body itself since the payload may be an
// object, an array or nothing at all.
func (c *RestClient) GetBatchStatistics(ctx context.Context, batchId string) (BatchStatistics, error) {
	r, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("batchId", batchId).
		Get("/batch/statistics")
	if err := check(r, err, "batch statistics"); err != nil {
		return BatchStatistics{}, err
	}
	var stats BatchStatistics
	_ = stats.UnmarshalJSON(r.Body())
	return stats, nil
}

func (c *RestClient) RetryExternalTask(ctx context.Context, externalTaskId string, retries int) error {
	r, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", externalTaskId).
		SetBody(map[string]any{"retries": retries}).
		Put("/external-task/{id}/retries")
	return check(r, err, "retry external task "+externalTaskId)
}

func check(r *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !r.IsError() {
		return nil
	}
	apiErr := &APIError{StatusCode: r.StatusCode()}
	if body := r.Body(); len(body) > 0 {
		if sonic.Unmarshal(body, apiErr) != nil {
			apiErr.Message = truncate(string(body), 256)
		}
	}
	return fmt.Errorf("%s: %w", op, apiErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(" + strconv.Itoa(len(s)-n) + " more bytes)"
}
