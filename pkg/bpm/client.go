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
	"fmt"
	"net/http"
	"strings"

	"github.com/google/wire"
)

// ProviderSet binds the REST client as the engine Client.
var ProviderSet = wire.NewSet(ProvideClient)

// ErrNotFound matches any engine response with status 404.
var ErrNotFound = errors.New("bpm: resource not found")

// Client is the subset of the workflow engine API the retry core depends on.
// Normal failures (not found, timeouts, rejected retries) are returned as
// errors, never as empty results.
type Client interface {
	ListIncidents(ctx context.Context, processInstanceId string) ([]Incident, error)
	ListFailedJobs(ctx context.Context, processInstanceId string) ([]Job, error)
	ListFailedExternalTasks(ctx context.Context, processInstanceId string) ([]ExternalTask, error)
	SubmitJobRetryBatch(ctx context.Context, jobIds []string, retries int) (*Batch, error)
	GetBatchStatistics(ctx context.Context, batchId string) (BatchStatistics, error)
	RetryExternalTask(ctx context.Context, externalTaskId string, retries int) error
}

// APIError is a non 2xx reply from the engine.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Type != "" {
		return fmt.Sprintf("bpm api error %d (%s): %s", e.StatusCode, e.Type, msg)
	}
	return fmt.Sprintf("bpm api error %d: %s", e.StatusCode, msg)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Config is the [engine] section.
type Config struct {
	BaseUrl        string            `mapstructure:"baseUrl"`
	TimeoutSeconds int               `mapstructure:"timeoutSeconds"`
	Headers        map[string]string `mapstructure:"headers"`
}

func (c *Config) SetDefaults() {
	if strings.TrimSpace(c.BaseUrl) == "" {
		c.BaseUrl = "http://localhost:8080/engine-rest"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
}

// ProvideClient builds the engine client from configuration.
func ProvideClient(conf *Config) (Client, error) {
	return NewRestClient(*conf)
}
