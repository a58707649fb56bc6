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

import "time"

const (
	defaultConcurrency        = 10
	defaultPollIntervalMs     = 2000
	defaultMaxPollWaitSeconds = 3600

	// jobRetries is the retry count set on every resubmitted job: one more attempt.
	jobRetries = 1
	// externalTaskRetries is the retry count set on every retried external task.
	externalTaskRetries = 1
)

// Config is the [retry] section.
type Config struct {
	// Concurrency is the external task wave size.
	Concurrency int `mapstructure:"concurrency"`
	// PollIntervalMs is the pause before each batch statistics poll.
	PollIntervalMs int `mapstructure:"pollIntervalMs"`
	// MaxPollWaitSeconds bounds the time spent monitoring one batch. 0 disables it.
	MaxPollWaitSeconds int `mapstructure:"maxPollWaitSeconds"`
	// MaxPolls bounds the number of polls of one batch. 0 disables it.
	MaxPolls int `mapstructure:"maxPolls"`
	// DiscoveryConcurrency limits instances queried at once. 0 queries all.
	DiscoveryConcurrency int `mapstructure:"discoveryConcurrency"`
}

func (c *Config) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = defaultPollIntervalMs
	}
	if c.MaxPollWaitSeconds < 0 {
		c.MaxPollWaitSeconds = 0
	}
	if c.MaxPolls < 0 {
		c.MaxPolls = 0
	}
	if c.DiscoveryConcurrency < 0 {
		c.DiscoveryConcurrency = 0
	}
}

// DefaultConfig returns the configuration used when the section is absent.
func DefaultConfig() Config {
	c := Config{MaxPollWaitSeconds: defaultMaxPollWaitSeconds}
	c.SetDefaults()
	return c
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c Config) MaxPollWait() time.Duration {
	return time.Duration(c.MaxPollWaitSeconds) * time.Second
}
