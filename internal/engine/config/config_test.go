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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arcentrix/arcentra-retry/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFileAppliesDefaults(t *testing.T) {
	path := writeConf(t, `
[http]
port = 9000

[engine]
baseUrl = "http://camunda:8080/engine-rest"
headers = { X-Tenant = "acme" }

[retry]
concurrency = 4
`)
	c, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, c.Http.Port)
	assert.Equal(t, "http://camunda:8080/engine-rest", c.Engine.BaseUrl)
	assert.Equal(t, 30, c.Engine.TimeoutSeconds)
	assert.Equal(t, "acme", c.Engine.Headers["x-tenant"])
	assert.Equal(t, 4, c.Retry.Concurrency)
	assert.Equal(t, 2000, c.Retry.PollIntervalMs)
	assert.Equal(t, 3600, c.Retry.MaxPollWaitSeconds)
	assert.Equal(t, database.DriverSqlite, c.Database.Driver)
	assert.Equal(t, 9090, c.Metrics.Port)
	assert.Equal(t, "INFO", c.Log.Level)
	assert.Equal(t, c, GetConfig())
}

func TestLoadConfigFileErrors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadConfigFile(writeConf(t, "[log]\noutput = \"syslog\"\n"))
	assert.Error(t, err)
}

func TestSampleConfigLoads(t *testing.T) {
	c, err := ProvideConf(filepath.Join("..", "..", "..", "conf.d", "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, 10, c.Retry.Concurrency)
	assert.Equal(t, 3600, c.Retry.MaxPollWaitSeconds)
	assert.Equal(t, &c.Retry, ProvideRetryConf(c))
	assert.False(t, c.Redis.Enabled())
}
