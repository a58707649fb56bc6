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
	"fmt"
	"sync"

	"github.com/arcentrix/arcentra-retry/internal/pkg/retry"
	"github.com/arcentrix/arcentra-retry/pkg/bpm"
	"github.com/arcentrix/arcentra-retry/pkg/cache"
	"github.com/arcentrix/arcentra-retry/pkg/database"
	"github.com/arcentrix/arcentra-retry/pkg/http"
	"github.com/arcentrix/arcentra-retry/pkg/logger"
	"github.com/arcentrix/arcentra-retry/pkg/metrics"
	"github.com/arcentrix/arcentra-retry/pkg/trace"
	"github.com/fsnotify/fsnotify"
	"github.com/google/wire"
	"github.com/spf13/viper"
)

// ProviderSet exposes the loaded config and each of its sections.
var ProviderSet = wire.NewSet(
	ProvideConf,
	ProvideLogConf,
	ProvideHttpConf,
	ProvideDatabaseConf,
	ProvideRedisConf,
	ProvideMetricsConf,
	ProvideTraceConf,
	ProvideEngineConf,
	ProvideRetryConf,
)

type AppConfig struct {
	Log      logger.Conf           `mapstructure:"log"`
	Http     http.Http             `mapstructure:"http"`
	Database database.Database     `mapstructure:"database"`
	Redis    cache.Redis           `mapstructure:"redis"`
	Metrics  metrics.MetricsConfig `mapstructure:"metrics"`
	Trace    trace.TraceConfig     `mapstructure:"trace"`
	Engine   bpm.Config            `mapstructure:"engine"`
	Retry    retry.Config          `mapstructure:"retry"`
}

// SetDefaults fills every section. It runs after the initial load and after
// each reload.
func (c *AppConfig) SetDefaults() {
	c.Log.SetDefaults()
	c.Http.SetDefaults()
	c.Database.SetDefaults()
	c.Redis.SetDefaults()
	c.Metrics.SetDefaults()
	c.Trace.SetDefaults()
	c.Engine.SetDefaults()
	c.Retry.SetDefaults()
}

var (
	cfg AppConfig
	mu  sync.RWMutex
)

// ProvideConf loads the config file once per process.
func ProvideConf(confFile string) (*AppConfig, error) {
	loaded, err := LoadConfigFile(confFile)
	if err != nil {
		return nil, err
	}
	return &loaded, nil
}

// GetConfig returns the current config, reflecting hot reloads.
func GetConfig() AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// LoadConfigFile reads the TOML file and watches it for changes. Components
// built from the returned value keep their settings until restart; GetConfig
// sees reloads.
func LoadConfigFile(confFile string) (AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(confFile)
	// zero means unbounded for this key, so the bound is set before the file is read
	v.SetDefault("retry.maxPollWaitSeconds", retry.DefaultConfig().MaxPollWaitSeconds)
	if err := v.ReadInConfig(); err != nil {
		return AppConfig{}, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var loaded AppConfig
	if err := v.Unmarshal(&loaded); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal configuration file: %w", err)
	}
	loaded.SetDefaults()
	if err := loaded.Log.Validate(); err != nil {
		return AppConfig{}, err
	}

	mu.Lock()
	cfg = loaded
	mu.Unlock()

	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Infow("configuration changed, reloading", "file", e.Name)
		var next AppConfig
		if err := v.Unmarshal(&next); err != nil {
			logger.Errorw("failed to unmarshal configuration file", "error", err, "file", e.Name)
			return
		}
		next.SetDefaults()
		mu.Lock()
		cfg = next
		mu.Unlock()
		logger.Infow("configuration reloaded", "file", e.Name)
	})
	v.WatchConfig()

	logger.Infow("config file loaded", "path", confFile)
	return loaded, nil
}

func ProvideLogConf(c *AppConfig) *logger.Conf { return &c.Log }

func ProvideHttpConf(c *AppConfig) *http.Http { return &c.Http }

func ProvideDatabaseConf(c *AppConfig) *database.Database { return &c.Database }

func ProvideRedisConf(c *AppConfig) *cache.Redis { return &c.Redis }

func ProvideMetricsConf(c *AppConfig) *metrics.MetricsConfig { return &c.Metrics }

func ProvideTraceConf(c *AppConfig) *trace.TraceConfig { return &c.Trace }

func ProvideEngineConf(c *AppConfig) *bpm.Config { return &c.Engine }

func ProvideRetryConf(c *AppConfig) *retry.Config { return &c.Retry }
