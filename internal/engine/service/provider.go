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

package service

import (
	"github.com/arcentrix/arcentra-retry/internal/engine/repo"
	"github.com/arcentrix/arcentra-retry/internal/pkg/retry"
	"github.com/arcentrix/arcentra-retry/pkg/bpm"
	"github.com/arcentrix/arcentra-retry/pkg/cache"
	"github.com/arcentrix/arcentra-retry/pkg/logger"
	"github.com/arcentrix/arcentra-retry/pkg/metrics"
	"github.com/google/wire"
)

// ProviderSet provides the service layer.
var ProviderSet = wire.NewSet(
	ProvideServices,
)

// Services groups the services exposed to the routes.
type Services struct {
	Retry *RetryService
}

// ProvideServices builds the services and registers the retry collectors on
// the metrics registry.
func ProvideServices(
	repos *repo.Repositories,
	c cache.ICache,
	client bpm.Client,
	conf *retry.Config,
	metricsServer *metrics.Server,
) *Services {
	if err := retry.RegisterMetrics(metricsServer.GetRegistry()); err != nil {
		logger.Warnw("failed to register retry metrics", "error", err)
	}
	return &Services{
		Retry: NewRetryService(repos.RetryRun, c, client, *conf),
	}
}
