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

//go:build wireinject
// +build wireinject

package main

import (
	"github.com/arcentrix/arcentra-retry/internal/engine/bootstrap"
	"github.com/arcentrix/arcentra-retry/internal/engine/config"
	"github.com/arcentrix/arcentra-retry/internal/engine/repo"
	"github.com/arcentrix/arcentra-retry/internal/engine/router"
	"github.com/arcentrix/arcentra-retry/internal/engine/service"
	"github.com/arcentrix/arcentra-retry/pkg/bpm"
	"github.com/arcentrix/arcentra-retry/pkg/cache"
	"github.com/arcentrix/arcentra-retry/pkg/database"
	"github.com/arcentrix/arcentra-retry/pkg/logger"
	"github.com/arcentrix/arcentra-retry/pkg/metrics"
	"github.com/arcentrix/arcentra-retry/pkg/shutdown"
	"github.com/google/wire"
)

func initApp(configPath string) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		config.ProviderSet,
		logger.ProviderSet,
		database.ProviderSet,
		cache.ProviderSet,
		metrics.ProviderSet,
		repo.ProviderSet,
		bpm.ProviderSet,
		service.ProviderSet,
		shutdown.ProviderSet,
		router.ProviderSet,
		bootstrap.NewApp,
	))
}
