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

package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arcentrix/arcentra-retry/internal/engine/config"
	"github.com/arcentrix/arcentra-retry/internal/engine/repo"
	"github.com/arcentrix/arcentra-retry/internal/engine/router"
	"github.com/arcentrix/arcentra-retry/internal/engine/service"
	"github.com/arcentrix/arcentra-retry/pkg/logger"
	"github.com/arcentrix/arcentra-retry/pkg/metrics"
	"github.com/arcentrix/arcentra-retry/pkg/safe"
	"github.com/arcentrix/arcentra-retry/pkg/shutdown"
	"github.com/arcentrix/arcentra-retry/pkg/trace"
	"github.com/gofiber/fiber/v2"
)

type App struct {
	HttpApp       *fiber.App
	MetricsServer *metrics.Server
	Logger        *logger.Logger
	AppConf       *config.AppConfig
	Repos         *repo.Repositories
	Services      *service.Services
	ShutdownMgr   *shutdown.Manager
}

// InitAppFunc builds the App from a config file path.
type InitAppFunc func(configPath string) (*App, func(), error)

func NewApp(
	rt *router.Router,
	log *logger.Logger,
	metricsServer *metrics.Server,
	appConf *config.AppConfig,
	repos *repo.Repositories,
	services *service.Services,
	shutdownMgr *shutdown.Manager,
) (*App, func(), error) {
	app := &App{
		HttpApp:       rt.Router(),
		MetricsServer: metricsServer,
		Logger:        log,
		AppConf:       appConf,
		Repos:         repos,
		Services:      services,
		ShutdownMgr:   shutdownMgr,
	}

	cleanup := func() {
		if metricsServer != nil {
			logger.Info("shutting down metrics server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Stop(shutdownCtx); err != nil {
				logger.Errorw("failed to stop metrics server", "error", err)
			}
		}

		logger.Info("shutting down OpenTelemetry tracing...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := trace.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("failed to shutdown OpenTelemetry tracing", "error", err)
		}
	}

	return app, cleanup, nil
}

// Bootstrap builds the App and initializes tracing before anything runs.
func Bootstrap(configFile string, initApp InitAppFunc) (*App, func(), *config.AppConfig, error) {
	app, cleanup, err := initApp(configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	appConf := app.AppConf

	if err := trace.Init(appConf.Trace); err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, nil, nil, fmt.Errorf("failed to initialize OpenTelemetry tracing: %w", err)
	}
	return app, cleanup, appConf, nil
}

// Run recovers runs orphaned by a previous process, serves until a signal
// arrives, then drains: HTTP first, then in-flight retry runs, then the rest.
func Run(app *App, cleanup func()) {
	appConf := app.AppConf

	if app.MetricsServer != nil {
		if err := app.MetricsServer.Start(); err != nil {
			logger.Errorw("metrics server failed", "error", err)
		}
	}

	recoverCtx, recoverCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := app.Services.Retry.RecoverInterrupted(recoverCtx); err != nil {
		logger.Errorw("failed to recover interrupted retry runs", "error", err)
	}
	recoverCancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	safe.Go(func() {
		addr := appConf.Http.Addr()
		logger.Infow("HTTP listener started", "address", addr)
		if err := app.HttpApp.Listen(addr); err != nil {
			logger.Errorw("HTTP listener failed", "address", addr, "error", err)
		}
	})

	select {
	case sig := <-quit:
		logger.Infow("received OS signal, shutting down gracefully...", "signal", sig.String())
		app.ShutdownMgr.Shutdown()
	case <-app.ShutdownMgr.Wait():
		logger.Info("shutdown requested, shutting down gracefully...")
	}

	timeout := time.Duration(appConf.Http.ShutdownTimeout) * time.Second
	httpCtx, httpCancel := context.WithTimeout(context.Background(), timeout)
	defer httpCancel()
	if err := app.HttpApp.ShutdownWithContext(httpCtx); err != nil {
		logger.Errorw("HTTP server shutdown error", "error", err)
	} else {
		logger.Info("HTTP server shut down gracefully")
	}

	runsCtx, runsCancel := context.WithTimeout(context.Background(), timeout)
	defer runsCancel()
	if err := app.Services.Retry.Shutdown(runsCtx); err != nil {
		logger.Errorw("retry runs did not stop in time", "error", err)
	} else {
		logger.Info("retry runs stopped")
	}

	cleanup()
	logger.Info("server shutdown complete")
}
