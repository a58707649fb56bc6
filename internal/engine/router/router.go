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

package router

import (
	"time"

	"github.com/arcentrix/arcentra-retry/internal/engine/service"
	"github.com/arcentrix/arcentra-retry/pkg/http"
	"github.com/arcentrix/arcentra-retry/pkg/http/middleware"
	"github.com/arcentrix/arcentra-retry/pkg/shutdown"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/wire"
)

// ProviderSet provides the HTTP router.
var ProviderSet = wire.NewSet(NewRouter)

type Router struct {
	Http        *http.Http
	Services    *service.Services
	ShutdownMgr *shutdown.Manager
}

func NewRouter(httpConf *http.Http, services *service.Services, shutdownMgr *shutdown.Manager) *Router {
	return &Router{Http: httpConf, Services: services, ShutdownMgr: shutdownMgr}
}

// Router builds the fiber app with the middleware chain and every route.
func (rt *Router) Router() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "arcentra-retry",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		BodyLimit:             rt.Http.BodyLimit,
		ReadTimeout:           time.Duration(rt.Http.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(rt.Http.WriteTimeout) * time.Second,
		IdleTimeout:           time.Duration(rt.Http.IdleTimeout) * time.Second,
	})

	app.Use(
		middleware.RequestIdMiddleware(),
		middleware.CorsMiddleware(),
		middleware.HttpMetricsMiddleware(),
		middleware.AccessLogMiddleware(rt.Http.AccessLog),
	)
	app.Get("/health", rt.health)

	api := app.Group("/api/v1", middleware.UnifiedResponseMiddleware())
	rt.retryRunRouter(api)
	return app
}

func (rt *Router) health(c *fiber.Ctx) error {
	if rt.ShutdownMgr != nil && rt.ShutdownMgr.IsShuttingDown() {
		return http.WithRepErrMsg(c, http.ServiceUnavailable.Code, "shutting down", c.Path())
	}
	return http.WithRepDetail(c, fiber.Map{"status": "ok"})
}

func (rt *Router) retryService() *service.RetryService {
	return rt.Services.Retry
}
