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
	"errors"
	"strings"

	"github.com/arcentrix/arcentra-retry/internal/engine/service"
	"github.com/arcentrix/arcentra-retry/internal/pkg/retry"
	"github.com/arcentrix/arcentra-retry/pkg/http"
	"github.com/arcentrix/arcentra-retry/pkg/http/middleware"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) retryRunRouter(r fiber.Router) {
	runs := r.Group("/retry-runs")
	{
		runs.Post("/", rt.startRetryRun)
		runs.Get("/", rt.listRetryRuns)
		runs.Get("/:runId", rt.getRetryRun)
	}
}

func (rt *Router) startRetryRun(c *fiber.Ctx) error {
	var req struct {
		ProcessInstanceIds []string `json:"processInstanceIds"`
	}
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErrMsg(c, http.RequestParameterParsingFailed.Code, http.RequestParameterParsingFailed.Msg, c.Path())
	}
	runId, err := rt.retryService().StartRetryRun(c.UserContext(), req.ProcessInstanceIds)
	if err != nil {
		return rt.serviceError(c, err)
	}
	c.Locals(middleware.DETAIL, fiber.Map{"runId": runId})
	return nil
}

func (rt *Router) getRetryRun(c *fiber.Ctx) error {
	runId := strings.TrimSpace(c.Params("runId"))
	if runId == "" {
		return http.WithRepErrMsg(c, http.BadRequest.Code, "run id is required", c.Path())
	}
	run, err := rt.retryService().GetRunProgress(c.UserContext(), runId)
	if err != nil {
		return rt.serviceError(c, err)
	}
	c.Locals(middleware.DETAIL, run)
	return nil
}

func (rt *Router) listRetryRuns(c *fiber.Ctx) error {
	page := max(http.QueryInt(c, "page", 1), 1)
	pageSize := max(http.QueryInt(c, "pageSize", 20), 1)
	list, total, err := rt.retryService().ListRuns(c.UserContext(), c.Query("status"), page, pageSize)
	if err != nil {
		return rt.serviceError(c, err)
	}
	c.Locals(middleware.DETAIL, fiber.Map{
		"list":     list,
		"total":    total,
		"page":     page,
		"pageSize": min(pageSize, 100),
	})
	return nil
}

func (rt *Router) serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return http.WithRepErrMsg(c, http.BadRequest.Code, err.Error(), c.Path())
	case errors.Is(err, retry.ErrRunNotFound):
		return http.WithRepErrMsg(c, http.NotFound.Code, err.Error(), c.Path())
	case errors.Is(err, retry.ErrShuttingDown):
		return http.WithRepErrMsg(c, http.ServiceUnavailable.Code, err.Error(), c.Path())
	default:
		return http.WithRepErrMsg(c, http.Failed.Code, err.Error(), c.Path())
	}
}
