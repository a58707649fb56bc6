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

package middleware

import (
	"time"

	"github.com/arcentrix/arcentra-retry/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

const slowRequest = 300 * time.Millisecond

// AccessLogMiddleware logs failed or slow requests; with all set it logs
// every request at debug level too.
func AccessLogMiddleware(all bool) fiber.Handler {
	log := logger.Channel("access")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)
		status := c.Response().StatusCode()

		fields := []any{
			"requestId", c.Locals(REQUEST_ID),
			"ip", c.IP(),
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", latency,
		}
		switch {
		case err != nil || status >= 500:
			log.Errorw("http access", append(fields, "error", err)...)
		case status >= 400 || latency >= slowRequest:
			log.Warnw("http access", fields...)
		case all:
			log.Debugw("http access", fields...)
		}
		return err
	}
}
