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
	"strings"

	"github.com/arcentrix/arcentra-retry/pkg/id"
	"github.com/gofiber/fiber/v2"
)

// Locals keys shared between handlers and middleware.
const (
	REQUEST_ID = "requestId"
	DETAIL     = "detail"
	OPERATION  = "operation"
)

const requestIdHeader = "X-Request-Id"

// RequestIdMiddleware keeps a caller supplied X-Request-Id or assigns a uuid.
func RequestIdMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := strings.TrimSpace(c.Get(requestIdHeader))
		if rid == "" || len(rid) > 128 {
			rid = id.UUID()
		}
		c.Locals(REQUEST_ID, rid)
		c.Set(requestIdHeader, rid)
		return c.Next()
	}
}
