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
	"errors"

	"github.com/arcentrix/arcentra-retry/pkg/http"
	"github.com/gofiber/fiber/v2"
)

// UnifiedResponseMiddleware wraps c.Locals(DETAIL) into the success envelope
// when the handler returned nil without writing a body.
func UnifiedResponseMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		if len(c.Response().Body()) > 0 {
			return nil
		}
		detail := c.Locals(DETAIL)
		if detail == nil {
			detail = c.Locals(OPERATION)
		}
		return http.WithRepDetail(c, detail)
	}
}

// ErrorHandler renders errors escaping handlers as the error envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := http.Failed.Code
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return http.WithRepErrMsg(c, code, err.Error(), c.Path())
}
