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

package http

import (
	"github.com/gofiber/fiber/v2"
)

// ResponseErr is a business code with its default message.
type ResponseErr struct {
	Code int
	Msg  string
}

var (
	Success                       = ResponseErr{Code: 200, Msg: "success"}
	BadRequest                    = ResponseErr{Code: 400, Msg: "bad request"}
	RequestParameterParsingFailed = ResponseErr{Code: 400, Msg: "request parameter parsing failed"}
	NotFound                      = ResponseErr{Code: 404, Msg: "not found"}
	Failed                        = ResponseErr{Code: 500, Msg: "failed"}
	ServiceUnavailable            = ResponseErr{Code: 503, Msg: "service unavailable"}
)

// Response is the unified JSON envelope of every API reply.
type Response struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail any    `json:"detail,omitempty"`
	Path   string `json:"path,omitempty"`
}

// WithRepErrMsg replies with an error envelope. Codes in the HTTP status range
// double as the status line.
func WithRepErrMsg(c *fiber.Ctx, code int, msg string, path string) error {
	return c.Status(statusOf(code)).JSON(Response{Code: code, Msg: msg, Path: path})
}

// WithRepDetail replies success with detail.
func WithRepDetail(c *fiber.Ctx, detail any) error {
	return c.Status(fiber.StatusOK).JSON(Response{Code: Success.Code, Msg: Success.Msg, Detail: detail})
}

func statusOf(code int) int {
	if code >= 100 && code < 600 {
		return code
	}
	return fiber.StatusInternalServerError
}
