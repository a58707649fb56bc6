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

package safe

import (
	"fmt"
	"runtime/debug"

	"github.com/arcentrix/arcentra-retry/pkg/logger"
)

// Go runs fn in a new goroutine and logs instead of crashing on panic.
func Go(fn func()) {
	go func() {
		defer Recover("goroutine")
		fn()
	}()
}

// Recover logs a recovered panic together with its stack. Use it via defer.
func Recover(where string) {
	if r := recover(); r != nil {
		logger.Errorw("recovered from panic", "where", where, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
	}
}

// PanicError is a recovered panic turned into an error by Try.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Try calls fn and converts a panic into a *PanicError.
func Try(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
