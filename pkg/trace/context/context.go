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

package context

import (
	"context"
	"sync"

	"github.com/timandy/routine"
	"go.opentelemetry.io/otel/trace"
)

const bucketCount = 64

type bucket struct {
	mu   sync.RWMutex
	data map[int64]context.Context
}

// goroutine-bound contexts, sharded by goroutine id to keep lock contention low.
var buckets [bucketCount]*bucket

func init() {
	for i := range buckets {
		buckets[i] = &bucket{data: make(map[int64]context.Context)}
	}
}

func current() (*bucket, int64) {
	goid := int64(routine.Goid())
	idx := goid % bucketCount
	if idx < 0 {
		idx = -idx
	}
	return buckets[idx], goid
}

// GetContext returns the context bound to the calling goroutine, or nil.
func GetContext() context.Context {
	b, goid := current()
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data[goid]
}

// SetContext binds ctx to the calling goroutine.
func SetContext(ctx context.Context) {
	b, goid := current()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[goid] = ctx
}

// ClearContext removes the binding of the calling goroutine.
func ClearContext() {
	b, goid := current()
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, goid)
}

// RunWithContext binds ctx for the duration of fn.
func RunWithContext(ctx context.Context, fn func(ctx context.Context)) {
	SetContext(ctx)
	defer ClearContext()
	fn(ctx)
}

// WithSpan copies the goroutine-bound span into ctx when ctx carries none.
func WithSpan(ctx context.Context) context.Context {
	if trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx
	}
	bound := GetContext()
	if bound == nil {
		return ctx
	}
	if span := trace.SpanFromContext(bound); span.SpanContext().IsValid() {
		return trace.ContextWithSpan(ctx, span)
	}
	return ctx
}
