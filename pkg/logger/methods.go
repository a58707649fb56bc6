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

package logger

import (
	"context"
	"fmt"
	"log/slog"
)

func (l *Logger) Info(args ...any) {
	l.Logger.Log(defaultContext(), slog.LevelInfo, fmt.Sprint(args...))
}

func (l *Logger) Infow(msg string, keysAndValues ...any) {
	l.Logger.Log(defaultContext(), slog.LevelInfo, msg, keysAndValues...)
}

func (l *Logger) Debugw(msg string, keysAndValues ...any) {
	l.Logger.Log(defaultContext(), slog.LevelDebug, msg, keysAndValues...)
}

func (l *Logger) Warnw(msg string, keysAndValues ...any) {
	l.Logger.Log(defaultContext(), slog.LevelWarn, msg, keysAndValues...)
}

func (l *Logger) Errorw(msg string, keysAndValues ...any) {
	l.Logger.Log(defaultContext(), slog.LevelError, msg, keysAndValues...)
}

// Info logs at info level on the global logger.
func Info(args ...any) {
	GetLogger().Log(defaultContext(), slog.LevelInfo, fmt.Sprint(args...))
}

// Infow logs a structured message at info level.
func Infow(msg string, keysAndValues ...any) {
	GetLogger().Log(defaultContext(), slog.LevelInfo, msg, keysAndValues...)
}

// InfoContext logs a structured message at info level with ctx.
func InfoContext(ctx context.Context, msg string, keysAndValues ...any) {
	GetLogger().Log(ctx, slog.LevelInfo, msg, keysAndValues...)
}

// Debugw logs a structured message at debug level.
func Debugw(msg string, keysAndValues ...any) {
	GetLogger().Log(defaultContext(), slog.LevelDebug, msg, keysAndValues...)
}

// DebugContext logs a structured message at debug level with ctx.
func DebugContext(ctx context.Context, msg string, keysAndValues ...any) {
	GetLogger().Log(ctx, slog.LevelDebug, msg, keysAndValues...)
}

// Warnw logs a structured message at warn level.
func Warnw(msg string, keysAndValues ...any) {
	GetLogger().Log(defaultContext(), slog.LevelWarn, msg, keysAndValues...)
}

// WarnContext logs a structured message at warn level with ctx.
func WarnContext(ctx context.Context, msg string, keysAndValues ...any) {
	GetLogger().Log(ctx, slog.LevelWarn, msg, keysAndValues...)
}

// Error logs at error level on the global logger.
func Error(args ...any) {
	GetLogger().Log(defaultContext(), slog.LevelError, fmt.Sprint(args...))
}

// Errorw logs a structured message at error level.
func Errorw(msg string, keysAndValues ...any) {
	GetLogger().Log(defaultContext(), slog.LevelError, msg, keysAndValues...)
}

// ErrorContext logs a structured message at error level with ctx.
func ErrorContext(ctx context.Context, msg string, keysAndValues ...any) {
	GetLogger().Log(ctx, slog.LevelError, msg, keysAndValues...)
}
