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
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/wire"
)

// ProviderSet is the Wire provider set for the logger package.
var ProviderSet = wire.NewSet(ProvideLogger)

const (
	OutputStdout = "stdout"
	OutputFile   = "file"
)

// Conf defines logger configuration.
type Conf struct {
	Output     string `mapstructure:"output"`
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	Level      string `mapstructure:"level"`
	KeepDays   int    `mapstructure:"keepDays"`
	RotateSize int    `mapstructure:"rotateSize"`
	RotateNum  int    `mapstructure:"rotateNum"`
}

// SetDefaults fills unset fields.
func (c *Conf) SetDefaults() {
	if c.Output == "" {
		c.Output = OutputStdout
	}
	if c.Level == "" {
		c.Level = "INFO"
	}
	if c.Filename == "" {
		c.Filename = "retry.log"
	}
	if c.RotateSize <= 0 {
		c.RotateSize = 100
	}
	if c.RotateNum <= 0 {
		c.RotateNum = 10
	}
	if c.KeepDays <= 0 {
		c.KeepDays = 7
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Conf) Validate() error {
	if c == nil {
		return fmt.Errorf("logger config is nil")
	}
	switch c.Output {
	case OutputStdout:
	case OutputFile:
		if c.Path == "" {
			return fmt.Errorf("log path is required when output is %q", OutputFile)
		}
	default:
		return fmt.Errorf("unknown log output %q", c.Output)
	}
	return nil
}

// Logger wraps slog.Logger for dependency injection.
type Logger struct {
	*slog.Logger
}

var (
	mu       sync.RWMutex
	global   *slog.Logger
	channels = map[string]*Logger{}
)

// ProvideLogger builds the process logger and installs it as the global one.
func ProvideLogger(conf *Conf) (*Logger, error) {
	l, err := New(conf)
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: l}, nil
}

// New builds a logger from conf and replaces the global logger with it.
func New(conf *Conf) (*slog.Logger, error) {
	if conf == nil {
		conf = &Conf{}
	}
	l, err := build(conf)
	if err != nil {
		return nil, err
	}
	mu.Lock()
	global = l
	channels = map[string]*Logger{}
	mu.Unlock()
	l.Debug("logger initialized", "output", conf.Output, "level", conf.Level)
	return l, nil
}

// MustInit initializes the global logger and panics on failure.
func MustInit(conf *Conf) {
	if _, err := New(conf); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func build(conf *Conf) (*slog.Logger, error) {
	conf.SetDefaults()
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}
	out, err := writer(conf)
	if err != nil {
		return nil, err
	}
	return NewWithWriter(out, conf.Level), nil
}

// NewWithWriter builds a trace-aware text logger writing to w.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.Format("2006-01-02 15:04:05.000"))
				}
			}
			return a
		},
	}
	return slog.New(newTraceHandler(slog.NewTextHandler(w, opts)))
}

func writer(conf *Conf) (io.Writer, error) {
	if conf.Output == OutputFile {
		return fileWriter(conf)
	}
	return os.Stdout, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLogger returns the global logger, creating a stdout logger on first use.
func GetLogger() *slog.Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		global = NewWithWriter(os.Stdout, "INFO")
	}
	return global
}

// Channel returns a logger tagged with channel=name, derived from the global logger.
func Channel(name string) *Logger {
	name = strings.TrimSpace(name)
	mu.RLock()
	l, ok := channels[name]
	mu.RUnlock()
	if ok {
		return l
	}
	l = &Logger{Logger: GetLogger().With("channel", name)}
	mu.Lock()
	channels[name] = l
	mu.Unlock()
	return l
}

// defaultContext returns the goroutine-bound context so global calls keep trace ids.
func defaultContext() context.Context {
	if ctx := boundContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
