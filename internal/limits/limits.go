// Package limits enforces per-run call-count ceilings. The counters are a
// safety valve against runaway repeated invocation: breaching one is a
// governance fault that terminates the run, not a business outcome.
package limits

import (
	"errors"
	"fmt"
)

// ErrLimitExceeded is returned when a counter breaches its ceiling.
// Callers branch on it with errors.Is.
var ErrLimitExceeded = errors.New("call limit exceeded")

// Config defines the ceilings. Zero values fall back to defaults.
type Config struct {
	MaxToolCalls  int `yaml:"max_tool_calls"`
	MaxModelCalls int `yaml:"max_model_calls"`
}

// Default ceilings.
const (
	DefaultMaxToolCalls  = 10
	DefaultMaxModelCalls = 5
)

// DefaultConfig returns the built-in ceilings.
func DefaultConfig() Config {
	return Config{
		MaxToolCalls:  DefaultMaxToolCalls,
		MaxModelCalls: DefaultMaxModelCalls,
	}
}

// normalized fills zero fields with defaults.
func (c Config) normalized() Config {
	if c.MaxToolCalls <= 0 {
		c.MaxToolCalls = DefaultMaxToolCalls
	}
	if c.MaxModelCalls <= 0 {
		c.MaxModelCalls = DefaultMaxModelCalls
	}
	return c
}

// Tracker counts one run's tool and model calls. Counters are monotonic
// and checked after each increment; they are never reset mid-run.
type Tracker struct {
	cfg        Config
	toolCalls  int
	modelCalls int
}

// NewTracker builds a per-run tracker.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg.normalized()}
}

// RecordToolCall increments the tool counter and checks the ceiling.
func (t *Tracker) RecordToolCall() error {
	t.toolCalls++
	if t.toolCalls > t.cfg.MaxToolCalls {
		return fmt.Errorf("%w: %d tool calls over ceiling %d", ErrLimitExceeded, t.toolCalls, t.cfg.MaxToolCalls)
	}
	return nil
}

// RecordModelCall increments the model counter and checks the ceiling.
func (t *Tracker) RecordModelCall() error {
	t.modelCalls++
	if t.modelCalls > t.cfg.MaxModelCalls {
		return fmt.Errorf("%w: %d model calls over ceiling %d", ErrLimitExceeded, t.modelCalls, t.cfg.MaxModelCalls)
	}
	return nil
}

// ToolCalls returns the current tool-call count.
func (t *Tracker) ToolCalls() int { return t.toolCalls }

// ModelCalls returns the current model-call count.
func (t *Tracker) ModelCalls() int { return t.modelCalls }
