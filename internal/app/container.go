// Package app provides application initialization, lifecycle management,
// and dependency injection for gauntlet.
package app

import (
	"sync"

	"github.com/tungetti/gauntlet/internal/config"
	"github.com/tungetti/gauntlet/internal/engine"
	"github.com/tungetti/gauntlet/internal/errors"
	"github.com/tungetti/gauntlet/internal/logging"
	"github.com/tungetti/gauntlet/internal/metrics"
)

// Container holds all application dependencies.
// It provides thread-safe access to shared components and ensures
// proper initialization order during application startup.
type Container struct {
	mu      sync.RWMutex
	Config  *config.Config
	Logger  logging.Logger
	Engine  *engine.Engine
	Metrics *metrics.Recorder
}

// NewContainer creates a new dependency container.
func NewContainer() *Container {
	return &Container{}
}

// SetConfig sets the configuration.
func (c *Container) SetConfig(cfg *config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Config = cfg
}

// SetLogger sets the logger.
func (c *Container) SetLogger(l logging.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Logger = l
}

// SetEngine sets the lifecycle engine.
func (c *Container) SetEngine(en *engine.Engine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Engine = en
}

// SetMetrics sets the metrics recorder.
func (c *Container) SetMetrics(m *metrics.Recorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Metrics = m
}

// GetConfig returns the configuration.
func (c *Container) GetConfig() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Config
}

// GetLogger returns the logger.
func (c *Container) GetLogger() logging.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Logger
}

// GetEngine returns the lifecycle engine.
func (c *Container) GetEngine() *engine.Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Engine
}

// GetMetrics returns the metrics recorder.
func (c *Container) GetMetrics() *metrics.Recorder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Metrics
}

// Validate checks that all required dependencies are set.
// Metrics are optional.
func (c *Container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.Config == nil {
		return errors.New(errors.Configuration, "config not initialized")
	}
	if c.Logger == nil {
		return errors.New(errors.Configuration, "logger not initialized")
	}
	if c.Engine == nil {
		return errors.New(errors.Configuration, "engine not initialized")
	}
	return nil
}
