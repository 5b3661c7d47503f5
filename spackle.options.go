package spackle

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	errorStrategy ErrorStrategy
	logger        *zap.Logger
	plugins       []Plugin
	storage       TemplateStorage
	includeDepth  int
	hooks         *HookRegistry
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		errorStrategy: ErrorStrategyLog,
		logger:        nil,
	}
}

// WithErrorStrategy sets how resolution errors are handled.
// Default: ErrorStrategyLog
func WithErrorStrategy(strategy ErrorStrategy) Option {
	return func(c *engineConfig) {
		c.errorStrategy = strategy
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithPlugins registers instance-local plugins at construction.
// Plugins that fail registration are logged and skipped; use AddPlugin to
// observe the error.
func WithPlugins(plugins ...Plugin) Option {
	return func(c *engineConfig) {
		c.plugins = append(c.plugins, plugins...)
	}
}

// WithStorage sets the template storage consulted by the include plugin.
func WithStorage(storage TemplateStorage) Option {
	return func(c *engineConfig) {
		c.storage = storage
	}
}

// WithHooks attaches parse lifecycle hooks. Included templates share them.
func WithHooks(hooks *HookRegistry) Option {
	return func(c *engineConfig) {
		c.hooks = hooks
	}
}

// withIncludeDepth records how deeply this engine is nested in includes.
func withIncludeDepth(depth int) Option {
	return func(c *engineConfig) {
		c.includeDepth = depth
	}
}
