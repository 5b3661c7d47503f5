package spackle

import (
	"context"
)

// IncludePlugin renders {{include name include}} by parsing the named stored
// template in a child engine.
//
// The child sees the stored template's substitutions overridden by the
// including engine's, the same bound object, error strategy, logger, storage
// local plugins and hooks. Includes nest up to IncludeMaxDepth levels.
type IncludePlugin struct{}

// NewIncludePlugin creates an IncludePlugin.
func NewIncludePlugin() *IncludePlugin {
	return &IncludePlugin{}
}

// Key returns PluginKeyInclude.
func (p *IncludePlugin) Key() string {
	return PluginKeyInclude
}

// Parse loads and renders the template named in payload.
func (p *IncludePlugin) Parse(ctx context.Context, scope *Scope, payload string) (any, error) {
	storage := scope.Storage()
	if storage == nil {
		return nil, NewIncludeNoStorageError(payload)
	}
	depth := scope.Depth() + 1
	if depth > IncludeMaxDepth {
		return nil, NewIncludeDepthError(payload, depth)
	}

	parent := scope.Engine()
	opts := []Option{
		WithErrorStrategy(parent.config.errorStrategy),
		WithLogger(parent.logger),
		WithPlugins(parent.localPlugins()...),
		WithHooks(parent.config.hooks),
		withIncludeDepth(depth),
	}
	child, err := NewFromStorage(ctx, storage, payload, parent.substitutions, opts...)
	if err != nil {
		return nil, err
	}
	if parent.bound != nil {
		child.BindTo(parent.bound)
	}
	return child.Parse(ctx)
}
