package spackle

import (
	"go.uber.org/zap"
)

// Scope is the evaluation context handed to plugins during Parse.
// It replaces any notion of a process-wide "current engine": everything a
// plugin may need is reached through it.
type Scope struct {
	engine *Engine
}

func newScope(e *Engine) *Scope {
	return &Scope{engine: e}
}

// Engine returns the engine being parsed.
func (s *Scope) Engine() *Engine {
	return s.engine
}

// Bound returns the engine's bound object, or nil.
func (s *Scope) Bound() any {
	return s.engine.bound
}

// Self returns the bound object if one is set, otherwise the engine.
func (s *Scope) Self() any {
	if s.engine.bound != nil {
		return s.engine.bound
	}
	return s.engine
}

// Definition returns the substitution definition stored at index.
func (s *Scope) Definition(index int) (any, bool) {
	return s.engine.definitions.Get(index)
}

// Substitution returns the resolved value of a substitution: callables are
// invoked with Self. Returns false if the name is not set or the callable panics.
func (s *Scope) Substitution(name string) (value any, ok bool) {
	raw, exists := s.engine.substitutions[name]
	if !exists {
		return nil, false
	}
	defer func() {
		if r := recover(); r != nil {
			value, ok = nil, false
		}
	}()
	return callValue(raw, s.Self()), true
}

// Logger returns the engine's logger.
func (s *Scope) Logger() *zap.Logger {
	return s.engine.logger
}

// Storage returns the engine's template storage, or nil.
func (s *Scope) Storage() TemplateStorage {
	return s.engine.config.storage
}

// Depth returns how deeply the engine is nested in includes (0 at the top).
func (s *Scope) Depth() int {
	return s.engine.config.includeDepth
}
