package spackle

import (
	"fmt"
)

// Substitutions maps placeholder names to values.
type Substitutions = map[string]any

// SubstitutionFunc computes a substitution value at parse time. self is the
// engine's bound object, or the engine itself when nothing is bound.
//
// Besides SubstitutionFunc, substitution values may be func(any) any,
// func() any or func() string; any other value is used as is.
type SubstitutionFunc func(self any) any

// Definitions is the append-only store of non-text substitution values.
// A non-text placeholder is rewritten to subdef(<index>), which code blocks
// resolve back to the stored value.
type Definitions struct {
	values []any
}

// Append stores v and returns its index.
func (d *Definitions) Append(v any) int {
	d.values = append(d.values, v)
	return len(d.values) - 1
}

// Get returns the value stored at index.
func (d *Definitions) Get(index int) (any, bool) {
	if index < 0 || index >= len(d.values) {
		return nil, false
	}
	return d.values[index], true
}

// Len returns the number of stored values.
func (d *Definitions) Len() int {
	return len(d.values)
}

// Accessor returns the template text that refers to the value at index.
func (d *Definitions) Accessor(index int) string {
	return fmt.Sprintf(DefinitionAccessorFmt, index)
}

// callValue invokes callable substitution values with self.
func callValue(raw any, self any) any {
	switch fn := raw.(type) {
	case SubstitutionFunc:
		return fn(self)
	case func(any) any:
		return fn(self)
	case func() any:
		return fn()
	case func() string:
		return fn()
	default:
		return raw
	}
}

func copySubstitutions(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
