package spackle

import (
	"context"
	"os"
	"strings"
)

// EnvPlugin resolves {{env NAME env}} to the value of an environment
// variable. {{env NAME|fallback env}} yields fallback when NAME is unset.
// An unset variable without fallback resolves to empty text.
type EnvPlugin struct {
	// Lookup reads a variable. Defaults to os.LookupEnv.
	Lookup func(name string) (string, bool)
}

// NewEnvPlugin creates an EnvPlugin reading the process environment.
func NewEnvPlugin() *EnvPlugin {
	return &EnvPlugin{Lookup: os.LookupEnv}
}

// Key returns PluginKeyEnv.
func (p *EnvPlugin) Key() string {
	return PluginKeyEnv
}

// Parse resolves the variable named in payload.
func (p *EnvPlugin) Parse(_ context.Context, _ *Scope, payload string) (any, error) {
	name, fallback, _ := strings.Cut(payload, EnvDefaultSeparator)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewEnvVarMissingError()
	}

	lookup := p.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(name); ok {
		return v, nil
	}
	return fallback, nil
}
