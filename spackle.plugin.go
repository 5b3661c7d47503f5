package spackle

import (
	"context"

	"github.com/itsatony/go-spackle/internal"
)

// Plugin is a directive type that owns a delimiter key.
//
// A plugin keyed "url" handles placeholders of the form {{url payload url}};
// bracket characters in a key are mirrored to form the closing marker, so the
// built-in code block keyed ">" handles {{> code <}}.
type Plugin interface {
	// Key returns the opening marker of the plugin's placeholders.
	Key() string

	// Parse produces the replacement value for one placeholder. The payload
	// is trimmed of surrounding whitespace.
	Parse(ctx context.Context, scope *Scope, payload string) (any, error)
}

// ParseFunc is the function form of Plugin.Parse.
type ParseFunc func(ctx context.Context, scope *Scope, payload string) (any, error)

// PluginFunc adapts a key and a ParseFunc to the Plugin interface.
type PluginFunc struct {
	PluginKey string
	Fn        ParseFunc
}

// NewPlugin creates a plugin from a key and a parse function.
func NewPlugin(key string, fn ParseFunc) *PluginFunc {
	return &PluginFunc{PluginKey: key, Fn: fn}
}

// Key returns the plugin key.
func (p *PluginFunc) Key() string {
	if p == nil {
		return ""
	}
	return p.PluginKey
}

// Parse calls the wrapped function.
func (p *PluginFunc) Parse(ctx context.Context, scope *Scope, payload string) (any, error) {
	if p.Fn == nil {
		return nil, NewPluginMissingParseError(p.PluginKey)
	}
	return p.Fn(ctx, scope, payload)
}

func (p *PluginFunc) canParse() bool {
	return p != nil && p.Fn != nil
}

// parseChecker is implemented by plugins whose parse capability is only
// known at runtime.
type parseChecker interface {
	canParse() bool
}

// ClosingKey returns the closing marker for a plugin key.
func ClosingKey(key string) string {
	return internal.ClosingKey(key)
}

// Process-wide plugin registry. Registration is additive and cannot be undone.
var (
	globalPlugins   = internal.NewRegistry(nil)
	codeBlockPlugin = newCodeBlockPlugin()
)

// RegisterPlugin adds a plugin to the process-wide registry, shared by every
// engine. Returns an error if the plugin is invalid or its key is taken.
func RegisterPlugin(p Plugin) error {
	if err := checkPlugin(p); err != nil {
		return err
	}
	if err := globalPlugins.Register(p, isBuiltinKey); err != nil {
		return NewRegistrationError(err)
	}
	return nil
}

// MustRegisterPlugin adds a plugin to the process-wide registry and panics if
// registration fails.
func MustRegisterPlugin(p Plugin) {
	if err := RegisterPlugin(p); err != nil {
		panic(err)
	}
}

// Plugins returns the process-wide plugins in evaluation order: user plugins
// in registration order, followed by the built-in code block.
func Plugins() []Plugin {
	registered := globalPlugins.List()
	out := make([]Plugin, 0, len(registered)+1)
	for _, p := range registered {
		out = append(out, p.(Plugin))
	}
	return append(out, codeBlockPlugin)
}

// ReservedKeys returns the keys of Plugins().
func ReservedKeys() []string {
	return pluginKeys(Plugins())
}

func checkPlugin(p Plugin) error {
	if p == nil {
		return NewRegistrationError(internal.NewRegistryError(internal.ErrMsgNilPlugin, ""))
	}
	if pc, ok := p.(parseChecker); ok && !pc.canParse() {
		return NewPluginMissingParseError(p.Key())
	}
	return nil
}

func isBuiltinKey(key string) bool {
	return key == CodeBlockKey
}

func pluginKeys(plugins []Plugin) []string {
	keys := make([]string, len(plugins))
	for i, p := range plugins {
		keys[i] = p.Key()
	}
	return keys
}
