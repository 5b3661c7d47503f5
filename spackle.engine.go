package spackle

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/itsatony/go-spackle/internal"
)

// Engine resolves the placeholders of one template.
//
// An Engine is not safe for concurrent use. Plugins and substitution
// callables may construct and parse other engines while a parse is running.
type Engine struct {
	source        string
	content       string
	substitutions map[string]any
	definitions   *Definitions
	bound         any
	plugins       *internal.Registry
	config        *engineConfig
	logger        *zap.Logger
}

// New creates an engine for the template source with optional initial
// substitutions.
func New(source string, substitutions map[string]any, opts ...Option) *Engine {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		source:        source,
		content:       source,
		substitutions: copySubstitutions(substitutions),
		definitions:   &Definitions{},
		plugins:       internal.NewRegistry(logger),
		config:        config,
		logger:        logger,
	}

	for _, p := range config.plugins {
		if _, err := e.AddPlugin(p); err != nil {
			logger.Warn(LogMsgPluginSkipped, zap.Error(err))
		}
	}

	logger.Debug(LogMsgEngineCreated,
		zap.Int(LogFieldSourceLength, len(source)),
		zap.Int(LogFieldPlugins, e.plugins.Count()),
	)
	return e
}

// SetSubstitution sets one substitution, replacing any previous value.
func (e *Engine) SetSubstitution(name string, value any) *Engine {
	e.substitutions[name] = value
	return e
}

// SetSubstitutions sets several substitutions at once.
func (e *Engine) SetSubstitutions(values map[string]any) *Engine {
	for name, value := range values {
		e.substitutions[name] = value
	}
	return e
}

// BindTo sets the object code blocks see as `this` and callables receive as
// self. The engine never copies or mutates it.
func (e *Engine) BindTo(obj any) *Engine {
	e.bound = obj
	return e
}

// AddPlugin registers an instance-local plugin. Local plugins are evaluated
// before process-wide ones. Returns an error if the plugin is invalid or its
// key is already used locally, globally or by a built-in.
func (e *Engine) AddPlugin(p Plugin) (*Engine, error) {
	if err := checkPlugin(p); err != nil {
		return e, err
	}
	taken := func(key string) bool {
		return isBuiltinKey(key) || globalPlugins.Has(key)
	}
	if err := e.plugins.Register(p, taken); err != nil {
		return e, NewRegistrationError(err)
	}
	return e, nil
}

// MustAddPlugin registers an instance-local plugin and panics on error.
func (e *Engine) MustAddPlugin(p Plugin) *Engine {
	if _, err := e.AddPlugin(p); err != nil {
		panic(err)
	}
	return e
}

// PluginKeys returns the keys of all plugins this engine evaluates, in order.
func (e *Engine) PluginKeys() []string {
	return pluginKeys(e.allPlugins())
}

// Source returns the template text the engine was created with.
func (e *Engine) Source() string {
	return e.source
}

// Content returns the working content, i.e. the result of the last Parse.
func (e *Engine) Content() string {
	return e.content
}

// Bound returns the bound object, or nil.
func (e *Engine) Bound() any {
	return e.bound
}

// Definitions returns the engine's substitution definition store.
func (e *Engine) Definitions() *Definitions {
	return e.definitions
}

// Substitution returns the raw value set for name.
func (e *Engine) Substitution(name string) (any, bool) {
	v, ok := e.substitutions[name]
	return v, ok
}

// ErrorStrategy returns the configured error strategy.
func (e *Engine) ErrorStrategy() ErrorStrategy {
	return e.config.errorStrategy
}

// Parse resolves all placeholders and returns the final text.
//
// Plain substitutions are resolved first, then every plugin in order scans
// the whole working content for its placeholders. Each call starts over from
// the source template. Resolution errors are handled according to the
// engine's ErrorStrategy. Parse returns an error only under
// ErrorStrategyThrow, on context cancellation or when a HookBeforeParse hook
// fails.
func (e *Engine) Parse(ctx context.Context) (string, error) {
	e.content = e.source
	scope := newScope(e)
	plugins := e.allPlugins()

	e.logger.Debug(LogMsgParseStart,
		zap.Int(LogFieldSourceLength, len(e.source)),
		zap.Int(LogFieldPlugins, len(plugins)),
	)

	data := &HookData{Source: e.source, Depth: e.config.includeDepth}
	if errs := e.config.hooks.Run(ctx, HookBeforeParse, data); len(errs) > 0 {
		return "", errs[0]
	}

	out, err := e.parse(ctx, scope, plugins)

	data.Output, data.Error = out, err
	e.logHookErrors(e.config.hooks.Run(ctx, HookAfterParse, data))
	return out, err
}

func (e *Engine) parse(ctx context.Context, scope *Scope, plugins []Plugin) (string, error) {
	if err := e.substitute(ctx, scope, pluginKeys(plugins)); err != nil {
		return "", err
	}
	e.logger.Debug(LogMsgSubstitutionPass)

	if err := e.dispatch(ctx, scope, plugins); err != nil {
		return "", err
	}
	e.logger.Debug(LogMsgPluginPass)

	e.logger.Debug(LogMsgParseEnd, zap.Int(LogFieldOutputLength, len(e.content)))
	return e.content, nil
}

func (e *Engine) logHookErrors(errs []error) {
	for _, err := range errs {
		e.logger.Warn(LogMsgHookFailed, zap.Error(err))
	}
}

// allPlugins returns local plugins followed by the process-wide ones. A
// global plugin registered after a local one with the same key is left out,
// so every key is served by exactly one plugin.
func (e *Engine) allPlugins() []Plugin {
	plugins := e.localPlugins()
	local := make(map[string]bool, len(plugins))
	for _, p := range plugins {
		local[p.Key()] = true
	}
	for _, p := range Plugins() {
		if local[p.Key()] {
			e.logger.Debug(LogMsgPluginShadowed, zap.String(LogFieldKey, p.Key()))
			continue
		}
		plugins = append(plugins, p)
	}
	return plugins
}

func (e *Engine) localPlugins() []Plugin {
	local := e.plugins.List()
	out := make([]Plugin, 0, len(local))
	for _, p := range local {
		out = append(out, p.(Plugin))
	}
	return out
}

// substitute is the first pass: plain {{name}} placeholders.
func (e *Engine) substitute(ctx context.Context, scope *Scope, reserved []string) error {
	for _, name := range internal.FindSubstitutionNames(e.content, reserved) {
		if err := ctx.Err(); err != nil {
			return err
		}

		placeholder := DefaultOpenDelim + name + DefaultCloseDelim
		if !strings.Contains(e.content, placeholder) {
			continue
		}

		value, err := e.resolve(scope, name)
		if err != nil {
			text, replace, fatal := e.handleError(ctx, err, "", zap.String(LogFieldName, name))
			if fatal != nil {
				return fatal
			}
			if replace {
				e.content = strings.ReplaceAll(e.content, placeholder, text)
			}
			continue
		}

		text, ok := internal.TextValue(value)
		if !ok {
			index := e.definitions.Append(value)
			text = e.definitions.Accessor(index)
			e.logger.Debug(LogMsgDefinitionStored,
				zap.String(LogFieldName, name),
				zap.Int(LogFieldIndex, index),
			)
		}
		e.content = strings.ReplaceAll(e.content, placeholder, text)
	}
	return nil
}

func (e *Engine) resolve(scope *Scope, name string) (value any, err error) {
	raw, ok := e.substitutions[name]
	if !ok {
		e.logger.Debug(LogMsgSubstitutionMissing, zap.String(LogFieldName, name))
		return nil, NewSubstitutionNotFoundError(name,
			internal.FindSimilarStrings(name, e.substitutionNames(), MaxSuggestions)...)
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug(LogMsgSubstitutionPanicked,
				zap.String(LogFieldName, name),
				zap.Any(LogFieldRecovered, r),
			)
			value, err = nil, NewSubstitutionPanicError(name, r)
		}
	}()
	return callValue(raw, scope.Self()), nil
}

// dispatch is the second pass: each plugin rewrites its own placeholders.
// Plugins see the output of the plugins before them.
func (e *Engine) dispatch(ctx context.Context, scope *Scope, plugins []Plugin) error {
	for _, p := range plugins {
		key := p.Key()
		for _, d := range internal.FindDirectives(e.content, key) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !strings.Contains(e.content, d.Full) {
				continue
			}

			result, err := e.invoke(ctx, scope, p, strings.TrimSpace(d.Payload))
			text := internal.Coerce(result)
			if err != nil {
				partial := ""
				if result != nil {
					partial = text
				}
				var replace bool
				var fatal error
				text, replace, fatal = e.handleError(ctx, NewPluginError(key, err), partial, zap.String(LogFieldKey, key))
				if fatal != nil {
					return fatal
				}
				if !replace {
					continue
				}
			}
			e.content = strings.ReplaceAll(e.content, d.Full, text)
		}
	}
	return nil
}

func (e *Engine) invoke(ctx context.Context, scope *Scope, p Plugin, payload string) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%v", r)
		}
	}()
	return p.Parse(ctx, scope, payload)
}

// handleError applies the error strategy to a resolution error. It returns the
// replacement text, whether to replace the placeholder at all, and an error
// when parsing must stop.
func (e *Engine) handleError(ctx context.Context, err error, partial string, fields ...zap.Field) (string, bool, error) {
	if e.config.hooks.Count(HookResolveError) > 0 {
		data := &HookData{Source: e.source, Depth: e.config.includeDepth, Error: err}
		e.logHookErrors(e.config.hooks.Run(ctx, HookResolveError, data))
	}

	switch e.config.errorStrategy {
	case ErrorStrategyThrow:
		return "", false, err
	case ErrorStrategyKeepRaw:
		return "", false, nil
	case ErrorStrategyRemove:
		return "", true, nil
	default:
		e.logger.Warn(err.Error(), append(fields, zap.Stringer(LogFieldStrategy, e.config.errorStrategy))...)
		return partial, true, nil
	}
}
