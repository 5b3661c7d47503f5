package internal

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"
)

// KeyedPlugin mirrors the public Plugin interface for internal use.
// Only the delimiter key is needed to order and deduplicate plugins.
type KeyedPlugin interface {
	Key() string
}

// Registry keeps plugins in registration order, unique by key.
// It is thread-safe for concurrent read/write access.
type Registry struct {
	plugins []KeyedPlugin
	index   map[string]int
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewRegistry creates a new plugin registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgRegistryCreated)
	return &Registry{
		index:  make(map[string]int),
		logger: logger,
	}
}

// Register appends a plugin to the registry.
// taken is consulted (under the registry lock) for keys owned elsewhere,
// e.g. the process-wide registry when registering on an engine.
// A failed registration leaves the registry unchanged (first-come-wins).
func (r *Registry) Register(plugin KeyedPlugin, taken func(key string) bool) error {
	if plugin == nil {
		return NewRegistryError(ErrMsgNilPlugin, "")
	}

	key := plugin.Key()
	if err := ValidateKey(key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, exists := r.index[key]; exists {
		r.logger.Warn(LogMsgPluginCollision,
			zap.String(LogFieldKey, key),
			zap.String(LogFieldExisting, fmt.Sprintf("%T", r.plugins[i])),
		)
		return NewRegistryError(ErrMsgPluginAlreadyExists, key)
	}
	if taken != nil && taken(key) {
		r.logger.Warn(LogMsgPluginCollision, zap.String(LogFieldKey, key))
		return NewRegistryError(ErrMsgPluginAlreadyExists, key)
	}

	r.index[key] = len(r.plugins)
	r.plugins = append(r.plugins, plugin)
	r.logger.Debug(LogMsgPluginRegistered, zap.String(LogFieldKey, key))
	return nil
}

// Get retrieves a plugin by key.
func (r *Registry) Get(key string) (KeyedPlugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, exists := r.index[key]
	if !exists {
		return nil, false
	}
	return r.plugins[i], true
}

// Has checks if a plugin is registered for the given key.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.index[key]
	return exists
}

// List returns a snapshot of the plugins in registration order.
func (r *Registry) List() []KeyedPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]KeyedPlugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		keys[i] = p.Key()
	}
	return keys
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.plugins)
}

// ValidateKey checks that a key can be embedded in the placeholder grammar.
func ValidateKey(key string) error {
	if key == "" {
		return NewRegistryError(ErrMsgEmptyKey, "")
	}
	if strings.ContainsAny(key, "{}") || strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return NewRegistryError(ErrMsgInvalidKey, key)
	}
	return nil
}

// RegistryError represents a registry operation error
type RegistryError struct {
	Message string
	Key     string
}

// NewRegistryError creates a new registry error
func NewRegistryError(message, key string) *RegistryError {
	return &RegistryError{
		Message: message,
		Key:     key,
	}
}

// Error implements the error interface
func (e *RegistryError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf(ErrFmtKeyMessage, e.Message, e.Key)
	}
	return e.Message
}
