package spackle

import (
	"context"
	"sync"
	"time"
)

// HookPoint identifies when a hook is called during Parse.
type HookPoint string

// Hook points of the parse lifecycle.
const (
	// HookBeforeParse is called before the substitution pass. An error aborts
	// Parse.
	HookBeforeParse HookPoint = "before_parse"

	// HookAfterParse is called after Parse finished, successfully or not.
	HookAfterParse HookPoint = "after_parse"

	// HookResolveError is called for every resolution error before the error
	// strategy is applied.
	HookResolveError HookPoint = "resolve_error"
)

// Hook is a function called at specific points of Parse.
// Errors from HookBeforeParse hooks abort the parse; all other hook errors are
// logged and ignored.
type Hook func(ctx context.Context, point HookPoint, data *HookData) error

// HookData carries the parse state to hooks.
type HookData struct {
	// Source is the template being parsed.
	Source string

	// Depth is the include nesting level, 0 for a top-level engine.
	Depth int

	// Output is the parse result (after_parse only, empty on error).
	Output string

	// Error is the failure (after_parse and resolve_error).
	Error error

	// Metadata lets hooks pass data to each other within one parse.
	Metadata map[string]any
}

// SetMetadata sets a metadata value.
func (d *HookData) SetMetadata(key string, value any) {
	if d.Metadata == nil {
		d.Metadata = make(map[string]any)
	}
	d.Metadata[key] = value
}

// GetMetadata gets a metadata value.
func (d *HookData) GetMetadata(key string) (any, bool) {
	v, ok := d.Metadata[key]
	return v, ok
}

// HookRegistry holds hooks by point. It is safe for concurrent use and may be
// shared by several engines. The zero value is ready to use.
type HookRegistry struct {
	mu    sync.RWMutex
	hooks map[HookPoint][]Hook
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{
		hooks: make(map[HookPoint][]Hook),
	}
}

// Register adds a hook for the given points.
func (r *HookRegistry) Register(hook Hook, points ...HookPoint) *HookRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hooks == nil {
		r.hooks = make(map[HookPoint][]Hook)
	}
	for _, point := range points {
		r.hooks[point] = append(r.hooks[point], hook)
	}
	return r
}

// Clear removes all hooks for a point.
func (r *HookRegistry) Clear(point HookPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hooks, point)
}

// Count returns the number of hooks registered for a point.
func (r *HookRegistry) Count(point HookPoint) int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks[point])
}

// Run calls the hooks for point in registration order. Before hooks stop at
// the first error; other points run every hook and return all errors.
func (r *HookRegistry) Run(ctx context.Context, point HookPoint, data *HookData) []error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	hooks := append([]Hook(nil), r.hooks[point]...)
	r.mu.RUnlock()

	var errs []error
	for _, hook := range hooks {
		if err := hook(ctx, point, data); err != nil {
			errs = append(errs, NewHookError(point, err))
			if point == HookBeforeParse {
				return errs
			}
		}
	}
	return errs
}

// TimingHook measures parse duration. Register the hook for HookBeforeParse
// and read the elapsed time from an after_parse hook with the returned func.
func TimingHook() (Hook, func(*HookData) time.Duration) {
	hook := func(_ context.Context, point HookPoint, data *HookData) error {
		if point == HookBeforeParse {
			data.SetMetadata(HookMetaParseStart, time.Now())
		}
		return nil
	}

	elapsed := func(data *HookData) time.Duration {
		v, ok := data.GetMetadata(HookMetaParseStart)
		if !ok {
			return 0
		}
		start, ok := v.(time.Time)
		if !ok {
			return 0
		}
		return time.Since(start)
	}

	return hook, elapsed
}
