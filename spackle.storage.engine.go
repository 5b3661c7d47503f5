package spackle

import (
	"context"

	"go.uber.org/zap"
)

// NewFromStorage creates an engine from the latest stored version of a
// template. Stored substitutions seed the table; substitutions passed here
// override them. The storage is also attached to the engine so includes
// resolve against it.
func NewFromStorage(ctx context.Context, storage TemplateStorage, name string, substitutions map[string]any, opts ...Option) (*Engine, error) {
	tmpl, err := storage.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	merged := copySubstitutions(tmpl.Substitutions)
	for k, v := range substitutions {
		merged[k] = v
	}

	opts = append([]Option{WithStorage(storage)}, opts...)
	e := New(tmpl.Source, merged, opts...)
	e.logger.Debug(LogMsgTemplateStoredLoaded,
		zap.String(LogFieldName, tmpl.Name),
		zap.Int(LogFieldVersion, tmpl.Version),
	)
	return e, nil
}
