package spackle

import (
	"errors"
	"io/fs"
	"os"

	"go.uber.org/zap"
)

// NewFromFile creates an engine from a template file.
//
// The file may start with YAML front matter carrying `substitutions` and
// `bind`; substitutions passed here override the front matter ones. Fails when
// the path does not exist, is a directory, cannot be read or has invalid front
// matter.
func NewFromFile(path string, substitutions map[string]any, opts ...Option) (*Engine, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewTemplateFileError(ErrMsgTemplateFileMissing, path, nil)
		}
		return nil, NewTemplateFileError(ErrMsgTemplateFileRead, path, err)
	}
	if info.IsDir() {
		return nil, NewTemplateFileError(ErrMsgTemplateFileIsDir, path, nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewTemplateFileError(ErrMsgTemplateFileRead, path, err)
	}

	doc, err := ParseFrontmatter(data)
	if err != nil {
		return nil, err
	}

	e := newFromDocument(doc, substitutions, opts...)
	e.logger.Debug(LogMsgTemplateFileLoaded,
		zap.String(LogFieldPath, path),
		zap.Int(LogFieldSourceLength, len(doc.Body)),
	)
	return e, nil
}

// MustNewFromFile is like NewFromFile but panics on error.
func MustNewFromFile(path string, substitutions map[string]any, opts ...Option) *Engine {
	e, err := NewFromFile(path, substitutions, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

func newFromDocument(doc *Document, substitutions map[string]any, opts ...Option) *Engine {
	merged := copySubstitutions(doc.Substitutions)
	for k, v := range substitutions {
		merged[k] = v
	}
	e := New(doc.Body, merged, opts...)
	if doc.Bind != nil {
		e.BindTo(doc.Bind)
	}
	return e
}
