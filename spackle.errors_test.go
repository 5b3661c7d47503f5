package spackle

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStrategy_String(t *testing.T) {
	tests := []struct {
		strategy ErrorStrategy
		expected string
	}{
		{ErrorStrategyLog, ErrorStrategyNameLog},
		{ErrorStrategyRemove, ErrorStrategyNameRemove},
		{ErrorStrategyKeepRaw, ErrorStrategyNameKeepRaw},
		{ErrorStrategyThrow, ErrorStrategyNameThrow},
		{ErrorStrategy(42), ErrorStrategyNameLog},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.strategy.String())
		})
	}
}

func TestParseErrorStrategy(t *testing.T) {
	tests := []struct {
		name     string
		expected ErrorStrategy
	}{
		{"", ErrorStrategyLog},
		{ErrorStrategyNameLog, ErrorStrategyLog},
		{ErrorStrategyNameRemove, ErrorStrategyRemove},
		{ErrorStrategyNameKeepRaw, ErrorStrategyKeepRaw},
		{ErrorStrategyNameThrow, ErrorStrategyThrow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseErrorStrategy(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.expected, mustStrategy(t, got.String()))
		})
	}

	t.Run("unknown", func(t *testing.T) {
		got, err := ParseErrorStrategy("explode")
		require.Error(t, err)
		assert.Equal(t, ErrorStrategyLog, got)
		assert.Contains(t, err.Error(), ErrMsgUnknownStrategy)

		var customErr *cuserr.CustomError
		require.True(t, errors.As(err, &customErr))
		name, ok := customErr.GetMetadata(MetaKeyStrategy)
		assert.True(t, ok)
		assert.Equal(t, "explode", name)
	})
}

func mustStrategy(t *testing.T, name string) ErrorStrategy {
	t.Helper()
	s, err := ParseErrorStrategy(name)
	require.NoError(t, err)
	return s
}

func TestErrorConstructors_Metadata(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
		metaKey string
		metaVal string
	}{
		{"substitution not found", NewSubstitutionNotFoundError("who"), ErrMsgSubstitutionNotFound, MetaKeyName, "who"},
		{"substitution panic", NewSubstitutionPanicError("fn", "boom"), ErrMsgSubstitutionPanicked, MetaKeyName, "fn"},
		{"plugin", NewPluginError("url", errors.New("bad")), ErrMsgPluginFailed, MetaKeyPlugin, "url"},
		{"include depth", NewIncludeDepthError("loop", 11), ErrMsgIncludeDepth, MetaKeyDepth, "11"},
		{"include storage", NewIncludeNoStorageError("part"), ErrMsgIncludeNoStorage, MetaKeyName, "part"},
		{"env", NewEnvVarMissingError(), ErrMsgEnvVarMissing, MetaKeyPlugin, PluginKeyEnv},
		{"missing parse", NewPluginMissingParseError("k"), ErrMsgPluginMissingParse, MetaKeyKey, "k"},
		{"template file", NewTemplateFileError(ErrMsgTemplateFileMissing, "/x", nil), ErrMsgTemplateFileMissing, MetaKeyPath, "/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.Contains(t, tt.err.Error(), tt.message)

			var customErr *cuserr.CustomError
			require.True(t, errors.As(tt.err, &customErr))
			val, ok := customErr.GetMetadata(tt.metaKey)
			assert.True(t, ok)
			assert.Equal(t, tt.metaVal, val)
		})
	}
}

func TestErrorConstructors_WrapCause(t *testing.T) {
	err := NewPluginError("url", fs.ErrPermission)
	assert.True(t, errors.Is(err, fs.ErrPermission))

	err = NewTemplateFileError(ErrMsgTemplateFileRead, "/x", fs.ErrPermission)
	assert.True(t, errors.Is(err, fs.ErrPermission))

	err = NewSubstitutionPanicError("fn", "boom")
	assert.Contains(t, err.Error(), ErrMsgSubstitutionPanicked)
}
