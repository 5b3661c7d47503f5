package spackle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/itsatony/go-cuserr"

	"github.com/itsatony/go-spackle/internal"
)

// Error message constants - ALL error messages must be constants (NO MAGIC STRINGS)
const (
	// Configuration errors
	ErrMsgPluginNil           = "plugin cannot be nil"
	ErrMsgPluginMissingParse  = "plugin does not provide a parse function"
	ErrMsgPluginEmptyKey      = "plugin key cannot be empty"
	ErrMsgPluginInvalidKey    = "plugin key contains whitespace or braces"
	ErrMsgPluginKeyCollision  = "plugin already registered for key"
	ErrMsgTemplateFileMissing = "missing template file"
	ErrMsgTemplateFileRead    = "template file is not readable"
	ErrMsgTemplateFileIsDir   = "template path is a directory"
	ErrMsgUnknownStrategy     = "unknown error strategy"

	// Front matter errors
	ErrMsgFrontmatterUnclosed = "front matter is not closed"
	ErrMsgFrontmatterTooLarge = "front matter exceeds maximum size"
	ErrMsgFrontmatterInvalid  = "front matter is not valid YAML"

	// Resolution errors
	ErrMsgSubstitutionNotFound = "substitution not found"
	ErrMsgSubstitutionPanicked = "substitution callable panicked"
	ErrMsgPluginFailed         = "plugin failed"
	ErrMsgIncludeDepth         = "include depth exceeded"
	ErrMsgIncludeNoStorage     = "include plugin has no template storage"
	ErrMsgEnvVarMissing        = "environment variable name missing"

	// Hook errors
	ErrMsgHookFailed = "hook failed"
)

// Error code constants for categorization
const (
	ErrCodeConfig  = "SPACKLE_CONFIG"
	ErrCodeResolve = "SPACKLE_RESOLVE"
	ErrCodeStorage = "SPACKLE_STORAGE"
	ErrCodeHook    = "SPACKLE_HOOK"
)

// NewRegistrationError converts a registry failure into a configuration error.
func NewRegistrationError(cause error) error {
	msg := ErrMsgPluginKeyCollision
	key := ""

	var regErr *internal.RegistryError
	if errors.As(cause, &regErr) {
		key = regErr.Key
		switch regErr.Message {
		case internal.ErrMsgNilPlugin:
			msg = ErrMsgPluginNil
		case internal.ErrMsgEmptyKey:
			msg = ErrMsgPluginEmptyKey
		case internal.ErrMsgInvalidKey:
			msg = ErrMsgPluginInvalidKey
		}
	}

	return cuserr.NewValidationError(ErrCodeConfig, msg).
		WithMetadata(MetaKeyKey, key)
}

// NewPluginMissingParseError creates an error for a plugin without a parse function.
func NewPluginMissingParseError(key string) error {
	return cuserr.NewValidationError(ErrCodeConfig, ErrMsgPluginMissingParse).
		WithMetadata(MetaKeyKey, key)
}

// NewTemplateFileError creates an error for a template file that cannot be used.
func NewTemplateFileError(msg, path string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeConfig, msg)
	} else {
		err = cuserr.NewValidationError(ErrCodeConfig, msg)
	}
	return err.WithMetadata(MetaKeyPath, path)
}

// NewFrontmatterError creates a front matter parsing error.
func NewFrontmatterError(msg string, cause error) error {
	if cause != nil {
		return cuserr.WrapStdError(cause, ErrCodeConfig, msg)
	}
	return cuserr.NewValidationError(ErrCodeConfig, msg)
}

// NewUnknownErrorStrategyError creates an error for an unrecognised strategy name.
func NewUnknownErrorStrategyError(name string) error {
	return cuserr.NewValidationError(ErrCodeConfig, ErrMsgUnknownStrategy).
		WithMetadata(MetaKeyStrategy, name)
}

// NewSubstitutionNotFoundError creates an error for a placeholder with no table
// entry. Similar names, if any, are kept as a comma separated suggestion list.
func NewSubstitutionNotFoundError(name string, suggestions ...string) error {
	err := cuserr.NewNotFoundError(MetaKeySubstitution, ErrMsgSubstitutionNotFound).
		WithMetadata(MetaKeyName, name)
	if len(suggestions) > 0 {
		err = err.WithMetadata(MetaKeySuggestions, strings.Join(suggestions, ","))
	}
	return err
}

// NewSubstitutionPanicError creates an error for a callable that panicked.
func NewSubstitutionPanicError(name string, recovered any) error {
	return cuserr.WrapStdError(fmt.Errorf("%v", recovered), ErrCodeResolve, ErrMsgSubstitutionPanicked).
		WithMetadata(MetaKeyName, name)
}

// NewPluginError creates an error for a failed plugin invocation.
func NewPluginError(key string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeResolve, ErrMsgPluginFailed).
		WithMetadata(MetaKeyPlugin, key)
}

// NewIncludeDepthError creates an error for runaway template inclusion.
func NewIncludeDepthError(name string, depth int) error {
	return cuserr.NewValidationError(ErrCodeResolve, ErrMsgIncludeDepth).
		WithMetadata(MetaKeyName, name).
		WithMetadata(MetaKeyDepth, strconv.Itoa(depth))
}

// NewIncludeNoStorageError creates an error for an include without storage.
func NewIncludeNoStorageError(name string) error {
	return cuserr.NewValidationError(ErrCodeResolve, ErrMsgIncludeNoStorage).
		WithMetadata(MetaKeyName, name)
}

// NewEnvVarMissingError creates an error for an empty env directive.
func NewEnvVarMissingError() error {
	return cuserr.NewValidationError(ErrCodeResolve, ErrMsgEnvVarMissing).
		WithMetadata(MetaKeyPlugin, PluginKeyEnv)
}

// NewHookError wraps an error returned by a hook.
func NewHookError(point HookPoint, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeHook, ErrMsgHookFailed).
		WithMetadata(MetaKeyHook, string(point))
}
