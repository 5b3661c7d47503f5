package spackle

import "time"

// Delimiter constants - part of the template wire contract
const (
	DefaultOpenDelim  = "{{"
	DefaultCloseDelim = "}}"
)

// Built-in plugin keys
const (
	// CodeBlockKey opens a code block; its closing marker is CodeBlockCloseKey.
	CodeBlockKey      = ">"
	CodeBlockCloseKey = "<"

	PluginKeyEnv     = "env"
	PluginKeyInclude = "include"
)

// DefinitionAccessorFmt is the text a non-text substitution is rewritten to.
// Code blocks resolve it back to the stored value.
const DefinitionAccessorFmt = "subdef(%d)"

// IncludeMaxDepth bounds nested includes.
const IncludeMaxDepth = 10

// EnvDefaultSeparator separates a variable name from its fallback in {{env NAME|fallback env}}.
const EnvDefaultSeparator = "|"

// ErrorStrategy defines how resolution errors are handled during Parse
type ErrorStrategy int

const (
	// ErrorStrategyLog logs the error and continues best-effort: missing
	// substitutions become empty text, failed plugins keep their partial result
	ErrorStrategyLog ErrorStrategy = iota
	// ErrorStrategyRemove replaces the failed placeholder with empty text
	ErrorStrategyRemove
	// ErrorStrategyKeepRaw leaves the failed placeholder text in the output
	ErrorStrategyKeepRaw
	// ErrorStrategyThrow stops parsing and returns the error
	ErrorStrategyThrow
)

// Error strategy names
const (
	ErrorStrategyNameLog     = "log"
	ErrorStrategyNameRemove  = "remove"
	ErrorStrategyNameKeepRaw = "keepraw"
	ErrorStrategyNameThrow   = "throw"
)

// String returns the name of the strategy.
func (s ErrorStrategy) String() string {
	switch s {
	case ErrorStrategyRemove:
		return ErrorStrategyNameRemove
	case ErrorStrategyKeepRaw:
		return ErrorStrategyNameKeepRaw
	case ErrorStrategyThrow:
		return ErrorStrategyNameThrow
	default:
		return ErrorStrategyNameLog
	}
}

// ParseErrorStrategy converts a strategy name to an ErrorStrategy.
func ParseErrorStrategy(name string) (ErrorStrategy, error) {
	switch name {
	case ErrorStrategyNameLog, "":
		return ErrorStrategyLog, nil
	case ErrorStrategyNameRemove:
		return ErrorStrategyRemove, nil
	case ErrorStrategyNameKeepRaw:
		return ErrorStrategyKeepRaw, nil
	case ErrorStrategyNameThrow:
		return ErrorStrategyThrow, nil
	default:
		return ErrorStrategyLog, NewUnknownErrorStrategyError(name)
	}
}

// YAML frontmatter constants
const (
	YAMLFrontmatterDelimiter  = "---"
	DefaultMaxFrontmatterSize = 64 * 1024
)

// Storage driver names
const (
	StorageDriverNameMemory     = "memory"
	StorageDriverNameFilesystem = "filesystem"
	StorageDriverNamePostgres   = "postgres"
)

// Filesystem storage constants
const (
	FilesystemDirPermissions  = 0755
	FilesystemFilePermissions = 0644
	FilesystemVersionPrefix   = "v"
	FilesystemVersionSuffix   = ".json"
)

// PostgreSQL storage defaults
const (
	PostgresTablePrefix            = "spackle_"
	PostgresDefaultMaxOpenConns    = 25
	PostgresDefaultMaxIdleConns    = 5
	PostgresDefaultConnMaxLifetime = 5 * time.Minute
	PostgresDefaultConnMaxIdleTime = 5 * time.Minute
	PostgresDefaultQueryTimeout    = 30 * time.Second
)

// Template ID prefix
const TemplateIDPrefix = "tmpl_"

// Metadata keys for cuserr.WithMetadata
const (
	MetaKeyKey          = "key"
	MetaKeyName         = "name"
	MetaKeyPath         = "path"
	MetaKeyPlugin       = "plugin"
	MetaKeySubstitution = "substitution"
	MetaKeyStrategy     = "strategy"
	MetaKeyDepth        = "depth"
	MetaKeyVariable     = "variable"
	MetaKeySuggestions  = "suggestions"
	MetaKeyHook         = "hook"
)

// Log message constants
const (
	LogMsgEngineCreated        = "engine created"
	LogMsgParseStart           = "starting parse"
	LogMsgParseEnd             = "parse complete"
	LogMsgSubstitutionPass     = "substitution pass complete"
	LogMsgPluginPass           = "plugin pass complete"
	LogMsgDefinitionStored     = "substitution definition stored"
	LogMsgSubstitutionMissing  = "substitution not found"
	LogMsgSubstitutionPanicked = "substitution callable panicked"
	LogMsgPluginFailed         = "plugin failed"
	LogMsgPluginSkipped        = "invalid plugin skipped"
	LogMsgPluginShadowed       = "global plugin shadowed by local plugin"
	LogMsgTemplateFileLoaded   = "template file loaded"
	LogMsgTemplateStoredLoaded = "stored template loaded"
	LogMsgHookFailed           = "hook failed"
)

// Log field names
const (
	LogFieldSourceLength = "source_length"
	LogFieldOutputLength = "output_length"
	LogFieldName         = "name"
	LogFieldKey          = "key"
	LogFieldIndex        = "index"
	LogFieldPlugins      = "plugin_count"
	LogFieldPath         = "path"
	LogFieldStrategy     = "strategy"
	LogFieldVersion      = "version"
	LogFieldRecovered    = "recovered"
)

// HookMetaParseStart is the HookData metadata key TimingHook records the
// parse start time under.
const HookMetaParseStart = "parse_start"

// Inspection text output
const (
	InspectTextSubstitutions = "Substitutions (%d):\n"
	InspectTextSet           = "  ok      %s (line %d)\n"
	InspectTextMissing       = "  missing %s (line %d)"
	InspectTextSuggestions   = ", did you mean: %s?"
	InspectTextDirectives    = "Directives (%d):\n"
	InspectTextDirective     = "  %-8s %s (line %d)\n"
	InspectTextUnused        = "Unused substitutions: %s\n"
	InspectTextSummary       = "Summary: %d missing, %d unused\n"
)
