package main

// Command names
const (
	CmdNameRoot    = "spackle"
	CmdNameRender  = "render"
	CmdNameStore   = "store"
	CmdNamePut     = "put"
	CmdNameGet     = "get"
	CmdNameList    = "list"
	CmdNameDelete  = "delete"
	CmdNameVersion = "version"
	CmdNameInspect = "inspect"
)

// Flag names - long form
const (
	FlagTemplate    = "template"
	FlagSet         = "set"
	FlagData        = "data"
	FlagEnvFile     = "env-file"
	FlagBind        = "bind"
	FlagOutput      = "output"
	FlagStrategy    = "strategy"
	FlagFromStorage = "from-storage"
	FlagName        = "name"
	FlagTag         = "tag"
	FlagCreatedBy   = "created-by"
	FlagVersion     = "version"
	FlagPattern     = "pattern"
	FlagAll         = "all"
	FlagLimit       = "limit"
	FlagFormat      = "format"
	FlagLogLevel    = "log-level"
)

// Flag names - short form
const (
	FlagTemplateShort = "t"
	FlagSetShort      = "s"
	FlagDataShort     = "d"
	FlagOutputShort   = "o"
	FlagFormatShort   = "F"
)

// Flag default values
const (
	FlagDefaultOutput = "-" // stdout
	FlagDefaultFormat = "text"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeInputError      = 3
	ExitCodeValidationError = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Data file extensions decoded as YAML; everything else is JSON
const (
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
)

// Error messages - ALL must be constants
const (
	ErrMsgMissingTemplate     = "either --template or --from-storage is required"
	ErrMsgTemplateAndStorage  = "--template and --from-storage are mutually exclusive"
	ErrMsgMissingName         = "template name required"
	ErrMsgInvalidSet          = "invalid --set value, expected key=value"
	ErrMsgInvalidFormat       = "invalid output format"
	ErrMsgInvalidData         = "invalid data file"
	ErrMsgInvalidBind         = "invalid bind file"
	ErrMsgInvalidEnvFile      = "invalid env file"
	ErrMsgInvalidConfig       = "invalid environment configuration"
	ErrMsgInvalidLogLevel     = "invalid log level"
	ErrMsgReadFileFailed      = "failed to read file"
	ErrMsgReadStdinFailed     = "failed to read from stdin"
	ErrMsgWriteOutputFailed   = "failed to write output"
	ErrMsgLoadTemplateFailed  = "failed to load template"
	ErrMsgRenderFailed        = "template rendering failed"
	ErrMsgOpenStorageFailed   = "failed to open template storage"
	ErrMsgStorageFailed       = "template storage operation failed"
	ErrMsgArgCount            = "unexpected number of arguments"
	ErrMsgJSONMarshalFailed   = "failed to marshal JSON"
	ErrMsgUnresolved          = "template has unresolved substitutions"
	ErrFmtArgCount            = "%s: expected %d, got %d"
	ErrFmtMissingCount        = "%s: %d missing"
	ErrFmtWithCause           = "%s: %w"
	ErrFmtWithDetail          = "%s: %s"
	ErrPrefixUnknownCommand   = "unknown command"
	ErrPrefixUnknownFlag      = "unknown flag"
	ErrPrefixUnknownShorthand = "unknown shorthand flag"
)

// Log messages and fields
const (
	LogMsgParsed    = "template parsed"
	LogFieldDepth   = "depth"
	LogFieldElapsed = "elapsed"
	LogFieldFailed  = "failed"
)

// Help text
const (
	CLIShort = "Render text templates with substitutions, code blocks and plugins"
	CLILong  = `spackle renders templates containing {{name}} substitutions,
{{> code <}} blocks and plugin directives such as {{env HOME env}}.

Configuration is read from SPACKLE_* environment variables.`

	RenderShort  = "Render a template"
	StoreShort   = "Manage stored templates"
	PutShort     = "Store a template as a new version"
	GetShort     = "Print a stored template"
	ListShort    = "List stored templates"
	DeleteShort  = "Delete all versions of a stored template"
	VersionShort = "Show version information"
	InspectShort = "Report placeholders and missing substitutions without rendering"

	RenderExample = `  spackle render -t greeting.txt -s name=World
  spackle render -t greeting.txt -d data.yaml --env-file .env
  cat greeting.txt | spackle render -t - -s name=Bob
  spackle render --from-storage mail/welcome -o welcome.txt`

	InspectExample = `  spackle inspect -t greeting.txt -d data.yaml
  spackle inspect --from-storage mail/welcome -F json`
)

// Flag usage strings
const (
	UsageTemplate    = `Template file (use "-" for stdin)`
	UsageSet         = "Substitution key=value (repeatable)"
	UsageData        = "JSON or YAML file with substitutions"
	UsageEnvFile     = ".env file with substitutions"
	UsageBind        = "JSON or YAML file with the object bound to the template"
	UsageOutput      = `Output file ("-" for stdout)`
	UsageStrategy    = "Error strategy: log, remove, keepraw, throw"
	UsageFromStorage = "Render the named stored template"
	UsageName        = "Template name"
	UsageTag         = "Tag (repeatable)"
	UsageCreatedBy   = "Creator recorded with the version"
	UsageVersion     = "Version to fetch (0 = latest)"
	UsagePattern     = "Glob matched against template names (supports **)"
	UsageAll         = "Include all versions"
	UsageLimit       = "Maximum number of results (0 = no limit)"
	UsageFormat      = "Output format: text, json"
	UsageLogLevel    = "Log level (debug, info, warn, error); overrides SPACKLE_LOG_LEVEL"
)

// Output format templates
const (
	VersionTextTemplate = "spackle version %s\nGo: %s\n"
	ListTextTemplate    = "%s\tv%d\t%s\n"
	PutTextTemplate     = "stored %s v%d (%s)\n"
	DeleteTextTemplate  = "deleted %s\n"
	FmtError            = "Error: %v\n"
	TagSeparator        = ","
	SetSeparator        = "="
)

// File permission constant
const (
	FilePermissions = 0644
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"
