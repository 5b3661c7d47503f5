package internal

// Placeholder delimiters
const (
	StrOpenDelim  = "{{"
	StrOpenBrace  = "{"
	StrCloseDelim = "}}"
)

// Bracket pairs mirrored when deriving a plugin's closing marker
const (
	MirrorPairs = "<>()[]"
)

// Script statement keywords
const (
	KeywordEcho  = "echo"
	KeywordPrint = "print"
	KeywordLet   = "let"
)

// Script environment names
const (
	ScriptVarThis          = "this"
	ScriptFuncDefinition   = "subdef"
	ScriptFuncSubstitution = "sub"
)

// Character constants
const (
	CharSemicolon   = ';'
	CharComma       = ','
	CharEquals      = '='
	CharBackslash   = '\\'
	CharSingleQuote = '\''
	CharDoubleQuote = '"'
	CharBacktick    = '`'
	CharUnderscore  = '_'
)

// DefaultMaxPrograms bounds the compiled-program cache of a ScriptRunner.
const DefaultMaxPrograms = 512

// Literal text for values that have no natural text form
const (
	NullLiteral = "null"
)

// Log message constants
const (
	LogMsgRegistryCreated    = "plugin registry created"
	LogMsgPluginRegistered   = "plugin registered"
	LogMsgPluginCollision    = "plugin registration collision - first-come-wins"
	LogMsgScriptRunnerCreate = "script runner created"
	LogMsgScriptCompiled     = "script expression compiled"
	LogMsgScriptFailed       = "script statement failed"
)

// Log field names
const (
	LogFieldKey         = "key"
	LogFieldExisting    = "existing"
	LogFieldExpression  = "expression"
	LogFieldMaxPrograms = "max_programs"
	LogFieldStatement   = "statement"
	LogFieldIndex       = "index"
)

// Registry error messages
const (
	ErrMsgNilPlugin           = "plugin cannot be nil"
	ErrMsgEmptyKey            = "plugin key cannot be empty"
	ErrMsgInvalidKey          = "plugin key contains whitespace or braces"
	ErrMsgPluginAlreadyExists = "plugin already registered for key"
	ErrFmtKeyMessage          = "%s: %s"
	ErrFmtStatementMessage    = "%s (statement %d: %q)"
	ErrFmtDefinitionMissing   = "substitution definition %d not found"
	ErrFmtWrap                = "%s: %w"
)

// Script error messages
const (
	ErrMsgUnterminatedString = "unterminated string literal in code block"
	ErrMsgEmptyEcho          = "echo requires at least one expression"
	ErrMsgInvalidLet         = "let requires the form: let name = expression"
	ErrMsgReservedName       = "cannot assign to reserved name"
	ErrMsgScriptCompile      = "code block expression failed to compile"
	ErrMsgScriptRun          = "code block expression failed"
	ErrMsgSubstitutionAbsent = "substitution not set"
)
