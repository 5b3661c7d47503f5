package internal

import (
	"container/list"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.uber.org/zap"
)

// ScriptEnv carries the explicit evaluation context of one code block.
type ScriptEnv struct {
	// Self is exposed as `this`: the bound object, or the engine when unbound.
	Self any
	// Definition looks up a substitution definition by index.
	Definition func(index int) (any, bool)
	// Substitution looks up a resolved substitution value by name.
	Substitution func(name string) (any, bool)
}

// ScriptRunner executes code blocks: `;`-separated statements whose
// expressions are evaluated with expr-lang. Compiled programs are cached per
// expression and environment signature, up to maxPrograms entries; the least
// recently used program is evicted first.
type ScriptRunner struct {
	programMu   sync.Mutex
	programs    map[string]*list.Element
	recent      *list.List // front = most recently used
	maxPrograms int
	logger      *zap.Logger
}

type cachedProgram struct {
	key     string
	program *vm.Program
}

// NewScriptRunner creates a new script runner. maxPrograms <= 0 selects
// DefaultMaxPrograms.
func NewScriptRunner(logger *zap.Logger, maxPrograms int) *ScriptRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxPrograms <= 0 {
		maxPrograms = DefaultMaxPrograms
	}
	logger.Debug(LogMsgScriptRunnerCreate, zap.Int(LogFieldMaxPrograms, maxPrograms))
	return &ScriptRunner{
		programs:    make(map[string]*list.Element),
		recent:      list.New(),
		maxPrograms: maxPrograms,
		logger:      logger,
	}
}

// Run executes code and returns everything written by echo/print statements.
// The first failing statement stops the block; the output captured before it
// is returned alongside the error.
func (r *ScriptRunner) Run(code string, env ScriptEnv) (string, error) {
	statements, err := SplitTopLevel(code, CharSemicolon)
	if err != nil {
		return "", err
	}

	vars := r.vars(env)
	var out strings.Builder

	for i, stmt := range statements {
		if err := r.exec(stmt, vars, &out); err != nil {
			r.logger.Debug(LogMsgScriptFailed,
				zap.Int(LogFieldIndex, i),
				zap.String(LogFieldStatement, stmt),
				zap.Error(err),
			)
			return out.String(), &ScriptError{Index: i, Statement: stmt, Cause: err}
		}
	}

	return out.String(), nil
}

func (r *ScriptRunner) vars(env ScriptEnv) map[string]any {
	definition := env.Definition
	substitution := env.Substitution

	return map[string]any{
		ScriptVarThis: env.Self,
		ScriptFuncDefinition: func(index int) (any, error) {
			if definition == nil {
				return nil, fmt.Errorf(ErrFmtDefinitionMissing, index)
			}
			v, ok := definition(index)
			if !ok {
				return nil, fmt.Errorf(ErrFmtDefinitionMissing, index)
			}
			return v, nil
		},
		ScriptFuncSubstitution: func(name string) (any, error) {
			if substitution == nil {
				return nil, fmt.Errorf(ErrFmtKeyMessage, ErrMsgSubstitutionAbsent, name)
			}
			v, ok := substitution(name)
			if !ok {
				return nil, fmt.Errorf(ErrFmtKeyMessage, ErrMsgSubstitutionAbsent, name)
			}
			return v, nil
		},
	}
}

func (r *ScriptRunner) exec(stmt string, vars map[string]any, out *strings.Builder) error {
	if rest, ok := cutKeyword(stmt, KeywordEcho); ok {
		return r.echo(rest, vars, out)
	}
	if rest, ok := cutKeyword(stmt, KeywordPrint); ok {
		return r.echo(rest, vars, out)
	}
	if rest, ok := cutKeyword(stmt, KeywordLet); ok {
		name, expression, ok := cutAssignment(rest)
		if !ok {
			return errors.New(ErrMsgInvalidLet)
		}
		if isReservedName(name) {
			return fmt.Errorf(ErrFmtKeyMessage, ErrMsgReservedName, name)
		}
		val, err := r.Eval(expression, vars)
		if err != nil {
			return err
		}
		vars[name] = val
		return nil
	}

	_, err := r.Eval(stmt, vars)
	return err
}

func (r *ScriptRunner) echo(args string, vars map[string]any, out *strings.Builder) error {
	exprs, err := SplitTopLevel(args, CharComma)
	if err != nil {
		return err
	}
	if len(exprs) == 0 {
		return errors.New(ErrMsgEmptyEcho)
	}
	for _, e := range exprs {
		val, err := r.Eval(e, vars)
		if err != nil {
			return err
		}
		out.WriteString(FormatEcho(val))
	}
	return nil
}

// Eval evaluates a single expr-lang expression against vars.
func (r *ScriptRunner) Eval(expression string, vars map[string]any) (any, error) {
	program, err := r.compile(expression, vars)
	if err != nil {
		return nil, fmt.Errorf(ErrFmtWrap, ErrMsgScriptCompile, err)
	}

	result, err := expr.Run(program, vars)
	if err != nil {
		return nil, fmt.Errorf(ErrFmtWrap, ErrMsgScriptRun, err)
	}
	return result, nil
}

func (r *ScriptRunner) compile(expression string, vars map[string]any) (*vm.Program, error) {
	cacheKey := expression + "\x00" + envSignature(vars)

	if program, ok := r.lookup(cacheKey); ok {
		return program, nil
	}

	program, err := expr.Compile(expression, expr.Env(vars), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}

	r.store(cacheKey, program)
	r.logger.Debug(LogMsgScriptCompiled, zap.String(LogFieldExpression, expression))
	return program, nil
}

func (r *ScriptRunner) lookup(key string) (*vm.Program, bool) {
	r.programMu.Lock()
	defer r.programMu.Unlock()

	elem, ok := r.programs[key]
	if !ok {
		return nil, false
	}
	r.recent.MoveToFront(elem)
	return elem.Value.(*cachedProgram).program, true
}

func (r *ScriptRunner) store(key string, program *vm.Program) {
	r.programMu.Lock()
	defer r.programMu.Unlock()

	if elem, ok := r.programs[key]; ok {
		r.recent.MoveToFront(elem)
		return
	}
	r.programs[key] = r.recent.PushFront(&cachedProgram{key: key, program: program})

	for r.recent.Len() > r.maxPrograms {
		oldest := r.recent.Back()
		r.recent.Remove(oldest)
		delete(r.programs, oldest.Value.(*cachedProgram).key)
	}
}

// CachedPrograms returns the number of compiled programs held by the runner.
func (r *ScriptRunner) CachedPrograms() int {
	r.programMu.Lock()
	defer r.programMu.Unlock()
	return len(r.programs)
}

func envSignature(vars map[string]any) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+fmt.Sprintf("%T", vars[k]))
	}
	return strings.Join(parts, ",")
}

func isReservedName(name string) bool {
	switch name {
	case ScriptVarThis, ScriptFuncDefinition, ScriptFuncSubstitution:
		return true
	default:
		return false
	}
}

// ScriptError reports the statement that stopped a code block.
type ScriptError struct {
	Index     int
	Statement string
	Cause     error
}

// Error implements the error interface
func (e *ScriptError) Error() string {
	return fmt.Sprintf(ErrFmtStatementMessage, e.Cause.Error(), e.Index, e.Statement)
}

// Unwrap returns the underlying cause.
func (e *ScriptError) Unwrap() error {
	return e.Cause
}
