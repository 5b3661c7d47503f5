package spackle

import (
	"context"

	"github.com/itsatony/go-spackle/internal"
)

// codeBlock is the built-in plugin for {{> statements <}}.
//
// Statements are separated by `;`. `echo e1, e2` and `print e` write values
// to the output, `let x = e` binds a block-local name, anything else is
// evaluated and discarded. Expressions use expr-lang syntax and see `this`,
// `subdef(i)` and `sub(name)`.
type codeBlock struct {
	runner *internal.ScriptRunner
}

func newCodeBlockPlugin() *codeBlock {
	return &codeBlock{runner: internal.NewScriptRunner(nil, internal.DefaultMaxPrograms)}
}

// Key returns CodeBlockKey.
func (c *codeBlock) Key() string {
	return CodeBlockKey
}

// Parse runs the statements and returns the captured output. On failure the
// output written before the failing statement is returned with the error.
func (c *codeBlock) Parse(_ context.Context, scope *Scope, payload string) (any, error) {
	out, err := c.runner.Run(payload, internal.ScriptEnv{
		Self:         scope.Self(),
		Definition:   scope.Definition,
		Substitution: scope.Substitution,
	})
	if err != nil {
		return out, err
	}
	return out, nil
}
