// Package spackle provides a text-template engine with embedded code blocks
// and a plugin architecture.
//
// Spackle templates use {{ and }} delimiters for three kinds of placeholders:
//
//	Hello, {{name}}!                          plain substitution
//	{{>echo 'computed: ' + string(2+2);<}}    code block
//	{{url nf url}}                            plugin directive
//
// # Basic Usage
//
//	e := spackle.New("Hello, {{name}}! {{>echo 'computed: ' + string(2+2);<}}",
//	    map[string]any{"name": "World"})
//	out, err := e.Parse(ctx)
//	// out: "Hello, World! computed: 4"
//
// # Substitutions
//
// Strings and numbers are inserted as text. Callables (SubstitutionFunc,
// func() any, func() string) are invoked at parse time with the bound object.
// Any other value is kept in the engine's Definitions and the placeholder is
// rewritten to subdef(<index>), so code blocks receive the value itself:
//
//	e := spackle.New("{{>echo len({{items}});<}}",
//	    map[string]any{"items": []any{"a", "b"}})
//	// "2"
//
// # Code Blocks
//
// A code block holds `;`-separated statements. `echo e1, e2` and `print e`
// write values, `let x = e` binds a local name and any other statement is
// evaluated and discarded. Expressions use expr-lang syntax and can reach
// `this` (the bound object, or the engine), `subdef(i)` and `sub(name)`.
//
// # Plugins
//
// A plugin owns a delimiter key. Bracket characters in the key are mirrored
// to form the closing marker, other keys close with themselves:
//
//	url := spackle.NewPlugin("url", func(ctx context.Context, s *spackle.Scope, payload string) (any, error) {
//	    return "https://localhost/" + payload, nil
//	})
//	spackle.MustRegisterPlugin(url)             // every engine
//	e.MustAddPlugin(spackle.NewEnvPlugin())     // this engine only
//
// # Error Handling
//
// Resolution errors (missing substitutions, failing plugins or code blocks)
// are logged and parsing continues by default. WithErrorStrategy selects
// removing, keeping the raw placeholder, or returning the error from Parse.
// Configuration errors such as plugin key collisions are returned as
// *cuserr.CustomError.
//
// # Storage
//
// Templates can be stored in memory, on the filesystem or in PostgreSQL and
// composed with the include plugin:
//
//	storage, _ := spackle.OpenStorage("filesystem", "./templates")
//	e, err := spackle.NewFromStorage(ctx, storage, "mail/welcome", subs,
//	    spackle.WithPlugins(spackle.NewIncludePlugin()))
package spackle
