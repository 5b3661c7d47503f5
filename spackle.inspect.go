package spackle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/itsatony/go-spackle/internal"
)

// MaxSuggestions bounds "did you mean" candidates for a missing substitution.
const MaxSuggestions = 3

// Inspection is a static report on an engine's template source. Nothing is
// evaluated: callables are not invoked and plugins are not run, so
// placeholders produced at parse time are not listed.
type Inspection struct {
	// Substitutions lists plain placeholders in order of first appearance.
	Substitutions []SubstitutionRef `json:"substitutions"`

	// Directives lists plugin placeholders in plugin evaluation order.
	Directives []DirectiveRef `json:"directives"`

	// Missing names placeholders without a substitution.
	Missing []string `json:"missing"`

	// Unused names substitutions no placeholder refers to.
	Unused []string `json:"unused"`
}

// SubstitutionRef is one plain placeholder.
type SubstitutionRef struct {
	Name        string   `json:"name"`
	Line        int      `json:"line"`
	Set         bool     `json:"set"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// DirectiveRef is one plugin placeholder.
type DirectiveRef struct {
	Key     string `json:"key"`
	Payload string `json:"payload"`
	Line    int    `json:"line"`
}

// OK reports whether every placeholder has a substitution.
func (i *Inspection) OK() bool {
	return len(i.Missing) == 0
}

// String renders the report as text.
func (i *Inspection) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, InspectTextSubstitutions, len(i.Substitutions))
	for _, s := range i.Substitutions {
		if s.Set {
			fmt.Fprintf(&sb, InspectTextSet, s.Name, s.Line)
			continue
		}
		fmt.Fprintf(&sb, InspectTextMissing, s.Name, s.Line)
		if len(s.Suggestions) > 0 {
			fmt.Fprintf(&sb, InspectTextSuggestions, strings.Join(s.Suggestions, ", "))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, InspectTextDirectives, len(i.Directives))
	for _, d := range i.Directives {
		fmt.Fprintf(&sb, InspectTextDirective, d.Key, d.Payload, d.Line)
	}

	if len(i.Unused) > 0 {
		fmt.Fprintf(&sb, InspectTextUnused, strings.Join(i.Unused, ", "))
	}
	fmt.Fprintf(&sb, InspectTextSummary, len(i.Missing), len(i.Unused))
	return sb.String()
}

// Inspect reports the placeholders of the engine's source and how they match
// its substitutions and plugins.
func (e *Engine) Inspect() *Inspection {
	plugins := e.allPlugins()
	keys := pluginKeys(plugins)
	known := e.substitutionNames()

	result := &Inspection{
		Substitutions: []SubstitutionRef{},
		Directives:    []DirectiveRef{},
		Missing:       []string{},
		Unused:        []string{},
	}

	referenced := make(map[string]bool)
	for _, name := range internal.FindSubstitutionNames(e.source, keys) {
		referenced[name] = true
		ref := SubstitutionRef{
			Name: name,
			Line: internal.LineOf(e.source, strings.Index(e.source, DefaultOpenDelim+name+DefaultCloseDelim)),
		}
		if _, ok := e.substitutions[name]; ok {
			ref.Set = true
		} else {
			ref.Suggestions = internal.FindSimilarStrings(name, known, MaxSuggestions)
			result.Missing = append(result.Missing, name)
		}
		result.Substitutions = append(result.Substitutions, ref)
	}

	for _, p := range plugins {
		key := p.Key()
		for _, d := range internal.FindDirectives(e.source, key) {
			result.Directives = append(result.Directives, DirectiveRef{
				Key:     key,
				Payload: strings.TrimSpace(d.Payload),
				Line:    internal.LineOf(e.source, strings.Index(e.source, d.Full)),
			})
		}
	}

	for _, name := range known {
		if !referenced[name] {
			result.Unused = append(result.Unused, name)
		}
	}
	return result
}

// substitutionNames returns the sorted names in the substitution table.
func (e *Engine) substitutionNames() []string {
	names := make([]string, 0, len(e.substitutions))
	for name := range e.substitutions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
