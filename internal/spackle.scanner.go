package internal

import (
	"strings"
)

// Directive is one plugin placeholder found in template content.
type Directive struct {
	Full    string // complete placeholder text including delimiters
	Payload string // raw text between the plugin's opening and closing markers
}

// ClosingKey derives the closing marker for a plugin key by mirroring
// bracket characters. Keys without brackets close with themselves.
func ClosingKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		b.WriteRune(mirror(r))
	}
	return b.String()
}

func mirror(r rune) rune {
	for i := 0; i < len(MirrorPairs); i += 2 {
		switch r {
		case rune(MirrorPairs[i]):
			return rune(MirrorPairs[i+1])
		case rune(MirrorPairs[i+1]):
			return rune(MirrorPairs[i])
		}
	}
	return r
}

// FindSubstitutionNames returns the distinct plain placeholder names in
// content, in order of first appearance. Candidates starting with a reserved
// plugin key are skipped without consuming their text, so placeholders nested
// inside a directive payload are still found.
func FindSubstitutionNames(content string, reserved []string) []string {
	var names []string
	seen := make(map[string]bool)

	pos := 0
	for {
		start := strings.Index(content[pos:], StrOpenDelim)
		if start < 0 {
			break
		}
		start += pos
		inner := start + len(StrOpenDelim)

		end := strings.Index(content[inner:], StrCloseDelim)
		if end < 0 {
			break
		}
		name := content[inner : inner+end]

		// "{{{name}}}" holds the placeholder "{{name}}" one brace in
		if strings.HasPrefix(name, StrOpenBrace) {
			pos = start + 1
			continue
		}

		switch {
		case name == "":
		case strings.Contains(name, StrOpenDelim):
		case hasReservedPrefix(name, reserved):
		case seen[name]:
		default:
			seen[name] = true
			names = append(names, name)
		}

		pos = inner
	}

	return names
}

func hasReservedPrefix(name string, reserved []string) bool {
	for _, key := range reserved {
		if key != "" && strings.HasPrefix(name, key) {
			return true
		}
	}
	return false
}

// FindDirectives returns the distinct placeholders owned by the plugin with
// the given key, in order of appearance. Matching is non-greedy and payloads
// may span lines.
func FindDirectives(content, key string) []Directive {
	open := StrOpenDelim + key
	closing := ClosingKey(key) + StrCloseDelim

	var found []Directive
	seen := make(map[string]bool)

	pos := 0
	for {
		start := strings.Index(content[pos:], open)
		if start < 0 {
			break
		}
		start += pos
		body := start + len(open)

		end := strings.Index(content[body:], closing)
		if end < 0 {
			break
		}
		stop := body + end + len(closing)

		full := content[start:stop]
		if !seen[full] {
			seen[full] = true
			found = append(found, Directive{
				Full:    full,
				Payload: content[body : body+end],
			})
		}
		pos = stop
	}

	return found
}
