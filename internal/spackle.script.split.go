package internal

import (
	"errors"
	"strings"
	"unicode"
)

// SplitTopLevel splits s on sep wherever sep is outside string literals and
// brackets. Parts are trimmed; empty parts are dropped.
func SplitTopLevel(s string, sep rune) ([]string, error) {
	var (
		parts []string
		quote rune
		depth int
		start int
	)

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if quote != 0 {
			switch r {
			case CharBackslash:
				i++
			case quote:
				quote = 0
			}
			continue
		}

		switch r {
		case CharSingleQuote, CharDoubleQuote, CharBacktick:
			quote = r
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = appendPart(parts, string(runes[start:i]))
				start = i + 1
			}
		}
	}

	if quote != 0 {
		return nil, errors.New(ErrMsgUnterminatedString)
	}

	return appendPart(parts, string(runes[start:])), nil
}

func appendPart(parts []string, part string) []string {
	part = strings.TrimSpace(part)
	if part == "" {
		return parts
	}
	return append(parts, part)
}

// cutKeyword reports whether stmt starts with the keyword kw as a whole word
// and returns the remainder.
func cutKeyword(stmt, kw string) (string, bool) {
	if !strings.HasPrefix(stmt, kw) {
		return "", false
	}
	rest := stmt[len(kw):]
	if rest == "" {
		return "", true
	}
	next := []rune(rest)[0]
	if isIdentRune(next) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// cutAssignment splits "name = expression". A leading "==" is not an assignment.
func cutAssignment(s string) (string, string, bool) {
	idx := strings.IndexRune(s, CharEquals)
	if idx <= 0 || idx+1 >= len(s) || s[idx+1] == CharEquals {
		return "", "", false
	}
	name := strings.TrimSpace(s[:idx])
	expression := strings.TrimSpace(s[idx+1:])
	if !isIdentifier(name) || expression == "" {
		return "", "", false
	}
	return name, expression, true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && unicode.IsDigit(r) {
			return false
		}
		if !isIdentRune(r) {
			return false
		}
	}
	return true
}

func isIdentRune(r rune) bool {
	return r == CharUnderscore || unicode.IsLetter(r) || unicode.IsDigit(r)
}
