package spackle

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a template file split into its front matter and body.
type Document struct {
	// Substitutions seeds the engine's substitution table.
	Substitutions map[string]any `yaml:"substitutions"`
	// Bind becomes the engine's bound object when set.
	Bind any `yaml:"bind"`
	// Body is the template text after the front matter.
	Body string `yaml:"-"`
}

// ParseFrontmatter splits data into optional YAML front matter and the
// template body. Content that does not start with a "---" line is returned
// unchanged as the body.
func ParseFrontmatter(data []byte) (*Document, error) {
	content := string(data)

	afterOpening, ok := cutOpeningDelimiter(content)
	if !ok {
		return &Document{Body: content}, nil
	}

	var fmYAML, body string
	switch {
	case strings.HasPrefix(afterOpening, YAMLFrontmatterDelimiter):
		// empty front matter block
		body = afterOpening[len(YAMLFrontmatterDelimiter):]
	default:
		closeIdx := strings.Index(afterOpening, "\n"+YAMLFrontmatterDelimiter)
		if closeIdx == -1 {
			return nil, NewFrontmatterError(ErrMsgFrontmatterUnclosed, nil)
		}
		fmYAML = afterOpening[:closeIdx]
		body = afterOpening[closeIdx+len("\n"+YAMLFrontmatterDelimiter):]
	}

	if len(fmYAML) > DefaultMaxFrontmatterSize {
		return nil, NewFrontmatterError(ErrMsgFrontmatterTooLarge, nil)
	}

	if strings.HasPrefix(body, "\r\n") {
		body = body[2:]
	} else if strings.HasPrefix(body, "\n") {
		body = body[1:]
	}

	doc := &Document{}
	if err := yaml.Unmarshal([]byte(fmYAML), doc); err != nil {
		return nil, NewFrontmatterError(ErrMsgFrontmatterInvalid, err)
	}
	doc.Body = body
	return doc, nil
}

// cutOpeningDelimiter reports whether content opens with a "---" line and
// returns the text after it.
func cutOpeningDelimiter(content string) (string, bool) {
	content = strings.TrimPrefix(content, "\xef\xbb\xbf")
	if !strings.HasPrefix(content, YAMLFrontmatterDelimiter) {
		return "", false
	}
	rest := content[len(YAMLFrontmatterDelimiter):]
	switch {
	case strings.HasPrefix(rest, "\n"):
		return rest[1:], true
	case strings.HasPrefix(rest, "\r\n"):
		return rest[2:], true
	default:
		return "", false
	}
}
