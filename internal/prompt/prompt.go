// Package prompt loads step prompt templates and merges the previous step's
// output into them.
//
// A template is plain text containing the [Placeholder] token, optionally
// preceded by a YAML front matter block:
//
//	---
//	model: claude-sonnet-4-5
//	description: Turn the raw idea into a PRD
//	---
//	Write a PRD for:
//	<prev_step></prev_step>
//
// The previous step's file is inserted verbatim wherever the placeholder
// appears.
package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Placeholder marks where the previous step's content is inserted.
const Placeholder = "<prev_step></prev_step>"

// ErrTemplateMissing indicates a step's prompt template file does not exist.
var ErrTemplateMissing = errors.New("prompt template not found")

// Meta is the optional front matter of a template.
type Meta struct {
	// Model overrides the provider model for this step in direct-API mode.
	Model string `yaml:"model"`

	// Description is printed by next.
	Description string `yaml:"description"`
}

// Template is a parsed prompt template.
type Template struct {
	Path string
	Meta Meta
	Body string
}

// Load reads and parses the template at path.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, path)
		}
		return nil, fmt.Errorf("failed to read prompt template %s: %w", path, err)
	}

	tmpl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template %s: %w", path, err)
	}
	tmpl.Path = path
	return tmpl, nil
}

// Parse splits optional front matter from the template body.
//
// A leading "---" block only counts as front matter when it is a YAML
// mapping. Anything else, such as a markdown rule, stays part of the body.
func Parse(data []byte) (*Template, error) {
	front, body, ok := splitFrontMatter(data)
	if !ok {
		return &Template{Body: string(data)}, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(front, &doc); err != nil || !isMapping(&doc) {
		return &Template{Body: string(data)}, nil
	}

	var meta Meta
	if err := doc.Decode(&meta); err != nil {
		return nil, fmt.Errorf("invalid front matter: %w", err)
	}
	return &Template{Meta: meta, Body: string(body)}, nil
}

func isMapping(doc *yaml.Node) bool {
	return doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 && doc.Content[0].Kind == yaml.MappingNode
}

// HasPlaceholder reports whether the body contains [Placeholder].
func (t *Template) HasPlaceholder() bool {
	return strings.Contains(t.Body, Placeholder)
}

// Merge returns the body with every placeholder replaced by previous.
func (t *Template) Merge(previous string) string {
	return Merge(t.Body, previous)
}

// Merge replaces every occurrence of [Placeholder] in body with previous.
func Merge(body, previous string) string {
	return strings.ReplaceAll(body, Placeholder, previous)
}

func splitFrontMatter(data []byte) (front, body []byte, ok bool) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	var rest []byte
	switch {
	case bytes.HasPrefix(data, []byte("---\n")):
		rest = data[4:]
	case bytes.HasPrefix(data, []byte("---\r\n")):
		rest = data[5:]
	default:
		return nil, nil, false
	}

	for offset := 0; offset <= len(rest); {
		end := bytes.IndexByte(rest[offset:], '\n')
		var line []byte
		next := len(rest) + 1
		if end < 0 {
			line = rest[offset:]
		} else {
			line = rest[offset : offset+end]
			next = offset + end + 1
		}
		if string(bytes.TrimRight(line, "\r")) == "---" {
			if next > len(rest) {
				return rest[:offset], nil, true
			}
			return rest[:offset], rest[next:], true
		}
		offset = next
	}

	return nil, nil, false
}
