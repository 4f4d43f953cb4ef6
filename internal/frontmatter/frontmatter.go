// Package frontmatter reads and updates the YAML block at the top of a
// Markdown document.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"easyref/internal/editor"

	"gopkg.in/yaml.v3"
)

// ErrInvalidYAML is returned when YAML supplied by the user cannot be parsed.
var ErrInvalidYAML = errors.New("invalid YAML")

const delimiter = "---"

// Block locates the front matter. Start and End are the lines of the opening
// and closing delimiters.
type Block struct {
	Present    bool
	Start, End int
}

// Map is the decoded front matter.
type Map map[string]any

// Lookup implements editor.MetadataSource.
func (m Map) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m Map) String(key string) string {
	return editor.MetaString(m, key)
}

func (m Map) Bool(key string) bool {
	return editor.MetaBool(m, key)
}

// Pair is one key to write.
type Pair struct {
	Key   string
	Value any
}

// Find locates the front matter of buf.
func Find(buf editor.TextBuffer) Block {
	if buf.LineCount() < 2 || strings.TrimRight(buf.Line(0), " \t") != delimiter {
		return Block{}
	}
	for i := 1; i < buf.LineCount(); i++ {
		switch strings.TrimRight(buf.Line(i), " \t") {
		case delimiter, "...":
			return Block{Present: true, Start: 0, End: i}
		}
	}
	return Block{}
}

func content(buf editor.TextBuffer, b Block) []byte {
	var sb strings.Builder
	for i := b.Start + 1; i < b.End; i++ {
		sb.WriteString(buf.Line(i))
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

// Parse decodes the front matter of buf. A missing or malformed block yields
// an empty Map.
func Parse(buf editor.TextBuffer) (Map, Block) {
	b := Find(buf)
	m := Map{}
	if !b.Present {
		return m, b
	}
	if err := yaml.Unmarshal(content(buf, b), &m); err != nil || m == nil {
		return Map{}, b
	}
	return m, b
}

// Update sets pairs in the front matter of buf, creating the block when
// missing, and then merges the mapping in extraYAML. Key order is preserved
// and new keys are appended. When extraYAML is malformed the pairs are still
// written and an error wrapping ErrInvalidYAML is returned.
func Update(buf editor.TextBuffer, pairs []Pair, extraYAML string) error {
	b := Find(buf)

	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if b.Present {
		var doc yaml.Node
		if err := yaml.Unmarshal(content(buf, b), &doc); err != nil {
			return fmt.Errorf("failed to parse front matter: %w", err)
		}
		if len(doc.Content) > 0 {
			if doc.Content[0].Kind != yaml.MappingNode {
				return fmt.Errorf("front matter is not a mapping")
			}
			root = doc.Content[0]
		}
	}

	for _, p := range pairs {
		var value yaml.Node
		if err := value.Encode(p.Value); err != nil {
			return fmt.Errorf("failed to encode %s: %w", p.Key, err)
		}
		set(root, p.Key, &value)
	}

	extra, extraErr := parseExtra(extraYAML)
	if extra != nil {
		for i := 0; i+1 < len(extra.Content); i += 2 {
			set(root, extra.Content[i].Value, extra.Content[i+1])
		}
	}

	if err := write(buf, b, root); err != nil {
		return err
	}
	return extraErr
}

func parseExtra(text string) (*yaml.Node, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected a mapping", ErrInvalidYAML)
	}
	return doc.Content[0], nil
}

// Validate checks that text is empty or a YAML mapping.
func Validate(text string) error {
	_, err := parseExtra(text)
	return err
}

func set(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

func write(buf editor.TextBuffer, b Block, root *yaml.Node) error {
	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode front matter: %w", err)
	}
	body := out.String()
	if len(root.Content) == 0 {
		body = ""
	}

	if !b.Present {
		at := editor.Position{}
		buf.ReplaceRange(delimiter+"\n"+body+delimiter+"\n", at, at)
		return nil
	}
	buf.ReplaceRange(body, editor.Position{Line: b.Start + 1}, editor.Position{Line: b.End})
	return nil
}
