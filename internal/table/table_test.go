package table_test

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"testing"

	"easyref/internal/document"
	"easyref/internal/editor"
	"easyref/internal/markdown"
	"easyref/internal/table"
	"easyref/internal/tag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type meta map[string]any

func (m meta) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

var caption = regexp.MustCompile(`^: Caption \{#tbl:tbl[0-9a-z]{3}\}$`)

func newListener(autoAdd bool, parser *markdown.Parser) *table.Listener {
	return table.New(table.Config{Template: "tbl{tag:3}", AutoAdd: autoAdd}, tag.New(rand.NewPCG(7, 7)), parser)
}

func newBuffer(cursorLine int, lines ...string) *document.Document {
	d := document.New("file:///t.md", 1, strings.Join(lines, "\n"))
	d.SetCursor(editor.Position{Line: cursorLine, Ch: len(lines[cursorLine])})
	return d
}

func TestTableAtEndOfDocument(t *testing.T) {
	l := newListener(true, nil)
	buf := newBuffer(0,
		"| a | b |",
		"|---|---|",
		"| 1 | 2 |",
	)

	require.True(t, l.OnChange(buf, editor.NoMetadata{}))
	require.Equal(t, 5, buf.LineCount())
	assert.Equal(t, "| 1 | 2 |", buf.Line(2))
	assert.Regexp(t, caption, buf.Line(3))
	assert.Equal(t, "", buf.Line(4))

	before := buf.Text()
	assert.False(t, l.OnChange(buf, editor.NoMetadata{}), "second pass must not insert again")
	assert.Equal(t, before, buf.Text())
}

func TestTableFollowedByText(t *testing.T) {
	l := newListener(true, nil)
	buf := newBuffer(0,
		"| a | b |",
		"| :-- | --: |",
		"",
		"text",
	)

	p, ok := l.Plan(buf, editor.NoMetadata{})
	require.True(t, ok)
	assert.Equal(t, editor.Position{Line: 2}, p.At)
	assert.Equal(t, 0, p.Header)

	require.True(t, l.OnChange(buf, editor.NoMetadata{}))
	assert.Regexp(t, caption, buf.Line(2))
	assert.Equal(t, "", buf.Line(3))
	assert.Equal(t, "text", buf.Line(4))
	assert.Equal(t, 0, buf.Cursor().Line)

	assert.False(t, l.OnChange(buf, editor.NoMetadata{}))
}

func TestTablePolicy(t *testing.T) {
	lines := []string{"| a |", "|---|", "| 1 |", "", "end"}

	tests := []struct {
		name    string
		autoAdd bool
		meta    editor.MetadataSource
		want    bool
	}{
		{name: "off", meta: editor.NoMetadata{}},
		{name: "global", autoAdd: true, meta: editor.NoMetadata{}, want: true},
		{name: "document opt-in", meta: meta{"autoAddTblRef": true}, want: true},
		{name: "document non-bool", meta: meta{"autoAddTblRef": "true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := newListener(tt.autoAdd, nil).Plan(newBuffer(0, lines...), tt.meta)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestNoTable(t *testing.T) {
	tests := []struct {
		name   string
		cursor int
		lines  []string
	}{
		{name: "no separator", lines: []string{"| a |", "| b |"}},
		{name: "last line", lines: []string{"| a |"}},
		{name: "not a header", lines: []string{"a | b", "|---|"}},
		{name: "cursor below table", cursor: 3, lines: []string{"| a |", "|---|", "| 1 |", "x"}},
		{name: "existing caption", lines: []string{"| a |", "|---|", ": Prices {#tbl:p}", "x"}},
	}

	l := newListener(true, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := l.Plan(newBuffer(tt.cursor, tt.lines...), editor.NoMetadata{})
			assert.False(t, ok)
		})
	}
}

func TestTableInCodeBlock(t *testing.T) {
	parser := markdown.NewParser()
	defer parser.Close()

	lines := []string{"```", "| a |", "|---|", "```", ""}
	_, ok := newListener(true, parser).Plan(newBuffer(1, lines...), editor.NoMetadata{})
	assert.False(t, ok)

	_, ok = newListener(true, nil).Plan(newBuffer(1, lines...), editor.NoMetadata{})
	assert.True(t, ok)
}

func TestDetectFromSeparator(t *testing.T) {
	buf := newBuffer(1, "| a | b |", "|---|---|", "", "text")

	header, ok := table.Detect(buf)
	require.True(t, ok)
	assert.Equal(t, 0, header)

	p, ok := newListener(true, nil).Plan(buf, editor.NoMetadata{})
	require.True(t, ok)
	assert.Equal(t, editor.Position{Line: 2}, p.At)
}

func TestLastRow(t *testing.T) {
	buf := newBuffer(0, "| a |", "|---|", "| 1 |", "| 2 |", "after")
	assert.Equal(t, 3, table.LastRow(buf, 0))
}
