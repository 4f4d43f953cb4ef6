package frontmatter_test

import (
	"strings"
	"testing"

	"easyref/internal/document"
	"easyref/internal/frontmatter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuffer(lines ...string) *document.Document {
	return document.New("file:///f.md", 1, strings.Join(lines, "\n"))
}

func TestParse(t *testing.T) {
	buf := newBuffer(
		"---",
		"figureTitle: Fig",
		"autoAddTblRef: true",
		"---",
		"# Body",
	)

	m, b := frontmatter.Parse(buf)
	assert.Equal(t, frontmatter.Block{Present: true, Start: 0, End: 3}, b)
	assert.Equal(t, "Fig", m.String("figureTitle"))
	assert.True(t, m.Bool("autoAddTblRef"))
	assert.False(t, m.Bool("autoAddFigRef"))

	v, ok := m.Lookup("figureTitle")
	assert.True(t, ok)
	assert.Equal(t, "Fig", v)
}

func TestParseWithoutFrontMatter(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{name: "plain", lines: []string{"# Title", "text"}},
		{name: "unterminated", lines: []string{"---", "a: 1", "text"}},
		{name: "not first line", lines: []string{"", "---", "a: 1", "---"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, b := frontmatter.Parse(newBuffer(tt.lines...))
			assert.False(t, b.Present)
			assert.Empty(t, m)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	m, b := frontmatter.Parse(newBuffer("---", "a: [1", "---"))
	assert.True(t, b.Present)
	assert.Empty(t, m)
}

func TestUpdateCreatesBlock(t *testing.T) {
	buf := newBuffer("# Title", "text")

	err := frontmatter.Update(buf, []frontmatter.Pair{
		{Key: "figureTitle", Value: "Figure"},
		{Key: "linkReferences", Value: false},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"---",
		"figureTitle: Figure",
		"linkReferences: false",
		"---",
		"# Title",
		"text",
	}, "\n"), buf.Text())
}

func TestUpdateKeepsOrder(t *testing.T) {
	buf := newBuffer(
		"---",
		"title: Paper",
		"figureTitle: Old",
		"author: Me",
		"---",
		"body",
	)

	err := frontmatter.Update(buf, []frontmatter.Pair{
		{Key: "figureTitle", Value: "Figure"},
		{Key: "figPrefix", Value: []string{"Fig.", "Figs."}},
	}, "numberSections: true\ntitle: Report\n")
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"---",
		"title: Report",
		"figureTitle: Figure",
		"author: Me",
		"figPrefix:",
		"  - Fig.",
		"  - Figs.",
		"numberSections: true",
		"---",
		"body",
	}, "\n"), buf.Text())
}

func TestUpdateInvalidExtra(t *testing.T) {
	tests := []struct {
		name  string
		extra string
	}{
		{name: "syntax", extra: "a: [1"},
		{name: "scalar", extra: "just text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := newBuffer("body")
			err := frontmatter.Update(buf, []frontmatter.Pair{{Key: "tableTitle", Value: "Table"}}, tt.extra)
			require.ErrorIs(t, err, frontmatter.ErrInvalidYAML)

			// Pairs are written regardless.
			m, _ := frontmatter.Parse(buf)
			assert.Equal(t, "Table", m.String("tableTitle"))
		})
	}
}

func TestUpdateRecordsSingleEdit(t *testing.T) {
	doc := newBuffer("---", "a: 1", "---", "body")
	snap := doc.Snapshot()

	require.NoError(t, frontmatter.Update(snap, []frontmatter.Pair{{Key: "b", Value: 2}}, ""))
	edits := snap.Edits()
	require.Len(t, edits, 1)
	assert.EqualValues(t, 1, edits[0].Range.Start.Line)
	assert.EqualValues(t, 2, edits[0].Range.End.Line)
	assert.Equal(t, "a: 1\nb: 2\n", edits[0].NewText)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, frontmatter.Validate(""))
	assert.NoError(t, frontmatter.Validate("a: 1"))
	assert.ErrorIs(t, frontmatter.Validate("- a"), frontmatter.ErrInvalidYAML)
}
