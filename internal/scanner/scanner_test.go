package scanner_test

import (
	"strings"
	"testing"

	"easyref/internal/document"
	"easyref/internal/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type meta map[string]any

func (m meta) Lookup(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func newBuffer(lines ...string) *document.Document {
	return document.New("file:///test.md", 1, strings.Join(lines, "\n"))
}

func labels(entities []scanner.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Label
	}
	return out
}

func TestScanSectionNumbering(t *testing.T) {
	buf := newBuffer(
		"# One",
		"## One.One",
		"text",
		"## One.Two {#sec:two}",
		"### Deep",
		"# Two",
		"## Two.One",
	)

	entities := scanner.All(buf, scanner.Section, scanner.Options{})
	require.Len(t, entities, 6)

	numbers := make([]string, len(entities))
	for i, e := range entities {
		numbers[i] = e.Number
	}
	assert.Equal(t, []string{"1", "1.1", "1.2", "1.2.1", "2", "2.1"}, numbers)

	assert.Equal(t, "1.2|One.Two", entities[2].Label)
	assert.Equal(t, "two", entities[2].ID)
	assert.True(t, entities[2].Explicit)
	assert.Equal(t, "2|two", entities[2].Key())

	assert.Equal(t, "1-0", entities[0].ID)
	assert.Equal(t, "1-0", entities[0].Key())
	assert.False(t, entities[0].Explicit)
	assert.Equal(t, "3-4", entities[3].ID)
	assert.Equal(t, 4, entities[3].Line)
}

func TestScanSectionSkippedLevel(t *testing.T) {
	buf := newBuffer("### Starts deep", "# Top", "### Deep again")
	got := labels(scanner.All(buf, scanner.Section, scanner.Options{}))
	assert.Equal(t, []string{"0.0.1|Starts deep", "1|Top", "1.0.1|Deep again"}, got)
}

func TestScanSubFigures(t *testing.T) {
	buf := newBuffer(
		`<div id="fig:group">`,
		"![first](a.png){#fig:a}",
		"![second](b.png){#fig:b}",
		"![third](c.png){#fig:c}",
		"Group caption",
		"</div>",
		"![plain](d.png){#fig:d}",
	)

	entities := scanner.All(buf, scanner.Figure, scanner.Options{})
	assert.Equal(t, []string{
		"Figure 1(a): first",
		"Figure 1(b): second",
		"Figure 1(c): third",
		"Figure 2: plain",
	}, labels(entities))
	assert.Equal(t, "d", entities[3].ID)
	assert.Equal(t, 6, entities[3].Line)
}

func TestScanFiguresTitleFromMetadata(t *testing.T) {
	buf := newBuffer(
		"![one](1.png){#fig:x1}",
		"![not tagged](2.png)",
		"![two](3.png){#fig:x2}",
	)

	got := labels(scanner.All(buf, scanner.Figure, scanner.Options{
		Metadata:    meta{"figureTitle": "Abb."},
		FigureTitle: "Figure",
	}))
	assert.Equal(t, []string{"Abb. 1: one", "Abb. 2: two"}, got)

	got = labels(scanner.All(buf, scanner.Figure, scanner.Options{FigureTitle: "图"}))
	assert.Equal(t, []string{"图 1: one", "图 2: two"}, got)
}

func TestScanTables(t *testing.T) {
	buf := newBuffer(
		"| a | b |",
		"|---|---|",
		"| 1 | 2 |",
		":  Results   {#tbl:res}",
		"",
		": not a tagged caption",
		": Second {#tbl:two} trailing",
		": Third {#tbl:three}",
	)

	entities := scanner.All(buf, scanner.Table, scanner.Options{Metadata: meta{"tableTitle": "Tab."}})
	assert.Equal(t, []string{"Tab. 1: Results", "Tab. 2: Third"}, labels(entities))
	assert.Equal(t, "res", entities[0].ID)
	assert.Equal(t, 3, entities[0].Line)
}

func TestScanIsRestartable(t *testing.T) {
	buf := newBuffer("![a](a.png){#fig:a}", "![b](b.png){#fig:b}")
	seq := scanner.Scan(buf, scanner.Figure, scanner.Options{})

	for e := range seq {
		assert.Equal(t, "Figure 1: a", e.Label)
		break
	}
	var second []scanner.Entity
	for e := range seq {
		second = append(second, e)
	}
	assert.Equal(t, []string{"Figure 1: a", "Figure 2: b"}, labels(second))
}

func TestLetter(t *testing.T) {
	assert.Equal(t, "a", scanner.Letter(0))
	assert.Equal(t, "z", scanner.Letter(25))
	assert.Equal(t, "aa", scanner.Letter(26))
	assert.Equal(t, "az", scanner.Letter(51))
	assert.Equal(t, "ba", scanner.Letter(52))
	assert.Equal(t, "", scanner.Letter(-1))
}

func TestMatches(t *testing.T) {
	fig := scanner.Entity{ID: "figab1", Kind: scanner.Figure}
	assert.True(t, scanner.Matches(fig, ""))
	assert.True(t, scanner.Matches(fig, "ab"))
	assert.False(t, scanner.Matches(fig, "zz"))

	synthetic := scanner.Entity{ID: "2-7", Kind: scanner.Section, Title: "Introduction"}
	assert.True(t, scanner.Matches(synthetic, "intro"))

	explicit := scanner.Entity{ID: "secx", Kind: scanner.Section, Title: "Methods", Explicit: true}
	assert.False(t, scanner.Matches(explicit, "meth"))
	assert.True(t, scanner.Matches(explicit, "ecx"))
}

func TestParseKind(t *testing.T) {
	k, ok := scanner.ParseKind("tbl")
	assert.True(t, ok)
	assert.Equal(t, scanner.Table, k)

	_, ok = scanner.ParseKind("eqn")
	assert.False(t, ok)
}
