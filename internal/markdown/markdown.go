// Package markdown answers structural questions about a Markdown document
// that plain line matching gets wrong, using the tree-sitter block grammar.
package markdown

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"easyref/internal/editor"

	sitter "github.com/smacker/go-tree-sitter"
	tsmarkdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
)

var (
	lang        = tsmarkdown.GetLanguage()
	captureName = "code"
	codeQuery   = []byte(`[(fenced_code_block) (indented_code_block)] @code`)
)

// LineSet is a set of zero-based line numbers stored as sorted, inclusive
// ranges.
type LineSet struct {
	ranges [][2]int
}

// Contains reports whether line is in the set.
func (s LineSet) Contains(line int) bool {
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i][1] >= line })
	return i < len(s.ranges) && s.ranges[i][0] <= line
}

// Len returns the number of ranges.
func (s LineSet) Len() int {
	return len(s.ranges)
}

func executeQuery(root *sitter.Node, query []byte) ([][2]int, error) {
	q, err := sitter.NewQuery(query, lang)
	if err != nil {
		return nil, err
	}
	defer q.Close()
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	var ranges [][2]int
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			if q.CaptureNameForId(c.Index) != captureName {
				continue
			}
			start, end := c.Node.StartPoint(), c.Node.EndPoint()
			last := int(end.Row)
			// Blocks end after the newline of their last line.
			if end.Column == 0 && end.Row > start.Row {
				last--
			}
			ranges = append(ranges, [2]int{int(start.Row), last})
		}
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })
	return ranges, nil
}

// Parser wraps a tree-sitter parser for the Markdown block grammar. It is
// safe for concurrent use.
type Parser struct {
	parser *sitter.Parser
	mu     sync.Mutex
}

// NewParser creates a Parser.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	return &Parser{parser: p}
}

// CodeLines returns the lines of src that belong to code blocks.
func (p *Parser) CodeLines(ctx context.Context, src []byte) (LineSet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.parser == nil {
		return LineSet{}, fmt.Errorf("parser closed")
	}
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return LineSet{}, fmt.Errorf("failed to parse markdown: %w", err)
	}
	defer tree.Close()

	ranges, err := executeQuery(tree.RootNode(), codeQuery)
	if err != nil {
		return LineSet{}, err
	}
	return LineSet{ranges: ranges}, nil
}

// BufferCodeLines is CodeLines over the current content of buf.
func (p *Parser) BufferCodeLines(ctx context.Context, buf editor.TextBuffer) (LineSet, error) {
	lines := make([]string, buf.LineCount())
	for i := range lines {
		lines[i] = buf.Line(i)
	}
	return p.CodeLines(ctx, []byte(strings.Join(lines, "\n")))
}

// Close frees the resources held by the Parser.
func (p *Parser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
	return nil
}
