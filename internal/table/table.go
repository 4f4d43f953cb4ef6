// Package table adds a caption with a generated tag below a Markdown table as
// soon as the user finishes typing its header and separator rows.
package table

import (
	"context"
	"regexp"
	"strings"

	"easyref/internal/editor"
	"easyref/internal/markdown"
	"easyref/internal/tag"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("easyref.table")

var (
	headerRow     = regexp.MustCompile(`^\|.+\|$`)
	separatorRow  = regexp.MustCompile(`^\|?\s*[-:]+[-|:\s]*\|?\s*$`)
	taggedCaption = regexp.MustCompile(`:(.*?)\{#tbl:.*?\}$`)
)

// Config holds the settings the listener reads.
type Config struct {
	// Template for the generated tag, e.g. "tbl{tag:3}".
	Template string
	// AutoAdd enables captions for every document. A document can opt in on
	// its own with "autoAddTblRef: true" in its metadata.
	AutoAdd bool
}

// Plan is a pending caption insertion.
type Plan struct {
	At   editor.Position
	Text string
	// Header is the line of the table's header row.
	Header int
}

// Listener reacts to edits of a buffer.
type Listener struct {
	config Config
	tags   *tag.Generator
	parser *markdown.Parser
}

// New creates a Listener. parser may be nil, in which case tables inside
// code blocks are not recognized as such.
func New(config Config, tags *tag.Generator, parser *markdown.Parser) *Listener {
	return &Listener{config: config, tags: tags, parser: parser}
}

// Enabled reports whether captions are added for a document with meta.
func (l *Listener) Enabled(meta editor.MetadataSource) bool {
	return l.config.AutoAdd || editor.MetaBool(meta, "autoAddTblRef")
}

// Detect finds the header row of a table being typed at the cursor: the
// cursor is on the header row with a separator row below, or on the separator
// row right after the header.
func Detect(buf editor.TextBuffer) (header int, ok bool) {
	line := buf.Cursor().Line
	isHeader := func(n int) bool {
		return n >= 0 && n+1 < buf.LineCount() &&
			headerRow.MatchString(buf.Line(n)) && separatorRow.MatchString(buf.Line(n+1))
	}
	switch {
	case isHeader(line):
		return line, true
	case isHeader(line - 1):
		return line - 1, true
	}
	return 0, false
}

// Plan works out the caption to insert for the table at the cursor. It
// reports false when nothing should be inserted.
func (l *Listener) Plan(buf editor.TextBuffer, meta editor.MetadataSource) (Plan, bool) {
	header, ok := Detect(buf)
	if !ok || !l.Enabled(meta) {
		return Plan{}, false
	}
	if l.inCode(buf, header) {
		return Plan{}, false
	}

	last := LastRow(buf, header)
	caption := ": Caption " + l.tags.Label("tbl", l.config.Template)

	if last == buf.LineCount()-1 {
		return Plan{
			At:     editor.Position{Line: last, Ch: len(buf.Line(last))},
			Text:   "\n" + caption + "\n",
			Header: header,
		}, true
	}
	if taggedCaption.MatchString(buf.Line(last + 1)) {
		return Plan{}, false
	}
	return Plan{
		At:     editor.Position{Line: last + 1},
		Text:   caption + "\n",
		Header: header,
	}, true
}

// OnChange plans and applies a caption. It reports whether the buffer was
// changed.
func (l *Listener) OnChange(buf editor.TextBuffer, meta editor.MetadataSource) bool {
	p, ok := l.Plan(buf, meta)
	if !ok {
		return false
	}
	buf.ReplaceRange(p.Text, p.At, p.At)
	return true
}

// LastRow returns the last line of the table starting at header: the line
// before the first one without a "|".
func LastRow(buf editor.TextBuffer, header int) int {
	line := header
	for line < buf.LineCount() && strings.Contains(buf.Line(line), "|") {
		line++
	}
	return line - 1
}

func (l *Listener) inCode(buf editor.TextBuffer, line int) bool {
	if l.parser == nil {
		return false
	}
	code, err := l.parser.BufferCodeLines(context.Background(), buf)
	if err != nil {
		log.Warningf("cannot detect code blocks: %v", err)
		return false
	}
	return code.Contains(line)
}
