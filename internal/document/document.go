// Package document keeps the server-side copy of an open text document in
// sync with the client and exposes it as an editor.TextBuffer.
package document

import (
	"fmt"
	"strings"

	"easyref/internal/editor"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Document is a line-addressable text buffer. Columns are byte offsets; the
// LSP conversions live in position.go.
//
// A Document obtained from Snapshot records every mutation as an LSP
// TextEdit instead of being authoritative: the client applies the edits and
// sends them back as ordinary changes.
type Document struct {
	URI     protocol.DocumentUri
	Version protocol.Integer

	lines  []string
	crlf   bool
	cursor editor.Position

	recording bool
	edits     []protocol.TextEdit
}

// New creates a document from its full text.
func New(uri protocol.DocumentUri, version protocol.Integer, text string) *Document {
	d := &Document{URI: uri, Version: version}
	d.setText(text)
	return d
}

func (d *Document) setText(text string) {
	d.crlf = strings.Contains(text, "\r\n")
	d.lines = splitLines(text)
	d.cursor = d.clamp(d.cursor)
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Text returns the full document text.
func (d *Document) Text() string {
	eol := "\n"
	if d.crlf {
		eol = "\r\n"
	}
	return strings.Join(d.lines, eol)
}

// Bytes returns the full document text as bytes.
func (d *Document) Bytes() []byte {
	return []byte(d.Text())
}

func (d *Document) LineCount() int {
	return len(d.lines)
}

func (d *Document) Line(n int) string {
	if n < 0 || n >= len(d.lines) {
		return ""
	}
	return d.lines[n]
}

func (d *Document) Cursor() editor.Position {
	return d.cursor
}

func (d *Document) SetCursor(pos editor.Position) {
	d.cursor = d.clamp(pos)
}

// ReplaceRange implements editor.TextBuffer. A cursor at or after the end of
// the replaced range moves with the text that follows it.
func (d *Document) ReplaceRange(text string, from, to editor.Position) {
	from, to = d.clamp(from), d.clamp(to)
	if to.Before(from) {
		from, to = to, from
	}

	if d.recording {
		d.edits = append(d.edits, protocol.TextEdit{
			Range:   d.ToLSPRange(from, to),
			NewText: text,
		})
	}

	prefix := d.lines[from.Line][:from.Ch]
	suffix := d.lines[to.Line][to.Ch:]
	inserted := splitLines(text)
	end := editor.Position{
		Line: from.Line + len(inserted) - 1,
		Ch:   len(inserted[len(inserted)-1]),
	}
	if len(inserted) == 1 {
		end.Ch += len(prefix)
	}

	replacement := make([]string, len(inserted))
	copy(replacement, inserted)
	replacement[0] = prefix + replacement[0]
	replacement[len(replacement)-1] += suffix

	lines := make([]string, 0, len(d.lines)-(to.Line-from.Line)+len(replacement)-1)
	lines = append(lines, d.lines[:from.Line]...)
	lines = append(lines, replacement...)
	lines = append(lines, d.lines[to.Line+1:]...)
	d.lines = lines

	switch {
	case d.cursor.Before(from):
	case d.cursor.Before(to):
		d.cursor = end
	case d.cursor.Line == to.Line:
		d.cursor = editor.Position{Line: end.Line, Ch: end.Ch + d.cursor.Ch - to.Ch}
	default:
		d.cursor.Line += end.Line - to.Line
	}
}

// ApplyChange applies one entry of DidChangeTextDocumentParams.ContentChanges.
// The cursor is left at the end of the inserted text, which is the best
// estimate of the client cursor LSP offers.
func (d *Document) ApplyChange(raw any) error {
	switch change := raw.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		d.setText(change.Text)
		last := len(d.lines) - 1
		d.cursor = editor.Position{Line: last, Ch: len(d.lines[last])}
	case protocol.TextDocumentContentChangeEvent:
		if change.Range == nil {
			d.setText(change.Text)
			return nil
		}
		from := d.FromLSP(change.Range.Start)
		to := d.FromLSP(change.Range.End)
		d.cursor = to
		d.ReplaceRange(change.Text, from, to)
	default:
		return fmt.Errorf("unexpected change event type %T", raw)
	}
	return nil
}

// Snapshot returns a copy of d that records its mutations. The copy shares
// nothing with d.
func (d *Document) Snapshot() *Document {
	lines := make([]string, len(d.lines))
	copy(lines, d.lines)
	return &Document{
		URI:       d.URI,
		Version:   d.Version,
		lines:     lines,
		crlf:      d.crlf,
		cursor:    d.cursor,
		recording: true,
	}
}

// Edits returns the edits recorded by a snapshot, in application order.
// Callers only issue edits that do not shift the positions of later ones, so
// every edit is also valid against the original document.
func (d *Document) Edits() []protocol.TextEdit {
	return d.edits
}
