package document

import (
	"unicode/utf8"

	"easyref/internal/editor"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// byteColumn converts an LSP character offset (UTF-16 code units) into a
// byte offset within line. Offsets past the end are clamped.
func byteColumn(line string, character uint32) int {
	var units uint32
	for i, r := range line {
		// Each codepoint uses 1 or 2 UTF-16 code units
		n := uint32(1)
		if r > 0xFFFF {
			n = 2
		}
		if units+n > character {
			return i
		}
		units += n
	}
	return len(line)
}

// utf16Column counts the UTF-16 code units in line[:col].
func utf16Column(line string, col int) uint32 {
	if col > len(line) {
		col = len(line)
	}
	var units uint32
	prefix := line[:col]
	for len(prefix) > 0 {
		r, size := utf8.DecodeRuneInString(prefix)
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		prefix = prefix[size:]
	}
	return units
}

// FromLSP converts an LSP position into a byte-based buffer position,
// clamping to the document.
func (d *Document) FromLSP(pos protocol.Position) editor.Position {
	line := int(pos.Line)
	if line >= len(d.lines) {
		last := len(d.lines) - 1
		return editor.Position{Line: last, Ch: len(d.lines[last])}
	}
	return editor.Position{Line: line, Ch: byteColumn(d.lines[line], pos.Character)}
}

// ToLSP converts a buffer position into an LSP position.
func (d *Document) ToLSP(pos editor.Position) protocol.Position {
	pos = d.clamp(pos)
	return protocol.Position{
		Line:      protocol.UInteger(pos.Line),
		Character: utf16Column(d.lines[pos.Line], pos.Ch),
	}
}

// ToLSPRange converts a buffer range into an LSP range.
func (d *Document) ToLSPRange(from, to editor.Position) protocol.Range {
	return protocol.Range{Start: d.ToLSP(from), End: d.ToLSP(to)}
}

func (d *Document) clamp(pos editor.Position) editor.Position {
	if pos.Line < 0 {
		return editor.Position{}
	}
	if pos.Line >= len(d.lines) {
		last := len(d.lines) - 1
		return editor.Position{Line: last, Ch: len(d.lines[last])}
	}
	if pos.Ch < 0 {
		pos.Ch = 0
	}
	if pos.Ch > len(d.lines[pos.Line]) {
		pos.Ch = len(d.lines[pos.Line])
	}
	return pos
}
