// Package editor defines the two narrow capabilities the reference engine
// needs from its host: a line-addressable text buffer and a read-only view
// of the document's metadata block.
package editor

// Position addresses a point in a buffer. Ch is a byte offset into the line.
type Position struct {
	Line int
	Ch   int
}

// Before reports whether p sorts strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Ch < o.Ch
}

// TextBuffer is a mutable, line-addressable document.
type TextBuffer interface {
	LineCount() int
	// Line returns the text of line n without its line terminator, or "" when
	// n is out of range.
	Line(n int) string
	// ReplaceRange replaces the text between from and to with text. from == to
	// inserts.
	ReplaceRange(text string, from, to Position)
	Cursor() Position
	SetCursor(pos Position)
}

// MetadataSource reads keys from the active document's structured metadata.
type MetadataSource interface {
	Lookup(key string) (any, bool)
}

// SetLine replaces the full text of line n.
func SetLine(buf TextBuffer, n int, text string) {
	buf.ReplaceRange(text, Position{Line: n}, Position{Line: n, Ch: len(buf.Line(n))})
}

// MetaString returns the string value of key, or "" when missing or not a
// string.
func MetaString(meta MetadataSource, key string) string {
	if meta == nil {
		return ""
	}
	v, ok := meta.Lookup(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// MetaBool reports whether key is present and exactly true.
func MetaBool(meta MetadataSource, key string) bool {
	if meta == nil {
		return false
	}
	v, ok := meta.Lookup(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// NoMetadata is a MetadataSource without any keys.
type NoMetadata struct{}

func (NoMetadata) Lookup(string) (any, bool) { return nil, false }
