package scanner

import (
	"regexp"

	"easyref/internal/editor"
)

var citation = regexp.MustCompile(`@(fig|tbl|sec):([^\s;,\]]+)`)

// Citation is one "@kind:id" occurrence. Start and End are byte columns of
// the whole token.
type Citation struct {
	Kind       Kind
	ID         string
	Line       int
	Start, End int
}

// Citations lists every citation of kind with id in document order.
func Citations(buf editor.TextBuffer, kind Kind, id string) []Citation {
	var out []Citation
	for i := 0; i < buf.LineCount(); i++ {
		for _, c := range lineCitations(buf.Line(i), i) {
			if c.Kind == kind && c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out
}

// CitationAt returns the citation under pos.
func CitationAt(buf editor.TextBuffer, pos editor.Position) (Citation, bool) {
	for _, c := range lineCitations(buf.Line(pos.Line), pos.Line) {
		if pos.Ch >= c.Start && pos.Ch <= c.End {
			return c, true
		}
	}
	return Citation{}, false
}

func lineCitations(line string, n int) []Citation {
	var out []Citation
	for _, m := range citation.FindAllStringSubmatchIndex(line, -1) {
		kind, _ := ParseKind(line[m[2]:m[3]])
		out = append(out, Citation{
			Kind:  kind,
			ID:    line[m[4]:m[5]],
			Line:  n,
			Start: m[0],
			End:   m[1],
		})
	}
	return out
}

// Find returns the labeled entity of kind with id. Sections only match by an
// explicit tag.
func Find(buf editor.TextBuffer, kind Kind, id string, opts Options) (Entity, bool) {
	for e := range Scan(buf, kind, opts) {
		if e.ID == id && (kind != Section || e.Explicit) {
			return e, true
		}
	}
	return Entity{}, false
}

// DefinedAt returns the labeled entity declared on line.
func DefinedAt(buf editor.TextBuffer, line int, opts Options) (Entity, bool) {
	for _, kind := range Kinds {
		for e := range Scan(buf, kind, opts) {
			if e.Line > line {
				break
			}
			if e.Line == line && (kind != Section || e.Explicit) {
				return e, true
			}
		}
	}
	return Entity{}, false
}
