// Package scanner enumerates the labeled figures, tables and sections of a
// Markdown buffer and computes their display numbers.
package scanner

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"

	"easyref/internal/editor"
)

var (
	imageWithTag = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)\{#fig:(.*?)\}`)
	subFigOpen   = regexp.MustCompile(`<div id="fig:(.*?)">`)
	subFigClose  = regexp.MustCompile(`</div>`)
	tableCaption = regexp.MustCompile(`:(.*?)\{#tbl:(.*?)\}$`)
	headingMarks = regexp.MustCompile(`^#+`)
	sectionTag   = regexp.MustCompile(`\{#sec:(.*?)\}`)
)

// Entity is a labeled figure, table or section found by one scan. Entities
// are recomputed on every scan and never persisted.
type Entity struct {
	// ID is the tag text after "fig:", "tbl:" or "sec:". Sections without an
	// explicit tag get the synthetic ID "<level>-<line>".
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Label string `json:"label"`
	// Line is the zero-based source line.
	Line int `json:"line"`

	// Section only.
	Level    int    `json:"level,omitempty"`
	Number   string `json:"number,omitempty"`
	Title    string `json:"title,omitempty"`
	Explicit bool   `json:"explicit,omitempty"`
}

// Key is the acceptance key of a section: "<level>|<id>" for an explicit tag
// and "<level>-<line>" otherwise. Other kinds return their ID.
func (e Entity) Key() string {
	if e.Kind != Section {
		return e.ID
	}
	if e.Explicit {
		return strconv.Itoa(e.Level) + "|" + e.ID
	}
	return e.ID
}

// Options configure a scan.
type Options struct {
	// Metadata may override the titles with figureTitle and tableTitle.
	Metadata editor.MetadataSource
	// Default titles when the metadata has none.
	FigureTitle string
	TableTitle  string
}

func (o Options) figureTitle() string {
	if t := editor.MetaString(o.Metadata, "figureTitle"); t != "" {
		return t
	}
	if o.FigureTitle != "" {
		return o.FigureTitle
	}
	return "Figure"
}

func (o Options) tableTitle() string {
	if t := editor.MetaString(o.Metadata, "tableTitle"); t != "" {
		return t
	}
	if o.TableTitle != "" {
		return o.TableTitle
	}
	return "Table"
}

// Scan lazily yields every entity of kind in document order. Each range over
// the returned sequence is a fresh forward pass with its own counters.
func Scan(buf editor.TextBuffer, kind Kind, opts Options) iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		switch kind {
		case Figure:
			scanFigures(buf, opts.figureTitle(), yield)
		case Table:
			scanTables(buf, opts.tableTitle(), yield)
		case Section:
			scanSections(buf, yield)
		}
	}
}

// All collects a scan into a slice.
func All(buf editor.TextBuffer, kind Kind, opts Options) []Entity {
	var entities []Entity
	for e := range Scan(buf, kind, opts) {
		entities = append(entities, e)
	}
	return entities
}

func scanFigures(buf editor.TextBuffer, title string, yield func(Entity) bool) {
	figures, subFigures := 0, 0
	inside := false

	for i := 0; i < buf.LineCount(); i++ {
		line := buf.Line(i)
		if subFigOpen.MatchString(line) {
			inside = true
			figures++
		} else if subFigClose.MatchString(line) {
			inside = false
			subFigures = 0
		}

		m := imageWithTag.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		caption, id := m[1], m[3]

		var label string
		if inside {
			subFigures++
			label = fmt.Sprintf("%s %d(%s): %s", title, figures, Letter(subFigures-1), caption)
		} else {
			figures++
			subFigures = 0
			label = fmt.Sprintf("%s %d: %s", title, figures, caption)
		}

		if !yield(Entity{ID: id, Kind: Figure, Label: label, Line: i}) {
			return
		}
	}
}

func scanTables(buf editor.TextBuffer, title string, yield func(Entity) bool) {
	tables := 0
	for i := 0; i < buf.LineCount(); i++ {
		m := tableCaption.FindStringSubmatch(buf.Line(i))
		if m == nil {
			continue
		}
		tables++
		e := Entity{
			ID:    m[2],
			Kind:  Table,
			Label: fmt.Sprintf("%s %d: %s", title, tables, strings.TrimSpace(m[1])),
			Line:  i,
		}
		if !yield(e) {
			return
		}
	}
}

func scanSections(buf editor.TextBuffer, yield func(Entity) bool) {
	var counters []int

	for i := 0; i < buf.LineCount(); i++ {
		line := buf.Line(i)
		marks := headingMarks.FindString(line)
		if marks == "" {
			continue
		}
		level := len(marks)

		for len(counters) < level {
			counters = append(counters, 0)
		}
		counters[level-1]++
		for j := level; j < len(counters); j++ {
			counters[j] = 0
		}

		parts := make([]string, level)
		for j := 0; j < level; j++ {
			parts[j] = strconv.Itoa(counters[j])
		}
		number := strings.Join(parts, ".")

		title := strings.TrimSpace(line[level:])
		e := Entity{Kind: Section, Line: i, Level: level, Number: number}
		if m := sectionTag.FindStringSubmatchIndex(title); m != nil {
			e.ID = title[m[2]:m[3]]
			e.Explicit = true
			title = strings.TrimSpace(title[:m[0]] + title[m[1]:])
		} else {
			e.ID = fmt.Sprintf("%d-%d", level, i)
		}
		e.Title = title
		e.Label = number + "|" + title

		if !yield(e) {
			return
		}
	}
}

// Letter returns the sub-figure letter for a zero-based index: a … z, then
// aa, ab, … in bijective base 26.
func Letter(index int) string {
	if index < 0 {
		return ""
	}
	var b []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('a' + (n-1)%26)}, b...)
	}
	return string(b)
}

// Matches reports whether e should be offered for the user's query. IDs match
// by substring containment; synthetic sections have no useful ID and match on
// their title instead.
func Matches(e Entity, query string) bool {
	if strings.Contains(e.ID, query) {
		return true
	}
	if e.Kind == Section && !e.Explicit {
		return strings.Contains(strings.ToLower(e.Title), strings.ToLower(query))
	}
	return false
}
