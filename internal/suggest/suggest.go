// Package suggest turns a trigger context into completion candidates and
// applies the chosen one to the buffer.
package suggest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"easyref/internal/editor"
	"easyref/internal/locale"
	"easyref/internal/scanner"
	"easyref/internal/tag"
	"easyref/internal/trigger"
)

// ErrStaleSection is returned when the heading a section candidate points at
// no longer looks the way it did when the candidate was built.
var ErrStaleSection = errors.New("section heading changed since the suggestion was made")

// Candidate is one completion entry. Type candidates only carry Keyword;
// reference candidates carry the scanned Entity.
type Candidate struct {
	Keyword scanner.Kind
	IsType  bool
	Entity  scanner.Entity
}

// Key identifies the candidate: the keyword for type candidates and the
// entity key otherwise.
func (c Candidate) Key() string {
	if c.IsType {
		return c.Keyword.String()
	}
	return c.Entity.Key()
}

// Rendered is the two-line display form of a candidate.
type Rendered struct {
	Title  string
	Detail string
}

// Config holds the settings a Provider reads.
type Config struct {
	SectionTemplate string
	FigureTitle     string
	TableTitle      string
}

// Provider produces and accepts suggestions.
type Provider struct {
	config Config
	tags   *tag.Generator
	tr     locale.Translator
}

// New creates a Provider.
func New(config Config, tags *tag.Generator, tr locale.Translator) *Provider {
	return &Provider{config: config, tags: tags, tr: tr}
}

// Suggestions lists the candidates for ctx in document order.
func (p *Provider) Suggestions(buf editor.TextBuffer, meta editor.MetadataSource, ctx trigger.Context) []Candidate {
	var candidates []Candidate

	if ctx.Phase == trigger.SelectingType {
		for _, k := range scanner.Kinds {
			if strings.HasPrefix(k.String(), ctx.Query) {
				candidates = append(candidates, Candidate{Keyword: k, IsType: true})
			}
		}
		return candidates
	}

	kind, ok := scanner.ParseKind(ctx.Kind)
	if !ok {
		return nil
	}
	opts := scanner.Options{
		Metadata:    meta,
		FigureTitle: p.config.FigureTitle,
		TableTitle:  p.config.TableTitle,
	}
	for e := range scanner.Scan(buf, kind, opts) {
		if scanner.Matches(e, ctx.Query) {
			candidates = append(candidates, Candidate{Keyword: kind, Entity: e})
		}
	}
	return candidates
}

// Render returns the display form of c.
func (p *Provider) Render(c Candidate) Rendered {
	if c.IsType {
		return Rendered{Title: p.tr.T("kind." + c.Keyword.String()), Detail: c.Keyword.String()}
	}
	e := c.Entity
	if e.Kind == scanner.Section {
		return Rendered{Title: e.Number + " " + e.Title, Detail: "H" + strconv.Itoa(e.Level)}
	}
	return Rendered{Title: e.Label, Detail: e.ID}
}

// Accept applies c at the buffer's cursor.
func (p *Provider) Accept(c Candidate, buf editor.TextBuffer) error {
	cursor := buf.Cursor()
	line := buf.Line(cursor.Line)
	col := min(cursor.Ch, len(line))

	if c.IsType {
		at := strings.LastIndex(line[:col], "@")
		if at == -1 {
			return fmt.Errorf("no citation before cursor at %d:%d", cursor.Line, cursor.Ch)
		}
		replace(buf, cursor.Line, at+1, col, c.Keyword.String()+":")
		return nil
	}

	colon := strings.LastIndex(line[:col], ":")
	if colon == -1 {
		return fmt.Errorf("no citation kind before cursor at %d:%d", cursor.Line, cursor.Ch)
	}
	from := colon + 1

	e := c.Entity
	if e.Kind != scanner.Section || e.Explicit {
		replace(buf, cursor.Line, from, col, e.ID)
		return nil
	}

	heading := buf.Line(e.Line)
	if !isUntaggedHeading(heading, e.Level) {
		return ErrStaleSection
	}
	id := p.tags.Generate(p.config.SectionTemplate)
	suffix := " {#sec:" + id + "}"

	if e.Line == cursor.Line {
		// Both edits land on the cursor line; merge them so the text after the
		// cursor keeps its place.
		buf.ReplaceRange(id+line[col:]+suffix, editor.Position{Line: cursor.Line, Ch: from}, editor.Position{Line: cursor.Line, Ch: len(line)})
		buf.SetCursor(editor.Position{Line: cursor.Line, Ch: from + len(id)})
		return nil
	}

	end := editor.Position{Line: e.Line, Ch: len(heading)}
	buf.ReplaceRange(suffix, end, end)
	replace(buf, cursor.Line, from, col, id)
	return nil
}

func replace(buf editor.TextBuffer, line, from, to int, text string) {
	buf.ReplaceRange(text, editor.Position{Line: line, Ch: from}, editor.Position{Line: line, Ch: to})
	buf.SetCursor(editor.Position{Line: line, Ch: from + len(text)})
}

func isUntaggedHeading(line string, level int) bool {
	if len(line) < level || strings.Count(line[:level], "#") != level {
		return false
	}
	if len(line) > level && line[level] == '#' {
		return false
	}
	return !strings.Contains(line, "{#sec:")
}
