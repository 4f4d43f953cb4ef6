// Package trigger decides whether the cursor sits inside an unfinished
// citation such as "[@fig:ab" and, if so, what is being typed.
package trigger

import (
	"strings"

	"easyref/internal/scanner"
)

// Phase is the parse state of a citation token.
type Phase int

const (
	// SelectingType: the user is still typing the kind keyword after "[@".
	SelectingType Phase = iota
	// SelectingID: the kind is known and the user types the id after ":".
	SelectingID
)

func (p Phase) String() string {
	if p == SelectingID {
		return "id"
	}
	return "type"
}

// Span is the buffer region a completion replaces. Columns are byte offsets.
type Span struct {
	StartLine, StartCol int
	EndLine, EndCol     int
}

// Context describes an active trigger.
type Context struct {
	Phase Phase
	// Kind is the resolved keyword in SelectingID and the typed prefix in
	// SelectingType.
	Kind string
	// Query is the text typed after ":" in SelectingID and after "[@" in
	// SelectingType.
	Query string
	Span  Span
}

// Wire renders the context in the "type|<prefix>" / "id|<kind>|<query>"
// form used by the suggestion provider.
func (c Context) Wire() string {
	if c.Phase == SelectingID {
		return "id|" + c.Kind + "|" + c.Query
	}
	return "type|" + c.Query
}

// Parse inspects the text of the cursor line. col is the cursor's byte
// offset. It reports false when no citation is being typed.
func Parse(line, col int, text string) (Context, bool) {
	if col < 0 {
		return Context{}, false
	}
	if col > len(text) {
		col = len(text)
	}

	open := strings.LastIndex(text[:min(col+1, len(text))], "[")
	if open == -1 {
		return Context{}, false
	}

	token := text[open:]
	if i := strings.Index(token, "]"); i != -1 {
		token = token[:i+1]
		// Closed bracket and the cursor already moved past it.
		if col > open+i {
			return Context{}, false
		}
	}
	if !strings.HasPrefix(token, "[@") {
		return Context{}, false
	}

	start := open
	typed := token[:min(col-open, len(token))]
	if semi := strings.LastIndex(typed, ";"); semi != -1 {
		rest := token[semi+1:]
		trimmed := strings.TrimLeft(rest, " \t")
		start = open + semi + 1 + len(rest) - len(trimmed) - 1
		token = "[" + trimmed
		if !strings.HasPrefix(token, "[@") {
			return Context{}, false
		}
	}
	// Later citations in the same bracket pair are not part of this one.
	if i := strings.Index(token, ";"); i != -1 {
		token = token[:i] + "]"
	}

	body := strings.TrimSuffix(token[2:], "]")
	colon := strings.Index(body, ":")
	if colon == -1 {
		if !isKindPrefix(body) {
			return Context{}, false
		}
		return Context{
			Phase: SelectingType,
			Kind:  body,
			Query: body,
			Span:  Span{StartLine: line, StartCol: start, EndLine: line, EndCol: start + 2 + len(body)},
		}, true
	}

	kind := body[:colon]
	if _, ok := scanner.ParseKind(kind); !ok {
		return Context{}, false
	}
	return Context{
		Phase: SelectingID,
		Kind:  kind,
		Query: body[colon+1:],
		Span:  Span{StartLine: line, StartCol: start, EndLine: line, EndCol: start + 2 + colon},
	}, true
}

func isKindPrefix(prefix string) bool {
	for _, k := range scanner.Kinds {
		if strings.HasPrefix(k.String(), prefix) {
			return true
		}
	}
	return false
}
