package trigger_test

import (
	"testing"

	"easyref/internal/trigger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		col   int // -1 means end of line
		phase trigger.Phase
		kind  string
		query string
		span  [2]int
	}{
		{name: "id phase", text: "see [@fig:ab", col: -1, phase: trigger.SelectingID, kind: "fig", query: "ab", span: [2]int{4, 9}},
		{name: "type phase", text: "see [@f", col: -1, phase: trigger.SelectingType, kind: "f", query: "f", span: [2]int{4, 7}},
		{name: "empty type", text: "[@", col: -1, phase: trigger.SelectingType, kind: "", query: "", span: [2]int{0, 2}},
		{name: "complete keyword", text: "[@sec", col: -1, phase: trigger.SelectingType, kind: "sec", query: "sec", span: [2]int{0, 5}},
		{name: "closed bracket cursor inside", text: "x [@tbl:r1] y", col: 9, phase: trigger.SelectingID, kind: "tbl", query: "r1", span: [2]int{2, 7}},
		{name: "cursor before closing bracket", text: "[@tbl:r1]", col: 8, phase: trigger.SelectingID, kind: "tbl", query: "r1", span: [2]int{0, 5}},
		{name: "multi citation", text: "[@fig:a; @tbl:", col: -1, phase: trigger.SelectingID, kind: "tbl", query: "", span: [2]int{8, 13}},
		{name: "multi citation without space", text: "[@fig:a;@sec:x", col: -1, phase: trigger.SelectingID, kind: "sec", query: "x", span: [2]int{7, 12}},
		{name: "multi citation type phase", text: "[@fig:a; @t]", col: 11, phase: trigger.SelectingType, kind: "t", query: "t", span: [2]int{8, 11}},
		{name: "first of several citations", text: "[@fig:a; @tbl:b]", col: 7, phase: trigger.SelectingID, kind: "fig", query: "a", span: [2]int{0, 5}},
		{name: "second bracket pair", text: "[@fig:a] and [@sec:", col: -1, phase: trigger.SelectingID, kind: "sec", query: "", span: [2]int{13, 18}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := tt.col
			if col < 0 {
				col = len(tt.text)
			}
			ctx, ok := trigger.Parse(3, col, tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.phase, ctx.Phase)
			assert.Equal(t, tt.kind, ctx.Kind)
			assert.Equal(t, tt.query, ctx.Query)
			assert.Equal(t, trigger.Span{StartLine: 3, StartCol: tt.span[0], EndLine: 3, EndCol: tt.span[1]}, ctx.Span)
		})
	}
}

func TestParseNoTrigger(t *testing.T) {
	tests := []struct {
		name string
		text string
		col  int
	}{
		{name: "unknown kind", text: "[@zzz:", col: 6},
		{name: "unknown prefix", text: "[@x", col: 3},
		{name: "no bracket", text: "plain @fig:a", col: 12},
		{name: "markdown link", text: "[text](url)", col: 3},
		{name: "cursor past closed bracket", text: "[@fig:a] more", col: 10},
		{name: "cursor right after closed bracket", text: "[@fig:a]", col: 8},
		{name: "cursor before bracket", text: "ab [@fig:", col: 1},
		{name: "re-anchored without at", text: "[@fig:a; tbl:", col: 13},
		{name: "negative column", text: "[@fig:", col: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := trigger.Parse(0, tt.col, tt.text)
			assert.False(t, ok)
		})
	}
}

func TestParseClampsColumn(t *testing.T) {
	ctx, ok := trigger.Parse(0, 99, "[@fig:q")
	require.True(t, ok)
	assert.Equal(t, "q", ctx.Query)
}

func TestWire(t *testing.T) {
	ctx, _ := trigger.Parse(0, 7, "[@fig:a")
	assert.Equal(t, "id|fig|a", ctx.Wire())

	ctx, _ = trigger.Parse(0, 3, "[@t")
	assert.Equal(t, "type|t", ctx.Wire())
}
