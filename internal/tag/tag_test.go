package tag_test

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"testing"

	"easyref/internal/tag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base36 = regexp.MustCompile(`^[0-9a-z]+$`)

func newGenerator() *tag.Generator {
	return tag.New(rand.NewPCG(1, 2))
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		prefix   string
		suffix   string
		length   int
	}{
		{name: "default style", template: "fig{tag:3}", prefix: "fig", length: 3},
		{name: "long tag", template: "{tag:12}", length: 12},
		{name: "surrounded", template: "a-{tag:5}-b", prefix: "a-", suffix: "-b", length: 5},
		{name: "non numeric", template: "tbl{tag:x}", prefix: "tbl", length: 3},
		{name: "empty length", template: "sec{tag:}", prefix: "sec", length: 3},
		{name: "zero length", template: "{tag:0}!", suffix: "!", length: 3},
	}

	g := newGenerator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Generate(tt.template)
			require.True(t, strings.HasPrefix(got, tt.prefix), "got %q", got)
			require.True(t, strings.HasSuffix(got, tt.suffix), "got %q", got)

			generated := strings.TrimSuffix(strings.TrimPrefix(got, tt.prefix), tt.suffix)
			assert.Len(t, generated, tt.length)
			assert.Regexp(t, base36, generated)
		})
	}
}

func TestGenerateReplacesOnlyFirstPlaceholder(t *testing.T) {
	got := newGenerator().Generate("{tag:2}{tag:4}")
	assert.Len(t, got, 2+len("{tag:4}"))
	assert.True(t, strings.HasSuffix(got, "{tag:4}"))
}

func TestGenerateWithoutPlaceholder(t *testing.T) {
	assert.Equal(t, "plain", newGenerator().Generate("plain"))
}

func TestGenerateVaries(t *testing.T) {
	g := newGenerator()
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		seen[g.Generate("{tag:8}")] = struct{}{}
	}
	assert.Greater(t, len(seen), 45)
}

func TestLabel(t *testing.T) {
	got := newGenerator().Label("sec", "sec{tag:3}")
	assert.Regexp(t, `^\{#sec:sec[0-9a-z]{3}\}$`, got)
}

func TestLength(t *testing.T) {
	assert.Equal(t, 7, tag.Length("x{tag:7}"))
	assert.Equal(t, tag.DefaultLength, tag.Length("x"))
	assert.Equal(t, tag.DefaultLength, tag.Length("{tag:-2}"))
}
