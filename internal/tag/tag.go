// Package tag generates short, probabilistically unique reference labels from
// templates such as "fig{tag:3}".
package tag

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultLength is used when a template has no valid length.
const DefaultLength = 3

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var placeholder = regexp.MustCompile(`\{tag:([^}]*)\}`)

// Generator expands tag templates using a random source. It is safe for
// concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Generator drawing from src.
func New(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Default returns a Generator seeded from the clock.
func Default() *Generator {
	seed := uint64(time.Now().UnixNano())
	return New(rand.NewPCG(seed, seed>>17|1))
}

// Length returns the tag length requested by template.
func Length(template string) int {
	m := placeholder.FindStringSubmatch(template)
	if m == nil {
		return DefaultLength
	}
	n, err := strconv.Atoi(strings.TrimSpace(m[1]))
	if err != nil || n <= 0 {
		return DefaultLength
	}
	return n
}

// Generate replaces the first {tag:N} placeholder in template with N random
// base-36 characters. Templates without a placeholder are returned unchanged.
func (g *Generator) Generate(template string) string {
	loc := placeholder.FindStringIndex(template)
	if loc == nil {
		return template
	}
	return template[:loc[0]] + g.random(Length(template)) + template[loc[1]:]
}

// Label renders the attribute form "{#kind:<generated>}".
func (g *Generator) Label(kind, template string) string {
	return "{#" + kind + ":" + g.Generate(template) + "}"
}

func (g *Generator) random(n int) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[g.rnd.IntN(len(alphabet))])
	}
	return b.String()
}
