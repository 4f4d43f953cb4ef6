// Package image rewrites image embeds into pandoc-crossref style Markdown
// links and names pasted image files.
package image

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"easyref/internal/editor"
	"easyref/internal/markdown"
	"easyref/internal/tag"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("easyref.image")

// imageLink matches a wiki embed (group 1) or a Markdown image (groups 2, 3)
// with its optional figure label (group 4). The wiki form comes first so that
// "![[a]] ![b](c)" is not read as one Markdown image.
var imageLink = regexp.MustCompile(`!\[\[(.*?)\]\]|!\[(.*?)\]\((.*?)\)(\{#fig:.*?\})?`)

// Config holds the settings the normalizer reads.
type Config struct {
	// Template for generated tags, e.g. "fig{tag:3}".
	Template string
	// AutoAdd appends a figure label to every rewritten link. A document can
	// opt in with "autoAddFigRef: true".
	AutoAdd bool
	// MarkdownLinks enables the rewrite at all.
	MarkdownLinks bool
}

// Normalizer rewrites image links in a buffer.
type Normalizer struct {
	config Config
	tags   *tag.Generator
	parser *markdown.Parser
}

// New creates a Normalizer. parser may be nil, in which case image links in
// code blocks are rewritten too.
func New(config Config, tags *tag.Generator, parser *markdown.Parser) *Normalizer {
	return &Normalizer{config: config, tags: tags, parser: parser}
}

// Contains reports whether text holds something that looks like an image
// embed.
func Contains(text string) bool {
	return strings.Contains(text, "![")
}

// Normalize rewrites every image link of buf and returns the number of lines
// changed:
//
//	![[path|desc]]  ->  ![desc](path){#fig:<tag>}
//	![[path]]       ->  ![](path){#fig:<tag>}
//	![alt](path)    ->  ![alt](path){#fig:<tag>}
//
// Links already carrying a figure label are left alone. The label is only
// added when auto-add is on; otherwise embeds are just converted.
func (n *Normalizer) Normalize(buf editor.TextBuffer, meta editor.MetadataSource) int {
	if !n.config.MarkdownLinks {
		return 0
	}
	label := n.config.AutoAdd || editor.MetaBool(meta, "autoAddFigRef")

	var code markdown.LineSet
	if n.parser != nil {
		var err error
		code, err = n.parser.BufferCodeLines(context.Background(), buf)
		if err != nil {
			log.Warningf("cannot detect code blocks: %v", err)
		}
	}

	changed := 0
	for i := 0; i < buf.LineCount(); i++ {
		if code.Contains(i) {
			continue
		}
		spans := n.rewrite(buf.Line(i), label)
		if len(spans) == 0 {
			continue
		}
		// Right to left, so earlier columns stay valid.
		for j := len(spans) - 1; j >= 0; j-- {
			sp := spans[j]
			buf.ReplaceRange(sp.text, editor.Position{Line: i, Ch: sp.from}, editor.Position{Line: i, Ch: sp.to})
		}
		changed++
	}
	return changed
}

type span struct {
	from, to int
	text     string
}

// rewrite returns the replacements for the image links of line, left to
// right. Each rewritten link gets its own tag.
func (n *Normalizer) rewrite(line string, label bool) []span {
	suffix := func() string {
		if !label {
			return ""
		}
		return n.tags.Label("fig", n.config.Template)
	}

	var spans []span
	for _, m := range imageLink.FindAllStringSubmatchIndex(line, -1) {
		switch {
		case m[2] != -1:
			target := line[m[2]:m[3]]
			desc := ""
			if i := strings.Index(target, "|"); i != -1 {
				target, desc = target[:i], target[i+1:]
				if j := strings.Index(desc, "|"); j != -1 {
					desc = desc[:j]
				}
			}
			spans = append(spans, span{from: m[0], to: m[1], text: Link(desc, target, suffix())})
		case label && m[8] == -1:
			spans = append(spans, span{from: m[1], to: m[1], text: suffix()})
		}
	}
	return spans
}

// Link renders a Markdown image link followed by label.
func Link(alt, target, label string) string {
	return "![" + alt + "](" + target + ")" + label
}

// FileName expands a pasted-image name template. {filename} is the document
// name without extension, {rawName} the original image name and {ext} its
// extension. {index} counts up from 1 until exists reports a free name.
func FileName(template, docName, rawName string, exists func(name string) bool) string {
	base := path.Base(docName)
	if i := strings.Index(base, "."); i != -1 {
		base = base[:i]
	}
	ext := strings.TrimPrefix(path.Ext(rawName), ".")

	name := strings.ReplaceAll(template, "{filename}", base)
	name = strings.ReplaceAll(name, "{rawName}", rawName)
	name = strings.ReplaceAll(name, "{ext}", ext)

	if !strings.Contains(name, "{index}") {
		return name
	}
	for i := 1; ; i++ {
		candidate := strings.ReplaceAll(name, "{index}", strconv.Itoa(i))
		if exists == nil || !exists(candidate) {
			return candidate
		}
	}
}

// AttachmentPath joins an attachment folder setting and a file name. Folders
// starting with "./" are relative to the document.
func AttachmentPath(folder, name string) string {
	folder = strings.TrimPrefix(folder, "./")
	if folder == "" {
		return name
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(folder, "/"), name)
}
