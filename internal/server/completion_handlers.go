package server

import (
	"fmt"

	"easyref/internal/document"
	"easyref/internal/scanner"
	"easyref/internal/suggest"
	"easyref/internal/trigger"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) provider() *suggest.Provider {
	cfg, tr := s.current()
	figure, table := cfg.Titles(tr)
	return suggest.New(suggest.Config{
		SectionTemplate: cfg.SecRefStyle,
		FigureTitle:     figure,
		TableTitle:      table,
	}, s.tags, tr)
}

func (s *Server) textDocumentCompletion(
	context *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	doc, err := s.manager.Snapshot(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	pos := doc.FromLSP(params.Position)
	doc.SetCursor(pos)

	ctx, ok := trigger.Parse(pos.Line, pos.Ch, doc.Line(pos.Line))
	if !ok {
		return nil, nil
	}
	log.Debugf("completion %s at %d:%d", ctx.Wire(), pos.Line, pos.Ch)

	p := s.provider()
	candidates := p.Suggestions(doc, metadata(doc), ctx)
	items := make([]protocol.CompletionItem, 0, len(candidates))
	for i, c := range candidates {
		item, err := completionItem(doc, p, c, i)
		if err != nil {
			log.Warningf("skipping %s: %v", c.Key(), err)
			continue
		}
		items = append(items, item)
	}

	// Section ids are generated per request, and the list is recomputed on
	// every keystroke.
	return protocol.CompletionList{IsIncomplete: true, Items: items}, nil
}

// completionItem accepts c on a copy of doc and turns the recorded edits into
// the item's text edits. The last edit is always the one at the cursor.
func completionItem(doc *document.Document, p *suggest.Provider, c suggest.Candidate, index int) (protocol.CompletionItem, error) {
	scratch := doc.Snapshot()
	if err := p.Accept(c, scratch); err != nil {
		return protocol.CompletionItem{}, err
	}
	edits := scratch.Edits()
	if len(edits) == 0 {
		return protocol.CompletionItem{}, fmt.Errorf("accepting produced no edits")
	}

	r := p.Render(c)
	kind := protocol.CompletionItemKindReference
	filter := c.Entity.ID
	switch {
	case c.IsType:
		kind = protocol.CompletionItemKindKeyword
		filter = c.Keyword.String()
	case c.Entity.Kind == scanner.Section && !c.Entity.Explicit:
		filter = c.Entity.Title
	}
	sortText := fmt.Sprintf("%05d", index)

	return protocol.CompletionItem{
		Label:               r.Title,
		Kind:                &kind,
		Detail:              &r.Detail,
		FilterText:          &filter,
		SortText:            &sortText,
		TextEdit:            edits[len(edits)-1],
		AdditionalTextEdits: edits[:len(edits)-1],
	}, nil
}
