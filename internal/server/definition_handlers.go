package server

import (
	"easyref/internal/editor"
	"easyref/internal/scanner"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDefinition jumps from a citation to the labeled line.
func (s *Server) textDocumentDefinition(
	context *glsp.Context,
	params *protocol.DefinitionParams,
) (any, error) {
	uri := params.TextDocument.URI
	doc, err := s.manager.Snapshot(uri)
	if err != nil {
		return nil, nil
	}

	c, ok := scanner.CitationAt(doc, doc.FromLSP(params.Position))
	if !ok {
		return nil, nil
	}
	e, ok := scanner.Find(doc, c.Kind, c.ID, scanner.Options{Metadata: metadata(doc)})
	if !ok {
		return nil, nil
	}

	line := protocol.UInteger(e.Line)
	return protocol.Location{
		URI: uri,
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: 0},
			End:   protocol.Position{Line: line, Character: 0},
		},
	}, nil
}

// textDocumentReferences lists the citations of the label under the cursor,
// or of the target of the citation under the cursor.
func (s *Server) textDocumentReferences(
	context *glsp.Context,
	params *protocol.ReferenceParams,
) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	doc, err := s.manager.Snapshot(uri)
	if err != nil {
		return nil, nil
	}
	pos := doc.FromLSP(params.Position)

	var kind scanner.Kind
	var id string
	if c, ok := scanner.CitationAt(doc, pos); ok {
		kind, id = c.Kind, c.ID
	} else if e, ok := scanner.DefinedAt(doc, pos.Line, scanner.Options{}); ok {
		kind, id = e.Kind, e.ID
	} else {
		return nil, nil
	}

	var locations []protocol.Location
	if params.Context.IncludeDeclaration {
		if e, ok := scanner.Find(doc, kind, id, scanner.Options{}); ok {
			line := protocol.UInteger(e.Line)
			locations = append(locations, protocol.Location{
				URI:   uri,
				Range: protocol.Range{Start: protocol.Position{Line: line}, End: protocol.Position{Line: line}},
			})
		}
	}
	for _, c := range scanner.Citations(doc, kind, id) {
		locations = append(locations, protocol.Location{
			URI: uri,
			Range: doc.ToLSPRange(
				editor.Position{Line: c.Line, Ch: c.Start},
				editor.Position{Line: c.Line, Ch: c.End},
			),
		})
	}
	return locations, nil
}
