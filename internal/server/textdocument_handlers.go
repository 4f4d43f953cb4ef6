package server

import (
	"errors"

	"easyref/internal/image"
	"easyref/internal/manager"
	"easyref/internal/scheduler"
	"easyref/internal/table"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	s.manager.Open(params.TextDocument.URI, params.TextDocument.Version, params.TextDocument.Text)
	return nil
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	err := s.manager.ApplyChanges(uri, params.TextDocument.Version, params.ContentChanges)
	if errors.Is(err, manager.ErrNotOpen) {
		log.Debugf("change for unknown document %s", uri)
		return nil
	}
	if err != nil {
		return err
	}

	doc, err := s.manager.Snapshot(uri)
	if err != nil {
		return nil
	}
	cfg, _ := s.current()
	token := scheduler.Token{URI: uri, Version: doc.Version, Line: doc.Cursor().Line}

	if _, ok := table.Detect(doc); ok {
		s.scheduler.Defer(uri+"|table", cfg.TableDelay(), scheduler.Task{
			Name:     "table caption",
			Token:    token,
			Validate: s.isCurrent,
			Execute:  func() error { return s.addTableCaption(context, uri) },
		})
	}
	if insertsImage(params.ContentChanges) {
		s.scheduler.Defer(uri+"|image", cfg.ImageDelayDuration(), scheduler.Task{
			Name:  "image links",
			Token: token,
			// The line check is for the table; pasted images may move the cursor.
			Validate: s.isCurrentVersion,
			Execute:  func() error { return s.normalizeImages(context, uri) },
		})
	}
	return nil
}

func insertsImage(changes []any) bool {
	for _, raw := range changes {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEvent:
			if image.Contains(change.Text) {
				return true
			}
		case protocol.TextDocumentContentChangeEventWhole:
			if image.Contains(change.Text) {
				return true
			}
		}
	}
	return false
}

// isCurrent reports whether the document is still at the version and cursor
// line the token was taken at.
func (s *Server) isCurrent(token scheduler.Token) bool {
	doc, err := s.manager.Snapshot(token.URI)
	if err != nil {
		return false
	}
	return doc.Version == token.Version && doc.Cursor().Line == token.Line
}

func (s *Server) isCurrentVersion(token scheduler.Token) bool {
	doc, err := s.manager.Snapshot(token.URI)
	if err != nil {
		return false
	}
	return doc.Version == token.Version
}

func (s *Server) addTableCaption(context *glsp.Context, uri protocol.DocumentUri) error {
	doc, err := s.manager.Snapshot(uri)
	if err != nil {
		return nil
	}
	cfg, _ := s.current()
	listener := table.New(table.Config{
		Template: cfg.TblRefStyle,
		AutoAdd:  cfg.AutoAddTblRef,
	}, s.tags, s.parser)

	if !listener.OnChange(doc, metadata(doc)) {
		return nil
	}
	return applyEdit(context, uri, "Add table caption", doc.Edits())
}

func (s *Server) normalizeImages(context *glsp.Context, uri protocol.DocumentUri) error {
	doc, err := s.manager.Snapshot(uri)
	if err != nil {
		return nil
	}
	cfg, _ := s.current()
	normalizer := image.New(image.Config{
		Template:      cfg.FigRefStyle,
		AutoAdd:       cfg.AutoAddFigRef,
		MarkdownLinks: cfg.MarkdownImageLinkStyle,
	}, s.tags, s.parser)

	if normalizer.Normalize(doc, metadata(doc)) == 0 {
		return nil
	}
	return applyEdit(context, uri, "Normalize image links", doc.Edits())
}

func (s *Server) textDocumentDidSave(
	context *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	if params.Text == nil {
		return nil
	}
	err := s.manager.Replace(params.TextDocument.URI, *params.Text)
	if errors.Is(err, manager.ErrNotOpen) {
		return nil
	}
	return err
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	s.scheduler.CancelPrefix(uri + "|")
	s.manager.Release(uri)
	return nil
}
