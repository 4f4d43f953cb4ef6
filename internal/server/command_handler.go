package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"easyref/internal/frontmatter"
	"easyref/internal/image"
	"easyref/internal/locale"
	"easyref/internal/scheduler"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ImageName is the result of CommandImageName.
type ImageName struct {
	// Name is the file name to save the image under.
	Name string `json:"name"`
	// Path is where to save it, relative to the document's directory.
	Path string `json:"path"`
	// Link is the Markdown to insert at the cursor.
	Link string `json:"link"`
}

func (s *Server) workspaceExecuteCommand(
	context *glsp.Context,
	params *protocol.ExecuteCommandParams,
) (any, error) {
	switch params.Command {
	case CommandUpdateMetadata:
		return nil, s.submitForDocument(context, params, "update metadata", s.updateMetadata)
	case CommandNormalizeImages:
		return nil, s.submitForDocument(context, params, "normalize images", s.normalizeImages)
	case CommandImageName:
		return s.imageName(params.Arguments)
	}
	return nil, fmt.Errorf("unknown command %q", params.Command)
}

// submitForDocument runs fn on the worker. Edits are pushed back with
// workspace/applyEdit, which cannot be awaited inside a request handler.
func (s *Server) submitForDocument(
	context *glsp.Context,
	params *protocol.ExecuteCommandParams,
	name string,
	fn func(*glsp.Context, protocol.DocumentUri) error,
) error {
	uri, err := stringArg(params.Arguments, 0)
	if err != nil {
		return fmt.Errorf("%s: %w", params.Command, err)
	}
	if _, err := s.manager.Snapshot(uri); err != nil {
		_, tr := s.current()
		showMessage(context, protocol.MessageTypeWarning, tr.T(locale.MessageNoDocument))
		return nil
	}
	s.scheduler.Submit(scheduler.Task{
		Name:    name,
		Execute: func() error { return fn(context, uri) },
	})
	return nil
}

// updateMetadata writes the pandoc-crossref options and the additional YAML
// into the front matter.
func (s *Server) updateMetadata(context *glsp.Context, uri protocol.DocumentUri) error {
	doc, err := s.manager.Snapshot(uri)
	if err != nil {
		return nil
	}
	cfg, tr := s.current()

	updateErr := frontmatter.Update(doc, cfg.Pairs(), cfg.AdditionStyle)
	if errors.Is(updateErr, frontmatter.ErrInvalidYAML) {
		showMessage(context, protocol.MessageTypeError, tr.T(locale.MessageYAMLError))
	} else if updateErr != nil {
		return updateErr
	}
	return applyEdit(context, uri, tr.T(locale.CommandUpdateMetadata), doc.Edits())
}

// imageName expects the document URI and the original image file name.
func (s *Server) imageName(args []any) (any, error) {
	uri, err := stringArg(args, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CommandImageName, err)
	}
	raw, err := stringArg(args, 1)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CommandImageName, err)
	}
	docPath, err := uriToPath(uri)
	if err != nil {
		return nil, err
	}
	cfg, _ := s.current()

	dir := filepath.Dir(docPath)
	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(dir, filepath.FromSlash(image.AttachmentPath(cfg.AttachmentFolder, name))))
		return err == nil
	}
	name := image.FileName(cfg.SaveImageNameFormat, filepath.Base(docPath), raw, exists)
	path := image.AttachmentPath(cfg.AttachmentFolder, name)

	target := path
	if cfg.RelativePath {
		target = name
	}
	autoAdd := cfg.AutoAddFigRef
	if doc, err := s.manager.Snapshot(uri); err == nil {
		autoAdd = autoAdd || metadata(doc).Bool("autoAddFigRef")
	}
	label := ""
	if autoAdd {
		label = s.tags.Label("fig", cfg.FigRefStyle)
	}
	return ImageName{Name: name, Path: path, Link: image.Link("", target, label)}, nil
}
