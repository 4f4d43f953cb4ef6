package server

import (
	"fmt"
	"net/url"
	"path/filepath"

	"easyref/internal/document"
	"easyref/internal/frontmatter"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// applyEdit asks the client to apply edits to uri. It blocks until the client
// answers, so it must not run on a request handler.
func applyEdit(ctx *glsp.Context, uri protocol.DocumentUri, label string, edits []protocol.TextEdit) error {
	if len(edits) == 0 {
		return nil
	}
	var result protocol.ApplyWorkspaceEditResponse
	ctx.Call("workspace/applyEdit", protocol.ApplyWorkspaceEditParams{
		Label: &label,
		Edit: protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{uri: edits},
		},
	}, &result)
	if !result.Applied {
		reason := "no reason given"
		if result.FailureReason != nil {
			reason = *result.FailureReason
		}
		return fmt.Errorf("client did not apply %q: %s", label, reason)
	}
	return nil
}

func showMessage(ctx *glsp.Context, typ protocol.MessageType, message string) {
	ctx.Notify("window/showMessage", protocol.ShowMessageParams{Type: typ, Message: message})
}

func metadata(doc *document.Document) frontmatter.Map {
	m, _ := frontmatter.Parse(doc)
	return m
}

func uriToPath(uri protocol.DocumentUri) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse uri: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}

func stringArg(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d: expected string, got %T", i, args[i])
	}
	return s, nil
}
