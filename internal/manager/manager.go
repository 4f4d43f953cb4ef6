package manager

import (
	"errors"
	"fmt"
	"sync"

	"easyref/internal/document"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ErrNotOpen is returned for URIs the client never opened or already closed.
var ErrNotOpen = errors.New("document not open")

// DocumentManager encapsulates document state for each open URI.
type DocumentManager struct {
	mu   sync.Mutex
	docs map[protocol.DocumentUri]*document.Document
}

// NewDocumentManager creates an initialized DocumentManager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		docs: make(map[protocol.DocumentUri]*document.Document),
	}
}

// Open registers a document with its full text, replacing any previous state.
func (dm *DocumentManager) Open(uri protocol.DocumentUri, version protocol.Integer, text string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.docs[uri] = document.New(uri, version, text)
}

// Replace resets the text of an open document, e.g. on save with text.
func (dm *DocumentManager) Replace(uri protocol.DocumentUri, text string) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.docs[uri]
	if !ok {
		return fmt.Errorf("%s: %w", uri, ErrNotOpen)
	}
	replaced := document.New(uri, doc.Version, text)
	replaced.SetCursor(doc.Cursor())
	dm.docs[uri] = replaced
	return nil
}

// ApplyChanges applies a batch of content changes and bumps the version.
func (dm *DocumentManager) ApplyChanges(
	uri protocol.DocumentUri,
	version protocol.Integer,
	changes []any,
) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.docs[uri]
	if !ok {
		return fmt.Errorf("%s: %w", uri, ErrNotOpen)
	}
	for _, change := range changes {
		if err := doc.ApplyChange(change); err != nil {
			return fmt.Errorf("unexpected error during edit: %w", err)
		}
	}
	doc.Version = version
	return nil
}

// Snapshot returns a recording copy of the document at uri. Work on the
// snapshot never races with incoming changes.
func (dm *DocumentManager) Snapshot(uri protocol.DocumentUri) (*document.Document, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.docs[uri]
	if !ok {
		return nil, fmt.Errorf("%s: %w", uri, ErrNotOpen)
	}
	return doc.Snapshot(), nil
}

// URIs lists the open documents.
func (dm *DocumentManager) URIs() []protocol.DocumentUri {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	uris := make([]protocol.DocumentUri, 0, len(dm.docs))
	for uri := range dm.docs {
		uris = append(uris, uri)
	}
	return uris
}

// Release frees the document state for a URI.
func (dm *DocumentManager) Release(uri protocol.DocumentUri) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.docs, uri)
}

// CloseAll drops every document.
func (dm *DocumentManager) CloseAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.docs = make(map[protocol.DocumentUri]*document.Document)
}
