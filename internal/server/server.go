package server

import (
	"sync"

	"easyref/internal/locale"
	"easyref/internal/manager"
	"easyref/internal/markdown"
	"easyref/internal/scheduler"
	"easyref/internal/settings"
	"easyref/internal/tag"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const Name = "easyref"

// Commands understood by workspace/executeCommand.
const (
	CommandUpdateMetadata  = "easyref.updateMetadata"
	CommandNormalizeImages = "easyref.normalizeImages"
	CommandImageName       = "easyref.imageName"
)

var triggerCharacters = []string{"[", "@", ":", ";"}

var log = commonlog.GetLogger("easyref.server")

// Options configure a Server.
type Options struct {
	// SettingsPath is an optional YAML settings file, watched for changes.
	SettingsPath string
	Version      string
	// Tags overrides the tag generator, mainly for tests.
	Tags *tag.Generator
}

type Server struct {
	handler   *protocol.Handler
	manager   *manager.DocumentManager
	scheduler *scheduler.Scheduler
	parser    *markdown.Parser
	tags      *tag.Generator
	opts      Options

	mu          sync.RWMutex
	settings    settings.Settings
	translator  locale.Translator
	initOptions any
	// clientConfig accumulates the keys sent with didChangeConfiguration,
	// replayed over the settings file when it is reloaded.
	clientConfig map[string]any
	watcher      *settings.Watcher
}

func NewServer(opts Options) *server.Server {
	s := newServer(opts)
	return server.NewServer(s.handler, Name, false)
}

func newServer(opts Options) *Server {
	s := &Server{
		manager:   manager.NewDocumentManager(),
		scheduler: scheduler.NewScheduler(64),
		parser:    markdown.NewParser(),
		tags:      opts.Tags,
		opts:      opts,
	}
	if s.tags == nil {
		s.tags = tag.Default()
	}
	s.translator = locale.New()
	s.settings = settings.Default(s.translator)
	s.scheduler.RunScheduler()

	s.handler = &protocol.Handler{
		Initialize:                      s.initialize,
		Initialized:                     s.initialized,
		Shutdown:                        s.shutdown,
		SetTrace:                        s.setTrace,
		WorkspaceDidChangeConfiguration: s.workspaceDidChangeConfiguration,
		TextDocumentDidOpen:             s.textDocumentDidOpen,
		TextDocumentDidChange:           s.textDocumentDidChange,
		TextDocumentDidSave:             s.textDocumentDidSave,
		TextDocumentDidClose:            s.textDocumentDidClose,
		TextDocumentCompletion:          s.textDocumentCompletion,
		TextDocumentDefinition:          s.textDocumentDefinition,
		TextDocumentReferences:          s.textDocumentReferences,
		WorkspaceExecuteCommand:         s.workspaceExecuteCommand,
	}
	return s
}

// current returns the settings and translator in force.
func (s *Server) current() (settings.Settings, locale.Translator) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, s.translator
}
