package server

import (
	"fmt"
	"maps"

	"easyref/internal/locale"
	"easyref/internal/settings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	var pref string
	if params.Locale != nil {
		pref = *params.Locale
	}

	cfg, tr, err := s.loadSettings(pref, params.InitializationOptions)
	if err != nil {
		// Start with defaults rather than refusing to serve.
		log.Errorf("settings: %v", err)
		tr = locale.New(pref)
		cfg = settings.Default(tr)
		showMessage(context, protocol.MessageTypeWarning, tr.T(locale.MessageSettingsError)+": "+err.Error())
	}

	s.mu.Lock()
	s.settings, s.translator = cfg, tr
	s.initOptions = params.InitializationOptions
	s.mu.Unlock()
	log.Infof("language %s, settings %+v", tr.Language(), cfg)

	syncKind := protocol.TextDocumentSyncKindIncremental

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: &protocol.True},
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: triggerCharacters,
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{CommandUpdateMetadata, CommandNormalizeImages, CommandImageName},
	}

	version := s.opts.Version
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &version,
		},
	}, nil
}

// loadSettings builds the settings from defaults, the settings file and the
// client options, in that order. The language decides the default titles, so
// a language override restarts from the matching defaults.
func (s *Server) loadSettings(localePref string, options any) (settings.Settings, locale.Translator, error) {
	build := func(tr locale.Translator) (settings.Settings, error) {
		cfg := settings.Default(tr)
		if s.opts.SettingsPath != "" {
			var err error
			if cfg, err = settings.LoadFile(cfg, s.opts.SettingsPath); err != nil {
				return settings.Settings{}, err
			}
		}
		return settings.Load(cfg, options)
	}

	tr := locale.New(localePref)
	cfg, err := build(tr)
	if err != nil {
		return settings.Settings{}, tr, err
	}
	if cfg.Language != "" && cfg.Language != tr.Language() {
		tr = locale.New(cfg.Language)
		if cfg, err = build(tr); err != nil {
			return settings.Settings{}, tr, err
		}
	}
	return cfg, tr, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Info("client initialized")
	if s.opts.SettingsPath == "" {
		return nil
	}

	base := func() settings.Settings {
		_, tr := s.current()
		return settings.Default(tr)
	}
	w, err := settings.Watch(s.opts.SettingsPath, base, func(cfg settings.Settings, err error) {
		s.mu.RLock()
		options, overrides := s.initOptions, maps.Clone(s.clientConfig)
		s.mu.RUnlock()
		if err == nil {
			cfg, err = settings.Load(cfg, options)
		}
		if err == nil && overrides != nil {
			cfg, err = settings.Load(cfg, overrides)
		}
		s.updateSettings(context, cfg, err)
	})
	if err != nil {
		return fmt.Errorf("failed to watch settings: %w", err)
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	return nil
}

func (s *Server) workspaceDidChangeConfiguration(
	context *glsp.Context,
	params *protocol.DidChangeConfigurationParams,
) error {
	v := params.Settings
	if m, ok := v.(map[string]any); ok {
		if scoped, ok := m[Name]; ok {
			v = scoped
		}
	}
	current, _ := s.current()
	cfg, err := settings.Load(current, v)
	s.updateSettings(context, cfg, err)
	if err == nil {
		s.rememberClientConfig(v)
	}
	return nil
}

// rememberClientConfig merges the top-level keys of a configuration change
// into clientConfig.
func (s *Server) rememberClientConfig(v any) {
	m, ok := v.(map[string]any)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clientConfig == nil {
		s.clientConfig = make(map[string]any, len(m))
	}
	maps.Copy(s.clientConfig, m)
}

// updateSettings installs cfg, or keeps the previous settings and warns the
// user when err is set.
func (s *Server) updateSettings(context *glsp.Context, cfg settings.Settings, err error) {
	if err != nil {
		_, tr := s.current()
		log.Warningf("keeping previous settings: %v", err)
		showMessage(context, protocol.MessageTypeWarning, tr.T(locale.MessageSettingsError)+": "+err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = cfg
	if cfg.Language != "" {
		s.translator = locale.New(cfg.Language)
	}
}

func (s *Server) shutdown(context *glsp.Context) error {
	s.scheduler.StopScheduler()
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()
	if w != nil {
		if err := w.Close(); err != nil {
			log.Warningf("closing settings watcher: %v", err)
		}
	}
	s.manager.CloseAll()
	return s.parser.Close()
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}
