// Package engine wires the chat, completion and command components to one
// live configuration.
package engine

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/actions"
	"github.com/Paranoid-AF/localai/chat"
	"github.com/Paranoid-AF/localai/client"
	"github.com/Paranoid-AF/localai/complete"
	"github.com/Paranoid-AF/localai/prompt"
)

// Engine owns the transport, the chat session, the completion trigger and the
// host commands, and rebuilds them from every applied config.
type Engine struct {
	configPath string
	promptPath string
	logger     *zap.Logger

	config  atomic.Pointer[localai.Config]
	applyMu sync.Mutex

	builder atomic.Pointer[prompt.Builder]
	manager *client.Manager
	session *chat.Session
	trigger *complete.Trigger
	actions *actions.Actions
}

// New loads the config at configPath and builds the components from it.
// A config that cannot be read falls back to the defaults.
func New(configPath string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := localai.LoadConfigFile(configPath)
	if err != nil {
		logger.Warn("failed to load config, using defaults", zap.Error(err))
		cfg = localai.DefaultConfig()
	}
	return NewWithConfig(configPath, cfg, logger)
}

// NewWithConfig builds the components from cfg. configPath is where commands
// persist changes.
func NewWithConfig(configPath string, cfg *localai.Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		configPath: configPath,
		promptPath: filepath.Join(filepath.Dir(configPath), "system_prompt.md"),
		logger:     logger,
	}
	e.config.Store(cfg)

	for _, w := range localai.ValidateConfig(cfg) {
		logger.Warn("config warning", zap.String("warning", w))
	}

	e.builder.Store(e.loadBuilder())
	e.manager = client.NewManager(cfg, logger.Named("client"))
	e.session = chat.NewSession(e.manager, e.builder.Load(), logger.Named("chat"))
	e.trigger = complete.NewTrigger(e.manager, complete.SettingsFromConfig(cfg), logger.Named("complete"))
	e.actions = actions.New(&actions.FileStore{Path: configPath}, e.manager, e.Apply, logger.Named("actions"))
	return e
}

func (e *Engine) loadBuilder() *prompt.Builder {
	return prompt.NewBuilder(prompt.LoadSystemPromptFile(e.promptPath, e.logger))
}

// ConfigPath returns the file the engine reads and persists.
func (e *Engine) ConfigPath() string { return e.configPath }

// PromptPath returns the custom system prompt file location.
func (e *Engine) PromptPath() string { return e.promptPath }

// Config returns the active configuration.
func (e *Engine) Config() *localai.Config { return e.config.Load() }

// Apply makes cfg the active configuration. The client is replaced, never
// modified; requests already running finish on the previous one.
func (e *Engine) Apply(cfg *localai.Config) {
	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	e.config.Store(cfg)
	e.manager.Update(cfg)
	e.trigger.Update(complete.SettingsFromConfig(cfg))
	b := e.loadBuilder()
	e.builder.Store(b)
	e.session.SetBuilder(b)
	e.logger.Debug("config applied", zap.String("endpoint", e.manager.Endpoint()))
}

// Reload re-reads the config file and applies it. On error the active
// configuration stays in place.
func (e *Engine) Reload() (*localai.Config, error) {
	cfg, err := localai.LoadConfigFile(e.configPath)
	if err != nil {
		return nil, err
	}
	e.Apply(cfg)
	return cfg, nil
}

// Endpoint returns the server address requests currently go to.
func (e *Engine) Endpoint() string { return e.manager.Endpoint() }

// Chat runs one chat turn, rendering the reply to r.
func (e *Engine) Chat(ctx context.Context, req *localai.ChatRequest, r chat.Renderer) chat.Result {
	return e.session.Handle(ctx, req, r)
}

// ChatSync sends the assembled messages without streaming and returns the reply.
func (e *Engine) ChatSync(ctx context.Context, req *localai.ChatRequest) (string, error) {
	messages, err := e.builder.Load().Build(req)
	if err != nil {
		return "", err
	}
	return e.manager.Chat(ctx, messages)
}

// Suggest returns the inline suggestion for doc, or "".
func (e *Engine) Suggest(ctx context.Context, doc localai.Document) string {
	return e.trigger.Suggest(ctx, doc)
}

// Command runs a host command.
func (e *Engine) Command(ctx context.Context, req *localai.CommandRequest) ([]localai.Notice, error) {
	return e.actions.Run(ctx, req)
}

// StartupCheck probes the endpoint once and returns a warning if it is unreachable.
func (e *Engine) StartupCheck(ctx context.Context) []localai.Notice {
	return e.actions.StartupCheck(ctx)
}

// Close releases the cache loop and idle connections.
func (e *Engine) Close() {
	e.trigger.Close()
	e.manager.Close()
}
