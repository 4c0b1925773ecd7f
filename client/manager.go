package client

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	localai "github.com/Paranoid-AF/localai"
)

// Manager owns the active Client and replaces it when the configuration changes.
// Every call runs on the client that was current when it started.
type Manager struct {
	current atomic.Pointer[Client]
	logger  *zap.Logger
}

// NewManager creates a manager with a client built from cfg.
func NewManager(cfg *localai.Config, logger *zap.Logger) *Manager {
	return NewManagerWithSettings(SettingsFromConfig(cfg), logger)
}

// NewManagerWithSettings creates a manager with a client built from s.
func NewManagerWithSettings(s Settings, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{logger: logger}
	m.current.Store(New(s, logger))
	return m
}

// Update rebuilds the client from cfg and swaps it in.
func (m *Manager) Update(cfg *localai.Config) {
	m.UpdateSettings(SettingsFromConfig(cfg))
}

// UpdateSettings swaps in a client built from s. Requests already running
// keep the client they started with.
func (m *Manager) UpdateSettings(s Settings) {
	old := m.current.Swap(New(s, m.logger))
	if old != nil {
		old.Close()
	}
	m.logger.Info("client updated", zap.String("endpoint", s.Endpoint))
}

// Client returns the current client.
func (m *Manager) Client() *Client {
	return m.current.Load()
}

// Endpoint returns the current client's server address.
func (m *Manager) Endpoint() string {
	return m.Client().Endpoint()
}

// Chat delegates to the current client.
func (m *Manager) Chat(ctx context.Context, messages []localai.ChatMessage) (string, error) {
	return m.Client().Chat(ctx, messages)
}

// ChatStream delegates to the current client.
func (m *Manager) ChatStream(ctx context.Context, messages []localai.ChatMessage) (*Stream, error) {
	return m.Client().ChatStream(ctx, messages)
}

// Complete delegates to the current client.
func (m *Manager) Complete(ctx context.Context, req localai.CompletionRequest) (string, error) {
	return m.Client().Complete(ctx, req)
}

// TestConnection delegates to the current client.
func (m *Manager) TestConnection(ctx context.Context) bool {
	return m.Client().TestConnection(ctx)
}

// Close releases the current client's idle connections.
func (m *Manager) Close() {
	m.Client().Close()
}
