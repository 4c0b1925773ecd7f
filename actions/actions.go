// Package actions implements the host command shortcuts: connectivity test,
// endpoint configuration and the completion toggle.
package actions

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	localai "github.com/Paranoid-AF/localai"
)

// Prober checks the reachability of the current upstream.
type Prober interface {
	Endpoint() string
	TestConnection(ctx context.Context) bool
}

// Store loads and persists the configuration.
type Store interface {
	Load() (*localai.Config, error)
	Save(cfg *localai.Config) error
}

// FileStore is a Store backed by a TOML file.
type FileStore struct {
	Path string
}

func (s *FileStore) Load() (*localai.Config, error) { return localai.LoadConfigFile(s.Path) }

func (s *FileStore) Save(cfg *localai.Config) error { return localai.SaveConfigFile(s.Path, cfg) }

// Actions runs host commands against the live components.
type Actions struct {
	store    Store
	upstream Prober
	apply    func(*localai.Config)
	logger   *zap.Logger
}

// New creates the command handlers. apply is called with every saved config
// so the change takes effect before the file watcher notices it.
func New(store Store, upstream Prober, apply func(*localai.Config), logger *zap.Logger) *Actions {
	if logger == nil {
		logger = zap.NewNop()
	}
	if apply == nil {
		apply = func(*localai.Config) {}
	}
	return &Actions{store: store, upstream: upstream, apply: apply, logger: logger}
}

func info(msg string) localai.Notice { return localai.Notice{Severity: localai.SeverityInfo, Message: msg} }
func warning(msg string) localai.Notice { return localai.Notice{Severity: localai.SeverityWarning, Message: msg} }
func failure(msg string) localai.Notice { return localai.Notice{Severity: localai.SeverityError, Message: msg} }

// TestConnection probes the current endpoint.
func (a *Actions) TestConnection(ctx context.Context) []localai.Notice {
	if a.upstream.TestConnection(ctx) {
		return []localai.Notice{info("✓ Successfully connected to LocalAI")}
	}
	return []localai.Notice{failure(fmt.Sprintf(
		"✗ Failed to connect to LocalAI at %s. Please check your configuration.", a.upstream.Endpoint()))}
}

// StartupCheck returns a warning when the endpoint cannot be reached, and nothing otherwise.
func (a *Actions) StartupCheck(ctx context.Context) []localai.Notice {
	if a.upstream.TestConnection(ctx) {
		return nil
	}
	return []localai.Notice{warning("Cannot connect to LocalAI at " + a.upstream.Endpoint())}
}

// ConfigureEndpoint persists a new endpoint and probes it. An empty endpoint
// changes nothing.
func (a *Actions) ConfigureEndpoint(ctx context.Context, endpoint string) ([]localai.Notice, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, nil
	}

	cfg, err := a.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Server.Endpoint = endpoint
	if err := a.store.Save(cfg); err != nil {
		return nil, fmt.Errorf("save config: %w", err)
	}
	a.apply(cfg)
	a.logger.Info("endpoint updated", zap.String("endpoint", endpoint))

	notices := []localai.Notice{info("LocalAI endpoint updated to: " + endpoint)}
	if a.upstream.TestConnection(ctx) {
		notices = append(notices, info("✓ Successfully connected to LocalAI"))
	} else {
		notices = append(notices, warning("⚠️ Cannot connect to LocalAI. Please verify the endpoint."))
	}
	return notices, nil
}

// ToggleCompletion flips and persists the completion flag.
func (a *Actions) ToggleCompletion(ctx context.Context) ([]localai.Notice, error) {
	cfg, err := a.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	enabled := !localai.CompletionEnabled(cfg)
	cfg.Completion.Enabled = &enabled
	if err := a.store.Save(cfg); err != nil {
		return nil, fmt.Errorf("save config: %w", err)
	}
	a.apply(cfg)

	status := "disabled"
	if enabled {
		status = "enabled"
	}
	a.logger.Info("completion toggled", zap.Bool("enabled", enabled))
	return []localai.Notice{info("LocalAI code completion " + status)}, nil
}

// Run dispatches a command request by name.
func (a *Actions) Run(ctx context.Context, req *localai.CommandRequest) ([]localai.Notice, error) {
	switch req.Name {
	case localai.CommandTestConnection:
		return a.TestConnection(ctx), nil
	case localai.CommandConfigureEndpoint:
		return a.ConfigureEndpoint(ctx, req.Endpoint)
	case localai.CommandToggleCompletion:
		return a.ToggleCompletion(ctx)
	default:
		return nil, fmt.Errorf("unknown command %q", req.Name)
	}
}
