// Package chat drives one chat turn from request to rendered reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/client"
	"github.com/Paranoid-AF/localai/prompt"
)

// Upstream is the part of the transport the session needs.
type Upstream interface {
	Endpoint() string
	TestConnection(ctx context.Context) bool
	ChatStream(ctx context.Context, messages []localai.ChatMessage) (*client.Stream, error)
}

// Renderer receives reply text in arrival order. A render error stops the turn.
type Renderer interface {
	Render(text string) error
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(text string) error

func (f RenderFunc) Render(text string) error { return f(text) }

// Result summarizes a finished turn.
type Result struct {
	Command string
	// Text is the reply as rendered, notices and inline errors included.
	Text string
	// Unreachable is set when the connection probe failed.
	Unreachable bool
	// Err is the failure rendered inline, if any.
	Err error
}

// Session answers chat requests against the current upstream client.
type Session struct {
	upstream Upstream
	builder  atomic.Pointer[prompt.Builder]
	logger   *zap.Logger
}

// NewSession creates a session. A nil builder selects the built-in system prompt.
func NewSession(upstream Upstream, builder *prompt.Builder, logger *zap.Logger) *Session {
	if builder == nil {
		builder = prompt.NewBuilder("")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{upstream: upstream, logger: logger}
	s.builder.Store(builder)
	return s
}

// SetBuilder replaces the prompt builder used by later turns.
func (s *Session) SetBuilder(b *prompt.Builder) {
	s.builder.Store(b)
}

// Handle runs one turn. Every outcome, errors included, is rendered to r;
// Handle itself never fails.
func (s *Session) Handle(ctx context.Context, req *localai.ChatRequest, r Renderer) Result {
	t := &turn{renderer: r, result: Result{Command: req.Command}}

	if err := prompt.Validate(req); err != nil {
		var uerr *prompt.UserInputError
		if errors.As(err, &uerr) {
			t.render("⚠️ " + uerr.Message)
		}
		t.result.Err = err
		return t.done()
	}

	if !s.upstream.TestConnection(ctx) {
		endpoint := s.upstream.Endpoint()
		s.logger.Info("chat upstream unreachable", zap.String("endpoint", endpoint))
		t.render("⚠️ Cannot connect to LocalAI server. Please check your configuration.\n\n")
		t.render("Current endpoint: `" + endpoint + "`\n\n")
		t.render("You can update the endpoint in your settings: `server.endpoint`")
		t.result.Unreachable = true
		return t.done()
	}

	messages, err := s.builder.Load().Build(req)
	if err != nil {
		return t.fail(err)
	}
	s.logger.Debug("chat request", zap.Int("messages", len(messages)), zap.String("command", req.Command))

	stream, err := s.upstream.ChatStream(ctx, messages)
	if err != nil {
		return t.fail(err)
	}
	defer stream.Close()

	for fragment, err := range stream.Fragments() {
		if ctx.Err() != nil {
			break
		}
		if err != nil {
			return t.fail(err)
		}
		if !t.render(fragment) {
			break
		}
	}
	if ctx.Err() != nil {
		s.logger.Debug("chat cancelled", zap.Error(ctx.Err()))
	}
	return t.done()
}

type turn struct {
	renderer Renderer
	text     strings.Builder
	result   Result
	broken   bool
}

func (t *turn) render(text string) bool {
	if t.broken {
		return false
	}
	if err := t.renderer.Render(text); err != nil {
		t.broken = true
		if t.result.Err == nil {
			t.result.Err = fmt.Errorf("render: %w", err)
		}
		return false
	}
	t.text.WriteString(text)
	return true
}

func (t *turn) fail(err error) Result {
	t.result.Err = err
	t.render("\n\n⚠️ Error: " + err.Error())
	return t.done()
}

func (t *turn) done() Result {
	t.result.Text = t.text.String()
	return t.result
}
