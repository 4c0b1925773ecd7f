// Package serve exposes the engine to editor hosts over a Unix domain socket.
// Each line on a connection is one JSON request; every response line carries
// the request_id it answers.
package serve

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"go.uber.org/zap"

	localai "github.com/Paranoid-AF/localai"
	"github.com/Paranoid-AF/localai/chat"
	"github.com/Paranoid-AF/localai/client"
	"github.com/Paranoid-AF/localai/prompt"
)

// maxRequestSize bounds one request line; documents for completion can be large.
const maxRequestSize = 16 << 20

// Engine processes the requests the server receives.
type Engine interface {
	Chat(ctx context.Context, req *localai.ChatRequest, r chat.Renderer) chat.Result
	Suggest(ctx context.Context, doc localai.Document) string
	Command(ctx context.Context, req *localai.CommandRequest) ([]localai.Notice, error)
	Config() *localai.Config
	Reload() (*localai.Config, error)
}

// sessionEntry tracks a cancellable in-flight request for a session.
type sessionEntry struct {
	requestID int
	cancel    context.CancelFunc
}

// Server listens on a Unix domain socket for host requests.
type Server struct {
	listener net.Listener
	sockPath string
	engine   Engine
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]sessionEntry
}

// NewServer creates a new IPC server bound to the given socket path.
func NewServer(sockPath string, engine Engine, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Remove stale socket file if it exists
	if err := os.Remove(sockPath); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, err
	}

	return &Server{
		listener: listener,
		sockPath: sockPath,
		engine:   engine,
		logger:   logger,
		sessions: make(map[string]sessionEntry),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.sockPath }

// Serve accepts connections and handles requests until the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

// Close stops listening, cancels in-flight requests and removes the socket file.
func (s *Server) Close() {
	s.listener.Close()
	s.mu.Lock()
	for sid, entry := range s.sessions {
		entry.cancel()
		delete(s.sessions, sid)
	}
	s.mu.Unlock()
	os.Remove(s.sockPath)
}

// errorResponse answers a line that could not be dispatched.
type errorResponse struct {
	RequestID int            `json:"request_id"`
	Error     *localai.Error `json:"error"`
}

// conn serializes response lines written by concurrent handlers.
type conn struct {
	c  net.Conn
	mu sync.Mutex
}

func (c *conn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.c.Write(append(data, '\n'))
	return err
}

func (s *Server) handleConn(nc net.Conn) {
	defer nc.Close()
	c := &conn{c: nc}

	var wg sync.WaitGroup
	defer wg.Wait()

	scanner := bufio.NewScanner(nc)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestSize)
	for scanner.Scan() {
		raw := append([]byte(nil), scanner.Bytes()...)
		if len(raw) == 0 {
			continue
		}
		s.logger.Debug("request", zap.ByteString("data", raw))

		var req localai.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			s.logger.Warn("invalid request", zap.Error(err))
			c.writeJSON(errorResponse{Error: &localai.Error{Code: "invalid_request", Message: err.Error()}})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.dispatch(c, &req)
		}()
	}
	if err := scanner.Err(); err != nil {
		s.logger.Debug("connection read failed", zap.Error(err))
	}
}

// begin registers req as the in-flight request of its session, cancelling
// the previous one.
func (s *Server) begin(req *localai.Request) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sid := req.SessionID
	reqID := req.RequestID
	if sid != "" {
		s.mu.Lock()
		if prev, ok := s.sessions[sid]; ok {
			prev.cancel()
		}
		s.sessions[sid] = sessionEntry{requestID: reqID, cancel: cancel}
		s.mu.Unlock()
	}
	return ctx, func() {
		cancel()
		if sid != "" {
			s.mu.Lock()
			if cur, ok := s.sessions[sid]; ok && cur.requestID == reqID {
				delete(s.sessions, sid)
			}
			s.mu.Unlock()
		}
	}
}

func (s *Server) dispatch(c *conn, req *localai.Request) {
	ctx, done := s.begin(req)
	defer done()

	var err error
	switch req.Type {
	case localai.TypeChat:
		err = s.handleChat(ctx, c, req)
	case localai.TypeComplete:
		err = s.handleComplete(ctx, c, req)
	case localai.TypeCommand:
		err = s.handleCommand(ctx, c, req)
	case localai.TypeConfig:
		err = s.handleConfig(c, req)
	default:
		err = c.writeJSON(errorResponse{
			RequestID: req.RequestID,
			Error:     &localai.Error{Code: "unknown_type", Message: fmt.Sprintf("unknown request type %q", req.Type)},
		})
	}
	if err != nil && ctx.Err() == nil {
		s.logger.Debug("failed to write response", zap.Int("request_id", req.RequestID), zap.Error(err))
	}
}

func (s *Server) handleChat(ctx context.Context, c *conn, req *localai.Request) error {
	if req.Chat == nil {
		return c.writeJSON(localai.ChatEvent{
			RequestID: req.RequestID,
			Type:      localai.EventError,
			Error:     &localai.Error{Code: "invalid_request", Message: "chat payload is required"},
		})
	}

	renderer := chat.RenderFunc(func(text string) error {
		// If cancelled, skip writing; the host has already moved on.
		if err := ctx.Err(); err != nil {
			return err
		}
		return c.writeJSON(localai.ChatEvent{RequestID: req.RequestID, Type: localai.EventFragment, Text: text})
	})
	res := s.engine.Chat(ctx, req.Chat, renderer)
	if ctx.Err() != nil {
		return nil
	}

	if res.Err != nil {
		return c.writeJSON(localai.ChatEvent{RequestID: req.RequestID, Type: localai.EventError, Error: chatError(res.Err)})
	}
	return c.writeJSON(localai.ChatEvent{RequestID: req.RequestID, Type: localai.EventDone})
}

func chatError(err error) *localai.Error {
	var uerr *prompt.UserInputError
	if errors.As(err, &uerr) {
		return &localai.Error{Code: "no_selection", Message: uerr.Message}
	}
	var upstream *client.UpstreamError
	if errors.As(err, &upstream) {
		return &localai.Error{Code: "upstream_error", Message: upstream.Error()}
	}
	return &localai.Error{Code: "chat_error", Message: err.Error()}
}

func (s *Server) handleComplete(ctx context.Context, c *conn, req *localai.Request) error {
	var suggestion string
	if req.Complete != nil {
		suggestion = s.engine.Suggest(ctx, *req.Complete)
	}
	if ctx.Err() != nil {
		return nil
	}
	return c.writeJSON(localai.CompleteResponse{RequestID: req.RequestID, Suggestion: suggestion})
}

func (s *Server) handleCommand(ctx context.Context, c *conn, req *localai.Request) error {
	resp := localai.CommandResponse{RequestID: req.RequestID}
	if req.Command == nil {
		resp.Error = &localai.Error{Code: "invalid_request", Message: "command payload is required"}
		return c.writeJSON(resp)
	}

	notices, err := s.engine.Command(ctx, req.Command)
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		resp.Error = &localai.Error{Code: "command_error", Message: err.Error()}
	}
	resp.Notices = notices
	if resp.Notices == nil {
		resp.Notices = []localai.Notice{}
	}
	return c.writeJSON(resp)
}

func (s *Server) handleConfig(c *conn, req *localai.Request) error {
	resp := localai.ConfigResponse{RequestID: req.RequestID}
	action := ""
	if req.Config != nil {
		action = req.Config.Action
	}

	switch action {
	case "get":
		resp.Config = s.engine.Config()

	case "reload":
		cfg, err := s.engine.Reload()
		if err != nil {
			resp.Error = &localai.Error{Code: "config_error", Message: err.Error()}
		} else {
			resp.Config = cfg
			s.logger.Info("engine reloaded")
		}

	case "defaults":
		resp.Config = localai.DefaultConfig()

	case "validate":
		resp.Warnings = localai.ValidateConfig(s.engine.Config())
		if resp.Warnings == nil {
			resp.Warnings = []string{}
		}

	default:
		resp.Error = &localai.Error{
			Code:    "unknown_action",
			Message: "unknown config action: " + action,
		}
	}

	return c.writeJSON(resp)
}
