// Package localai defines the data model shared by the localai components and
// the request/response types of the editor-facing IPC protocol.
// IPC messages are JSON-encoded and sent over a Unix domain socket, one per line.
package localai

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single message of a conversation sent upstream.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a one-shot text completion request.
// Zero values fall back to the configured defaults.
type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	Stop        []string
}

// Turn is a prior conversation turn replayed by the host.
type Turn struct {
	// Role is "user" or "assistant"; other roles are ignored.
	Role Role `json:"role"`
	// Prompt is the user's text for user turns.
	Prompt string `json:"prompt,omitempty"`
	// Parts holds the rendered fragments of an assistant turn.
	Parts []string `json:"parts,omitempty"`
}

// Selection is the active text selection in the editor.
type Selection struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Empty reports whether there is no selected text.
func (s *Selection) Empty() bool {
	return s == nil || s.Text == ""
}

// Document describes the buffer an inline completion is requested for.
// Line and Character are zero-based; Character counts code points in the line.
type Document struct {
	Text      string `json:"text"`
	Language  string `json:"language"`
	FileName  string `json:"file_name"`
	Line      int    `json:"line"`
	Character int    `json:"character"`
}

// Request types understood by the daemon.
const (
	TypeChat     = "chat"
	TypeComplete = "complete"
	TypeCommand  = "command"
	TypeConfig   = "config"
)

// Request is sent from the editor host to the daemon.
type Request struct {
	// Type selects the operation: "chat", "complete", "command" or "config".
	Type string `json:"type"`
	// RequestID is a per-session incrementing identifier assigned by the host.
	// The daemon echoes it back in every response line.
	RequestID int `json:"request_id"`
	// SessionID identifies the editor window. A new request in a session
	// cancels the one still in flight.
	SessionID string `json:"session_id,omitempty"`

	Chat     *ChatRequest    `json:"chat,omitempty"`
	Complete *Document       `json:"complete,omitempty"`
	Command  *CommandRequest `json:"command,omitempty"`
	Config   *ConfigRequest  `json:"config,omitempty"`
}

// ChatRequest is the current chat turn plus the history the host retained.
type ChatRequest struct {
	Prompt string `json:"prompt"`
	// Command is an optional shortcut: explain, fix, optimize, document or test.
	Command   string     `json:"command,omitempty"`
	History   []Turn     `json:"history,omitempty"`
	Selection *Selection `json:"selection,omitempty"`
}

// Chat event kinds written back for a chat request.
const (
	EventFragment = "fragment"
	EventDone     = "done"
	EventError    = "error"
)

// ChatEvent is one line of a streamed chat reply.
type ChatEvent struct {
	RequestID int    `json:"request_id"`
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Error     *Error `json:"error,omitempty"`
}

// CompleteResponse carries the inline suggestion. Suggestion is empty when
// there is nothing to show; completion failures are never reported.
type CompleteResponse struct {
	RequestID  int    `json:"request_id"`
	Suggestion string `json:"suggestion"`
}

// Host commands.
const (
	CommandTestConnection    = "test_connection"
	CommandConfigureEndpoint = "configure_endpoint"
	CommandToggleCompletion  = "toggle_completion"
)

// CommandRequest invokes one of the host command shortcuts.
type CommandRequest struct {
	Name string `json:"name"`
	// Endpoint is the new server address for "configure_endpoint".
	Endpoint string `json:"endpoint,omitempty"`
}

// Severity of a message shown by the host.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Notice is a message the host should display.
type Notice struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// CommandResponse is returned for a command request.
type CommandResponse struct {
	RequestID int      `json:"request_id"`
	Notices   []Notice `json:"notices"`
	Error     *Error   `json:"error,omitempty"`
}

// ConfigRequest is sent from the host for configuration operations.
type ConfigRequest struct {
	// Action is the config operation: "get", "reload", "defaults" or "validate".
	Action string `json:"action"`
}

// ConfigResponse is sent from the daemon in response to a ConfigRequest.
type ConfigResponse struct {
	RequestID int `json:"request_id"`
	// Config is the current configuration (for "get", "reload" and "defaults").
	Config *Config `json:"config,omitempty"`
	// Warnings contains configuration warnings (for "validate").
	Warnings []string `json:"warnings,omitempty"`
	Error    *Error   `json:"error,omitempty"`
}

// Error describes a daemon-side error returned to the host.
type Error struct {
	// Code is a machine-readable error identifier (e.g. "upstream_error", "no_selection").
	Code string `json:"code"`
	// Message is a human-readable error description.
	Message string `json:"message"`
}
